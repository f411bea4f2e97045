package release

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/imamik/stackprov/internal/util/retry"
)

// DefaultBaseURL is the GitHub REST API.
const DefaultBaseURL = "https://api.github.com"

// Artifact describes a fetched and unpacked archive. The archive file
// itself no longer exists once an Artifact is returned.
type Artifact struct {
	Tag              string
	DownloadURL      string
	FileName         string
	Digest           string
	Verified         bool
	ExtractedEntries []string
}

type releaseResponse struct {
	TagName string          `json:"tag_name"`
	Name    string          `json:"name"`
	Assets  []assetResponse `json:"assets"`
}

type assetResponse struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Digest             string `json:"digest"`
}

// Fetcher talks to the release hosting API.
type Fetcher struct {
	BaseURL    string
	HTTPClient *http.Client
	// Token is sent as a bearer token when set (raises API rate limits).
	Token string
	// MaxRetries applies to the metadata request only. Zero disables retries.
	MaxRetries int
	RetryDelay time.Duration
	// OnRetry is notified of each retried metadata failure.
	OnRetry func(attempt int, err error)
	// MetadataTimeout bounds each metadata attempt. Zero leaves only the
	// client timeout.
	MetadataTimeout time.Duration
}

// NewFetcher creates a fetcher against the public GitHub API.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: timeout},
		RetryDelay: time.Second,
	}
}

func (f *Fetcher) client() *http.Client {
	if f.HTTPClient != nil {
		return f.HTTPClient
	}
	return http.DefaultClient
}

// FetchLatest resolves the latest release of repo ("owner/name"),
// downloads its first archive asset, extracts it into destDir and
// deletes the archive.
func (f *Fetcher) FetchLatest(ctx context.Context, repo, destDir string) (*Artifact, error) {
	rel, err := f.latest(ctx, repo)
	if err != nil {
		return nil, err
	}

	asset, ok := firstArchive(rel.Assets)
	if !ok {
		return nil, fmt.Errorf("%w: %s %s has no archive asset", ErrNoReleaseFound, repo, rel.TagName)
	}

	artifact, err := f.DownloadAndExtract(ctx, asset.BrowserDownloadURL, destDir, asset.Digest)
	if err != nil {
		return nil, err
	}
	artifact.Tag = rel.TagName
	return artifact, nil
}

func (f *Fetcher) latest(ctx context.Context, repo string) (*releaseResponse, error) {
	if strings.Count(repo, "/") != 1 || strings.HasPrefix(repo, "/") || strings.HasSuffix(repo, "/") {
		return nil, fmt.Errorf("repository must be owner/name, got %q", repo)
	}

	base := f.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	metadataURL := strings.TrimRight(base, "/") + "/repos/" + repo + "/releases/latest"

	var rel releaseResponse
	op := func() error {
		reqCtx := ctx
		if f.MetadataTimeout > 0 {
			var cancel context.CancelFunc
			reqCtx, cancel = context.WithTimeout(ctx, f.MetadataTimeout)
			defer cancel()
		}

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, metadataURL, nil)
		if err != nil {
			return retry.Fatal(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		if f.Token != "" {
			req.Header.Set("Authorization", "Bearer "+f.Token)
		}

		resp, err := f.client().Do(req)
		if err != nil {
			return &DownloadError{URL: metadataURL, Err: err}
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return retry.Fatal(fmt.Errorf("%w: %s has no published release", ErrNoReleaseFound, repo))
		case resp.StatusCode != http.StatusOK:
			return &DownloadError{URL: metadataURL, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
		}

		if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
			return retry.Fatal(&DownloadError{URL: metadataURL, Err: fmt.Errorf("invalid release metadata: %w", err)})
		}
		return nil
	}

	if err := retry.Do(ctx, op,
		retry.WithMaxRetries(f.MaxRetries),
		retry.WithInitialDelay(f.RetryDelay),
		retry.WithOnRetry(f.OnRetry),
	); err != nil {
		return nil, err
	}
	return &rel, nil
}

// firstArchive returns the first asset whose URL names a supported archive.
func firstArchive(assets []assetResponse) (assetResponse, bool) {
	for _, a := range assets {
		if a.BrowserDownloadURL != "" && archiveKindOf(a.BrowserDownloadURL) != kindUnknown {
			return a, true
		}
	}
	return assetResponse{}, false
}

// FileNameFromURL derives the local archive name from the URL path.
func FileNameFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid download URL %q: %w", rawURL, err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("cannot derive a file name from %q", rawURL)
	}
	return name, nil
}

// DownloadAndExtract downloads rawURL into destDir, verifies it against
// digest ("sha256:<hex>") when one is given, extracts it in place and
// removes the archive file.
func (f *Fetcher) DownloadAndExtract(ctx context.Context, rawURL, destDir, digest string) (*Artifact, error) {
	fileName, err := FileNameFromURL(rawURL)
	if err != nil {
		return nil, &DownloadError{URL: rawURL, Err: err}
	}
	kind := archiveKindOf(fileName)
	if kind == kindUnknown {
		return nil, &ExtractionError{Archive: fileName, Err: errors.New("unsupported archive type")}
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", destDir, err)
	}
	archivePath := filepath.Join(destDir, fileName)
	defer func() { _ = os.Remove(archivePath) }()

	verified, err := f.download(ctx, rawURL, archivePath, digest)
	if err != nil {
		return nil, err
	}

	entries, err := extract(kind, archivePath, destDir)
	if err != nil {
		return nil, &ExtractionError{Archive: fileName, Err: err}
	}

	if err := os.Remove(archivePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to remove %s: %w", archivePath, err)
	}

	return &Artifact{
		DownloadURL:      rawURL,
		FileName:         fileName,
		Digest:           digest,
		Verified:         verified,
		ExtractedEntries: entries,
	}, nil
}

func (f *Fetcher) download(ctx context.Context, rawURL, dest, digest string) (bool, error) {
	algo, want, hasDigest := strings.Cut(digest, ":")
	if digest != "" && (!hasDigest || algo != "sha256" || want == "") {
		return false, &DownloadError{URL: rawURL, Err: fmt.Errorf("unsupported digest %q", digest)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false, &DownloadError{URL: rawURL, Err: err}
	}
	resp, err := f.client().Do(req)
	if err != nil {
		return false, &DownloadError{URL: rawURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return false, &DownloadError{URL: rawURL, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	out, err := os.Create(dest)
	if err != nil {
		return false, fmt.Errorf("failed to create %s: %w", dest, err)
	}

	hasher := sha256.New()
	_, copyErr := io.Copy(io.MultiWriter(out, hasher), resp.Body)
	closeErr := out.Close()
	if copyErr != nil {
		return false, &DownloadError{URL: rawURL, Err: copyErr}
	}
	if closeErr != nil {
		return false, fmt.Errorf("failed to write %s: %w", dest, closeErr)
	}

	if !hasDigest {
		return false, nil
	}
	got := hex.EncodeToString(hasher.Sum(nil))
	if !strings.EqualFold(got, want) {
		return false, &DownloadError{URL: rawURL, Err: fmt.Errorf("sha256 mismatch: got %s, want %s", got, want)}
	}
	return true, nil
}
