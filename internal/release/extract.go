package release

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type archiveKind int

const (
	kindUnknown archiveKind = iota
	kindZip
	kindTarGz
)

func archiveKindOf(name string) archiveKind {
	lower := strings.ToLower(name)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return kindZip
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return kindTarGz
	default:
		return kindUnknown
	}
}

// extract unpacks the archive through an os.Root opened on destDir, so
// no entry can reach outside it, including through symlinks written by
// earlier entries.
func extract(kind archiveKind, archivePath, destDir string) ([]string, error) {
	root, err := os.OpenRoot(destDir)
	if err != nil {
		return nil, err
	}
	defer func() { _ = root.Close() }()

	switch kind {
	case kindZip:
		return extractZip(archivePath, root)
	case kindTarGz:
		return extractTarGz(archivePath, root)
	default:
		return nil, errors.New("unsupported archive type")
	}
}

// safeRel cleans name into a path relative to the destination and rejects
// entries that lexically escape it.
func safeRel(name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("entry %q has an absolute path", name)
	}
	rel := filepath.Clean(filepath.FromSlash(name))
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("entry %q escapes the destination directory", name)
	}
	return rel, nil
}

type topLevel map[string]struct{}

func (t topLevel) add(name string) {
	name = strings.TrimPrefix(filepath.ToSlash(filepath.Clean(name)), "./")
	if name == "." || name == "" {
		return
	}
	first, _, _ := strings.Cut(name, "/")
	t[first] = struct{}{}
}

func (t topLevel) sorted() []string {
	out := make([]string, 0, len(t))
	for k := range t {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func extractZip(archivePath string, root *os.Root) ([]string, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	entries := topLevel{}
	for _, f := range r.File {
		target, err := safeRel(f.Name)
		if err != nil {
			return nil, err
		}
		entries.add(f.Name)

		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := mkdirAll(root, target); err != nil {
				return nil, err
			}
		case mode&os.ModeSymlink != 0:
			return nil, fmt.Errorf("entry %q is a symlink, which is not supported", f.Name)
		default:
			if err := writeZipFile(root, f, target); err != nil {
				return nil, err
			}
		}
	}
	return entries.sorted(), nil
}

func writeZipFile(root *os.Root, f *zip.File, target string) error {
	if err := mkdirAll(root, filepath.Dir(target)); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	return writeFile(root, target, rc, f.Mode().Perm())
}

func extractTarGz(archivePath string, root *os.Root) ([]string, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, err
	}
	defer func() { _ = gz.Close() }()

	entries := topLevel{}
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		target, err := safeRel(hdr.Name)
		if err != nil {
			return nil, err
		}
		entries.add(hdr.Name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := mkdirAll(root, target); err != nil {
				return nil, err
			}
		case tar.TypeReg:
			if err := mkdirAll(root, filepath.Dir(target)); err != nil {
				return nil, err
			}
			if err := writeFile(root, target, tr, os.FileMode(hdr.Mode).Perm()); err != nil {
				return nil, err
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(hdr.Linkname) {
				return nil, fmt.Errorf("symlink %q points outside the archive", hdr.Name)
			}
			if _, err := safeRel(filepath.Join(filepath.Dir(target), hdr.Linkname)); err != nil {
				return nil, fmt.Errorf("symlink %q points outside the archive", hdr.Name)
			}
			if err := mkdirAll(root, filepath.Dir(target)); err != nil {
				return nil, err
			}
			_ = root.Remove(target)
			if err := root.Symlink(hdr.Linkname, target); err != nil {
				return nil, err
			}
		default:
			// Devices, fifos and hard links have no place in a release.
		}
	}
	return entries.sorted(), nil
}

func mkdirAll(root *os.Root, dir string) error {
	if dir == "." {
		return nil
	}
	return root.MkdirAll(dir, 0o755)
}

func writeFile(root *os.Root, target string, r io.Reader, perm os.FileMode) error {
	if perm == 0 {
		perm = 0o644
	}
	out, err := root.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
