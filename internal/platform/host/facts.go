package host

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/joho/godotenv"
	"golang.org/x/sys/unix"
)

// DefaultOSReleasePath is where systemd-era distributions describe themselves.
const DefaultOSReleasePath = "/etc/os-release"

// Architecture is the normalized CPU architecture.
type Architecture string

const (
	// ArchX86_64 is the only architecture the stack ships binaries for.
	ArchX86_64 Architecture = "x86_64"
	// ArchOther is any other architecture.
	ArchOther Architecture = "other"
)

// Facts describes the host. It is produced once and never mutated.
type Facts struct {
	OSName          string
	OSVersion       *semver.Version
	PrettyName      string
	Architecture    Architecture
	RawArchitecture string
}

// String renders the facts as a one-line report.
func (f *Facts) String() string {
	version := "unknown"
	if f.OSVersion != nil {
		version = f.OSVersion.String()
	}
	return fmt.Sprintf("os=%q version=%s arch=%s (%s)", f.PrettyName, version, f.Architecture, f.RawArchitecture)
}

// Fields returns the facts as observer fields.
func (f *Facts) Fields() map[string]string {
	version := ""
	if f.OSVersion != nil {
		version = f.OSVersion.String()
	}
	return map[string]string{
		"os":      f.OSName,
		"version": version,
		"pretty":  f.PrettyName,
		"arch":    f.RawArchitecture,
	}
}

// uname is replaced in tests.
var uname = func() (string, error) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return "", fmt.Errorf("uname: %w", err)
	}
	return unix.ByteSliceToString(u.Machine[:]), nil
}

// Probe reads the OS identity from osReleasePath and the architecture
// from uname(2).
func Probe(osReleasePath string) (*Facts, error) {
	if osReleasePath == "" {
		osReleasePath = DefaultOSReleasePath
	}

	release, err := godotenv.Read(osReleasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", osReleasePath, err)
	}

	machine, err := uname()
	if err != nil {
		return nil, err
	}

	return FromOSRelease(release, machine)
}

// FromOSRelease builds facts from parsed os-release fields and a raw
// machine architecture string.
func FromOSRelease(release map[string]string, machine string) (*Facts, error) {
	name := release["NAME"]
	if name == "" {
		name = release["ID"]
	}
	if name == "" {
		return nil, fmt.Errorf("os-release has neither NAME nor ID")
	}

	versionID := release["VERSION_ID"]
	if versionID == "" {
		return nil, fmt.Errorf("os-release has no VERSION_ID")
	}
	version, err := ParseVersion(versionID)
	if err != nil {
		return nil, err
	}

	pretty := release["PRETTY_NAME"]
	if pretty == "" {
		pretty = strings.TrimSpace(name + " " + release["VERSION"])
	}

	return &Facts{
		OSName:          name,
		OSVersion:       version,
		PrettyName:      pretty,
		Architecture:    NormalizeArchitecture(machine),
		RawArchitecture: machine,
	}, nil
}

// osStringPattern matches descriptions such as "Ubuntu 24.04 LTS" or
// "Debian GNU/Linux 12".
var osStringPattern = regexp.MustCompile(`^(.*?)\s+v?([0-9]+(?:\.[0-9]+){0,2})\b`)

// ParseOSString builds facts from a one-line OS description (the form
// printed by hostnamectl) and a raw architecture string.
func ParseOSString(description, machine string) (*Facts, error) {
	description = strings.TrimSpace(description)
	m := osStringPattern.FindStringSubmatch(description)
	if m == nil {
		return nil, fmt.Errorf("cannot parse OS description %q", description)
	}

	version, err := ParseVersion(m[2])
	if err != nil {
		return nil, err
	}

	return &Facts{
		OSName:          m[1],
		OSVersion:       version,
		PrettyName:      description,
		Architecture:    NormalizeArchitecture(machine),
		RawArchitecture: machine,
	}, nil
}

// ParseVersion parses a distribution version such as "24.04" or "12".
// Zero-padded components are accepted and normalized ("24.04" is 24.4.0).
func ParseVersion(raw string) (*semver.Version, error) {
	parts := strings.Split(strings.TrimPrefix(strings.TrimSpace(raw), "v"), ".")
	if len(parts) == 0 || len(parts) > 3 {
		return nil, fmt.Errorf("invalid OS version %q", raw)
	}

	normalized := make([]string, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid OS version %q: %w", raw, err)
		}
		normalized[i] = strconv.FormatUint(n, 10)
	}

	v, err := semver.NewVersion(strings.Join(normalized, "."))
	if err != nil {
		return nil, fmt.Errorf("invalid OS version %q: %w", raw, err)
	}
	return v, nil
}

// NormalizeArchitecture maps the spellings used by uname, hostnamectl and
// Go onto Architecture.
func NormalizeArchitecture(raw string) Architecture {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "x86_64", "x86-64", "amd64":
		return ArchX86_64
	default:
		return ArchOther
	}
}
