package preflight

import (
	"fmt"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/imamik/stackprov/internal/platform/host"
)

// Requirement is the (distribution, major release, architecture) triple
// a deployment supports.
type Requirement struct {
	Distro       string
	MajorVersion uint64
	Architecture host.Architecture
}

// DefaultRequirement targets Ubuntu 24.x LTS on x86_64.
func DefaultRequirement() Requirement {
	return Requirement{
		Distro:       "Ubuntu",
		MajorVersion: 24,
		Architecture: host.ArchX86_64,
	}
}

// String renders the requirement for messages.
func (r Requirement) String() string {
	return fmt.Sprintf("%s %d.x on %s", r.Distro, r.MajorVersion, r.Architecture)
}

// VerifyEnvironment checks facts against req. The OS is checked before the
// architecture, so a host that fails both reports ErrUnsupportedOS.
func VerifyEnvironment(facts *host.Facts, req Requirement) error {
	if facts == nil {
		return &EnvironmentError{Kind: ErrUnsupportedOS, Detail: "host facts unavailable"}
	}

	if !strings.EqualFold(strings.TrimSpace(facts.OSName), req.Distro) {
		return &EnvironmentError{
			Kind:   ErrUnsupportedOS,
			Facts:  facts,
			Detail: fmt.Sprintf("found %q, requires %s", facts.PrettyName, req),
		}
	}
	if facts.OSVersion == nil || facts.OSVersion.Major() != req.MajorVersion {
		return &EnvironmentError{
			Kind:   ErrUnsupportedOS,
			Facts:  facts,
			Detail: fmt.Sprintf("found %q, requires %s", facts.PrettyName, req),
		}
	}

	want := req.Architecture
	if want == "" {
		want = host.ArchX86_64
	}
	if facts.Architecture != want {
		return &EnvironmentError{
			Kind:   ErrUnsupportedArchitecture,
			Facts:  facts,
			Detail: fmt.Sprintf("found %q, requires %s", facts.RawArchitecture, want),
		}
	}

	return nil
}

// EffectiveUID is replaced in tests.
var EffectiveUID = unix.Geteuid

// CheckPrivilege fails unless euid is root.
func CheckPrivilege(euid int) error {
	if euid != 0 {
		return fmt.Errorf("%w (euid %d); re-run with sudo", ErrInsufficientPrivilege, euid)
	}
	return nil
}
