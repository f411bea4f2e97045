package preflight

import (
	"errors"
	"fmt"

	"github.com/imamik/stackprov/internal/platform/host"
)

// Gate failures. EnvironmentError wraps one of the first two.
var (
	ErrUnsupportedOS           = errors.New("unsupported operating system")
	ErrUnsupportedArchitecture = errors.New("unsupported CPU architecture")
	ErrInsufficientPrivilege   = errors.New("insufficient privilege: must run as root")
)

// EnvironmentError reports why the host failed the environment gate.
type EnvironmentError struct {
	Kind   error
	Facts  *host.Facts
	Detail string
}

func (e *EnvironmentError) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *EnvironmentError) Unwrap() error {
	return e.Kind
}
