package provisioning

import (
	"github.com/imamik/stackprov/internal/netident"
	"github.com/imamik/stackprov/internal/platform/host"
	"github.com/imamik/stackprov/internal/release"
	"github.com/imamik/stackprov/internal/util/prerequisites"
)

// State holds the shared results of provisioning phases.
// It is progressively populated as each phase completes and is passed
// to subsequent phases that need earlier results.
type State struct {
	// Environment results
	Facts *host.Facts
	EUID  int

	// Host preparation results
	Tools            *prerequisites.CheckResults
	RuntimeInstalled bool // false when the pinned major was already present

	// Identity and release results
	Identity    netident.Identity
	Artifact    *release.Artifact
	NativeAsset *release.Artifact // restored into core, nil when disabled

	// Supervisor results
	Started []string // apps handed to the supervisor, in start order
}

// NewState creates an empty provisioning state.
func NewState() *State {
	return &State{EUID: -1}
}
