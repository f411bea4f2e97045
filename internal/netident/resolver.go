// Package netident resolves the public IPv4 address the server component
// is bound to.
//
// Resolution tries an IP-echo lookup first and asks the operator to
// confirm the result. When the lookup fails, returns garbage or is
// declined, the operator is asked to type an address until a valid one
// is entered. A Resolver never returns an address that ipv4.IsValid
// rejects.
package netident

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/imamik/stackprov/internal/util/ipv4"
)

// Source records where an accepted address came from.
type Source string

const (
	SourceAuto   Source = "auto"
	SourceManual Source = "manual"
	SourceFlag   Source = "flag"
)

// ErrInvalidAddress is returned for a preset address that fails validation.
var ErrInvalidAddress = errors.New("invalid IPv4 address")

// Identity is an accepted public address.
type Identity struct {
	Address string
	Source  Source
}

func (i Identity) String() string {
	return fmt.Sprintf("%s (%s)", i.Address, i.Source)
}

// Prompter asks the operator questions. Implementations live in ui/prompt.
type Prompter interface {
	Confirm(ctx context.Context, question string, defaultYes bool) (bool, error)
	Input(ctx context.Context, title, placeholder string) (string, error)
}

// Resolver runs the resolution protocol.
type Resolver struct {
	Lookup   Lookup
	Prompter Prompter
	// Out receives the format hint and lookup diagnostics. Nil discards them.
	Out io.Writer

	// Preset, when set, replaces the protocol. It must be valid.
	Preset string
	// AssumeYes accepts a valid detected address without asking.
	AssumeYes bool
}

// Resolve returns a validated identity. The only errors are an invalid
// Preset and failures of the prompter itself (closed input, cancelled
// context).
func (r *Resolver) Resolve(ctx context.Context) (Identity, error) {
	if r.Preset != "" {
		if !ipv4.IsValid(r.Preset) {
			return Identity{}, fmt.Errorf("%w: %q (%s)", ErrInvalidAddress, r.Preset, ipv4.FormatHint)
		}
		return Identity{Address: r.Preset, Source: SourceFlag}, nil
	}

	detected := r.detect(ctx)
	if ipv4.IsValid(detected) {
		if r.AssumeYes {
			return Identity{Address: detected, Source: SourceAuto}, nil
		}
		ok, err := r.Prompter.Confirm(ctx, fmt.Sprintf("Use detected public address %s?", detected), true)
		if err != nil {
			return Identity{}, fmt.Errorf("failed to confirm detected address: %w", err)
		}
		if ok {
			return Identity{Address: detected, Source: SourceAuto}, nil
		}
	} else if detected != "" {
		r.printf("Detected address %q is not a valid IPv4 address.\n", detected)
	}

	return r.manual(ctx)
}

// detect never fails; lookup errors degrade to an empty result.
func (r *Resolver) detect(ctx context.Context) string {
	if r.Lookup == nil {
		return ""
	}
	addr, err := r.Lookup.PublicIPv4(ctx)
	if err != nil {
		r.printf("Could not detect the public address: %v\n", err)
		return ""
	}
	return addr
}

func (r *Resolver) manual(ctx context.Context) (Identity, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Identity{}, err
		}
		addr, err := r.Prompter.Input(ctx, "Public IPv4 address", "203.0.113.10")
		if err != nil {
			return Identity{}, fmt.Errorf("failed to read address: %w", err)
		}
		if ipv4.IsValid(addr) {
			return Identity{Address: addr, Source: SourceManual}, nil
		}
		r.printf("%q is not valid: %s\n", addr, ipv4.FormatHint)
	}
}

func (r *Resolver) printf(format string, args ...any) {
	if r.Out != nil {
		_, _ = fmt.Fprintf(r.Out, format, args...)
	}
}
