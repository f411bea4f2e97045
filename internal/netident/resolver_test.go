package netident

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLookup struct {
	addr string
	err  error
}

func (s stubLookup) PublicIPv4(context.Context) (string, error) {
	return s.addr, s.err
}

// scriptedPrompter replays canned answers and records what was asked.
type scriptedPrompter struct {
	confirms []bool
	inputs   []string

	confirmCalls int
	inputCalls   int
	questions    []string
}

func (p *scriptedPrompter) Confirm(_ context.Context, question string, defaultYes bool) (bool, error) {
	p.questions = append(p.questions, question)
	if p.confirmCalls >= len(p.confirms) {
		return false, io.EOF
	}
	answer := p.confirms[p.confirmCalls]
	p.confirmCalls++
	return answer, nil
}

func (p *scriptedPrompter) Input(_ context.Context, title, _ string) (string, error) {
	p.questions = append(p.questions, title)
	if p.inputCalls >= len(p.inputs) {
		return "", io.EOF
	}
	answer := p.inputs[p.inputCalls]
	p.inputCalls++
	return answer, nil
}

func TestResolve_AcceptsConfirmedLookup(t *testing.T) {
	t.Parallel()
	p := &scriptedPrompter{confirms: []bool{true}}
	r := &Resolver{Lookup: stubLookup{addr: "198.51.100.7"}, Prompter: p}

	id, err := r.Resolve(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Identity{Address: "198.51.100.7", Source: SourceAuto}, id)
	assert.Equal(t, 1, p.confirmCalls)
	assert.Equal(t, 0, p.inputCalls)
	assert.Contains(t, p.questions[0], "198.51.100.7")
}

func TestResolve_DeclinedLookupFallsBackToManual(t *testing.T) {
	t.Parallel()
	p := &scriptedPrompter{confirms: []bool{false}, inputs: []string{"203.0.113.9"}}
	r := &Resolver{Lookup: stubLookup{addr: "198.51.100.7"}, Prompter: p}

	id, err := r.Resolve(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Identity{Address: "203.0.113.9", Source: SourceManual}, id)
}

func TestResolve_LookupFailureIsNotFatal(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	p := &scriptedPrompter{inputs: []string{"203.0.113.9"}}
	r := &Resolver{Lookup: stubLookup{err: errors.New("dial tcp: no route to host")}, Prompter: p, Out: &out}

	id, err := r.Resolve(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "203.0.113.9", id.Address)
	assert.Equal(t, 0, p.confirmCalls, "nothing to confirm without a detected address")
	assert.Contains(t, out.String(), "no route to host")
}

func TestResolve_InvalidLookupGoesStraightToManual(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	p := &scriptedPrompter{inputs: []string{"203.0.113.9"}}
	r := &Resolver{Lookup: stubLookup{addr: "<html>captive portal</html>"}, Prompter: p, Out: &out}

	id, err := r.Resolve(context.Background())

	require.NoError(t, err)
	assert.Equal(t, SourceManual, id.Source)
	assert.Equal(t, 0, p.confirmCalls)
	assert.Contains(t, out.String(), "not a valid IPv4 address")
}

func TestResolve_ManualLoopRepromptsUntilValid(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	invalid := []string{"", "1.1.1", "256.1.1.1", "01.1.1.1", "1.1.1.1.1", "example.com", "::1", " 10.0.0.1"}
	p := &scriptedPrompter{inputs: append(append([]string{}, invalid...), "10.0.0.1")}
	r := &Resolver{Prompter: p, Out: &out}

	id, err := r.Resolve(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", id.Address)
	assert.Equal(t, len(invalid)+1, p.inputCalls, "every invalid entry costs exactly one re-prompt")
	assert.Equal(t, len(invalid), bytes.Count(out.Bytes(), []byte("expected four decimal octets")))
}

func TestResolve_ManualLoopEndsOnlyWithInputError(t *testing.T) {
	t.Parallel()
	p := &scriptedPrompter{inputs: []string{"nope", "still nope"}}
	r := &Resolver{Prompter: p}

	_, err := r.Resolve(context.Background())

	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, p.inputCalls)
}

func TestResolve_CancelledContextStopsLoop(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &scriptedPrompter{inputs: []string{"10.0.0.1"}}
	r := &Resolver{Prompter: p}

	_, err := r.Resolve(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, p.inputCalls)
}

func TestResolve_AssumeYesSkipsConfirmation(t *testing.T) {
	t.Parallel()
	p := &scriptedPrompter{}
	r := &Resolver{Lookup: stubLookup{addr: "198.51.100.7"}, Prompter: p, AssumeYes: true}

	id, err := r.Resolve(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "198.51.100.7", id.Address)
	assert.Empty(t, p.questions)
}

func TestResolve_Preset(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		p := &scriptedPrompter{}
		r := &Resolver{Lookup: stubLookup{addr: "198.51.100.7"}, Prompter: p, Preset: "192.0.2.1"}

		id, err := r.Resolve(context.Background())

		require.NoError(t, err)
		assert.Equal(t, Identity{Address: "192.0.2.1", Source: SourceFlag}, id)
		assert.Empty(t, p.questions)
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()
		r := &Resolver{Prompter: &scriptedPrompter{}, Preset: "192.0.2.256"}

		_, err := r.Resolve(context.Background())

		assert.ErrorIs(t, err, ErrInvalidAddress)
	})
}

func TestIdentityString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "10.0.0.1 (manual)", Identity{Address: "10.0.0.1", Source: SourceManual}.String())
}
