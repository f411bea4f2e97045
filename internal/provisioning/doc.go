// Package provisioning takes a bare host to a running stack.
//
// # Core Types
//
// Context carries the configuration, the collaborators that touch the
// host, the observer and the run's State. Phase is one step of the
// install state machine, identified by a Stage. State accumulates phase
// results (host facts, resolved address, fetched release, started apps)
// so later phases receive them explicitly.
//
// RunPhases executes phases strictly in order and stops at the first
// failure. Nothing a completed phase did is undone: a partially
// provisioned host is left for inspection.
package provisioning
