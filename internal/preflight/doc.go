// Package preflight holds the gates that run before anything on the host
// is mutated: the supported-environment check and the privilege check.
package preflight
