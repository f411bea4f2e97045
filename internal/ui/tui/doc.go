// Package tui renders the styled terminal reports printed by the doctor
// and install commands.
//
// Rendering is pure: every function returns a string and never writes to
// the terminal itself, so callers decide between styled and plain output.
package tui
