// Package main is the entry point for the stackprov CLI.
//
// stackprov provisions a single Ubuntu host with a three-part Node.js
// stack: it checks the host, installs the runtime and its global tools,
// fetches the latest release of the application, wires the server to the
// host's public address and hands the apps to pm2.
//
// Commands: install, doctor, validate-ip, version, completion.
//
// For detailed usage information, run:
//
//	stackprov --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/stackprov/cmd/stackprov/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.Root().ExecuteContext(ctx)
	interrupted := ctx.Err() != nil
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(commands.ExitCode(err, interrupted))
}
