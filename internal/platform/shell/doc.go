// Package shell runs host commands for the provisioning phases.
//
// Every platform client (apt, nodejs, npm, pm2) talks to the host through
// the Runner interface so that tests can substitute MockRunner and
// --dry-run can substitute DryRunRunner.
package shell
