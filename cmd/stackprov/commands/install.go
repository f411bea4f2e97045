package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/stackprov/cmd/stackprov/handlers"
)

// Install returns the command that provisions the host.
//
// Optional flags:
//
//	--config, -c: Path to configuration YAML file (default: stackprov.yaml if present)
//	--public-ip: Public IPv4 address to configure, skipping detection and prompts
//	--dir: Installation directory (overrides install_dir)
//	--repo: Release repository owner/name (overrides repo)
//	--dry-run: Print commands instead of running them
//	--yes, -y: Accept the detected public address without asking
func Install() *cobra.Command {
	var opts handlers.InstallOptions

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the application stack on this host",
		Long: `Install the application stack on this host.

The installer runs these phases in order and stops at the first failure:
  1. environment  verify the operating system and architecture
  2. privilege    require root
  3. tools        install missing base tools (curl, unzip, gnupg, ca-certificates)
  4. runtime      install the pinned Node.js major from NodeSource
  5. global-deps  install global npm packages (pm2)
  6. identity     detect or ask for the host's public IPv4 address
  7. release      download and unpack the latest release
  8. core         install core dependencies and restore its native binary
  9. server       install server dependencies and set its allowed domain
 10. supervisor   start the apps with pm2 and enable them at boot

Examples:
  # Install, confirming the detected address interactively
  sudo stackprov install --repo acme/stack

  # Unattended install with a known address
  sudo stackprov install --repo acme/stack --public-ip 203.0.113.9

  # Show what would run
  stackprov install --repo acme/stack --dry-run --yes`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Install(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file (default: stackprov.yaml)")
	cmd.Flags().StringVar(&opts.PublicIP, "public-ip", "", "Public IPv4 address of this host")
	cmd.Flags().StringVar(&opts.Dir, "dir", "", "Installation directory")
	cmd.Flags().StringVar(&opts.Repo, "repo", "", "Release repository (owner/name)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print commands instead of running them")
	cmd.Flags().BoolVarP(&opts.AssumeYes, "yes", "y", false, "Accept the detected public address without asking")

	return cmd
}
