package config

// DefaultPath is the config file looked up in the working directory when
// no explicit path is given.
const DefaultPath = "stackprov.yaml"

// Config is the complete installer configuration.
type Config struct {
	// Repo is the GitHub repository ("owner/name") whose latest release is installed.
	Repo string `yaml:"repo"`
	// InstallDir receives the extracted release.
	InstallDir string `yaml:"install_dir"`

	Requirement RequirementConfig `yaml:"requirement"`
	Runtime     RuntimeConfig     `yaml:"runtime"`
	Identity    IdentityConfig    `yaml:"identity"`
	Release     ReleaseConfig     `yaml:"release"`
	Core        CoreConfig        `yaml:"core"`
	Server      ServerConfig      `yaml:"server"`
	Supervisor  SupervisorConfig  `yaml:"supervisor"`
	Metrics     MetricsConfig     `yaml:"metrics"`

	// Timeouts come from the environment only.
	Timeouts *Timeouts `yaml:"-"`
}

// RequirementConfig is the host the installer agrees to run on.
type RequirementConfig struct {
	Distro       string `yaml:"distro"`
	MajorVersion uint64 `yaml:"major_version"`
}

// RuntimeConfig pins the Node.js runtime.
type RuntimeConfig struct {
	NodeMajor      uint64   `yaml:"node_major"`
	SetupURL       string   `yaml:"setup_url"`
	GlobalPackages []string `yaml:"global_packages"`
}

// IdentityConfig configures public address detection.
type IdentityConfig struct {
	EchoURL string `yaml:"echo_url"`
}

// ReleaseConfig configures the release API.
type ReleaseConfig struct {
	APIBaseURL string `yaml:"api_base_url"`
	// Token is read from GITHUB_TOKEN and never from the file.
	Token string `yaml:"-"`
}

// CoreConfig describes the core application and its precompiled native
// dependency. An empty BinaryAssetURL skips the restore.
type CoreConfig struct {
	Dir               string `yaml:"dir"`
	BinaryAssetURL    string `yaml:"binary_asset_url"`
	BinaryAssetDest   string `yaml:"binary_asset_dest"`
	BinaryAssetSHA256 string `yaml:"binary_asset_sha256"`
}

// ServerConfig describes the network-facing application.
type ServerConfig struct {
	Dir       string `yaml:"dir"`
	EnvFile   string `yaml:"env_file"`
	ConfigKey string `yaml:"config_key"`
}

// SupervisorConfig configures PM2.
type SupervisorConfig struct {
	Descriptor string   `yaml:"descriptor"`
	Apps       []string `yaml:"apps"`
	InitSystem string   `yaml:"init_system"`
	User       string   `yaml:"user"`
}

// MetricsConfig enables the node-exporter textfile. Empty disables it.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Default returns the built-in configuration. Repo has no default.
func Default() *Config {
	return &Config{
		InstallDir: "/opt/stack",
		Requirement: RequirementConfig{
			Distro:       "Ubuntu",
			MajorVersion: 24,
		},
		Runtime: RuntimeConfig{
			NodeMajor:      20,
			SetupURL:       "https://deb.nodesource.com/setup_%d.x",
			GlobalPackages: []string{"pm2"},
		},
		Identity: IdentityConfig{
			EchoURL: "https://ipv4.icanhazip.com",
		},
		Release: ReleaseConfig{
			APIBaseURL: "https://api.github.com",
		},
		Core: CoreConfig{
			Dir:             "core",
			BinaryAssetURL:  "https://github.com/TryGhost/node-sqlite3/releases/download/v5.1.7/sqlite3-v5.1.7-napi-v6-linux-x64.tar.gz",
			BinaryAssetDest: "node_modules/sqlite3",
		},
		Server: ServerConfig{
			Dir:       "server",
			EnvFile:   ".env",
			ConfigKey: "ALLOWED_DOMAIN",
		},
		Supervisor: SupervisorConfig{
			Descriptor: "ecosystem.config.js",
			Apps:       []string{"core", "server"},
			InitSystem: "systemd",
			User:       "root",
		},
		Timeouts: LoadTimeouts(),
	}
}
