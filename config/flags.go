package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// Flags holds parsed command-line flags.
type Flags struct {
	Help    bool
	Version bool

	DataDir       string
	Config        string
	ChainFile     string
	Format        string
	ForceNewChain bool
	Difficulty    int

	IngressAddr string
	IngressPort int

	Seeds string

	LogLevel string
	LogFile  string
	LogJSON  bool

	Args []string

	SetForceNewChain bool
	SetLogJSON       bool
}

// ParseFlags parses command-line flags.
func ParseFlags() *Flags {
	f := &Flags{}
	fs := flag.NewFlagSet("ledgerd", flag.ContinueOnError)

	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")
	fs.BoolVar(&f.Version, "v", false, "Show version (shorthand)")

	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")
	fs.StringVar(&f.ChainFile, "chainfile", "", "Chain filename within the data directory")
	fs.StringVar(&f.Format, "format", "", "Chain file storage format: json or binary")
	fs.BoolVar(&f.ForceNewChain, "forcenewchain", false, "Discard any existing chain file and start fresh")
	fs.IntVar(&f.Difficulty, "difficulty", 0, "Proof-of-work difficulty (positive integer)")

	fs.StringVar(&f.IngressAddr, "ingress-addr", "", "Ingress server bind address")
	fs.IntVar(&f.IngressPort, "ingress-port", 0, "Ingress server listen port")

	fs.StringVar(&f.Seeds, "seeds", "", "Seed peers as comma-separated host:port")

	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	fs.Usage = func() {
		printUsage()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	f.SetForceNewChain = isFlagSet(fs, "forcenewchain")
	f.SetLogJSON = isFlagSet(fs, "log-json")
	f.Args = fs.Args()

	for _, arg := range f.Args {
		if strings.HasPrefix(arg, "-") {
			fmt.Fprintf(os.Stderr, "Error: flag %q was not parsed (positional argument stopped parsing)\n", arg)
			os.Exit(1)
		}
	}

	return f
}

// ApplyFlags applies command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) {
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}
	if f.ChainFile != "" {
		cfg.ChainFile = f.ChainFile
	}
	if f.Format != "" {
		switch strings.ToLower(f.Format) {
		case "json":
			cfg.Format = FormatJSON
		case "binary":
			cfg.Format = FormatBinary
		}
	}
	if f.SetForceNewChain {
		cfg.ForceNewChain = f.ForceNewChain
	}
	if f.Difficulty != 0 {
		cfg.Difficulty = f.Difficulty
	}

	if f.IngressAddr != "" {
		cfg.Ingress.Addr = f.IngressAddr
	}
	if f.IngressPort != 0 {
		cfg.Ingress.Port = f.IngressPort
	}

	if f.Seeds != "" {
		cfg.Peers.Seeds = parseStringList(f.Seeds)
	}

	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}

// isFlagSet checks if a flag was explicitly set.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

func printUsage() {
	usage := `ledgerd - gossiping proof-of-work message ledger

Usage:
  ledgerd [options]
  ledgerd --help

Commands:
  --help, -h      Show this help message
  --version, -v   Show version information

Core Options:
  --datadir        Data directory (default: ~/.ledgerd)
  --config, -c     Config file path (default: <datadir>/ledgerd.conf)
  --chainfile      Chain filename within the data directory (default: chain.json)
  --format         Chain format: json (default) or binary
  --forcenewchain  Discard any existing chain file and start fresh
  --difficulty     Proof-of-work difficulty (default: 5)

Ingress Options:
  --ingress-addr   Ingress server bind address (default: 0.0.0.0)
  --ingress-port   Ingress server listen port (default: 5000)

Peer Options:
  --seeds          Seed peers as comma-separated host:port

Logging Options:
  --log-level      Log level: debug, info, warn, error (default: info)
  --log-file       Log file path (default: stdout)
  --log-json       Output logs as JSON

Examples:
  # Start a node with defaults
  ledgerd

  # Start a node seeded from two peers
  ledgerd --seeds=127.0.0.1:5001,127.0.0.1:5002

  # Start with a higher difficulty and a dedicated data directory
  ledgerd --difficulty=6 --datadir=/var/lib/ledgerd
`
	fmt.Print(usage)
}

// Load loads configuration with the following precedence:
// 1. Default values
// 2. Auto-create data dir + default config (idempotent)
// 3. Config file
// 4. Command-line flags
func Load() (*Config, *Flags, error) {
	flags := ParseFlags()

	if flags.Help {
		printUsage()
		os.Exit(0)
	}
	if flags.Version {
		fmt.Println("ledgerd version 0.1.0")
		os.Exit(0)
	}

	cfg := Default()

	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	}

	if err := EnsureDataDirs(cfg); err != nil {
		return nil, nil, fmt.Errorf("ensuring data dirs: %w", err)
	}

	configPath := flags.Config
	if configPath == "" {
		configPath = cfg.ConfigFile()
	}

	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config file: %w", err)
	}

	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, nil, fmt.Errorf("applying config file: %w", err)
	}

	ApplyFlags(cfg, flags)
	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, flags, nil
}

// EnsureDataDirs creates the data directory and a default config file if
// they don't already exist. Idempotent — safe to call on every startup.
func EnsureDataDirs(cfg *Config) error {
	dirs := []string{
		cfg.DataDir,
		cfg.LogsDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	configPath := cfg.ConfigFile()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := WriteDefaultConfig(configPath); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}

	return nil
}
