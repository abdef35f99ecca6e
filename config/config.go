// Package config handles node configuration.
//
// Configuration is fixed at startup: chain path, wire format, listen port,
// difficulty, seed peers, and the force-new-chain flag never change for the
// life of a running node.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// ChainFormat selects how the chain is serialized on disk. It is fixed at
// construction and does not change for the lifetime of a chain file. It
// does not affect the HTTP surface, which always exchanges chain data
// with peers as JSON.
type ChainFormat string

const (
	FormatJSON   ChainFormat = "json"
	FormatBinary ChainFormat = "binary"
)

// DefaultDifficulty is the proof-of-work difficulty used when none is
// configured.
const DefaultDifficulty = 5

// MaxNeighbours is the hard cap on the peer set's size. It is a
// compile-time constant, not an operator setting.
const MaxNeighbours = 3

// Config holds a node's runtime configuration.
type Config struct {
	// DataDir is the directory holding the chain file, its companion
	// hash file, and rotated backups.
	DataDir string `conf:"datadir"`

	// ChainFile is the chain's filename within DataDir.
	ChainFile string `conf:"chainfile"`

	// Format selects JSON or binary encoding for the chain file. Chain
	// data exchanged with peers is always JSON, whatever this is set to.
	Format ChainFormat `conf:"format"`

	// ForceNewChain discards any existing chain file at startup,
	// rotating it aside, and starts from a fresh genesis-only chain.
	ForceNewChain bool `conf:"forcenewchain"`

	// Difficulty is the number of trailing '0' hex characters the proof
	// hash must end in. Must be a positive integer.
	Difficulty int `conf:"difficulty"`

	// Ingress holds the HTTP server settings.
	Ingress IngressConfig

	// Peers holds the seed peer list the node gossips from at startup.
	Peers PeerConfig

	// Log holds logging settings.
	Log LogConfig
}

// IngressConfig holds the node's HTTP server settings.
type IngressConfig struct {
	Addr string `conf:"ingress.addr"`
	Port int    `conf:"ingress.port"`
}

// PeerConfig holds the node's seed peer list.
type PeerConfig struct {
	Seeds []string `conf:"peers.seeds"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.ledgerd
//	macOS:   ~/Library/Application Support/Ledgerd
//	Windows: %APPDATA%\Ledgerd
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ledgerd"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Ledgerd")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Ledgerd")
		}
		return filepath.Join(home, "AppData", "Roaming", "Ledgerd")
	default:
		return filepath.Join(home, ".ledgerd")
	}
}

// ChainPath returns the absolute path to the chain file.
func (c *Config) ChainPath() string {
	return filepath.Join(c.DataDir, c.ChainFile)
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "ledgerd.conf")
}

// ListenAddr returns the ingress server's bind address as host:port.
func (c *Config) ListenAddr() string {
	addr := c.Ingress.Addr
	if addr == "" {
		addr = "0.0.0.0"
	}
	return addr + ":" + strconv.Itoa(c.Ingress.Port)
}
