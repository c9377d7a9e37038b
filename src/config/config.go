package config

import (
	"crypto/ecdsa"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Default filenames.
const (
	// DefaultKeyfile is the default name of the file containing the node's
	// private key.
	DefaultKeyfile = "priv_key"

	// DefaultBadgerFile is the default name of the folder containing the
	// Badger database.
	DefaultBadgerFile = "badger_db"
)

// Default configuration values.
const (
	DefaultLogLevel    = "debug"
	DefaultBindAddr    = "127.0.0.1:1337"
	DefaultServiceAddr = "127.0.0.1:8000"
	DefaultCacheSize   = 10000
	DefaultFilterTTL   = 5 * time.Minute
	DefaultMaxPool     = 2
	DefaultTCPTimeout  = 1000 * time.Millisecond
)

// Network-wide parameters. They are part of the protocol contract: all nodes
// on a network must run with identical values, and a mismatch is a
// configuration error that this layer does not try to detect.
const (
	// DefaultElderSize is the number of elders forming a section's
	// decision-making quorum.
	DefaultElderSize = 7

	// DefaultRecommendedSectionSize is the number of adults a section aims
	// for before splitting.
	DefaultRecommendedSectionSize = 14
)

// Config contains all the configuration properties of a routing node.
type Config struct {
	// DataDir is the top-level directory containing configuration and data.
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// BindAddr is the local address:port where this node talks to other
	// nodes.
	BindAddr string `mapstructure:"listen"`

	// AdvertiseAddr is used to change the address that we advertise to
	// other nodes.
	AdvertiseAddr string `mapstructure:"advertise"`

	// NoService disables the HTTP API service.
	NoService bool `mapstructure:"no-service"`

	// ServiceAddr is the address:port of the optional HTTP service.
	ServiceAddr string `mapstructure:"service-listen"`

	// First makes this node start a brand new network as the genesis
	// section, instead of joining an existing one.
	First bool `mapstructure:"first"`

	// Store activates persistent storage of network knowledge.
	Store bool `mapstructure:"store"`

	// DatabaseDir is the directory containing database files.
	DatabaseDir string `mapstructure:"db"`

	// CacheSize is the max number of items in the message dedup filter.
	CacheSize int `mapstructure:"cache-size"`

	// FilterTTL is how long a seen message hash suppresses duplicates.
	FilterTTL time.Duration `mapstructure:"filter-ttl"`

	// MaxPool controls how many connections are pooled per target.
	MaxPool int `mapstructure:"max-pool"`

	// TCPTimeout is the timeout of TCP connections.
	TCPTimeout time.Duration `mapstructure:"timeout"`

	// ElderSize is the size of a section's elder set.
	ElderSize int `mapstructure:"elder-size"`

	// RecommendedSectionSize is the number of adults a section aims for
	// before splitting.
	RecommendedSectionSize int `mapstructure:"section-size"`

	// Moniker defines the friendly name of this node.
	Moniker string `mapstructure:"moniker"`

	// Key is the private key of the node. When nil, it is loaded from, or
	// generated into, the keyfile.
	Key *ecdsa.PrivateKey

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	return &Config{
		DataDir:                DefaultDataDir(),
		LogLevel:               DefaultLogLevel,
		BindAddr:               DefaultBindAddr,
		ServiceAddr:            DefaultServiceAddr,
		CacheSize:              DefaultCacheSize,
		FilterTTL:              DefaultFilterTTL,
		MaxPool:                DefaultMaxPool,
		TCPTimeout:             DefaultTCPTimeout,
		ElderSize:              DefaultElderSize,
		RecommendedSectionSize: DefaultRecommendedSectionSize,
		DatabaseDir:            DefaultDatabaseDir(),
	}
}

// SetDataDir sets the top-level data directory, and updates the database
// directory if it is currently set to the default value. If the database
// directory is not currently the default, the user has explicitly set it to
// something else, so avoid changing it again here.
func (c *Config) SetDataDir(dataDir string) {
	c.DataDir = dataDir
	if c.DatabaseDir == DefaultDatabaseDir() {
		c.DatabaseDir = filepath.Join(dataDir, DefaultBadgerFile)
	}
}

// Keyfile returns the full path of the file containing the private key.
func (c *Config) Keyfile() string {
	return filepath.Join(c.DataDir, DefaultKeyfile)
}

// Logger returns a formatted logrus Entry, with prefix set to "routing".
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)
	}
	return c.logger.WithField("prefix", "routing")
}

// WithLogger substitutes the underlying logger. Used by tests.
func (c *Config) WithLogger(logger *logrus.Logger) *Config {
	c.logger = logger
	return c
}

// DefaultDatabaseDir returns the default path for the badger database files.
func DefaultDatabaseDir() string {
	return filepath.Join(DefaultDataDir(), DefaultBadgerFile)
}

// DefaultDataDir returns the default directory name for top-level config
// based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".Sectornet")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "Sectornet")
		} else {
			return filepath.Join(home, ".sectornet")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
