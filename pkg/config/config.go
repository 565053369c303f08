package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. PCLI2_MCP_PCLI2_TIMEOUT=30s.
const EnvPrefix = "PCLI2_MCP"

// Config application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	PCLI2   PCLI2Config   `mapstructure:"pcli2"`
	Logging LoggingConfig `mapstructure:"logging"`

	// resolved at load time, never written back
	resolved *ResolvedPaths
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// PCLI2Config controls how the external pcli2 program is run
type PCLI2Config struct {
	Program        string        `mapstructure:"program"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxOutputBytes int64         `mapstructure:"max_output_bytes"`
	MaxConcurrent  int           `mapstructure:"max_concurrent"`
	AcquireTimeout time.Duration `mapstructure:"acquire_timeout"`
	WaitDelay      time.Duration `mapstructure:"wait_delay"`
	InlineImages   bool          `mapstructure:"inline_images"`
}

// LoggingConfig logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ResolvedPaths paths resolved at load time
type ResolvedPaths struct {
	Program   string
	LogOutput string
}

var (
	mu          sync.Mutex
	globalViper *viper.Viper
	globalCfg   *Config
)

// Load reads the config file, environment and flags. A missing file is not
// an error; defaults apply.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
			}
			fmt.Fprintf(os.Stderr, "config file %s not found, using defaults\n", configPath)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	globalViper = v
	globalCfg = cfg
	mu.Unlock()

	return cfg, nil
}

// Get returns the most recently loaded config
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()
	return globalCfg
}

// Watch re-decodes the config whenever the config file changes and hands
// the new value to fn. Decoding errors are passed through unchanged.
func Watch(fn func(*Config, error)) {
	mu.Lock()
	v := globalViper
	mu.Unlock()
	if v == nil || v.ConfigFileUsed() == "" {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err == nil {
			mu.Lock()
			globalCfg = cfg
			mu.Unlock()
		}
		fn(cfg, err)
	})
	v.WatchConfig()
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	resolved, err := createResolvedPaths(&cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve config paths")
	}
	cfg.resolved = resolved

	return &cfg, nil
}

// flag name -> config key
var flagKeys = map[string]string{
	"host":             "server.host",
	"port":             "server.port",
	"program":          "pcli2.program",
	"timeout":          "pcli2.timeout",
	"max-output-bytes": "pcli2.max_output_bytes",
	"max-concurrent":   "pcli2.max_concurrent",
	"log-level":        "logging.level",
}

// RegisterFlags adds the overridable settings to a flag set
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("host", "", "address to listen on")
	flags.String("port", "", "port to listen on")
	flags.String("program", "", "pcli2 executable name or path")
	flags.Duration("timeout", 0, "wall-clock limit per pcli2 call")
	flags.Int64("max-output-bytes", 0, "maximum captured bytes per output stream")
	flags.Int("max-concurrent", 0, "maximum concurrent pcli2 processes")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "failed to bind flag --%s", name)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "18777")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m")

	v.SetDefault("pcli2.program", "pcli2")
	v.SetDefault("pcli2.timeout", "120s")
	v.SetDefault("pcli2.max_output_bytes", 8<<20)
	v.SetDefault("pcli2.max_concurrent", 4)
	v.SetDefault("pcli2.acquire_timeout", "30s")
	v.SetDefault("pcli2.wait_delay", "2s")
	v.SetDefault("pcli2.inline_images", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "")
}

func (c *Config) validate() error {
	if c.PCLI2.Program == "" {
		return errors.New("pcli2.program must not be empty")
	}
	if c.PCLI2.Timeout <= 0 {
		return errors.Errorf("pcli2.timeout must be positive, got %s", c.PCLI2.Timeout)
	}
	if c.PCLI2.MaxOutputBytes <= 0 {
		return errors.Errorf("pcli2.max_output_bytes must be positive, got %d", c.PCLI2.MaxOutputBytes)
	}
	if c.PCLI2.MaxConcurrent < 0 {
		return errors.Errorf("pcli2.max_concurrent must not be negative, got %d", c.PCLI2.MaxConcurrent)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.Errorf("server.max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes)
	}
	return nil
}

// createResolvedPaths resolves paths without touching the raw config
func createResolvedPaths(config *Config) (*ResolvedPaths, error) {
	resolved := &ResolvedPaths{}
	var err error

	// bare names are looked up on PATH at spawn time
	if strings.ContainsRune(config.PCLI2.Program, filepath.Separator) || strings.HasPrefix(config.PCLI2.Program, "~") {
		resolved.Program, err = resolvePath(config.PCLI2.Program)
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve pcli2.program")
		}
	}

	if config.Logging.Output != "" {
		resolved.LogOutput, err = resolvePath(config.Logging.Output)
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve logging.output")
		}
	}

	return resolved, nil
}

// resolvePath resolves a single path:
// 1. environment variables (${VAR} or $VAR)
// 2. home directory (~)
// 3. relative to absolute
func resolvePath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	originalPath := path

	path = os.ExpandEnv(path)

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "cannot determine home directory")
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", errors.Wrapf(err, "cannot make '%s' absolute", originalPath)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// GetResolvedProgram returns the pcli2 program after path resolution
func (c *Config) GetResolvedProgram() string {
	if c.resolved != nil && c.resolved.Program != "" {
		return c.resolved.Program
	}
	return c.PCLI2.Program
}

// GetResolvedLogOutput returns the log file path after path resolution
func (c *Config) GetResolvedLogOutput() string {
	if c.resolved != nil && c.resolved.LogOutput != "" {
		return c.resolved.LogOutput
	}
	return c.Logging.Output
}

// Addr returns host:port
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// FindFile locates a relative config file in the working directory, then
// next to the executable. When neither exists the path is returned as is
// and Load falls back to defaults.
func FindFile(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	if _, err := os.Stat(path); err == nil {
		return path
	}

	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), path)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return path
}
