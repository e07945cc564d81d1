// Package config loads the settings shared by the myftp binaries.
//
// Configuration precedence (highest to lowest):
//  1. Command line flags bound to a key
//  2. Environment variables (MYFTP_*)
//  3. Configuration file
//  4. Default values
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/myftp/myftp"
	"github.com/myftp/myftp/internal/logger"
)

// Keys, as used in configuration files.
// Environment variables upper-case them, and replace dots with underscores:
// log.level is MYFTP_LOG_LEVEL.
const (
	KeyRoot        = "root"
	KeyLocalDir    = "local_dir"
	KeyLogLevel    = "log.level"
	KeyLogFormat   = "log.format"
	KeyLogOutput   = "log.output"
	KeyTools       = "tools"
	KeyChecksum    = "checksum"
	KeyLong        = "long"
	KeyDSCP        = "dscp"
	KeyMetricsAddr = "metrics_addr"
)

// Tool implementations.
const (
	ToolsNative = "native"
	ToolsExec   = "exec"
)

// Config is the validated configuration of a myftp binary.
type Config struct {
	// Root is the directory the server exposes.
	Root string `mapstructure:"root"`

	// LocalDir is the directory the client reads uploads from, and writes downloads to.
	LocalDir string `mapstructure:"local_dir"`

	Log logger.Config `mapstructure:"log"`

	// Tools selects in-process (native) or external (exec) listing and checksum tools.
	Tools string `mapstructure:"tools"`

	// Checksum is the digest algorithm of the native checksum tool.
	Checksum string `mapstructure:"checksum"`

	// Long makes the native listing tool print `ls -l` style lines.
	Long bool `mapstructure:"long"`

	// DSCP marks connections with a differentiated services code point; 0 disables marking.
	DSCP int `mapstructure:"dscp"`

	// MetricsAddr is where Prometheus metrics are served; empty disables them.
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// New returns a viper instance with defaults set, reading MYFTP_* environment variables.
func New() *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix("MYFTP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyRoot, ".")
	v.SetDefault(KeyLocalDir, ".")
	v.SetDefault(KeyLogLevel, "INFO")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyLogOutput, "stderr")
	v.SetDefault(KeyTools, ToolsNative)
	v.SetDefault(KeyChecksum, myftp.AlgorithmSHA256)
	v.SetDefault(KeyLong, false)
	v.SetDefault(KeyDSCP, 0)
	v.SetDefault(KeyMetricsAddr, "")

	return v
}

// Load reads the configuration file, if one was set on v, and returns the validated configuration.
func Load(v *viper.Viper) (*Config, error) {
	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &cfg, nil
}

// Validate checks every setting.
func (c *Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return err
	}

	switch c.Tools {
	case ToolsNative, ToolsExec:
	default:
		return errors.Errorf("tools must be %q or %q: %q", ToolsNative, ToolsExec, c.Tools)
	}

	if !myftp.ValidAlgorithm(c.Checksum) {
		return errors.Errorf("unknown checksum algorithm %q", c.Checksum)
	}

	if c.DSCP < 0 || c.DSCP > 63 {
		return errors.Errorf("dscp must be between 0 and 63: %d", c.DSCP)
	}

	for _, dir := range []string{c.Root, c.LocalDir} {
		if dir == "" {
			continue
		}

		fi, err := os.Stat(dir)
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			return errors.Errorf("%s is not a directory", dir)
		}
	}

	return nil
}

// Lister returns the listing tool selected by the configuration.
func (c *Config) Lister() myftp.Lister {
	if c.Tools == ToolsExec {
		args := []string(nil)
		if c.Long {
			args = append(args, "-l")
		}
		return myftp.ExecLister{Args: args}
	}

	return myftp.NativeLister{Long: c.Long}
}

// Checksummer returns the checksum tool selected by the configuration.
// The exec tool always runs sha256sum.
func (c *Config) Checksummer() myftp.Checksummer {
	if c.Tools == ToolsExec {
		return myftp.ExecChecksummer{}
	}

	return myftp.NativeChecksummer{Algorithm: c.Checksum}
}
