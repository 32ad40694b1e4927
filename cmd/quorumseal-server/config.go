package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/quorumseal/quorumseal/crypto/ecc/curves"
	"github.com/quorumseal/quorumseal/db"
	"github.com/quorumseal/quorumseal/server"
	"github.com/quorumseal/quorumseal/wire"
)

const (
	defaultLogLevel  = "info"
	defaultLogOutput = "stdout"
	defaultDatadir   = ".quorumseal"
)

// Config holds the server configuration.
type Config struct {
	Port    int    `mapstructure:"port"`
	Datadir string `mapstructure:"datadir"`
	DB      DBConfig
	Curve   string `mapstructure:"curve"`
	Mode    string `mapstructure:"handshake"`
	Log     LogConfig
}

// DBConfig selects the storage backend.
type DBConfig struct {
	Type string `mapstructure:"type"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Output string `mapstructure:"output"`
}

// loadConfig loads configuration from flags, environment variables, an
// optional config file and defaults, in that precedence order.
func loadConfig() (*Config, error) {
	v := viper.New()

	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		userHomeDir = "."
	}
	defaultDatadirPath := filepath.Join(userHomeDir, defaultDatadir)

	v.SetDefault("port", server.DefaultPort)
	v.SetDefault("datadir", defaultDatadirPath)
	v.SetDefault("db.type", db.TypePebble)
	v.SetDefault("curve", curves.DefaultCurveType)
	v.SetDefault("handshake", string(wire.ModeEncrypted))
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.output", defaultLogOutput)

	flag.IntP("port", "p", server.DefaultPort, "TCP listen port")
	flag.StringP("datadir", "d", defaultDatadirPath, "data directory for the storage database")
	flag.String("db.type", db.TypePebble, fmt.Sprintf("storage backend (%q or %q)", db.TypePebble, db.TypeMemory))
	flag.String("curve", curves.DefaultCurveType, fmt.Sprintf("curve type %v", curves.Curves()))
	flag.String("handshake", string(wire.ModeEncrypted),
		fmt.Sprintf("packet handshake mode (%q or %q)", wire.ModeEncrypted, wire.ModeInline))
	flag.StringP("log.level", "l", defaultLogLevel, "log level (debug, info, warn, error)")
	flag.StringP("log.output", "o", defaultLogOutput, "log output (stdout, stderr or filepath)")
	configFile := flag.String("config", "", "optional YAML config file")
	flag.CommandLine.SortFlags = false
	flag.Parse()

	if err := v.BindPFlags(flag.CommandLine); err != nil {
		return nil, err
	}

	v.SetEnvPrefix("QUORUMSEAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if *configFile != "" {
		v.SetConfigFile(*configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("cannot read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot unmarshal config: %w", err)
	}
	return &cfg, nil
}

// validateConfig rejects values the server cannot run with.
func validateConfig(cfg *Config) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d", cfg.Port)
	}
	if !curves.IsValid(cfg.Curve) {
		return fmt.Errorf("unknown curve %q, available: %v", cfg.Curve, curves.Curves())
	}
	if !wire.IsValidMode(wire.Mode(cfg.Mode)) {
		return fmt.Errorf("unknown handshake mode %q", cfg.Mode)
	}
	if cfg.DB.Type != db.TypePebble && cfg.DB.Type != db.TypeMemory {
		return fmt.Errorf("unknown db type %q", cfg.DB.Type)
	}
	return nil
}
