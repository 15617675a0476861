// Package config provides Viper-based configuration loading for the Farkle
// binaries.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/farkle/internal/game/ai"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// StorageConfig selects where profiles are kept.
type StorageConfig struct {
	// Backend is "memory" or "postgres".
	Backend string `mapstructure:"backend"`
	// ConnectTimeout bounds the startup connection attempt.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// HealthInterval is how often a connected database is pinged while
	// the table is open. Zero disables the check.
	HealthInterval time.Duration `mapstructure:"health_interval"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Output is a file path, "stdout" or "stderr". The console game draws
	// on stdout, so logs default to stderr.
	Output string `mapstructure:"output"`
}

// GameConfig holds the table rules.
type GameConfig struct {
	PlayerName     string        `mapstructure:"player_name"`
	TargetScore    int           `mapstructure:"target_score"`
	Difficulty     string        `mapstructure:"difficulty"`
	StartBalance   int           `mapstructure:"start_balance"`
	BailoutBalance int           `mapstructure:"bailout_balance"`
	ComputerDelay  time.Duration `mapstructure:"computer_delay"`
	// SeedPhrase, when set, makes every roll reproducible.
	SeedPhrase string `mapstructure:"seed_phrase"`
}

// ParsedDifficulty returns Difficulty as an ai.Difficulty.
func (g GameConfig) ParsedDifficulty() (ai.Difficulty, error) {
	return ai.ParseDifficulty(g.Difficulty)
}

// ContentConfig locates the YAML and Lua content files.
type ContentConfig struct {
	Dice             string `mapstructure:"dice"`
	Challengers      string `mapstructure:"challengers"`
	Scripts          string `mapstructure:"scripts"`
	Tuning           string `mapstructure:"tuning"`
	InstructionLimit int    `mapstructure:"instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Game     GameConfig     `mapstructure:"game"`
	Content  ContentConfig  `mapstructure:"content"`
}

// Validate checks all configuration invariants. Database settings are only
// checked for the postgres backend.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	errs := []error{
		validateLogging(c.Logging),
		validateStorage(c.Storage),
		validateGame(c.Game),
		validateContent(c.Content),
	}
	if c.Storage.Backend == BackendPostgres {
		errs = append(errs, validateDatabase(c.Database))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []error
	if d.Host == "" {
		errs = append(errs, errors.New("database.host must not be empty"))
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Errorf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, errors.New("database.user must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("database.name must not be empty"))
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Errorf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Errorf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Errorf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, errors.New("database.min_conns must not exceed database.max_conns"))
	}
	return errors.Join(errs...)
}

func validateStorage(s StorageConfig) error {
	var errs []error
	if s.Backend != BackendMemory && s.Backend != BackendPostgres {
		errs = append(errs, fmt.Errorf("storage.backend must be one of [memory, postgres], got %q", s.Backend))
	}
	if s.ConnectTimeout < 0 {
		errs = append(errs, errors.New("storage.connect_timeout must not be negative"))
	}
	if s.HealthInterval < 0 {
		errs = append(errs, errors.New("storage.health_interval must not be negative"))
	}
	return errors.Join(errs...)
}

func validateGame(g GameConfig) error {
	var errs []error
	if g.TargetScore < 1 {
		errs = append(errs, fmt.Errorf("game.target_score must be >= 1, got %d", g.TargetScore))
	}
	if _, err := g.ParsedDifficulty(); err != nil {
		errs = append(errs, fmt.Errorf("game.difficulty must be one of [easy, medium, hard], got %q", g.Difficulty))
	}
	if g.StartBalance < 0 {
		errs = append(errs, fmt.Errorf("game.start_balance must be >= 0, got %d", g.StartBalance))
	}
	if g.BailoutBalance < 1 {
		errs = append(errs, fmt.Errorf("game.bailout_balance must be >= 1, got %d", g.BailoutBalance))
	}
	if g.ComputerDelay < 0 {
		errs = append(errs, errors.New("game.computer_delay must not be negative"))
	}
	return errors.Join(errs...)
}

func validateContent(c ContentConfig) error {
	var errs []error
	if c.Dice == "" {
		errs = append(errs, errors.New("content.dice must not be empty"))
	}
	if c.InstructionLimit < 0 {
		errs = append(errs, fmt.Errorf("content.instruction_limit must be >= 0, got %d", c.InstructionLimit))
	}
	if c.Challengers != "" && c.Scripts == "" {
		errs = append(errs, errors.New("content.scripts must be set when content.challengers is"))
	}
	return errors.Join(errs...)
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	if l.Output == "" {
		return errors.New("logging.output must not be empty")
	}
	return nil
}

// Load reads configuration from the given file path, applies FARKLE_
// environment variable overrides, and validates the result. An empty path
// uses defaults and the environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FARKLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "farkle")
	v.SetDefault("database.password", "farkle")
	v.SetDefault("database.name", "farkle")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("storage.backend", BackendMemory)
	v.SetDefault("storage.connect_timeout", "5s")
	v.SetDefault("storage.health_interval", "30s")

	v.SetDefault("game.player_name", "Henry")
	v.SetDefault("game.target_score", 4000)
	v.SetDefault("game.difficulty", "medium")
	v.SetDefault("game.start_balance", 50)
	v.SetDefault("game.bailout_balance", 50)
	v.SetDefault("game.computer_delay", "700ms")
	v.SetDefault("game.seed_phrase", "")

	v.SetDefault("content.dice", "content/dice.yaml")
	v.SetDefault("content.challengers", "content/challengers.yaml")
	v.SetDefault("content.scripts", "content/scripts")
	v.SetDefault("content.tuning", "")
	v.SetDefault("content.instruction_limit", 100_000)
}
