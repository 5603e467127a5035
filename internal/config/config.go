// Package config loads CLI defaults from, in increasing precedence, a YAML
// file, a dotenv file, the process environment and finally command-line
// flags (applied by the cli package).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/frontend-scaffold/internal/build"
	"github.com/mmr-tortoise/frontend-scaffold/internal/catalog"
	"github.com/mmr-tortoise/frontend-scaffold/internal/model"
	"github.com/mmr-tortoise/frontend-scaffold/internal/resolver"
	"github.com/mmr-tortoise/frontend-scaffold/internal/verify"
)

const (
	// DefaultFile is read from the working directory when no file is named.
	DefaultFile = ".frontend-scaffold.yaml"

	// DefaultEnvFile is the dotenv file read alongside it.
	DefaultEnvFile = ".env"

	// EnvPrefix prefixes every environment variable the loader reads.
	EnvPrefix = "FRONTEND_SCAFFOLD_"
)

// Builder names a build.Runner implementation.
type Builder string

const (
	BuilderExec   Builder = "exec"
	BuilderDocker Builder = "docker"
)

// Config holds everything the CLI does not require on the command line.
type Config struct {
	OutputDir      string        `yaml:"output_dir"`
	Builder        Builder       `yaml:"builder"`
	InstallCommand []string      `yaml:"install_command"`
	BuildCommand   []string      `yaml:"build_command"`
	Timeout        time.Duration `yaml:"timeout"`
	StaticDir      string        `yaml:"static_dir"`
	Parallel       int           `yaml:"parallel"`
	CacheSize      int           `yaml:"cache_size"`
	Docker         DockerConfig  `yaml:"docker"`
	Defaults       Defaults      `yaml:"defaults"`
}

// DockerConfig configures the docker builder.
type DockerConfig struct {
	Image string `yaml:"image"`
}

// Defaults preselects axis values for prompts and flags.
type Defaults struct {
	StyleSolution      string `yaml:"style_solution"`
	JavaScriptSolution string `yaml:"javascript_solution"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cmds := build.DefaultCommands()
	cat := catalog.Default()
	return &Config{
		OutputDir:      ".",
		Builder:        BuilderExec,
		InstallCommand: cmds.Install,
		BuildCommand:   cmds.Build,
		Timeout:        build.DefaultTimeout,
		StaticDir:      verify.DefaultStaticDir,
		CacheSize:      resolver.DefaultCacheSize,
		Docker:         DockerConfig{Image: build.DefaultImage},
		Defaults: Defaults{
			StyleSolution:      cat.Default(model.AxisStyle),
			JavaScriptSolution: cat.Default(model.AxisJavaScript),
		},
	}
}

// Options tells Load where to look.
type Options struct {
	// File is the YAML file. Empty selects DefaultFile, which may be absent;
	// an explicitly named file must exist.
	File string

	// EnvFile is the dotenv file. Empty selects DefaultEnvFile. It may
	// always be absent.
	EnvFile string

	// LookupEnv reads the process environment. Nil uses os.LookupEnv.
	LookupEnv func(key string) (string, bool)
}

// Load builds a Config from defaults, the YAML file and the environment.
// Variables set in the process environment win over the dotenv file, which
// is never written back into the process.
func Load(opts Options) (*Config, error) {
	cfg := Default()

	file, required := opts.File, true
	if file == "" {
		file, required = DefaultFile, false
	}
	if err := cfg.readFile(file, required); err != nil {
		return nil, err
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	env := func(name string) (string, bool) {
		key := EnvPrefix + name
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.applyEnv(env); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(env func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := env(name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	argv := func(name string, dst *[]string) {
		if v, ok := env(name); ok {
			*dst = strings.Fields(v)
		}
	}
	num := func(name string, dst *int) error {
		v, ok := env(name)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}

	str("OUTPUT_DIR", &c.OutputDir)
	var builder string
	str("BUILDER", &builder)
	if builder != "" {
		c.Builder = Builder(builder)
	}
	argv("INSTALL_COMMAND", &c.InstallCommand)
	argv("BUILD_COMMAND", &c.BuildCommand)
	str("STATIC_DIR", &c.StaticDir)
	str("DOCKER_IMAGE", &c.Docker.Image)
	str("STYLE_SOLUTION", &c.Defaults.StyleSolution)
	str("JAVASCRIPT_SOLUTION", &c.Defaults.JavaScriptSolution)

	if v, ok := env("TIMEOUT"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sTIMEOUT: %w", EnvPrefix, err)
		}
		c.Timeout = d
	}
	if err := num("PARALLEL", &c.Parallel); err != nil {
		return err
	}
	return num("CACHE_SIZE", &c.CacheSize)
}

// Validate checks field ranges and the axis defaults.
func (c *Config) Validate() error {
	switch {
	case c.Builder != BuilderExec && c.Builder != BuilderDocker:
		return fmt.Errorf("builder must be %q or %q, got %q", BuilderExec, BuilderDocker, c.Builder)
	case len(c.InstallCommand) == 0:
		return errors.New("install_command must not be empty")
	case len(c.BuildCommand) == 0:
		return errors.New("build_command must not be empty")
	case c.Timeout <= 0:
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	case c.Parallel < 0:
		return fmt.Errorf("parallel must not be negative, got %d", c.Parallel)
	case c.CacheSize < 0:
		return fmt.Errorf("cache_size must not be negative, got %d", c.CacheSize)
	case c.StaticDir == "":
		return errors.New("static_dir must not be empty")
	}
	cat := catalog.Default()
	if err := cat.Validate(model.AxisStyle, c.Defaults.StyleSolution); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	if err := cat.Validate(model.AxisJavaScript, c.Defaults.JavaScriptSolution); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	return nil
}

// Commands returns the phase commands.
func (c *Config) Commands() build.Commands {
	return build.Commands{Install: c.InstallCommand, Build: c.BuildCommand}
}
