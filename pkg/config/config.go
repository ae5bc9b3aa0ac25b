// Package config loads the project configuration of the cppparser tools from a YAML
// file and merges command line overrides into it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cppparser/pkg/cpp"
	"cppparser/pkg/parser"

	"gopkg.in/yaml.v3"
)

// FileName is the name of the configuration file searched for in a project
const FileName = ".cppparser.yaml"

// Config represents the settings shared by all commands
type Config struct {
	IncludePaths       []string `yaml:"include_paths"`        // Searched for "file" includes
	SystemIncludePaths []string `yaml:"system_include_paths"` // Searched for <file> includes
	Defines            []string `yaml:"defines"`              // NAME or NAME=VALUE
	Undefines          []string `yaml:"undefines"`
	MaxErrors          int      `yaml:"max_errors"` // Reporting stops past this many errors, 0 for no limit
	MaxNesting         int      `yaml:"max_nesting"`
	IncludeErrorsFatal bool     `yaml:"include_errors_fatal"`
	MaxIncludeDepth    int      `yaml:"max_include_depth"`
	LogLevel           string   `yaml:"log_level"` // debug, info, warn or error
	Jobs               int      `yaml:"jobs"`      // Files parsed concurrently
	Ignore             []string `yaml:"ignore"`    // File name patterns skipped when walking directories
}

// Overrides are settings given on the command line. Empty fields leave the file
// values in place; lists are appended.
type Overrides struct {
	IncludePaths       []string
	SystemIncludePaths []string
	Defines            []string
	Undefines          []string
	MaxErrors          int
	LogLevel           string
	Jobs               int
}

// Default returns the configuration used when no file is found
func Default() *Config {
	return &Config{
		MaxErrors:       100,
		MaxNesting:      parser.DefaultMaxNesting,
		MaxIncludeDepth: 200,
		LogLevel:        "warn",
		Jobs:            4,
	}
}

// Load reads a configuration file. Settings missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(content, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	// relative include paths are relative to the file
	dir := filepath.Dir(path)
	config.IncludePaths = resolvePaths(dir, config.IncludePaths)
	config.SystemIncludePaths = resolvePaths(dir, config.SystemIncludePaths)
	return config, nil
}

func resolvePaths(dir string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		out = append(out, p)
	}
	return out
}

// Find looks for FileName in start and its parent directories and returns its path,
// or "" when there is none
func Find(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return ""
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Merge applies command line overrides
func (c *Config) Merge(o Overrides) {
	c.IncludePaths = append(c.IncludePaths, o.IncludePaths...)
	c.SystemIncludePaths = append(c.SystemIncludePaths, o.SystemIncludePaths...)
	c.Defines = append(c.Defines, o.Defines...)
	c.Undefines = append(c.Undefines, o.Undefines...)
	if o.MaxErrors > 0 {
		c.MaxErrors = o.MaxErrors
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.Jobs > 0 {
		c.Jobs = o.Jobs
	}
}

// Validate checks the settings for consistency
func (c *Config) Validate() error {
	var errs []error
	if c.MaxErrors < 0 {
		errs = append(errs, fmt.Errorf("max_errors must not be negative, got %d", c.MaxErrors))
	}
	if c.MaxNesting < 0 {
		errs = append(errs, fmt.Errorf("max_nesting must not be negative, got %d", c.MaxNesting))
	}
	if c.MaxIncludeDepth < 0 {
		errs = append(errs, fmt.Errorf("max_include_depth must not be negative, got %d", c.MaxIncludeDepth))
	}
	if c.Jobs < 0 {
		errs = append(errs, fmt.Errorf("jobs must not be negative, got %d", c.Jobs))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	for _, d := range c.Defines {
		if name, _, _ := strings.Cut(d, "="); strings.TrimSpace(name) == "" {
			errs = append(errs, fmt.Errorf("define %q has no macro name", d))
		}
	}
	for _, pattern := range c.Ignore {
		if _, err := filepath.Match(pattern, ""); err != nil {
			errs = append(errs, fmt.Errorf("bad ignore pattern %q: %w", pattern, err))
		}
	}
	return errors.Join(errs...)
}

// Level returns the configured log level
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelWarn, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return level, nil
}

// Ignored reports whether a file matches one of the ignore patterns
func (c *Config) Ignored(path string) bool {
	name := filepath.Base(path)
	for _, pattern := range c.Ignore {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

// ParserConfig builds the settings of a parse session
func (c *Config) ParserConfig(logger *slog.Logger) parser.Config {
	return parser.Config{
		Preprocessor: cpp.Config{
			Defines:            c.Defines,
			Undefines:          c.Undefines,
			IncludeErrorsFatal: c.IncludeErrorsFatal,
			MaxIncludeDepth:    c.MaxIncludeDepth,
			Logger:             logger,
		},
		Resolver:   cpp.NewFileResolver(c.IncludePaths, c.SystemIncludePaths),
		MaxErrors:  c.MaxErrors,
		MaxNesting: c.MaxNesting,
		Logger:     logger,
	}
}

// Write stores the configuration with an explanatory header
func Write(path string, c *Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	var content strings.Builder
	content.WriteString(`# ` + FileName + ` configuration file
# Generated by cppparser init
#
# - include_paths / system_include_paths: directories searched by #include
# - defines / undefines: -D and -U style macro settings applied before each file
# - ignore: file name patterns skipped when a directory is processed

`)
	content.Write(data)
	return os.WriteFile(path, []byte(content.String()), 0644)
}
