package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"cppparser/pkg/config"
	"cppparser/pkg/parser"

	"github.com/spf13/cobra"
)

// Version information
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Settings shared by every command
var (
	configPath     string
	includePaths   []string
	systemIncludes []string
	defines        []string
	undefines      []string
	maxErrors      int
	logLevel       string
	jobs           int

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "cppparser",
	Short: "A C/C++ preprocessor and declaration parser",
	Long: `cppparser preprocesses C and C++ headers and parses their declarations into a
scope tree of namespaces, classes, functions, variables, typedefs and templates.
The tree can be printed, queried by qualified name, or regenerated as source.`,
	Version:           getVersionString(),
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cppparser %s\n", getVersionString())
		fmt.Printf("  Version: %s\n", version)
		fmt.Printf("  Commit:  %s\n", commit)
		fmt.Printf("  Date:    %s\n", date)
	},
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (%s)", version, commit)
	}
	return version
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func Execute() error {
	return rootCmd.Execute()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// setup loads the configuration, applies the command line over it and installs the
// logger used by the library packages
func setup(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		start := "."
		if len(args) > 0 {
			start = args[0]
		}
		path = config.Find(start)
	}

	cfg = config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg.Merge(config.Overrides{
		IncludePaths:       includePaths,
		SystemIncludePaths: systemIncludes,
		Defines:            defines,
		Undefines:          undefines,
		MaxErrors:          maxErrors,
		LogLevel:           logLevel,
		Jobs:               jobs,
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	if path != "" {
		logger.Debug("config.loaded", "path", path)
	}
	return nil
}

// newParser creates a parse session from the loaded configuration
func newParser() *parser.Parser {
	pc := cfg.ParserConfig(logger)
	pc.Sink = os.Stderr
	return parser.NewWithConfig(pc)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", os.Getenv("CPPPARSER_CONFIG"), "Configuration file (default: nearest "+config.FileName+")")
	flags.StringArrayVarP(&includePaths, "include", "I", nil, "Add a directory to the \"file\" include path")
	flags.StringArrayVar(&systemIncludes, "isystem", nil, "Add a directory to the <file> include path")
	flags.StringArrayVarP(&defines, "define", "D", nil, "Define a macro, NAME or NAME=VALUE")
	flags.StringArrayVarP(&undefines, "undefine", "U", nil, "Undefine a macro")
	flags.IntVar(&maxErrors, "max-errors", 0, "Stop reporting after this many errors")
	flags.StringVar(&logLevel, "log-level", getEnvOrDefault("CPPPARSER_LOG_LEVEL", ""), "Log level (debug, info, warn, error)")
	flags.IntVarP(&jobs, "jobs", "j", 0, "Files processed concurrently")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(formatCmd)
	rootCmd.AddCommand(preprocessCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(xcheckCmd)
	rootCmd.AddCommand(instancesCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}
