// Package cli implements the mapprint command-line interface.
//
// The render command reads a TOML map file, lays the map out on a PDF page
// and optionally adds a scale bar, a legend, a coordinate grid, a
// graticule and a geospatial header.
//
// # Settings
//
// Every flag can also be set in a config file given with --config (TOML,
// YAML or JSON, keyed by flag name) or in the environment with the
// MAPPRINT_ prefix, dashes becoming underscores: MAPPRINT_PAGE_SIZE=a3l.
// Flags given on the command line win over the environment, which wins
// over the config file.
//
// # Logging
//
// Messages go to stderr at info level, or debug level with --verbose.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	appName   = "mapprint"
	envPrefix = "MAPPRINT"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

var (
	version = "dev"
	commit  string
	date    string
)

// SetVersion sets the version information displayed by --version.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configFile string
	settings   *viper.Viper
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:   newLogger(w, level),
		settings: viper.New(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          appName,
		Short:        "mapprint lays out maps on PDF pages",
		Long:         `mapprint renders maps described in TOML files to print ready PDF documents, with scale bar, legend, coordinate grid and optional content layers.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				c.SetLogLevel(LogDebug)
			}
			if err := c.loadSettings(cmd); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("%s %s\ncommit: %s\nbuilt: %s\n", appName, version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file with flag defaults (toml, yaml or json)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.pageSizesCommand())

	return root
}

// loadSettings layers the config file and the environment under the flags
// of cmd.
func (c *CLI) loadSettings(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if c.configFile != "" {
		v.SetConfigFile(c.configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
		c.Logger.Debug("config loaded", "file", v.ConfigFileUsed())
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	c.settings = v
	return nil
}
