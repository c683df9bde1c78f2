package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/patrislav/bspgo/internal/config"
)

var (
	cfgFile  string
	logLevel string
	pretty   bool

	rootCmd = &cobra.Command{
		Use:   "bspgo",
		Short: "bspgo - a binary space partitioning X11 window manager",
		Long: `bspgo tiles windows on a binary partition tree, one per virtual
desktop per monitor, and drives them entirely through keyboard and mouse
bindings -- no decoration beyond a configurable border.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.config/bspgo/bspgo.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "use a human-readable console log writer instead of JSON")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveConfigPath returns the --config flag's value, or the default
// per-user path when unset.
func resolveConfigPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.Path("bspgo")
}
