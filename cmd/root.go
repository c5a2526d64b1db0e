package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// Debug is the global trace verbosity, settable via --debug, the
// A2DISK_DEBUG environment variable, or a config file's debug key: 0 is
// silent, 1 prints progress lines, 2+ traces per-sector. It follows the
// teacher's `if debug { fmt.Fprintf(os.Stderr, ...) }` idiom, generalized
// from a bool to a graduated level.
var Debug int

// debugf writes a trace line to stderr when the global Debug level is at
// least level.
func debugf(level int, format string, args ...interface{}) {
	if Debug >= level {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// RootCmd is the base command when a2disk is called without a subcommand.
var RootCmd = &cobra.Command{
	Use:   "a2disk",
	Short: "Decompose and inspect Apple II DOS 3.3 disk images",
	Long: `a2disk reads 140 KiB Apple II floppy disk images, identifies every
sector's role, reconstructs files from the DOS 3.3 catalog and
track/sector lists, and reports anomalies: places the disk deviates
from what a well-formed DOS 3.3 volume should look like.`,
}

// Execute runs RootCmd; each subcommand file adds its command to RootCmd in
// its own init. Called once from main.main().
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.a2disk.yaml)")
	RootCmd.PersistentFlags().IntVarP(&Debug, "debug", "d", 0, "trace verbosity: 0 silent, 1 progress, 2+ per-sector")
	_ = viper.BindPFlag("debug", RootCmd.PersistentFlags().Lookup("debug"))
}

// initConfig reads in a config file and environment variables, if set. A
// config value only takes effect where the user didn't pass the
// corresponding flag explicitly — cobra/viper's usual precedence.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".a2disk")
	}

	viper.SetEnvPrefix("a2disk")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig() // optional; absence is not an error

	if !RootCmd.PersistentFlags().Changed("debug") {
		Debug = viper.GetInt("debug")
	}
}
