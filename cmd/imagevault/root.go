package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global output flags only
	verbose      bool
	quiet        bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "imagevault",
	Short: "Read-only disk and optical image inspection tool",
	Long: `imagevault is a cross-platform, read-only command-line tool for
identifying, inspecting, and reading sectors from preserved disk and
optical images: CloneCD optical images (.ccd/.img/.sub) and QCOW v1
sparse block images, optionally wrapped in an AppleSingle or MacBinary
container. Tape images are not handled by these commands.

Commands:
  identify     Detect which format plugin recognizes an image
  info         Show image metadata: sectors, tracks, sessions, partitions
  read-sector  Hex-dump a single sector (cooked, or raw with --long)`,
	Version: "0.1.0-dev",
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "accepted; no command changes its output for it")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "accepted; no command suppresses output for it")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, json, yaml)")
}
