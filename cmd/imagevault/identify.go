package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-imagevault/internal/config"
	"github.com/deploymenttheory/go-imagevault/internal/filter"
)

var identifyCmd = &cobra.Command{
	Use:   "identify [path]",
	Short: "Detect which format plugin recognizes an image",
	Long: `Probe every registered plugin's Identify against the given path and
report the first match, without fully opening the image.

Examples:
  imagevault identify disk.ccd
  imagevault identify disk.qcow`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIdentify(args[0])
	},
}

func init() {
	rootCmd.AddCommand(identifyCmd)
}

func runIdentify(path string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	f, err := filter.OpenAuto(path, cfg.AutoUnwrapContainers)
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", path, err)
	}
	defer f.Close()

	reg := buildRegistry(cfg)
	p := reg.Detect(f)
	if p == nil {
		fmt.Printf("%s: UnrecognizedFormat\n", path)
		return nil
	}
	fmt.Printf("%s: %s\n", path, p.Name())
	return nil
}
