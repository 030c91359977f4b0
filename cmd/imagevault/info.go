package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/deploymenttheory/go-imagevault/internal/config"
	"github.com/deploymenttheory/go-imagevault/internal/filter"
	"github.com/deploymenttheory/go-imagevault/internal/imagevault"
)

var infoCmd = &cobra.Command{
	Use:   "info [path]",
	Short: "Show image metadata: sectors, tracks, sessions, partitions",
	Long: `Open the image, detect its format, and report the populated
ImageInfo plus (for optical images) its track/session/partition layout.

Examples:
  imagevault info disk.ccd
  imagevault info disk.qcow -o json`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInfo(args[0])
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

// imageReport is the flattened shape info renders, regardless of
// output format.
type imageReport struct {
	Path       string                 `json:"path" yaml:"path"`
	Plugin     string                 `json:"plugin" yaml:"plugin"`
	Info       imagevault.ImageInfo   `json:"info" yaml:"info"`
	Tracks     []imagevault.Track     `json:"tracks,omitempty" yaml:"tracks,omitempty"`
	Sessions   []imagevault.Session   `json:"sessions,omitempty" yaml:"sessions,omitempty"`
	Partitions []imagevault.Partition `json:"partitions,omitempty" yaml:"partitions,omitempty"`
}

func runInfo(path string) error {
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
	img, p, err := reg.Open(f)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer img.Close()

	report := imageReport{
		Path:   path,
		Plugin: p.Name(),
		Info:   *img.Info(),
	}
	if opt, ok := img.(imagevault.OpticalImage); ok {
		report.Tracks = opt.Tracks()
		report.Sessions = opt.Sessions()
		report.Partitions = opt.Partitions()
	}

	switch outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		return yaml.NewEncoder(os.Stdout).Encode(report)
	default:
		printInfoTable(report)
		return nil
	}
}

func printInfoTable(r imageReport) {
	fmt.Printf("%s (%s)\n", r.Path, r.Plugin)
	fmt.Printf("  media type:  %s\n", r.Info.MediaType)
	fmt.Printf("  sectors:     %d\n", r.Info.Sectors)
	fmt.Printf("  sector size: %d\n", r.Info.SectorSize)
	if r.Info.Cylinders > 0 {
		fmt.Printf("  geometry:    %d/%d/%d\n", r.Info.Cylinders, r.Info.Heads, r.Info.SectorsPerTrack)
	}

	if len(r.Sessions) > 0 {
		fmt.Println("\nsessions:")
		w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
		fmt.Fprintln(w, "seq\tfirst track\tlast track\tfirst sector\tlast sector")
		for _, s := range r.Sessions {
			fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\n", s.Sequence, s.FirstTrack, s.LastTrack, s.FirstSector, s.LastSector)
		}
		w.Flush()
	}

	if len(r.Tracks) > 0 {
		fmt.Println("\ntracks:")
		w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
		fmt.Fprintln(w, "seq\tsession\tstart\tend\ttype")
		for _, t := range r.Tracks {
			fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%s\n", t.Sequence, t.Session, t.StartSector, t.EndSector, t.Type)
		}
		w.Flush()
	}
}
