package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-imagevault/internal/config"
	"github.com/deploymenttheory/go-imagevault/internal/filter"
	"github.com/deploymenttheory/go-imagevault/internal/imagevault"
)

var readSectorLong bool

var readSectorCmd = &cobra.Command{
	Use:   "read-sector [path] [lba]",
	Short: "Hex-dump a single sector",
	Long: `Open the image, detect its format, and hex-dump one sector addressed
by logical block address.

Examples:
  imagevault read-sector disk.ccd 16 --long
  imagevault read-sector disk.qcow 0`,

	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lba, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid lba %q: %w", args[1], err)
		}
		return runReadSector(args[0], lba)
	},
}

func init() {
	readSectorCmd.Flags().BoolVar(&readSectorLong, "long", false, "read the raw 2352-byte record (optical images only)")
	rootCmd.AddCommand(readSectorCmd)
}

func runReadSector(path string, lba int64) error {
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
	img, _, err := reg.Open(f)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer img.Close()

	var data []byte
	if readSectorLong {
		opt, ok := img.(imagevault.OpticalImage)
		if !ok {
			return fmt.Errorf("--long is only meaningful for optical images")
		}
		track, terr := trackContaining(opt, lba)
		if terr != nil {
			return terr
		}
		data, err = opt.ReadSectorLong(lba, track)
	} else {
		switch im := img.(type) {
		case imagevault.OpticalImage:
			data, err = im.ReadSector(lba)
		case imagevault.ByteAddressableImage:
			data, err = im.ReadSector(lba)
		default:
			return fmt.Errorf("image does not support sector reads")
		}
	}
	if err != nil {
		return fmt.Errorf("failed to read sector %d: %w", lba, err)
	}

	hexDump(data)
	return nil
}

func trackContaining(opt imagevault.OpticalImage, lba int64) (int, error) {
	for _, t := range opt.Tracks() {
		if lba >= t.StartSector && lba <= t.EndSector {
			return t.Sequence, nil
		}
	}
	return 0, imagevault.NewError(imagevault.KindOutOfBounds, "lba %d falls in no track", lba)
}

func hexDump(data []byte) {
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		row := data[off:end]

		fmt.Printf("%08x  ", off)
		for i := 0; i < 16; i++ {
			if i < len(row) {
				fmt.Printf("%02x ", row[i])
			} else {
				fmt.Print("   ")
			}
			if i == 7 {
				fmt.Print(" ")
			}
		}
		fmt.Print(" |")
		for _, b := range row {
			if b >= 0x20 && b < 0x7f {
				fmt.Printf("%c", b)
			} else {
				fmt.Print(".")
			}
		}
		fmt.Println("|")
	}
}
