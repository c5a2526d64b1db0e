package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/diskarchaeology/a2disk/diskimage"
	"github.com/diskarchaeology/a2disk/helpers"
)

var (
	dumpOutput string
	dumpForce  bool
)

var dumpCmd = &cobra.Command{
	Use:   "dump disk-image.dsk track sector",
	Short: "hex-dump a single sector with its label (the disk is not walked, so the role is Boot1 or unknown)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		track, err := strconv.ParseUint(args[1], 0, 8)
		if err != nil {
			return fmt.Errorf("track: %w", err)
		}
		sector, err := strconv.ParseUint(args[2], 0, 8)
		if err != nil {
			return fmt.Errorf("sector: %w", err)
		}
		return runDump(args[0], byte(track), byte(sector))
	},
}

func init() {
	dumpCmd.Flags().StringVarP(&dumpOutput, "output", "o", "", "write the raw sector bytes to this file (or \"-\" for stdout) instead of hex-dumping")
	dumpCmd.Flags().BoolVarP(&dumpForce, "force", "f", false, "overwrite --output file if it already exists")
	RootCmd.AddCommand(dumpCmd)
}

func runDump(path string, track, sector byte) error {
	disk, err := loadDisk(path)
	if err != nil {
		return err
	}
	sec, err := disk.Sector(track, sector)
	if err != nil {
		return err
	}
	if dumpOutput != "" {
		return helpers.WriteOutput(dumpOutput, sec.Data(), dumpForce)
	}
	fmt.Println(sec.String())
	return diskimage.HexDump(os.Stdout, sec.Data())
}
