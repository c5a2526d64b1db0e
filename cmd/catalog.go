package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diskarchaeology/a2disk/dos33"
)

var catalogCmd = &cobra.Command{
	Use:     "catalog disk-image.dsk",
	Aliases: []string{"cat", "ls"},
	Short:   "print a DOS 3.3 CATALOG listing for a disk image",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCatalog(args[0])
	},
}

func init() {
	RootCmd.AddCommand(catalogCmd)
}

func runCatalog(path string) error {
	debugf(1, "catalog: loading %s\n", path)
	disk, err := loadDisk(path)
	if err != nil {
		return err
	}
	dos33disk, err := dos33.Taste(disk)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fmt.Print(dos33disk.Catalog())
	printAnomalies(path, dos33disk)
	for _, f := range dos33disk.Files {
		printAnomalies(fmt.Sprintf("%s: %s", path, f.Entry.FileName()), f)
	}
	return nil
}
