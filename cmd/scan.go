package cmd

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/diskarchaeology/a2disk/diskimage"
	"github.com/diskarchaeology/a2disk/dos33"
)

var scanVerbose bool

var scanCmd = &cobra.Command{
	Use:   "scan [path...]",
	Short: "walk directories, taste every disk image found, and report",
	Long: `Scan walks one or more paths (files or directories), considers every
.dsk or .do file found, attempts to construct and taste each as a DOS 3.3
disk image, and prints its catalog, anomalies, and parsed file contents.
At the end, every successfully loaded disk is grouped by its Boot1
sector hash.

If no path is given, the config file's scan.root key (see --config) is
used as the sole root to walk; it is an error for both to be unset.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("verbose") && viper.IsSet("scan.verbose") {
			scanVerbose = viper.GetBool("scan.verbose")
		}
		roots := args
		if len(roots) == 0 {
			root := viper.GetString("scan.root")
			if root == "" {
				return fmt.Errorf("scan: no path given and no scan.root set in config")
			}
			roots = []string{root}
		}
		return runScan(roots)
	},
}

func init() {
	scanCmd.Flags().BoolVarP(&scanVerbose, "verbose", "v", false, "print every sector's discovered role and label (default from scan.verbose in config)")
	RootCmd.AddCommand(scanCmd)
}

func runScan(roots []string) error {
	var paths []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isDiskImage(path) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	sort.Strings(paths)
	debugf(1, "scan: found %d candidate disk image(s) under %v\n", len(paths), roots)

	byBoot1Hash := map[string][]string{}

	for _, path := range paths {
		debugf(1, "scan: loading %s\n", path)
		disk, err := loadDisk(path)
		if err != nil {
			fmt.Printf("%s: %v\n", path, err)
			continue
		}

		boot1, _ := disk.Sector(0, 0)
		byBoot1Hash[boot1.Hash()] = append(byBoot1Hash[boot1.Hash()], path)

		fmt.Printf("=== %s ===\n", path)
		debugf(1, "scan: tasting %s\n", path)
		dos33disk, err := dos33.Taste(disk)
		if err != nil {
			fmt.Printf("%s: not DOS 3.3: %v\n", path, err)
			continue
		}

		fmt.Print(dos33disk.Catalog())
		printAnomalies(path, dos33disk)
		for _, f := range dos33disk.Files {
			name := f.Entry.FileName()
			printAnomalies(fmt.Sprintf("%s: %s", path, name), f)
			if f.ParsedContents != nil {
				fmt.Printf("--- %s: %s ---\n%s\n", path, name, f.ParsedContents)
			}
		}

		if scanVerbose {
			for _, ts := range diskimage.AllTrackSectors() {
				sec, err := disk.Sector(ts.Track, ts.Sector)
				if err != nil {
					continue
				}
				fmt.Println(sec)
				debugf(2, "scan: %s role=%s hash=%s entropy=%d%%\n", ts, sec.Role(), sec.Hash(), sec.Entropy())
			}
		}
	}

	fmt.Println("=== disks grouped by Boot1 hash ===")
	hashes := make([]string, 0, len(byBoot1Hash))
	for h := range byBoot1Hash {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)
	for _, h := range hashes {
		label := h
		if known, ok := diskimage.KnownHashes[h]; ok {
			label = fmt.Sprintf("%s (%s)", h, known)
		}
		fmt.Printf("%s:\n", label)
		for _, path := range byBoot1Hash[h] {
			fmt.Printf("  %s\n", path)
		}
	}

	return nil
}
