package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/diskarchaeology/a2disk/container"
	"github.com/diskarchaeology/a2disk/diskimage"
	"github.com/diskarchaeology/a2disk/helpers"
)

// loadDisk reads path and constructs a Disk from its bytes. path may be "-"
// to read a single disk image from stdin.
func loadDisk(path string) (*diskimage.Disk, error) {
	data, err := helpers.FileContentsOrStdIn(path)
	if err != nil {
		return nil, err
	}
	return diskimage.New(path, data)
}

// isDiskImage reports whether path looks like a disk image the CLI should
// consider, by extension. The core has no opinion about filenames; this
// filter lives entirely at the driver layer.
func isDiskImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".dsk" || ext == ".do"
}

// printAnomalies writes every anomaly on root and, recursively, on every
// descendant, prefixed with label.
func printAnomalies(label string, root container.Node) {
	for _, a := range root.Anomalies() {
		fmt.Printf("%s: %s\n", label, a)
	}
	root.Recurse(func(n container.Node) {
		for _, a := range n.Anomalies() {
			fmt.Printf("%s: %s\n", label, a)
		}
	})
}
