package dos33

import (
	"fmt"

	"github.com/diskarchaeology/a2disk/applesoft"
)

// Parser parses a file's reconstructed contents into a higher-level
// representation. Parsers must be pure: they must not mutate the disk.
// A failing parser does not prevent the file from being enumerated — its
// error is converted into a CORRUPTION anomaly on the File (see Taste).
type Parser func(filename string, contents []byte) (fmt.Stringer, error)

// FileTypeInfo describes one DOS 3.3 file type byte.
type FileTypeInfo struct {
	Short  string // One-letter CATALOG display code.
	Long   string // Long display name.
	Parser Parser // Registered content parser, or nil.
}

// FileTypes is the file-type dispatch table, keyed by the low 7 bits of a
// catalog entry's type byte. Adding a new parser means adding or updating
// an entry here — the walker never needs to change.
var FileTypes = map[byte]FileTypeInfo{
	0x00: {Short: "T", Long: "TEXT"},
	0x01: {Short: "I", Long: "INTEGER BASIC"},
	0x02: {Short: "A", Long: "APPLESOFT BASIC", Parser: parseApplesoft},
	0x04: {Short: "B", Long: "BINARY"},
	0x08: {Short: "S", Long: "Type S File"},
	0x10: {Short: "R", Long: "Relocatable"},
	0x20: {Short: "a", Long: "Type a File"},
	0x40: {Short: "b", Long: "Type b File"},
}

// fileTypeShort returns the short display letter for a type code, or "?"
// for an unrecognized one.
func fileTypeShort(code byte) string {
	if info, ok := FileTypes[code]; ok {
		return info.Short
	}
	return "?"
}

// parseApplesoft adapts applesoft.Decode to the Parser signature.
func parseApplesoft(filename string, contents []byte) (fmt.Stringer, error) {
	listing, err := applesoft.Decode(filename, contents)
	if err != nil {
		return nil, err
	}
	return listing, nil
}
