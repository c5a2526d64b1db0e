package diskimage

import (
	"fmt"
	"io"
)

// HexDump writes a classic hex+ASCII dump of data to w, eight bytes per
// line, unprintable bytes rendered as '.'.
func HexDump(w io.Writer, data []byte) error {
	for offset := 0; offset < len(data); offset += 8 {
		end := offset + 8
		if end > len(data) {
			end = len(data)
		}
		line := data[offset:end]

		if _, err := fmt.Fprintf(w, "$%02x:  ", offset); err != nil {
			return err
		}
		for _, b := range line {
			if _, err := fmt.Fprintf(w, "%02x ", b); err != nil {
				return err
			}
		}
		for i := len(line); i < 8; i++ {
			if _, err := fmt.Fprint(w, "   "); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprint(w, "   "); err != nil {
			return err
		}
		for _, b := range line {
			if isPrintable(b) {
				if _, err := fmt.Fprintf(w, "%c", b); err != nil {
					return err
				}
			} else if _, err := fmt.Fprint(w, "."); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

func isPrintable(b byte) bool {
	return b >= 0x20 && b < 0x7f
}
