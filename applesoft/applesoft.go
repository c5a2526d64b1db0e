// Package applesoft detokenizes AppleSoft BASIC program images — the
// in-memory byte layout DOS 3.3 stores for file type 0x02.
package applesoft

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/diskarchaeology/a2disk/container"
)

// LoadAddress is the fixed memory location AppleSoft programs are loaded
// at on disk (0x801), used to validate the gap between consecutive lines.
const LoadAddress = 0x801

// TokensByCode maps a tokenized byte value to its keyword text, for the
// range 0x80 (END) to 0xEA (MID$). Bytes below 0x80 are literal characters.
var TokensByCode = map[byte]string{
	0x80: "END", 0x81: "FOR", 0x82: "NEXT", 0x83: "DATA", 0x84: "INPUT",
	0x85: "DEL", 0x86: "DIM", 0x87: "READ", 0x88: "GR", 0x89: "TEXT",
	0x8A: "PR #", 0x8B: "IN #", 0x8C: "CALL", 0x8D: "PLOT", 0x8E: "HLIN",
	0x8F: "VLIN", 0x90: "HGR2", 0x91: "HGR", 0x92: "HCOLOR=", 0x93: "HPLOT",
	0x94: "DRAW", 0x95: "XDRAW", 0x96: "HTAB", 0x97: "HOME", 0x98: "ROT=",
	0x99: "SCALE=", 0x9A: "SHLOAD", 0x9B: "TRACE", 0x9C: "NOTRACE", 0x9D: "NORMAL",
	0x9E: "INVERSE", 0x9F: "FLASH", 0xA0: "COLOR=", 0xA1: "POP", 0xA2: "VTAB",
	0xA3: "HIMEM:", 0xA4: "LOMEM:", 0xA5: "ONERR", 0xA6: "RESUME", 0xA7: "RECALL",
	0xA8: "STORE", 0xA9: "SPEED=", 0xAA: "LET", 0xAB: "GOTO", 0xAC: "RUN",
	0xAD: "IF", 0xAE: "RESTORE", 0xAF: "&", 0xB0: "GOSUB", 0xB1: "RETURN",
	0xB2: "REM", 0xB3: "STOP", 0xB4: "ON", 0xB5: "WAIT", 0xB6: "LOAD",
	0xB7: "SAVE", 0xB8: "DEF FN", 0xB9: "POKE", 0xBA: "PRINT", 0xBB: "CONT",
	0xBC: "LIST", 0xBD: "CLEAR", 0xBE: "GET", 0xBF: "NEW", 0xC0: "TAB",
	0xC1: "TO", 0xC2: "FN", 0xC3: "SPC(", 0xC4: "THEN", 0xC5: "AT",
	0xC6: "NOT", 0xC7: "STEP", 0xC8: "+", 0xC9: "-", 0xCA: "*",
	0xCB: "/", 0xCC: ";", 0xCD: "AND", 0xCE: "OR", 0xCF: ">",
	0xD0: "=", 0xD1: "<", 0xD2: "SGN", 0xD3: "INT", 0xD4: "ABS",
	0xD5: "USR", 0xD6: "FRE", 0xD7: "SCRN (", 0xD8: "PDL", 0xD9: "POS",
	0xDA: "SQR", 0xDB: "RND", 0xDC: "LOG", 0xDD: "EXP", 0xDE: "COS",
	0xDF: "SIN", 0xE0: "TAN", 0xE1: "ATN", 0xE2: "PEEK", 0xE3: "LEN",
	0xE4: "STR$", 0xE5: "VAL", 0xE6: "ASC", 0xE7: "CHR$", 0xE8: "LEFT$",
	0xE9: "RIGHT$", 0xEA: "MID$",
}

// Line is a single decoded BASIC line: its line number and detokenized text.
type Line struct {
	Num  int
	Text string
}

// Program is a fully decoded AppleSoft listing. It embeds a Container so
// that decoding anomalies (unknown tokens, memory gaps, line-number
// regressions) can be recorded without aborting the rest of the decode.
type Program struct {
	container.Container

	Filename       string
	DeclaredLength uint16
	Lines          []Line
}

// Decode parses a raw AppleSoft program image. The first two bytes are a
// little-endian declared length (informational only); what follows is a
// sequence of line records, each a next-line address, a line number, and
// token bytes terminated by 0x00, until a record with a zero next-line
// address or the buffer runs out.
//
// A truncated buffer that leaves Decode unable to tell where the next
// record starts is a hard error — the caller should treat the parse as
// failed outright, not partially succeeded. Recoverable problems (unknown
// tokens, address gaps, non-increasing line numbers) are recorded as
// anomalies on the returned Program instead.
func Decode(filename string, raw []byte) (*Program, error) {
	p := &Program{Filename: filename}
	p.Init(p)

	if len(raw) < 2 {
		return nil, fmt.Errorf("applesoft: %q: buffer too short to contain the length prefix", filename)
	}
	p.DeclaredLength = binary.LittleEndian.Uint16(raw[0:2])
	body := raw[2:]

	lastMemory := LoadAddress
	lastLineNumber := -1
	offset := 0

	for {
		if offset == len(body) {
			break // buffer exhausted at a record boundary
		}
		if offset+4 > len(body) {
			if len(p.Lines) == 0 {
				return nil, fmt.Errorf("applesoft: %q: ran out of input trying to read the first line number", filename)
			}
			return nil, fmt.Errorf("applesoft: %q: ran out of input trying to read line number of line after %d", filename, lastLineNumber)
		}
		nextMemory := int(binary.LittleEndian.Uint16(body[offset : offset+2]))
		lineNumber := int(binary.LittleEndian.Uint16(body[offset+2 : offset+4]))
		if nextMemory == 0 {
			break // program end
		}
		offset += 4
		bytesRead := 4

		var text strings.Builder
		for {
			if offset >= len(body) {
				return nil, fmt.Errorf("applesoft: %q: ran out of input in line %d", filename, lineNumber)
			}
			b := body[offset]
			offset++
			bytesRead++
			if b == 0 {
				break
			}
			if b < 0x80 {
				text.WriteByte(b)
				continue
			}
			token, ok := TokensByCode[b]
			if !ok {
				p.AppendAnomaly(container.CORRUPTION, "Line number %d contains unexpected token: %02X", lineNumber, b)
				continue
			}
			text.WriteString(" " + token + " ")
		}

		if lastMemory+bytesRead != nextMemory {
			p.AppendAnomaly(container.UNUSUAL, "%x + %x == %x != %x (gap %d)",
				lastMemory, bytesRead, lastMemory+bytesRead, nextMemory, nextMemory-lastMemory-bytesRead)
		}
		if lineNumber <= lastLineNumber {
			p.AppendAnomaly(container.UNUSUAL, "%d <= %d: %s", lineNumber, lastLineNumber, text.String())
		}

		p.Lines = append(p.Lines, Line{Num: lineNumber, Text: text.String()})
		lastLineNumber = lineNumber
		lastMemory = nextMemory
	}

	return p, nil
}

// List renders the full listing, one "<num> <text>" line per BASIC line,
// in file order.
func (p *Program) List() string {
	var buf strings.Builder
	for _, line := range p.Lines {
		fmt.Fprintf(&buf, "%d %s\n", line.Num, line.Text)
	}
	return buf.String()
}

// String satisfies fmt.Stringer so a *Program can be used directly as the
// result of a dos33 file-type parser.
func (p *Program) String() string {
	return p.List()
}
