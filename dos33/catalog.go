package dos33

import (
	"encoding/binary"
	"fmt"
)

const (
	offNextTrack      = 0x01
	offNextSector     = 0x02
	offCatalogEntries = 0x0B
	catalogEntrySize  = 35
	catalogEntryCount = 7

	// entryFirstTSTrack etc. are offsets within a single 35-byte catalog entry.
	entryFirstTSTrack  = 0x00
	entryFirstTSSector = 0x01
	entryFileType      = 0x02
	entryFilename      = 0x03
	entryFilenameLen   = 30
	entryLength        = 0x21

	// DeletedMarker is the value FirstTSTrack holds for a deleted file;
	// the original track is then stashed in the last byte of the filename
	// field (absolute entry offset 0x20).
	DeletedMarker = 0xFF
)

// CatalogSectorData holds the fields of one DOS 3.3 catalog sector.
type CatalogSectorData struct {
	NextTrack  byte
	NextSector byte
	Entries    []CatalogEntry // Only the non-empty slots, in on-disk order.
}

// UnmarshalBinary parses a catalog sector from exactly 256 bytes. Unused
// entry slots (FirstTSTrack == 0 && FirstTSSector == 0) are omitted.
func (cs *CatalogSectorData) UnmarshalBinary(data []byte) error {
	if len(data) != 256 {
		return fmt.Errorf("dos33: CatalogSectorData.UnmarshalBinary expects exactly 256 bytes; got %d", len(data))
	}
	cs.NextTrack = data[offNextTrack]
	cs.NextSector = data[offNextSector]

	cs.Entries = nil
	for i := 0; i < catalogEntryCount; i++ {
		base := offCatalogEntries + i*catalogEntrySize
		entryData := data[base : base+catalogEntrySize]
		if entryData[entryFirstTSTrack] == 0 && entryData[entryFirstTSSector] == 0 {
			continue // unused slot
		}
		var entry CatalogEntry
		entry.UnmarshalBinary(entryData)
		cs.Entries = append(cs.Entries, entry)
	}
	return nil
}

// CatalogEntry is one DOS 3.3 file descriptive entry: the on-disk start of
// a file's track/sector list chain, its type byte, its raw 30-byte
// filename, and its length in sectors.
type CatalogEntry struct {
	FirstTSTrack  byte
	FirstTSSector byte
	FileTypeByte  byte
	RawFilename   [entryFilenameLen]byte
	Length        uint16
}

// UnmarshalBinary parses a single 35-byte catalog entry.
func (e *CatalogEntry) UnmarshalBinary(data []byte) {
	e.FirstTSTrack = data[entryFirstTSTrack]
	e.FirstTSSector = data[entryFirstTSSector]
	e.FileTypeByte = data[entryFileType]
	copy(e.RawFilename[:], data[entryFilename:entryFilename+entryFilenameLen])
	e.Length = binary.LittleEndian.Uint16(data[entryLength : entryLength+2])
}

// FileType returns the low 7 bits of the type byte: the actual file type,
// with the lock flag masked off.
func (e CatalogEntry) FileType() byte {
	return e.FileTypeByte & 0x7F
}

// Locked reports whether the high bit of the type byte is set.
func (e CatalogEntry) Locked() bool {
	return e.FileTypeByte&0x80 != 0
}

// Deleted reports whether this entry describes a deleted file.
func (e CatalogEntry) Deleted() bool {
	return e.FirstTSTrack == DeletedMarker
}

// DeletedOriginalTrack returns the track the file's T/S list used to start
// at, for a deleted entry (stashed in the last byte of the filename field).
// Only meaningful when Deleted() is true.
func (e CatalogEntry) DeletedOriginalTrack() byte {
	return e.RawFilename[entryFilenameLen-1]
}

// FileName returns the raw filename bytes with the high bit stripped from
// each byte, as ASCII. Trailing space padding is preserved.
func (e CatalogEntry) FileName() string {
	b := make([]byte, entryFilenameLen)
	for i, c := range e.RawFilename {
		b[i] = c & 0x7F
	}
	return string(b)
}
