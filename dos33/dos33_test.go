package dos33

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/kr/pretty"

	"github.com/diskarchaeology/a2disk/container"
	"github.com/diskarchaeology/a2disk/diskerrors"
	"github.com/diskarchaeology/a2disk/diskimage"
)

func blankImage() []byte {
	return make([]byte, diskimage.Bytes)
}

func putSector(buf []byte, track, sector byte, data []byte) {
	offset := int(track)*diskimage.SectorsPerTrack*diskimage.SectorSize + int(sector)*diskimage.SectorSize
	copy(buf[offset:offset+diskimage.SectorSize], data)
}

// vtocBytes builds a 256-byte VTOC sector. freemap may be nil for "nothing
// marked free".
func vtocBytes(catalogTrack, catalogSector, tracksPerDisk byte, freemap [][4]byte) []byte {
	buf := make([]byte, 256)
	buf[offCatalogTrack] = catalogTrack
	buf[offCatalogSector] = catalogSector
	buf[offDOSRelease] = expectedDOSRelease
	buf[offVolume] = 254
	buf[offMaxTSPairs] = expectedMaxTSPairs
	buf[offLastTrack] = 0
	buf[offTrackDir] = 1
	buf[offTracksPerDisk] = tracksPerDisk
	buf[offSectorsPerTrk] = expectedSectorsPerTrk
	binary.LittleEndian.PutUint16(buf[offBytesPerSect:offBytesPerSect+2], expectedBytesPerSect)
	for i, entry := range freemap {
		copy(buf[offFreemap+4*i:offFreemap+4*i+4], entry[:])
	}
	return buf
}

// freemapMarkingFree returns the 35-entry freemap with exactly the given
// (track, sector) pairs marked free.
func freemapMarkingFree(pairs ...TrackSector) [][4]byte {
	fm := make([][4]byte, 35)
	for _, p := range pairs {
		bit := uint(15 - p.Sector)
		high := uint16(1) << bit
		fm[p.Track][0] |= byte(high >> 8)
		fm[p.Track][1] |= byte(high)
	}
	return fm
}

func catalogSectorBytes(nextTrack, nextSector byte, entries ...[]byte) []byte {
	buf := make([]byte, 256)
	buf[offNextTrack] = nextTrack
	buf[offNextSector] = nextSector
	for i, e := range entries {
		copy(buf[offCatalogEntries+i*catalogEntrySize:], e)
	}
	return buf
}

func paddedName(name string) [30]byte {
	var b [30]byte
	for i := range b {
		b[i] = ' '
	}
	copy(b[:], name)
	return b
}

func catalogEntryBytes(firstTrack, firstSector, fileType byte, name string, length uint16) []byte {
	buf := make([]byte, catalogEntrySize)
	buf[entryFirstTSTrack] = firstTrack
	buf[entryFirstTSSector] = firstSector
	buf[entryFileType] = fileType
	n := paddedName(name)
	copy(buf[entryFilename:entryFilename+entryFilenameLen], n[:])
	binary.LittleEndian.PutUint16(buf[entryLength:entryLength+2], length)
	return buf
}

func tsListSectorBytes(nextTrack, nextSector byte, sectorOffset uint16, pairs ...TrackSector) []byte {
	buf := make([]byte, 256)
	buf[0x01] = nextTrack
	buf[0x02] = nextSector
	binary.LittleEndian.PutUint16(buf[0x05:0x07], sectorOffset)
	for i, p := range pairs {
		buf[0x0C+2*i] = p.Track
		buf[0x0C+2*i+1] = p.Sector
	}
	return buf
}

// helloProgram encodes "10 PRINT "HI"" as a tokenized AppleSoft buffer.
func helloProgram() []byte {
	tokens := []byte{0xBA, '"', 'H', 'I', '"', 0x00}
	body := make([]byte, 0, 14)
	body = append(body, le16(uint16(LoadAddress+4+len(tokens)))...)
	body = append(body, le16(10)...)
	body = append(body, tokens...)
	body = append(body, 0, 0, 0, 0) // terminating record: next_memory == 0

	raw := make([]byte, 0, 2+len(body))
	raw = append(raw, le16(uint16(len(body)))...)
	raw = append(raw, body...)
	return raw
}

func le16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

// LoadAddress mirrors applesoft.LoadAddress without importing that package,
// to keep this test file decoupled from the detokenizer's internals.
const LoadAddress = 0x801

func newS2Image() []byte {
	buf := blankImage()
	putSector(buf, VTOCTrack, VTOCSector, vtocBytes(StandardCatalogTrack, StandardCatalogSector, 35, nil))
	putSector(buf, 0x11, 0x0F, catalogSectorBytes(0, 0,
		catalogEntryBytes(0x11, 0x0C, 0x02, "HELLO", 2)))
	putSector(buf, 0x11, 0x0C, tsListSectorBytes(0, 0, 0, TrackSector{Track: 0x11, Sector: 0x0B}))
	putSector(buf, 0x11, 0x0B, helloProgram())
	return buf
}

func TestVTOCUnmarshalRoundTrip(t *testing.T) {
	raw := vtocBytes(0x11, 0x0F, 35, freemapMarkingFree(TrackSector{Track: 3, Sector: 4}))
	var v VTOC
	if err := v.UnmarshalBinary(raw); err != nil {
		t.Fatal(err)
	}
	want := VTOC{
		CatalogTrack:           0x11,
		CatalogSector:          0x0F,
		DOSRelease:             3,
		Volume:                 254,
		TrackSectorListMaxSize: 122,
		LastTrack:              0,
		TrackDirection:         1,
		TracksPerDisk:          35,
		SectorsPerTrack:        16,
		BytesPerSector:         256,
	}
	for i, entry := range freemapMarkingFree(TrackSector{Track: 3, Sector: 4}) {
		want.FreeMap[i] = FreeMapEntry(entry)
	}
	if diff := pretty.Diff(v, want); len(diff) > 0 {
		t.Fatalf("VTOC differs: %s", strings.Join(diff, "; "))
	}
	free := v.FreeSectors(35)
	if len(free) != 1 || free[0] != (TrackSector{Track: 3, Sector: 4}) {
		t.Fatalf("FreeSectors() = %v, want [{3 4}]", free)
	}
}

func TestCatalogEntryUnmarshal(t *testing.T) {
	raw := catalogEntryBytes(0x11, 0x0C, 0x82, "HELLO", 2)
	var e CatalogEntry
	e.UnmarshalBinary(raw)
	if e.FileType() != 0x02 {
		t.Errorf("FileType() = %#x, want 0x02", e.FileType())
	}
	if !e.Locked() {
		t.Error("Locked() = false, want true")
	}
	if got := strings.TrimRight(e.FileName(), " "); got != "HELLO" {
		t.Errorf("FileName() = %q, want %q", got, "HELLO")
	}
}

func TestTasteEmptyZeroDiskRejectsNotDos33(t *testing.T) {
	d, err := diskimage.New("zero.dsk", blankImage())
	if err != nil {
		t.Fatal(err)
	}
	_, err = Taste(d)
	if !diskerrors.IsNotDos33(err) {
		t.Fatalf("Taste() error = %v, want NotDos33", err)
	}
	if got := len(d.Children()); got != diskimage.Tracks*diskimage.SectorsPerTrack {
		t.Fatalf("len(Children()) = %d, want %d", got, diskimage.Tracks*diskimage.SectorsPerTrack)
	}
	boot1, _ := d.Sector(0, 0)
	if boot1.Role() != diskimage.RoleBoot1 {
		t.Errorf("Sector(0,0).Role() = %v, want RoleBoot1", boot1.Role())
	}
}

func TestTasteMinimalDos33(t *testing.T) {
	d, err := diskimage.New("s2.dsk", newS2Image())
	if err != nil {
		t.Fatal(err)
	}
	disk, err := Taste(d)
	if err != nil {
		t.Fatal(err)
	}

	var corruptions int
	for _, a := range disk.Anomalies() {
		if a.Level == container.CORRUPTION {
			corruptions++
		}
	}
	if corruptions != 0 {
		t.Errorf("disk-level CORRUPTION anomalies = %d, want 0", corruptions)
	}

	if len(disk.Files) != 1 {
		t.Fatalf("len(Files) = %d, want 1", len(disk.Files))
	}
	f := disk.Files[0]
	for _, a := range f.Anomalies() {
		if a.Level == container.CORRUPTION {
			t.Errorf("unexpected file-level anomaly: %s", a)
		}
	}

	catalog := disk.Catalog()
	if !strings.Contains(catalog, " A 002 HELLO") {
		t.Errorf("Catalog() = %q, want a line for HELLO", catalog)
	}

	if f.ParsedContents == nil {
		t.Fatal("ParsedContents is nil, want a decoded AppleSoft listing")
	}
	listing := f.ParsedContents.String()
	if !strings.Contains(listing, `10  PRINT "HI"`) {
		t.Errorf("listing = %q, want it to contain %q", listing, `10  PRINT "HI"`)
	}
}

func TestTasteIsIdempotent(t *testing.T) {
	d, err := diskimage.New("s2.dsk", newS2Image())
	if err != nil {
		t.Fatal(err)
	}
	first, err := Taste(d)
	if err != nil {
		t.Fatal(err)
	}
	firstAnomalyCount := len(first.Anomalies())

	second, err := Taste(d)
	if err != nil {
		t.Fatal(err)
	}
	if second != first {
		t.Fatalf("Taste() on an already-tasted disk returned a different *Dos33Disk")
	}
	if got := len(second.Anomalies()); got != firstAnomalyCount {
		t.Fatalf("re-invoking Taste() changed the anomaly count: %d, want %d", got, firstAnomalyCount)
	}
}

func TestTasteFileWithBadCatalogLengthStillReconstructs(t *testing.T) {
	buf := blankImage()
	putSector(buf, VTOCTrack, VTOCSector, vtocBytes(StandardCatalogTrack, StandardCatalogSector, 35, nil))
	// entry.Length is wrong (1, should be 2): the data sector must still be
	// discovered and kept from the T/S-list traversal, not dropped because
	// it falls outside entry.Length - tsSectorCount == 0 data slots.
	putSector(buf, 0x11, 0x0F, catalogSectorBytes(0, 0,
		catalogEntryBytes(0x11, 0x0C, 0x02, "HELLO", 1)))
	putSector(buf, 0x11, 0x0C, tsListSectorBytes(0, 0, 0, TrackSector{Track: 0x11, Sector: 0x0B}))
	putSector(buf, 0x11, 0x0B, helloProgram())

	d, err := diskimage.New("badlen.dsk", buf)
	if err != nil {
		t.Fatal(err)
	}
	disk, err := Taste(d)
	if err != nil {
		t.Fatal(err)
	}
	if len(disk.Files) != 1 {
		t.Fatalf("len(Files) = %d, want 1", len(disk.Files))
	}
	f := disk.Files[0]
	if len(f.Contents()) != diskimage.SectorSize {
		t.Fatalf("len(Contents()) = %d, want %d (the data sector the T/S list names)", len(f.Contents()), diskimage.SectorSize)
	}

	var unusual int
	for _, a := range f.Anomalies() {
		if a.Level == container.UNUSUAL {
			unusual++
		}
	}
	if unusual == 0 {
		t.Error("want an UNUSUAL anomaly noting the entry.Length/T/S-list disagreement")
	}
}

func TestTasteTSListTerminatesOnZeroTrackAlone(t *testing.T) {
	buf := blankImage()
	putSector(buf, VTOCTrack, VTOCSector, vtocBytes(StandardCatalogTrack, StandardCatalogSector, 35, nil))
	putSector(buf, 0x11, 0x0F, catalogSectorBytes(0, 0,
		catalogEntryBytes(0x11, 0x0C, 0x02, "BAD", 1)))
	// next_track == 0 but next_sector == 5: must stop, not follow (0, 5)
	// into track 0, which invariant 3 forbids ever holding file structures.
	putSector(buf, 0x11, 0x0C, tsListSectorBytes(0, 5, 0))

	d, err := diskimage.New("badlink.dsk", buf)
	if err != nil {
		t.Fatal(err)
	}
	disk, err := Taste(d)
	if err != nil {
		t.Fatal(err)
	}
	if len(disk.Files) != 1 {
		t.Fatalf("len(Files) = %d, want 1", len(disk.Files))
	}
	f := disk.Files[0]

	sec, err := d.Sector(0, 5)
	if err != nil {
		t.Fatal(err)
	}
	if sec.Role() != diskimage.RoleGeneric {
		t.Errorf("Sector(0,5).Role() = %v, want RoleGeneric (track 0 must never be reclassified as file metadata)", sec.Role())
	}

	var corruptions int
	for _, a := range f.Anomalies() {
		if a.Level == container.CORRUPTION {
			corruptions++
		}
	}
	if corruptions == 0 {
		t.Error("want a CORRUPTION anomaly for the non-zero next_sector paired with next_track 0")
	}
}

func TestTasteFreemapCorruptionTrack0(t *testing.T) {
	buf := blankImage()
	putSector(buf, VTOCTrack, VTOCSector, vtocBytes(StandardCatalogTrack, StandardCatalogSector, 35,
		freemapMarkingFree(TrackSector{Track: 0, Sector: 2})))
	putSector(buf, 0x11, 0x0F, catalogSectorBytes(0, 0))

	d, err := diskimage.New("s3.dsk", buf)
	if err != nil {
		t.Fatal(err)
	}
	disk, err := Taste(d)
	if err != nil {
		t.Fatal(err)
	}

	var corruptions []string
	for _, a := range disk.Anomalies() {
		if a.Level == container.CORRUPTION {
			corruptions = append(corruptions, a.Message)
		}
	}
	if len(corruptions) != 1 || corruptions[0] != "Freemap claims free sector in track 0" {
		t.Fatalf("CORRUPTION anomalies = %v, want exactly one: %q", corruptions, "Freemap claims free sector in track 0")
	}

	sec, err := d.Sector(0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if sec.Role() != diskimage.RoleGeneric {
		t.Errorf("Sector(0,2).Role() = %v, want RoleGeneric (not reclassified)", sec.Role())
	}
}

func TestTasteCatalogAtUnusualLocation(t *testing.T) {
	buf := blankImage()
	putSector(buf, VTOCTrack, VTOCSector, vtocBytes(0x11, 0x0E, 35, nil))
	putSector(buf, 0x11, 0x0E, catalogSectorBytes(0, 0))

	d, err := diskimage.New("s4.dsk", buf)
	if err != nil {
		t.Fatal(err)
	}
	disk, err := Taste(d)
	if err != nil {
		t.Fatal(err)
	}

	var unusual int
	for _, a := range disk.Anomalies() {
		if a.Level == container.UNUSUAL {
			unusual++
		}
	}
	if unusual != 1 {
		t.Fatalf("UNUSUAL anomalies = %d, want 1", unusual)
	}
	if len(disk.Files) != 0 {
		t.Fatalf("len(Files) = %d, want 0", len(disk.Files))
	}
}

func TestTasteDeletedFile(t *testing.T) {
	buf := blankImage()
	putSector(buf, VTOCTrack, VTOCSector, vtocBytes(StandardCatalogTrack, StandardCatalogSector, 35, nil))

	entry := catalogEntryBytes(0x11, 0x0C, 0x02, "HELLO", 2)
	entry[entryFirstTSTrack] = DeletedMarker
	entry[entryFilenameLen-1+entryFilename] = 0x11 // original track, stashed per spec

	putSector(buf, 0x11, 0x0F, catalogSectorBytes(0, 0, entry))

	d, err := diskimage.New("s5.dsk", buf)
	if err != nil {
		t.Fatal(err)
	}
	disk, err := Taste(d)
	if err != nil {
		t.Fatal(err)
	}
	if len(disk.Files) != 1 {
		t.Fatalf("len(Files) = %d, want 1", len(disk.Files))
	}
	f := disk.Files[0]
	if len(f.Contents()) != 0 {
		t.Errorf("deleted file Contents() = %d bytes, want 0", len(f.Contents()))
	}
	if len(f.Anomalies()) == 0 {
		t.Error("deleted file has no anomaly recorded")
	}
}
