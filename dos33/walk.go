package dos33

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/diskarchaeology/a2disk/container"
	"github.com/diskarchaeology/a2disk/diskerrors"
	"github.com/diskarchaeology/a2disk/diskimage"
)

// Slot is one logical data-sector position in a File's reconstructed
// contents. A slot with Occupied == false is a sparse-file hole: it
// contributes nothing to Contents(), but its position is preserved so a
// caller can tell a hole from a short file.
type Slot struct {
	Occupied    bool
	TrackSector TrackSector
	Data        []byte
}

// File is one DOS 3.3 catalog entry, reconstructed from its track/sector
// list chain.
type File struct {
	container.Container

	Entry          CatalogEntry
	Slots          []Slot
	ParsedContents fmt.Stringer
}

// Contents concatenates the occupied slots, in logical order. Holes
// contribute nothing, so len(Contents()) == occupied_slots * diskimage.SectorSize.
func (f *File) Contents() []byte {
	var buf []byte
	for _, slot := range f.Slots {
		if slot.Occupied {
			buf = append(buf, slot.Data...)
		}
	}
	return buf
}

// Dos33Disk is the result of successfully tasting a Disk as DOS 3.3: the
// parsed VTOC and the reconstructed file list, in catalog order.
type Dos33Disk struct {
	container.Container

	Disk  *diskimage.Disk
	VTOC  VTOC
	Files []*File
}

// Catalog renders a listing in the same structure as the DOS 3.3 CATALOG
// command.
func (d *Dos33Disk) Catalog() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "DISK VOLUME %d\n\n", d.VTOC.Volume)
	for _, f := range d.Files {
		lock := " "
		if f.Entry.Locked() {
			lock = "*"
		}
		fmt.Fprintf(&buf, "%s%s %03d %s\n", lock, fileTypeShort(f.Entry.FileType()), f.Entry.Length, f.Entry.FileName())
	}
	return buf.String()
}

// reclassify is a thin wrapper over disk.Reclassify that also returns the
// role the sector held before this call, so callers can word a collision
// anomaly appropriately for their context.
func reclassify(disk *diskimage.Disk, ts TrackSector, role diskimage.Role, filename string) (prior diskimage.Role, collided bool, err error) {
	sec, err := disk.Sector(ts.Track, ts.Sector)
	if err != nil {
		return 0, false, err
	}
	prior = sec.Role()
	collided, err = disk.Reclassify(ts.Track, ts.Sector, role, filename)
	return prior, collided, err
}

// Taste attempts to identify disk as a DOS 3.3 volume: it parses the VTOC,
// decodes the free-map, walks the catalog chain, and reconstructs every
// file's contents. A malformed VTOC core field (dos_release, bytes per
// sector, sectors per track, or max T/S pairs) rejects the disk outright
// with NotDos33 — everything else is recorded as an anomaly and the walk
// continues.
//
// Taste is idempotent: re-invoking it on a disk that was already tasted
// returns the cached result instead of re-walking, so it never raises new
// reclassification-collision anomalies for sectors the first call already
// classified.
func Taste(disk *diskimage.Disk) (*Dos33Disk, error) {
	if cached, ok := disk.CachedResult().(*Dos33Disk); ok {
		return cached, nil
	}

	vtocSector, err := disk.Sector(VTOCTrack, VTOCSector)
	if err != nil {
		return nil, err // (0x11, 0x00) is always in bounds on a 140K image.
	}

	var vtoc VTOC
	if err := vtoc.UnmarshalBinary(vtocSector.Data()); err != nil {
		return nil, err
	}

	if vtoc.DOSRelease != expectedDOSRelease {
		return nil, diskerrors.NotDos33f("dos_release is %d, not %d", vtoc.DOSRelease, expectedDOSRelease)
	}
	if vtoc.BytesPerSector != expectedBytesPerSect {
		return nil, diskerrors.NotDos33f("bytes_per_sector is %d, not %d", vtoc.BytesPerSector, expectedBytesPerSect)
	}
	if vtoc.SectorsPerTrack != expectedSectorsPerTrk {
		return nil, diskerrors.NotDos33f("sectors_per_track is %d, not %d", vtoc.SectorsPerTrack, expectedSectorsPerTrk)
	}
	if vtoc.TrackSectorListMaxSize != expectedMaxTSPairs {
		return nil, diskerrors.NotDos33f("max_ts_pairs_per_ts_sector is %d, not %d", vtoc.TrackSectorListMaxSize, expectedMaxTSPairs)
	}

	d := &Dos33Disk{Disk: disk, VTOC: vtoc}
	d.Init(d)

	if _, collided, err := reclassify(disk, TrackSector{Track: VTOCTrack, Sector: VTOCSector}, diskimage.RoleVTOC, ""); err != nil {
		return nil, err
	} else if collided {
		d.AppendAnomaly(container.CORRUPTION, "VTOC sector %s was already reclassified before being identified as the VTOC", TrackSector{Track: VTOCTrack, Sector: VTOCSector})
	}

	if vtoc.TracksPerDisk != expectedTracksPerDisk {
		d.AppendAnomaly(container.UNUSUAL, "tracks_per_disk is %d, not %d", vtoc.TracksPerDisk, expectedTracksPerDisk)
	}
	catalogStart := TrackSector{Track: vtoc.CatalogTrack, Sector: vtoc.CatalogSector}
	standardStart := TrackSector{Track: StandardCatalogTrack, Sector: StandardCatalogSector}
	if catalogStart != standardStart {
		d.AppendAnomaly(container.UNUSUAL, "catalog chain starts at %s, not the conventional %s", catalogStart, standardStart)
	}

	walkFreeMap(disk, d, &vtoc)

	entries := walkCatalogChain(disk, d, catalogStart)

	for _, entry := range entries {
		file := buildFile(disk, entry)
		disk.AddChild(file)
		d.Files = append(d.Files, file)
	}

	disk.SetCachedResult(d)
	return d, nil
}

// walkFreeMap decodes the VTOC free-map and reclassifies every free sector,
// flagging the two forms of corruption the map itself can exhibit: track 0
// claimed free (never valid for DOS 3.3) and a track past the disk's
// reported size.
func walkFreeMap(disk *diskimage.Disk, d *Dos33Disk, vtoc *VTOC) {
	for _, ts := range vtoc.FreeSectors(diskimage.Tracks) {
		if ts.Track == 0 {
			d.AppendAnomaly(container.CORRUPTION, "Freemap claims free sector in track 0")
			continue
		}
		if int(ts.Track) >= int(vtoc.TracksPerDisk) {
			d.AppendAnomaly(container.CORRUPTION, "Freemap claims free sector %s past tracks_per_disk (%d)", ts, vtoc.TracksPerDisk)
			continue
		}
		_, collided, err := reclassify(disk, ts, diskimage.RoleFree, "")
		if err != nil {
			d.AppendAnomaly(container.CORRUPTION, "Freemap claims free sector %s: %v", ts, err)
			continue
		}
		if collided {
			d.AppendAnomaly(container.CORRUPTION, "VTOC claims used sector is free")
		}
	}
}

// walkCatalogChain follows the catalog sector chain from start, reclassifying
// each sector visited and collecting every occupied entry, in on-disk order.
// A bounds failure or a repeated sector stops the chain with a CORRUPTION
// anomaly rather than aborting the whole taste.
func walkCatalogChain(disk *diskimage.Disk, d *Dos33Disk, start TrackSector) []CatalogEntry {
	var entries []CatalogEntry
	visited := map[TrackSector]bool{}
	cur := start

	for {
		if cur.Track == 0 && cur.Sector == 0 {
			break
		}
		if visited[cur] {
			d.AppendAnomaly(container.CORRUPTION, "catalog chain revisits %s; stopping", cur)
			break
		}
		visited[cur] = true

		sector, err := disk.Sector(cur.Track, cur.Sector)
		if err != nil {
			d.AppendAnomaly(container.CORRUPTION, "catalog chain: %v; stopping", err)
			break
		}

		_, collided, rErr := reclassify(disk, cur, diskimage.RoleCatalog, "")
		if rErr != nil {
			d.AppendAnomaly(container.CORRUPTION, "catalog chain: %v; stopping", rErr)
			break
		}
		if collided {
			d.AppendAnomaly(container.CORRUPTION, "catalog sector %s was already claimed before being reclassified", cur)
		}

		var cs CatalogSectorData
		if err := cs.UnmarshalBinary(sector.Data()); err != nil {
			d.AppendAnomaly(container.CORRUPTION, "catalog chain: %v; stopping", err)
			break
		}
		entries = append(entries, cs.Entries...)

		next := TrackSector{Track: cs.NextTrack, Sector: cs.NextSector}
		cur = next
	}

	return entries
}

// buildFile reconstructs one catalog entry's contents by walking its
// track/sector list chain. A deleted entry stops immediately with an
// anomaly and no reconstructed contents; any other corruption encountered
// mid-chain stops that file's walk while leaving the file itself enumerated.
func buildFile(disk *diskimage.Disk, entry CatalogEntry) *File {
	file := &File{Entry: entry}
	file.Init(file)

	if entry.Deleted() {
		file.AppendAnomaly(container.UNUSUAL, "file %q: deleted (was on track $%02X)", strings.TrimRight(entry.FileName(), " "), entry.DeletedOriginalTrack())
		return file
	}

	slotMap := map[int]TrackSector{}
	tsSectorCount := 0
	visited := map[TrackSector]bool{}
	cur := TrackSector{Track: entry.FirstTSTrack, Sector: entry.FirstTSSector}

	for {
		if cur.Track == 0xFF {
			file.AppendAnomaly(container.CORRUPTION, "T/S list for %q hit a deleted-file marker mid-chain; stopping", entry.FileName())
			break
		}
		// Unlike the catalog chain's paired (0, 0) terminator, a T/S-list
		// link ends as soon as next_track is 0, regardless of next_sector:
		// track 0 never holds file structures (the boot tracks), so any
		// non-zero sector paired with it is corruption, not a link to follow.
		if cur.Track == 0 {
			if cur.Sector != 0 {
				file.AppendAnomaly(container.CORRUPTION, "T/S list for %q ends with next_track 0 but non-zero next_sector %d", entry.FileName(), cur.Sector)
			}
			break
		}
		if visited[cur] {
			file.AppendAnomaly(container.CORRUPTION, "T/S list for %q revisits %s; stopping", entry.FileName(), cur)
			break
		}
		visited[cur] = true

		sector, err := disk.Sector(cur.Track, cur.Sector)
		if err != nil {
			file.AppendAnomaly(container.CORRUPTION, "T/S list for %q: %v; stopping", entry.FileName(), err)
			break
		}

		_, collided, rErr := reclassify(disk, cur, diskimage.RoleFileMetadata, entry.FileName())
		if rErr != nil {
			file.AppendAnomaly(container.CORRUPTION, "T/S list for %q: %v; stopping", entry.FileName(), rErr)
			break
		}
		if collided {
			file.AppendAnomaly(container.CORRUPTION, "T/S sector %s for %q was already claimed before being reclassified", cur, entry.FileName())
		}

		tsSectorCount++
		data := sector.Data()
		nextTrack := data[0x01]
		nextSector := data[0x02]
		sectorOffset := int(binary.LittleEndian.Uint16(data[0x05:0x07]))

		if expected := (tsSectorCount - 1) * 122; sectorOffset != expected {
			file.AppendAnomaly(container.UNUSUAL, "T/S sector %d for %q has sector_offset %d, expected %d", tsSectorCount, entry.FileName(), sectorOffset, expected)
		}

		const pairsBase = 0x0C
		for i := 0; i < 122; i++ {
			track := data[pairsBase+2*i]
			sec := data[pairsBase+2*i+1]
			if track == 0 {
				break
			}
			slotMap[sectorOffset+i] = TrackSector{Track: track, Sector: sec}
		}

		cur = TrackSector{Track: nextTrack, Sector: nextSector}
	}

	// The data-sector count is derived from the T/S-list traversal itself
	// (the highest logical slot index actually observed), not from
	// entry.Length - tsSectorCount: that trim is off-by-one-prone and, on a
	// corrupted Length, would push genuinely-observed pairs past the
	// boundary and misreport them as out-of-range.
	dataSectorCount := 0
	for idx := range slotMap {
		if idx+1 > dataSectorCount {
			dataSectorCount = idx + 1
		}
	}
	if expected := int(entry.Length) - tsSectorCount; expected != dataSectorCount {
		file.AppendAnomaly(container.UNUSUAL, "entry length %d implies %d data sectors for %q, but the T/S list only references %d", entry.Length, expected, entry.FileName(), dataSectorCount)
	}

	slots := make([]Slot, dataSectorCount)
	for idx, ts := range slotMap {
		sector, err := disk.Sector(ts.Track, ts.Sector)
		if err != nil {
			file.AppendAnomaly(container.CORRUPTION, "data sector %s for %q: %v", ts, entry.FileName(), err)
			continue
		}
		_, collided, rErr := reclassify(disk, ts, diskimage.RoleFileData, entry.FileName())
		if rErr != nil {
			file.AppendAnomaly(container.CORRUPTION, "data sector %s for %q: %v", ts, entry.FileName(), rErr)
			continue
		}
		if collided {
			file.AppendAnomaly(container.CORRUPTION, "data sector %s for %q was already claimed before being reclassified", ts, entry.FileName())
		}
		data := make([]byte, len(sector.Data()))
		copy(data, sector.Data())
		slots[idx] = Slot{Occupied: true, TrackSector: ts, Data: data}
	}
	file.Slots = slots

	if info, ok := FileTypes[entry.FileType()]; ok && info.Parser != nil {
		parsed, err := info.Parser(entry.FileName(), file.Contents())
		if err != nil {
			file.AppendAnomaly(container.CORRUPTION, "%v", diskerrors.ParserFailuref(entry.FileName(), err))
		} else {
			file.ParsedContents = parsed
		}
	}

	return file
}
