package diskimage

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/diskarchaeology/a2disk/diskerrors"
)

func zeroImage() []byte {
	return make([]byte, Bytes)
}

func TestNewRejectsWrongSize(t *testing.T) {
	_, err := New("short.dsk", make([]byte, 100))
	if err == nil {
		t.Fatal("expected an error for a short buffer")
	}
	if !diskerrors.IsUnsupportedSize(err) {
		t.Errorf("expected UnsupportedSize, got %v (%T)", err, err)
	}
}

func TestNewZeroDiskHas560Sectors(t *testing.T) {
	d, err := New("zero.dsk", zeroImage())
	if err != nil {
		t.Fatal(err)
	}
	if got := len(d.Children()); got != Tracks*SectorsPerTrack {
		t.Fatalf("len(Children()) = %d, want %d", got, Tracks*SectorsPerTrack)
	}

	boot1, err := d.Sector(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if boot1.Role() != RoleBoot1 {
		t.Errorf("Sector(0,0).Role() = %v, want RoleBoot1", boot1.Role())
	}

	other, err := d.Sector(1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if other.Role() != RoleGeneric {
		t.Errorf("Sector(1,0).Role() = %v, want RoleGeneric", other.Role())
	}
}

func TestSectorOutOfBounds(t *testing.T) {
	d, err := New("zero.dsk", zeroImage())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Sector(35, 0); !diskerrors.IsOutOfBounds(err) {
		t.Errorf("track 35: expected OutOfBounds, got %v", err)
	}
	if _, err := d.Sector(0, 16); !diskerrors.IsOutOfBounds(err) {
		t.Errorf("sector 16: expected OutOfBounds, got %v", err)
	}
}

func TestDiskHashMatchesWholeBuffer(t *testing.T) {
	buf := zeroImage()
	buf[100] = 0xAA
	d, err := New("test.dsk", buf)
	if err != nil {
		t.Fatal(err)
	}
	sum := sha1.Sum(buf)
	want := hex.EncodeToString(sum[:])
	if d.Hash != want {
		t.Errorf("Hash = %s, want %s", d.Hash, want)
	}
}

func TestReclassifyReportsCollision(t *testing.T) {
	d, err := New("zero.dsk", zeroImage())
	if err != nil {
		t.Fatal(err)
	}
	collided, err := d.Reclassify(1, 0, RoleVTOC, "")
	if err != nil {
		t.Fatal(err)
	}
	if collided {
		t.Fatal("first reclassification should not collide")
	}
	collided, err = d.Reclassify(1, 0, RoleFree, "")
	if err != nil {
		t.Fatal(err)
	}
	if !collided {
		t.Fatal("second reclassification of the same sector should collide")
	}
}

func TestReclassifySameRoleIsNotACollision(t *testing.T) {
	d, err := New("zero.dsk", zeroImage())
	if err != nil {
		t.Fatal(err)
	}
	if collided, err := d.Reclassify(1, 0, RoleCatalog, "HELLO"); err != nil {
		t.Fatal(err)
	} else if collided {
		t.Fatal("first reclassification should not collide")
	}
	collided, err := d.Reclassify(1, 0, RoleCatalog, "HELLO")
	if err != nil {
		t.Fatal(err)
	}
	if collided {
		t.Fatal("reclassifying into the same role should be a no-op, not a collision")
	}
}

func TestCachedResultRoundTrip(t *testing.T) {
	d, err := New("zero.dsk", zeroImage())
	if err != nil {
		t.Fatal(err)
	}
	if d.CachedResult() != nil {
		t.Fatal("CachedResult() on a fresh Disk should be nil")
	}
	d.SetCachedResult(42)
	if got := d.CachedResult(); got != 42 {
		t.Fatalf("CachedResult() = %v, want 42", got)
	}
}

func TestHumanNameKnownHash(t *testing.T) {
	d, err := New("zero.dsk", zeroImage())
	if err != nil {
		t.Fatal(err)
	}
	// An all-zero sector has a known, stable hash.
	sec, _ := d.Sector(5, 5)
	if got := sec.HumanName(); got != "Zero sector" {
		t.Errorf("HumanName() = %q, want %q", got, "Zero sector")
	}
}

func TestHumanNameUnknownHashFallsBackToEntropy(t *testing.T) {
	buf := zeroImage()
	for i := 0; i < SectorSize; i++ {
		buf[i] = byte(i)
	}
	d, err := New("test.dsk", buf)
	if err != nil {
		t.Fatal(err)
	}
	sec, _ := d.Sector(0, 0)
	got := sec.HumanName()
	if !strings.HasPrefix(got, "Hash ") {
		t.Errorf("HumanName() = %q, want it to start with %q", got, "Hash ")
	}
}

func TestHexDump(t *testing.T) {
	var buf strings.Builder
	if err := HexDump(&buf, []byte("HI")); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "48 49") {
		t.Errorf("HexDump output missing hex bytes: %q", out)
	}
	if !strings.Contains(out, "HI") {
		t.Errorf("HexDump output missing ASCII rendering: %q", out)
	}
}
