package dos33

import "github.com/diskarchaeology/a2disk/diskimage"

// TrackSector is shared with the diskimage package: a (track, sector)
// coordinate pair.
type TrackSector = diskimage.TrackSector
