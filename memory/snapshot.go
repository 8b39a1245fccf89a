package memory

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/fxamacker/cbor/v2"

	"github.com/ezrec/frameunwind/regs"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("memory: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Region is a contiguous range of captured target memory.
type Region struct {
	Addr   uint64 `cbor:"1,keyasint"`
	Data   []byte `cbor:"2,keyasint,omitempty"`
	Denied bool   `cbor:"3,keyasint,omitempty"` // Mapped, but not readable.
	Size   uint64 `cbor:"4,keyasint,omitempty"` // Size of a Denied region.
}

// Len is the size of the region in bytes.
func (r Region) Len() uint64 {
	if r.Denied {
		return r.Size
	}
	return uint64(len(r.Data))
}

// End is the first address past the region. It is 0 for a region that
// ends at the top of the address space.
func (r Region) End() uint64 {
	return r.Addr + r.Len()
}

// Contains is true if addr lies inside the region.
func (r Region) Contains(addr uint64) bool {
	return addr >= r.Addr && addr-r.Addr < r.Len()
}

// touches is true if the regions overlap or are adjacent.
func (r Region) touches(o Region) bool {
	if r.Addr <= o.Addr {
		return o.Addr-r.Addr <= r.Len()
	}
	return r.Addr-o.Addr <= o.Len()
}

// Snapshot is a captured piece of a target address space, together with the
// register values of the thread it was taken from. It is the offline form
// used by crash reports.
type Snapshot struct {
	Arch      string            `cbor:"1,keyasint"`
	WordSize  int               `cbor:"2,keyasint"`
	BigEndian bool              `cbor:"3,keyasint,omitempty"`
	Registers map[string]uint64 `cbor:"4,keyasint,omitempty"`
	Regions   []Region          `cbor:"5,keyasint"`
}

var _ Reader = (*Snapshot)(nil)

// NewSnapshot creates an empty snapshot for an architecture.
func NewSnapshot(arch *regs.Arch) (snap *Snapshot) {
	snap = &Snapshot{
		Arch:      arch.Name,
		WordSize:  arch.PtrSize,
		BigEndian: arch.ByteOrder == binary.BigEndian,
		Registers: map[string]uint64{},
	}

	return
}

func (snap *Snapshot) order() binary.ByteOrder {
	if snap.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// ReadWord reads a word from the captured regions.
func (snap *Snapshot) ReadWord(addr uint64) (word uint64, err error) {
	if snap.WordSize != 4 && snap.WordSize != 8 {
		err = ErrSnapshotWordSize
		return
	}

	for _, region := range snap.Regions {
		if !region.Contains(addr) {
			continue
		}
		if region.Denied {
			err = fault(addr, ErrAccessDenied)
			return
		}
		offset := addr - region.Addr
		if uint64(len(region.Data))-offset < uint64(snap.WordSize) {
			// Word straddles the end of the region.
			break
		}
		data := region.Data[offset : offset+uint64(snap.WordSize)]
		if snap.WordSize == 4 {
			word = uint64(snap.order().Uint32(data))
		} else {
			word = snap.order().Uint64(data)
		}
		return
	}

	err = fault(addr, ErrUnmapped)
	return
}

// Write stores data at addr, merging it with overlapping or adjacent
// readable regions. New data replaces old data where they overlap.
func (snap *Snapshot) Write(addr uint64, data []byte) {
	merged := Region{Addr: addr, Data: slices.Clone(data)}

	var keep []Region
	for _, region := range snap.Regions {
		if region.Denied || !region.touches(merged) {
			keep = append(keep, region)
			continue
		}
		start := min(region.Addr, merged.Addr)
		size := max(region.Addr-start+region.Len(), merged.Addr-start+merged.Len())
		buf := make([]byte, size)
		copy(buf[region.Addr-start:], region.Data)
		copy(buf[merged.Addr-start:], merged.Data)
		merged = Region{Addr: start, Data: buf}
	}
	keep = append(keep, merged)

	slices.SortFunc(keep, func(a, b Region) int {
		return cmp.Compare(a.Addr, b.Addr)
	})
	snap.Regions = keep
}

// WriteWord stores a machine word at addr.
func (snap *Snapshot) WriteWord(addr uint64, word uint64) {
	data := make([]byte, snap.WordSize)
	if snap.WordSize == 4 {
		snap.order().PutUint32(data, uint32(word))
	} else {
		snap.order().PutUint64(data, word)
	}
	snap.Write(addr, data)
}

// Deny marks a range as mapped but unreadable.
func (snap *Snapshot) Deny(addr uint64, size uint64) {
	snap.Regions = append(snap.Regions, Region{Addr: addr, Denied: true, Size: size})
	slices.SortFunc(snap.Regions, func(a, b Region) int {
		return cmp.Compare(a.Addr, b.Addr)
	})
}

// Marshal writes the snapshot in canonical CBOR.
func (snap *Snapshot) Marshal(w io.Writer) (err error) {
	data, err := cborEncMode.Marshal(snap)
	if err != nil {
		return fmt.Errorf("memory: marshal snapshot: %w", err)
	}

	_, err = w.Write(data)
	return
}

// UnmarshalSnapshot reads a CBOR snapshot.
func UnmarshalSnapshot(r io.Reader) (snap *Snapshot, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return
	}

	snap = &Snapshot{}
	if err = cbor.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("memory: unmarshal snapshot: %w", err)
	}

	if snap.WordSize != 4 && snap.WordSize != 8 {
		return nil, fmt.Errorf("%w: %d", ErrSnapshotWordSize, snap.WordSize)
	}

	return
}

// LoadSnapshot reads a snapshot file.
func LoadSnapshot(path string) (snap *Snapshot, err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	snap, err = UnmarshalSnapshot(inf)
	if err != nil {
		err = fmt.Errorf("%v: %w", path, err)
	}
	return
}

// Save writes the snapshot to a file.
func (snap *Snapshot) Save(path string) (err error) {
	ouf, err := os.Create(path)
	if err != nil {
		return
	}

	err = snap.Marshal(ouf)
	if cerr := ouf.Close(); err == nil {
		err = cerr
	}
	return
}
