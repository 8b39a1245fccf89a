package memory

// Recorder passes reads through to a Reader and captures every word it
// returns, so that a live unwind can be replayed later from the Snapshot.
type Recorder struct {
	Reader   Reader
	Snapshot *Snapshot
}

var _ Reader = (*Recorder)(nil)

// NewRecorder records the reads of r into snap.
func NewRecorder(r Reader, snap *Snapshot) (rec *Recorder) {
	rec = &Recorder{
		Reader:   r,
		Snapshot: snap,
	}

	return
}

func (rec *Recorder) ReadWord(addr uint64) (word uint64, err error) {
	word, err = rec.Reader.ReadWord(addr)
	if err != nil {
		return
	}

	rec.Snapshot.WriteWord(addr, word)
	return
}
