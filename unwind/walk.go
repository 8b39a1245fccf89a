package unwind

import (
	"errors"
	"fmt"
)

// Reason tells why a walk stopped.
type Reason int

//go:generate go tool stringer -linecomment -type=Reason
const (
	STOP_PC_ZERO    = Reason(0) // pc zero
	STOP_FP_ZERO    = Reason(1) // fp zero
	STOP_MAX_FRAMES = Reason(2) // max frames
	STOP_OUTERMOST  = Reason(3) // outermost
	STOP_ERROR      = Reason(4) // error
)

// Frame is one frame of a trace. CFA and the rule row [Low, High) are those
// used to recover the frame's caller; they are zero for the last frame when
// no step was taken from it.
type Frame struct {
	*Context

	CFA  uint64
	Low  uint64
	High uint64
}

func (fr Frame) String() string {
	return fmt.Sprintf("pc=0x%x sp=0x%x fp=0x%x cfa=0x%x", fr.PC(), fr.SP(), fr.FP(), fr.CFA)
}

// Trace is the result of a walk, innermost frame first.
type Trace struct {
	Frames []Frame
	Stop   Reason
}

// Walk steps from ctx until a stop condition. ctx is the first frame of the
// trace. A step failure ends the walk with STOP_ERROR: the trace holds the
// frames recovered so far and the failure is returned as an *ErrFrame.
func (uw *Unwinder) Walk(ctx *Context) (trace *Trace, err error) {
	maxFrames := uw.MaxFrames
	if maxFrames <= 0 {
		maxFrames = DEFAULT_MAX_FRAMES
	}

	trace = &Trace{
		Frames: []Frame{{Context: ctx}},
	}
	defer func() {
		log.Infof("walk: %d frames, stop: %v", len(trace.Frames), trace.Stop)
	}()

	for {
		if len(trace.Frames) >= maxFrames {
			trace.Stop = STOP_MAX_FRAMES
			return
		}

		index := len(trace.Frames) - 1
		callee := &trace.Frames[index]

		caller, cfa, table, serr := uw.step(callee.Context)
		if serr != nil {
			if errors.Is(serr, ErrOutermost) {
				trace.Stop = STOP_OUTERMOST
				return
			}
			trace.Stop = STOP_ERROR
			err = &ErrFrame{Index: index, PC: callee.PC(), Err: serr}
			return
		}
		callee.CFA, callee.Low, callee.High = cfa, table.Low, table.High

		if caller.PC() == 0 {
			trace.Stop = STOP_PC_ZERO
			return
		}

		trace.Frames = append(trace.Frames, Frame{Context: caller})

		if uw.StopOnZeroFP && caller.FP() == 0 {
			trace.Stop = STOP_FP_ZERO
			return
		}
	}
}
