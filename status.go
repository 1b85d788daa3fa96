package heatshrink

// PollStatus reports why Poll returned. Neither value is an error.
type PollStatus uint8

const (
	PollEmpty PollStatus = iota // No more output until more input is sunk (or the stream is done).
	PollMore                    // The output buffer filled; call Poll again.
)

func (s PollStatus) String() string {
	if s == PollMore {
		return "more"
	}

	return "empty"
}

// FinishStatus reports whether a finished stream still has output pending.
type FinishStatus uint8

const (
	FinishDone FinishStatus = iota // Everything has been polled.
	FinishMore                     // Keep polling, then call Finish again.
)

func (s FinishStatus) String() string {
	if s == FinishMore {
		return "more"
	}

	return "done"
}
