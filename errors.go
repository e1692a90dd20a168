package compositor

import "errors"

// TerminalIOError wraps a failure from a terminal write, read, or mode
// change. Propagated up from the renderer and engine; recoverable only by
// tearing the engine down.
type TerminalIOError struct {
	Op  string
	Err error
}

func (e *TerminalIOError) Error() string {
	return "compositor: terminal " + e.Op + ": " + e.Err.Error()
}

func (e *TerminalIOError) Unwrap() error { return e.Err }

// NewTerminalIOError wraps err as a TerminalIOError for operation op.
func NewTerminalIOError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TerminalIOError{Op: op, Err: err}
}

// InputDecodeError describes a malformed input byte sequence. The Decoder
// does not produce this type: it reports unrecognized or malformed
// sequences as EventError events whose Err is a plain fmt error.
type InputDecodeError struct {
	Bytes []byte
	Err   error
}

func (e *InputDecodeError) Error() string {
	return "compositor: decode input: " + e.Err.Error()
}

func (e *InputDecodeError) Unwrap() error { return e.Err }

// ErrChannelDisconnected indicates the peer side of an actor channel has
// exited. No actor in this package returns or sends it: a failed input
// read surfaces as an Error event carrying a TerminalIOError, and the
// renderer stops only on a Shutdown command.
var ErrChannelDisconnected = errors.New("compositor: channel disconnected")
