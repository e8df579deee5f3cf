package duplex

import (
	"errors"
	"fmt"
)

var (
	// ErrTransfer matches every *TransferError with errors.Is
	ErrTransfer = errors.New("duplex transfer failed")

	ErrInvalidChunkSize = errors.New("chunk size must be at least 1")
	ErrShortWrite       = errors.New("stream accepted no bytes")
)

// TransferError describes where a duplex run stopped
type TransferError struct {
	Phase int    // 1 or 2; 0 when opening streams
	Op    string // open, flush, read-file, write-file, write-stream, read-stream, cancel
	Path  string // file or device involved
	Chunk int    // 1-based chunk index within the phase, 0 outside the loop
	Err   error
}

func (e *TransferError) Error() string {
	msg := "transfer"
	if e.Phase > 0 {
		msg = fmt.Sprintf("phase %d", e.Phase)
	}
	if e.Chunk > 0 {
		msg += fmt.Sprintf(" chunk %d", e.Chunk)
	}
	msg += ": " + e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	return msg + ": " + e.Err.Error()
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

func (e *TransferError) Is(target error) bool {
	return target == ErrTransfer
}
