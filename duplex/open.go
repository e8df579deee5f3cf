package duplex

import "log/slog"

// Opener opens the stream for a device path
type Opener func(path string) (Stream, error)

// OpenPair opens the A and B endpoints in that order. When B fails to open,
// A is closed before the error is returned, so the caller owns either both
// streams or neither.
func OpenPair(open Opener, pathA, pathB string, logger *slog.Logger) (Stream, Stream, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("opening port", "port", "A", "path", pathA)
	a, err := open(pathA)
	if err != nil {
		return nil, nil, &TransferError{Op: "open", Path: pathA, Err: err}
	}

	logger.Info("opening port", "port", "B", "path", pathB)
	b, err := open(pathB)
	if err != nil {
		if cerr := a.Close(); cerr != nil {
			logger.Warn("close failed", "port", "A", "path", pathA, "error", cerr)
		}
		return nil, nil, &TransferError{Op: "open", Path: pathB, Err: err}
	}
	return a, b, nil
}
