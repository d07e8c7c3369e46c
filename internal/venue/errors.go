package venue

import "errors"

// Sentinel error kinds, matching spec.md's error-handling table. Connectors
// wrap these with fmt.Errorf("...: %w", err) at each boundary; callers use
// errors.Is to branch on kind.
var (
	ErrConfig   = errors.New("venue: configuration error")
	ErrMetadata = errors.New("venue: metadata fetch failed")
	ErrSnapshot = errors.New("venue: snapshot fetch failed")
	ErrConnect  = errors.New("venue: websocket connect failed")
	ErrParse    = errors.New("venue: frame parse failed")
)
