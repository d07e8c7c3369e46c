// Package venue implements the per-exchange connectors: REST metadata and
// snapshot fetch, websocket diff subscription, sequence validation, and the
// fetcher/applier goroutine pair that feeds the book replica.
//
// Each venue produces a venue-specific update record that satisfies a
// common capability set — validate against a watermark, report its last
// sequence id, and expose its raw bid/ask deltas. Binance-style venues
// carry an explicit first/last id pair; Bitstamp-style venues carry only a
// monotonic timestamp. The two shapes are the only implementations of the
// Update interface, and each carries its own Validate method.
package venue

import (
	"errors"
	"fmt"
)

// ErrSequenceGap is returned by Update.Validate when an update cannot be
// applied against the book's current watermark.
var ErrSequenceGap = errors.New("venue: sequence gap")

// Update is satisfied by StrictUpdate and TimestampedUpdate. A book replica
// calls Validate before applying the level deltas carried by an update.
type Update interface {
	// Validate checks the update against the replica's current watermark
	// (last_update_id). Returns ErrSequenceGap if the update cannot be
	// safely applied.
	Validate(watermark uint64) error
	// LastID returns the sequence id this update advances the watermark to.
	LastID() uint64
	// Bids returns raw (price, quantity) deltas as decimal strings, highest
	// precision preserved for internal/decimal conversion. Quantity "0"
	// means delete that price.
	Bids() map[string]string
	// Asks returns raw (price, quantity) ask deltas, same shape as Bids.
	Asks() map[string]string
}

// StrictUpdate is the Binance-style variant: an explicit first_id/last_id
// pair. Sequencing requires update.FirstID == watermark+1, except during
// bootstrap (watermark == 0) when any update is accepted.
type StrictUpdate struct {
	FirstID   uint64
	LastID_   uint64
	BidLevels map[string]string
	AskLevels map[string]string
}

// Validate implements Update.
func (u StrictUpdate) Validate(watermark uint64) error {
	if watermark == 0 {
		return nil
	}
	if u.FirstID != watermark+1 {
		return fmt.Errorf("%w: expected first_id %d, got %d (last_id %d)", ErrSequenceGap, watermark+1, u.FirstID, u.LastID_)
	}
	return nil
}

// LastID implements Update.
func (u StrictUpdate) LastID() uint64 { return u.LastID_ }

// Bids implements Update.
func (u StrictUpdate) Bids() map[string]string { return u.BidLevels }

// Asks implements Update.
func (u StrictUpdate) Asks() map[string]string { return u.AskLevels }

// TimestampedUpdate is the Bitstamp-style variant: a monotonic microsecond
// timestamp stands in for a sequence id, and there is no first_id — every
// update is accepted unconditionally except one whose timestamp would move
// the watermark backward.
type TimestampedUpdate struct {
	LastID_   uint64
	BidLevels map[string]string
	AskLevels map[string]string
}

// Validate implements Update.
func (u TimestampedUpdate) Validate(watermark uint64) error {
	if u.LastID_ < watermark {
		return fmt.Errorf("%w: timestamp %d precedes watermark %d", ErrSequenceGap, u.LastID_, watermark)
	}
	return nil
}

// LastID implements Update.
func (u TimestampedUpdate) LastID() uint64 { return u.LastID_ }

// Bids implements Update.
func (u TimestampedUpdate) Bids() map[string]string { return u.BidLevels }

// Asks implements Update.
func (u TimestampedUpdate) Asks() map[string]string { return u.AskLevels }
