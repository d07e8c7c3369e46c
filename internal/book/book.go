// Package book maintains a per-(venue, symbol) local order book replica.
//
// A Book is fed by exactly one applier goroutine: it is updated from
// venue.Update records (REST bootstrap snapshot, then websocket diffs) and
// exposes the current top-of-book as a Snapshot. It never shares mutable
// state with other goroutines — see internal/merger for how snapshots are
// fused across venues.
package book

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"bookmerge/internal/decimal"
	"bookmerge/internal/venue"
	"bookmerge/pkg/types"

	shopspringdecimal "github.com/shopspring/decimal"
)

const maxLevels = 10

// Snapshot is the per-venue top-of-book produced after each applied update.
type Snapshot struct {
	Venue        types.VenueID
	Symbol       types.Symbol
	LastUpdateID uint64
	Bids         []types.Level // highest price first
	Asks         []types.Level // lowest price first
}

// Book is a single (venue, symbol) order book replica, owned exclusively by
// one applier goroutine.
type Book struct {
	venue  types.VenueID
	symbol types.Symbol

	priceScale int32
	qtyScale   int32

	bids map[uint64]uint64
	asks map[uint64]uint64

	lastUpdateID uint64
}

// New creates an empty book replica for one (venue, symbol) pair. Scales
// are fixed at creation from venue metadata and never change.
func New(v types.VenueID, symbol types.Symbol, priceScale, qtyScale int32) *Book {
	return &Book{
		venue:      v,
		symbol:     symbol,
		priceScale: priceScale,
		qtyScale:   qtyScale,
		bids:       make(map[uint64]uint64),
		asks:       make(map[uint64]uint64),
	}
}

// LastUpdateID returns the current watermark.
func (b *Book) LastUpdateID() uint64 { return b.lastUpdateID }

// Apply validates the update's sequencing against the current watermark,
// then upserts or deletes each (price, quantity) level on both sides. On
// SequenceGap the book is left completely unchanged.
func (b *Book) Apply(u venue.Update) error {
	if err := u.Validate(b.lastUpdateID); err != nil {
		return err
	}

	for priceStr, qtyStr := range u.Bids() {
		if err := b.applyLevel(b.bids, priceStr, qtyStr); err != nil {
			return err
		}
	}
	for priceStr, qtyStr := range u.Asks() {
		if err := b.applyLevel(b.asks, priceStr, qtyStr); err != nil {
			return err
		}
	}

	if u.LastID() > b.lastUpdateID {
		b.lastUpdateID = u.LastID()
	}
	return nil
}

func (b *Book) applyLevel(side map[uint64]uint64, priceStr, qtyStr string) error {
	price, err := shopspringdecimal.NewFromString(priceStr)
	if err != nil {
		return fmt.Errorf("parse price %q: %w", priceStr, err)
	}
	priceKey, err := decimal.ToStorage(price, b.priceScale)
	if err != nil {
		// ValueOutOfRange: log-and-skip this level, per spec.md §7.
		slog.Warn("skipping level", "venue", b.venue, "price", priceStr, "error", err)
		return nil
	}

	qty, err := shopspringdecimal.NewFromString(qtyStr)
	if err != nil {
		return fmt.Errorf("parse quantity %q: %w", qtyStr, err)
	}
	if qty.IsZero() {
		delete(side, priceKey)
		return nil
	}

	qtyKey, err := decimal.ToStorage(qty, b.qtyScale)
	if err != nil {
		slog.Warn("skipping level", "venue", b.venue, "price", priceStr, "quantity", qtyStr, "error", err)
		return nil
	}
	if qtyKey == 0 {
		delete(side, priceKey)
		return nil
	}

	side[priceKey] = qtyKey
	return nil
}

// TopLevels returns up to maxLevels best bids (descending) and asks
// (ascending), converted back to display price/quantity. Returns false iff
// both sides are empty.
func (b *Book) TopLevels() (Snapshot, bool) {
	if len(b.bids) == 0 && len(b.asks) == 0 {
		return Snapshot{}, false
	}

	return Snapshot{
		Venue:        b.venue,
		Symbol:       b.symbol,
		LastUpdateID: b.lastUpdateID,
		Bids:         b.topSide(b.bids, true),
		Asks:         b.topSide(b.asks, false),
	}, true
}

// BestBidAsk returns the best bid and ask storage keys, or ok=false if
// either side is empty.
func (b *Book) BestBidAsk() (bid, ask uint64, ok bool) {
	if len(b.bids) == 0 || len(b.asks) == 0 {
		return 0, 0, false
	}
	return b.bestKey(b.bids, true), b.bestKey(b.asks, false), true
}

func (b *Book) bestKey(side map[uint64]uint64, desc bool) uint64 {
	var best uint64
	first := true
	for k := range side {
		if first || (desc && k > best) || (!desc && k < best) {
			best = k
			first = false
		}
	}
	return best
}

// Reset clears the replica back to its initial empty state, used to reseed
// after a strict-venue sequence gap forces a fresh snapshot.
func (b *Book) Reset() {
	b.bids = make(map[uint64]uint64)
	b.asks = make(map[uint64]uint64)
	b.lastUpdateID = 0
}

// Resyncer refetches a fresh bootstrap update after a sequence gap.
// AlphaConnector implements this; BetaConnector has no equivalent: an
// update whose timestamp precedes the watermark is rejected and dropped.
type Resyncer interface {
	Resync(ctx context.Context) (venue.Update, error)
}

// RunApplier reads Updates sequentially, applies each to b, and forwards a
// Snapshot to out after every successful apply. On ErrSequenceGap from a
// strict venue (resync non-nil) it refetches a fresh bootstrap update via
// resync and reseeds b; any other apply failure, or a gap with no
// resyncer, is logged and the update is skipped — matching spec.md §7's
// recovery policy table. Blocks until updates is closed or ctx is
// canceled.
func RunApplier(ctx context.Context, b *Book, updates <-chan venue.Update, out chan<- Snapshot, resync Resyncer, logger *slog.Logger) error {
	for {
		select {
		case u, ok := <-updates:
			if !ok {
				return nil
			}

			if err := b.Apply(u); err != nil {
				if resync != nil && errors.Is(err, venue.ErrSequenceGap) {
					logger.Warn("sequence gap, resyncing", "error", err)
					fresh, rerr := resync.Resync(ctx)
					if rerr != nil {
						logger.Error("resync failed", "error", rerr)
						continue
					}
					b.Reset()
					if aerr := b.Apply(fresh); aerr != nil {
						logger.Error("apply resynced snapshot failed", "error", aerr)
						continue
					}
				} else {
					logger.Warn("apply failed", "error", err)
					continue
				}
			}

			if snap, ok := b.TopLevels(); ok {
				select {
				case out <- snap:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (b *Book) topSide(side map[uint64]uint64, desc bool) []types.Level {
	if len(side) == 0 {
		return nil
	}

	keys := make([]uint64, 0, len(side))
	for k := range side {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if desc {
			return keys[i] > keys[j]
		}
		return keys[i] < keys[j]
	})

	if len(keys) > maxLevels {
		keys = keys[:maxLevels]
	}

	levels := make([]types.Level, 0, len(keys))
	for _, k := range keys {
		price, _ := decimal.ToDisplay(k, b.priceScale).Float64()
		qty, _ := decimal.ToDisplay(side[k], b.qtyScale).Float64()
		levels = append(levels, types.Level{Venue: b.venue, Price: price, Quantity: qty})
	}
	return levels
}
