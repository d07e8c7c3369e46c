// Package merger fuses two asynchronous, independently-paced per-venue
// level feeds into a single totally-ordered cross-venue Summary.
//
// A Merger is owned by exactly one goroutine: it receives book.Snapshot
// values off a channel per venue, keeps the latest snapshot seen for each,
// and republishes a merged Summary whenever both venues have reported at
// least once. There is no cross-venue ordering guarantee — the merger
// republishes whenever either side moves.
package merger

import (
	"sort"

	"bookmerge/internal/book"
	"bookmerge/pkg/types"
)

// Merger keeps the latest LevelsSnapshot per venue and derives a merged
// Summary on demand.
type Merger struct {
	symbol types.Symbol
	levels int
	latest map[types.VenueID]book.Snapshot
}

// New creates a merger for one symbol. levels bounds how many bid and how
// many ask rows the merged Summary keeps (typically 10).
func New(symbol types.Symbol, levels int) *Merger {
	return &Merger{
		symbol: symbol,
		levels: levels,
		latest: make(map[types.VenueID]book.Snapshot),
	}
}

// Update overwrites the entry for snap's venue. If both venues are now
// present, it returns the merged Summary and ok=true; otherwise ok=false
// (still bootstrapping — only one venue has reported so far).
func (m *Merger) Update(snap book.Snapshot) (types.Summary, bool) {
	m.latest[snap.Venue] = snap

	if len(m.latest) < 2 {
		return types.Summary{}, false
	}

	return m.merge(), true
}

func (m *Merger) merge() types.Summary {
	var allBids, allAsks []types.Level
	for _, snap := range m.latest {
		allBids = append(allBids, snap.Bids...)
		allAsks = append(allAsks, snap.Asks...)
	}

	sortLevels(allBids, true)
	sortLevels(allAsks, false)

	if len(allBids) > m.levels {
		allBids = allBids[:m.levels]
	}
	if len(allAsks) > m.levels {
		allAsks = allAsks[:m.levels]
	}

	summary := types.Summary{
		Symbol: m.symbol,
		Bids:   allBids,
		Asks:   allAsks,
	}
	if len(allBids) > 0 && len(allAsks) > 0 {
		summary.Spread = allAsks[0].Price - allBids[0].Price
	}
	return summary
}

// sortLevels sorts by (price, quantity desc). For bids, price is
// descending; for asks, ascending. Equal-price levels from different
// venues are never summed — each venue keeps its own level identity, with
// the larger quantity ranking first so a client can see both venues when
// they tie at the top of the book.
func sortLevels(levels []types.Level, bidSide bool) {
	sort.SliceStable(levels, func(i, j int) bool {
		if levels[i].Price != levels[j].Price {
			if bidSide {
				return levels[i].Price > levels[j].Price
			}
			return levels[i].Price < levels[j].Price
		}
		return levels[i].Quantity > levels[j].Quantity
	})
}
