package merger

import (
	"testing"

	"bookmerge/internal/book"
	"bookmerge/pkg/types"
)

// TestCrossVenueMerge checks that bids from both venues are fused into a
// single sorted, depth-bounded list.
func TestCrossVenueMerge(t *testing.T) {
	t.Parallel()
	m := New(types.BTCUSDT, 2)

	a := book.Snapshot{
		Venue: types.VenueAlpha,
		Bids: []types.Level{
			{Venue: types.VenueAlpha, Price: 100.0, Quantity: 1},
			{Venue: types.VenueAlpha, Price: 99.0, Quantity: 5},
		},
		Asks: []types.Level{{Venue: types.VenueAlpha, Price: 101.0, Quantity: 1}},
	}
	if _, ok := m.Update(a); ok {
		t.Fatal("expected ok=false with only one venue reported")
	}

	bv := book.Snapshot{
		Venue: types.VenueBeta,
		Bids: []types.Level{
			{Venue: types.VenueBeta, Price: 100.0, Quantity: 2},
			{Venue: types.VenueBeta, Price: 98.0, Quantity: 7},
		},
		Asks: []types.Level{{Venue: types.VenueBeta, Price: 101.5, Quantity: 2}},
	}
	summary, ok := m.Update(bv)
	if !ok {
		t.Fatal("expected ok=true once both venues have reported")
	}

	if len(summary.Bids) != 2 {
		t.Fatalf("bids = %+v, want 2 entries", summary.Bids)
	}
	want := []types.Level{
		{Venue: types.VenueBeta, Price: 100, Quantity: 2},
		{Venue: types.VenueAlpha, Price: 100, Quantity: 1},
	}
	if summary.Bids[0] != want[0] || summary.Bids[1] != want[1] {
		t.Errorf("bids = %+v, want %+v", summary.Bids, want)
	}
}

// TestTieBreakPreservesVenueAttribution is property 6.
func TestTieBreakPreservesVenueAttribution(t *testing.T) {
	t.Parallel()
	m := New(types.BTCUSDT, 10)

	m.Update(book.Snapshot{
		Venue: types.VenueAlpha,
		Bids:  []types.Level{{Venue: types.VenueAlpha, Price: 50, Quantity: 3}},
		Asks:  []types.Level{{Venue: types.VenueAlpha, Price: 51, Quantity: 1}},
	})
	summary, ok := m.Update(book.Snapshot{
		Venue: types.VenueBeta,
		Bids:  []types.Level{{Venue: types.VenueBeta, Price: 50, Quantity: 9}},
		Asks:  []types.Level{{Venue: types.VenueBeta, Price: 52, Quantity: 1}},
	})
	if !ok {
		t.Fatal("expected merged summary")
	}

	if summary.Bids[0].Venue != types.VenueBeta || summary.Bids[0].Quantity != 9 {
		t.Errorf("expected larger-quantity level (beta, 9) first, got %+v", summary.Bids[0])
	}
	if summary.Bids[1].Venue != types.VenueAlpha {
		t.Errorf("expected alpha's level preserved second, got %+v", summary.Bids[1])
	}
}

// TestSpreadIdentity is property 7.
func TestSpreadIdentity(t *testing.T) {
	t.Parallel()
	m := New(types.BTCUSDT, 10)

	m.Update(book.Snapshot{
		Venue: types.VenueAlpha,
		Bids:  []types.Level{{Venue: types.VenueAlpha, Price: 100, Quantity: 1}},
		Asks:  []types.Level{{Venue: types.VenueAlpha, Price: 105, Quantity: 1}},
	})
	summary, ok := m.Update(book.Snapshot{
		Venue: types.VenueBeta,
		Bids:  []types.Level{{Venue: types.VenueBeta, Price: 99, Quantity: 1}},
		Asks:  []types.Level{{Venue: types.VenueBeta, Price: 106, Quantity: 1}},
	})
	if !ok {
		t.Fatal("expected merged summary")
	}

	want := summary.Asks[0].Price - summary.Bids[0].Price
	if summary.Spread != want {
		t.Errorf("spread = %v, want %v", summary.Spread, want)
	}
}
