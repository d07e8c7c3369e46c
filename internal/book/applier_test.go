package book

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"bookmerge/internal/venue"
)

type fakeResyncer struct {
	update venue.Update
	err    error
	calls  int
}

func (f *fakeResyncer) Resync(context.Context) (venue.Update, error) {
	f.calls++
	return f.update, f.err
}

func TestRunApplierResyncsOnGap(t *testing.T) {
	t.Parallel()
	b := newTestBook()
	updates := make(chan venue.Update, 4)
	out := make(chan Snapshot, 4)
	resync := &fakeResyncer{update: strictSnapshot(500, map[string]string{"20": "1"}, map[string]string{"21": "1"})}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go RunApplier(ctx, b, updates, out, resync, slog.Default())

	updates <- strictSnapshot(100, map[string]string{"10": "1"}, map[string]string{"11": "1"})
	<-out // bootstrap snapshot forwarded

	updates <- venue.StrictUpdate{FirstID: 999, LastID_: 999} // gap
	snap := <-out
	if resync.calls != 1 {
		t.Fatalf("resync calls = %d, want 1", resync.calls)
	}
	if len(snap.Bids) != 1 || snap.Bids[0].Price != 20 {
		t.Errorf("bids after resync = %+v, want [(20,_)]", snap.Bids)
	}
	if b.LastUpdateID() != 500 {
		t.Errorf("watermark = %d, want 500", b.LastUpdateID())
	}
}

func TestRunApplierSkipsGapWithoutResyncer(t *testing.T) {
	t.Parallel()
	b := newTestBook()
	updates := make(chan venue.Update, 4)
	out := make(chan Snapshot, 4)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go RunApplier(ctx, b, updates, out, nil, slog.Default())

	updates <- strictSnapshot(100, map[string]string{"10": "1"}, map[string]string{"11": "1"})
	<-out

	updates <- venue.StrictUpdate{FirstID: 999, LastID_: 999}
	updates <- venue.StrictUpdate{FirstID: 101, LastID_: 101, BidLevels: map[string]string{"10": "2"}}
	snap := <-out
	if snap.Bids[0].Quantity != 2 {
		t.Errorf("expected the gap to be skipped and the next valid update applied, got %+v", snap.Bids)
	}
}
