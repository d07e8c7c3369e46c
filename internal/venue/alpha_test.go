package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"bookmerge/pkg/types"
)

type fakeDoer struct {
	responses map[string][]byte
	err       error
}

func (f *fakeDoer) getJSON(_ context.Context, path string, _ map[string]string, out any) error {
	if f.err != nil {
		return f.err
	}
	data, ok := f.responses[path]
	if !ok {
		return fmt.Errorf("no fixture for %s", path)
	}
	return json.Unmarshal(data, out)
}

func TestScaleOf(t *testing.T) {
	t.Parallel()
	cases := map[string]int32{
		"0.01000000": 2,
		"1.00000000": 0,
		"0.00000100": 6,
		"0":          0,
	}
	for in, want := range cases {
		if got := scaleOf(in); got != want {
			t.Errorf("scaleOf(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestAlphaFetchMetadata(t *testing.T) {
	t.Parallel()
	doer := &fakeDoer{responses: map[string][]byte{
		"/exchangeInfo": []byte(`{"symbols":[{"symbol":"BTCUSDT","baseAssetPrecision":8,
			"filters":[{"filterType":"PRICE_FILTER","tickSize":"0.01000000"}]}]}`),
	}}
	c := &AlphaConnector{symbol: types.BTCUSDT, http: doer, logger: slog.Default()}

	meta, err := c.FetchMetadata(context.Background())
	if err != nil {
		t.Fatalf("FetchMetadata: %v", err)
	}
	if meta.PriceScale != 2 || meta.QtyScale != 8 {
		t.Errorf("meta = %+v, want priceScale=2 qtyScale=8", meta)
	}
}

func TestAlphaFetchSnapshot(t *testing.T) {
	t.Parallel()
	doer := &fakeDoer{responses: map[string][]byte{
		"/depth": []byte(`{"lastUpdateId":100,"bids":[["10","1"],["9","2"]],"asks":[["11","1"]]}`),
	}}
	c := &AlphaConnector{symbol: types.BTCUSDT, http: doer, logger: slog.Default()}

	snap, err := c.fetchSnapshot(context.Background())
	if err != nil {
		t.Fatalf("fetchSnapshot: %v", err)
	}
	if snap.LastID_ != 100 || snap.FirstID != 1 {
		t.Errorf("snap = %+v", snap)
	}
	if snap.BidLevels["10"] != "1" || snap.BidLevels["9"] != "2" {
		t.Errorf("bids = %+v", snap.BidLevels)
	}
}

func TestAlphaStateStartsDisconnected(t *testing.T) {
	t.Parallel()
	c := &AlphaConnector{symbol: types.BTCUSDT, logger: slog.Default()}
	if got := c.State(); got != types.Disconnected {
		t.Errorf("initial State = %v, want %v", got, types.Disconnected)
	}

	c.state.set(types.Live, slog.Default())
	if got := c.State(); got != types.Live {
		t.Errorf("State after set = %v, want %v", got, types.Live)
	}
}

func TestAlphaParseFrame(t *testing.T) {
	t.Parallel()
	c := &AlphaConnector{symbol: types.BTCUSDT, logger: slog.Default()}
	data := []byte(`{"e":"depthUpdate","U":157,"u":160,"b":[["0.0024","10"]],"a":[["0.0026","100"]]}`)

	upd, err := c.parseFrame(data)
	if err != nil {
		t.Fatalf("parseFrame: %v", err)
	}
	if upd.FirstID != 157 || upd.LastID_ != 160 {
		t.Errorf("upd = %+v", upd)
	}
	if upd.BidLevels["0.0024"] != "10" {
		t.Errorf("bids = %+v", upd.BidLevels)
	}
}
