package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"bookmerge/pkg/types"
)

// AlphaConnector implements the Binance-style venue: implicit websocket
// subscription via URL path, explicit first_id/last_id sequencing, and a
// REST depth snapshot used both at bootstrap and to reseed after a
// sequence gap.
type AlphaConnector struct {
	symbol  types.Symbol
	restURL string
	wsURL   string
	http    restDoer
	logger  *slog.Logger
	state   stateTracker
}

// restDoer is the one REST operation the connectors need (GET a JSON
// body), narrowed so tests can substitute a fake without standing up an
// HTTP server.
type restDoer interface {
	getJSON(ctx context.Context, path string, query map[string]string, out any) error
}

type restyDoer struct{ client restyClient }

// NewAlphaConnector builds a connector for symbol against restURL (e.g.
// "https://api.binance.com/api/v3") and wsURL (e.g. "wss://stream.binance.com:9443/ws").
func NewAlphaConnector(symbol types.Symbol, restURL, wsURL string, logger *slog.Logger) *AlphaConnector {
	return &AlphaConnector{
		symbol:  symbol,
		restURL: restURL,
		wsURL:   wsURL,
		http:    newRestyDoer(newRESTClient(restURL)),
		logger:  logger.With("component", "venue.alpha"),
	}
}

type binanceExchangeInfo struct {
	Symbols []struct {
		Symbol             string `json:"symbol"`
		BaseAssetPrecision int32  `json:"baseAssetPrecision"`
		Filters            []struct {
			FilterType string `json:"filterType"`
			TickSize   string `json:"tickSize"`
		} `json:"filters"`
	} `json:"symbols"`
}

// FetchMetadata resolves price/quantity scale from GET /exchangeInfo.
func (c *AlphaConnector) FetchMetadata(ctx context.Context) (Metadata, error) {
	var info binanceExchangeInfo
	err := c.http.getJSON(ctx, "/exchangeInfo", map[string]string{"symbol": c.symbol.String()}, &info)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: exchangeInfo: %v", ErrMetadata, err)
	}

	for _, s := range info.Symbols {
		if s.Symbol != c.symbol.String() {
			continue
		}
		qtyScale := s.BaseAssetPrecision
		if qtyScale > maxQtyScale {
			qtyScale = maxQtyScale
		}
		for _, f := range s.Filters {
			if f.FilterType == "PRICE_FILTER" {
				return Metadata{Symbol: c.symbol, PriceScale: scaleOf(f.TickSize), QtyScale: qtyScale}, nil
			}
		}
		return Metadata{}, fmt.Errorf("%w: %s missing PRICE_FILTER", ErrMetadata, c.symbol)
	}
	return Metadata{}, fmt.Errorf("%w: %s not found in exchangeInfo", ErrMetadata, c.symbol)
}

type binanceDepthLevel = [2]string

type binanceDepthSnapshot struct {
	LastUpdateID uint64            `json:"lastUpdateId"`
	Bids         []binanceDepthLevel `json:"bids"`
	Asks         []binanceDepthLevel `json:"asks"`
}

type binanceDepthUpdate struct {
	EventType string              `json:"e"`
	FirstID   uint64              `json:"U"`
	FinalID   uint64              `json:"u"`
	Bids      []binanceDepthLevel `json:"b"`
	Asks      []binanceDepthLevel `json:"a"`
}

func levelsToMap(levels []binanceDepthLevel) map[string]string {
	m := make(map[string]string, len(levels))
	for _, lv := range levels {
		m[lv[0]] = lv[1]
	}
	return m
}

func (c *AlphaConnector) fetchSnapshot(ctx context.Context) (StrictUpdate, error) {
	var snap binanceDepthSnapshot
	err := c.http.getJSON(ctx, "/depth", map[string]string{
		"symbol": c.symbol.String(),
		"limit":  "1000",
	}, &snap)
	if err != nil {
		return StrictUpdate{}, fmt.Errorf("%w: depth: %v", ErrSnapshot, err)
	}
	return StrictUpdate{
		FirstID:   1,
		LastID_:   snap.LastUpdateID,
		BidLevels: levelsToMap(snap.Bids),
		AskLevels: levelsToMap(snap.Asks),
	}, nil
}

// State returns the connector's current lifecycle state, for dashboard and
// log observability.
func (c *AlphaConnector) State() types.ConnState { return c.state.State() }

// Resync implements book.Resyncer: it refetches the REST snapshot for use
// as a fresh bootstrap update after a sequence gap.
func (c *AlphaConnector) Resync(ctx context.Context) (Update, error) {
	snap, err := c.fetchSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Run dials the diff stream and emits Updates until ctx is canceled.
// Between dial and the first applied live frame it performs bootstrap
// alignment: live frames are buffered while the REST snapshot is fetched,
// then any buffered frame whose FinalID does not exceed the snapshot's
// LastUpdateID is discarded, and the first surviving frame has its FirstID
// rewritten to exactly snapshot.LastUpdateID+1 so it satisfies the book's
// strict first_id==watermark+1 check, per spec.md §4.3.
func (c *AlphaConnector) Run(ctx context.Context, updates chan<- Update) error {
	return runWithBackoff(ctx, c.logger, func(ctx context.Context) error {
		return c.connectAndStream(ctx, updates)
	})
}

func (c *AlphaConnector) connectAndStream(ctx context.Context, updates chan<- Update) error {
	c.state.set(types.Connecting, c.logger)
	defer c.state.set(types.Disconnected, c.logger)

	streamURL := fmt.Sprintf("%s/%s@depth@100ms", c.wsURL, strings.ToLower(c.symbol.String()))
	conn, err := dialWS(ctx, streamURL)
	if err != nil {
		return err
	}
	defer conn.close()

	c.state.set(types.Syncing, c.logger)

	pingCtx, cancelPing := context.WithCancel(ctx)
	defer cancelPing()
	go pingLoop(pingCtx, conn, c.logger)

	buffered := make(chan []byte, frameBufferSize)
	readErrs := make(chan error, 1)
	go func() {
		defer close(buffered)
		for {
			data, err := conn.readMessage()
			if err != nil {
				readErrs <- err
				return
			}
			select {
			case buffered <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	snapshot, err := c.fetchSnapshot(ctx)
	if err != nil {
		return err
	}

	select {
	case updates <- snapshot:
	case <-ctx.Done():
		return ctx.Err()
	}

	aligned := false
	for {
		select {
		case data, ok := <-buffered:
			if !ok {
				select {
				case err := <-readErrs:
					return err
				default:
					return fmt.Errorf("%w: read loop ended", ErrConnect)
				}
			}
			upd, err := c.parseFrame(data)
			if err != nil {
				c.logger.Debug("dropping unparseable frame", "error", err)
				continue
			}
			if !aligned {
				if upd.LastID_ <= snapshot.LastID_ {
					continue
				}
				upd.FirstID = snapshot.LastID_ + 1
				aligned = true
				c.state.set(types.Live, c.logger)
			}
			select {
			case updates <- upd:
			case <-ctx.Done():
				return ctx.Err()
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *AlphaConnector) parseFrame(data []byte) (StrictUpdate, error) {
	var evt binanceDepthUpdate
	if err := json.Unmarshal(data, &evt); err != nil {
		return StrictUpdate{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return StrictUpdate{
		FirstID:   evt.FirstID,
		LastID_:   evt.FinalID,
		BidLevels: levelsToMap(evt.Bids),
		AskLevels: levelsToMap(evt.Asks),
	}, nil
}
