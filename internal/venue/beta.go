package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"bookmerge/pkg/types"
)

// BetaConnector implements the Bitstamp-style venue: an explicit text-frame
// websocket subscription and monotonic-microsecond-timestamp sequencing
// (no first_id, no resnapshot-on-gap — a gap just means one stale frame is
// dropped, per spec.md §7's "timestamp venue: cannot occur under policy").
type BetaConnector struct {
	symbol  types.Symbol
	restURL string
	wsURL   string
	http    restDoer
	logger  *slog.Logger
	state   stateTracker
}

// NewBetaConnector builds a connector for symbol against restURL (e.g.
// "https://www.bitstamp.net/api/v2") and the fixed wsURL (e.g.
// "wss://ws.bitstamp.net").
func NewBetaConnector(symbol types.Symbol, restURL, wsURL string, logger *slog.Logger) *BetaConnector {
	return &BetaConnector{
		symbol:  symbol,
		restURL: restURL,
		wsURL:   wsURL,
		http:    newRestyDoer(newRESTClient(restURL)),
		logger:  logger.With("component", "venue.beta"),
	}
}

func (c *BetaConnector) urlSymbol() string {
	return strings.ToLower(c.symbol.String())
}

type bitstampPairInfo struct {
	URLSymbol       string `json:"url_symbol"`
	BaseDecimals    int32  `json:"base_decimals"`
	CounterDecimals int32  `json:"counter_decimals"`
}

// FetchMetadata resolves price/quantity scale from GET /trading-pairs-info/.
func (c *BetaConnector) FetchMetadata(ctx context.Context) (Metadata, error) {
	var pairs []bitstampPairInfo
	if err := c.http.getJSON(ctx, "/trading-pairs-info/", nil, &pairs); err != nil {
		return Metadata{}, fmt.Errorf("%w: trading-pairs-info: %v", ErrMetadata, err)
	}

	want := c.urlSymbol()
	for _, p := range pairs {
		if p.URLSymbol != want {
			continue
		}
		qtyScale := p.BaseDecimals
		if qtyScale > maxQtyScale {
			qtyScale = maxQtyScale
		}
		return Metadata{Symbol: c.symbol, PriceScale: p.CounterDecimals, QtyScale: qtyScale}, nil
	}
	return Metadata{}, fmt.Errorf("%w: %s not found in trading-pairs-info", ErrMetadata, c.symbol)
}

type bitstampDepthLevel = [2]string

type bitstampOrderBook struct {
	Microtimestamp string               `json:"microtimestamp"`
	Bids           []bitstampDepthLevel `json:"bids"`
	Asks           []bitstampDepthLevel `json:"asks"`
}

type bitstampSubscribeMsg struct {
	Event string `json:"event"`
	Data  struct {
		Channel string `json:"channel"`
	} `json:"data"`
}

type bitstampEventFrame struct {
	Event   string            `json:"event"`
	Channel string            `json:"channel"`
	Data    bitstampOrderBook `json:"data"`
}

func (c *BetaConnector) fetchSnapshot(ctx context.Context) (TimestampedUpdate, error) {
	var ob bitstampOrderBook
	if err := c.http.getJSON(ctx, "/order_book/"+c.urlSymbol(), nil, &ob); err != nil {
		return TimestampedUpdate{}, fmt.Errorf("%w: order_book: %v", ErrSnapshot, err)
	}
	lastID, err := strconv.ParseUint(ob.Microtimestamp, 10, 64)
	if err != nil {
		return TimestampedUpdate{}, fmt.Errorf("%w: parse microtimestamp %q: %v", ErrSnapshot, ob.Microtimestamp, err)
	}
	return TimestampedUpdate{
		LastID_:   lastID,
		BidLevels: levelsToMapBeta(ob.Bids),
		AskLevels: levelsToMapBeta(ob.Asks),
	}, nil
}

func levelsToMapBeta(levels []bitstampDepthLevel) map[string]string {
	m := make(map[string]string, len(levels))
	for _, lv := range levels {
		m[lv[0]] = lv[1]
	}
	return m
}

// State returns the connector's current lifecycle state, for dashboard and
// log observability.
func (c *BetaConnector) State() types.ConnState { return c.state.State() }

// Run dials the shared diff_order_book channel, sends the bts:subscribe
// frame, and emits the REST snapshot followed by every live diff frame
// until ctx is canceled. Frames are ordered by microtimestamp rather than a
// first/last id pair, so unlike the strict venue there is no
// buffer-and-align step: any frame whose timestamp precedes the watermark
// is simply rejected downstream by TimestampedUpdate.Validate.
func (c *BetaConnector) Run(ctx context.Context, updates chan<- Update) error {
	return runWithBackoff(ctx, c.logger, func(ctx context.Context) error {
		return c.connectAndStream(ctx, updates)
	})
}

func (c *BetaConnector) connectAndStream(ctx context.Context, updates chan<- Update) error {
	c.state.set(types.Connecting, c.logger)
	defer c.state.set(types.Disconnected, c.logger)

	conn, err := dialWS(ctx, c.wsURL)
	if err != nil {
		return err
	}
	defer conn.close()

	sub := bitstampSubscribeMsg{Event: "bts:subscribe"}
	sub.Data.Channel = "diff_order_book_" + c.urlSymbol()
	if err := conn.writeJSON(sub); err != nil {
		return fmt.Errorf("%w: subscribe: %v", ErrConnect, err)
	}

	c.state.set(types.Syncing, c.logger)

	pingCtx, cancelPing := context.WithCancel(ctx)
	defer cancelPing()
	go pingLoop(pingCtx, conn, c.logger)

	snapshot, err := c.fetchSnapshot(ctx)
	if err != nil {
		return err
	}
	select {
	case updates <- snapshot:
	case <-ctx.Done():
		return ctx.Err()
	}

	c.state.set(types.Live, c.logger)

	for {
		data, err := conn.readMessage()
		if err != nil {
			return fmt.Errorf("%w: read: %v", ErrConnect, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		upd, ok, err := c.parseFrame(data)
		if err != nil {
			c.logger.Debug("dropping unparseable frame", "error", err)
			continue
		}
		if !ok {
			continue
		}

		select {
		case updates <- upd:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *BetaConnector) parseFrame(data []byte) (TimestampedUpdate, bool, error) {
	var evt bitstampEventFrame
	if err := json.Unmarshal(data, &evt); err != nil {
		return TimestampedUpdate{}, false, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if evt.Event != "data" {
		return TimestampedUpdate{}, false, nil
	}

	lastID, err := strconv.ParseUint(evt.Data.Microtimestamp, 10, 64)
	if err != nil {
		return TimestampedUpdate{}, false, fmt.Errorf("%w: parse microtimestamp %q: %v", ErrParse, evt.Data.Microtimestamp, err)
	}
	return TimestampedUpdate{
		LastID_:   lastID,
		BidLevels: levelsToMapBeta(evt.Data.Bids),
		AskLevels: levelsToMapBeta(evt.Data.Asks),
	}, true, nil
}
