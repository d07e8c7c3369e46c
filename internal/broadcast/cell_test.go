package broadcast

import (
	"context"
	"testing"
	"time"

	"bookmerge/pkg/types"
)

// TestLatestValueLiveness is property 8.
func TestLatestValueLiveness(t *testing.T) {
	t.Parallel()
	c := NewCell()

	c.Publish(types.Summary{Symbol: types.BTCUSDT, Spread: 1})

	r := c.Subscribe()
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	v, ok := r.Next(ctx)
	if !ok {
		t.Fatal("Next returned ok=false")
	}
	if v.Spread != 1 {
		t.Errorf("spread = %v, want 1", v.Spread)
	}
}

// TestFanOut is spec.md scenario E5: three clients subscribe before and
// after publishes s1, s2, s3; each, polled only after s3, sees s3.
func TestFanOut(t *testing.T) {
	t.Parallel()
	c := NewCell()

	r1 := c.Subscribe()
	defer r1.Close()

	c.Publish(types.Summary{Symbol: types.BTCUSDT, Spread: 1}) // s1
	r2 := c.Subscribe()
	defer r2.Close()

	c.Publish(types.Summary{Symbol: types.BTCUSDT, Spread: 2}) // s2
	r3 := c.Subscribe()
	defer r3.Close()

	c.Publish(types.Summary{Symbol: types.BTCUSDT, Spread: 3}) // s3

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for name, r := range map[string]*Receiver{"r1": r1, "r2": r2, "r3": r3} {
		v, ok := r.Next(ctx)
		if !ok {
			t.Fatalf("%s: Next returned ok=false", name)
		}
		if v.Spread != 3 {
			t.Errorf("%s: spread = %v, want 3 (latest)", name, v.Spread)
		}
	}
}

// TestDisconnectDoesNotBlockOthers is spec.md scenario E6.
func TestDisconnectDoesNotBlockOthers(t *testing.T) {
	t.Parallel()
	c := NewCell()

	r1 := c.Subscribe()
	r2 := c.Subscribe()
	r3 := c.Subscribe()
	defer r1.Close()
	defer r3.Close()

	if got := c.ActiveReceivers(); got != 3 {
		t.Fatalf("ActiveReceivers = %d, want 3", got)
	}

	r2.Close()
	if got := c.ActiveReceivers(); got != 2 {
		t.Fatalf("ActiveReceivers after disconnect = %d, want 2", got)
	}

	c.Publish(types.Summary{Symbol: types.BTCUSDT, Spread: 5})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, ok := r1.Next(ctx); !ok {
		t.Error("r1.Next failed after r2 disconnected")
	}
	if _, ok := r3.Next(ctx); !ok {
		t.Error("r3.Next failed after r2 disconnected")
	}
}

func TestPublishNonBlocking(t *testing.T) {
	t.Parallel()
	c := NewCell()
	// No subscribers at all: Publish must still return promptly.
	done := make(chan struct{})
	go func() {
		c.Publish(types.Summary{Symbol: types.ETHUSDT})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked with no subscribers")
	}
}
