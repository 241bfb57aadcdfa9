package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dividendfetcher/models"
)

func sample(amount string) *models.DividendInfo {
	return &models.DividendInfo{
		ExDate:         "2024-01-15",
		PayDate:        "2024-02-01",
		DividendAmount: amount,
		YieldValue:     "3.1%",
		FetchedAt:      time.Now(),
	}
}

// fakeClock lets tests advance cache time manually.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(clk *fakeClock) *Cache {
	c := New(0)
	c.now = clk.Now
	return c
}

func TestCache_KeyNormalization(t *testing.T) {
	assert.Equal(t, "AAPL", Key(" aapl "))
	assert.Equal(t, "BRK.B", Key("brk.b"))
}

func TestCache_SetAndGet(t *testing.T) {
	clk := &fakeClock{t: time.Now()}
	c := newTestCache(clk)

	assert.Nil(t, c.Get("AAPL"))

	c.Set("aapl", sample("$0.24"), time.Minute)
	got := c.Get("AAPL")
	require.NotNil(t, got, "lookup is case-insensitive")
	assert.Equal(t, "$0.24", got.DividendAmount)
}

func TestCache_ExpiryIsLazy(t *testing.T) {
	clk := &fakeClock{t: time.Now()}
	c := newTestCache(clk)

	c.Set("KO", sample("$0.48"), time.Minute)
	require.NotNil(t, c.Get("KO"))

	clk.Advance(59 * time.Second)
	assert.NotNil(t, c.Get("KO"), "entry lives until the TTL elapses")

	clk.Advance(2 * time.Second)
	assert.Nil(t, c.Get("KO"), "expired entry reads as a miss")
}

func TestCache_OverwriteExtendsTTL(t *testing.T) {
	clk := &fakeClock{t: time.Now()}
	c := newTestCache(clk)

	c.Set("MSFT", sample("$0.75"), time.Minute)
	clk.Advance(50 * time.Second)
	c.Set("MSFT", sample("$0.83"), time.Minute)

	clk.Advance(30 * time.Second)
	got := c.Get("MSFT")
	require.NotNil(t, got)
	assert.Equal(t, "$0.83", got.DividendAmount)
}

func TestCache_Invalidate(t *testing.T) {
	clk := &fakeClock{t: time.Now()}
	c := newTestCache(clk)

	c.Set("AAPL", sample("$0.24"), time.Minute)
	c.Set("MSFT", sample("$0.75"), time.Minute)

	c.Invalidate("aapl")
	assert.Nil(t, c.Get("AAPL"))
	assert.NotNil(t, c.Get("MSFT"))

	c.InvalidateAll()
	assert.Nil(t, c.Get("MSFT"))
	assert.Equal(t, 0, c.Len())
}

func TestCache_Stats(t *testing.T) {
	clk := &fakeClock{t: time.Now()}
	c := newTestCache(clk)

	c.Get("AAPL") // miss
	c.Set("AAPL", sample("$0.24"), time.Minute)
	c.Get("AAPL") // hit
	c.Get("AAPL") // hit

	stats := c.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestCache_SweepEvictsExpired(t *testing.T) {
	clk := &fakeClock{t: time.Now()}
	c := New(5 * time.Millisecond)
	c.now = clk.Now
	defer c.Stop()

	c.Set("T", sample("$0.68"), time.Minute)
	clk.Advance(2 * time.Minute)

	deadline := time.Now().Add(time.Second)
	for c.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, 0, c.Len(), "sweeper should evict the expired entry")
}
