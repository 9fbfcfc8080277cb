package pricing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/arena/logger"
	"github.com/rustyeddy/arena/market"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := map[string]AssetClass{
		"EURUSD": Forex,
		"USDJPY": Forex,
		"XAUUSD": Metal,
		"XAGUSD": Metal,
		"BTCUSD": Crypto,
		"xrpusd": Crypto,
		"US30":   Index,
		"SPX":    Index,
		"NAS100": Index,
	}
	for sym, want := range tests {
		assert.Equal(t, want, Classify(sym), sym)
	}
}

// Indices are matched by exact symbol. A USD pair is forex and quoted at
// 1.5bp even though its name contains "US".
func TestUSDPairsAreNotIndices(t *testing.T) {
	t.Parallel()

	for _, sym := range []string{"EURUSD", "GBPUSD", "USDCAD", "AUDUSD"} {
		assert.Equal(t, Forex, Classify(sym), sym)
		assert.InDelta(t, 1.0*0.00015, Spread(sym, 1.0), 1e-12, sym)
	}
	assert.InDelta(t, 40_000*0.0002, Spread("US30", 40_000), 1e-9)
}

func TestQuoteFromMid(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	q := QuoteFromMid("i-eur", "EURUSD", 1.1, at)

	assert.Equal(t, "i-eur", q.InstrumentID)
	assert.Equal(t, 1.1, q.Price)
	assert.InDelta(t, 1.1*0.00015, q.Spread(), 1e-12)
	assert.InDelta(t, 1.1, q.Mid(), 1e-12)
	assert.Less(t, q.Bid, q.Ask)
	assert.True(t, q.Time.Equal(at))

	btc := QuoteFromMid("i-btc", "BTCUSD", 60_000, at)
	assert.InDelta(t, 60.0, btc.Spread(), 1e-9)
}

type mockQuoteStore struct{ mock.Mock }

func (m *mockQuoteStore) ListInstruments(ctx context.Context) ([]market.Instrument, error) {
	args := m.Called(ctx)
	return args.Get(0).([]market.Instrument), args.Error(1)
}

func (m *mockQuoteStore) UpsertQuote(ctx context.Context, q market.Quote) error {
	return m.Called(ctx, q).Error(0)
}

func TestRefresherRefresh(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	up := &fakeUpstream{prices: map[string]float64{"EURUSD": 1.1, "XAUUSD": 2000}}
	svc := NewService(NewCache(time.Second, clock), up, logger.NewNop())

	st := &mockQuoteStore{}
	st.On("ListInstruments", mock.Anything).Return([]market.Instrument{
		{ID: "i-eur", Symbol: "EURUSD"},
		{ID: "i-xau", Symbol: "XAUUSD"},
		{ID: "i-doge", Symbol: "DOGEUSD"},
	}, nil)
	st.On("UpsertQuote", mock.Anything, mock.MatchedBy(func(q market.Quote) bool {
		return q.InstrumentID == "i-eur"
	})).Return(nil)
	st.On("UpsertQuote", mock.Anything, mock.MatchedBy(func(q market.Quote) bool {
		return q.InstrumentID == "i-xau"
	})).Return(fmt.Errorf("disk full"))

	r := NewRefresher(st, svc, clock, logger.NewNop())
	res, err := r.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Errors)
	assert.Equal(t, []string{"DOGEUSD"}, res.Missing)
	st.AssertExpectations(t)
}

func TestRefresherListFailure(t *testing.T) {
	t.Parallel()

	st := &mockQuoteStore{}
	st.On("ListInstruments", mock.Anything).Return([]market.Instrument(nil), fmt.Errorf("no such table"))

	r := NewRefresher(st, NewService(nil, &fakeUpstream{}, nil), nil, nil)
	_, err := r.Refresh(context.Background())
	assert.Error(t, err)
}
