package trading

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatPrices(n int, value float64) []float64 {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = value
	}
	return prices
}

func rampPrices(n int, start, step float64) []float64 {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = start + float64(i)*step
	}
	return prices
}

func TestMomentumSignals(t *testing.T) {
	testCases := []struct {
		name   string
		prices []float64
		want   Signal
	}{
		{
			name:   "rising window buys",
			prices: rampPrices(14, 100, 1),
			want:   Buy,
		},
		{
			name:   "falling window sells",
			prices: rampPrices(14, 100, -1),
			want:   Sell,
		},
		{
			name:   "flat window holds",
			prices: flatPrices(14, 100),
			want:   Hold,
		},
		{
			name:   "short history holds",
			prices: rampPrices(13, 100, 5),
			want:   Hold,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			signal, err := Momentum(tc.prices, DefaultMomentumWindow)
			require.NoError(t, err)
			assert.Equal(t, tc.want, signal)
		})
	}
}

func TestMomentumLooksBackOneWindow(t *testing.T) {
	// Six stale highs in front, then a rising 14-price window. Only the
	// window counts, so the signal is a buy despite the drop from 500.
	prices := append(flatPrices(6, 500), rampPrices(14, 1, 1)...)

	signal, err := Momentum(prices, DefaultMomentumWindow)
	require.NoError(t, err)
	assert.Equal(t, Buy, signal)
}

func TestMomentumRejectsBadWindow(t *testing.T) {
	for _, window := range []int{0, -5} {
		_, err := Momentum(rampPrices(20, 100, 1), window)
		assert.ErrorIs(t, err, ErrInvalidWindow)
	}
}

func TestMomentumRejectsNaN(t *testing.T) {
	prices := rampPrices(14, 100, 1)
	prices[3] = math.NaN()

	_, err := Momentum(prices, DefaultMomentumWindow)
	assert.ErrorIs(t, err, ErrNaNInput)
}

func TestMeanReversionSignals(t *testing.T) {
	testCases := []struct {
		name   string
		prices []float64
		window int
		want   Signal
	}{
		{
			name:   "dip below the band buys",
			prices: []float64{10, 10, 10, 4},
			window: 4,
			want:   Buy,
		},
		{
			name:   "spike above the band sells",
			prices: []float64{10, 10, 10, 16},
			window: 4,
			want:   Sell,
		},
		{
			name:   "flat window holds",
			prices: flatPrices(20, 100),
			window: DefaultMeanReversionWindow,
			want:   Hold,
		},
		{
			name:   "short history holds",
			prices: flatPrices(19, 100),
			window: DefaultMeanReversionWindow,
			want:   Hold,
		},
		{
			name:   "deep dip with the default window buys",
			prices: append(flatPrices(19, 100), 50),
			window: DefaultMeanReversionWindow,
			want:   Buy,
		},
		{
			name:   "tall spike with the default window sells",
			prices: append(flatPrices(19, 100), 150),
			window: DefaultMeanReversionWindow,
			want:   Sell,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			signal, err := MeanReversion(tc.prices, tc.window)
			require.NoError(t, err)
			assert.Equal(t, tc.want, signal)
		})
	}
}

func TestMeanReversionBandIsExclusive(t *testing.T) {
	// With two prices the last one lands exactly on the band edge, and
	// exactly-on-the-band is not a signal.
	signal, err := MeanReversion([]float64{10, 12}, 2)
	require.NoError(t, err)
	assert.Equal(t, Hold, signal)

	signal, err = MeanReversion([]float64{12, 10}, 2)
	require.NoError(t, err)
	assert.Equal(t, Hold, signal)
}

func TestMeanReversionRejectsBadInput(t *testing.T) {
	_, err := MeanReversion(flatPrices(20, 100), 0)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	prices := flatPrices(20, 100)
	prices[19] = math.NaN()
	_, err = MeanReversion(prices, DefaultMeanReversionWindow)
	assert.ErrorIs(t, err, ErrNaNInput)
}

func TestSignalJSON(t *testing.T) {
	raw, err := json.Marshal(Buy)
	require.NoError(t, err)
	assert.Equal(t, `"buy"`, string(raw))

	var signal Signal
	require.NoError(t, json.Unmarshal([]byte(`"sell"`), &signal))
	assert.Equal(t, Sell, signal)

	err = json.Unmarshal([]byte(`"sideways"`), &signal)
	assert.ErrorContains(t, err, "unknown signal")
}
