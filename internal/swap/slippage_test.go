package swap

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func TestValidateSlippageBps(t *testing.T) {
	t.Run("accepts in-range values", func(t *testing.T) {
		require.NoError(t, ValidateSlippageBps(1))
		require.NoError(t, ValidateSlippageBps(30))
		require.NoError(t, ValidateSlippageBps(MaxSlippageBps))
	})

	t.Run("rejects zero and negative", func(t *testing.T) {
		require.ErrorIs(t, ValidateSlippageBps(0), ErrInvalidSlippageBps)
		require.ErrorIs(t, ValidateSlippageBps(-1), ErrInvalidSlippageBps)
	})

	t.Run("rejects above the cap", func(t *testing.T) {
		require.ErrorIs(t, ValidateSlippageBps(MaxSlippageBps+1), ErrInvalidSlippageBps)
		require.ErrorIs(t, ValidateSlippageBps(BpsDenominator), ErrInvalidSlippageBps)
	})
}

func TestMinimumOutput(t *testing.T) {
	t.Run("floor division at 100 bps", func(t *testing.T) {
		minOut, err := MinimumOutput(sdkmath.NewInt(1000), 100)
		require.NoError(t, err)
		require.Equal(t, sdkmath.NewInt(990), minOut)
	})

	t.Run("rounds down, never up", func(t *testing.T) {
		// 999 * 9900 / 10000 = 989.01, floored to 989
		minOut, err := MinimumOutput(sdkmath.NewInt(999), 100)
		require.NoError(t, err)
		require.Equal(t, sdkmath.NewInt(989), minOut)
	})

	t.Run("smallest workable quote at maximum tolerance", func(t *testing.T) {
		// At 500 bps the margin 19*500/10000 floors to zero, so 19 is
		// rejected; 20 is the first amount the guard can protect.
		_, err := MinimumOutput(sdkmath.NewInt(19), MaxSlippageBps)
		require.ErrorIs(t, err, ErrMarginCollapsed)

		minOut, err := MinimumOutput(sdkmath.NewInt(20), MaxSlippageBps)
		require.NoError(t, err)
		require.Equal(t, sdkmath.NewInt(19), minOut)
	})

	t.Run("zero quote is rejected", func(t *testing.T) {
		_, err := MinimumOutput(sdkmath.ZeroInt(), 100)
		require.ErrorIs(t, err, ErrZeroQuote)
	})

	t.Run("collapsed margin is rejected", func(t *testing.T) {
		// 1 * 500 / 10000 = 0
		_, err := MinimumOutput(sdkmath.NewInt(1), MaxSlippageBps)
		require.ErrorIs(t, err, ErrMarginCollapsed)

		// 99 * 100 / 10000 = 0 even away from the tolerance cap
		_, err = MinimumOutput(sdkmath.NewInt(99), 100)
		require.ErrorIs(t, err, ErrMarginCollapsed)
	})

	t.Run("invalid tolerance is rejected before the quote", func(t *testing.T) {
		_, err := MinimumOutput(sdkmath.NewInt(1000), 0)
		require.ErrorIs(t, err, ErrInvalidSlippageBps)
	})

	t.Run("minimum grows monotonically with the quote", func(t *testing.T) {
		prev := sdkmath.ZeroInt()
		for _, quoted := range []int64{100, 500, 1000, 50000, 1_000_000} {
			minOut, err := MinimumOutput(sdkmath.NewInt(quoted), 250)
			require.NoError(t, err)
			require.True(t, minOut.GT(prev), "minimum must grow with the quote")
			require.True(t, minOut.LT(sdkmath.NewInt(quoted)), "minimum must stay below the quote")
			prev = minOut
		}
	})

	t.Run("tighter tolerance yields higher minimum", func(t *testing.T) {
		quoted := sdkmath.NewInt(100000)
		loose, err := MinimumOutput(quoted, 500)
		require.NoError(t, err)
		tight, err := MinimumOutput(quoted, 50)
		require.NoError(t, err)
		require.True(t, tight.GT(loose))
	})
}
