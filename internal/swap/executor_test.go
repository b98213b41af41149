package swap

import (
	"context"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/solidex-labs/harvester/internal/chain/memchain"
)

var (
	custodyAddr = common.HexToAddress("0x00000000000000000000000000000000000000C0")
	routerAddr  = common.HexToAddress("0x00000000000000000000000000000000000000D0")
	tokenX      = common.HexToAddress("0x0000000000000000000000000000000000000A01")
	tokenY      = common.HexToAddress("0x0000000000000000000000000000000000000A02")
	tokenZ      = common.HexToAddress("0x0000000000000000000000000000000000000A03")
)

type executorFixture struct {
	ledger   *memchain.Ledger
	quoter   *memchain.Quoter
	router   *memchain.Router
	executor *Executor
	bps      int64
}

func newExecutorFixture(t *testing.T) *executorFixture {
	t.Helper()

	f := &executorFixture{
		ledger: memchain.NewLedger(),
		quoter: memchain.NewQuoter(),
		bps:    100,
	}
	f.router = memchain.NewRouter(f.ledger, routerAddr, f.quoter)

	executor, err := NewExecutor(Config{
		Quoter:      f.quoter,
		Router:      f.router,
		Tokens:      f.ledger.ForAccount(custodyAddr),
		Custody:     custodyAddr,
		SlippageBps: func() int64 { return f.bps },
	})
	require.NoError(t, err)
	f.executor = executor
	return f
}

func TestNewExecutorValidation(t *testing.T) {
	ledger := memchain.NewLedger()
	quoter := memchain.NewQuoter()
	router := memchain.NewRouter(ledger, routerAddr, quoter)
	bound := func() int64 { return 100 }

	cases := []struct {
		name string
		cfg  Config
	}{
		{"nil quoter", Config{Router: router, Tokens: ledger.ForAccount(custodyAddr), Custody: custodyAddr, SlippageBps: bound}},
		{"nil router", Config{Quoter: quoter, Tokens: ledger.ForAccount(custodyAddr), Custody: custodyAddr, SlippageBps: bound}},
		{"nil tokens", Config{Quoter: quoter, Router: router, Custody: custodyAddr, SlippageBps: bound}},
		{"zero custody", Config{Quoter: quoter, Router: router, Tokens: ledger.ForAccount(custodyAddr), SlippageBps: bound}},
		{"nil bound", Config{Quoter: quoter, Router: router, Tokens: ledger.ForAccount(custodyAddr), Custody: custodyAddr}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewExecutor(tc.cfg)
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestConvert(t *testing.T) {
	ctx := context.Background()

	t.Run("swaps and credits custody", func(t *testing.T) {
		f := newExecutorFixture(t)
		f.ledger.Mint(tokenX, custodyAddr, sdkmath.NewInt(1000))
		f.quoter.SetRate(tokenX, tokenY, 10, 1, 1)

		realized, err := f.executor.Convert(ctx, tokenX, tokenY, sdkmath.NewInt(1000), 10, sdkmath.ZeroInt())
		require.NoError(t, err)
		require.Equal(t, sdkmath.NewInt(1000), realized)
		require.True(t, f.ledger.BalanceOf(tokenX, custodyAddr).IsZero())
		require.Equal(t, sdkmath.NewInt(1000), f.ledger.BalanceOf(tokenY, custodyAddr))
	})

	t.Run("approves exactly the input amount", func(t *testing.T) {
		f := newExecutorFixture(t)
		f.ledger.Mint(tokenX, custodyAddr, sdkmath.NewInt(5000))
		f.quoter.SetRate(tokenX, tokenY, 10, 1, 1)

		_, err := f.executor.Convert(ctx, tokenX, tokenY, sdkmath.NewInt(3000), 10, sdkmath.ZeroInt())
		require.NoError(t, err)

		// The router consumed the full grant; nothing dangles.
		require.True(t, f.ledger.Allowance(tokenX, custodyAddr, routerAddr).IsZero())
	})

	t.Run("rejects non-positive granularity", func(t *testing.T) {
		f := newExecutorFixture(t)
		_, err := f.executor.Convert(ctx, tokenX, tokenY, sdkmath.NewInt(100), 0, sdkmath.ZeroInt())
		require.ErrorIs(t, err, ErrInvalidGranularity)

		_, err = f.executor.Convert(ctx, tokenX, tokenY, sdkmath.NewInt(100), -5, sdkmath.ZeroInt())
		require.ErrorIs(t, err, ErrInvalidGranularity)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		f := newExecutorFixture(t)
		_, err := f.executor.Convert(ctx, tokenX, tokenY, sdkmath.ZeroInt(), 10, sdkmath.ZeroInt())
		require.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("zero quote aborts before swapping", func(t *testing.T) {
		f := newExecutorFixture(t)
		f.ledger.Mint(tokenX, custodyAddr, sdkmath.NewInt(1000))
		// No rate configured: quote is zero.

		_, err := f.executor.Convert(ctx, tokenX, tokenY, sdkmath.NewInt(1000), 10, sdkmath.ZeroInt())
		require.ErrorIs(t, err, ErrZeroQuote)
		require.Equal(t, sdkmath.NewInt(1000), f.ledger.BalanceOf(tokenX, custodyAddr))
		// The approval is only granted after a usable quote.
		require.True(t, f.ledger.Allowance(tokenX, custodyAddr, routerAddr).IsZero())
	})

	t.Run("realized at minimum passes", func(t *testing.T) {
		f := newExecutorFixture(t)
		f.ledger.Mint(tokenX, custodyAddr, sdkmath.NewInt(1000))
		f.quoter.SetRate(tokenX, tokenY, 10, 1, 1)
		// Quote is 1000, bound 100 bps -> minimum 990. Realize exactly 995.
		f.router.SetRealized(tokenX, tokenY, 10, sdkmath.NewInt(995))

		realized, err := f.executor.Convert(ctx, tokenX, tokenY, sdkmath.NewInt(1000), 10, sdkmath.ZeroInt())
		require.NoError(t, err)
		require.Equal(t, sdkmath.NewInt(995), realized)
	})

	t.Run("post-swap re-validation catches a lying router", func(t *testing.T) {
		f := newExecutorFixture(t)
		f.ledger.Mint(tokenX, custodyAddr, sdkmath.NewInt(1000))
		f.quoter.SetRate(tokenX, tokenY, 10, 1, 1)
		// Router skips its own check and returns 985 against a 990 minimum.
		f.router.EnforceMinOut(false)
		f.router.SetRealized(tokenX, tokenY, 10, sdkmath.NewInt(985))

		_, err := f.executor.Convert(ctx, tokenX, tokenY, sdkmath.NewInt(1000), 10, sdkmath.ZeroInt())
		require.ErrorIs(t, err, ErrOutputBelowMinimum)
	})

	t.Run("external minimum tightens the bound", func(t *testing.T) {
		f := newExecutorFixture(t)
		f.ledger.Mint(tokenX, custodyAddr, sdkmath.NewInt(1000))
		f.quoter.SetRate(tokenX, tokenY, 10, 1, 1)
		f.router.EnforceMinOut(false)
		// 995 clears the on-chain minimum of 990 but not the external 998.
		f.router.SetRealized(tokenX, tokenY, 10, sdkmath.NewInt(995))

		_, err := f.executor.Convert(ctx, tokenX, tokenY, sdkmath.NewInt(1000), 10, sdkmath.NewInt(998))
		require.ErrorIs(t, err, ErrOutputBelowMinimum)
	})

	t.Run("weaker external minimum never loosens the bound", func(t *testing.T) {
		f := newExecutorFixture(t)
		f.ledger.Mint(tokenX, custodyAddr, sdkmath.NewInt(1000))
		f.quoter.SetRate(tokenX, tokenY, 10, 1, 1)
		f.router.EnforceMinOut(false)
		f.router.SetRealized(tokenX, tokenY, 10, sdkmath.NewInt(985))

		// External minimum of 1 must not override the on-chain 990.
		_, err := f.executor.Convert(ctx, tokenX, tokenY, sdkmath.NewInt(1000), 10, sdkmath.NewInt(1))
		require.ErrorIs(t, err, ErrOutputBelowMinimum)
	})

	t.Run("router rejection surfaces as swap failure", func(t *testing.T) {
		f := newExecutorFixture(t)
		f.ledger.Mint(tokenX, custodyAddr, sdkmath.NewInt(1000))
		f.quoter.SetRate(tokenX, tokenY, 10, 1, 1)
		f.router.SetRealized(tokenX, tokenY, 10, sdkmath.NewInt(1))

		_, err := f.executor.Convert(ctx, tokenX, tokenY, sdkmath.NewInt(1000), 10, sdkmath.ZeroInt())
		require.ErrorIs(t, err, ErrSwapFailed)
	})

	t.Run("no failure mode leaves a standing allowance", func(t *testing.T) {
		assertNoAllowance := func(t *testing.T, f *executorFixture) {
			t.Helper()
			require.True(t, f.ledger.Allowance(tokenX, custodyAddr, routerAddr).IsZero())
		}

		t.Run("router rejection", func(t *testing.T) {
			f := newExecutorFixture(t)
			f.ledger.Mint(tokenX, custodyAddr, sdkmath.NewInt(1000))
			f.quoter.SetRate(tokenX, tokenY, 10, 1, 1)
			// Realized 1 trips the router's own minimum check; the swap
			// reverts without spending the grant.
			f.router.SetRealized(tokenX, tokenY, 10, sdkmath.NewInt(1))

			_, err := f.executor.Convert(ctx, tokenX, tokenY, sdkmath.NewInt(1000), 10, sdkmath.ZeroInt())
			require.ErrorIs(t, err, ErrSwapFailed)
			assertNoAllowance(t, f)
		})

		t.Run("post-swap re-validation failure", func(t *testing.T) {
			f := newExecutorFixture(t)
			f.ledger.Mint(tokenX, custodyAddr, sdkmath.NewInt(1000))
			f.quoter.SetRate(tokenX, tokenY, 10, 1, 1)
			f.router.EnforceMinOut(false)
			f.router.SetRealized(tokenX, tokenY, 10, sdkmath.NewInt(985))

			_, err := f.executor.Convert(ctx, tokenX, tokenY, sdkmath.NewInt(1000), 10, sdkmath.ZeroInt())
			require.ErrorIs(t, err, ErrOutputBelowMinimum)
			assertNoAllowance(t, f)
		})

		t.Run("collapsed slippage margin", func(t *testing.T) {
			f := newExecutorFixture(t)
			f.ledger.Mint(tokenX, custodyAddr, sdkmath.NewInt(19))
			f.quoter.SetRate(tokenX, tokenY, 10, 1, 1)
			f.bps = MaxSlippageBps

			_, err := f.executor.Convert(ctx, tokenX, tokenY, sdkmath.NewInt(19), 10, sdkmath.ZeroInt())
			require.ErrorIs(t, err, ErrMarginCollapsed)
			assertNoAllowance(t, f)
		})
	})
}

func TestConvertVia(t *testing.T) {
	ctx := context.Background()

	t.Run("chains realized output into the second hop", func(t *testing.T) {
		f := newExecutorFixture(t)
		f.ledger.Mint(tokenX, custodyAddr, sdkmath.NewInt(1000))
		// X -> Y halves, Y -> Z halves again: 1000 -> 500 -> 250.
		f.quoter.SetRate(tokenX, tokenY, 10, 1, 2)
		f.quoter.SetRate(tokenY, tokenZ, 50, 1, 2)

		realized, err := f.executor.ConvertVia(ctx, tokenX, tokenY, tokenZ, sdkmath.NewInt(1000), 10, 50, sdkmath.ZeroInt())
		require.NoError(t, err)
		require.Equal(t, sdkmath.NewInt(250), realized)
		require.True(t, f.ledger.BalanceOf(tokenX, custodyAddr).IsZero())
		require.True(t, f.ledger.BalanceOf(tokenY, custodyAddr).IsZero())
		require.Equal(t, sdkmath.NewInt(250), f.ledger.BalanceOf(tokenZ, custodyAddr))
	})

	t.Run("external minimum applies to the final hop only", func(t *testing.T) {
		f := newExecutorFixture(t)
		f.ledger.Mint(tokenX, custodyAddr, sdkmath.NewInt(1000))
		f.quoter.SetRate(tokenX, tokenY, 10, 1, 2)
		f.quoter.SetRate(tokenY, tokenZ, 50, 1, 2)

		// Hop 1 realizes 500, which would fail a 400 external minimum if it
		// were applied there; it must only bind the 250 of hop 2.
		_, err := f.executor.ConvertVia(ctx, tokenX, tokenY, tokenZ, sdkmath.NewInt(1000), 10, 50, sdkmath.NewInt(400))
		require.Error(t, err)
		require.Contains(t, err.Error(), "hop 2")
	})

	t.Run("first-hop failure is attributed", func(t *testing.T) {
		f := newExecutorFixture(t)
		f.ledger.Mint(tokenX, custodyAddr, sdkmath.NewInt(1000))
		// Only the second hop has a pool.
		f.quoter.SetRate(tokenY, tokenZ, 50, 1, 1)

		_, err := f.executor.ConvertVia(ctx, tokenX, tokenY, tokenZ, sdkmath.NewInt(1000), 10, 50, sdkmath.ZeroInt())
		require.Error(t, err)
		require.Contains(t, err.Error(), "hop 1")
		require.ErrorIs(t, err, ErrZeroQuote)
	})
}
