package registry

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/solidex-labs/harvester/internal/chain/memchain"
)

var (
	rewardTokenAddr  = common.HexToAddress("0x0000000000000000000000000000000000000B01")
	stakingTokenAddr = common.HexToAddress("0x0000000000000000000000000000000000000B02")
)

func gaugeAddr(i byte) common.Address {
	return common.BytesToAddress([]byte{0xCA, 0xFE, i})
}

func newTestGauge(ledger *memchain.Ledger, i byte) *memchain.Gauge {
	return memchain.NewGauge(ledger, gaugeAddr(i), rewardTokenAddr, stakingTokenAddr)
}

func TestRegistryAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("registers a valid gauge", func(t *testing.T) {
		ledger := memchain.NewLedger()
		reg, err := New(ledger)
		require.NoError(t, err)

		gauge := newTestGauge(ledger, 1)
		entry, err := reg.Add(ctx, gauge)
		require.NoError(t, err)
		require.Equal(t, gauge.Address(), entry.Address)
		require.Equal(t, rewardTokenAddr, entry.RewardToken)
		require.Equal(t, stakingTokenAddr, entry.StakingToken)
		require.Equal(t, 1, reg.Count())
		require.True(t, reg.Contains(gauge.Address()))
	})

	t.Run("rejects an address without contract code", func(t *testing.T) {
		ledger := memchain.NewLedger()
		reg, err := New(ledger)
		require.NoError(t, err)

		// Build the gauge against a separate ledger so its address is never
		// marked as deployed in the registry's ledger.
		other := memchain.NewLedger()
		gauge := newTestGauge(other, 1)

		_, err = reg.Add(ctx, gauge)
		require.ErrorIs(t, err, ErrNoContractCode)
		require.Equal(t, 0, reg.Count())
	})

	t.Run("rejects a duplicate registration", func(t *testing.T) {
		ledger := memchain.NewLedger()
		reg, err := New(ledger)
		require.NoError(t, err)

		gauge := newTestGauge(ledger, 1)
		_, err = reg.Add(ctx, gauge)
		require.NoError(t, err)

		_, err = reg.Add(ctx, gauge)
		require.ErrorIs(t, err, ErrAlreadyRegistered)
		require.Equal(t, 1, reg.Count())
	})

	t.Run("rejects a gauge with a zero reward token", func(t *testing.T) {
		ledger := memchain.NewLedger()
		reg, err := New(ledger)
		require.NoError(t, err)

		gauge := memchain.NewGauge(ledger, gaugeAddr(1), common.Address{}, stakingTokenAddr)
		_, err = reg.Add(ctx, gauge)
		require.ErrorIs(t, err, ErrNoRewardToken)
	})

	t.Run("rejects a gauge with a zero staking token", func(t *testing.T) {
		ledger := memchain.NewLedger()
		reg, err := New(ledger)
		require.NoError(t, err)

		gauge := memchain.NewGauge(ledger, gaugeAddr(1), rewardTokenAddr, common.Address{})
		_, err = reg.Add(ctx, gauge)
		require.ErrorIs(t, err, ErrNoStakingToken)
	})

	t.Run("rejects nil", func(t *testing.T) {
		ledger := memchain.NewLedger()
		reg, err := New(ledger)
		require.NoError(t, err)

		_, err = reg.Add(ctx, nil)
		require.Error(t, err)
	})
}

func TestRegistryRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("swap-with-last moves the final gauge into the vacated slot", func(t *testing.T) {
		ledger := memchain.NewLedger()
		reg, err := New(ledger)
		require.NoError(t, err)

		g1 := newTestGauge(ledger, 1)
		g2 := newTestGauge(ledger, 2)
		g3 := newTestGauge(ledger, 3)
		for _, g := range []*memchain.Gauge{g1, g2, g3} {
			_, err := reg.Add(ctx, g)
			require.NoError(t, err)
		}

		removed, err := reg.Remove(g1.Address())
		require.NoError(t, err)
		require.Equal(t, g1.Address(), removed.Address)
		require.Equal(t, 2, reg.Count())

		// The last gauge now occupies slot 0.
		at0, err := reg.At(0)
		require.NoError(t, err)
		require.Equal(t, g3.Address(), at0.Address())

		// The moved gauge remains reachable by address.
		byAddr, err := reg.Gauge(g3.Address())
		require.NoError(t, err)
		require.Equal(t, g3.Address(), byAddr.Address())
	})

	t.Run("removing the only gauge empties the registry", func(t *testing.T) {
		ledger := memchain.NewLedger()
		reg, err := New(ledger)
		require.NoError(t, err)

		g1 := newTestGauge(ledger, 1)
		_, err = reg.Add(ctx, g1)
		require.NoError(t, err)

		_, err = reg.Remove(g1.Address())
		require.NoError(t, err)
		require.Equal(t, 0, reg.Count())
		require.False(t, reg.Contains(g1.Address()))
	})

	t.Run("removing an unregistered gauge fails", func(t *testing.T) {
		ledger := memchain.NewLedger()
		reg, err := New(ledger)
		require.NoError(t, err)

		_, err = reg.Remove(gaugeAddr(9))
		require.ErrorIs(t, err, ErrNotRegistered)
	})

	t.Run("index stays consistent across repeated removals", func(t *testing.T) {
		ledger := memchain.NewLedger()
		reg, err := New(ledger)
		require.NoError(t, err)

		var gauges []*memchain.Gauge
		for i := byte(1); i <= 5; i++ {
			g := newTestGauge(ledger, i)
			gauges = append(gauges, g)
			_, err := reg.Add(ctx, g)
			require.NoError(t, err)
		}

		for _, g := range gauges {
			_, err := reg.Remove(g.Address())
			require.NoError(t, err)

			// Every remaining gauge is still reachable both by index and address.
			for i := 0; i < reg.Count(); i++ {
				at, err := reg.At(i)
				require.NoError(t, err)
				byAddr, err := reg.Gauge(at.Address())
				require.NoError(t, err)
				require.Equal(t, at.Address(), byAddr.Address())
			}
		}
		require.Equal(t, 0, reg.Count())
	})
}

func TestRegistryAccessors(t *testing.T) {
	ctx := context.Background()

	ledger := memchain.NewLedger()
	reg, err := New(ledger)
	require.NoError(t, err)

	g1 := newTestGauge(ledger, 1)
	g2 := newTestGauge(ledger, 2)
	_, err = reg.Add(ctx, g1)
	require.NoError(t, err)
	_, err = reg.Add(ctx, g2)
	require.NoError(t, err)

	t.Run("At bounds are enforced", func(t *testing.T) {
		_, err := reg.At(-1)
		require.ErrorIs(t, err, ErrIndexOutOfRange)
		_, err = reg.At(2)
		require.ErrorIs(t, err, ErrIndexOutOfRange)
	})

	t.Run("Entries mirror Gauges ordering", func(t *testing.T) {
		gauges := reg.Gauges()
		entries := reg.Entries()
		require.Len(t, gauges, 2)
		require.Len(t, entries, 2)
		for i := range gauges {
			require.Equal(t, gauges[i].Address(), entries[i].Address)
		}
	})

	t.Run("Entry of unknown address fails", func(t *testing.T) {
		_, err := reg.Entry(gaugeAddr(9))
		require.ErrorIs(t, err, ErrNotRegistered)
	})
}
