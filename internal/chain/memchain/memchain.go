/*

Package memchain provides deterministic in-memory implementations of the
chain interfaces: an ERC-20 style ledger, gauges, a quoter, a swap router
and a rewards distributor. The harvester core runs against these in unit
tests and in paper mode, exactly as it runs against the live EVM adapters.

*/

package memchain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/solidex-labs/harvester/internal/chain"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrNoRoute               = errors.New("no route between tokens")
	ErrBelowMinOut           = errors.New("output below minimum")
	ErrClaimReverted         = errors.New("gauge claim reverted")
	ErrStagingRejected       = errors.New("previous staging round not finalized")
)

// pairKey identifies one directional pool: tokenIn -> tokenOut at a granularity.
type pairKey struct {
	in   common.Address
	out  common.Address
	gran int64
}

// Ledger is the in-memory token bank. It tracks balances, allowances and
// which addresses count as deployed contracts.
type Ledger struct {
	mu         sync.Mutex
	balances   map[common.Address]map[common.Address]sdkmath.Int            // token -> holder -> amount
	allowances map[common.Address]map[common.Address]map[common.Address]sdkmath.Int // token -> owner -> spender
	code       map[common.Address]bool
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		balances:   make(map[common.Address]map[common.Address]sdkmath.Int),
		allowances: make(map[common.Address]map[common.Address]map[common.Address]sdkmath.Int),
		code:       make(map[common.Address]bool),
	}
}

// Mint credits an account with freshly created tokens.
func (l *Ledger) Mint(token, to common.Address, amount sdkmath.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(token, to, amount)
}

// SetCode marks an address as having deployed contract code.
func (l *Ledger) SetCode(addr common.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.code[addr] = true
}

// HasCode implements chain.CodeChecker.
func (l *Ledger) HasCode(_ context.Context, addr common.Address) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.code[addr], nil
}

// ForAccount returns a chain.TokenSource whose token handles transfer and
// approve on behalf of owner.
func (l *Ledger) ForAccount(owner common.Address) chain.TokenSource {
	return &accountView{ledger: l, owner: owner}
}

type accountView struct {
	ledger *Ledger
	owner  common.Address
}

func (v *accountView) Token(addr common.Address) chain.Token {
	return &memToken{ledger: v.ledger, addr: addr, owner: v.owner}
}

// BalanceOf reads a holder's balance directly, for test assertions.
func (l *Ledger) BalanceOf(token, holder common.Address) sdkmath.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance(token, holder)
}

// Allowance reads a spender's remaining allowance, for test assertions.
func (l *Ledger) Allowance(token, owner, spender common.Address) sdkmath.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	byOwner, ok := l.allowances[token]
	if !ok {
		return sdkmath.ZeroInt()
	}
	bySpender, ok := byOwner[owner]
	if !ok {
		return sdkmath.ZeroInt()
	}
	amount, ok := bySpender[spender]
	if !ok {
		return sdkmath.ZeroInt()
	}
	return amount
}

func (l *Ledger) balance(token, holder common.Address) sdkmath.Int {
	holders, ok := l.balances[token]
	if !ok {
		return sdkmath.ZeroInt()
	}
	amount, ok := holders[holder]
	if !ok {
		return sdkmath.ZeroInt()
	}
	return amount
}

func (l *Ledger) credit(token, to common.Address, amount sdkmath.Int) {
	if l.balances[token] == nil {
		l.balances[token] = make(map[common.Address]sdkmath.Int)
	}
	l.balances[token][to] = l.balance(token, to).Add(amount)
}

func (l *Ledger) debit(token, from common.Address, amount sdkmath.Int) error {
	current := l.balance(token, from)
	if current.LT(amount) {
		return fmt.Errorf("%w: token %s holder %s has %s, needs %s",
			ErrInsufficientBalance, token.Hex(), from.Hex(), current.String(), amount.String())
	}
	l.balances[token][from] = current.Sub(amount)
	return nil
}

func (l *Ledger) approve(token, owner, spender common.Address, amount sdkmath.Int) {
	if l.allowances[token] == nil {
		l.allowances[token] = make(map[common.Address]map[common.Address]sdkmath.Int)
	}
	if l.allowances[token][owner] == nil {
		l.allowances[token][owner] = make(map[common.Address]sdkmath.Int)
	}
	l.allowances[token][owner][spender] = amount
}

func (l *Ledger) spendAllowance(token, owner, spender common.Address, amount sdkmath.Int) error {
	byOwner, ok := l.allowances[token]
	if !ok {
		return ErrInsufficientAllowance
	}
	bySpender, ok := byOwner[owner]
	if !ok {
		return ErrInsufficientAllowance
	}
	granted, ok := bySpender[spender]
	if !ok || granted.LT(amount) {
		return ErrInsufficientAllowance
	}
	bySpender[spender] = granted.Sub(amount)
	return nil
}

// memToken adapts one ledger token to chain.Token.
type memToken struct {
	ledger *Ledger
	addr   common.Address
	owner  common.Address // set by Bind; the account Transfer/Approve act for
}

// Bind returns a token handle whose Transfer and Approve act on behalf of owner.
func (l *Ledger) Bind(token, owner common.Address) chain.Token {
	return &memToken{ledger: l, addr: token, owner: owner}
}

func (t *memToken) Address() common.Address { return t.addr }

func (t *memToken) BalanceOf(_ context.Context, account common.Address) (sdkmath.Int, error) {
	return t.ledger.BalanceOf(t.addr, account), nil
}

func (t *memToken) Transfer(_ context.Context, to common.Address, amount sdkmath.Int) error {
	t.ledger.mu.Lock()
	defer t.ledger.mu.Unlock()
	if err := t.ledger.debit(t.addr, t.owner, amount); err != nil {
		return err
	}
	t.ledger.credit(t.addr, to, amount)
	return nil
}

func (t *memToken) Approve(_ context.Context, spender common.Address, amount sdkmath.Int) error {
	t.ledger.mu.Lock()
	defer t.ledger.mu.Unlock()
	t.ledger.approve(t.addr, t.owner, spender, amount)
	return nil
}

// Gauge is an in-memory reward source. Rewards accrue via SetEarned and are
// minted to the claim recipient.
type Gauge struct {
	ledger       *Ledger
	addr         common.Address
	rewardToken  common.Address
	stakingToken common.Address

	mu         sync.Mutex
	earned     map[common.Address]sdkmath.Int
	staked     map[common.Address]sdkmath.Int
	failClaims bool
}

// NewGauge creates a gauge and registers its address as deployed code.
func NewGauge(ledger *Ledger, addr, rewardToken, stakingToken common.Address) *Gauge {
	ledger.SetCode(addr)
	return &Gauge{
		ledger:       ledger,
		addr:         addr,
		rewardToken:  rewardToken,
		stakingToken: stakingToken,
		earned:       make(map[common.Address]sdkmath.Int),
		staked:       make(map[common.Address]sdkmath.Int),
	}
}

// SetEarned sets the pending reward for an account.
func (g *Gauge) SetEarned(account common.Address, amount sdkmath.Int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.earned[account] = amount
}

// SetStaked records a staked position for an account.
func (g *Gauge) SetStaked(account common.Address, amount sdkmath.Int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.staked[account] = amount
}

// FailClaims makes every subsequent ClaimRewards call revert.
func (g *Gauge) FailClaims(fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failClaims = fail
}

func (g *Gauge) Address() common.Address { return g.addr }

func (g *Gauge) RewardToken(context.Context) (common.Address, error) {
	return g.rewardToken, nil
}

func (g *Gauge) StakingToken(context.Context) (common.Address, error) {
	return g.stakingToken, nil
}

func (g *Gauge) StakedBalance(_ context.Context, account common.Address) (sdkmath.Int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	amount, ok := g.staked[account]
	if !ok {
		return sdkmath.ZeroInt(), nil
	}
	return amount, nil
}

func (g *Gauge) Earned(_ context.Context, account common.Address) (sdkmath.Int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	amount, ok := g.earned[account]
	if !ok {
		return sdkmath.ZeroInt(), nil
	}
	return amount, nil
}

func (g *Gauge) ClaimRewards(_ context.Context, recipient common.Address) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failClaims {
		return fmt.Errorf("%w: gauge %s", ErrClaimReverted, g.addr.Hex())
	}
	amount, ok := g.earned[recipient]
	if !ok || amount.IsZero() {
		return nil
	}
	g.earned[recipient] = sdkmath.ZeroInt()
	g.ledger.Mint(g.rewardToken, recipient, amount)
	return nil
}

func (g *Gauge) Withdraw(_ context.Context, amount sdkmath.Int) error {
	// Staking custody in the in-memory model is tracked per gauge; withdrawn
	// tokens are minted back to whoever holds the staked position.
	g.mu.Lock()
	defer g.mu.Unlock()
	for account, staked := range g.staked {
		if staked.GTE(amount) {
			g.staked[account] = staked.Sub(amount)
			g.ledger.Mint(g.stakingToken, account, amount)
			return nil
		}
	}
	return fmt.Errorf("%w: gauge %s has no position covering %s",
		ErrInsufficientBalance, g.addr.Hex(), amount.String())
}

func (g *Gauge) Deposit(_ context.Context, amount sdkmath.Int, recipient common.Address) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	current, ok := g.staked[recipient]
	if !ok {
		current = sdkmath.ZeroInt()
	}
	g.staked[recipient] = current.Add(amount)
	return nil
}

// Quoter quotes at fixed rates per (tokenIn, tokenOut, granularity) pool.
type Quoter struct {
	mu    sync.Mutex
	rates map[pairKey][2]int64 // numerator, denominator
}

// NewQuoter creates a quoter with no configured pools.
func NewQuoter() *Quoter {
	return &Quoter{rates: make(map[pairKey][2]int64)}
}

// SetRate configures a pool: quotes return amountIn * num / den.
func (q *Quoter) SetRate(tokenIn, tokenOut common.Address, granularity, num, den int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rates[pairKey{tokenIn, tokenOut, granularity}] = [2]int64{num, den}
}

func (q *Quoter) Quote(_ context.Context, tokenIn, tokenOut common.Address, amountIn sdkmath.Int, granularity int64) (sdkmath.Int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	rate, ok := q.rates[pairKey{tokenIn, tokenOut, granularity}]
	if !ok {
		// No viable path quotes as zero rather than an error.
		return sdkmath.ZeroInt(), nil
	}
	return amountIn.MulRaw(rate[0]).QuoRaw(rate[1]), nil
}

// Router executes swaps against the ledger at the quoter's rates, with
// optional per-pool realized-output overrides to simulate price movement
// between quote and execution.
type Router struct {
	ledger *Ledger
	addr   common.Address
	quoter *Quoter

	mu            sync.Mutex
	realized      map[pairKey]sdkmath.Int
	enforceMinOut bool
}

// NewRouter creates a router bound to a ledger and quoter.
func NewRouter(ledger *Ledger, addr common.Address, quoter *Quoter) *Router {
	ledger.SetCode(addr)
	return &Router{
		ledger:        ledger,
		addr:          addr,
		quoter:        quoter,
		realized:      make(map[pairKey]sdkmath.Int),
		enforceMinOut: true,
	}
}

// SetRealized overrides the realized output of the next swaps on a pool.
func (r *Router) SetRealized(tokenIn, tokenOut common.Address, granularity int64, amount sdkmath.Int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.realized[pairKey{tokenIn, tokenOut, granularity}] = amount
}

// EnforceMinOut toggles the router's own minimum-output check. Disabling it
// lets tests exercise the caller's post-swap re-validation.
func (r *Router) EnforceMinOut(enforce bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enforceMinOut = enforce
}

func (r *Router) Address() common.Address { return r.addr }

func (r *Router) Swap(ctx context.Context, params chain.SwapParams) (sdkmath.Int, error) {
	realized, err := r.quoter.Quote(ctx, params.TokenIn, params.TokenOut, params.AmountIn, params.Granularity)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}

	r.mu.Lock()
	key := pairKey{params.TokenIn, params.TokenOut, params.Granularity}
	if override, ok := r.realized[key]; ok {
		realized = override
	}
	enforce := r.enforceMinOut
	r.mu.Unlock()

	if realized.IsZero() {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %s -> %s at granularity %d",
			ErrNoRoute, params.TokenIn.Hex(), params.TokenOut.Hex(), params.Granularity)
	}
	if enforce && realized.LT(params.MinOut) {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: realized %s < minimum %s",
			ErrBelowMinOut, realized.String(), params.MinOut.String())
	}

	r.ledger.mu.Lock()
	defer r.ledger.mu.Unlock()
	if err := r.ledger.spendAllowance(params.TokenIn, params.Recipient, r.addr, params.AmountIn); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := r.ledger.debit(params.TokenIn, params.Recipient, params.AmountIn); err != nil {
		return sdkmath.ZeroInt(), err
	}
	r.ledger.credit(params.TokenOut, params.Recipient, realized)
	return realized, nil
}

// Distributor records staged amounts and can simulate a not-ready downstream.
type Distributor struct {
	mu       sync.Mutex
	stagedA  sdkmath.Int
	stagedB  sdkmath.Int
	calls    int
	failNext bool
}

// NewDistributor creates a distributor with no staged rounds.
func NewDistributor() *Distributor {
	return &Distributor{stagedA: sdkmath.ZeroInt(), stagedB: sdkmath.ZeroInt()}
}

// FailNext makes the next StageRewards call reject.
func (d *Distributor) FailNext() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failNext = true
}

// Staged returns cumulative staged amounts and the number of staging calls.
func (d *Distributor) Staged() (sdkmath.Int, sdkmath.Int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stagedA, d.stagedB, d.calls
}

func (d *Distributor) StageRewards(_ context.Context, amountA, amountB sdkmath.Int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failNext {
		d.failNext = false
		return ErrStagingRejected
	}
	d.stagedA = d.stagedA.Add(amountA)
	d.stagedB = d.stagedB.Add(amountB)
	d.calls++
	return nil
}
