package campaign

import "math"

// MaxMoney caps every wallet; about 1 billion.
const MaxMoney = math.MaxInt32 / 2

// Wallet holds a balance. The bank has an empty OwnerID; personal
// wallets (split-wallet multiplayer) carry the owning character's id.
// Balance only moves through TryDeduct/Give so the clamp and change
// events cannot be bypassed.
type Wallet struct {
	ownerID string
	balance int

	onChanged []func(WalletChange)
}

type WalletChange struct {
	OwnerID string
	Delta   int
	Balance int
}

func NewWallet(ownerID string, balance int) *Wallet {
	return &Wallet{ownerID: ownerID, balance: clampMoney(balance)}
}

func (w *Wallet) OwnerID() string { return w.ownerID }
func (w *Wallet) Balance() int    { return w.balance }

func (w *Wallet) CanAfford(cost int) bool { return w.balance >= cost }

// TryDeduct removes amount from the balance. Fails without side effects
// when the balance is short (or the amount is negative).
func (w *Wallet) TryDeduct(amount int) bool {
	if amount < 0 || w.balance < amount {
		return false
	}
	w.set(w.balance - amount)
	return true
}

// Give adds amount, clamped to [0, MaxMoney].
func (w *Wallet) Give(amount int) {
	w.set(w.balance + amount)
}

func (w *Wallet) set(balance int) {
	balance = clampMoney(balance)
	if balance == w.balance {
		return
	}
	delta := balance - w.balance
	w.balance = balance
	for _, fn := range w.onChanged {
		fn(WalletChange{OwnerID: w.ownerID, Delta: delta, Balance: w.balance})
	}
}

// Restore sets the balance directly without firing change events; used
// only when loading a save.
func (w *Wallet) Restore(balance int) {
	w.balance = clampMoney(balance)
}

func (w *Wallet) OnChanged(fn func(WalletChange)) {
	w.onChanged = append(w.onChanged, fn)
}

func clampMoney(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxMoney {
		return MaxMoney
	}
	return v
}
