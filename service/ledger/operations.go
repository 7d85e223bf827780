package ledger

import (
	"errors"

	"github.com/ericlagergren/decimal"
	"gitlab.com/sfr-tokyo/economy_api/conv"
)

var ErrInsufficientFunds = errors.New("INSUFFICIENT_FUNDS")
var ErrInvalidAmount = errors.New("INVALID_AMOUNT")
var ErrAccountFrozen = errors.New("ACCOUNT_FROZEN")

func checkNaNs(amount *decimal.Big) error {
	if conv.NewDecimalWithPrecision().CheckNaNs(amount, nil) {
		return errors.New("amount is NaN")
	}
	return nil
}

func (account *AccountLedger) GetUserID() uint64 {
	return account.userID
}

func (account *AccountLedger) GetSpaceID() uint64 {
	return account.spaceID
}

func (account *AccountLedger) GetBalance() BalanceView {
	account.balanceLock.RLock()
	defer account.balanceLock.RUnlock()
	return BalanceView{
		Current:   conv.CloneToPrecision(account.balance.Current),
		Earned:    conv.CloneToPrecision(account.balance.Earned),
		Spent:     conv.CloneToPrecision(account.balance.Spent),
		Collected: conv.CloneToPrecision(account.balance.Collected),
	}
}

func (account *AccountLedger) IsFrozen() bool {
	account.balanceLock.RLock()
	defer account.balanceLock.RUnlock()
	return account.frozen
}

func (account *AccountLedger) SetFrozen(frozen bool) {
	account.balanceLock.Lock()
	account.frozen = frozen
	account.balanceLock.Unlock()
}

// IsCollectionTarget reports whether this account is strictly over the
// threshold and eligible for collection
func (account *AccountLedger) IsCollectionTarget(threshold *decimal.Big) bool {
	account.balanceLock.RLock()
	defer account.balanceLock.RUnlock()
	return !account.collectionExempt &&
		!account.frozen &&
		threshold != nil &&
		account.balance.Current.Cmp(threshold) > 0
}

// DoCredit adds the amount to the account and returns the before/after
// snapshot for the history entry
func (account *AccountLedger) DoCredit(amount *decimal.Big) (Snapshot, error) {
	if err := checkNaNs(amount); err != nil {
		return Snapshot{}, ErrInvalidAmount
	}
	if amount == nil || amount.Sign() <= 0 {
		return Snapshot{}, ErrInvalidAmount
	}

	account.balanceLock.Lock()
	defer account.balanceLock.Unlock()

	if account.frozen {
		return Snapshot{}, ErrAccountFrozen
	}

	before := conv.CloneToPrecision(account.balance.Current)
	account.balance.Current.Add(account.balance.Current, amount)
	account.balance.Earned.Add(account.balance.Earned, amount)

	return Snapshot{Before: before, After: conv.CloneToPrecision(account.balance.Current)}, nil
}

// DoDebit removes the amount from the account. Fails without mutation when
// the balance does not cover it.
func (account *AccountLedger) DoDebit(amount *decimal.Big) (Snapshot, error) {
	if err := checkNaNs(amount); err != nil {
		return Snapshot{}, ErrInvalidAmount
	}
	if amount == nil || amount.Sign() <= 0 {
		return Snapshot{}, ErrInvalidAmount
	}

	account.balanceLock.Lock()
	defer account.balanceLock.Unlock()

	if account.frozen {
		return Snapshot{}, ErrAccountFrozen
	}
	if account.balance.Current.Cmp(amount) < 0 {
		return Snapshot{}, ErrInsufficientFunds
	}

	before := conv.CloneToPrecision(account.balance.Current)
	account.balance.Current.Sub(account.balance.Current, amount)
	account.balance.Spent.Add(account.balance.Spent, amount)

	return Snapshot{Before: before, After: conv.CloneToPrecision(account.balance.Current)}, nil
}

// DoCollect reclaims the amount into the collected total
func (account *AccountLedger) DoCollect(amount *decimal.Big) (Snapshot, error) {
	if err := checkNaNs(amount); err != nil {
		return Snapshot{}, ErrInvalidAmount
	}
	if amount == nil || amount.Sign() <= 0 {
		return Snapshot{}, ErrInvalidAmount
	}

	account.balanceLock.Lock()
	defer account.balanceLock.Unlock()

	if account.frozen {
		return Snapshot{}, ErrAccountFrozen
	}
	if account.balance.Current.Cmp(amount) < 0 {
		return Snapshot{}, ErrInsufficientFunds
	}

	before := conv.CloneToPrecision(account.balance.Current)
	account.balance.Current.Sub(account.balance.Current, amount)
	account.balance.Collected.Add(account.balance.Collected, amount)

	return Snapshot{Before: before, After: conv.CloneToPrecision(account.balance.Current)}, nil
}

type WrappedCallable func(balance BalanceView) error

// Wrap runs a callback under the account lock, for compound checks that must
// not race with mutations
func (le *LedgerEngine) Wrap(spaceID, userID uint64, callback WrappedCallable) error {
	account, err := le.GetAccountLedger(spaceID, userID)
	if err != nil {
		return err
	}

	account.balanceLock.Lock()
	defer account.balanceLock.Unlock()

	return callback(account.balance)
}
