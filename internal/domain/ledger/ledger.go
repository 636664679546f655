// Package ledger implements the atomic balance-adjustment primitive used by
// every fund-moving operation. All arithmetic is checked: underflow and
// overflow abort the transfer instead of wrapping. Callers persist the
// returned pair inside a single database transaction, so the debit and credit
// are never visible separately.
package ledger

import "errors"

var (
	// ErrInsufficientFunds is returned when the requested amount exceeds
	// the balance available above the reserve floor.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAmountOverflow is returned when crediting the destination would
	// overflow its balance.
	ErrAmountOverflow = errors.New("amount overflows destination balance")

	// ErrSameAccount is returned when a transfer names one account as both
	// source and destination. Applying the debit and credit to independent
	// copies of the same row would mint funds.
	ErrSameAccount = errors.New("transfer source and destination are the same account")
)

// Available returns the portion of a balance eligible for withdrawal, i.e.
// the balance above the reserve floor. A balance at or below the floor has
// nothing available.
func Available(balance, reserveFloor uint64) uint64 {
	if balance <= reserveFloor {
		return 0
	}
	return balance - reserveFloor
}

// Transfer computes the result of moving amount from one balance to another,
// keeping fromReserveFloor behind in the source. It validates everything
// before reporting any result: on error both balances are returned unchanged.
func Transfer(fromBalance, toBalance, amount, fromReserveFloor uint64) (newFrom, newTo uint64, err error) {
	if amount > Available(fromBalance, fromReserveFloor) {
		return fromBalance, toBalance, ErrInsufficientFunds
	}
	if toBalance > ^uint64(0)-amount {
		return fromBalance, toBalance, ErrAmountOverflow
	}
	return fromBalance - amount, toBalance + amount, nil
}
