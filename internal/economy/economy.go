// Package economy maintains per-user GameCoins balances. Balances live in
// the same document as the shop state so a purchase debit and its purchase
// record always persist in one wholesale save.
package economy

import (
	"context"
	"fmt"

	"github.com/shopbot-core/server/internal/model"
	"github.com/shopbot-core/server/internal/store"
	logx "github.com/shopbot-core/server/pkg/logger"
)

// BalanceOf reads a user's balance from an already loaded document.
func BalanceOf(doc *model.Document, userID string) int64 {
	if doc.Economy == nil {
		return 0
	}
	return doc.Economy[userID]
}

// Credit adds coins to a user's balance inside an already loaded document.
func Credit(doc *model.Document, userID string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amount)
	}
	if doc.Economy == nil {
		doc.Economy = map[string]int64{}
	}
	doc.Economy[userID] += amount
	return nil
}

// Debit removes coins from a user's balance inside an already loaded
// document. It fails without mutating when the balance does not cover amount.
func Debit(doc *model.Document, userID string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("debit amount must be positive, got %d", amount)
	}
	balance := BalanceOf(doc, userID)
	if balance < amount {
		return fmt.Errorf("balance %d does not cover debit of %d", balance, amount)
	}
	doc.Economy[userID] = balance - amount
	return nil
}

// Ledger is the standalone balance service used by admin commands and the
// presentation layer. Purchase debits do not go through it; the shop mutates
// the document directly so debit and purchase record share one save. Both
// paths serialise on the store's write lock via store.Update.
type Ledger struct {
	store store.Store
}

func NewLedger(s store.Store) *Ledger {
	return &Ledger{store: s}
}

func (l *Ledger) Balance(ctx context.Context, userID string) (int64, error) {
	doc, err := l.store.Load(ctx)
	if err != nil {
		return 0, err
	}
	return BalanceOf(doc, userID), nil
}

func (l *Ledger) Add(ctx context.Context, userID string, amount int64, reason string) error {
	err := l.store.Update(ctx, func(doc *model.Document) (bool, error) {
		if err := Credit(doc, userID, amount); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return err
	}
	logx.Info().Str("user_id", userID).Int64("amount", amount).Str("reason", reason).Msg("coins added")
	return nil
}

func (l *Ledger) Remove(ctx context.Context, userID string, amount int64, reason string) error {
	err := l.store.Update(ctx, func(doc *model.Document) (bool, error) {
		if err := Debit(doc, userID, amount); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return err
	}
	logx.Info().Str("user_id", userID).Int64("amount", amount).Str("reason", reason).Msg("coins removed")
	return nil
}
