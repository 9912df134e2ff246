package ledger

import (
	"context"

	"go.uber.org/zap"
)

// Portfolio returns the account's current holdings: the full transaction
// history folded through FIFO lot accounting. Symbols fully sold off are
// omitted. With no intervening trades, repeated calls return identical
// results.
func (e *Executor) Portfolio(ctx context.Context, accountID string) (map[string]Holding, error) {
	txs, err := e.store.ListTransactions(ctx, accountID, ListOptions{})
	if err != nil {
		return nil, err
	}

	holdings, oversold := ComputeHoldings(txs)
	if len(oversold) > 0 {
		e.logger.Warn("Ledger integrity: sells exceed bought shares",
			zap.String("account_id", accountID),
			zap.Strings("symbols", oversold))
	}
	return holdings, nil
}
