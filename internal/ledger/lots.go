package ledger

import (
	"sort"

	"paper-trader-go/internal/models"
)

// Lot is a block of shares acquired in one buy transaction, tracked with its
// own cost basis until fully consumed by sells.
type Lot struct {
	Quantity float64
	Price    float64
}

// Holding is the derived current position in a symbol.
type Holding struct {
	NetShares float64 `json:"netShares"`
	Invested  float64 `json:"invested"`
}

// ComputeHoldings folds an account's transaction history into per-symbol
// holdings using FIFO lot consumption: each buy pushes a lot, each sell
// consumes lots oldest-first.
//
// Transactions are sorted ascending by (Timestamp, ID) before folding, so
// unordered store results are handled; ULID ids preserve insertion order for
// same-millisecond records. The fold is pure and deterministic.
//
// A sell that consumes more shares than the lots hold indicates a corrupted
// history (sells are validated before they are appended). The fold does not
// error on it; the affected symbols are reported in oversold so callers can
// log a data-integrity warning.
func ComputeHoldings(txs []models.Transaction) (holdings map[string]Holding, oversold []string) {
	ordered := make([]models.Transaction, len(txs))
	copy(ordered, txs)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Timestamp != ordered[j].Timestamp {
			return ordered[i].Timestamp < ordered[j].Timestamp
		}
		return ordered[i].ID < ordered[j].ID
	})

	lots := make(map[string][]Lot)
	flagged := make(map[string]bool)

	for _, tx := range ordered {
		switch tx.Side {
		case models.SideBuy:
			lots[tx.Symbol] = append(lots[tx.Symbol], Lot{Quantity: tx.Quantity, Price: tx.Price})
		case models.SideSell:
			queue := lots[tx.Symbol]
			toSell := tx.Quantity
			for toSell > 0 && len(queue) > 0 {
				front := &queue[0]
				if front.Quantity <= toSell {
					toSell -= front.Quantity
					queue = queue[1:]
				} else {
					front.Quantity -= toSell
					toSell = 0
				}
			}
			lots[tx.Symbol] = queue
			if toSell > 0 && !flagged[tx.Symbol] {
				flagged[tx.Symbol] = true
				oversold = append(oversold, tx.Symbol)
			}
		}
	}

	holdings = make(map[string]Holding)
	for symbol, queue := range lots {
		var netShares, invested float64
		for _, lot := range queue {
			netShares += lot.Quantity
			invested += lot.Quantity * lot.Price
		}
		if netShares > 0 {
			holdings[symbol] = Holding{NetShares: netShares, Invested: invested}
		}
	}
	sort.Strings(oversold)
	return holdings, oversold
}
