package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"paper-trader-go/internal/id"
	"paper-trader-go/internal/metrics"
	"paper-trader-go/internal/models"
	"paper-trader-go/internal/quotes"

	"go.uber.org/zap"
)

// Executor orchestrates single buy/sell trades against an account: it
// resolves the price, validates the trade against the current balance and
// holdings, and commits the balance mutation together with the ledger append.
//
// Trades for the same account are serialized by a per-account mutex held
// across the read-validate-write sequence, and the balance write and ledger
// append share one database transaction. Two concurrent trades can therefore
// never act on the same stale balance or leave the balance and ledger
// disagreeing.
type Executor struct {
	store   Store
	quotes  quotes.ProviderInterface
	logger  *zap.Logger
	metrics *metrics.Collector

	// accountID -> *sync.Mutex
	locks sync.Map
}

// NewExecutor creates a new trade executor. The metrics collector may be nil.
func NewExecutor(store Store, provider quotes.ProviderInterface, logger *zap.Logger, collector *metrics.Collector) *Executor {
	return &Executor{
		store:   store,
		quotes:  provider,
		logger:  logger,
		metrics: collector,
	}
}

func (e *Executor) lockFor(accountID string) *sync.Mutex {
	mu, _ := e.locks.LoadOrStore(accountID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// ExecuteTrade executes one buy or sell for the account and returns the new
// cash balance. The symbol is normalized to uppercase before lookup and
// storage. Nothing is retried here; rejected trades leave no state behind.
func (e *Executor) ExecuteTrade(ctx context.Context, accountID, symbol string, quantity float64, side models.Side) (float64, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	// Reject malformed input before any I/O.
	if symbol == "" {
		return 0, ErrInvalidSymbol
	}
	if quantity <= 0 {
		return 0, ErrInvalidQuantity
	}
	if !side.Valid() {
		return 0, ErrInvalidSide
	}

	started := time.Now()
	l := e.logger.With(
		zap.String("account_id", accountID),
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.Float64("quantity", quantity),
	)

	// Step 1: resolve the execution price. No side effects yet, so a
	// provider failure or timeout leaves balance and ledger untouched.
	quote, err := e.quotes.GetQuote(ctx, symbol)
	if err != nil {
		l.Warn("Price resolution failed", zap.Error(err))
		e.metrics.TradeRejected("price_unavailable")
		return 0, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}
	amount := quote.Price * quantity

	// Serialize trades per account for the whole read-validate-write span.
	mu := e.lockFor(accountID)
	mu.Lock()
	defer mu.Unlock()

	var newBalance float64
	err = e.store.Transact(ctx, func(s Store) error {
		acct, err := s.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}

		switch side {
		case models.SideBuy:
			if acct.Balance < amount {
				return ErrInsufficientFunds
			}
			newBalance = acct.Balance - amount
		case models.SideSell:
			txs, err := s.ListTransactions(ctx, accountID, ListOptions{Symbol: symbol})
			if err != nil {
				return err
			}
			holdings, oversold := ComputeHoldings(txs)
			if len(oversold) > 0 {
				l.Warn("Ledger integrity: sells exceed bought shares",
					zap.Strings("symbols", oversold))
			}
			if holdings[symbol].NetShares < quantity {
				return ErrInsufficientShares
			}
			newBalance = acct.Balance + amount
		}

		if err := s.SetBalance(ctx, accountID, newBalance); err != nil {
			return err
		}
		return s.AppendTransaction(ctx, &models.Transaction{
			ID:        id.New(),
			AccountID: accountID,
			Symbol:    symbol,
			Side:      side,
			Quantity:  quantity,
			Price:     quote.Price,
			Timestamp: time.Now().UnixMilli(),
		})
	})
	if err != nil {
		return 0, e.rejectTrade(l, err)
	}

	e.metrics.TradeExecuted(string(side), time.Since(started))
	e.metrics.SetBalance(accountID, newBalance)
	l.Info("Trade executed",
		zap.Float64("price", quote.Price),
		zap.Float64("amount", amount),
		zap.Float64("new_balance", newBalance),
	)
	return newBalance, nil
}

// rejectTrade classifies a failed trade for logging and metrics, wrapping
// unexpected store failures as persistence errors.
func (e *Executor) rejectTrade(l *zap.Logger, err error) error {
	switch {
	case isRejection(err):
		l.Info("Trade rejected", zap.Error(err))
		e.metrics.TradeRejected("rejected")
		return err
	default:
		l.Error("Trade failed", zap.Error(err))
		e.metrics.TradeRejected("persistence")
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
}

func isRejection(err error) bool {
	for _, sentinel := range []error{
		ErrInsufficientFunds,
		ErrInsufficientShares,
		ErrAccountNotFound,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
