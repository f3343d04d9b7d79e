package linxo

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/Veraticus/linxo/internal/model"
)

// TransactionPager fetches one page of an account's transactions.
// This interface lets the iterator run against a mock in tests.
type TransactionPager interface {
	GetTransactionsPage(ctx context.Context, accountID string, page int, startDate, endDate *civil.Date, limit int) ([]model.Transaction, error)
}
