package linxo

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/Veraticus/linxo/internal/model"
)

// MockPager is a mock implementation of TransactionPager for testing.
type MockPager struct {
	// GetTransactionsPageFn controls the result of each call when set.
	GetTransactionsPageFn func(ctx context.Context, accountID string, page int, startDate, endDate *civil.Date, limit int) ([]model.Transaction, error)

	// Call tracking
	GetTransactionsPageCalls []GetTransactionsPageCall
}

// GetTransactionsPageCall records the parameters of a GetTransactionsPage call.
type GetTransactionsPageCall struct {
	StartDate *civil.Date
	EndDate   *civil.Date
	AccountID string
	Page      int
	Limit     int
}

// NewMockPager creates a new mock pager.
func NewMockPager() *MockPager {
	return &MockPager{
		GetTransactionsPageCalls: []GetTransactionsPageCall{},
	}
}

// NewPagesMock returns a mock serving pages[i] for page i+1 and an empty
// page past the end.
func NewPagesMock(pages ...[]model.Transaction) *MockPager {
	m := NewMockPager()
	m.GetTransactionsPageFn = func(_ context.Context, _ string, page int, _, _ *civil.Date, _ int) ([]model.Transaction, error) {
		if page-1 < len(pages) {
			return pages[page-1], nil
		}
		return []model.Transaction{}, nil
	}
	return m
}

// GetTransactionsPage implements TransactionPager.
func (m *MockPager) GetTransactionsPage(ctx context.Context, accountID string, page int, startDate, endDate *civil.Date, limit int) ([]model.Transaction, error) {
	m.GetTransactionsPageCalls = append(m.GetTransactionsPageCalls, GetTransactionsPageCall{
		AccountID: accountID,
		Page:      page,
		StartDate: startDate,
		EndDate:   endDate,
		Limit:     limit,
	})

	if m.GetTransactionsPageFn != nil {
		return m.GetTransactionsPageFn(ctx, accountID, page, startDate, endDate, limit)
	}

	// Default behavior: no transactions
	return []model.Transaction{}, nil
}

// PagesRequested returns the page numbers requested so far, in order.
func (m *MockPager) PagesRequested() []int {
	pages := make([]int, 0, len(m.GetTransactionsPageCalls))
	for _, call := range m.GetTransactionsPageCalls {
		pages = append(pages, call.Page)
	}
	return pages
}

// Reset clears all call tracking.
func (m *MockPager) Reset() {
	m.GetTransactionsPageCalls = []GetTransactionsPageCall{}
}

// Ensure MockPager implements TransactionPager.
var _ TransactionPager = (*MockPager)(nil)
