package linxo

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/Veraticus/linxo/internal/model"
)

// DefaultPageSize is the number of transactions requested per page.
const DefaultPageSize = 100

// TransactionIterator walks every transaction of one account, fetching pages
// lazily. A full page is never taken as the last one: the iterator always
// requests the following page and stops only when it comes back empty.
//
// The usual loop is:
//
//	for {
//		ok, err := it.HasNext(ctx)
//		if err != nil || !ok {
//			break
//		}
//		tx := it.Current()
//		it.Advance()
//	}
//
// A TransactionIterator is not safe for concurrent use.
type TransactionIterator struct {
	pager     TransactionPager
	startDate *civil.Date
	endDate   *civil.Date
	buffer    []model.Transaction
	accountID string
	page      int
	offset    int
	loaded    bool
}

// NewTransactionIterator creates an iterator positioned before the first
// transaction. No request is made until HasNext is called.
func NewTransactionIterator(pager TransactionPager, accountID string, startDate, endDate *civil.Date) *TransactionIterator {
	return &TransactionIterator{
		pager:     pager,
		accountID: accountID,
		startDate: copyDate(startDate),
		endDate:   copyDate(endDate),
		page:      1,
	}
}

// HasNext reports whether a transaction is available at the current position,
// fetching pages as needed. Once an empty page has been seen it returns false
// without further requests. A fetch error is returned unchanged and leaves the
// position untouched, so calling HasNext again retries the same page.
func (it *TransactionIterator) HasNext(ctx context.Context) (bool, error) {
	for {
		if !it.loaded {
			txs, err := it.pager.GetTransactionsPage(ctx, it.accountID, it.page, it.startDate, it.endDate, DefaultPageSize)
			if err != nil {
				return false, err
			}
			it.buffer = txs
			it.loaded = true
		}

		if len(it.buffer) == 0 {
			return false, nil
		}
		if it.offset < len(it.buffer) {
			return true, nil
		}

		it.page++
		it.offset = 0
		it.buffer = nil
		it.loaded = false
	}
}

// Current returns the transaction at the current position. It is only
// meaningful after HasNext returned true; otherwise it returns the zero value.
func (it *TransactionIterator) Current() model.Transaction {
	if !it.loaded || it.offset < 0 || it.offset >= len(it.buffer) {
		return model.Transaction{}
	}
	return it.buffer[it.offset]
}

// Advance moves past the current transaction. It never fetches.
func (it *TransactionIterator) Advance() {
	it.offset++
}

// Position is the zero-based index of the current transaction across all pages.
func (it *TransactionIterator) Position() int {
	return DefaultPageSize*(it.page-1) + it.offset
}

// Page is the one-based page the iterator is on.
func (it *TransactionIterator) Page() int {
	return it.page
}

// Exhausted reports whether an empty page has ended the stream.
func (it *TransactionIterator) Exhausted() bool {
	return it.loaded && len(it.buffer) == 0
}

// Restart rewinds to the first transaction. The first page is fetched again
// on the next HasNext, unless the iterator is already at the start.
func (it *TransactionIterator) Restart() {
	if it.page == 1 && it.offset == 0 {
		return
	}
	it.page = 1
	it.offset = 0
	it.buffer = nil
	it.loaded = false
}

// ForEach calls fn with each remaining transaction and its position until the
// stream ends, fn returns an error, or a fetch fails.
func (it *TransactionIterator) ForEach(ctx context.Context, fn func(position int, tx model.Transaction) error) error {
	for {
		ok, err := it.HasNext(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := fn(it.Position(), it.Current()); err != nil {
			return err
		}
		it.Advance()
	}
}

func copyDate(d *civil.Date) *civil.Date {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
