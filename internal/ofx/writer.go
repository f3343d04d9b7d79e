// Package ofx exports Linxo transactions as OFX bank statements.
package ofx

import (
	"fmt"
	"io"
	"log/slog"
	"time"
	"unicode/utf8"

	"cloud.google.com/go/civil"
	"github.com/Veraticus/linxo/internal/linxo"
	"github.com/Veraticus/linxo/internal/model"
	"github.com/aclindsa/ofxgo"
	"github.com/google/uuid"
)

// DefaultBankID is written as BANKID when the account carries no bank code.
const DefaultBankID = "LINXO"

// maxNameLength is the OFX limit for STMTTRN>NAME.
const maxNameLength = 32

// Writer collects transactions of one account and writes them as a single
// OFX statement on Close.
type Writer struct {
	w       io.Writer
	now     func() time.Time
	start   *civil.Date
	end     *civil.Date
	logger  *slog.Logger
	account model.Account
	txs     []ofxgo.Transaction
	first   civil.Date
	last    civil.Date
}

// Option customizes a Writer.
type Option func(*Writer)

// WithPeriod sets the statement period. Without it the period spans the
// written transactions.
func WithPeriod(start, end *civil.Date) Option {
	return func(x *Writer) {
		x.start = start
		x.end = end
	}
}

// WithClock sets the clock used for the server timestamp.
func WithClock(now func() time.Time) Option {
	return func(x *Writer) {
		x.now = now
	}
}

// NewWriter creates a statement writer for account.
func NewWriter(w io.Writer, account model.Account, opts ...Option) *Writer {
	x := &Writer{
		w:       w,
		account: account,
		now:     time.Now,
		logger:  slog.Default().With("component", "ofx"),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Write adds a transaction to the statement. Transactions must be in the
// account currency.
func (x *Writer) Write(tx model.Transaction) error {
	if cur := x.account.Balance.Currency; cur != "" && tx.Amount.Currency != "" && tx.Amount.Currency != cur {
		return fmt.Errorf("transaction %s is in %s, statement is in %s", tx.ID, tx.Amount.Currency, cur)
	}

	var ofxTx ofxgo.Transaction
	setTrnType(&ofxTx, tx.Type)
	ofxTx.DtPosted = ofxgo.Date{Time: tx.Date.In(linxo.ReferenceLocation)}
	ofxTx.TrnAmt.SetFrac64(tx.Amount.Amount, model.MinorUnitsPerMajor)
	ofxTx.FiTID = ofxgo.String(tx.ID)
	ofxTx.Name = ofxgo.String(truncate(tx.DisplayLabel(), maxNameLength))
	if tx.Notes != nil {
		ofxTx.Memo = ofxgo.String(*tx.Notes)
	}

	if len(x.txs) == 0 || tx.Date.Before(x.first) {
		x.first = tx.Date
	}
	if len(x.txs) == 0 || tx.Date.After(x.last) {
		x.last = tx.Date
	}
	x.txs = append(x.txs, ofxTx)
	return nil
}

// Close marshals the statement and writes it.
func (x *Writer) Close() error {
	currency := x.account.Balance.Currency
	if currency == "" {
		currency = "EUR"
	}
	curDef, err := ofxgo.NewCurrSymbol(currency)
	if err != nil {
		return fmt.Errorf("invalid currency %q: %w", currency, err)
	}

	acctID := x.account.ID
	if x.account.IBAN != nil && *x.account.IBAN != "" {
		acctID = *x.account.IBAN
	}

	now := x.now()
	start, end := x.period(now)

	stmt := &ofxgo.StatementResponse{
		TrnUID: ofxgo.UID(uuid.NewString()),
		Status: ofxgo.Status{Code: 0, Severity: "INFO"},
		CurDef: *curDef,
		BankAcctFrom: ofxgo.BankAcct{
			BankID:   DefaultBankID,
			AcctID:   ofxgo.String(acctID),
			AcctType: ofxgo.AcctTypeChecking,
		},
		BankTranList: &ofxgo.TransactionList{
			DtStart:      ofxgo.Date{Time: start},
			DtEnd:        ofxgo.Date{Time: end},
			Transactions: x.txs,
		},
		DtAsOf: ofxgo.Date{Time: now},
	}
	stmt.BalAmt.SetFrac64(x.account.Balance.Amount, model.MinorUnitsPerMajor)

	resp := ofxgo.Response{
		Version: ofxgo.OfxVersion203,
		Signon: ofxgo.SignonResponse{
			Status:   ofxgo.Status{Code: 0, Severity: "INFO"},
			DtServer: ofxgo.Date{Time: now},
			Language: "FRA",
		},
		Bank: []ofxgo.Message{stmt},
	}

	buf, err := resp.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal OFX statement: %w", err)
	}
	if _, err := buf.WriteTo(x.w); err != nil {
		return fmt.Errorf("failed to write OFX statement: %w", err)
	}

	x.logger.Debug("Wrote OFX statement",
		"account_id", x.account.ID,
		"transactions", len(x.txs))
	return nil
}

// period returns the start of the first day and the end of the last day.
func (x *Writer) period(now time.Time) (time.Time, time.Time) {
	first, last := x.first, x.last
	if len(x.txs) == 0 {
		first = linxo.DateOf(now)
		last = first
	}
	if x.start != nil {
		first = *x.start
	}
	if x.end != nil {
		last = *x.end
	}
	return linxo.StartOfDay(first), linxo.EndOfDay(last)
}

func setTrnType(tx *ofxgo.Transaction, typ model.TransactionType) {
	switch typ {
	case model.TypeCredit:
		tx.TrnType = ofxgo.TrnTypeCredit
	case model.TypeDebit:
		tx.TrnType = ofxgo.TrnTypeDebit
	case model.TypeInterest:
		tx.TrnType = ofxgo.TrnTypeInt
	case model.TypeDividend:
		tx.TrnType = ofxgo.TrnTypeDiv
	case model.TypeBankFee:
		tx.TrnType = ofxgo.TrnTypeFee
	case model.TypeDeposit:
		tx.TrnType = ofxgo.TrnTypeDep
	case model.TypeATM:
		tx.TrnType = ofxgo.TrnTypeATM
	case model.TypePointOfSale:
		tx.TrnType = ofxgo.TrnTypePOS
	case model.TypeInternalTransfer, model.TypePotentialTransfer:
		tx.TrnType = ofxgo.TrnTypeXfer
	case model.TypeCheck:
		tx.TrnType = ofxgo.TrnTypeCheck
	case model.TypeCreditCardPayment, model.TypeElectronicPayment:
		tx.TrnType = ofxgo.TrnTypePayment
	case model.TypeCash:
		tx.TrnType = ofxgo.TrnTypeCash
	case model.TypeDirectDeposit:
		tx.TrnType = ofxgo.TrnTypeDirectDep
	case model.TypeDirectDebit:
		tx.TrnType = ofxgo.TrnTypeDirectDebit
	case model.TypeRepeatingPayment:
		tx.TrnType = ofxgo.TrnTypeRepeatPmt
	default:
		tx.TrnType = ofxgo.TrnTypeOther
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
