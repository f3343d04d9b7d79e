package model

import (
	"cloud.google.com/go/civil"
)

// TransactionType classifies a transaction as reported by the aggregator.
type TransactionType string

// Transaction types known to the API. Unknown values are kept verbatim.
const (
	TypeCredit            TransactionType = "CREDIT"
	TypeDebit             TransactionType = "DEBIT"
	TypeInterest          TransactionType = "INTEREST"
	TypeDividend          TransactionType = "DIVIDEND"
	TypeBankFee           TransactionType = "BANK_FEE"
	TypeDeposit           TransactionType = "DEPOSIT"
	TypeATM               TransactionType = "ATM"
	TypePointOfSale       TransactionType = "POINT_OF_SALE"
	TypeCreditCardPayment TransactionType = "CREDIT_CARD_PAYMENT"
	TypeInternalTransfer  TransactionType = "INTERNAL_TRANSFER"
	TypePotentialTransfer TransactionType = "POTENTIAL_TRANSFER"
	TypeCheck             TransactionType = "CHECK"
	TypeElectronicPayment TransactionType = "ELECTRONIC_PAYMENT"
	TypeCash              TransactionType = "CASH"
	TypeDirectDeposit     TransactionType = "DIRECT_DEPOSIT"
	TypeDirectDebit       TransactionType = "DIRECT_DEBIT"
	TypeRepeatingPayment  TransactionType = "REPEATING_PAYMENT"
	TypeOther             TransactionType = "OTHER"
)

// TransactionTypes lists every documented transaction type.
var TransactionTypes = []TransactionType{
	TypeCredit, TypeDebit, TypeInterest, TypeDividend, TypeBankFee, TypeDeposit,
	TypeATM, TypePointOfSale, TypeCreditCardPayment, TypeInternalTransfer,
	TypePotentialTransfer, TypeCheck, TypeElectronicPayment, TypeCash,
	TypeDirectDeposit, TypeDirectDebit, TypeRepeatingPayment, TypeOther,
}

// Known reports whether t is one of the documented transaction types.
func (t TransactionType) Known() bool {
	for _, known := range TransactionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Transaction represents a single bank transaction on an account.
type Transaction struct {
	Date      civil.Date // Calendar date in the reference timezone
	Label     *string    // Enriched display label, if any
	Notes     *string
	Raw       Raw
	ID        string
	AccountID string
	Type      TransactionType
	Amount    Money
}

// DisplayLabel returns the label, or an empty string when the API sent none.
func (t Transaction) DisplayLabel() string {
	if t.Label == nil {
		return ""
	}
	return *t.Label
}
