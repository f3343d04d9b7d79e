package model

// AccountStatus is the synchronisation state of a bank account.
type AccountStatus string

// Account statuses.
const (
	AccountManual         AccountStatus = "MANUAL"
	AccountActive         AccountStatus = "ACTIVE"
	AccountError          AccountStatus = "ERROR"
	AccountNotFound       AccountStatus = "NOT_FOUND"
	AccountClosed         AccountStatus = "CLOSED"
	AccountSuspended      AccountStatus = "SUSPENDED"
	AccountPendingConsent AccountStatus = "PENDING_CONSENT"
)

// Account is a bank account reached through a connection.
type Account struct {
	IBAN         *string
	Raw          Raw
	ID           string
	ConnectionID string
	Name         string // Falls back to the account number when unnamed
	Status       AccountStatus
	Balance      Money
}
