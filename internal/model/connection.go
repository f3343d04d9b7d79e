package model

// ConnectionStatus is the state of the last synchronisation with a bank.
type ConnectionStatus string

// Connection statuses.
const (
	ConnectionRunning        ConnectionStatus = "RUNNING"
	ConnectionSuccess        ConnectionStatus = "SUCCESS"
	ConnectionPartialSuccess ConnectionStatus = "PARTIAL_SUCCESS"
	ConnectionFailed         ConnectionStatus = "FAILED"
	ConnectionClosed         ConnectionStatus = "CLOSED"
	ConnectionNone           ConnectionStatus = "NONE"
)

// Connection links a user to one bank.
type Connection struct {
	Raw     Raw
	ID      string
	Name    string
	Status  ConnectionStatus
	LogoURL string
}
