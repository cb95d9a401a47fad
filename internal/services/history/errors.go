package history

// HistoryError is a custom error type for ledger-related errors
type HistoryError string

// Error implements the error interface
func (e HistoryError) Error() string {
	return string(e)
}

// Define errors
const (
	ErrNilConfig    HistoryError = "config cannot be nil"
	ErrNilRepo      HistoryError = "history repository cannot be nil"
	ErrNilInput     HistoryError = "input cannot be nil"
	ErrGameNotFound HistoryError = "game not found in ledger"
)
