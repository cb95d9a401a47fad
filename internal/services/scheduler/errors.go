package scheduler

// SchedulerError is a custom error type for scheduling-related errors
type SchedulerError string

// Error implements the error interface
func (e SchedulerError) Error() string {
	return string(e)
}

// Define errors
const (
	ErrNilConfig    SchedulerError = "config cannot be nil"
	ErrNilRepo      SchedulerError = "game repository cannot be nil"
	ErrNilHistory   SchedulerError = "history service cannot be nil"
	ErrNilMessenger SchedulerError = "messenger cannot be nil"
	ErrNilClock     SchedulerError = "clock cannot be nil"
	ErrNilUUID      SchedulerError = "UUID generator cannot be nil"
	ErrNilInput     SchedulerError = "input cannot be nil"
)
