package shell

// Process exit statuses the spec assigns to the shell as a whole (§7). The
// Shell type that wires State to the Line Editor, Parser, and Executor
// lives in cmd/gosh rather than here, since the Executor already imports
// this package for *State.
const (
	StatusOK            = 0
	StatusGeneralError  = 1
	StatusCannotExecute = 126
	StatusNotFound      = 127
	StatusSigBase       = 128
	StatusInterrupted   = StatusSigBase + 2  // SIGINT
	StatusCaughtStop    = StatusSigBase + 20 // SIGTSTP, informational only
)
