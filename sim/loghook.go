package sim

import (
	"io"
	"log"
)

// A LogHook is a hook that writes what it observes into a logger.
type LogHook interface {
	Hook
}

// LogHookBase holds the logger of a LogHook.
type LogHookBase struct {
	*log.Logger
}

// MakeLogHookBase wraps the logger. A nil logger discards everything.
func MakeLogHookBase(logger *log.Logger) LogHookBase {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return LogHookBase{Logger: logger}
}
