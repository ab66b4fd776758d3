package sink

import "firestige.xyz/dsdriver/internal/log"

// Console is a Chain that logs a one-line summary of each delivered
// record, the way the CLI's "open" subcommand streams packets to a
// terminal (SPEC_FULL §2.3).
type Console struct {
	logger log.Logger
}

// NewConsole builds a Console sink writing through logger.
func NewConsole(logger log.Logger) *Console {
	return &Console{logger: logger}
}

func (c *Console) Deliver(rec Record) {
	fields := map[string]interface{}{
		"dlt":    rec.DLT,
		"length": rec.Info.Length,
		"time":   rec.Info.Timestamp,
	}
	if rec.Signal != nil && rec.Signal.Channel != "" {
		fields["channel"] = rec.Signal.Channel
	}
	c.logger.WithFields(fields).Info("packet received")
}
