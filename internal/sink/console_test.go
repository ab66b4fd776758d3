package sink

import (
	"testing"

	"firestige.xyz/dsdriver/internal/log"
)

func TestConsoleDeliverDoesNotPanic(t *testing.T) {
	log.Init(&log.LoggerConfig{
		Pattern: "%time [%level] %field %msg",
		Time:    "2006-01-02 15:04:05",
		Level:   "info",
	})

	c := NewConsole(log.GetLogger())
	c.Deliver(NewRecord(1700000000, 0, 1, []byte("payload")))
}
