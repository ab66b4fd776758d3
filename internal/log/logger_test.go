package log

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestInitByConfigDefaultsToInfoOnBadLevel(t *testing.T) {
	logger = nil

	err := initByConfig(&LoggerConfig{
		Pattern: "%time [%level] %msg",
		Time:    "2006-01-02 15:04:05",
		Level:   "not-a-level",
	})
	assert.NoError(t, err)
	assert.NotNil(t, GetLogger())
	assert.False(t, GetLogger().IsDebugEnabled())
}

func TestWithFieldReturnsIndependentLogger(t *testing.T) {
	err := initByConfig(&LoggerConfig{
		Pattern: "%time [%level] %field %msg",
		Time:    "2006-01-02 15:04:05",
		Level:   "debug",
	})
	assert.NoError(t, err)

	base := GetLogger()
	withField := base.WithField("source", "wlan0")
	assert.NotSame(t, base, withField)
}

func TestFormatterSubstitutesPlaceholders(t *testing.T) {
	err := initByConfig(&LoggerConfig{
		Pattern: "%time|%level|%msg",
		Time:    "2006",
		Level:   "info",
	})
	assert.NoError(t, err)
	assert.True(t, GetLogger().IsInfoEnabled())

	f := &formatter{pattern: "%time|%level|%msg", time: "2006"}
	entry := logrus.NewEntry(logrus.New())
	entry.Time = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	entry.Level = logrus.InfoLevel
	entry.Message = "hello"
	out, err := f.Format(entry)
	assert.NoError(t, err)
	assert.Equal(t, "2024|info|hello\n", string(out))
}
