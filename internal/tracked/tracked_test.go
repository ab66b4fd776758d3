package tracked

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type innerState struct {
	Channel string `tracked:"channel"`
	Hopping bool   `tracked:"hopping"`
}

type sourceState struct {
	Name     string     `tracked:"name"`
	UUID     string     `tracked:"uuid"`
	Secret   string     `tracked:"-"`
	Error    *string    `tracked:"error,omitempty"`
	Attempts int        `tracked:"attempts,omitempty"`
	Radio    innerState `tracked:"radio"`
}

func TestSnapshotAppliesTagNames(t *testing.T) {
	s := sourceState{Name: "wlan0", UUID: "abc-123", Secret: "shh"}

	snap := Snapshot(&s)

	assert.Equal(t, "wlan0", snap["name"])
	assert.Equal(t, "abc-123", snap["uuid"])
	_, hasSecret := snap["secret"]
	assert.False(t, hasSecret)
}

func TestSnapshotOmitsEmptyWhenRequested(t *testing.T) {
	s := sourceState{Name: "wlan0"}

	snap := Snapshot(&s)

	_, hasError := snap["error"]
	assert.False(t, hasError)
	_, hasAttempts := snap["attempts"]
	assert.False(t, hasAttempts)
}

func TestSnapshotFlattensNestedStruct(t *testing.T) {
	s := sourceState{
		Name:  "wlan0",
		Radio: innerState{Channel: "6", Hopping: true},
	}

	snap := Snapshot(&s)

	assert.Equal(t, "6", snap["radio.channel"])
	assert.Equal(t, true, snap["radio.hopping"])
}

func TestSnapshotHandlesNilPointer(t *testing.T) {
	var s *sourceState
	snap := Snapshot(s)
	assert.Empty(t, snap)
}

func TestStringFormatsSortedKeyValuePairs(t *testing.T) {
	snap := map[string]interface{}{"b": 2, "a": 1}
	assert.Equal(t, "a=1 b=2", String(snap))
}
