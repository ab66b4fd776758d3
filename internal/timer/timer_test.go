package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealServiceFiresAfterDelay(t *testing.T) {
	svc := New()

	done := make(chan struct{})
	svc.Schedule(10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestRealServiceCancelPreventsFire(t *testing.T) {
	svc := New()

	fired := make(chan struct{}, 1)
	cancel := svc.Schedule(20*time.Millisecond, func() { fired <- struct{}{} })
	cancel()

	select {
	case <-fired:
		t.Fatal("cancelled timer fired")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestFakeScheduleDoesNotFireUntilTriggered(t *testing.T) {
	f := NewFake()

	fired := false
	f.Schedule(5*time.Second, func() { fired = true })

	assert.False(t, fired)
	assert.Equal(t, 1, f.Pending())

	assert.True(t, f.FireNext())
	assert.True(t, fired)
	assert.Equal(t, 0, f.Pending())
}

func TestFakeCancelSkipsFire(t *testing.T) {
	f := NewFake()

	fired := false
	cancel := f.Schedule(5*time.Second, func() { fired = true })
	cancel()

	assert.False(t, f.FireNext())
	assert.False(t, fired)
}

func TestFakeFireAllFiresInOrder(t *testing.T) {
	f := NewFake()

	var order []int
	f.Schedule(time.Second, func() { order = append(order, 1) })
	f.Schedule(time.Second, func() { order = append(order, 2) })
	f.Schedule(time.Second, func() { order = append(order, 3) })

	f.FireAll()
	assert.Equal(t, []int{1, 2, 3}, order)
}
