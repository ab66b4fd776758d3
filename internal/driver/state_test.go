package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetChannelClearsHopping(t *testing.T) {
	var s State
	s.setHop(5, []string{"1", "6"})
	assert.True(t, s.Hopping)

	s.setChannel("6")
	assert.Equal(t, "6", s.CurrentChannel)
	assert.False(t, s.Hopping)
}

func TestSetHopWithEmptyChannelsLeavesHoppingFalse(t *testing.T) {
	var s State
	s.setHop(5, nil)
	assert.False(t, s.Hopping)
	assert.Equal(t, float64(5), s.HopRate)
}

func TestSetHopWithChannelsSetsHopping(t *testing.T) {
	var s State
	s.setHop(3, []string{"1", "6", "11"})
	assert.True(t, s.Hopping)
	assert.Equal(t, []string{"1", "6", "11"}, s.HopChannels)
}

func TestPinnedUUIDIsStickyAgainstSetUUID(t *testing.T) {
	var s State
	s.pinUUID("11111111-1111-1111-1111-111111111111")
	s.setUUID("22222222-2222-2222-2222-222222222222")

	assert.Equal(t, "11111111-1111-1111-1111-111111111111", s.UUID)
}

func TestSetUUIDAppliesWhenNotSticky(t *testing.T) {
	var s State
	s.setUUID("33333333-3333-3333-3333-333333333333")
	assert.Equal(t, "33333333-3333-3333-3333-333333333333", s.UUID)
}

func TestCapabilitiesHas(t *testing.T) {
	caps := CapList | CapTune
	assert.True(t, caps.Has(CapList))
	assert.True(t, caps.Has(CapTune))
	assert.False(t, caps.Has(CapLocal))
	assert.False(t, caps.Has(CapProbe))
}
