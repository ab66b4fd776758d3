package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefinitionBareInterface(t *testing.T) {
	d, err := parseDefinition("wlan0")
	require.NoError(t, err)
	assert.Equal(t, "wlan0", d.Interface)
	assert.Equal(t, "wlan0", d.Name)
	assert.Empty(t, d.UUID)
	assert.False(t, d.Retry)
}

func TestParseDefinitionWithOptions(t *testing.T) {
	d, err := parseDefinition("wlan0:name=mon0,uuid=11111111-1111-1111-1111-111111111111,retry=true")
	require.NoError(t, err)
	assert.Equal(t, "wlan0", d.Interface)
	assert.Equal(t, "mon0", d.Name)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", d.UUID)
	assert.True(t, d.Retry)
}

func TestParseDefinitionRejectsEmpty(t *testing.T) {
	_, err := parseDefinition("")
	require.Error(t, err)
	assertMalformed(t, err)
}

func TestParseDefinitionRejectsMissingInterfaceName(t *testing.T) {
	_, err := parseDefinition(":name=mon0")
	require.Error(t, err)
	assertMalformed(t, err)
}

func TestParseDefinitionRejectsUnrecognizedOption(t *testing.T) {
	_, err := parseDefinition("wlan0:bogus=1")
	require.Error(t, err)
	assertMalformed(t, err)
}

func TestParseDefinitionRejectsMalformedOption(t *testing.T) {
	_, err := parseDefinition("wlan0:name")
	require.Error(t, err)
	assertMalformed(t, err)
}

func TestParseDefinitionRejectsInvalidUUID(t *testing.T) {
	_, err := parseDefinition("wlan0:uuid=not-a-uuid")
	require.Error(t, err)
	assertMalformed(t, err)
}

func TestParseDefinitionRejectsInvalidRetryValue(t *testing.T) {
	_, err := parseDefinition("wlan0:retry=maybe")
	require.Error(t, err)
	assertMalformed(t, err)
}

func TestParseBoolOptionAcceptsSynonyms(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want bool
	}{
		{"true", true}, {"1", true}, {"yes", true}, {"YES", true},
		{"false", false}, {"0", false}, {"no", false},
	} {
		got, err := parseBoolOption(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func assertMalformed(t *testing.T, err error) {
	t.Helper()
	derr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, KindMalformedDefinition, derr.Kind)
}
