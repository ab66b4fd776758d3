package sink

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRecordBuildsCaptureInfoFromTimestamp(t *testing.T) {
	rec := NewRecord(1700000000, 500000, 127, []byte{0x01, 0x02, 0x03})

	assert.Equal(t, uint64(127), rec.DLT)
	assert.Equal(t, 3, rec.Info.CaptureLength)
	assert.Equal(t, 3, rec.Info.Length)
	assert.Equal(t, int64(1700000000), rec.Info.Timestamp.Unix())
}

func TestChainFuncAdaptsPlainFunction(t *testing.T) {
	var got Record
	var chain Chain = ChainFunc(func(r Record) { got = r })

	chain.Deliver(NewRecord(1, 0, 1, []byte("x")))

	assert.Equal(t, uint64(1), got.DLT)
}

