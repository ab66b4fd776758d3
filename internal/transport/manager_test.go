package transport

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerAcceptAndDialUnix(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "dsdriver.sock")

	server := NewManager(Config{Mode: "unix", Address: sockPath, Listen: true})
	client := NewManager(Config{Mode: "unix", Address: sockPath, Listen: false, DialTimeout: 2 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	type acceptResult struct {
		stream Stream
		err    error
	}
	accepted := make(chan acceptResult, 1)
	go func() {
		s, err := server.Connect(ctx)
		accepted <- acceptResult{s, err}
	}()

	// Give the listener a moment to bind before dialing.
	time.Sleep(50 * time.Millisecond)

	clientStream, err := client.Connect(ctx)
	require.NoError(t, err)
	defer clientStream.Close("test done")

	res := <-accepted
	require.NoError(t, res.err)
	defer res.stream.Close("test done")

	require.NoError(t, server.Stop())
}

func TestManagerDialFailsOnMissingSocket(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "missing.sock")
	client := NewManager(Config{Mode: "unix", Address: sockPath, DialTimeout: 200 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := client.Connect(ctx)
	assert.Error(t, err)
}
