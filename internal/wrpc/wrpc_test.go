package wrpc

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRequestRoundTrip(t *testing.T) {
	req := NewRequest("/usr/lib/nagios/plugins/check_ping -H 127.0.0.1", 10*time.Second)
	wire := EncodeRequest(req)

	got, err := DecodeRequest(wire)
	require.NoError(t, err)
	assert.Equal(t, req.JobID, got.JobID)
	assert.Equal(t, req.Command, got.Command)
	assert.Equal(t, req.Timeout, got.Timeout)
}

func TestEncodeDecodeResponseRoundTrip(t *testing.T) {
	now := time.Unix(1700000000, 0)
	resp := Response{
		JobID:        uuid.New(),
		WaitStatus:   0,
		EarlyTimeout: false,
		ExitedOK:     true,
		Outstd:       "PING OK - Packet loss = 0%",
		Outerr:       "",
		StartTime:    now,
		EndTime:      now.Add(2 * time.Second),
	}
	wire := EncodeResponse(resp)

	got, err := DecodeResponse(wire)
	require.NoError(t, err)
	assert.Equal(t, resp.JobID, got.JobID)
	assert.Equal(t, resp.WaitStatus, got.WaitStatus)
	assert.Equal(t, resp.ExitedOK, got.ExitedOK)
	assert.Equal(t, resp.Outstd, got.Outstd)
	assert.Equal(t, resp.StartTime.Unix(), got.StartTime.Unix())
	assert.Equal(t, resp.EndTime.Unix(), got.EndTime.Unix())
}

func TestDecodeRequestMissingJobIDIsError(t *testing.T) {
	_, err := DecodeRequest([]byte("command=echo hi;timeout=1000;"))
	assert.Error(t, err)
}

func TestPoolRunEchoesExitCode(t *testing.T) {
	pool := NewPool(1)
	defer pool.Close()

	req := NewRequest("exit 0", 5*time.Second)
	resp := pool.Run(req)
	assert.Equal(t, req.JobID, resp.JobID)
	assert.Equal(t, 0, resp.WaitStatus)
	assert.True(t, resp.ExitedOK)
}

func TestPoolRunCapturesOutput(t *testing.T) {
	pool := NewPool(1)
	defer pool.Close()

	req := NewRequest("echo hello", 5*time.Second)
	resp := pool.Run(req)
	assert.Equal(t, "hello", resp.Outstd)
	assert.Equal(t, 0, resp.WaitStatus)
}

func TestPoolRunNonZeroExit(t *testing.T) {
	pool := NewPool(1)
	defer pool.Close()

	req := NewRequest("exit 3", 5*time.Second)
	resp := pool.Run(req)
	assert.Equal(t, 3, resp.WaitStatus)
}
