package wrpc

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSentinel() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func TestWorkerMultilineOutput(t *testing.T) {
	w, err := newWorker(testSentinel())
	require.NoError(t, err)
	defer w.close()

	resp := w.run(NewRequest("echo line1; echo line2; echo line3", 5*time.Second))
	assert.Equal(t, 0, resp.WaitStatus)
	assert.Equal(t, "line1\nline2\nline3", resp.Outstd)
}

func TestWorkerTimeoutMarksDead(t *testing.T) {
	w, err := newWorker(testSentinel())
	require.NoError(t, err)
	defer w.close()

	resp := w.run(NewRequest("sleep 60", 1*time.Second))
	assert.True(t, resp.EarlyTimeout)
	assert.False(t, w.alive)
}

func TestWorkerCrashRecovery(t *testing.T) {
	w, err := newWorker(testSentinel())
	require.NoError(t, err)

	first := w.run(NewRequest("echo before", 5*time.Second))
	require.Equal(t, 0, first.WaitStatus)
	require.Equal(t, "before", first.Outstd)

	syscall.Kill(-w.cmd.Process.Pid, syscall.SIGKILL)
	time.Sleep(100 * time.Millisecond)

	second := w.run(NewRequest("echo after", 5*time.Second))
	assert.False(t, second.ExitedOK)
	assert.False(t, w.alive)
	w.close()
}

func TestWorkerSentinelInOutputNotConfusedWithFrame(t *testing.T) {
	sentinel := testSentinel()
	w, err := newWorker(sentinel)
	require.NoError(t, err)
	defer w.close()

	resp := w.run(NewRequest("echo "+sentinel, 5*time.Second))
	assert.Equal(t, 0, resp.WaitStatus)
	assert.True(t, strings.Contains(resp.Outstd, sentinel))
}

func TestWorkerDeadReturnsErrorResponse(t *testing.T) {
	w := &worker{alive: false}
	req := NewRequest("echo hi", time.Second)
	resp := w.run(req)
	assert.Equal(t, req.JobID, resp.JobID)
	assert.Equal(t, -1, resp.WaitStatus)
	assert.NotEqual(t, uuid.Nil, resp.JobID)
}
