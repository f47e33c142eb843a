package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/oceanplexian/naemon/internal/wrpc"
)

// CommandExecutor runs notification commands through the shared Worker
// RPC pool (internal/wrpc), the same KV-encoded transport the check
// executor uses for plugins, instead of shelling out independently.
type CommandExecutor struct {
	Timeout time.Duration
	pool    *wrpc.Pool
}

// NewCommandExecutor creates a new executor with the given timeout and
// its own small worker pool sized for notification-command concurrency
// (notification volume is low relative to check volume, so a pool this
// size is plenty — see SetPool to share a larger pool instead).
func NewCommandExecutor(timeout time.Duration) *CommandExecutor {
	return &CommandExecutor{Timeout: timeout, pool: wrpc.NewPool(4)}
}

// SetPool points this executor at an externally-owned pool, e.g. the
// same one internal/checker.Executor already runs plugins through.
func (e *CommandExecutor) SetPool(p *wrpc.Pool) {
	e.pool = p
}

// Execute runs a notification command asynchronously and returns immediately.
// The command line is evaluated by one of the pool's persistent /bin/sh workers.
func (e *CommandExecutor) Execute(cmdLine string) {
	go e.run(cmdLine)
}

// ExecuteSync runs a notification command synchronously. Used for testing.
func (e *CommandExecutor) ExecuteSync(cmdLine string) error {
	return e.run(cmdLine)
}

func (e *CommandExecutor) run(cmdLine string) error {
	timeout := e.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	resp := e.pool.Run(wrpc.NewRequest(cmdLine, timeout))
	if resp.EarlyTimeout {
		return fmt.Errorf("notification command timed out after %s", timeout)
	}
	if !resp.ExitedOK {
		return fmt.Errorf("notification command failed: %s", resp.Outerr)
	}
	if resp.WaitStatus != 0 {
		return fmt.Errorf("notification command exited %d: %s", resp.WaitStatus, resp.Outstd)
	}
	return nil
}

// ExpandMacros does simple macro substitution in a command line.
// The macros map provides $MACRO$ -> value mappings (without the $ delimiters).
func ExpandMacros(cmdLine string, macros map[string]string) string {
	result := cmdLine
	for k, v := range macros {
		result = strings.ReplaceAll(result, "$"+k+"$", v)
	}
	return result
}
