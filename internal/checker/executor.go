package checker

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/oceanplexian/naemon/internal/objects"
	"github.com/oceanplexian/naemon/internal/wrpc"
)

// checkJob holds all parameters for a single check execution.
type checkJob struct {
	hostName     string
	svcDesc      string
	command      string
	timeout      time.Duration
	checkOptions int
	checkType    int
	latency      float64
}

// Executor runs check plugins against a shared Worker RPC pool.
// Workers are started once in NewExecutor and read jobs from a buffered
// channel, eliminating the goroutine-per-check overhead that caused
// memory explosion at scale (e.g. 500k goroutines for 500k services).
//
// Plugin execution itself happens in internal/wrpc, the same KV-encoded
// request/response transport the notification engine uses to run
// notification commands, so both surfaces share one persistent-shell
// worker implementation instead of keeping two.
type Executor struct {
	jobCh       chan checkJob
	jobsRunning atomic.Int64
	resultCh    chan *objects.CheckResult
	workers     int
	pool        *wrpc.Pool
}

// NewExecutor creates an executor with the given concurrency limit.
// resultCh is where completed check results are sent.
func NewExecutor(maxConcurrent int, resultCh chan *objects.CheckResult) *Executor {
	if maxConcurrent <= 0 {
		maxConcurrent = 256
	}

	e := &Executor{
		jobCh:    make(chan checkJob, maxConcurrent*4),
		resultCh: resultCh,
		workers:  maxConcurrent,
		pool:     wrpc.NewPool(maxConcurrent),
	}
	for i := 0; i < maxConcurrent; i++ {
		go e.dispatchWorker()
	}
	return e
}

// Workers returns the configured worker pool size.
func (e *Executor) Workers() int {
	return e.workers
}

// Pool returns the Worker RPC pool backing this executor, so other
// command dispatchers (e.g. notification commands) can share it instead
// of starting a second fleet of shell workers.
func (e *Executor) Pool() *wrpc.Pool {
	return e.pool
}

// JobsRunning returns the current number of executing checks.
func (e *Executor) JobsRunning() int64 {
	return e.jobsRunning.Load()
}

// Submit sends a check for async execution. If the job channel buffer
// is full, a temporary goroutine is spawned to avoid blocking the
// scheduler's event loop.
func (e *Executor) Submit(hostName, svcDesc, command string, timeout time.Duration, checkOptions int, checkType int, latency float64) {
	job := checkJob{
		hostName:     hostName,
		svcDesc:      svcDesc,
		command:      command,
		timeout:      timeout,
		checkOptions: checkOptions,
		checkType:    checkType,
		latency:      latency,
	}
	select {
	case e.jobCh <- job:
		// sent without blocking
	default:
		// buffer full — spawn a short-lived goroutine to avoid blocking scheduler
		go func() { e.jobCh <- job }()
	}
}

// Stop closes the job channel; workers exit after draining the jobs already
// queued. It returns at once and does not wait for in-flight checks.
func (e *Executor) Stop() {
	close(e.jobCh)
}

// dispatchWorker pulls jobs and runs them through the shared Worker RPC
// pool. If the pool reports no worker was available at all, it falls
// back to a direct fork+exec rather than stall the check.
func (e *Executor) dispatchWorker() {
	for job := range e.jobCh {
		e.jobsRunning.Add(1)
		cr := e.runViaPool(job)
		if cr == nil {
			cr = e.runPlugin(job.hostName, job.svcDesc, job.command, job.timeout, job.checkOptions, job.checkType, job.latency)
		}
		e.jobsRunning.Add(-1)
		e.resultCh <- cr
	}
}

// runViaPool executes a check through internal/wrpc. Returns nil only
// when the pool itself had no worker to offer, signalling the direct
// fork+exec fallback.
func (e *Executor) runViaPool(job checkJob) *objects.CheckResult {
	req := wrpc.NewRequest(job.command, job.timeout)
	resp := e.pool.Run(req)

	if resp.WaitStatus == -1 && resp.Outerr == "no worker available" {
		return nil
	}

	cr := &objects.CheckResult{
		HostName:           job.hostName,
		ServiceDescription: job.svcDesc,
		CheckType:          job.checkType,
		CheckOptions:       job.checkOptions,
		Latency:            job.latency,
		ExitedOK:           resp.ExitedOK,
		StartTime:          resp.StartTime,
		FinishTime:         resp.EndTime,
	}
	cr.ExecutionTime = cr.FinishTime.Sub(cr.StartTime).Seconds()

	if resp.EarlyTimeout {
		cr.EarlyTimeout = true
		cr.ReturnCode = 2
		cr.Output = fmt.Sprintf("(Check timed out after %.0f seconds)", job.timeout.Seconds())
		return cr
	}
	if !resp.ExitedOK {
		cr.Output = resp.Outerr
		cr.ReturnCode = 2
		return cr
	}

	cr.ReturnCode = resp.WaitStatus
	if resp.Outstd != "" {
		cr.Output = resp.Outstd
	}
	return cr
}

// runPlugin executes the command via direct fork+exec and captures output/return code.
// Used as fallback when the Worker RPC pool has no worker available.
func (e *Executor) runPlugin(hostName, svcDesc, command string, timeout time.Duration, checkOptions int, checkType int, latency float64) *objects.CheckResult {
	cr := &objects.CheckResult{
		HostName:           hostName,
		ServiceDescription: svcDesc,
		CheckType:          checkType,
		CheckOptions:       checkOptions,
		Latency:            latency,
		ExitedOK:           true,
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	cr.StartTime = time.Now()
	err := cmd.Run()
	cr.FinishTime = time.Now()
	cr.ExecutionTime = cr.FinishTime.Sub(cr.StartTime).Seconds()

	// Extract return code
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			cr.EarlyTimeout = true
			cr.ReturnCode = 2
			cr.Output = fmt.Sprintf("(Check timed out after %.0f seconds)", timeout.Seconds())
			return cr
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok {
				cr.ReturnCode = ws.ExitStatus()
			} else {
				cr.ReturnCode = 2
				cr.ExitedOK = false
			}
		} else {
			// Could not execute at all (e.g., command not found)
			cr.ReturnCode = 127
			cr.ExitedOK = false
			cr.Output = fmt.Sprintf("(Could not execute plugin: %v)", err)
			return cr
		}
	} else {
		cr.ReturnCode = 0
	}

	// Capture output
	if stdout.Len() > 0 {
		out := stdout.String()
		if len(out) > 8192 {
			out = out[:8192]
		}
		cr.Output = out
	} else if stderr.Len() > 0 {
		out := stderr.String()
		if len(out) > 8192 {
			out = out[:8192]
		}
		cr.Output = "(No output on stdout) stderr: " + out
	}

	return cr
}
