package wrpc

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// shellScript is the persistent read-eval loop each worker process runs:
// one command per line on stdin, stdout/stderr merged, a sentinel line
// carrying the exit code after each command completes. Adapted from the
// checker package's fork-server transport, now shared by every caller
// of this package instead of being private to plugin execution.
const shellScript = `s="$1"; while IFS= read -r c; do (eval "$c") </dev/null 2>&1; printf '%s %d\n' "$s" $?; done`

// worker manages a single persistent /bin/sh process reached over pipes,
// avoiding a fork() from the (large) parent process per job.
type worker struct {
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	stdout   *bufio.Scanner
	sentinel string
	alive    bool
}

func newWorker(sentinel string) (*worker, error) {
	cmd := exec.Command("/bin/sh", "-c", shellScript, "--", sentinel)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("wrpc: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("wrpc: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		return nil, fmt.Errorf("wrpc: start worker: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	return &worker{cmd: cmd, stdin: stdin, stdout: scanner, sentinel: sentinel, alive: true}, nil
}

// run executes one Request against this worker and fills in every
// Response field the protocol specifies: wait status, early-timeout
// flag, merged stdout/stderr, and start/end timestamps.
func (w *worker) run(req Request) Response {
	resp := Response{JobID: req.JobID, StartTime: time.Now()}

	if !w.alive {
		resp.EndTime = time.Now()
		resp.WaitStatus = -1
		resp.Outerr = "worker is dead"
		return resp
	}

	if _, err := fmt.Fprintf(w.stdin, "%s\n", req.Command); err != nil {
		w.alive = false
		resp.EndTime = time.Now()
		resp.WaitStatus = -1
		resp.Outerr = err.Error()
		return resp
	}

	var b strings.Builder
	timer := time.AfterFunc(req.Timeout, func() {
		if w.cmd.Process != nil {
			unix.Kill(-w.cmd.Process.Pid, unix.SIGKILL)
		}
	})

	sentinelPrefix := w.sentinel + " "
	for w.stdout.Scan() {
		line := w.stdout.Text()
		if strings.HasPrefix(line, sentinelPrefix) {
			timer.Stop()
			code, err := strconv.Atoi(line[len(sentinelPrefix):])
			if err != nil {
				code = 2
			}
			resp.EndTime = time.Now()
			resp.WaitStatus = code
			resp.ExitedOK = true
			resp.Outstd = b.String()
			return resp
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}

	wasTimeout := !timer.Stop()
	w.alive = false
	if w.cmd.ProcessState == nil {
		w.cmd.Wait()
	}

	resp.EndTime = time.Now()
	resp.WaitStatus = -1
	resp.EarlyTimeout = wasTimeout
	if wasTimeout {
		resp.Outerr = "command timed out"
	} else {
		resp.Outerr = "worker exited unexpectedly"
	}
	return resp
}

func (w *worker) close() {
	if w.cmd.Process != nil {
		unix.Kill(-w.cmd.Process.Pid, unix.SIGKILL)
		w.cmd.Wait()
	}
	w.alive = false
}
