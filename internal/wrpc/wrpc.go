// Package wrpc implements the Worker RPC layer (component I): KV-encoded
// request/response framing over a pool of persistent shell workers, with
// job ids correlating each response back to whichever caller — the
// check executor or the notification engine — originated the request.
package wrpc

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oceanplexian/naemon/internal/kvvector"
)

// Request is a single unit of work handed to a worker: a shell command
// line, a timeout, and an opaque job id the wire protocol never
// interprets beyond equality (mirrors upstream worker.c's job_id, now a
// UUID instead of a process-local counter so ids stay unique across
// worker respawns).
type Request struct {
	JobID   uuid.UUID
	Command string
	Timeout time.Duration
}

// NewRequest creates a request with a fresh job id.
func NewRequest(command string, timeout time.Duration) Request {
	return Request{JobID: uuid.New(), Command: command, Timeout: timeout}
}

// Response is the result of executing a Request.
type Response struct {
	JobID        uuid.UUID
	WaitStatus   int
	EarlyTimeout bool
	ExitedOK     bool
	Outstd       string
	Outerr       string
	StartTime    time.Time
	EndTime      time.Time
}

const (
	kJobID        = "job_id"
	kCommand      = "command"
	kTimeout      = "timeout"
	kWaitStatus   = "wait_status"
	kEarlyTimeout = "early_timeout"
	kExitedOK     = "exited_ok"
	kOutstd       = "outstd"
	kOutErr       = "outerr"
	kStartTime    = "start_time"
	kEndTime      = "end_time"
)

const (
	kvSep   = '='
	pairSep = ';'
)

// EncodeRequest produces the wire form of a request: a KV-vector with
// job_id, command and timeout, using the same separators as every other
// KV-encoded surface in this daemon.
func EncodeRequest(r Request) []byte {
	v := kvvector.New(3)
	v.AddString(kJobID, r.JobID.String())
	v.AddString(kCommand, r.Command)
	v.AddLong(kTimeout, int64(r.Timeout/time.Millisecond))
	return kvvector.Encode(v, kvSep, pairSep)
}

// DecodeRequest parses a request previously produced by EncodeRequest.
func DecodeRequest(data []byte) (Request, error) {
	v, err := kvvector.Decode(data, kvSep, pairSep, kvvector.Copy)
	if err != nil {
		return Request{}, err
	}
	var r Request
	idStr, ok := v.LookupString(kJobID)
	if !ok {
		return Request{}, fmt.Errorf("wrpc: request missing %s", kJobID)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return Request{}, fmt.Errorf("wrpc: invalid %s: %w", kJobID, err)
	}
	r.JobID = id
	r.Command, _ = v.LookupString(kCommand)
	if ms, ok := v.LookupString(kTimeout); ok {
		var msInt int64
		if _, err := fmt.Sscanf(ms, "%d", &msInt); err == nil {
			r.Timeout = time.Duration(msInt) * time.Millisecond
		}
	}
	return r, nil
}

// EncodeResponse produces the wire form of a response.
func EncodeResponse(r Response) []byte {
	v := kvvector.New(8)
	v.AddString(kJobID, r.JobID.String())
	v.AddLong(kWaitStatus, int64(r.WaitStatus))
	v.AddString(kEarlyTimeout, boolStr(r.EarlyTimeout))
	v.AddString(kExitedOK, boolStr(r.ExitedOK))
	v.AddString(kOutstd, r.Outstd)
	v.AddString(kOutErr, r.Outerr)
	v.AddLong(kStartTime, r.StartTime.Unix())
	v.AddLong(kEndTime, r.EndTime.Unix())
	return kvvector.Encode(v, kvSep, pairSep)
}

// DecodeResponse parses a response previously produced by EncodeResponse.
func DecodeResponse(data []byte) (Response, error) {
	v, err := kvvector.Decode(data, kvSep, pairSep, kvvector.Copy)
	if err != nil {
		return Response{}, err
	}
	var r Response
	idStr, ok := v.LookupString(kJobID)
	if !ok {
		return Response{}, fmt.Errorf("wrpc: response missing %s", kJobID)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return Response{}, fmt.Errorf("wrpc: invalid %s: %w", kJobID, err)
	}
	r.JobID = id
	if s, ok := v.LookupString(kWaitStatus); ok {
		fmt.Sscanf(s, "%d", &r.WaitStatus)
	}
	r.EarlyTimeout, _ = lookupBool(v, kEarlyTimeout)
	r.ExitedOK, _ = lookupBool(v, kExitedOK)
	r.Outstd, _ = v.LookupString(kOutstd)
	r.Outerr, _ = v.LookupString(kOutErr)
	if s, ok := v.LookupString(kStartTime); ok {
		var secs int64
		fmt.Sscanf(s, "%d", &secs)
		r.StartTime = time.Unix(secs, 0)
	}
	if s, ok := v.LookupString(kEndTime); ok {
		var secs int64
		fmt.Sscanf(s, "%d", &secs)
		r.EndTime = time.Unix(secs, 0)
	}
	return r, nil
}

func boolStr(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func lookupBool(v *kvvector.KVVector, key string) (bool, bool) {
	s, ok := v.LookupString(key)
	if !ok {
		return false, false
	}
	return s == "1", true
}
