package wrpc

import (
	"crypto/rand"
	"encoding/hex"
	"log"
)

// job pairs a Request with the channel its originator is waiting on, so
// a fixed-size worker pool can fan results back out without the
// originator ever knowing which worker ran its job.
type job struct {
	req    Request
	replyC chan<- Response
}

// Pool is a fixed-size worker pool executing Requests against persistent
// shell processes, the same worker-per-goroutine design the checker
// package uses for plugin execution, generalized so both check plugins
// and notification commands submit through one shared transport and one
// KV-encodable wire format.
type Pool struct {
	jobCh    chan job
	sentinel string
	workers  int
}

// NewPool starts size persistent workers, each backed by its own shell
// process. size is clamped to at least 1.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	sentinelBytes := make([]byte, 16)
	if _, err := rand.Read(sentinelBytes); err != nil {
		log.Printf("wrpc: could not generate random sentinel: %v", err)
	}
	p := &Pool{
		jobCh:    make(chan job, size*4),
		sentinel: hex.EncodeToString(sentinelBytes),
		workers:  size,
	}
	for i := 0; i < size; i++ {
		go p.runWorker()
	}
	return p
}

func (p *Pool) runWorker() {
	w, err := newWorker(p.sentinel)
	if err != nil {
		log.Printf("wrpc: worker unavailable: %v", err)
		w = nil
	}
	defer func() {
		if w != nil {
			w.close()
		}
	}()

	for j := range p.jobCh {
		var resp Response
		if w == nil || !w.alive {
			if w != nil {
				w.close()
			}
			w, err = newWorker(p.sentinel)
			if err != nil {
				w = nil
			}
		}
		if w != nil {
			resp = w.run(j.req)
		} else {
			resp = Response{JobID: j.req.JobID, WaitStatus: -1, Outerr: "no worker available"}
		}
		j.replyC <- resp
	}
}

// Submit enqueues req and returns a channel that receives exactly one
// Response, correlated by req.JobID — the "callback routing to the
// originator of each request" the Worker RPC layer exists to provide.
func (p *Pool) Submit(req Request) <-chan Response {
	replyC := make(chan Response, 1)
	p.jobCh <- job{req: req, replyC: replyC}
	return replyC
}

// Run submits req and blocks for its Response.
func (p *Pool) Run(req Request) Response {
	return <-p.Submit(req)
}

// Close stops accepting new jobs. In-flight jobs still complete and
// deliver to their reply channels; workers exit once jobCh drains.
func (p *Pool) Close() {
	close(p.jobCh)
}

// Workers returns the configured pool size.
func (p *Pool) Workers() int { return p.workers }
