// Package report fans decoded sensor reports out to any number of readers:
// the latest report, a gate channel for "wait for the next one", and
// buffered per-subscriber channels.
package report

import (
	"sync"

	"github.com/hilink/ld2410/internal/protocol"
)

// Report is a decoded presence report together with which dialect produced
// it. Basic holds the target summary for both dialects; Engineering is only
// non-nil when Type is protocol.ReportEngineering.
type Report struct {
	Type        protocol.ReportType
	Basic       protocol.BasicReport
	Engineering *protocol.EngineeringReport
}

// DefaultQueueSize is the buffer depth used for subscriber channels when a
// caller of Subscribe does not request a specific size.
const DefaultQueueSize = 64

// Distributor holds the latest report and fans new arrivals out to
// subscribers, dropping the oldest buffered item on a full channel rather
// than blocking the ingesting goroutine.
type Distributor struct {
	mu          sync.Mutex
	latest      Report
	hasLatest   bool
	next        chan struct{}
	subscribers map[chan Report]struct{}
}

// New returns an empty Distributor.
func New() *Distributor {
	return &Distributor{
		next:        make(chan struct{}),
		subscribers: make(map[chan Report]struct{}),
	}
}

// Ingest records r as the latest report, closes the current NextGate
// channel to wake every caller waiting on it, and pushes r into every
// subscriber channel.
func (d *Distributor) Ingest(r Report) {
	d.mu.Lock()
	d.latest = r
	d.hasLatest = true
	gate := d.next
	d.next = make(chan struct{})
	subs := make([]chan Report, 0, len(d.subscribers))
	for ch := range d.subscribers {
		subs = append(subs, ch)
	}
	d.mu.Unlock()

	close(gate)

	for _, ch := range subs {
		select {
		case ch <- r:
		default:
			// Drop the oldest buffered report to make room, then retry once.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- r:
			default:
			}
		}
	}
}

// Latest returns the most recently ingested report. ok is false when no
// report has arrived yet.
func (d *Distributor) Latest() (Report, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.latest, d.hasLatest
}

// NextGate returns a channel that closes the next time a report arrives.
// Callers select on it alongside a context's Done channel to wait for the
// next report without missing one in between.
func (d *Distributor) NextGate() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.next
}

// Subscribe registers a new buffered channel of reports with room for size
// reports; a size of 0 or less uses DefaultQueueSize. Unsubscribe must be
// called to release it.
func (d *Distributor) Subscribe(size int) chan Report {
	if size <= 0 {
		size = DefaultQueueSize
	}
	ch := make(chan Report, size)
	d.mu.Lock()
	d.subscribers[ch] = struct{}{}
	d.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel previously returned by Subscribe.
func (d *Distributor) Unsubscribe(ch chan Report) {
	d.mu.Lock()
	delete(d.subscribers, ch)
	d.mu.Unlock()
}
