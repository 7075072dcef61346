package session

import "github.com/hilink/ld2410/internal/protocol"

// pendingResult is delivered to an issuer once the reader goroutine matches
// an incoming ack to its request, or decides the request failed outright.
type pendingResult struct {
	reply protocol.Reply
	err   error
}

// pendingRequest is the single in-flight command slot. Only one Issue call
// may be outstanding at a time; Session.mu enforces that structurally.
type pendingRequest struct {
	code protocol.CommandCode
	ch   chan pendingResult
}

func newPendingRequest(code protocol.CommandCode) *pendingRequest {
	return &pendingRequest{code: code, ch: make(chan pendingResult, 1)}
}

// complete delivers a result without blocking. It is only ever called once
// per pendingRequest by the reader goroutine.
func (p *pendingRequest) complete(reply protocol.Reply, err error) {
	p.ch <- pendingResult{reply: reply, err: err}
}
