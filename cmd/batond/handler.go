package main

import (
	"log"
	"sync"

	"github.com/Comcast/baton/directive"
	"github.com/Comcast/baton/processor"
)

// logHandler is the default route handler: it logs the directive and
// reports completion from its own goroutine, which makes it usable
// behind any blocking policy.
type logHandler struct {
	sync.Mutex

	results map[string]processor.HandlerResult
}

func newLogHandler() *logHandler {
	return &logHandler{
		results: make(map[string]processor.HandlerResult, 8),
	}
}

func (h *logHandler) PreHandle(d *directive.Directive, result processor.HandlerResult) error {
	h.Lock()
	h.results[d.Header.MessageID] = result
	h.Unlock()
	return nil
}

func (h *logHandler) Handle(d *directive.Directive) error {
	log.Printf("logHandler %s payload %s", d, d.Payload)

	h.Lock()
	result, have := h.results[d.Header.MessageID]
	delete(h.results, d.Header.MessageID)
	h.Unlock()

	if have {
		go result.Completed()
	}
	return nil
}

func (h *logHandler) Cancel(d *directive.Directive) {
	h.Lock()
	delete(h.results, d.Header.MessageID)
	h.Unlock()
}
