package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"time"

	"github.com/Comcast/baton/directive"
	gojahandler "github.com/Comcast/baton/handlers/goja"
	"github.com/Comcast/baton/journal"
	"github.com/Comcast/baton/processor"
	"github.com/Comcast/baton/router"
	"github.com/Comcast/baton/sio"
	"github.com/Comcast/baton/timers"
)

// Service wires a processor, a routing table, a journal, timers, and
// an optional event poster together behind a Couplings.
type Service struct {
	Tracing bool

	table     *router.Table
	router    *observedRouter
	processor *processor.Processor
	journal   *journal.Journal
	timers    *timers.Timers
	poster    *sio.EventPoster

	out chan *sio.Result
}

func (s *Service) trf(format string, args ...interface{}) {
	if !s.Tracing {
		return
	}
	log.Printf("trace Service "+format, args...)
}

// NewService builds a Service from a config.
//
// A route with a Script or ScriptFile gets a scripted handler;
// anything else gets a logging handler that just reports completion.
func NewService(ctx context.Context, cfg *Config, journalFile string, scriptTimeout time.Duration) (*Service, error) {
	s := &Service{
		table: router.NewTable(),
	}

	for _, r := range cfg.Routes {
		policy, err := r.BlockingPolicy()
		if err != nil {
			return nil, fmt.Errorf("route %s: %s", r.Key(), err)
		}

		var h router.Handler
		src := r.Script
		if src == "" && r.ScriptFile != "" {
			bs, err := ioutil.ReadFile(r.ScriptFile)
			if err != nil {
				return nil, fmt.Errorf("route %s: %s", r.Key(), err)
			}
			src = string(bs)
		}
		if src != "" {
			scripted, err := gojahandler.NewHandler(r.Key().String(), src)
			if err != nil {
				return nil, fmt.Errorf("route %s: %s", r.Key(), err)
			}
			scripted.Timeout = scriptTimeout
			h = scripted
		} else {
			h = newLogHandler()
		}

		if err := s.table.Register(r.Key(), policy, h); err != nil {
			return nil, fmt.Errorf("route %s: %s", r.Key(), err)
		}
	}

	if journalFile != "" {
		j, err := journal.NewJournal(journalFile)
		if err != nil {
			return nil, err
		}
		if err = j.Open(); err != nil {
			return nil, err
		}
		s.journal = j

		go func() {
			<-ctx.Done()
			if err := j.Close(); err != nil {
				log.Printf("Service journal Close error %s", err)
			}
		}()
	}

	s.router = &observedRouter{s: s}
	s.processor = processor.New(s.router, nil)

	s.timers = timers.NewTimers(func(ctx context.Context, d *directive.Directive) error {
		return s.ingest(ctx, d)
	})
	for _, ts := range cfg.Timers {
		switch {
		case ts.Cron != "":
			if err := s.timers.AddCron(ctx, ts.Id, ts.Directive, ts.Cron); err != nil {
				return nil, fmt.Errorf("timer %s: %s", ts.Id, err)
			}
		default:
			in, err := ts.Duration()
			if err != nil {
				return nil, fmt.Errorf("timer %s: %s", ts.Id, err)
			}
			if err := s.timers.Add(ctx, ts.Id, ts.Directive, in); err != nil {
				return nil, fmt.Errorf("timer %s: %s", ts.Id, err)
			}
		}
	}

	return s, nil
}

// Run pumps the couplings' input into the processor until the input
// ends or the context is canceled.
func (s *Service) Run(ctx context.Context, c sio.Couplings) error {
	if err := c.Start(ctx); err != nil {
		return err
	}
	in, out, err := c.IO(ctx)
	if err != nil {
		return err
	}
	s.out = out

	defer func() {
		s.processor.Shutdown()
		s.timers.Shutdown()
		if err := c.Stop(ctx); err != nil {
			log.Printf("Service couplings Stop error %s", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case x := <-in:
			if x == nil {
				return nil
			}
			if x.Dialog != "" {
				s.trf("dialog %q", x.Dialog)
				s.processor.SetDialogRequestID(x.Dialog)
				continue
			}
			if err := s.ingest(ctx, x.Directive); err != nil {
				log.Printf("Service ingest error %s for %s", err, x.Directive)
			}
		}
	}
}

func (s *Service) ingest(ctx context.Context, d *directive.Directive) error {
	s.trf("ingest %s", d)

	// A directive that belongs to no dialog isn't sequenced; it's
	// handled immediately.
	if d.Header.DialogRequestID == "" {
		return s.handleImmediately(ctx, d)
	}

	err := s.processor.Ingest(d)

	e := &journal.Entry{
		DialogRequestID: d.Header.DialogRequestID,
		MessageID:       d.Header.MessageID,
		Disposition:     journal.Ingested,
	}
	if err != nil {
		e.Disposition = journal.Dropped
		e.Description = err.Error()
	}
	s.record(ctx, e)

	if err != nil {
		s.emit(&sio.Result{
			MessageID:       d.Header.MessageID,
			DialogRequestID: d.Header.DialogRequestID,
			Disposition:     string(journal.Dropped),
			Err:             err.Error(),
		})
	}
	return err
}

func (s *Service) handleImmediately(ctx context.Context, d *directive.Directive) error {
	if !s.router.PreHandle(d, processor.HandlerResult{}) {
		s.record(ctx, &journal.Entry{
			MessageID:   d.Header.MessageID,
			Disposition: journal.Dropped,
			Description: "rejected at pre-handle",
		})
		return fmt.Errorf("directive %s rejected at pre-handle", d)
	}
	if handled, _ := s.router.Handle(d); !handled {
		return fmt.Errorf("directive %s dispatch failed", d)
	}
	return nil
}

func (s *Service) record(ctx context.Context, e *journal.Entry) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(ctx, e); err != nil {
		log.Printf("Service journal Record error %s", err)
	}
}

// emit sends a result to the couplings (and the event poster, if
// any), dropping rather than blocking.
func (s *Service) emit(r *sio.Result) {
	if s.out != nil {
		select {
		case s.out <- r:
		default:
			log.Printf("Service results chan blocked")
		}
	}
	if s.poster != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.poster.Post(ctx, r); err != nil {
				log.Printf("Service event post error %s", err)
			}
		}()
	}
}

// observedRouter forwards to the service's table and reports
// dispositions to the journal and the results channel.
type observedRouter struct {
	s *Service
}

func (o *observedRouter) PreHandle(d *directive.Directive, result processor.HandlerResult) bool {
	return o.s.table.PreHandle(d, result)
}

func (o *observedRouter) Handle(d *directive.Directive) (bool, directive.BlockingPolicy) {
	handled, policy := o.s.table.Handle(d)

	e := &journal.Entry{
		DialogRequestID: d.Header.DialogRequestID,
		MessageID:       d.Header.MessageID,
		Disposition:     journal.Handled,
	}
	if !handled {
		e.Disposition = journal.Failed
		e.Description = "dispatch failed"
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	o.s.record(ctx, e)
	cancel()

	o.s.emit(&sio.Result{
		MessageID:       d.Header.MessageID,
		DialogRequestID: d.Header.DialogRequestID,
		Disposition:     string(e.Disposition),
		Err:             e.Description,
	})

	return handled, policy
}

func (o *observedRouter) Cancel(d *directive.Directive) {
	o.s.table.Cancel(d)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	o.s.record(ctx, &journal.Entry{
		DialogRequestID: d.Header.DialogRequestID,
		MessageID:       d.Header.MessageID,
		Disposition:     journal.Canceled,
	})
	cancel()

	o.s.emit(&sio.Result{
		MessageID:       d.Header.MessageID,
		DialogRequestID: d.Header.DialogRequestID,
		Disposition:     string(journal.Canceled),
	})
}
