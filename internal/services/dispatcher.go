// Package services – Dispatcher
//
// The webhook acknowledges the provider before any processing happens, so
// events are handed to a Dispatcher that runs them in the background. Events
// of one payload are processed sequentially in delivery order. Failures are
// logged with the sender and message id and otherwise swallowed: the provider
// already got its 200 and will not retry.
package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/whatsapp-storefront/internal/whatsapp"
)

// EventHandler processes one normalized inbound event.
type EventHandler interface {
	Handle(ctx context.Context, evt whatsapp.Event) error
}

// Dispatcher runs event batches on background goroutines.
type Dispatcher struct {
	Handler EventHandler

	wg sync.WaitGroup
}

// NewDispatcher returns a Dispatcher delivering to h.
func NewDispatcher(h EventHandler) *Dispatcher {
	return &Dispatcher{Handler: h}
}

// Dispatch schedules events and returns immediately. The request context's
// values (trace, logger) are kept but its cancellation is not, since the
// request ends as soon as the webhook is acknowledged.
func (d *Dispatcher) Dispatch(ctx context.Context, events []whatsapp.Event) {
	if len(events) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for _, evt := range events {
			d.run(ctx, evt)
		}
	}()
}

func (d *Dispatcher) run(ctx context.Context, evt whatsapp.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("sender", evt.SenderID).
				Str("message_id", evt.MessageID).
				Err(fmt.Errorf("panic: %v", r)).
				Msg("webhook event panicked")
		}
	}()
	if err := d.Handler.Handle(ctx, evt); err != nil {
		log.Error().
			Err(err).
			Str("sender", evt.SenderID).
			Str("message_id", evt.MessageID).
			Str("kind", string(evt.Kind)).
			Msg("webhook event failed")
	}
}

// Wait blocks until every dispatched batch has finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
