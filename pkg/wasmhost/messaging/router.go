package messaging

import (
	"context"

	"github.com/airsstack/airssys/pkg/rt"
	"github.com/airsstack/airssys/pkg/wasmhost"
)

// Router subscribes to a broker and translates incoming KindResponse
// envelopes into Tracker.Complete calls keyed by correlation id.
// Response envelopes carrying an unmatched correlation id are dead
// letters; envelopes of another kind or without a correlation id are
// ignored.
type Router struct {
	patterns     *Patterns
	onDeadLetter func(rt.Envelope[wasmhost.Message])

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRouter builds a Router over patterns. Start must be called to
// begin consuming the broker.
func NewRouter(patterns *Patterns, onDeadLetter func(rt.Envelope[wasmhost.Message])) *Router {
	return &Router{patterns: patterns, onDeadLetter: onDeadLetter}
}

// Start subscribes to the broker and begins routing responses in a
// background task. Stop ends the task.
func (r *Router) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})

	sub := r.patterns.broker.Subscribe()
	go func() {
		defer close(r.done)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case env, ok := <-sub.C():
				if !ok {
					return
				}
				r.route(env)
			}
		}
	}()
}

func (r *Router) route(env rt.Envelope[wasmhost.Message]) {
	if env.Payload.Kind != wasmhost.KindResponse || env.CorrelationID == nil {
		return
	}
	if err := r.patterns.tracker.Complete(*env.CorrelationID, env.Payload); err != nil && r.onDeadLetter != nil {
		r.onDeadLetter(env)
	}
}

// Stop cancels the router's background task and waits for it to exit.
func (r *Router) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	if r.done != nil {
		<-r.done
	}
}
