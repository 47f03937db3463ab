package rt

import (
	"context"
	"time"
)

// RouterConfig tunes the router task's policy knobs.
type RouterConfig struct {
	// DropExpiredBeforeDispatch, when true, makes the router silently
	// drop an envelope whose TTL has already elapsed instead of
	// delivering it to the destination mailbox. Default false:
	// deliver-then-let-the-consumer-decide.
	DropExpiredBeforeDispatch bool
	// OnDeadLetter, if set, is invoked for every envelope the router
	// could not deliver (unknown address or full mailbox).
	OnDeadLetter func(addr Address)
}

func (s *ActorSystem[M]) startRouter() {
	ctx, cancel := context.WithCancel(context.Background())
	s.routerCancel = cancel
	s.routerDone = make(chan struct{})

	sub := s.broker.Subscribe()
	go func() {
		defer close(s.routerDone)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case env, ok := <-sub.C():
				if !ok {
					return
				}
				if s.State() != StateRunning {
					return
				}
				s.route(env)
			}
		}
	}()
}

func (s *ActorSystem[M]) route(env Envelope[M]) {
	if s.cfg.Router.DropExpiredBeforeDispatch && env.Expired(time.Now().UTC()) {
		return
	}
	if env.ReplyTo == nil {
		return
	}

	entry, ok := s.mailboxSender(*env.ReplyTo)
	if !ok {
		s.deadLetter(*env.ReplyTo)
		return
	}
	if err := entry.send(env); err != nil {
		s.deadLetter(*env.ReplyTo)
	}
}

func (s *ActorSystem[M]) deadLetter(addr Address) {
	if s.log != nil {
		s.log.Warn("rt: dead letter", "address", addr.String())
	}
	if s.cfg.Router.OnDeadLetter != nil {
		s.cfg.Router.OnDeadLetter(addr)
	}
}
