// Package platform runs the aggregate execution cycle of one device: drain
// the mailbox, build the round context, run the program, publish the export.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package platform

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// lockedMailbox guards the underlying policy when a separate receiver
// goroutine writes into it.
type lockedMailbox struct {
	mtx sync.Mutex
	mbx Mailbox
}

func (l *lockedMailbox) Enqueue(msg Message) {
	l.mtx.Lock()
	l.mbx.Enqueue(msg)
	l.mtx.Unlock()
}

func (l *lockedMailbox) Messages() Messages {
	l.mtx.Lock()
	msgs := l.mbx.Messages()
	l.mtx.Unlock()
	return msgs
}

// RunAsync is the cooperative variant: a receiver task pumps the transport
// into the mailbox while the driver task runs rounds on a fixed period. The
// only suspension points are the transport boundary and the inter-round
// sleep. n <= 0 means run until the context is canceled.
func (p *Platform) RunAsync(parent context.Context, program Program, n int) error {
	if err := p.preCycle(true); err != nil {
		return err
	}
	var (
		ctx, cancel = context.WithCancel(parent)
		lmbx        = &lockedMailbox{mbx: p.mailbox}
	)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { // receiver
		for {
			select {
			case <-gctx.Done():
				return nil
			case u, ok := <-p.network.Updates():
				if !ok {
					return nil
				}
				p.enqueueUpdate(lmbx, u)
			}
		}
	})
	g.Go(func() error { // driver
		defer cancel()
		ticker := time.NewTicker(p.period)
		defer ticker.Stop()
		for i := 0; n <= 0 || i < n; i++ {
			if i > 0 {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
				}
				p.preCycle(false)
			}
			p.cycle(lmbx, program, false)
		}
		return nil
	})
	return g.Wait()
}
