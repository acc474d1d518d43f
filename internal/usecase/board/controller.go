// Package board holds the board interaction controller: it owns the position and the selection,
// talks to the rules authority and tells subscribers about every state change.
//
// All state lives on a single loop goroutine started by Run. Authority calls run on their own
// goroutines and post their results back to the loop; each result carries the epoch it was
// issued under and is dropped if the epoch has moved on.
package board

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"chessboard/internal/domain/board"
	apperrors "chessboard/internal/errors"
)

const DefaultTimeout = 5 * time.Second

const eventBuffer = 64

type Controller struct {
	authority Authority
	log       *zap.SugaredLogger
	timeout   time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	events chan func()
	done   chan struct{}

	nextSub atomic.Uint64

	// loop-owned
	st          state
	subscribers map[uint64]func(View)
}

func NewController(authority Authority, log *zap.SugaredLogger, timeout time.Duration) *Controller {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		authority:   authority,
		log:         log,
		timeout:     timeout,
		ctx:         ctx,
		cancel:      cancel,
		events:      make(chan func(), eventBuffer),
		done:        make(chan struct{}),
		subscribers: make(map[uint64]func(View)),
	}
}

// Run processes events until ctx is cancelled or Close is called.
func (c *Controller) Run(ctx context.Context) {
	defer close(c.done)
	defer c.cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.ctx.Done():
			return
		case fn := <-c.events:
			fn()
		}
	}
}

func (c *Controller) Close() {
	c.cancel()
}

// Done is closed once Run has returned.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Load starts the controller from path, or from a new game when path is empty.
func (c *Controller) Load(path board.Path) {
	path = append(board.Path{}, path...)
	c.post(func() { c.load(path) })
}

// Reload repeats the last load with the current path, e.g. after the authority was unreachable.
func (c *Controller) Reload() {
	c.post(func() { c.load(c.st.path) })
}

func (c *Controller) Click(loc board.Location) {
	c.post(func() { c.click(loc) })
}

func (c *Controller) Undo() {
	c.post(c.undo)
}

func (c *Controller) Promote(kind board.PieceKind) {
	c.post(func() { c.promote(kind) })
}

func (c *Controller) CancelPromotion() {
	c.post(c.cancelPromotion)
}

// View returns the current snapshot. ok is false once the controller has stopped.
func (c *Controller) View() (v View, ok bool) {
	reply := make(chan View, 1)
	if !c.post(func() { reply <- c.st.snapshot() }) {
		return View{}, false
	}
	select {
	case v = <-reply:
		return v, true
	case <-c.ctx.Done():
		return View{}, false
	}
}

// Subscribe registers fn for every view change and immediately sends the current view.
// fn runs on the controller loop and must not block or call back into the controller
// synchronously.
func (c *Controller) Subscribe(fn func(View)) (unsubscribe func()) {
	id := c.nextSub.Add(1)
	c.post(func() {
		c.subscribers[id] = fn
		fn(c.st.snapshot())
	})
	return func() {
		c.post(func() { delete(c.subscribers, id) })
	}
}

func (c *Controller) post(fn func()) bool {
	select {
	case c.events <- fn:
		return true
	case <-c.ctx.Done():
		return false
	}
}

func (c *Controller) publish() {
	if len(c.subscribers) == 0 {
		return
	}
	v := c.st.snapshot()
	for _, fn := range c.subscribers {
		fn(v)
	}
}

// async runs fetch off the loop under the per-call timeout and resumes on the loop.
func async[T any](c *Controller, fetch func(ctx context.Context) (T, error), resume func(T, error)) {
	go func() {
		ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
		defer cancel()
		v, err := fetch(ctx)
		c.post(func() { resume(v, err) })
	}()
}

// stale reports whether a result issued under epoch has been superseded.
func (c *Controller) stale(epoch uint64, kind string) bool {
	if epoch == c.st.epoch {
		return false
	}
	c.log.Debugw("discarding stale result", "kind", kind, "epoch", epoch, "current", c.st.epoch)
	return true
}

// invariant reports err when it is a controller bug. Development loggers panic here.
func (c *Controller) invariant(err error) bool {
	if !errors.Is(err, apperrors.ErrInvariantViolation) {
		return false
	}
	c.log.DPanicw("controller invariant violated", "error", err)
	return true
}

// messageFor turns a recovered error into the text shown to the user.
func (c *Controller) messageFor(err error) string {
	reason, ok := apperrors.ReasonOf(err)
	switch {
	case ok && errors.Is(err, apperrors.ErrReplayRejected):
		return fmt.Sprintf("%v: %s", apperrors.ErrReplayRejected, reason)
	case ok:
		return string(reason)
	}
	c.log.Warnw("rules authority call failed", "error", err)
	return apperrors.ErrTransportFailure.Error()
}
