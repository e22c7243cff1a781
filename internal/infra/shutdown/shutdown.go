package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Handler handles graceful shutdown.
type Handler struct {
	timeout time.Duration
	signals []os.Signal

	mu       sync.Mutex
	hooks    []func(context.Context) error
	received os.Signal
	hookErr  error

	trigger chan os.Signal
	done    chan struct{}
	once    sync.Once
}

// NewHandler creates a handler reacting to SIGINT and SIGTERM.
func NewHandler(timeout time.Duration) *Handler {
	return &Handler{
		timeout: timeout,
		signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		trigger: make(chan os.Signal, 1),
		done:    make(chan struct{}),
	}
}

// OnShutdown registers a shutdown hook.
// Hooks are called in reverse order of registration.
func (h *Handler) OnShutdown(hook func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// Context returns a child of parent that is cancelled when a signal
// arrives. The returned stop function releases the signal handler; it
// must be called once the work is finished.
func (h *Handler) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, h.signals...)

	exited := make(chan struct{})
	go func() {
		defer close(exited)
		defer signal.Stop(sigCh)

		var sig os.Signal
		select {
		case sig = <-sigCh:
		case sig = <-h.trigger:
		case <-ctx.Done():
			return
		}
		cancel()
		h.shutdown(sig)
	}()

	return ctx, func() {
		cancel()
		<-exited
	}
}

// Trigger starts shutdown as if sig had been received.
func (h *Handler) Trigger(sig os.Signal) {
	select {
	case h.trigger <- sig:
	default:
	}
}

func (h *Handler) shutdown(sig os.Signal) {
	h.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		h.mu.Lock()
		h.received = sig
		hooks := make([]func(context.Context) error, len(h.hooks))
		copy(hooks, h.hooks)
		h.mu.Unlock()

		var errs []error
		for i := len(hooks) - 1; i >= 0; i-- {
			if err := hooks[i](ctx); err != nil {
				errs = append(errs, err)
			}
		}

		h.mu.Lock()
		h.hookErr = errors.Join(errs...)
		h.mu.Unlock()
		close(h.done)
	})
}

// Signal returns the signal that triggered shutdown, or nil.
func (h *Handler) Signal() os.Signal {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.received
}

// Err returns the joined errors of the shutdown hooks.
func (h *Handler) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hookErr
}

// Done returns a channel that closes when shutdown hooks have finished.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
