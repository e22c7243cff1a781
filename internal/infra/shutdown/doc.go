// Package shutdown turns termination signals into context cancellation.
//
// A long scan runs under the context returned by Handler.Context. The
// first SIGINT or SIGTERM cancels it and runs the registered hooks in
// reverse order, bounded by the handler timeout:
//
//	h := shutdown.NewHandler(5 * time.Second)
//	ctx, stop := h.Context(context.Background())
//	defer stop()
package shutdown
