package engine

import (
	"context"
	"fmt"
	"sync"
)

// Run resolves the agent's identity, starts the control loops, and blocks
// until the context is cancelled or the operator's kill phrase arrives. Loop
// faults never propagate out of their loop; only a configuration problem (or
// the kill phrase) stops the process.
func (e *Engine) Run(ctx context.Context) error {
	me, err := e.Client.Me(ctx)
	if err != nil {
		return fmt.Errorf("resolving own identity: %w", err)
	}
	e.Username = me
	e.Logger.Info("engine starting", "username", me, "community", e.Config.Community)

	var wg sync.WaitGroup
	loops := []func(context.Context){
		e.runPostingLoop,
		e.runSubmissionLoop,
		e.runInboxLoop,
	}
	if e.Config.WatchComments {
		loops = append(loops, e.runCommentLoop)
	}
	for _, loop := range loops {
		wg.Add(1)
		go func(fn func(context.Context)) {
			defer wg.Done()
			fn(ctx)
		}(loop)
	}

	select {
	case <-ctx.Done():
		// stream subscriptions close on cancellation; wait for the loops
		wg.Wait()
	case <-e.quit:
		// the kill phrase terminates the process, not individual loops
		e.Logger.Warn("shutdown requested, terminating")
	}
	e.Status.Log(e.Logger, e.Budget.Remaining())
	return nil
}
