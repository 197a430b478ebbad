package gitref

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/pinionhq/pinion/libs/action"
)

// Outcome is the result of resolving one reference. Exactly one of SHA and
// Err is set.
type Outcome struct {
	SHA string
	Err error
}

// BatchResolve resolves the references with at most concurrency lookups in
// flight and returns an outcome per canonical key. A failing reference never
// cancels or blocks the others; failures are reported in their outcomes.
func (r *Resolver) BatchResolve(ctx context.Context, refs []action.ActionRef, concurrency int64) map[string]Outcome {
	if concurrency < 1 {
		concurrency = 1
	}

	lock := sync.Mutex{}
	outcomes := make(map[string]Outcome, len(refs))

	errGroup, groupCtx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(concurrency)

	for _, ref := range refs {
		ref := ref // https://golang.org/doc/faq#closures_and_goroutines

		if err := sem.Acquire(groupCtx, 1); err != nil {
			lock.Lock()
			outcomes[ref.String()] = Outcome{Err: err}
			lock.Unlock()
			continue
		}

		errGroup.Go(func() error {
			defer sem.Release(1)

			sha, err := r.ResolveSHA(groupCtx, ref)

			lock.Lock()
			defer lock.Unlock()
			if err != nil {
				outcomes[ref.String()] = Outcome{Err: err}
			} else {
				outcomes[ref.String()] = Outcome{SHA: sha}
			}
			return nil
		})
	}

	if err := errGroup.Wait(); err != nil {
		slog.Error("resolution group failed", "error", err)
	}

	return outcomes
}
