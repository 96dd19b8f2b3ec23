package archiver

import (
	"context"
	"sync"
)

// runPool runs fn over items with at most workers in flight. The first error
// cancels the remaining work and is returned; items already running finish
// their current call. Ordering across items is not guaranteed.
func runPool[T any](ctx context.Context, workers int, items []T, fn func(context.Context, T) error) error {
	if workers < 1 {
		workers = 1
	}

	poolCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := make(chan T)

	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range tasks {
				if poolCtx.Err() != nil {
					continue
				}
				if err := fn(poolCtx, item); err != nil {
					once.Do(func() {
						firstErr = err
						cancel()
					})
				}
			}
		}()
	}

feed:
	for _, item := range items {
		select {
		case tasks <- item:
		case <-poolCtx.Done():
			break feed
		}
	}
	close(tasks)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
