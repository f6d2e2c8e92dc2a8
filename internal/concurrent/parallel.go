// Package concurrent runs independent lookups side by side.
package concurrent

import (
	"context"
	"sync"
)

// Outcome is the result of the lookup for one key
type Outcome[K comparable, R any] struct {
	Key   K
	Value R
	Err   error
}

// FanOut calls fn once per distinct key with at most limit calls in flight
// and waits for all of them; one failure never aborts the others.
// limit <= 0 means no limit. A key still waiting for a slot when ctx is done
// is not looked up and its outcome carries ctx.Err().
// Outcomes follow the first-seen order of keys.
func FanOut[K comparable, R any](ctx context.Context, keys []K, limit int, fn func(ctx context.Context, key K) (R, error)) []Outcome[K, R] {
	distinct := Distinct(keys)
	if limit <= 0 || limit > len(distinct) {
		limit = len(distinct)
	}

	outcomes := make([]Outcome[K, R], len(distinct))
	slots := make(chan struct{}, max(limit, 1))
	var wg sync.WaitGroup

	for i, key := range distinct {
		outcomes[i].Key = key

		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case slots <- struct{}{}:
			case <-ctx.Done():
				outcomes[i].Err = ctx.Err()
				return
			}
			defer func() { <-slots }()

			outcomes[i].Value, outcomes[i].Err = fn(ctx, key)
		}()
	}

	wg.Wait()
	return outcomes
}

// Distinct drops repeated keys, keeping the first occurrence of each
func Distinct[K comparable](keys []K) []K {
	seen := make(map[K]struct{}, len(keys))
	out := make([]K, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
