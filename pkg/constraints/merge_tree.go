package constraints

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// MergeAll combines shard-level dataset results into one, as a pairwise merge
// tree. Each round merges adjacent pairs concurrently; merging only reads its
// operands, so parallelism is safe once every shard's update phase has
// completed. Returns nil for an empty input.
func MergeAll(ctx context.Context, parts ...*DatasetConstraints) (*DatasetConstraints, error) {
	switch len(parts) {
	case 0:
		return nil, nil
	case 1:
		return parts[0], nil
	}

	round := make([]*DatasetConstraints, len(parts))
	copy(round, parts)

	for len(round) > 1 {
		next := make([]*DatasetConstraints, (len(round)+1)/2)
		g, _ := errgroup.WithContext(ctx)
		for i := 0; i < len(round); i += 2 {
			if i+1 == len(round) {
				next[i/2] = round[i]
				continue
			}
			i := i
			g.Go(func() error {
				merged, err := round[i].Merge(round[i+1])
				if err != nil {
					return err
				}
				next[i/2] = merged
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		round = next
	}
	return round[0], nil
}
