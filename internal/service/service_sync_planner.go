package service

import (
	"context"
	"slices"

	"github.com/MKhiriev/go-mail-sync/models"
)

// DefaultMaxBatch is the batch size used when the server advertises no
// limit.
const DefaultMaxBatch = 100

// syncPlanner is the concrete implementation of SyncPlanner.
// It is stateless and performs no I/O.
type syncPlanner struct{}

// NewSyncPlanner constructs a SyncPlanner ready for use.
func NewSyncPlanner() SyncPlanner {
	return &syncPlanner{}
}

// BuildPlan implements SyncPlanner.
//
// ToFetch is the set difference remote − local in remote order with
// duplicates removed. Stale holds the local IDs absent remotely, sorted;
// the planner itself never acts on them.
//
// ctx cancellation is checked at the start of each iteration so that
// callers can abort early on very large folders.
func (p *syncPlanner) BuildPlan(
	ctx context.Context,
	remote []string,
	local map[string]struct{},
	batchSize int,
) (models.SyncPlan, error) {
	if batchSize <= 0 {
		batchSize = DefaultMaxBatch
	}
	plan := models.SyncPlan{BatchSize: batchSize}

	seen := make(map[string]struct{}, len(remote))
	for _, id := range remote {
		if err := ctx.Err(); err != nil {
			return models.SyncPlan{}, err
		}

		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if _, ok := local[id]; !ok {
			plan.ToFetch = append(plan.ToFetch, id)
		}
	}

	for id := range local {
		if err := ctx.Err(); err != nil {
			return models.SyncPlan{}, err
		}

		if _, ok := seen[id]; !ok {
			plan.Stale = append(plan.Stale, id)
		}
	}
	slices.Sort(plan.Stale)

	return plan, nil
}
