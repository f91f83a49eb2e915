package synthesis

import (
	"context"

	"medical_advisor_backend/internal/store"
	"medical_advisor_backend/platform/logger"
)

// ChunkFault records one batch chunk that failed after its retry.
type ChunkFault struct {
	ChunkIndex int    `json:"chunkIndex"`
	Writes     int    `json:"writes"`
	Error      string `json:"error"`
}

// CommitSummary reports what a CommitAll call durably persisted. There is no
// atomicity across chunks: committed chunks stay committed when a later
// chunk fails. Idempotency on re-run comes from the synthesizer's existence
// checks, not from this layer.
type CommitSummary struct {
	Committed int          `json:"committed"`
	Lost      int          `json:"lost"`
	Faults    []ChunkFault `json:"faults,omitempty"`
}

// Coordinator groups document writes into store-bounded chunks and commits
// each chunk independently, in insertion order.
type Coordinator struct {
	gw  store.Gateway
	log *logger.Logger
}

// NewCoordinator creates a batch persistence coordinator.
func NewCoordinator(gw store.Gateway, log *logger.Logger) *Coordinator {
	return &Coordinator{gw: gw, log: log}
}

// CommitAll persists the writes in chunks of at most store.MaxBatchWrites.
// A failed chunk gets one immediate retry; if it fails again the loss is
// recorded and later chunks are still attempted. Never silently drops work.
func (c *Coordinator) CommitAll(ctx context.Context, writes []store.Write) CommitSummary {
	var summary CommitSummary

	for start, index := 0, 0; start < len(writes); start, index = start+store.MaxBatchWrites, index+1 {
		end := start + store.MaxBatchWrites
		if end > len(writes) {
			end = len(writes)
		}
		chunkWrites := writes[start:end]

		err := c.gw.CommitBatch(ctx, chunkWrites)
		if err != nil {
			err = c.gw.CommitBatch(ctx, chunkWrites)
		}
		if err != nil {
			summary.Lost += len(chunkWrites)
			summary.Faults = append(summary.Faults, ChunkFault{
				ChunkIndex: index,
				Writes:     len(chunkWrites),
				Error:      err.Error(),
			})
			c.log.BatchCommitFailed(index, summary.Committed, len(chunkWrites), err)
			continue
		}
		summary.Committed += len(chunkWrites)
	}

	return summary
}
