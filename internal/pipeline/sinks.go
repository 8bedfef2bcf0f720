package pipeline

import (
	"context"

	"cleanser/internal/dedupe"
	"cleanser/internal/export"
	"cleanser/internal/store"
)

// RecordSink persists a partition. *store.Store satisfies it.
type RecordSink interface {
	Persist(ctx context.Context, runID string, part dedupe.Partition) (store.PersistResult, error)
}

// ArtifactSink writes the run files. *export.Writer satisfies it.
type ArtifactSink interface {
	Write(ctx context.Context, part dedupe.Partition, ts string) (export.Artifacts, error)
	WriteInvalid(ctx context.Context, rows []export.InvalidRow, ts string) (string, error)
	Discard(arts export.Artifacts) error
}
