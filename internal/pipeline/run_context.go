package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"cleanser/internal/config"
)

// RunContext identifies one run. Timestamp is shared by every artifact the
// run produces.
type RunContext struct {
	ID        string
	Timestamp string
	StartedAt time.Time
}

// NewRunContext captures the run identity at startedAt. A non-empty
// override replaces the derived timestamp and must already be in
// YYYYMMDDHHMMSS form.
func NewRunContext(startedAt time.Time, override string) (RunContext, error) {
	ts := startedAt.Format(config.TimestampLayout)
	if override != "" {
		if _, err := time.Parse(config.TimestampLayout, override); err != nil {
			return RunContext{}, fmt.Errorf("execution timestamp %q: %w", override, err)
		}
		ts = override
	}
	return RunContext{
		ID:        uuid.NewString(),
		Timestamp: ts,
		StartedAt: startedAt,
	}, nil
}
