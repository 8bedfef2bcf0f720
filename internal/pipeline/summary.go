package pipeline

import (
	"time"

	"cleanser/internal/export"
	"cleanser/internal/failures"
	"cleanser/internal/logging"
)

// Summary reports the outcome of one run.
type Summary struct {
	RunID              string           `json:"run_id"`
	Timestamp          string           `json:"timestamp"`
	SourcePath         string           `json:"source_path"`
	SourceFingerprint  string           `json:"source_fingerprint,omitempty"`
	State              State            `json:"state"`
	FailedStep         State            `json:"failed_step,omitempty"`
	Err                error            `json:"-"`
	Error              string           `json:"error,omitempty"`
	ErrorKind          string           `json:"error_kind,omitempty"`
	TotalRows          int              `json:"total_rows"`
	CleanRows          int              `json:"clean_rows"`
	RejectedRows       int              `json:"rejected_rows"`
	InvalidRows        int              `json:"invalid_rows"`
	DuplicateIDs       int              `json:"duplicate_ids"`
	NonSpotifyTrackIDs int              `json:"non_spotify_track_ids"`
	Artifacts          export.Artifacts `json:"artifacts"`
	StartedAt          time.Time        `json:"started_at"`
	FinishedAt         time.Time        `json:"finished_at"`
	Elapsed            time.Duration    `json:"elapsed_ns"`
}

// Succeeded reports whether every step completed.
func (s Summary) Succeeded() bool {
	return s.State == StateDone
}

func (s *Summary) fail(step State, err error) {
	s.State = StateFailed
	s.FailedStep = step
	s.Err = err
	if err != nil {
		s.Error = err.Error()
		s.ErrorKind = failures.Kind(err)
	}
}

// LogAttrs renders the summary as structured log attributes.
func (s Summary) LogAttrs() []logging.Attr {
	attrs := []logging.Attr{
		logging.String("state", string(s.State)),
		logging.String("timestamp", s.Timestamp),
		logging.Int("total_rows", s.TotalRows),
		logging.Int("clean_rows", s.CleanRows),
		logging.Int("rejected_rows", s.RejectedRows),
		logging.Int("invalid_rows", s.InvalidRows),
		logging.Duration("elapsed", s.Elapsed),
		logging.String("source_fingerprint", s.SourceFingerprint),
	}
	if s.Artifacts.JSONPath != "" {
		attrs = append(attrs,
			logging.String("json_path", s.Artifacts.JSONPath),
			logging.String("csv_path", s.Artifacts.CSVPath),
		)
	}
	if s.Artifacts.InvalidPath != "" {
		attrs = append(attrs, logging.String("invalid_path", s.Artifacts.InvalidPath))
	}
	if s.Err != nil {
		attrs = append(attrs,
			logging.String("failed_step", string(s.FailedStep)),
			logging.ErrorKind(s.ErrorKind),
			logging.Error(s.Err),
		)
	}
	return attrs
}
