package export

import "path/filepath"

// File name prefixes for each artifact kind.
const (
	CleanPrefix   = "data_"
	RejectPrefix  = "data_reject_"
	InvalidPrefix = "data_invalid_"
	BackupPrefix  = "scrap_"
)

// JSONName returns the clean artifact name for a run timestamp.
func JSONName(ts string) string { return CleanPrefix + ts + ".json" }

// RejectName returns the reject artifact name for a run timestamp.
func RejectName(ts string) string { return RejectPrefix + ts + ".csv" }

// InvalidName returns the quarantine artifact name for a run timestamp.
func InvalidName(ts string) string { return InvalidPrefix + ts + ".csv" }

// BackupName returns the source backup name for a run timestamp.
func BackupName(ts string) string { return BackupPrefix + ts + ".csv" }

// Artifacts lists the files produced by one run.
type Artifacts struct {
	Timestamp   string `json:"timestamp"`
	JSONPath    string `json:"json_path"`
	CSVPath     string `json:"csv_path"`
	InvalidPath string `json:"invalid_path,omitempty"`
}

// Paths returns every non-empty artifact path.
func (a Artifacts) Paths() []string {
	out := make([]string, 0, 3)
	for _, p := range []string{a.JSONPath, a.CSVPath, a.InvalidPath} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func artifactsFor(dir, ts string) Artifacts {
	return Artifacts{
		Timestamp: ts,
		JSONPath:  filepath.Join(dir, JSONName(ts)),
		CSVPath:   filepath.Join(dir, RejectName(ts)),
	}
}
