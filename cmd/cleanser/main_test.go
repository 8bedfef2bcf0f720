package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"

	"cleanser/internal/artist"
	"cleanser/internal/config"
	"cleanser/internal/pipeline"
	"cleanser/internal/store"
	"cleanser/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	clearEnv(t)

	cfg := testsupport.NewConfig(t, opts...)
	cfg.Logging.Level = "error"
	base := testsupport.BaseDir(cfg)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CLEANSER_SOURCE_FILE", "CLEANSER_OUTPUT_DIR", "CLEANSER_LOG_DIR",
		"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD", "DB_SSLMODE", "DB_PATH",
		"EXECUTION_DATE_NODASH", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (env *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--config", env.configPath, "--env-file", filepath.Join(env.baseDir, "missing.env")}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestRunCommandEndToEnd(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithExecutionTimestamp("20250614101520"))
	testsupport.WriteSourceCSV(t, env.cfg.Paths.SourceFile,
		testsupport.Row("1", nil),
		testsupport.Row("2", nil),
		testsupport.Row("1", map[int]string{artist.ColPopularity: "70"}),
	)

	out, err := env.run(t, "run", "--json")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	var summary pipeline.Summary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v\n%s", err, out)
	}
	if summary.State != pipeline.StateDone || summary.CleanRows != 2 || summary.RejectedRows != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if want := filepath.Join(env.cfg.Paths.OutputDir, "data_20250614101520.json"); summary.Artifacts.JSONPath != want {
		t.Fatalf("json path = %q, want %q", summary.Artifacts.JSONPath, want)
	}

	out, err = env.run(t, "counts", "--json")
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	var counts store.Counts
	if err := json.Unmarshal([]byte(out), &counts); err != nil {
		t.Fatalf("decode counts: %v\n%s", err, out)
	}
	if counts.Clean != 2 || counts.Rejected != 1 {
		t.Fatalf("counts = %+v", counts)
	}

	out, err = env.run(t, "runs")
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	requireContains(t, out, summary.RunID[:8])
	requireContains(t, out, "DONE")

	out, err = env.run(t, "run", "--skip-unchanged")
	if err != nil {
		t.Fatalf("run --skip-unchanged: %v", err)
	}
	requireContains(t, out, "Source unchanged")
}

func TestRunCommandMissingSourceFails(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "run")
	if err == nil {
		t.Fatal("expected run to fail for a missing source")
	}
	requireContains(t, err.Error(), "PARSING")
	requireContains(t, out, "FAILED")

	out, err = env.run(t, "runs", "--json")
	if err != nil {
		t.Fatalf("runs --json: %v", err)
	}
	var runs []store.Run
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode runs: %v\n%s", err, out)
	}
	if len(runs) != 1 || runs[0].State != string(pipeline.StateFailed) || runs[0].FailedStep != string(pipeline.StateParsing) {
		t.Fatalf("unexpected registry: %+v", runs)
	}
}

func TestRunCommandTimestampFlag(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteSourceCSV(t, env.cfg.Paths.SourceFile, testsupport.Row("1", nil))

	if _, err := env.run(t, "run", "--timestamp", "20250614T101520"); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, name := range []string{"data_20250614101520.json", "data_reject_20250614101520.csv"} {
		if _, err := os.Stat(filepath.Join(env.cfg.Paths.OutputDir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}

	if _, err := env.run(t, "run", "--timestamp", "soon"); err == nil {
		t.Fatal("expected invalid --timestamp to fail")
	}
}

func TestRunCommandRefusesConcurrentRun(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteSourceCSV(t, env.cfg.Paths.SourceFile, testsupport.Row("1", nil))
	if err := os.MkdirAll(env.cfg.Paths.OutputDir, 0o755); err != nil {
		t.Fatalf("mkdir output: %v", err)
	}

	held := flock.New(filepath.Join(env.cfg.Paths.OutputDir, lockFileName))
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock = %v, %v", ok, err)
	}
	defer held.Unlock()

	_, err = env.run(t, "run")
	if err == nil {
		t.Fatal("expected run to fail while the lock is held")
	}
	requireContains(t, err.Error(), "another cleanser run")
}

func TestConfigInitValidateShow(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Database.Password = "hunter2"
	writeTestConfig(t, env.configPath, env.cfg)

	out, err := env.run(t, "config", "validate", "--check-db")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Database reachable")
	requireContains(t, out, "Configuration valid")

	out, err = env.run(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, env.cfg.Paths.OutputDir)
	requireContains(t, out, redactedSecret)
	if strings.Contains(out, "hunter2") {
		t.Fatalf("config show leaked the password:\n%s", out)
	}

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, err = env.run(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, err := env.run(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestEnvFileOverridesConfig(t *testing.T) {
	env := setupCLITestEnv(t)
	os.Unsetenv("CLEANSER_SOURCE_FILE")
	source := filepath.Join(env.baseDir, "from-env", "scrap.csv")
	envFile := filepath.Join(env.baseDir, "test.env")
	testsupport.WriteFile(t, envFile, "CLEANSER_SOURCE_FILE="+source+"\n")

	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"--config", env.configPath, "--env-file", envFile, "config", "show"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, stdout.String(), source)
}
