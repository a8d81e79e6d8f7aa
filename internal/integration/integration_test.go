//go:build integration

package integration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	repoRoot         string
	integrationBin   string
	noPDFBin         string
	integrationCache string
)

func TestMain(m *testing.M) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		fmt.Fprintln(os.Stderr, "integration: resolve current file")
		os.Exit(1)
	}
	repoRoot = filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))

	tmpDir, err := os.MkdirTemp("", "markbook-integration-bin-")
	if err != nil {
		fmt.Fprintf(os.Stderr, "integration: create temp dir: %v\n", err)
		os.Exit(1)
	}

	integrationCache = filepath.Join(tmpDir, "gocache")
	if err := os.MkdirAll(integrationCache, 0o700); err != nil {
		fmt.Fprintf(os.Stderr, "integration: create gocache: %v\n", err)
		os.Exit(1)
	}

	integrationBin = filepath.Join(tmpDir, "markbook")
	noPDFBin = filepath.Join(tmpDir, "markbook-nopdf")
	builds := [][]string{
		{"build", "-o", integrationBin, "./cmd/markbook"},
		{"build", "-tags", "nopdf", "-o", noPDFBin, "./cmd/markbook"},
	}
	for _, args := range builds {
		buildCmd := exec.Command("go", args...)
		buildCmd.Dir = repoRoot
		buildCmd.Env = append(os.Environ(), "GOCACHE="+integrationCache)
		if output, err := buildCmd.CombinedOutput(); err != nil {
			fmt.Fprintf(os.Stderr, "integration: %s: %v\n%s\n", strings.Join(args, " "), err, string(output))
			_ = os.RemoveAll(tmpDir)
			os.Exit(1)
		}
	}

	code := m.Run()
	_ = os.RemoveAll(tmpDir)
	os.Exit(code)
}

type cliHarness struct {
	workDir string
	home    string
	bin     string
	env     []string
}

type cliResult struct {
	output   string
	exitCode int
	err      error
}

func newHarness(t *testing.T) *cliHarness {
	t.Helper()
	base := t.TempDir()
	h := &cliHarness{
		workDir: filepath.Join(base, "work"),
		home:    filepath.Join(base, "home"),
		bin:     integrationBin,
	}
	require.NoError(t, os.MkdirAll(h.workDir, 0o755))
	require.NoError(t, os.MkdirAll(h.home, 0o755))
	return h
}

func (h *cliHarness) environ() []string {
	env := []string{
		"HOME=" + h.home,
		"XDG_CONFIG_HOME=" + filepath.Join(h.home, ".config"),
		"MARKBOOK_EXPORT_AUTO_OPEN=false",
		"GOCACHE=" + integrationCache,
	}
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "MARKBOOK_") {
			continue
		}
		env = append(env, kv)
	}
	env = append(env, h.env...)
	return env
}

func (h *cliHarness) run(timeout time.Duration, args ...string) cliResult {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, h.bin, args...)
	cmd.Dir = h.workDir
	cmd.Env = h.environ()
	output, err := cmd.CombinedOutput()

	res := cliResult{
		output: strings.TrimSpace(string(output)),
		err:    err,
	}
	if err == nil {
		return res
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.exitCode = exitErr.ExitCode()
		return res
	}
	res.exitCode = -1
	if ctx.Err() != nil {
		res.output = strings.TrimSpace(string(output) + "\n" + ctx.Err().Error())
	}
	return res
}

func requireSuccess(t *testing.T, res cliResult, command ...string) string {
	t.Helper()
	require.NoError(t, res.err, "command failed: %s\noutput:\n%s", strings.Join(command, " "), res.output)
	require.Equal(t, 0, res.exitCode)
	return res.output
}

func requireExit(t *testing.T, res cliResult, code int, command ...string) string {
	t.Helper()
	require.Error(t, res.err, "command unexpectedly succeeded: %s\noutput:\n%s", strings.Join(command, " "), res.output)
	require.Equal(t, code, res.exitCode, "command: %s\noutput:\n%s", strings.Join(command, " "), res.output)
	return res.output
}

func TestIntegrationLifecycleAddAssessExport(t *testing.T) {
	h := newHarness(t)

	requireSuccess(t, h.run(10*time.Second, "student", "add", "--first", "Anna", "--last", "Berg", "--class", "5b"), "student add")
	requireSuccess(t, h.run(10*time.Second, "student", "details", "1", "--social", "hilfsbereit", "--punctuality", "immer pünktlich"), "student details")
	for i := 1; i <= 3; i++ {
		title := fmt.Sprintf("Arbeit %d", i)
		requireSuccess(t, h.run(10*time.Second, "work", "add", "1", "--title", title, "--concept", strings.Repeat("durchdacht ", 40)), "work add")
	}

	out := requireSuccess(t, h.run(20*time.Second, "export", "1"), "export 1")
	require.Contains(t, out, "Anna_Berg_5B.pdf")

	content, err := os.ReadFile(filepath.Join(h.workDir, "Anna_Berg_5B.pdf"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(content), "%PDF"))

	_, err = os.Stat(filepath.Join(h.workDir, "students.db"))
	require.NoError(t, err)
}

func TestIntegrationDeleteStudentRemovesWorkTitles(t *testing.T) {
	h := newHarness(t)

	requireSuccess(t, h.run(10*time.Second, "student", "add", "--first", "Ben", "--last", "Adler"), "student add")
	requireSuccess(t, h.run(10*time.Second, "work", "add", "1", "--title", "Vase"), "work add")
	requireSuccess(t, h.run(10*time.Second, "student", "rm", "1"), "student rm")

	requireExit(t, h.run(10*time.Second, "work", "rm", "1"), 3, "work rm 1")
	requireExit(t, h.run(10*time.Second, "student", "show", "1"), 3, "student show 1")
}

func TestIntegrationNoPDFBuildReportsMissingRenderer(t *testing.T) {
	h := newHarness(t)
	h.bin = noPDFBin

	requireSuccess(t, h.run(10*time.Second, "student", "add", "--first", "Anna", "--last", "Berg"), "student add")
	out := requireExit(t, h.run(10*time.Second, "export", "1"), 6, "export 1")
	require.Contains(t, out, "nopdf")

	entries, err := os.ReadDir(h.workDir)
	require.NoError(t, err)
	for _, entry := range entries {
		require.False(t, strings.HasSuffix(entry.Name(), ".pdf"), "unexpected file %s", entry.Name())
	}

	requireExit(t, h.run(10*time.Second, "doctor"), 6, "doctor")
}

func TestIntegrationDotEnvSelectsDatabase(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(filepath.Join(h.workDir, ".env"), []byte("MARKBOOK_DB_PATH=data/klassen.db\n"), 0o600))

	requireSuccess(t, h.run(10*time.Second, "student", "add", "--first", "Anna", "--last", "Berg"), "student add")
	_, err := os.Stat(filepath.Join(h.workDir, "data", "klassen.db"))
	require.NoError(t, err)

	h.env = append(h.env, "MARKBOOK_DB_PATH="+filepath.Join(h.workDir, "other.db"))
	out := requireSuccess(t, h.run(10*time.Second, "student", "ls"), "student ls")
	require.Empty(t, out)
}

func TestIntegrationInvalidConfigIsUsageError(t *testing.T) {
	h := newHarness(t)
	configPath := filepath.Join(h.home, "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[logging]\nlevel = \"loud\"\n"), 0o600))

	requireExit(t, h.run(10*time.Second, "--config", configPath, "student", "ls"), 2, "student ls")
}

func TestIntegrationConcurrentStudentList(t *testing.T) {
	h := newHarness(t)
	requireSuccess(t, h.run(10*time.Second, "student", "add", "--first", "Parallel", "--last", "Reader"), "student add")

	var wg sync.WaitGroup
	errCh := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := h.run(10*time.Second, "student", "ls")
			if res.err != nil {
				errCh <- fmt.Errorf("exit=%d output=%s", res.exitCode, res.output)
				return
			}
			if !strings.Contains(res.output, "Parallel") {
				errCh <- fmt.Errorf("missing student in output: %s", res.output)
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}
}
