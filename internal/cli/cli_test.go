package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/amanthanvi/markbook/internal/app"
	"github.com/amanthanvi/markbook/internal/export"
	"github.com/amanthanvi/markbook/internal/roster"
	"github.com/amanthanvi/markbook/internal/storage"
	"github.com/stretchr/testify/require"
)

func TestVersionCommandOutputsBuildInfo(t *testing.T) {
	out, err := runCLI(t, "", "version")
	require.NoError(t, err)
	require.Contains(t, out, "markbook 1.2.3")
	require.Contains(t, out, "commit abc123")
}

func TestVersionCommandShort(t *testing.T) {
	out, err := runCLI(t, "", "version", "--short")
	require.NoError(t, err)
	require.Equal(t, "1.2.3\n", out)
}

func TestVersionCommandOutputsJSON(t *testing.T) {
	out, err := runCLI(t, "", "--json", "version")
	require.NoError(t, err)

	var payload BuildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.Equal(t, "1.2.3", payload.Version)
	require.Equal(t, "abc123", payload.Commit)
}

func TestRootHasGlobalFlagsAndCommands(t *testing.T) {
	var out bytes.Buffer
	cmd := NewRootCommand(&out, testBuildInfo())

	for _, name := range []string{"json", "quiet", "db", "config"} {
		require.NotNilf(t, cmd.PersistentFlags().Lookup(name), "missing flag %q", name)
	}
	for _, name := range []string{"student", "work", "class", "export", "roster", "status", "doctor", "debug", "tui", "version"} {
		_, _, err := cmd.Find([]string{name})
		require.NoErrorf(t, err, "expected command %q", name)
	}
}

func TestUnknownFlagReturnsUsageError(t *testing.T) {
	_, err := runCLI(t, "", "--no-such-flag")
	require.Error(t, err)
	require.Equal(t, ExitCodeUsage, exitCode(err))
}

func TestMissingConfigFileIsUsageError(t *testing.T) {
	db := newTestDB(t)
	missing := filepath.Join(db.dir, "nowhere.toml")

	_, err := runCLI(t, "", "--db", filepath.Join(db.dir, "students.db"), "--config", missing, "student", "ls")
	require.Error(t, err)
	require.Equal(t, ExitCodeUsage, exitCode(err))
	require.Contains(t, err.Error(), missing)

	t.Setenv("MARKBOOK_ENV_FILE", filepath.Join(db.dir, "nowhere.env"))
	_, err = db.run("student", "ls")
	require.Error(t, err)
	require.Equal(t, ExitCodeUsage, exitCode(err))
}

func TestStudentAddListShow(t *testing.T) {
	db := newTestDB(t)

	out, err := db.run("student", "add", "--first", " Anna ", "--last", "Berg", "--class", "5b")
	require.NoError(t, err)
	require.Contains(t, out, "added student 1: Anna Berg (5B)")

	_, err = db.run("student", "add", "--first", "Ben", "--last", "Adler", "--class", "4a")
	require.NoError(t, err)

	out, err = db.run("student", "ls")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "2\t4A\tAdler\tBen", lines[0])
	require.Equal(t, "1\t5B\tBerg\tAnna", lines[1])

	out, err = db.run("--json", "student", "ls", "--search", "ann", "--class", "5b")
	require.NoError(t, err)
	var students []storage.Student
	require.NoError(t, json.Unmarshal([]byte(out), &students))
	require.Len(t, students, 1)
	require.Equal(t, "Anna", students[0].FirstName)

	out, err = db.run("student", "show", "1")
	require.NoError(t, err)
	require.Contains(t, out, `name="Anna Berg"`)
	require.Contains(t, out, "work titles: 0")
}

func TestStudentAddRequiresNames(t *testing.T) {
	db := newTestDB(t)

	_, err := db.run("student", "add", "--last", "Berg")
	require.Equal(t, ExitCodeUsage, exitCode(err))

	_, err = db.run("student", "add", "--first", "Anna", "--last", "   ")
	require.Equal(t, ExitCodeUsage, exitCode(err))
}

func TestStudentAddInteractiveUsesForm(t *testing.T) {
	db := newTestDB(t)

	original := runStudentFormFn
	t.Cleanup(func() { runStudentFormFn = original })
	runStudentFormFn = func(_ io.Reader, _ io.Writer, student *storage.NewStudent) error {
		student.FirstName = "Clara"
		student.LastName = "Zorn"
		student.Class = "6c"
		return nil
	}

	out, err := db.run("--json", "student", "add", "--interactive")
	require.NoError(t, err)
	var added storage.Student
	require.NoError(t, json.Unmarshal([]byte(out), &added))
	require.Equal(t, "Clara", added.FirstName)
	require.Equal(t, "6C", added.Class)
}

func TestStudentShowUnknownIsNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.run("student", "show", "42")
	require.Error(t, err)
	require.Equal(t, ExitCodeNotFound, exitCode(err))

	_, err = db.run("student", "rm", "42")
	require.Equal(t, ExitCodeNotFound, exitCode(err))

	_, err = db.run("student", "details", "42", "--comment", "x")
	require.Equal(t, ExitCodeNotFound, exitCode(err))
}

func TestStudentIDMustBeInteger(t *testing.T) {
	db := newTestDB(t)

	_, err := db.run("student", "show", "abc")
	require.Equal(t, ExitCodeUsage, exitCode(err))

	_, err = db.run("student", "show")
	require.Equal(t, ExitCodeUsage, exitCode(err))
}

func TestStudentDetailsOverlaysChangedFlags(t *testing.T) {
	db := newTestDB(t)
	_, err := db.run("student", "add", "--first", "Anna", "--last", "Berg")
	require.NoError(t, err)

	_, err = db.run("student", "details", "1", "--social", "hilfsbereit", "--comment", "ruhig")
	require.NoError(t, err)
	_, err = db.run("student", "details", "1", "--material", "vollständig")
	require.NoError(t, err)

	out, err := db.run("--json", "student", "show", "1")
	require.NoError(t, err)
	var record app.StudentRecord
	require.NoError(t, json.Unmarshal([]byte(out), &record))
	require.NotNil(t, record.Details)
	require.Equal(t, "hilfsbereit", record.Details.SocialCompetence)
	require.Equal(t, "ruhig", record.Details.Comment)
	require.Equal(t, "vollständig", record.Details.Material)

	_, err = db.run("student", "details", "1")
	require.Equal(t, ExitCodeUsage, exitCode(err))
}

func TestWorkLifecycle(t *testing.T) {
	db := newTestDB(t)
	_, err := db.run("student", "add", "--first", "Anna", "--last", "Berg")
	require.NoError(t, err)

	out, err := db.run("work", "add", "1", "--title", "Vase", "--concept", "klar", "--liked", "Farben")
	require.NoError(t, err)
	require.Contains(t, out, "added work title 1 to student 1")
	_, err = db.run("work", "add", "1", "--title", "Collage")
	require.NoError(t, err)

	_, err = db.run("work", "edit", "1", "--note", "nachgebessert")
	require.NoError(t, err)

	out, err = db.run("--json", "work", "ls", "1")
	require.NoError(t, err)
	var works []storage.WorkTitle
	require.NoError(t, json.Unmarshal([]byte(out), &works))
	require.Len(t, works, 2)
	require.Equal(t, "Vase", works[0].Title)
	require.Equal(t, "nachgebessert", works[0].Note)
	require.Equal(t, "klar", works[0].SocialCompetence)
	require.Equal(t, "Farben", works[0].Punctuality)
	require.Equal(t, "Collage", works[1].Title)

	_, err = db.run("work", "rm", "2")
	require.NoError(t, err)
	_, err = db.run("work", "rm", "2")
	require.Equal(t, ExitCodeNotFound, exitCode(err))

	_, err = db.run("work", "add", "99", "--title", "x")
	require.Equal(t, ExitCodeNotFound, exitCode(err))

	_, err = db.run("work", "edit", "1")
	require.Equal(t, ExitCodeUsage, exitCode(err))
}

func TestStudentRemoveCascadesToWorkTitles(t *testing.T) {
	db := newTestDB(t)
	_, err := db.run("student", "add", "--first", "Anna", "--last", "Berg")
	require.NoError(t, err)
	_, err = db.run("work", "add", "1", "--title", "Vase")
	require.NoError(t, err)

	_, err = db.run("student", "rm", "1")
	require.NoError(t, err)

	_, err = db.run("work", "edit", "1", "--title", "x")
	require.Equal(t, ExitCodeNotFound, exitCode(err))
}

func TestClassListJSON(t *testing.T) {
	db := newTestDB(t)

	out, err := db.run("--json", "class", "ls")
	require.NoError(t, err)
	require.JSONEq(t, "[]", out)

	_, err = db.run("student", "add", "--first", "Anna", "--last", "Berg", "--class", "5b")
	require.NoError(t, err)
	_, err = db.run("student", "add", "--first", "Ben", "--last", "Adler", "--class", "4A")
	require.NoError(t, err)
	_, err = db.run("student", "add", "--first", "Cem", "--last", "Yilmaz", "--class", "5B")
	require.NoError(t, err)

	out, err = db.run("--json", "class", "ls")
	require.NoError(t, err)
	require.JSONEq(t, `["4A","5B"]`, out)
}

func TestQuietSuppressesOutput(t *testing.T) {
	db := newTestDB(t)

	out, err := db.run("--quiet", "student", "add", "--first", "Anna", "--last", "Berg")
	require.NoError(t, err)
	require.Empty(t, strings.TrimSpace(out))
}

func TestExportWritesNamedFileAndOpensIt(t *testing.T) {
	db := newTestDB(t)
	opener := stubRenderingDeps(t, true)

	_, err := db.run("student", "add", "--first", "Anna", "--last", "Berg", "--class", "5b")
	require.NoError(t, err)

	exportDir := filepath.Join(db.dir, "berichte")
	out, err := db.run("--json", "export", "1", "--dir", exportDir)
	require.NoError(t, err)

	var result app.ExportResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Equal(t, filepath.Join(exportDir, "Anna_Berg_5B.pdf"), result.Path)
	require.True(t, result.Opened)
	require.Equal(t, []string{result.Path}, opener.opened)

	content, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	require.Equal(t, "%PDF-stub", string(content))
}

func TestExportNoOpenSkipsViewer(t *testing.T) {
	db := newTestDB(t)
	opener := stubRenderingDeps(t, true)

	_, err := db.run("student", "add", "--first", "Anna", "--last", "Berg")
	require.NoError(t, err)

	out, err := db.run("export", "1", "--dir", db.dir, "--no-open")
	require.NoError(t, err)
	require.Contains(t, out, "not opened")
	require.Empty(t, opener.opened)
}

func TestExportOpenFailureStillSucceeds(t *testing.T) {
	db := newTestDB(t)
	opener := stubRenderingDeps(t, true)
	opener.err = export.ErrLaunch

	_, err := db.run("student", "add", "--first", "Anna", "--last", "Berg")
	require.NoError(t, err)

	out, err := db.run("export", "1", "--dir", db.dir)
	require.NoError(t, err)
	require.Contains(t, out, "not opened")
}

func TestExportRendererUnavailable(t *testing.T) {
	db := newTestDB(t)
	stubRenderingDeps(t, false)

	_, err := db.run("student", "add", "--first", "Anna", "--last", "Berg")
	require.NoError(t, err)

	exportDir := filepath.Join(db.dir, "out")
	_, err = db.run("export", "1", "--dir", exportDir)
	require.Error(t, err)
	require.Equal(t, ExitCodeDependencyMissing, exitCode(err))
	_, statErr := os.Stat(exportDir)
	require.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestExportUnknownStudent(t *testing.T) {
	db := newTestDB(t)
	stubRenderingDeps(t, true)

	_, err := db.run("export", "7", "--dir", db.dir)
	require.Equal(t, ExitCodeNotFound, exitCode(err))
}

func TestRosterExportThenImport(t *testing.T) {
	source := newTestDB(t)
	_, err := source.run("student", "add", "--first", "Anna", "--last", "Berg", "--class", "5b")
	require.NoError(t, err)
	_, err = source.run("student", "add", "--first", "Ben", "--last", "Adler", "--class", "4a")
	require.NoError(t, err)

	workbook := filepath.Join(source.dir, "klasse.xlsx")
	out, err := source.run("roster", "export", workbook, "--class", "5B")
	require.NoError(t, err)
	require.Contains(t, out, "wrote 1 student(s)")

	target := newTestDB(t)
	out, err = target.run("--json", "roster", "import", workbook)
	require.NoError(t, err)
	var report roster.ImportReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Equal(t, 1, report.Imported)
	require.Empty(t, report.Skipped)

	out, err = target.run("student", "ls")
	require.NoError(t, err)
	require.Equal(t, "1\t5B\tBerg\tAnna", strings.TrimSpace(out))
}

func TestRosterImportMissingFileIsIOError(t *testing.T) {
	db := newTestDB(t)

	_, err := db.run("roster", "import", filepath.Join(db.dir, "missing.xlsx"))
	require.Equal(t, ExitCodeIO, exitCode(err))
}

func TestStatusReportsCounts(t *testing.T) {
	db := newTestDB(t)
	stubRenderingDeps(t, true)
	_, err := db.run("student", "add", "--first", "Anna", "--last", "Berg", "--class", "5b")
	require.NoError(t, err)
	_, err = db.run("work", "add", "1", "--title", "Vase")
	require.NoError(t, err)

	out, err := db.run("--json", "status")
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.Equal(t, float64(1), payload["students"])
	require.Equal(t, float64(1), payload["work_titles"])
	require.Equal(t, float64(1), payload["classes"])
	require.Equal(t, float64(storage.CurrentSchemaVersion()), payload["schema_version"])
	require.Equal(t, true, payload["renderer_available"])
}

func TestDoctorRendererMissingExitCode(t *testing.T) {
	db := newTestDB(t)
	stubRenderingDeps(t, false)

	out, err := db.run("doctor")
	require.Error(t, err)
	require.Equal(t, ExitCodeDependencyMissing, exitCode(err))
	require.Contains(t, out, "renderer: fail")
	require.Contains(t, out, "database: ok")
}

func TestDoctorHealthy(t *testing.T) {
	db := newTestDB(t)
	stubRenderingDeps(t, true)

	out, err := db.run("doctor")
	require.NoError(t, err)
	require.Contains(t, out, "config: ok")
}

func TestDebugBundleHasNoStudentData(t *testing.T) {
	db := newTestDB(t)
	stubRenderingDeps(t, true)
	_, err := db.run("student", "add", "--first", "Anneliese", "--last", "Berg")
	require.NoError(t, err)

	output := filepath.Join(db.dir, "bundle.json")
	_, err = db.run("debug", "bundle", "--output", output)
	require.NoError(t, err)

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	require.NotContains(t, string(content), "Anneliese")

	var bundle map[string]any
	require.NoError(t, json.Unmarshal(content, &bundle))
	storageInfo, ok := bundle["storage"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, float64(1), storageInfo["students"])

	_, err = db.run("debug", "bundle")
	require.Equal(t, ExitCodeUsage, exitCode(err))
}

func TestCompletionGeneration(t *testing.T) {
	out, err := runCLI(t, "", "completion", "bash")
	require.NoError(t, err)
	require.Contains(t, out, "__start_markbook")

	out, err = runCLI(t, "", "completion", "fish")
	require.NoError(t, err)
	require.Contains(t, out, "complete -c markbook")
}

func TestGenerateDocsCreatesFiles(t *testing.T) {
	manDir := t.TempDir()
	require.NoError(t, GenerateDocs(manDir, "man", testBuildInfo()))
	_, err := os.Stat(filepath.Join(manDir, "markbook-student-add.1"))
	require.NoError(t, err)

	mdDir := t.TempDir()
	require.NoError(t, GenerateDocs(mdDir, "markdown", testBuildInfo()))
	_, err = os.Stat(filepath.Join(mdDir, "markbook_export.md"))
	require.NoError(t, err)

	require.Error(t, GenerateDocs(t.TempDir(), "html", testBuildInfo()))
}

func TestMapCommandError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want int
	}{
		{err: storage.ErrValidation, want: ExitCodeUsage},
		{err: storage.ErrNotFound, want: ExitCodeNotFound},
		{err: export.ErrRendererUnavailable, want: ExitCodeDependencyMissing},
		{err: export.ErrGeneration, want: ExitCodeIO},
		{err: export.ErrFileNotFound, want: ExitCodeIO},
		{err: &os.PathError{Op: "open", Path: "x", Err: os.ErrPermission}, want: ExitCodeIO},
		{err: errors.New("boom"), want: ExitCodeGeneric},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, exitCode(mapCommandError(tc.err)), tc.err.Error())
	}
	require.NoError(t, mapCommandError(nil))
}

type testDB struct {
	t   *testing.T
	dir string
}

// newTestDB isolates a command run from the user's config, .env and
// MARKBOOK_* environment.
func newTestDB(t *testing.T) testDB {
	t.Helper()
	dir := t.TempDir()
	for _, key := range []string{"MARKBOOK_DB_PATH", "MARKBOOK_EXPORT_DIR", "MARKBOOK_EXPORT_AUTO_OPEN", "MARKBOOK_LOG_LEVEL", "MARKBOOK_LOG_FILE", "MARKBOOK_CONFIG_PATH"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, nil, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), nil, 0o600))
	t.Setenv("MARKBOOK_ENV_FILE", envFile)
	return testDB{t: t, dir: dir}
}

func (db testDB) run(args ...string) (string, error) {
	db.t.Helper()
	full := append([]string{
		"--db", filepath.Join(db.dir, "students.db"),
		"--config", filepath.Join(db.dir, "config.toml"),
	}, args...)
	return runCLI(db.t, "", full...)
}

type stubRenderer struct {
	available bool
}

func (r stubRenderer) Available() bool {
	return r.available
}

func (r stubRenderer) Render(w io.Writer, _ export.Layout) error {
	_, err := io.WriteString(w, "%PDF-stub")
	return err
}

type stubOpener struct {
	opened []string
	err    error
}

func (o *stubOpener) Open(path string) error {
	if o.err != nil {
		return o.err
	}
	o.opened = append(o.opened, path)
	return nil
}

func stubRenderingDeps(t *testing.T, available bool) *stubOpener {
	t.Helper()
	originalRenderer, originalOpener := newRendererFn, newOpenerFn
	t.Cleanup(func() {
		newRendererFn = originalRenderer
		newOpenerFn = originalOpener
	})

	opener := &stubOpener{}
	newRendererFn = func() export.Renderer { return stubRenderer{available: available} }
	newOpenerFn = func() app.FileOpener { return opener }
	return opener
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewRootCommand(&out, testBuildInfo())
	if stdin != "" {
		cmd.SetIn(strings.NewReader(stdin))
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func testBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   "1.2.3",
		Commit:    "abc123",
		BuildTime: "2026-02-19T00:00:00Z",
	}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var withExit interface{ ExitCode() int }
	if errors.As(err, &withExit) {
		return withExit.ExitCode()
	}
	return -1
}
