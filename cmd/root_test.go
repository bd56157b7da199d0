package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/tasknest/internal/logger"
	"github.com/josephgoksu/tasknest/internal/transfer"
	"github.com/josephgoksu/tasknest/models"
)

// resetFlags puts every flag of c and its children back to its default.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, child := range c.Commands() {
		resetFlags(child)
	}
}

type cli struct {
	t        *testing.T
	storeDir string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	return &cli{t: t, storeDir: filepath.Join(t.TempDir(), "store")}
}

// run executes one command the way a fresh process would.
func (c *cli) run(stdin string, args ...string) (string, string, error) {
	c.t.Helper()
	viper.Reset()
	resetFlags(rootCmd)
	cfgFile = ""

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--backend", "file", "--store-dir", c.storeDir}, args...))
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, _, err := c.run("", args...)
	require.NoError(c.t, err, "tasknest %v", args)
	return out
}

func (c *cli) project() models.Project {
	c.t.Helper()
	var p models.Project
	require.NoError(c.t, json.Unmarshal([]byte(c.mustRun("show", "--json")), &p))
	return p
}

var idPattern = regexp.MustCompile(`\(([0-9a-f]{8})\)`)

func extractID(t *testing.T, out string) string {
	t.Helper()
	m := idPattern.FindStringSubmatch(out)
	require.Len(t, m, 2, "no id in %q", out)
	return m[1]
}

func TestRootCmd(t *testing.T) {
	c := newCLI(t)
	out := c.mustRun("--help")

	assert.Contains(t, out, "TaskNest - nested task lists") // Short desc
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "Available Commands:")
}

func TestVersion(t *testing.T) {
	c := newCLI(t)
	out := c.mustRun("--version")
	assert.Contains(t, out, "tasknest version "+version)
}

func TestNoProjectYet(t *testing.T) {
	c := newCLI(t)
	_, _, err := c.run("", "add", "Something")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no projects yet")
}

func TestTaskWorkflow(t *testing.T) {
	c := newCLI(t)

	projectID := extractID(t, c.mustRun("project", "create", "Home"))
	parentID := extractID(t, c.mustRun("add", "Groceries"))
	childID := extractID(t, c.mustRun("subtask", parentID[:4], "Buy", "milk"))
	otherID := extractID(t, c.mustRun("add", "Call mom"))

	p := c.project()
	assert.Equal(t, projectID, p.ID)
	require.Len(t, p.TasksList, 2)
	require.Len(t, p.TasksList[0].SubTasks, 1)
	assert.Equal(t, childID, p.TasksList[0].SubTasks[0].ID)
	assert.Equal(t, parentID, *p.TasksList[0].SubTasks[0].ParentID)

	c.mustRun("done", parentID)
	p = c.project()
	assert.True(t, p.TasksList[0].IsCompleted)
	assert.True(t, p.TasksList[0].SubTasks[0].IsCompleted)

	c.mustRun("undone", childID)
	p = c.project()
	assert.True(t, p.TasksList[0].IsCompleted)
	assert.False(t, p.TasksList[0].SubTasks[0].IsCompleted)

	c.mustRun("move", "0", "5")
	p = c.project()
	assert.Equal(t, otherID, p.TasksList[0].ID)
	assert.Equal(t, parentID, p.TasksList[1].ID)

	out := c.mustRun("search", "MILK")
	assert.Contains(t, out, "Buy milk")
	assert.Contains(t, c.mustRun("show"), `Search "MILK": 1 match(es)`)
	assert.Equal(t, "MILK", c.project().Filters.Search)

	c.mustRun("search", "--clear")
	assert.Contains(t, c.mustRun("show"), "Groceries")

	c.mustRun("remove", parentID)
	p = c.project()
	require.Len(t, p.TasksList, 1)
	assert.Equal(t, otherID, p.TasksList[0].ID)

	_, _, err := c.run("", "remove", parentID)
	assert.Error(t, err)
}

func TestBlankDescriptionRejected(t *testing.T) {
	c := newCLI(t)
	c.mustRun("project", "create", "Home")

	_, _, err := c.run("", "add", "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Field should not be empty")
}

func TestImportExport(t *testing.T) {
	c := newCLI(t)
	c.mustRun("project", "create", "Home")
	keptID := extractID(t, c.mustRun("add", "Keep"))

	_, stderr, err := c.run(`[{"id":"a","description":"x","isCompleted":false},{"id":"a","description":"y","isCompleted":false}]`, "import")
	require.Error(t, err)
	assert.ErrorIs(t, err, transfer.ErrDuplicateID)
	assert.Contains(t, stderr, "Duplicate id found")
	assert.Equal(t, keptID, c.project().TasksList[0].ID)

	file := filepath.Join(t.TempDir(), "tasks.json")
	require.NoError(t, os.WriteFile(file, []byte(`[{"id":"r1","description":"Imported","isCompleted":false,"subTasks":[{"id":"r2","description":"Child","isCompleted":true}]}]`), 0644))
	out := c.mustRun("import", file)
	assert.Contains(t, out, "Imported 2 task(s)")

	exported := c.mustRun("export")
	var tasks models.TasksList
	require.NoError(t, json.Unmarshal([]byte(exported), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "r1", tasks[0].ID)
	assert.Contains(t, exported, "\n    {\n        \"id\": \"r1\"")

	assert.Contains(t, c.mustRun("export", "--format", "yaml"), "id: r1")
	assert.Contains(t, c.mustRun("export", "--format", "toml"), "[[tasks]]")

	// Round trip through stdin.
	_, _, err = c.run(exported, "import", "-")
	require.NoError(t, err)
	assert.Equal(t, tasks, c.project().TasksList)
}

func TestProjectCommands(t *testing.T) {
	c := newCLI(t)
	first := extractID(t, c.mustRun("project", "create", "First"))
	second := extractID(t, c.mustRun("project", "create", "Second"))

	_, _, err := c.run("", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "several projects")

	c.mustRun("-p", second, "add", "Only in second")
	assert.Empty(t, func() models.TasksList {
		var p models.Project
		require.NoError(t, json.Unmarshal([]byte(c.mustRun("-p", first, "show", "--json")), &p))
		return p.TasksList
	}())

	c.mustRun("project", "rename", first, "Renamed")
	list := c.mustRun("project", "list")
	assert.Contains(t, list, "Renamed")
	assert.Contains(t, list, "Second")

	c.mustRun("project", "use", second)
	assert.Contains(t, c.mustRun("show"), "Only in second")

	c.mustRun("project", "remove", first)
	assert.NotContains(t, c.mustRun("project", "list"), "Renamed")
}

func TestConfigShow(t *testing.T) {
	c := newCLI(t)
	out := c.mustRun("config", "show")
	assert.Contains(t, out, "store.backend:  file")
	assert.Contains(t, out, c.storeDir)
}

func TestStats(t *testing.T) {
	c := newCLI(t)
	c.mustRun("project", "create", "Home")
	c.mustRun("add", "One")

	out := c.mustRun("stats")
	assert.Contains(t, out, "Store:    file")
	assert.Contains(t, out, "Home")
	assert.Contains(t, out, "tasknest_store_writes_total")
}

func TestStats_ShowsLatestCrash(t *testing.T) {
	c := newCLI(t)
	c.mustRun("project", "create", "Home")

	logger.SetCrashDir(c.storeDir)
	_, err := logger.WriteCrashReport(logger.CrashReport{
		Time:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Command:   "tasknest done",
		Project:   "p1",
		Operation: "toggle",
		TaskPath:  []string{"a"},
		Panic:     "boom",
	})
	require.NoError(t, err)

	out := c.mustRun("stats")
	assert.Contains(t, out, "Crash reports: 1")
	assert.Contains(t, out, "Last crash")
	assert.Contains(t, out, "panic: boom")
	assert.Contains(t, out, "during: toggle on a in project p1")
}

func TestExportToFile(t *testing.T) {
	c := newCLI(t)
	orig := cliFs
	cliFs = afero.NewMemMapFs()
	t.Cleanup(func() { cliFs = orig })

	c.mustRun("project", "create", "Home")
	c.mustRun("add", "Written out")

	_, stderr, err := c.run("", "export", "--output", "/out/tasks.yaml", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Exported to /out/tasks.yaml")

	data, err := afero.ReadFile(cliFs, "/out/tasks.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "description: Written out")

	require.NoError(t, afero.WriteFile(cliFs, "/in/tasks.json", []byte(`[{"id":"n1","description":"From memfs","isCompleted":false}]`), 0644))
	c.mustRun("import", "/in/tasks.json")
	assert.Equal(t, "n1", c.project().TasksList[0].ID)
}

