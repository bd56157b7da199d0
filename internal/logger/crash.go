package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// CrashLogDir is the directory for crash reports relative to the store directory.
	CrashLogDir = "crash_logs"

	// MaxCrashLogs is the number of crash reports kept; older ones are pruned.
	MaxCrashLogs = 10

	maxArgsLen = 500
)

// CrashReport is one recovered panic together with what TaskNest was doing
// at the time. Reports are stored as indented JSON.
type CrashReport struct {
	Time      time.Time `json:"time"`
	Version   string    `json:"version"`
	Command   string    `json:"command"`
	Args      string    `json:"args,omitempty"`
	Backend   string    `json:"backend,omitempty"`
	Project   string    `json:"project,omitempty"`
	Operation string    `json:"operation,omitempty"`
	TaskPath  []string  `json:"taskPath,omitempty"`
	Panic     string    `json:"panic"`
	Stack     string    `json:"stack"`
	Runtime   string    `json:"runtime"`
}

// Summary is a short human-readable description of the crash.
func (r CrashReport) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "panic: %s\n", r.Panic)
	if r.Operation != "" {
		fmt.Fprintf(&sb, "during: %s", r.Operation)
		if len(r.TaskPath) > 0 {
			fmt.Fprintf(&sb, " on %s", strings.Join(r.TaskPath, "/"))
		}
		if r.Project != "" {
			fmt.Fprintf(&sb, " in project %s", r.Project)
		}
		sb.WriteString("\n")
	} else if r.Project != "" {
		fmt.Fprintf(&sb, "project: %s\n", r.Project)
	}
	cmd := strings.TrimSpace(r.Command + " " + r.Args)
	fmt.Fprintf(&sb, "command: %s\n", cmd)
	fmt.Fprintf(&sb, "at: %s (%s, %s)", r.Time.Format(time.RFC3339), r.Version, r.Runtime)
	return sb.String()
}

// crashState is the context captured into the next report.
type crashState struct {
	mu     sync.Mutex
	dir    string
	report CrashReport
}

var crash = &crashState{}

// SetCrashDir sets the store directory; reports go to its crash_logs subdirectory.
func SetCrashDir(dir string) {
	crash.mu.Lock()
	defer crash.mu.Unlock()
	crash.dir = dir
}

// SetVersion sets the application version recorded in reports.
func SetVersion(version string) {
	crash.mu.Lock()
	defer crash.mu.Unlock()
	crash.report.Version = version
}

// SetCommand records the command being executed and its arguments.
func SetCommand(path string, args []string) {
	joined := strings.TrimSpace(strings.Join(args, " "))
	if len(joined) > maxArgsLen {
		joined = joined[:maxArgsLen] + "... [truncated]"
	}
	crash.mu.Lock()
	defer crash.mu.Unlock()
	crash.report.Command = path
	crash.report.Args = joined
}

// SetBackend records the store backend in use.
func SetBackend(name string) {
	crash.mu.Lock()
	defer crash.mu.Unlock()
	crash.report.Backend = name
}

// SetProject records the project the command works on.
func SetProject(id string) {
	crash.mu.Lock()
	defer crash.mu.Unlock()
	crash.report.Project = id
}

// BeginOperation records the tree operation about to run on path (nil for
// project-level operations). The returned func clears it again.
func BeginOperation(op string, path []string) func() {
	crash.mu.Lock()
	crash.report.Operation = op
	crash.report.TaskPath = append([]string(nil), path...)
	crash.mu.Unlock()
	return func() {
		crash.mu.Lock()
		crash.report.Operation = ""
		crash.report.TaskPath = nil
		crash.mu.Unlock()
	}
}

// HandlePanic recovers a panic, writes a crash report and exits with status 1.
// Usage: defer logger.HandlePanic()
func HandlePanic() {
	r := recover()
	if r == nil {
		return
	}
	report := captureReport(r, debug.Stack())
	path, err := WriteCrashReport(report)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\ntasknest crashed and the crash report could not be saved: %v\n%s\n%s\n",
			err, report.Summary(), report.Stack)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "\ntasknest crashed.\n\n%s\n\nCrash report: %s\n", report.Summary(), path)
	fmt.Fprintf(os.Stderr, "Please attach it to an issue at https://github.com/josephgoksu/tasknest/issues\n")
	os.Exit(1)
}

func captureReport(panicValue any, stack []byte) CrashReport {
	crash.mu.Lock()
	defer crash.mu.Unlock()

	r := crash.report
	r.TaskPath = append([]string(nil), crash.report.TaskPath...)
	r.Time = time.Now()
	r.Panic = fmt.Sprint(panicValue)
	r.Stack = string(stack)
	r.Runtime = fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return r
}

func crashDir() string {
	crash.mu.Lock()
	dir := crash.dir
	crash.mu.Unlock()
	if dir == "" {
		dir = ".tasknest"
	}
	return filepath.Join(dir, CrashLogDir)
}

// WriteCrashReport stores r and prunes the oldest reports beyond MaxCrashLogs.
// It returns the path of the new report.
func WriteCrashReport(r CrashReport) (string, error) {
	dir := crashDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create crash log dir: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode crash report: %w", err)
	}
	path := filepath.Join(dir, "crash_"+r.Time.UTC().Format("20060102T150405.000000000")+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write crash report: %w", err)
	}

	if err := pruneCrashReports(); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to prune old crash reports: %v\n", err)
	}
	return path, nil
}

func pruneCrashReports() error {
	paths, err := ListCrashReports()
	if err != nil {
		return err
	}
	for len(paths) > MaxCrashLogs {
		if err := os.Remove(paths[0]); err != nil {
			return fmt.Errorf("remove old crash report %s: %w", filepath.Base(paths[0]), err)
		}
		paths = paths[1:]
	}
	return nil
}

// ListCrashReports returns the stored crash reports, oldest first.
func ListCrashReports() ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(crashDir(), "crash_*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadCrashReport loads the report at path.
func ReadCrashReport(path string) (CrashReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CrashReport{}, err
	}
	var r CrashReport
	if err := json.Unmarshal(data, &r); err != nil {
		return CrashReport{}, fmt.Errorf("decode crash report %s: %w", filepath.Base(path), err)
	}
	return r, nil
}
