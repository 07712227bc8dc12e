package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spiffcs/prsync/config"
	"github.com/spiffcs/prsync/internal/ghclient"
	"github.com/spiffcs/prsync/internal/model"
	"github.com/spiffcs/prsync/internal/output"
	"github.com/spiffcs/prsync/internal/service"
	"github.com/spiffcs/prsync/internal/stats"
	"github.com/spiffcs/prsync/internal/tui"
)

func TestNew(t *testing.T) {
	cmd := New()
	if cmd == nil {
		t.Fatal("New() returned nil")
	}
	if cmd.Use != "prsync" {
		t.Errorf("expected Use to be 'prsync', got %q", cmd.Use)
	}

	for _, name := range []string{"sync", "config", "cache", "featured", "history", "ratelimit", "version"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Errorf("expected subcommand %q to be registered", name)
		}
	}

	for _, flag := range []string{"verbose", "tui", "username", "output", "cache", "featured"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("expected root flag --%s", flag)
		}
	}
}

func TestNewCmdSync(t *testing.T) {
	cmd := NewCmdSync(NewOptions())
	if cmd.Use != "sync" {
		t.Errorf("expected Use to be 'sync', got %q", cmd.Use)
	}
	if cmd.Flags().Lookup("verbose") == nil {
		t.Error("expected sync to carry --verbose")
	}
}

func TestNewCmdConfig(t *testing.T) {
	cmd := NewCmdConfig()
	if cmd == nil {
		t.Fatal("NewCmdConfig() returned nil")
	}
	if cmd.Use != "config" {
		t.Errorf("expected Use to be 'config', got %q", cmd.Use)
	}
}

func TestNewCmdCache(t *testing.T) {
	cmd := NewCmdCache()
	if cmd.Use != "cache" {
		t.Errorf("expected Use to be 'cache', got %q", cmd.Use)
	}
	if len(cmd.Commands()) != 3 {
		t.Errorf("expected 3 cache subcommands, got %d", len(cmd.Commands()))
	}
}

func TestNewCmdVersion(t *testing.T) {
	cmd := NewCmdVersion()
	if cmd.Use != "version" {
		t.Errorf("expected Use to be 'version', got %q", cmd.Use)
	}
}

func TestSetVersionInfo(t *testing.T) {
	SetVersionInfo("1.0.0", "abc123", "2024-01-01")
	if version != "1.0.0" || commit != "abc123" || date != "2024-01-01" {
		t.Errorf("version info not applied: %s %s %s", version, commit, date)
	}
}

func TestOptionsApply(t *testing.T) {
	opts := NewOptions(WithUsername("octocat"), WithOutput("out.json"))

	username, out, cache, featured := "default", "default.json", ".cache.json", "featured.json"
	opts.apply(&username, &out, &cache, &featured)

	if username != "octocat" {
		t.Errorf("username = %q, want octocat", username)
	}
	if out != "out.json" {
		t.Errorf("output = %q, want out.json", out)
	}
	if cache != ".cache.json" || featured != "featured.json" {
		t.Errorf("unset overrides changed values: %q %q", cache, featured)
	}
}

func TestTUIFlag(t *testing.T) {
	opts := NewOptions()
	f := newTUIFlag(opts)

	if f.String() != "auto" {
		t.Errorf("default = %q, want auto", f.String())
	}
	if err := f.Set("false"); err != nil {
		t.Fatal(err)
	}
	if opts.TUI == nil || *opts.TUI {
		t.Error("expected TUI disabled")
	}
	if shouldUseTUI(opts) {
		t.Error("shouldUseTUI should honour --tui=false")
	}
	if err := f.Set("true"); err != nil {
		t.Fatal(err)
	}
	opts.Verbosity = 1
	if shouldUseTUI(opts) {
		t.Error("verbose output should disable the TUI")
	}
	if err := f.Set("maybe"); err == nil {
		t.Error("expected error for invalid value")
	}
}

func writeArtifact(t *testing.T, dir string) string {
	t.Helper()
	merged := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	path := filepath.Join(dir, "public", "prs.json")
	records := []model.PullRequest{
		{ID: 555, Number: 7, Title: "Add retry", RepositoryFullName: "acme/widgets", MergedAt: &merged, Labels: []string{}},
		{ID: 556, Number: 8, Title: "Fix docs", RepositoryFullName: "acme/widgets", Labels: []string{}},
	}
	if err := output.WriteFile(path, records); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolvePullRequestID(t *testing.T) {
	artifact := writeArtifact(t, t.TempDir())

	tests := []struct {
		ref     string
		want    int64
		wantErr bool
	}{
		{"555", 555, false},
		{"https://github.com/acme/widgets/pull/7", 555, false},
		{"https://github.com/ACME/Widgets/pull/8", 556, false},
		{"https://api.github.com/repos/acme/widgets/pulls/7", 555, false},
		{"https://github.com/acme/widgets/pull/99", 0, true},
		{"https://github.com/acme/widgets", 0, true},
		{"-4", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := resolvePullRequestID(tt.ref, artifact)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFeaturedRows(t *testing.T) {
	merged := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	entries := []model.FeaturedEntry{{ID: 1, FeaturedOrder: 1}, {ID: 2, FeaturedOrder: 2}}
	records := []model.PullRequest{{ID: 1, Title: "Add retry", RepositoryFullName: "acme/widgets", MergedAt: &merged}}

	rows := featuredRows(entries, records)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Title != "Add retry" || rows[0].Repository != "acme/widgets" || rows[0].MergedAt == nil {
		t.Errorf("row 0 not joined: %+v", rows[0])
	}
	if rows[1].Title != "" || rows[1].ID != 2 {
		t.Errorf("row 1 should carry only the entry: %+v", rows[1])
	}
}

// isolate keeps tests away from the user's config and history.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("HOME", dir)
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := New()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestFeaturedAddListRemove(t *testing.T) {
	dir := isolate(t)
	artifact := writeArtifact(t, dir)
	featuredPath := filepath.Join(dir, "src", "featured.json")

	out, err := execute(t, "featured", "add", "https://github.com/acme/widgets/pull/7",
		"--featured", featuredPath, "--output", artifact)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "Featured 555 at order 1") {
		t.Errorf("unexpected add output: %q", out)
	}

	if _, err := execute(t, "featured", "add", "556", "--order", "5",
		"--featured", featuredPath, "--output", artifact); err != nil {
		t.Fatalf("add by id: %v", err)
	}

	data, err := os.ReadFile(featuredPath)
	if err != nil {
		t.Fatal(err)
	}
	var entries []model.FeaturedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatal(err)
	}
	want := []model.FeaturedEntry{{ID: 555, FeaturedOrder: 1}, {ID: 556, FeaturedOrder: 5}}
	if len(entries) != len(want) || entries[0] != want[0] || entries[1] != want[1] {
		t.Errorf("featured config = %+v, want %+v", entries, want)
	}

	out, err = execute(t, "featured", "list", "-o", "json",
		"--featured", featuredPath, "--output", artifact)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var rows []output.FeaturedRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("list output is not JSON: %v\n%s", err, out)
	}
	if len(rows) != 2 || rows[0].Title != "Add retry" {
		t.Errorf("unexpected rows: %+v", rows)
	}

	if _, err := execute(t, "featured", "remove", "555",
		"--featured", featuredPath, "--output", artifact); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := execute(t, "featured", "remove", "555",
		"--featured", featuredPath, "--output", artifact); err == nil {
		t.Error("removing an entry twice should fail")
	}
}

func TestCacheStatsAndClear(t *testing.T) {
	dir := isolate(t)
	cachePath := filepath.Join(dir, ".github-cache.json")
	if err := os.WriteFile(cachePath, []byte(`{"prs":{"widgets#7":{"id":555,"repository_full_name":"acme/widgets","merged":true}},"lastFetch":null}`), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "cache", "stats", "--cache", cachePath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	for _, want := range []string{"Pull requests: 1", "Repositories:  1", "Merged:        1", "Last fetch:    never"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}

	if _, err := execute(t, "cache", "clear", "--cache", cachePath); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := os.Stat(cachePath); !os.IsNotExist(err) {
		t.Error("cache file should be removed")
	}
}

func TestPrintHistory(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	snaps := []stats.Snapshot{
		{RunID: "aaaaaaaa-1111", Timestamp: now.Add(-48 * time.Hour), Username: "octocat", Found: 3, Written: 3},
		{RunID: "bbbbbbbb-2222", Timestamp: now.Add(-time.Hour), Username: "octocat", Found: 4, Fetched: 1, Cached: 3, Written: 4},
	}

	var buf bytes.Buffer
	printHistory(&buf, snaps, now)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[1], "bbbbbbbb") || !strings.Contains(lines[1], "1h ago") {
		t.Errorf("newest run should come first: %q", lines[1])
	}
	if !strings.Contains(lines[2], "aaaaaaaa") || !strings.Contains(lines[2], "2d ago") {
		t.Errorf("unexpected second row: %q", lines[2])
	}

	buf.Reset()
	printHistory(&buf, nil, now)
	if !strings.Contains(buf.String(), "No sync runs recorded") {
		t.Errorf("unexpected empty output: %q", buf.String())
	}
}

func TestSnapshotsSince(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	snaps := []stats.Snapshot{
		{RunID: "old", Timestamp: now.Add(-10 * 24 * time.Hour)},
		{RunID: "new", Timestamp: now.Add(-time.Hour)},
	}
	got := snapshotsSince(snaps, now.Add(-7*24*time.Hour))
	if len(got) != 1 || got[0].RunID != "new" {
		t.Errorf("unexpected filter result: %+v", got)
	}
}

func TestInitTarget(t *testing.T) {
	paths := config.ConfigPathInfo{GlobalPath: "/cfg/prsync/config.yaml", LocalPath: "/work/.prsync.yaml"}

	tests := []struct {
		name    string
		input   string
		global  bool
		local   bool
		want    string
		wantErr bool
	}{
		{name: "global flag", global: true, want: paths.GlobalPath},
		{name: "local flag", local: true, want: paths.LocalPath},
		{name: "prompt global", input: "1\n", want: paths.GlobalPath},
		{name: "prompt local without newline", input: "2", want: paths.LocalPath},
		{name: "prompt invalid", input: "3\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := initTarget(strings.NewReader(tt.input), &out, paths, tt.global, tt.local)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfigDefaultsJSON(t *testing.T) {
	isolate(t)

	out, err := execute(t, "config", "defaults", "-o", "json")
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got["username"] != config.DefaultUsername || got["output_path"] != config.DefaultOutputPath {
		t.Errorf("unexpected defaults: %v", got)
	}

	if _, err := execute(t, "config", "defaults", "-o", "toml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestConfigInitWritesOnce(t *testing.T) {
	dir := isolate(t)

	out, err := execute(t, "config", "init", "--global")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	path := filepath.Join(dir, "config", "prsync", "config.yaml")
	if !strings.Contains(out, path) {
		t.Errorf("expected created path in output, got %q", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if _, err := execute(t, "config", "init", "--global"); err == nil {
		t.Error("second init should refuse to overwrite")
	}
}

func TestProgressMapsToTaskEvents(t *testing.T) {
	rt := &syncRuntime{useTUI: true, events: make(chan tui.Event, 4)}
	report := rt.progress()

	report(service.Progress{Stage: service.StageEnrich, Status: service.StatusRunning, Completed: 3, Total: 4})
	report(service.Progress{Stage: service.StageSearch, Status: service.StatusDone, Total: 12})
	rt.rateLimitNotify(ghclient.RateLimitWait{Until: time.Unix(1_700_000_015, 0)})

	enrich := (<-rt.events).(tui.TaskEvent)
	if enrich.Task != tui.TaskEnrich || enrich.Progress != 0.75 || enrich.Message != "3/4" {
		t.Errorf("unexpected enrich event %+v", enrich)
	}
	search := (<-rt.events).(tui.TaskEvent)
	if search.Task != tui.TaskSearch || search.Status != tui.StatusComplete || search.Count != 12 {
		t.Errorf("unexpected search event %+v", search)
	}
	if _, ok := (<-rt.events).(tui.RateLimitEvent); !ok {
		t.Error("expected a rate limit event")
	}
}

func TestRunWithoutTUICallsJob(t *testing.T) {
	rt := &syncRuntime{}
	want := &service.Result{Found: 2}

	got, err := rt.run(context.Background(), "octocat", func(context.Context) (*service.Result, error) {
		return want, nil
	})
	if err != nil || got != want {
		t.Errorf("run() = %v, %v", got, err)
	}

	// Without a TUI the rate limit notification is a no-op.
	rt.rateLimitNotify(ghclient.RateLimitWait{})
}

func TestFeaturedEditLeavesCorruptConfigAlone(t *testing.T) {
	dir := isolate(t)
	featuredPath := filepath.Join(dir, "featured.json")
	corrupt := `[{"id": 1, "featured_order": 1}, {"id": 2, "featured_order": 2}, {"id": 3, "featured_order": 3},]`
	if err := os.WriteFile(featuredPath, []byte(corrupt), 0644); err != nil {
		t.Fatal(err)
	}

	for _, args := range [][]string{
		{"featured", "add", "42", "--featured", featuredPath},
		{"featured", "remove", "2", "--featured", featuredPath},
	} {
		if _, err := execute(t, args...); err == nil {
			t.Errorf("%v: expected error for unparseable featured config", args)
		}
	}

	data, err := os.ReadFile(featuredPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != corrupt {
		t.Errorf("featured config was rewritten:\n%s", data)
	}
}
