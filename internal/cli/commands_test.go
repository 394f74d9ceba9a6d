package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/bonnie/internal/registrytest"
	errs "github.com/matzehuels/bonnie/pkg/errors"
	"github.com/matzehuels/bonnie/pkg/observability"
)

type testEnv struct {
	dir    string
	config string
	reg    *registrytest.Registry
}

// newTestEnv points every setting at a temp dir and a fake registry.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	reg := registrytest.New(t)

	t.Setenv("BONNIE_CONF", "")
	t.Setenv("BONNIE_REGISTRY", reg.URL())
	t.Setenv("BONNIE_RETRIES", "1")
	t.Setenv("BONNIE_PACKAGES_DIR", filepath.Join(dir, "bonnie_modules"))
	t.Setenv("BONNIE_CACHE_DIR", filepath.Join(dir, "cache"))
	t.Setenv("BONNIE_HISTORY_DIR", filepath.Join(dir, "history"))

	return &testEnv{dir: dir, config: filepath.Join(dir, "bonnie.toml"), reg: reg}
}

func (e *testEnv) writeConfig(t *testing.T, content string) {
	t.Helper()
	if err := os.WriteFile(e.config, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// execute runs the root command with args and returns its output.
func (e *testEnv) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := New(io.Discard, LogInfo)
	c.SettingsPath = filepath.Join(e.dir, "settings.toml")
	c.SetOutput(&out)

	root := c.RootCommand()
	root.SetArgs(append([]string{"--config", e.config}, args...))
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLogHooksOnlyWhenVerbose(t *testing.T) {
	resetHooks := func() {
		observability.SetInstallHooks(observability.NoopInstallHooks{})
		observability.SetCacheHooks(observability.NoopCacheHooks{})
		observability.SetHTTPHooks(observability.NoopHTTPHooks{})
	}
	resetHooks()
	t.Cleanup(resetHooks)

	if _, err := newTestEnv(t).execute(t, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, ok := observability.Install().(observability.NoopInstallHooks); !ok {
		t.Errorf("install hooks = %T without --verbose, want no-op", observability.Install())
	}
	if _, ok := observability.HTTP().(observability.NoopHTTPHooks); !ok {
		t.Errorf("http hooks = %T without --verbose, want no-op", observability.HTTP())
	}

	if _, err := newTestEnv(t).execute(t, "--verbose", "init"); err != nil {
		t.Fatalf("init --verbose: %v", err)
	}
	if _, ok := observability.Install().(*observability.LogHooks); !ok {
		t.Errorf("install hooks = %T with --verbose, want *LogHooks", observability.Install())
	}
	if _, ok := observability.Cache().(*observability.LogHooks); !ok {
		t.Errorf("cache hooks = %T with --verbose, want *LogHooks", observability.Cache())
	}
}

func TestInitCommand(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.execute(t, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	data, err := os.ReadFile(env.config)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[scripts]") {
		t.Errorf("starter document missing [scripts]:\n%s", data)
	}

	_, err = env.execute(t, "init")
	if !errs.Is(err, errs.ErrCodeAlreadyExists) {
		t.Errorf("second init error = %v, want ALREADY_EXISTS", err)
	}
}

func TestInstallCommand(t *testing.T) {
	env := newTestEnv(t)
	env.writeConfig(t, "[scripts]\nstart = \"node index.js\"\n")
	env.reg.Add(
		registrytest.Package{Name: "left-pad", Version: "1.3.0", Dependencies: map[string]string{"pad-core": "^2.0.0"}},
		registrytest.Package{Name: "pad-core", Version: "2.0.0"},
	)

	out, err := env.execute(t, "install", "left-pad", "--graph", filepath.Join(env.dir, "deps.dot"))
	if err != nil {
		t.Fatalf("install: %v\n%s", err, out)
	}
	if !strings.Contains(out, "left-pad@1.3.0") {
		t.Errorf("output missing seed summary:\n%s", out)
	}

	data, _ := os.ReadFile(env.config)
	if !strings.Contains(string(data), "left-pad = \"1.3.0\"") {
		t.Errorf("bonnie.toml not updated:\n%s", data)
	}
	for _, f := range []string{"left-pad/1.3.0.tgz", "pad-core/2.0.0.tgz"} {
		if _, err := os.Stat(filepath.Join(env.dir, "bonnie_modules", filepath.FromSlash(f))); err != nil {
			t.Errorf("%s not downloaded: %v", f, err)
		}
	}
	dot, err := os.ReadFile(filepath.Join(env.dir, "deps.dot"))
	if err != nil {
		t.Fatalf("graph not written: %v", err)
	}
	if !strings.Contains(string(dot), "digraph") {
		t.Errorf("graph is not DOT:\n%s", dot)
	}

	out, err = env.execute(t, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "left-pad") {
		t.Errorf("history output missing seed:\n%s", out)
	}
}

func TestInstallFromManifest(t *testing.T) {
	env := newTestEnv(t)
	config := "[dependencies]\nleft-pad = \"^1.3.0\"\n"
	env.writeConfig(t, config)
	env.reg.Add(registrytest.Package{Name: "left-pad", Version: "1.3.0"})

	if out, err := env.execute(t, "install"); err != nil {
		t.Fatalf("install: %v\n%s", err, out)
	}
	if _, err := os.Stat(filepath.Join(env.dir, "bonnie_modules", "left-pad", "1.3.0.tgz")); err != nil {
		t.Errorf("manifest dependency not downloaded: %v", err)
	}
	data, _ := os.ReadFile(env.config)
	if string(data) != config {
		t.Errorf("bonnie.toml changed:\n%s", data)
	}
}

func TestInstallWithoutProject(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.execute(t, "install", "left-pad")
	if !errs.Is(err, errs.ErrCodeNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestInstallStrictFails(t *testing.T) {
	env := newTestEnv(t)
	env.writeConfig(t, "")

	_, err := env.execute(t, "install", "--strict", "does-not-exist")
	if !errs.Is(err, errs.ErrCodeIncomplete) {
		t.Errorf("error = %v, want INCOMPLETE", err)
	}
}

func TestRunScript(t *testing.T) {
	env := newTestEnv(t)
	env.writeConfig(t, "[scripts]\ngreet = \"echo hello %%\"\nfail = \"exit 3\"\n")

	tests := []struct {
		name     string
		args     []string
		wantOut  string
		wantCode errs.Code
		wantExit int
	}{
		{name: "run subcommand", args: []string{"run", "greet", "world"}, wantOut: "hello world\n"},
		{name: "root passthrough", args: []string{"greet", "bonnie"}, wantOut: "hello bonnie\n"},
		{name: "unknown script", args: []string{"run", "deploy"}, wantCode: errs.ErrCodeNotFound, wantExit: 1},
		{name: "placeholder mismatch", args: []string{"greet"}, wantCode: errs.ErrCodeArgumentMismatch, wantExit: 1},
		{name: "non-zero exit", args: []string{"fail"}, wantExit: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := env.execute(t, tt.args...)
			if tt.wantExit == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if out != tt.wantOut {
					t.Errorf("output = %q, want %q", out, tt.wantOut)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantCode != "" && !errs.Is(err, tt.wantCode) {
				t.Errorf("code = %v, want %v", errs.GetCode(err), tt.wantCode)
			}
			if got := ExitCode(err); got != tt.wantExit {
				t.Errorf("ExitCode() = %d, want %d", got, tt.wantExit)
			}
		})
	}
}

func TestCachePathCommand(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.execute(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != filepath.Join(env.dir, "cache") {
		t.Errorf("cache path = %q", out)
	}
}
