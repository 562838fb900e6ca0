// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/handlerpack/handlerpack/internal/discovery"
	"github.com/handlerpack/handlerpack/internal/emit"
	"github.com/handlerpack/handlerpack/internal/logging"
	"github.com/handlerpack/handlerpack/internal/telemetry"
	"github.com/handlerpack/handlerpack/internal/testutil"
	"github.com/handlerpack/handlerpack/internal/transpile"
	"github.com/handlerpack/handlerpack/pkg/handler"
)

type (
	identityText struct{}

	recordingTree struct {
		calls []transpile.TreeOptions
		err   error
	}

	failingText struct{ err error }
)

func (identityText) TransformText(_ context.Context, _, source string) (string, error) {
	return source, nil
}

func (f failingText) TransformText(context.Context, string, string) (string, error) {
	return "", f.err
}

func (r *recordingTree) TransformTree(_ context.Context, _, _ string, opts transpile.TreeOptions) error {
	r.calls = append(r.calls, opts)
	return r.err
}

func newTestBuilder(t *testing.T, opts ...Option) *Builder {
	t.Helper()
	base := []Option{
		WithLogger(logging.Discard()),
		WithTextTransformer(identityText{}),
		WithTreeTransformer(&recordingTree{}),
	}
	b, err := New(Settings{Transform: transpile.DefaultSettings()}, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return b
}

func TestBuild_Demo(t *testing.T) {
	src := t.TempDir()
	testutil.WriteTree(t, src, testutil.DemoHandler())
	dest := t.TempDir()

	tree := &recordingTree{}
	var hooked []Stage
	b := newTestBuilder(t, WithTreeTransformer(tree), WithStageHook(func(s Stage) { hooked = append(hooked, s) }))

	res, err := b.Build(context.Background(), src, dest, Options{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if diff := cmp.Diff([]string{"error", "success_1", "success_2"}, res.Manifest.ModuleNames()); diff != "" {
		t.Errorf("module names mismatch (-want +got):\n%s", diff)
	}
	if res.Manifest.ActiveModule != "error" {
		t.Errorf("ActiveModule = %q, want error", res.Manifest.ActiveModule)
	}

	wantStages := []Stage{
		StageStart, StageConfigLoaded, StageModulesDiscovered, StageManifestFinalized,
		StageSourceEmitted, StageTreeTransformed, StageDone,
	}
	if diff := cmp.Diff(wantStages, res.Stages); diff != "" {
		t.Errorf("stages mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantStages, hooked); diff != "" {
		t.Errorf("hooked stages mismatch (-want +got):\n%s", diff)
	}

	if len(tree.calls) != 1 {
		t.Fatalf("tree transformer calls = %d, want 1", len(tree.calls))
	}
	if diff := cmp.Diff([]string{"index.js", "index.bak"}, tree.calls[0].Exclude); diff != "" {
		t.Errorf("Exclude mismatch (-want +got):\n%s", diff)
	}

	backup := testutil.MustReadFile(t, filepath.Join(dest, "index.bak"))
	for _, s := range []string{
		"import success_2_config from './handle_modules/success_2/config.json';",
		"{name: 'error', module: error, config: null}",
		"export const activeModule = 'error';",
	} {
		if !strings.Contains(backup, s) {
			t.Errorf("index.bak missing %q:\n%s", s, backup)
		}
	}
	if generated := testutil.MustReadFile(t, filepath.Join(dest, "index.js")); generated != backup {
		t.Errorf("identity transform should make index.js equal index.bak")
	}
}

func TestBuild_MissingConfig(t *testing.T) {
	src := t.TempDir()
	testutil.WriteTree(t, src, map[string]string{"handle_modules/a.js": "export default 1;"})
	dest := filepath.Join(t.TempDir(), "out")

	tree := &recordingTree{}
	var hooked []Stage
	b := newTestBuilder(t, WithTreeTransformer(tree), WithStageHook(func(s Stage) { hooked = append(hooked, s) }))

	_, err := b.Build(context.Background(), src, dest, Options{})
	if !errors.Is(err, handler.ErrMissingConfig) {
		t.Fatalf("Build() error = %v, want ErrMissingConfig", err)
	}
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageConfigLoaded {
		t.Errorf("StageError = %+v, want stage CONFIG_LOADED", se)
	}
	if !strings.Contains(err.Error(), filepath.Join(src, "config.json")) {
		t.Errorf("error %q should name the config path", err)
	}

	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Errorf("destination should not be created, stat err = %v", err)
	}
	if len(tree.calls) != 0 {
		t.Errorf("tree transformer called %d times", len(tree.calls))
	}
	if diff := cmp.Diff([]Stage{StageStart, StageFailed}, hooked); diff != "" {
		t.Errorf("stages mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_DestinationIsSource(t *testing.T) {
	src := t.TempDir()
	testutil.WriteTree(t, src, map[string]string{
		"config.json": `{"name": "solo"}`,
		"index.js":    "export default {};",
	})

	for _, dest := range []string{src, filepath.Join(src, "sub", "..") + string(filepath.Separator)} {
		tree := &recordingTree{}
		b := newTestBuilder(t, WithTreeTransformer(tree))

		_, err := b.Build(context.Background(), src, dest, Options{})
		if !errors.Is(err, emit.ErrDestinationIsSource) {
			t.Fatalf("Build(%q) error = %v, want ErrDestinationIsSource", dest, err)
		}
		var se *StageError
		if !errors.As(err, &se) || se.Stage != StageConfigLoaded {
			t.Errorf("StageError = %+v, want stage CONFIG_LOADED", se)
		}
		if len(tree.calls) != 0 {
			t.Errorf("tree transformer called %d times", len(tree.calls))
		}
	}

	if got := testutil.MustReadFile(t, filepath.Join(src, "index.js")); got != "export default {};" {
		t.Errorf("index.js was overwritten: %q", got)
	}
	if _, err := os.Stat(filepath.Join(src, "index.bak")); !os.IsNotExist(err) {
		t.Errorf("index.bak should not be written, stat err = %v", err)
	}
}

func TestBuild_DestinationNestedInSource(t *testing.T) {
	src := t.TempDir()
	testutil.WriteTree(t, src, testutil.DemoHandler())

	b := newTestBuilder(t)
	if _, err := b.Build(context.Background(), src, filepath.Join(src, "dist"), Options{}); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
}

func TestBuild_NoModules(t *testing.T) {
	src := t.TempDir()
	testutil.WriteTree(t, src, map[string]string{"config.json": `{"name": "empty"}`})
	dest := t.TempDir()

	b := newTestBuilder(t)
	_, err := b.Build(context.Background(), src, dest, Options{})
	if !errors.Is(err, discovery.ErrNoModules) {
		t.Fatalf("Build() error = %v, want ErrNoModules", err)
	}
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageModulesDiscovered {
		t.Errorf("StageError = %+v, want stage MODULES_DISCOVERED", se)
	}
	if _, err := os.Stat(filepath.Join(dest, "index.bak")); !os.IsNotExist(err) {
		t.Errorf("index.bak should not exist, stat err = %v", err)
	}
}

func TestBuild_ImplicitModule(t *testing.T) {
	src := t.TempDir()
	testutil.WriteTree(t, src, map[string]string{
		"config.json": `{"name": "solo", "activeModule": "missing"}`,
		"index.js":    "export default {};",
	})
	dest := t.TempDir()

	tree := &recordingTree{}
	b := newTestBuilder(t, WithTreeTransformer(tree))
	res, err := b.Build(context.Background(), src, dest, Options{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if diff := cmp.Diff([]string{"index_module"}, res.Manifest.ModuleNames()); diff != "" {
		t.Errorf("module names mismatch (-want +got):\n%s", diff)
	}
	if res.Manifest.ActiveModule != "index_module" {
		t.Errorf("ActiveModule = %q", res.Manifest.ActiveModule)
	}
	if diff := cmp.Diff(map[string]string{"index.js": "index_module.js"}, tree.calls[0].Relocate); diff != "" {
		t.Errorf("Relocate mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_Rerun(t *testing.T) {
	src := t.TempDir()
	testutil.WriteTree(t, src, testutil.DemoHandler())
	dest := t.TempDir()

	b := newTestBuilder(t)
	opts := Options{CustomCode: "export const extra = true;", Cache: map[string]any{"activeModule": "success_2"}}

	if _, err := b.Build(context.Background(), src, dest, opts); err != nil {
		t.Fatalf("first Build() error = %v", err)
	}
	first := testutil.MustReadFile(t, filepath.Join(dest, "index.bak"))

	opts.Debug = true
	if _, err := b.Build(context.Background(), src, dest, opts); err != nil {
		t.Fatalf("second Build() error = %v", err)
	}
	second := testutil.MustReadFile(t, filepath.Join(dest, "index.bak"))

	if first != second {
		t.Errorf("index.bak differs across reruns:\n%s\n---\n%s", first, second)
	}
	if !strings.Contains(first, "export const activeModule = 'success_2';") {
		t.Errorf("cached activeModule not honoured:\n%s", first)
	}
}

func TestBuild_Overrides(t *testing.T) {
	src := t.TempDir()
	testutil.WriteTree(t, src, map[string]string{
		"settings/handler.json":      `{"name": "custom"}`,
		"mods/alpha/meta.json":       `{"v": 1}`,
		"mods/alpha/index.js":        "export default 1;",
		"mods/beta.js":               "export default 2;",
		"handle_modules/ignored.js":  "export default 3;",
		"handle_modules/ignored2.js": "export default 4;",
	})
	dest := t.TempDir()

	b := newTestBuilder(t)
	res, err := b.Build(context.Background(), src, dest, Options{
		HandlerConfigPath:        filepath.Join(src, "settings", "handler.json"),
		ModuleBasePath:           filepath.Join(src, "mods"),
		ModuleConfigRelativePath: "meta.json",
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if diff := cmp.Diff([]string{"alpha", "beta"}, res.Manifest.ModuleNames()); diff != "" {
		t.Errorf("module names mismatch (-want +got):\n%s", diff)
	}
	backup := res.Emit.Source
	for _, s := range []string{
		"import config from './settings/handler';",
		"import alpha_config from './mods/alpha/meta.json';",
		"import beta from './mods/beta';",
		"config.name || 'custom'",
	} {
		if !strings.Contains(backup, s) {
			t.Errorf("source missing %q:\n%s", s, backup)
		}
	}
}

func TestBuild_TransformFailures(t *testing.T) {
	boom := errors.New("boom")

	t.Run("text", func(t *testing.T) {
		src := t.TempDir()
		testutil.WriteTree(t, src, testutil.DemoHandler())
		dest := t.TempDir()

		tree := &recordingTree{}
		b := newTestBuilder(t, WithTextTransformer(failingText{err: boom}), WithTreeTransformer(tree))
		_, err := b.Build(context.Background(), src, dest, Options{})

		var se *StageError
		if !errors.As(err, &se) || se.Stage != StageSourceEmitted || !errors.Is(err, boom) {
			t.Fatalf("Build() error = %v, want SOURCE_EMITTED failure", err)
		}
		if _, err := os.Stat(filepath.Join(dest, "index.bak")); err != nil {
			t.Errorf("index.bak should survive a transform failure: %v", err)
		}
		if len(tree.calls) != 0 {
			t.Errorf("tree transformer should not run after an emit failure")
		}
	})

	t.Run("tree", func(t *testing.T) {
		src := t.TempDir()
		testutil.WriteTree(t, src, testutil.DemoHandler())
		dest := t.TempDir()

		b := newTestBuilder(t, WithTreeTransformer(&recordingTree{err: boom}))
		_, err := b.Build(context.Background(), src, dest, Options{})

		var se *StageError
		if !errors.As(err, &se) || se.Stage != StageTreeTransformed || !errors.Is(err, boom) {
			t.Fatalf("Build() error = %v, want TREE_TRANSFORMED failure", err)
		}
		if _, err := os.Stat(filepath.Join(dest, "index.js")); err != nil {
			t.Errorf("index.js should be left in place: %v", err)
		}
	})
}

func TestBuild_Canceled(t *testing.T) {
	src := t.TempDir()
	testutil.WriteTree(t, src, testutil.DemoHandler())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestBuilder(t).Build(ctx, src, t.TempDir(), Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Build() error = %v, want context.Canceled", err)
	}
}

func TestBuild_Metrics(t *testing.T) {
	src := t.TempDir()
	testutil.WriteTree(t, src, testutil.DemoHandler())

	clock := testutil.NewFakeClock(time.Unix(1700000000, 0), time.Millisecond)
	m := telemetry.New()
	b := newTestBuilder(t, WithMetrics(m), WithClock(clock.Now))

	res, err := b.Build(context.Background(), src, t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if res.Duration <= 0 {
		t.Errorf("Duration = %v, want positive", res.Duration)
	}
	if _, err := b.Build(context.Background(), t.TempDir(), t.TempDir(), Options{}); err == nil {
		t.Fatal("Build() without config should fail")
	}

	path := filepath.Join(t.TempDir(), "metrics.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}
	text := testutil.MustReadFile(t, path)
	for _, s := range []string{
		`handlerpack_builds_total{result="success"} 1`,
		`handlerpack_builds_total{result="failure"} 1`,
		"handlerpack_handle_modules 3",
		`handlerpack_build_stage_duration_seconds_count{stage="DONE"} 1`,
	} {
		if !strings.Contains(text, s) {
			t.Errorf("metrics missing %q:\n%s", s, text)
		}
	}
}

func TestBuild_ESBuild(t *testing.T) {
	src := t.TempDir()
	testutil.WriteTree(t, src, testutil.DemoHandler())
	dest := filepath.Join(src, "dist")

	b, err := New(Settings{Transform: transpile.DefaultSettings()}, WithLogger(logging.Discard()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := b.Build(context.Background(), src, dest, Options{}); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	generated := testutil.MustReadFile(t, filepath.Join(dest, "index.js"))
	if !strings.Contains(generated, `require("./handle_modules/success_2/config.json")`) {
		t.Errorf("index.js not converted to CommonJS:\n%s", generated)
	}
	if backup := testutil.MustReadFile(t, filepath.Join(dest, "index.bak")); !strings.HasPrefix(backup, "export const isNpm = true;") {
		t.Errorf("index.bak = %q", backup)
	}
	for _, p := range []string{
		"config.json",
		"handle_modules/success_1.js",
		"handle_modules/error/index.js",
		"handle_modules/success_2/config.json",
	} {
		if _, err := os.Stat(filepath.Join(dest, filepath.FromSlash(p))); err != nil {
			t.Errorf("%s not mirrored: %v", p, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dest, "dist")); !os.IsNotExist(err) {
		t.Errorf("destination nested in source was mirrored into itself")
	}
}

func TestStageString(t *testing.T) {
	if got := StageTreeTransformed.String(); got != "TREE_TRANSFORMED" {
		t.Errorf("String() = %q", got)
	}
	if got := Stage(42).String(); got != "Stage(42)" {
		t.Errorf("String() = %q", got)
	}
}

func TestPlan_WritesNothing(t *testing.T) {
	src := t.TempDir()
	testutil.WriteTree(t, src, testutil.DemoHandler())
	metrics := telemetry.New()

	var hooked []Stage
	b := newTestBuilder(t, WithMetrics(metrics), WithStageHook(func(s Stage) { hooked = append(hooked, s) }))

	plan, err := b.Plan(context.Background(), src, Options{})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if diff := cmp.Diff([]string{"error", "success_1", "success_2"}, plan.Manifest.ModuleNames()); diff != "" {
		t.Errorf("modules mismatch (-want +got):\n%s", diff)
	}
	if want := filepath.Join(src, "config.json"); plan.ConfigPath != want {
		t.Errorf("ConfigPath = %q, want %q", plan.ConfigPath, want)
	}
	if len(hooked) != 0 {
		t.Errorf("Plan() triggered stage hooks: %v", hooked)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() == "index.bak" {
			t.Error("Plan() wrote into the source directory")
		}
	}
}

func TestRender_MatchesBackup(t *testing.T) {
	src := t.TempDir()
	testutil.WriteTree(t, src, testutil.DemoHandler())
	dest := t.TempDir()
	opts := Options{CustomCode: "export const extra = 1;"}

	b := newTestBuilder(t)
	rendered, err := b.Render(context.Background(), src, opts)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if _, err := b.Build(context.Background(), src, dest, opts); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if backup := testutil.MustReadFile(t, filepath.Join(dest, "index.bak")); rendered != backup {
		t.Errorf("Render() differs from index.bak:\n%s\n---\n%s", rendered, backup)
	}
}

func TestRender_MissingConfig(t *testing.T) {
	b := newTestBuilder(t)
	if _, err := b.Render(context.Background(), t.TempDir(), Options{}); !errors.Is(err, handler.ErrMissingConfig) {
		t.Errorf("Render() error = %v, want ErrMissingConfig", err)
	}
}
