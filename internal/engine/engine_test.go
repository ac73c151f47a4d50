package engine_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/multierr"

	"github.com/appgen-dev/appgen/internal/config"
	"github.com/appgen-dev/appgen/internal/engine"
	"github.com/appgen-dev/appgen/internal/feature"
	"github.com/appgen-dev/appgen/internal/manifest"
	"github.com/appgen-dev/appgen/internal/patch"
)

const root = "/proj"

type stub struct {
	name     string
	disabled bool
	res      feature.Result
	err      error
	calls    *int
}

func (s stub) Name() string { return s.name }

func (s stub) Enabled(config.Configuration) bool { return !s.disabled }

func (s stub) Files(config.Configuration) []feature.File { return nil }

func (s stub) Setup(_ context.Context, ws *feature.Workspace, _ config.Configuration) (feature.Result, error) {
	if s.calls != nil {
		*s.calls++
	}
	if s.err != nil {
		return feature.Result{}, s.err
	}
	if err := ws.WriteFile(s.name+".txt", []byte(s.name), 0); err != nil {
		return feature.Result{}, err
	}
	return s.res, nil
}

func newWorkspace(t *testing.T, files map[string]string) (*feature.Workspace, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fsys, root+"/"+name, []byte(content), 0o644))
	}
	loader, err := feature.NewLoader()
	require.NoError(t, err)
	return feature.NewWorkspace(fsys, root, loader, nil), fsys
}

func readFile(t *testing.T, fsys afero.Fs, name string) string {
	t.Helper()
	data, err := afero.ReadFile(fsys, root+"/"+name)
	require.NoError(t, err)
	return string(data)
}

func demoConfig(t *testing.T, cfg config.Configuration) config.Configuration {
	t.Helper()
	cfg.ProjectName = "demo"
	out, err := cfg.Resolve()
	require.NoError(t, err)
	return out
}

var (
	providerA = stub{name: "a", res: feature.Result{Imports: []string{"import a from 'a'"}, Uses: []string{"use(a)"}}}
	providerB = stub{name: "b", res: feature.Result{Imports: []string{"import b from 'b'"}, Uses: []string{"use(b)"}}}
)

func TestComposeFollowsDeclaredOrder(t *testing.T) {
	cfg := demoConfig(t, config.Configuration{})
	cases := []struct {
		name      string
		providers []feature.Provider
		imports   []string
		uses      []string
	}{
		{"a then b", []feature.Provider{providerA, providerB}, []string{"import a from 'a'", "import b from 'b'"}, []string{"use(a)", "use(b)"}},
		{"b then a", []feature.Provider{providerB, providerA}, []string{"import b from 'b'", "import a from 'a'"}, []string{"use(b)", "use(a)"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ws, _ := newWorkspace(t, nil)
			effects, err := engine.Compose(context.Background(), ws, cfg, tc.providers)
			require.NoError(t, err)
			assert.Equal(t, tc.imports, effects.Imports())
			assert.Equal(t, tc.uses, effects.Uses())
		})
	}
}

func TestComposeSkipsDisabledAndRunsOnce(t *testing.T) {
	var enabledCalls, disabledCalls int
	ws, _ := newWorkspace(t, nil)
	effects, err := engine.Compose(context.Background(), ws, demoConfig(t, config.Configuration{}), []feature.Provider{
		stub{name: "on", calls: &enabledCalls, res: feature.Result{Dependencies: []string{"z", "a", "z"}, DevDependencies: []string{"d"}}},
		stub{name: "off", disabled: true, calls: &disabledCalls, res: feature.Result{Dependencies: []string{"never"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, enabledCalls)
	assert.Zero(t, disabledCalls)
	assert.Equal(t, []string{"a", "z"}, effects.Dependencies())
	assert.Equal(t, []string{"d"}, effects.DevDependencies())
	assert.Equal(t, []string{"on"}, effects.Providers())
}

func TestComposeRejectsDuplicateNames(t *testing.T) {
	var calls int
	ws, _ := newWorkspace(t, nil)
	p := stub{name: "x", calls: &calls}
	_, err := engine.Compose(context.Background(), ws, demoConfig(t, config.Configuration{}), []feature.Provider{p, p})
	assert.ErrorContains(t, err, `provider "x" is listed more than once`)
	assert.Zero(t, calls)
}

func TestComposeKeepsDuplicateImports(t *testing.T) {
	ws, _ := newWorkspace(t, nil)
	dup := feature.Result{Imports: []string{"import x from 'x'"}}
	effects, err := engine.Compose(context.Background(), ws, demoConfig(t, config.Configuration{}), []feature.Provider{
		stub{name: "one", res: dup}, stub{name: "two", res: dup},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"import x from 'x'", "import x from 'x'"}, effects.Imports())
	assert.Equal(t, []string{"import x from 'x'"}, effects.DuplicateImports())
}

func TestEffectsCollisions(t *testing.T) {
	effects := engine.NewEffects()
	require.NoError(t, effects.Merge("first", feature.Result{
		Scripts:    map[string]string{"lint": "eslint .", "fmt": "prettier", "same": "x"},
		LintStaged: map[string]string{"*.js": "eslint --fix"},
	}))

	err := effects.Merge("second", feature.Result{
		Scripts:      map[string]string{"lint": "biome lint", "fmt": "dprint", "same": "x", "new": "y"},
		LintStaged:   map[string]string{"*.js": "biome"},
		Dependencies: []string{"biome"},
	})
	require.Error(t, err)
	assert.True(t, engine.IsCollision(err))
	errs := multierr.Errors(err)
	require.Len(t, errs, 3)

	var collision *engine.CollisionError
	require.ErrorAs(t, errs[0], &collision)
	assert.Equal(t, engine.CollisionError{
		Field: "scripts", Key: "fmt", First: "first", Second: "second", FirstValue: "prettier", SecondValue: "dprint",
	}, *collision)
	assert.EqualError(t, errs[2], `lint-staged key "*.js" declared by "first" ("eslint --fix") and "second" ("biome")`)

	assert.Equal(t, map[string]string{"lint": "eslint .", "fmt": "prettier", "same": "x"}, effects.Scripts(), "failed merge changes nothing")
	assert.Empty(t, effects.Dependencies())
	assert.Equal(t, "first", effects.Owner(manifest.FieldScripts, "lint"))

	require.NoError(t, effects.Merge("third", feature.Result{Scripts: map[string]string{"same": "x"}}), "identical value is not a collision")
	assert.Equal(t, "first", effects.Owner(manifest.FieldScripts, "same"))
}

const seedManifest = `{
  "name": "demo",
  "private": true,
  "scripts": {
    "dev": "vite",
    "build": "vite build"
  },
  "dependencies": {
    "vue": "^3.5.0"
  }
}
`

func TestGenerateRouterAndStore(t *testing.T) {
	ws, fsys := newWorkspace(t, map[string]string{
		"src/main.js":  "construct(Root).mount('#root')\n",
		"package.json": seedManifest,
	})
	providers := []feature.Provider{
		stub{name: "router", res: feature.Result{Dependencies: []string{"vue-router"}, Imports: []string{"import router from './router'"}, Uses: []string{"use(router)"}}},
		stub{name: "store", res: feature.Result{Dependencies: []string{"pinia"}, Imports: []string{"import store from './store'"}, Uses: []string{".use(store)"}}},
		stub{name: "linter", disabled: true},
		stub{name: "css", disabled: true},
		stub{name: "githooks", disabled: true},
	}

	out, err := engine.NewEngine(providers).Generate(context.Background(), ws, demoConfig(t, config.Configuration{Router: true, Store: true}))
	require.NoError(t, err)
	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, []string{"package.json", "router.txt", "src/main.js", "store.txt"}, out.Files)

	wantEntry := "import router from './router'\n" +
		"import store from './store'\n" +
		"const app = construct(Root);\n" +
		"app.use(router);\n" +
		"app.use(store);\n" +
		"app.mount('#root');\n"
	if diff := cmp.Diff(wantEntry, readFile(t, fsys, "src/main.js")); diff != "" {
		t.Fatalf("entry mismatch (-want +got):\n%s", diff)
	}

	wantManifest := `{
  "name": "demo",
  "private": true,
  "scripts": {
    "dev": "vite",
    "build": "vite build"
  },
  "dependencies": {
    "pinia": "latest",
    "vue": "^3.5.0",
    "vue-router": "latest"
  }
}
`
	if diff := cmp.Diff(wantManifest, readFile(t, fsys, "package.json")); diff != "" {
		t.Fatalf("manifest mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateMergesDistinctScripts(t *testing.T) {
	ws, fsys := newWorkspace(t, map[string]string{"src/main.js": "createApp(App).mount('#app')\n", "package.json": seedManifest})
	providers := []feature.Provider{
		stub{name: "lint", res: feature.Result{Scripts: map[string]string{"lint": "eslint ."}}},
		stub{name: "format", res: feature.Result{Scripts: map[string]string{"format": "prettier --write src/"}}},
	}
	_, err := engine.NewEngine(providers).Generate(context.Background(), ws, demoConfig(t, config.Configuration{}))
	require.NoError(t, err)

	doc, err := manifest.Parse("package.json", []byte(readFile(t, fsys, "package.json")))
	require.NoError(t, err)
	scripts, ok := doc.StringMap("scripts")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"dev": "vite", "build": "vite build", "lint": "eslint .", "format": "prettier --write src/"}, scripts)
}

func TestGenerateCollisionWritesNothingShared(t *testing.T) {
	entry := "createApp(App).mount('#app')\n"
	ws, fsys := newWorkspace(t, map[string]string{"src/main.js": entry, "package.json": seedManifest})
	providers := []feature.Provider{
		stub{name: "a", res: feature.Result{Scripts: map[string]string{"lint": "eslint ."}, Uses: []string{"use(a)"}}},
		stub{name: "b", res: feature.Result{Scripts: map[string]string{"lint": "biome lint"}}},
	}

	_, err := engine.NewEngine(providers).Generate(context.Background(), ws, demoConfig(t, config.Configuration{}))
	require.Error(t, err)
	assert.True(t, engine.IsCollision(err))
	assert.ErrorContains(t, err, `merge feature "b": scripts key "lint" declared by "a" ("eslint .") and "b" ("biome lint")`)

	assert.Equal(t, entry, readFile(t, fsys, "src/main.js"))
	assert.Equal(t, seedManifest, readFile(t, fsys, "package.json"))
}

func TestGenerateFailsBeforeProvidersRun(t *testing.T) {
	cases := map[string]struct {
		files map[string]string
		check func(error) bool
	}{
		"missing entry":       {map[string]string{"package.json": seedManifest}, feature.IsMissingFile},
		"missing manifest":    {map[string]string{"src/main.js": "createApp(App).mount('#app')\n"}, feature.IsMissingFile},
		"ambiguous entry":     {map[string]string{"src/main.js": "a(B).mount('#a')\na(B).mount('#b')\n", "package.json": seedManifest}, patch.IsPatternError},
		"unparsable manifest": {map[string]string{"src/main.js": "createApp(App).mount('#app')\n", "package.json": "{"}, manifest.IsParseError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var calls int
			ws, _ := newWorkspace(t, tc.files)
			_, err := engine.NewEngine([]feature.Provider{stub{name: "p", calls: &calls}}).Generate(context.Background(), ws, demoConfig(t, config.Configuration{}))
			require.Error(t, err)
			assert.True(t, tc.check(err), "unexpected error: %v", err)
			assert.Zero(t, calls)
		})
	}
}

func TestGenerateProviderFailure(t *testing.T) {
	ws, fsys := newWorkspace(t, map[string]string{"src/main.js": "createApp(App).mount('#app')\n", "package.json": seedManifest})
	boom := errors.New("boom")
	_, err := engine.NewEngine([]feature.Provider{providerA, stub{name: "broken", err: boom}}).
		Generate(context.Background(), ws, demoConfig(t, config.Configuration{}))
	require.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, `feature "broken": boom`)
	assert.Equal(t, seedManifest, readFile(t, fsys, "package.json"))
	assert.Equal(t, "a", readFile(t, fsys, "a.txt"), "provider files are not rolled back")
}

func TestGenerateLeavesWorkspaceLoggerUntouched(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	fsys := afero.NewMemMapFs()
	loader, err := feature.NewLoader()
	require.NoError(t, err)
	ws := feature.NewWorkspace(fsys, root, loader, logger)
	eng := engine.NewEngine([]feature.Provider{providerA})

	var runs []string
	for i := 0; i < 2; i++ {
		require.NoError(t, afero.WriteFile(fsys, root+"/src/main.js", []byte("createApp(App).mount('#app')\n"), 0o644))
		require.NoError(t, afero.WriteFile(fsys, root+"/package.json", []byte(seedManifest), 0o644))
		out, err := eng.Generate(context.Background(), ws, demoConfig(t, config.Configuration{}))
		require.NoError(t, err)
		runs = append(runs, out.RunID)
		assert.Same(t, logger, ws.Logger)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.Equal(t, 1, strings.Count(line, "run="), "line %q", line)
	}
	last := lines[len(lines)-1]
	assert.Contains(t, last, "run="+runs[1])
}

func TestGenerateRecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(recorder))
	ws, _ := newWorkspace(t, map[string]string{"src/main.js": "createApp(App).mount('#app')\n", "package.json": seedManifest})

	_, err := engine.NewEngine([]feature.Provider{providerA, providerB}, engine.WithTracerProvider(tp)).
		Generate(context.Background(), ws, demoConfig(t, config.Configuration{}))
	require.NoError(t, err)

	var names []string
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
	}
	assert.Equal(t, []string{"feature a", "feature b", "generate"}, names)
}

func TestGenerateDefaultProviders(t *testing.T) {
	ws, fsys := newWorkspace(t, map[string]string{
		"src/main.ts":        "import { createApp } from 'vue'\nimport App from './App.vue'\n\ncreateApp(App).mount('#app')\n",
		"package.json":       seedManifest,
		"vite.config.ts":     "import vue from '@vitejs/plugin-vue'\n\nexport default {\n  plugins: [\n    vue(),\n  ],\n}\n",
		"tsconfig.node.json": "{\n  \"include\": [\"vite.config.*\"]\n}\n",
	})
	cfg := demoConfig(t, config.Configuration{
		PackageManager: config.PackageManagerPNPM,
		TypeScript:     true,
		Router:         true,
		Store:          true,
		Linter:         true,
		GitHooks:       true,
		CSS:            config.CSSTailwind,
		Versions:       map[string]string{"pinia": "^3.0.3"},
	})

	out, err := engine.NewEngine(nil).Generate(context.Background(), ws, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"typescript", "router", "store", "linter", "css", "githooks", "docs"}, out.Effects.Providers())

	wantEntry := "import router from './router'\n" +
		"import { createPinia } from 'pinia'\n" +
		"import './styles/tailwind.css'\n" +
		"import { createApp } from 'vue'\nimport App from './App.vue'\n\n" +
		"const app = createApp(App);\napp.use(router);\napp.use(createPinia());\napp.mount('#app');\n"
	if diff := cmp.Diff(wantEntry, readFile(t, fsys, "src/main.ts")); diff != "" {
		t.Fatalf("entry mismatch (-want +got):\n%s", diff)
	}

	doc, err := manifest.Parse("package.json", []byte(readFile(t, fsys, "package.json")))
	require.NoError(t, err)
	deps, _ := doc.StringMap("dependencies")
	assert.Equal(t, map[string]string{"pinia": "^3.0.3", "vue": "^3.5.0", "vue-router": "latest"}, deps)
	devKeys := doc.MapKeys("devDependencies")
	assert.IsIncreasing(t, devKeys)
	assert.Contains(t, devKeys, "lint-staged")
	scripts, _ := doc.StringMap("scripts")
	assert.Equal(t, "husky", scripts["prepare"])
	assert.Equal(t, "vue-tsc --build", scripts["type-check"])
	lintStaged, _ := doc.StringMap("lint-staged")
	assert.Len(t, lintStaged, 2)

	assert.Contains(t, readFile(t, fsys, "vite.config.ts"), "    tailwindcss(),\n")
	assert.Contains(t, readFile(t, fsys, "tsconfig.node.json"), `"eslint.config.ts"`)
	assert.Equal(t, "pnpm exec lint-staged\npnpm type-check\n", readFile(t, fsys, ".husky/pre-commit"))
	assert.Contains(t, out.Files, "README.md")
}
