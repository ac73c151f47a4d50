package patch_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appgen-dev/appgen/internal/patch"
)

func TestBootstrapRouterAndStore(t *testing.T) {
	got, err := patch.Bootstrap("src/main.ts", "construct(Root).mount('#root')\n",
		[]string{"import router from './router'", "import { createPinia } from 'pinia'"},
		[]string{"use(router)", ".use(createPinia())"},
	)
	require.NoError(t, err)

	want := "import router from './router'\n" +
		"import { createPinia } from 'pinia'\n" +
		"const app = construct(Root);\n" +
		"app.use(router);\n" +
		"app.use(createPinia());\n" +
		"app.mount('#root');\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("bootstrap mismatch (-want +got):\n%s", diff)
	}
}

func TestBootstrapKeepsSurroundingText(t *testing.T) {
	seed := "import './assets/main.css'\n\nimport { createApp } from 'vue'\nimport App from './App.vue'\n\ncreateApp(App).mount('#app');\n\nconsole.log('ready')\n"
	got, err := patch.Bootstrap("src/main.js", seed, []string{"import router from './router'"}, []string{"use(router)"})
	require.NoError(t, err)

	want := "import router from './router'\n" +
		"import './assets/main.css'\n\nimport { createApp } from 'vue'\nimport App from './App.vue'\n\n" +
		"const app = createApp(App);\napp.use(router);\napp.mount('#app');\n\nconsole.log('ready')\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("bootstrap mismatch (-want +got):\n%s", diff)
	}
}

func TestBootstrapNoEffects(t *testing.T) {
	got, err := patch.Bootstrap("src/main.ts", "  createApp(App).mount(\"#app\")", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "  const app = createApp(App);\n  app.mount(\"#app\");", got)
}

func TestBootstrapPreservesCRLF(t *testing.T) {
	got, err := patch.Bootstrap("src/main.ts", "import App from './App.vue'\r\ncreateApp(App).mount('#app')\r\n", []string{"import x from 'x'"}, []string{"use(x)"})
	require.NoError(t, err)
	assert.Equal(t, "import x from 'x'\r\nimport App from './App.vue'\r\nconst app = createApp(App);\r\napp.use(x);\r\napp.mount('#app');\r\n", got)
}

func TestBootstrapKeepsTrailingComment(t *testing.T) {
	got, err := patch.Bootstrap("src/main.ts", "createApp(App).mount('#app') // boot\n", nil, []string{"use(router)"})
	require.NoError(t, err)
	assert.Equal(t, "const app = createApp(App);\napp.use(router);\napp.mount('#app'); // boot\n", got)
}

func TestBootstrapRequiresExactlyOneMount(t *testing.T) {
	cases := map[string]struct {
		content string
		matches int
	}{
		"absent":    {"const app = createApp(App)\napp.mount('#app')\n", 0},
		"duplicate": {"createApp(A).mount('#a')\ncreateApp(B).mount('#b')\n", 2},
		"split":     {"createApp(App)\n  .mount('#app')\n", 0},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := patch.Bootstrap("src/main.ts", tc.content, nil, []string{"use(x)"})
			require.Error(t, err)
			require.True(t, patch.IsPatternError(err))
			var perr *patch.PatternError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tc.matches, perr.Matches)
			assert.Equal(t, "src/main.ts", perr.Target)
		})
	}
}

func TestUseCall(t *testing.T) {
	assert.Equal(t, "use(router)", patch.UseCall("use(router)"))
	assert.Equal(t, "use(router)", patch.UseCall(" .use(router); "))
}

const viteConfig = `import { fileURLToPath, URL } from 'node:url'

import { defineConfig } from 'vite'
import vue from '@vitejs/plugin-vue'

// https://vite.dev/config/
export default defineConfig({
  plugins: [
    vue(),
  ],
  resolve: {
    alias: {
      '@': fileURLToPath(new URL('./src', import.meta.url))
    },
  },
})
`

func TestBuildPluginMultiline(t *testing.T) {
	got, err := patch.BuildPlugin("vite.config.ts", viteConfig, "import tailwindcss from '@tailwindcss/vite'", "tailwindcss()")
	require.NoError(t, err)

	want := `import { fileURLToPath, URL } from 'node:url'

import { defineConfig } from 'vite'
import vue from '@vitejs/plugin-vue'
import tailwindcss from '@tailwindcss/vite'

// https://vite.dev/config/
export default defineConfig({
  plugins: [
    vue(),
    tailwindcss(),
  ],
  resolve: {
    alias: {
      '@': fileURLToPath(new URL('./src', import.meta.url))
    },
  },
})
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("build config mismatch (-want +got):\n%s", diff)
	}

	again, err := patch.BuildPlugin("vite.config.ts", got, "import tailwindcss from '@tailwindcss/vite'", "tailwindcss()")
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestBuildPluginSingleLine(t *testing.T) {
	cases := map[string]struct{ in, want string }{
		"one element": {
			in:   "import vue from '@vitejs/plugin-vue'\nexport default { plugins: [vue({ template: { compilerOptions: {} } })] }\n",
			want: "import vue from '@vitejs/plugin-vue'\nimport p from 'p'\nexport default { plugins: [vue({ template: { compilerOptions: {} } }), p()] }\n",
		},
		"empty array": {
			in:   "export default { plugins: [] }\n",
			want: "import p from 'p'\nexport default { plugins: [p()] }\n",
		},
		"string with bracket": {
			in:   "import a from 'a'\nexport default { plugins: [a(']')] }\n",
			want: "import a from 'a'\nimport p from 'p'\nexport default { plugins: [a(']'), p()] }\n",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := patch.BuildPlugin("vite.config.js", tc.in, "import p from 'p'", "p()")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBuildPluginPatternErrors(t *testing.T) {
	_, err := patch.BuildPlugin("vite.config.js", "export default {}\n", "import p from 'p'", "p()")
	assert.True(t, patch.IsPatternError(err))
	assert.ErrorContains(t, err, "vite.config.js: expected exactly one match for plugins: [ array, found 0")

	_, err = patch.BuildPlugin("vite.config.js", "export default { plugins: [a(), ", "import p from 'p'", "p()")
	assert.True(t, patch.IsPatternError(err))
}
