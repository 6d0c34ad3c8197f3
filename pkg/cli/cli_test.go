package cli

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/intercept/pkg/config"
	"github.com/getmockd/intercept/pkg/logging"
)

// TestMain registers the CLI as a testscript command so the scripts
// under testdata/script can invoke it without building a binary.
func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"intercept": Main,
	}))
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: filepath.Join("testdata", "script"),
	})
}

func TestBuildHandler(t *testing.T) {
	cfg, err := config.Parse([]byte(`
unhandled: block
metrics:
  enabled: true
routes:
  - verb: get
    path: /api/users
    body:
      users: []
`))
	require.NoError(t, err)

	handler, p, err := buildHandler(cfg, logging.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, p.Routes())

	t.Run("mocked route answers", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://localhost/api/users", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"users": []}`, rec.Body.String())
	})

	t.Run("unmatched requests are blocked", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://localhost/nope", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("metrics endpoint is mounted", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://localhost/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "go_goroutines")
	})
}

func TestBuildHandlerRejectsBadPolicy(t *testing.T) {
	cfg, err := config.Parse([]byte(`routes: []`))
	require.NoError(t, err)
	cfg.Unhandled = "shrug"

	_, _, err = buildHandler(cfg, logging.Nop())
	assert.ErrorContains(t, err, "unknown policy")
}

func TestRenderScaffold(t *testing.T) {
	data, err := renderScaffold(scaffold{
		Listen:    ":9000",
		Origin:    "http://localhost:3000",
		Path:      "/v1/widgets",
		Unhandled: config.UnhandledBlock,
	}, "custom.yaml")
	require.NoError(t, err)

	assert.Contains(t, string(data), "# custom.yaml")

	cfg, err := config.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, "http://localhost:3000", cfg.Origin)
	assert.Equal(t, config.UnhandledBlock, cfg.Unhandled)
	require.Len(t, cfg.Routes, 1)
	assert.Equal(t, "/v1/widgets", cfg.Routes[0].Path)
	require.Len(t, cfg.Passthrough, 1)
	assert.Equal(t, "/health", cfg.Passthrough[0].URL)
}

func TestHintAddr(t *testing.T) {
	assert.Equal(t, "localhost:8890", hintAddr(":8890"))
	assert.Equal(t, "0.0.0.0:8890", hintAddr("0.0.0.0:8890"))
}
