package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeRouteFiles(t *testing.T) {
	t.Run("matches merge after inline routes in sorted order", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "routes/b.yaml", "- verb: get\n  path: /from-b\n")
		writeFile(t, dir, "routes/a.yaml", "- verb: get\n  path: /from-a\n")
		path := writeFile(t, dir, "intercept.yaml", `routes:
  - verb: get
    path: /inline
routeFiles:
  - routes/*.yaml
`)

		cfg, err := Load(path)
		require.NoError(t, err)
		require.Len(t, cfg.Routes, 3)
		assert.Equal(t, "/inline", cfg.Routes[0].Path)
		assert.Equal(t, "/from-a", cfg.Routes[1].Path)
		assert.Equal(t, "/from-b", cfg.Routes[2].Path)
	})

	t.Run("doublestar glob walks nested directories", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "routes/v1/users.yaml", "- verb: get\n  path: /v1/users\n")
		writeFile(t, dir, "routes/v2/nested/users.yaml", "- verb: get\n  path: /v2/users\n")
		path := writeFile(t, dir, "intercept.yaml", "routeFiles:\n  - routes/**/*.yaml\n")

		cfg, err := Load(path)
		require.NoError(t, err)
		require.Len(t, cfg.Routes, 2)
		assert.Equal(t, "/v1/users", cfg.Routes[0].Path)
		assert.Equal(t, "/v2/users", cfg.Routes[1].Path)
	})

	t.Run("mapping form with a routes key", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "extra.yaml", `routes:
  - verb: post
    path: /users
    status: 201
`)
		path := writeFile(t, dir, "intercept.yaml", "routeFiles:\n  - extra.yaml\n")

		cfg, err := Load(path)
		require.NoError(t, err)
		require.Len(t, cfg.Routes, 1)
		assert.Equal(t, 201, cfg.Routes[0].Status)
	})

	t.Run("no matches is not an error", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "intercept.yaml", "routeFiles:\n  - missing/*.yaml\n")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Empty(t, cfg.Routes)
	})

	t.Run("route file missing a verb fails the load", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "bad.yaml", "- path: /users\n")
		path := writeFile(t, dir, "intercept.yaml", "routeFiles:\n  - bad.yaml\n")

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "verb and path are required")
	})

	t.Run("route file env vars expand", func(t *testing.T) {
		t.Setenv("INTERCEPT_TEST_PATH", "/from-env")
		dir := t.TempDir()
		writeFile(t, dir, "extra.yaml", "- verb: get\n  path: ${INTERCEPT_TEST_PATH}\n")
		path := writeFile(t, dir, "intercept.yaml", "routeFiles:\n  - extra.yaml\n")

		cfg, err := Load(path)
		require.NoError(t, err)
		require.Len(t, cfg.Routes, 1)
		assert.Equal(t, "/from-env", cfg.Routes[0].Path)
	})
}
