package passthrough

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAdd(t *testing.T) {
	t.Run("explicit verbs register only those verbs", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Add("http://api.example.com/users", http.MethodGet, http.MethodPost))

		assert.True(t, r.Allows("api.example.com", http.MethodGet, "/users"))
		assert.True(t, r.Allows("api.example.com", http.MethodPost, "/users"))
		assert.False(t, r.Allows("api.example.com", http.MethodPut, "/users"))
		assert.False(t, r.Allows("api.example.com", http.MethodDelete, "/users"))
	})

	t.Run("first insert without verbs registers all verbs", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Add("http://api.example.com/users"))

		for _, verb := range AllVerbs {
			assert.True(t, r.Allows("api.example.com", verb, "/users"), verb)
		}
	})

	t.Run("later insert without verbs extends only existing verbs", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Add("http://api.example.com/users", http.MethodGet))
		require.NoError(t, r.Add("http://api.example.com/orders"))

		assert.True(t, r.Allows("api.example.com", http.MethodGet, "/orders"))
		assert.False(t, r.Allows("api.example.com", http.MethodPost, "/orders"))
		assert.False(t, r.Allows("api.example.com", http.MethodPut, "/orders"))
	})

	t.Run("later insert with explicit verbs adds those verbs", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Add("http://api.example.com/users", http.MethodGet))
		require.NoError(t, r.Add("http://api.example.com/orders", http.MethodPost))

		assert.True(t, r.Allows("api.example.com", http.MethodPost, "/orders"))
		assert.False(t, r.Allows("api.example.com", http.MethodPost, "/users"))
		assert.False(t, r.Allows("api.example.com", http.MethodGet, "/orders"))
	})

	t.Run("hosts are independent", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Add("http://one.example.com/a", http.MethodGet))
		require.NoError(t, r.Add("http://two.example.com/b"))

		assert.True(t, r.Allows("one.example.com", http.MethodGet, "/a"))
		assert.False(t, r.Allows("two.example.com", http.MethodGet, "/a"))
		assert.True(t, r.Allows("two.example.com", http.MethodPost, "/b"))
		assert.False(t, r.Allows("one.example.com", http.MethodPost, "/b"))
	})

	t.Run("host includes the port", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Add("http://example.com:8080/a"))

		assert.True(t, r.Allows("example.com:8080", http.MethodGet, "/a"))
		assert.False(t, r.Allows("example.com", http.MethodGet, "/a"))
	})

	t.Run("url without a path registers the root", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Add("http://example.com"))

		assert.True(t, r.Allows("example.com", http.MethodGet, "/"))
		assert.False(t, r.Allows("example.com", http.MethodGet, "/users"))
	})

	t.Run("verbs are case insensitive", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Add("http://example.com/a", "get"))

		assert.True(t, r.Allows("example.com", "GET", "/a"))
		assert.True(t, r.Allows("example.com", "get", "/a"))
	})
}

func TestRegistryAddMalformed(t *testing.T) {
	tests := []struct {
		name   string
		rawURL string
	}{
		{name: "not a url", rawURL: "not a url"},
		{name: "relative path", rawURL: "/users"},
		{name: "missing host", rawURL: "http://"},
		{name: "unsupported scheme", rawURL: "ftp://example.com/a"},
		{name: "empty", rawURL: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			err := r.Add(tt.rawURL)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedURL)
		})
	}
}

func TestRegistryAllowsPatterns(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add("http://example.com/users/:id", http.MethodGet))
	require.NoError(t, r.Add("http://example.com/files/**", http.MethodGet))
	require.NoError(t, r.Add("http://example.com/**"))
	require.NoError(t, r.Add("http://example.com/"))

	tests := []struct {
		name string
		verb string
		path string
		want bool
	}{
		{name: "named param", verb: http.MethodGet, path: "/users/42", want: true},
		{name: "glob remainder", verb: http.MethodGet, path: "/files/a/b/c", want: true},
		{name: "glob needs a remainder but the catch-all takes over", verb: http.MethodGet, path: "/files", want: true},
		{name: "catch-all covers other paths", verb: http.MethodGet, path: "/anything", want: true},
		{name: "root needs its own entry", verb: http.MethodGet, path: "/", want: true},
		{name: "catch-all only extends existing verbs", verb: http.MethodDelete, path: "/anything", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Allows("example.com", tt.verb, tt.path))
		})
	}
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add("http://example.com/a", http.MethodGet))
	require.NoError(t, r.Add("http://example.com/b", http.MethodGet))

	entry := r.Lookup("example.com")
	require.NotNil(t, entry)
	assert.Equal(t, []string{"/a", "/b"}, entry[http.MethodGet])

	// The copy is detached from the registry.
	entry[http.MethodGet][0] = "/mutated"
	assert.True(t, r.Allows("example.com", http.MethodGet, "/a"))

	assert.Nil(t, r.Lookup("unknown.example.com"))
}

func TestRegistryHosts(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add("http://beta.example.com/a"))
	require.NoError(t, r.Add("http://alpha.example.com/a"))

	assert.Equal(t, []string{"alpha.example.com", "beta.example.com"}, r.Hosts())
	assert.Empty(t, NewRegistry().Hosts())
}

func BenchmarkRegistryAllows(b *testing.B) {
	r := NewRegistry()
	for _, path := range []string{"/health", "/metrics", "/api/users/**", "/api/orders/:id"} {
		if err := r.Add("http://example.com"+path, http.MethodGet, http.MethodPost); err != nil {
			b.Fatalf("add %s: %v", path, err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Allows("example.com", http.MethodGet, "/api/users/42/contacts")
	}
}
