package urlpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		urlPrefix string
		namespace string
		want      string
	}{
		{
			name: "bare path gains a leading slash",
			path: "contacts",
			want: "/contacts",
		},
		{
			name: "leading slash is preserved",
			path: "/contacts",
			want: "/contacts",
		},
		{
			name: "root path",
			path: "/",
			want: "/",
		},
		{
			name: "duplicate slashes are collapsed",
			path: "//contacts",
			want: "/contacts",
		},
		{
			name:      "namespace without slashes",
			path:      "contacts",
			namespace: "api",
			want:      "/api/contacts",
		},
		{
			name:      "namespace with leading slash",
			path:      "/contacts",
			namespace: "/api",
			want:      "/api/contacts",
		},
		{
			name:      "namespace with trailing slash",
			path:      "/contacts",
			namespace: "api/",
			want:      "/api/contacts",
		},
		{
			name:      "namespace with both slashes",
			path:      "/contacts",
			namespace: "/api/",
			want:      "/api/contacts",
		},
		{
			name:      "nested namespace",
			path:      "contacts",
			namespace: "/api/v2/",
			want:      "/api/v2/contacts",
		},
		{
			name:      "namespace of a single slash",
			path:      "contacts",
			namespace: "/",
			want:      "/contacts",
		},
		{
			name:      "absolute url prefix",
			path:      "/contacts",
			urlPrefix: "http://example.com",
			want:      "http://example.com/contacts",
		},
		{
			name:      "absolute url prefix with trailing slash",
			path:      "/contacts",
			urlPrefix: "http://example.com/",
			want:      "http://example.com/contacts",
		},
		{
			name:      "prefix and namespace together",
			path:      "contacts",
			urlPrefix: "http://example.com",
			namespace: "api",
			want:      "http://example.com/api/contacts",
		},
		{
			name:      "https prefix with slashed namespace",
			path:      "/contacts",
			urlPrefix: "https://example.com",
			namespace: "/api/",
			want:      "https://example.com/api/contacts",
		},
		{
			name:      "sloppy slashes everywhere",
			path:      "a/b",
			urlPrefix: "pre/",
			namespace: "/ns/",
			want:      "/pre/ns/a/b",
		},
		{
			name:      "absolute path ignores prefix and namespace",
			path:      "http://example.org/users",
			urlPrefix: "http://example.com",
			namespace: "api",
			want:      "http://example.org/users",
		},
		{
			name:      "prefix without scheme is treated as a path",
			path:      "contacts",
			urlPrefix: "example.com",
			want:      "/example.com/contacts",
		},
		{
			name:      "whitespace prefix is trimmed away",
			path:      "contacts",
			urlPrefix: "   ",
			namespace: "api",
			want:      "/api/contacts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.path, tt.urlPrefix, tt.namespace)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContextResolve(t *testing.T) {
	ctx := Context{URLPrefix: "http://example.com", Namespace: "api"}
	assert.Equal(t, "http://example.com/api/users", ctx.Resolve("users"))

	// The zero value resolves against the origin root.
	assert.Equal(t, "/users", Context{}.Resolve("users"))
}

func BenchmarkResolve(b *testing.B) {
	ctx := Context{URLPrefix: "http://api.example.com", Namespace: "v2"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ctx.Resolve("users/42/contacts")
	}
}
