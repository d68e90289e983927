package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify_Default(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()

	tests := []struct {
		path string
		want Class
	}{
		{"/_next/static/chunk.js", System},
		{"/_next", System},
		{"/api/users", System},
		{"/auth/callback", System},
		{"/auth", System},
		{"/images/logo", System},
		{"/silent-check-sso.html", System},
		{"/coming-soon", System},
		{"/", Public},
		{"/landing", Public},
		{"/landing/pricing", Public},
		{"/register", Public},
		{"/login", Public},
		{"/logout", Public},
		{"/debug/cookies", Public},
		{"/robots.txt", System},
		{"/dashboard/report.pdf", System},
		{"/dashboard", Protected},
		{"/customers/42", Protected},
		{"/landingpage", Protected},
		{"/apis", Protected},
		{"/authz", Protected},
		{"/authors", Protected},
		{"/images-foo", Protected},
		{"/unauthorized", Protected},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			require.Equal(t, tt.want, p.Classify(tt.path))
		})
	}
}

func TestClassify_Idempotent(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()
	paths := []string{"/dashboard", "/", "/api/x", "/a.b", "/landing/x", "/dashboard"}

	first := make([]Class, len(paths))
	for i, path := range paths {
		first[i] = p.Classify(path)
	}

	// Reverse order, repeated, must not change anything.
	for range 3 {
		for i := len(paths) - 1; i >= 0; i-- {
			require.Equal(t, first[i], p.Classify(paths[i]))
		}
	}
}

func TestPlacement(t *testing.T) {
	t.Parallel()

	t.Run("no app routes means everything exists", func(t *testing.T) {
		p := DefaultPolicy()
		require.Equal(t, Existing, p.Placement("/anything/at/all"))
	})

	p := DefaultPolicy()
	p.AppRoutes = []string{"/dashboard", "/customers", "/customers/[id]", "/reports/*/summary"}
	p.MenuRoutes = []string{"/dashboard", "/customers", "/inventory", "/inventory/*"}
	require.NoError(t, p.Validate())

	tests := []struct {
		path string
		want Placement
	}{
		{"/dashboard", Existing},
		{"/dashboard/", Existing},
		{"/customers/42", Existing},
		{"/reports/2024/summary", Existing},
		{"/reports/2024", Unknown},
		{"/inventory", ComingSoon},
		{"/inventory/stock", ComingSoon},
		{"/nowhere", Unknown},
		{"/customers/42/edit", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			require.Equal(t, tt.want, p.Placement(tt.path))
		})
	}
}

func TestAuthorized(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()
	require.True(t, p.Authorized([]string{"ADMIN"}))
	require.True(t, p.Authorized([]string{"GUEST", "CUSTOMER"}))
	require.False(t, p.Authorized([]string{"GUEST"}))
	require.False(t, p.Authorized(nil))
}

func TestUnauthorizedLocation(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()
	require.Equal(t, "/?error=insufficient_permissions", p.UnauthorizedLocation())

	p.PublicPaths = append(p.PublicPaths, "/unauthorized")
	p.UnauthorizedMode = UnauthorizedPage
	require.NoError(t, p.Validate())
	require.Equal(t, "/unauthorized", p.UnauthorizedLocation())
}
