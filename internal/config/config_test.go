package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	t.Setenv("PER_PAGE_POSTS", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg := Load()
	if cfg.PerPagePosts != 5 {
		t.Fatalf("PerPagePosts = %d, want 5", cfg.PerPagePosts)
	}
	if cfg.SecretKey == "" {
		t.Fatal("expected a generated secret key")
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q", cfg.Port)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("PER_PAGE_POSTS", "2")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("COOKIE_SECURE", "true")

	cfg := Load()
	if cfg.SecretKey != "s3cret" || cfg.PerPagePosts != 2 || !cfg.CookieSecure {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestLoadBadPerPage(t *testing.T) {
	t.Setenv("PER_PAGE_POSTS", "zero")
	if cfg := Load(); cfg.PerPagePosts != 5 {
		t.Fatalf("PerPagePosts = %d, want fallback 5", cfg.PerPagePosts)
	}
}
