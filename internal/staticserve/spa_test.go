package staticserve

import "testing"

func Test_ShouldUseSPAFallback(t *testing.T) {
	cases := map[string]bool{
		"/":              false,
		"/api/users":     false,
		"/_internal":     false,
		"/v1.2/users":    false,
		"/style.css":     false,
		"/dashboard":     true,
		"/nested/nested": true,
	}
	for path, want := range cases {
		if got := ShouldUseSPAFallback(path); got != want {
			t.Errorf("ShouldUseSPAFallback(%q) = %v, want %v", path, got, want)
		}
	}
}

func Test_ApplyCleanURLs_idempotent(t *testing.T) {
	once := ApplyCleanURLs("/about.html")
	twice := ApplyCleanURLs(once)
	if once != "/about" {
		t.Fatalf("expected /about, got %s", once)
	}
	if once != twice {
		t.Fatalf("ApplyCleanURLs not idempotent: %s != %s", once, twice)
	}
}

func Test_ApplyCleanURLs_preservesIndexHTML(t *testing.T) {
	if got := ApplyCleanURLs("/index.html"); got != "/index.html" {
		t.Fatalf("expected /index.html preserved, got %s", got)
	}
}

func Test_ApplyTrailingSlash_addIdempotent(t *testing.T) {
	once := ApplyTrailingSlash("/docs", true)
	twice := ApplyTrailingSlash(once, true)
	if once != "/docs/" {
		t.Fatalf("expected /docs/, got %s", once)
	}
	if once != twice {
		t.Fatalf("ApplyTrailingSlash(add) not idempotent: %s != %s", once, twice)
	}
}

func Test_ApplyTrailingSlash_addSkipsDotted(t *testing.T) {
	if got := ApplyTrailingSlash("/style.css", true); got != "/style.css" {
		t.Fatalf("expected unchanged, got %s", got)
	}
}

func Test_ApplyTrailingSlash_removeIdempotent(t *testing.T) {
	once := ApplyTrailingSlash("/docs/", false)
	twice := ApplyTrailingSlash(once, false)
	if once != "/docs" {
		t.Fatalf("expected /docs, got %s", once)
	}
	if once != twice {
		t.Fatalf("ApplyTrailingSlash(remove) not idempotent: %s != %s", once, twice)
	}
}

func Test_ApplyTrailingSlash_removePreservesRoot(t *testing.T) {
	if got := ApplyTrailingSlash("/", false); got != "/" {
		t.Fatalf("expected root preserved, got %s", got)
	}
}
