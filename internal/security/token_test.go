package security

import (
	"testing"

	"github.com/example/nexiatray/internal/config"
)

func TestDeriveServiceTokenIsStable(t *testing.T) {
	a := DeriveServiceToken("secret")
	b := DeriveServiceToken("  secret  ")
	if a == "" || a != b {
		t.Fatalf("expected stable token, got %q and %q", a, b)
	}
	if DeriveServiceToken("other") == a {
		t.Fatal("different secrets produced the same token")
	}
	if DeriveServiceToken("") != "" {
		t.Fatal("empty secret should produce empty token")
	}
}

func TestResolveServiceTokenPrecedence(t *testing.T) {
	prev := config.CompiledSecret
	t.Cleanup(func() { config.CompiledSecret = prev })

	config.CompiledSecret = ""
	t.Setenv("NEXIATRAY_SERVICE_TOKEN", "explicit")
	if got := ResolveServiceToken("secret"); got != "explicit" {
		t.Fatalf("expected env token, got %q", got)
	}

	t.Setenv("NEXIATRAY_SERVICE_TOKEN", "")
	if got := ResolveServiceToken("secret"); got != DeriveServiceToken("secret") {
		t.Fatalf("expected derived token, got %q", got)
	}

	config.CompiledSecret = "baked"
	t.Setenv("NEXIATRAY_SERVICE_TOKEN", "explicit")
	if got := ResolveServiceToken("secret"); got != DeriveServiceToken("baked") {
		t.Fatalf("expected compiled secret to win, got %q", got)
	}
}

func TestTokensEqual(t *testing.T) {
	if !TokensEqual("abc", "abc") {
		t.Fatal("identical tokens should match")
	}
	if TokensEqual("abc", "abd") || TokensEqual("", "") || TokensEqual("abc", "") {
		t.Fatal("mismatched or empty tokens should not match")
	}
}
