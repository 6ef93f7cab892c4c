package authn

import "testing"

func TestParseBearer(t *testing.T) {
	tok, ok := ParseBearer("Bearer ses_live_abc123")
	if !ok || tok != "ses_live_abc123" {
		t.Fatalf("expected parsed bearer token, got ok=%v token=%q", ok, tok)
	}

	if _, ok := ParseBearer("ses_live_abc123"); ok {
		t.Fatal("expected parse failure without Bearer prefix")
	}
	if _, ok := ParseBearer(""); ok {
		t.Fatal("expected parse failure for empty header")
	}
	if _, ok := ParseBearer("Bearer "); ok {
		t.Fatal("expected parse failure for empty token")
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	a := HashToken("token-1")
	b := HashToken("token-1")
	c := HashToken("token-2")
	if a != b {
		t.Fatal("expected deterministic hash")
	}
	if a == c {
		t.Fatal("expected different hashes for different tokens")
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256, got length %d", len(a))
	}
}

func TestRandomTokenShape(t *testing.T) {
	a := randomToken()
	b := randomToken()
	if len(a) != 32 {
		t.Fatalf("expected 32 hex chars, got %d", len(a))
	}
	if a == b {
		t.Fatal("expected distinct tokens")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := normalizeEmail("  Owner@Test.com "); got != "owner@test.com" {
		t.Fatalf("unexpected normalized email: %q", got)
	}
}
