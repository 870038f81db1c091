package auth

import (
	"strings"
	"testing"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("expected argon2id encoding, got %s", hash)
	}
	if !VerifyPassword("correct horse battery staple", hash) {
		t.Error("expected password to verify against its own hash")
	}
	if VerifyPassword("wrong password", hash) {
		t.Error("expected wrong password to be rejected")
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	h1, err := HashPassword("same password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h2, err := HashPassword("same password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h1 == h2 {
		t.Error("expected different hashes for the same password")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	cases := []string{
		"",
		"not-a-hash",
		"$argon2id$v=19$m=65536,t=3,p=4$truncated",
		"$bcrypt$whatever",
	}
	for _, hash := range cases {
		if VerifyPassword("anything", hash) {
			t.Errorf("expected malformed hash %q to be rejected", hash)
		}
	}
}
