package idtoken

import (
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"zklogin-salt/go-backend/internal/saltderive"
)

func signed(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestExtractClaimsStringAudience(t *testing.T) {
	token := signed(t, jwt.MapClaims{
		"iss":   "https://accounts.example.com",
		"aud":   "client123",
		"sub":   "user456",
		"nonce": "ignored",
	})
	got, err := ExtractClaims(token)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := saltderive.Claims{Issuer: "https://accounts.example.com", Audience: "client123", Subject: "user456"}
	if got != want {
		t.Fatalf("claims = %+v, want %+v", got, want)
	}
}

func TestExtractClaimsSingleElementAudienceArray(t *testing.T) {
	token := signed(t, jwt.RegisteredClaims{
		Issuer:   "https://accounts.example.com",
		Audience: jwt.ClaimStrings{"client123"},
		Subject:  "user456",
	})
	got, err := ExtractClaims(token)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got.Audience != "client123" {
		t.Fatalf("unexpected audience %q", got.Audience)
	}
}

func TestExtractClaimsIgnoresExpiry(t *testing.T) {
	token := signed(t, jwt.MapClaims{
		"iss": "https://accounts.example.com",
		"aud": "client123",
		"sub": "user456",
		"exp": 1,
	})
	if _, err := ExtractClaims(token); err != nil {
		t.Fatalf("expected expired token claims to be extracted, got %v", err)
	}
}

func TestExtractClaimsRejectsMalformed(t *testing.T) {
	cases := []struct {
		name  string
		token string
		field string
	}{
		{"empty", "", "jwtToken"},
		{"garbage", "not-a-jwt", "jwtToken"},
		{"missing iss", signed(t, jwt.MapClaims{"aud": "a", "sub": "s"}), "iss"},
		{"missing sub", signed(t, jwt.MapClaims{"iss": "i", "aud": "a"}), "sub"},
		{"missing aud", signed(t, jwt.MapClaims{"iss": "i", "sub": "s"}), "aud"},
		{"multiple aud", signed(t, jwt.MapClaims{"iss": "i", "aud": []string{"a", "b"}, "sub": "s"}), "aud"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ExtractClaims(tc.token)
			var encErr *saltderive.EncodingError
			if !errors.As(err, &encErr) {
				t.Fatalf("expected EncodingError, got %v", err)
			}
			if encErr.Field != tc.field {
				t.Fatalf("field = %q, want %q", encErr.Field, tc.field)
			}
		})
	}
}
