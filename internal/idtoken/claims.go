// Package idtoken pulls identity claims out of an OIDC ID token.
//
// Signatures are NOT verified here. Callers hand over tokens they have
// already validated against the provider.
package idtoken

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"zklogin-salt/go-backend/internal/saltderive"
)

// ExtractClaims decodes rawJWT and returns its iss, aud and sub. The
// audience must name exactly one client.
func ExtractClaims(rawJWT string) (saltderive.Claims, error) {
	rawJWT = strings.TrimSpace(rawJWT)
	if rawJWT == "" {
		return saltderive.Claims{}, &saltderive.EncodingError{Field: "jwtToken", Reason: "is required"}
	}
	var registered jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(rawJWT, &registered); err != nil {
		return saltderive.Claims{}, &saltderive.EncodingError{Field: "jwtToken", Reason: "cannot be decoded"}
	}
	if registered.Issuer == "" {
		return saltderive.Claims{}, &saltderive.EncodingError{Field: "iss", Reason: "is missing from token"}
	}
	if registered.Subject == "" {
		return saltderive.Claims{}, &saltderive.EncodingError{Field: "sub", Reason: "is missing from token"}
	}
	switch len(registered.Audience) {
	case 0:
		return saltderive.Claims{}, &saltderive.EncodingError{Field: "aud", Reason: "is missing from token"}
	case 1:
	default:
		return saltderive.Claims{}, &saltderive.EncodingError{Field: "aud", Reason: "must name a single audience"}
	}
	return saltderive.Claims{
		Issuer:   registered.Issuer,
		Audience: registered.Audience[0],
		Subject:  registered.Subject,
	}, nil
}
