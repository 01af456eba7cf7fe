// Package auth verifies relay credentials.
package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenRequired is returned for an empty credential.
	ErrTokenRequired = errors.New("token required")
	// ErrTokenInvalid is returned for malformed or badly signed credentials.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrSubjectMissing is returned when a valid token carries no user id.
	ErrSubjectMissing = errors.New("token has no user id")
)

// Verifier checks HS256 tokens against a shared secret.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier creates a verifier for tokens signed with secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// Claims is the token payload issued by the login service.
type Claims struct {
	jwt.RegisteredClaims
	UserID SubjectID `json:"userId"`
}

// SubjectID decodes a user id given either as a JSON number or a numeric string.
type SubjectID struct {
	Value int64
	Set   bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *SubjectID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = SubjectID{}
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*s = SubjectID{}
			return nil
		}
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("user id %q is not an integer", raw)
	}
	*s = SubjectID{Value: v, Set: true}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s SubjectID) MarshalJSON() ([]byte, error) {
	if !s.Set {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, s.Value, 10), nil
}

// Verify checks the signature of token and returns its user id.
// It never contacts another service.
func (v *Verifier) Verify(token string) (int64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, ErrTokenRequired
	}
	var claims Claims
	if _, err := v.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !claims.UserID.Set {
		return 0, ErrSubjectMissing
	}
	return claims.UserID.Value, nil
}

// Sign issues a token for userID. The relay never issues tokens itself; this
// exists for tooling and tests that need a credential the verifier accepts.
func (v *Verifier) Sign(userID int64, registered jwt.RegisteredClaims) (string, error) {
	claims := Claims{
		RegisteredClaims: registered,
		UserID:           SubjectID{Value: userID, Set: true},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
