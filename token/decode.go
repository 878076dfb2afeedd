package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is returned when a compact token string or its claims cannot
// be decoded.
var ErrMalformed = errors.New("malformed token")

// Claim names interpreted by the decoder. Everything else is preserved
// verbatim in the claim map.
const (
	claimTenants     = "tenants"
	claimPermissions = "permissions"
	claimRoles       = "roles"
)

// Decode parses a compact three-segment token string into a Token. The
// signature segment is never verified, tokens are trusted because they are
// obtained directly from the issuing service over a secure channel. Decoding
// the same string twice yields equal tokens.
func Decode(raw string) (*Token, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type", ErrMalformed)
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return nil, fmt.Errorf("%w: sub claim: %v", ErrMalformed, err)
	}
	if subject == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrMalformed)
	}

	issuer, err := claims.GetIssuer()
	if err != nil {
		return nil, fmt.Errorf("%w: iss claim: %v", ErrMalformed, err)
	}

	expiresAt, err := numericDate(claims.GetExpirationTime())
	if err != nil {
		return nil, fmt.Errorf("%w: exp claim: %v", ErrMalformed, err)
	}

	issuedAt, err := numericDate(claims.GetIssuedAt())
	if err != nil {
		return nil, fmt.Errorf("%w: iat claim: %v", ErrMalformed, err)
	}

	project, err := decodeGrant(map[string]any(claims))
	if err != nil {
		return nil, err
	}

	tenants, err := decodeTenants(claims[claimTenants])
	if err != nil {
		return nil, err
	}

	return &Token{
		raw:       raw,
		entityID:  subject,
		issuer:    issuer,
		issuedAt:  issuedAt,
		expiresAt: expiresAt,
		claims:    claims,
		project:   project,
		tenants:   tenants,
	}, nil
}

// numericDate unwraps an optional jwt numeric date into a time, with the zero
// time standing in for absence.
func numericDate(date *jwt.NumericDate, err error) (time.Time, error) {
	if err != nil {
		return time.Time{}, err
	}
	if date == nil {
		return time.Time{}, nil
	}
	return date.Time, nil
}

// decodeTenants parses the nested per-tenant authorization claim. An absent
// claim yields an empty map, anything other than an object of objects is a
// decode error.
func decodeTenants(value any) (map[string]grant, error) {
	tenants := map[string]grant{}
	if value == nil {
		return tenants, nil
	}

	entries, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: tenants claim is not an object", ErrMalformed)
	}

	for id, entry := range entries {
		fields, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: tenant %q is not an object", ErrMalformed, id)
		}
		g, err := decodeGrant(fields)
		if err != nil {
			return nil, fmt.Errorf("tenant %q: %w", id, err)
		}
		tenants[id] = g
	}

	return tenants, nil
}

// decodeGrant extracts the permissions and roles lists from a claim object.
func decodeGrant(fields map[string]any) (grant, error) {
	permissions, err := stringList(fields[claimPermissions])
	if err != nil {
		return grant{}, fmt.Errorf("%w: permissions claim: %v", ErrMalformed, err)
	}

	roles, err := stringList(fields[claimRoles])
	if err != nil {
		return grant{}, fmt.Errorf("%w: roles claim: %v", ErrMalformed, err)
	}

	return grant{permissions: permissions, roles: roles}, nil
}

func stringList(value any) ([]string, error) {
	if value == nil {
		return nil, nil
	}

	items, ok := value.([]any)
	if !ok {
		return nil, errors.New("not a list")
	}

	list := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, errors.New("not a list of strings")
		}
		list = append(list, s)
	}

	return list, nil
}
