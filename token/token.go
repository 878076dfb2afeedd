package token

import (
	"crypto/sha256"
	"sort"
	"time"

	"github.com/mr-tron/base58"
)

// Token is an immutable view over a decoded compact JWT. It exposes the
// well-known claims plus tenant-scoped authorization data, and keeps the
// original compact string as the authoritative representation.
type Token struct {
	raw       string
	entityID  string
	issuer    string
	issuedAt  time.Time
	expiresAt time.Time
	claims    map[string]any
	project   grant
	tenants   map[string]grant
}

// grant holds the permissions and roles for one authorization scope.
type grant struct {
	permissions []string
	roles       []string
}

// Raw returns the original compact token string.
func (t *Token) Raw() string {
	return t.raw
}

// EntityID returns the subject identifier the token was issued for.
func (t *Token) EntityID() string {
	return t.entityID
}

// Issuer returns the iss claim, if present.
func (t *Token) Issuer() string {
	return t.issuer
}

// IssuedAt returns the iat claim, or the zero time when absent.
func (t *Token) IssuedAt() time.Time {
	return t.issuedAt
}

// ExpiresAt returns the exp claim, or the zero time when the token does not
// expire.
func (t *Token) ExpiresAt() time.Time {
	return t.expiresAt
}

// Claims returns the full decoded claim map, including custom claims that
// sessionkit does not interpret. Callers must treat the map as read-only.
func (t *Token) Claims() map[string]any {
	return t.claims
}

// Expired reports whether the token has expired at the given time. Tokens
// without an exp claim never expire.
func (t *Token) Expired(now time.Time) bool {
	if t.expiresAt.IsZero() {
		return false
	}
	return !t.expiresAt.After(now)
}

// ExpiresWithin reports whether the token expires within the given window of
// now. Tokens without an exp claim never enter the window.
func (t *Token) ExpiresWithin(now time.Time, window time.Duration) bool {
	if t.expiresAt.IsZero() {
		return false
	}
	return !t.expiresAt.After(now.Add(window))
}

// Permissions returns the permission set for the given tenant, or the
// project-wide set when tenant is empty. Tenant-scoped and project-wide
// authorization are fully separate, they are never merged.
func (t *Token) Permissions(tenant string) []string {
	return t.scope(tenant).permissions
}

// Roles returns the role set for the given tenant, or the project-wide set
// when tenant is empty.
func (t *Token) Roles(tenant string) []string {
	return t.scope(tenant).roles
}

// Tenants returns the sorted list of tenants the token carries authorization
// for. The project-wide scope is not included.
func (t *Token) Tenants() []string {
	tenants := make([]string, 0, len(t.tenants))
	for tenant := range t.tenants {
		tenants = append(tenants, tenant)
	}
	sort.Strings(tenants)
	return tenants
}

// HasPermission reports whether the token grants the permission in the given
// tenant scope (project-wide when tenant is empty).
func (t *Token) HasPermission(permission string, tenant string) bool {
	return contains(t.scope(tenant).permissions, permission)
}

// HasRole reports whether the token grants the role in the given tenant scope
// (project-wide when tenant is empty).
func (t *Token) HasRole(role string, tenant string) bool {
	return contains(t.scope(tenant).roles, role)
}

// Equal reports whether two tokens share the same compact string. The wire
// representation is authoritative, derived claims are not compared.
func (t *Token) Equal(other *Token) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.raw == other.raw
}

// Fingerprint returns a short base58-encoded SHA-256 digest of the compact
// string, safe to put in log fields where the token itself must not appear.
func (t *Token) Fingerprint() string {
	hash := sha256.Sum256([]byte(t.raw))
	fp := base58.Encode(hash[:])
	if len(fp) > 12 {
		fp = fp[:12]
	}
	return fp
}

func (t *Token) scope(tenant string) grant {
	if tenant == "" {
		return t.project
	}
	return t.tenants[tenant]
}

func contains(set []string, want string) bool {
	for _, s := range set {
		if s == want {
			return true
		}
	}
	return false
}
