package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserRole represents the roles recognised by the RBAC middleware.
type UserRole string

const (
	RoleAdmin UserRole = "ADMIN"
	RoleOwner UserRole = "OWNER"
)

// JWTClaims represents the JWT payload for access tokens. UserID is the tenant (owner) id.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// TenantScope restricts store access to the data of a single owner.
// The zero value is not valid and is rejected by every scoped store method.
type TenantScope struct {
	ownerID string
}

// NewTenantScope scopes access to ownerID. Callers must have authorised the owner first.
func NewTenantScope(ownerID string) TenantScope {
	return TenantScope{ownerID: ownerID}
}

// TenantScopeFromClaims derives the scope of an authenticated owner.
func TenantScopeFromClaims(claims *JWTClaims) (TenantScope, bool) {
	if claims == nil || claims.UserID == "" {
		return TenantScope{}, false
	}
	switch claims.Role {
	case RoleOwner, RoleAdmin:
		return TenantScope{ownerID: claims.UserID}, true
	default:
		return TenantScope{}, false
	}
}

// OwnerID returns the scoped tenant id.
func (s TenantScope) OwnerID() string {
	return s.ownerID
}

// Valid reports whether the scope was issued for a tenant.
func (s TenantScope) Valid() bool {
	return s.ownerID != ""
}
