package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload for access tokens issued by the identity service.
type JWTClaims struct {
	UserID           string   `json:"user_id"`
	Role             UserRole `json:"role"`
	Email            string   `json:"email,omitempty"`
	InstitutionID    string   `json:"institution_id"`
	IsCourseDirector bool     `json:"is_course_director"`
	jwt.RegisteredClaims
}

// EffectiveRole falls back to faculty when the token carries no role.
func (c *JWTClaims) EffectiveRole() UserRole {
	if c == nil || c.Role == "" {
		return RoleFaculty
	}
	return c.Role
}
