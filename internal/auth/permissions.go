package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin - роль с правом изменять дела
const RoleAdmin = "admin"

// Claims - claims ID-токена, которые нас интересуют.
// Role/Roles покрывают оба варианта, которые отдают провайдеры (строка или массив).
type Claims struct {
	jwt.RegisteredClaims
	Email         string   `json:"email,omitempty"`
	EmailVerified bool     `json:"email_verified,omitempty"`
	Admin         bool     `json:"admin,omitempty"`
	Role          string   `json:"role,omitempty"`
	Roles         []string `json:"roles,omitempty"`
}

// AdminPolicy решает, является ли владелец токена администратором.
type AdminPolicy struct {
	emails map[string]struct{}
}

// NewAdminPolicy builds a policy; adminEmails are matched case-insensitively.
func NewAdminPolicy(adminEmails []string) AdminPolicy {
	emails := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			emails[e] = struct{}{}
		}
	}
	return AdminPolicy{emails: emails}
}

// IsAdmin: boolean admin claim, role/roles содержит admin, или подтверждённый
// email в списке. Неподтверждённый адрес может зарегистрировать кто угодно.
func (p AdminPolicy) IsAdmin(claims *Claims) bool {
	if claims.Admin {
		return true
	}
	if strings.EqualFold(claims.Role, RoleAdmin) {
		return true
	}
	for _, r := range claims.Roles {
		if strings.EqualFold(r, RoleAdmin) {
			return true
		}
	}
	if claims.Email != "" && claims.EmailVerified {
		_, ok := p.emails[strings.ToLower(claims.Email)]
		return ok
	}
	return false
}

func (p AdminPolicy) identity(claims *Claims) (*Identity, error) {
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{
		UID:   claims.Subject,
		Email: claims.Email,
		Admin: p.IsAdmin(claims),
	}, nil
}
