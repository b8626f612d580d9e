package auth

import (
	"github.com/Pradumn88/lms-college-site-sub000/internal/app/http/middleware"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/users"
)

func issueAppJWT(secret string, user users.User) (string, error) {
	return middleware.IssueToken(secret, user.ID, user.Email, user.Role)
}

func isPasswordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLetter := false
	hasDigit := false
	for _, c := range password {
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
			hasLetter = true
		case '0' <= c && c <= '9':
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}
