package auth

import "net/http"

// Code is the machine readable reason a request was denied
type Code string

const (
	CodeNoToken             Code = "NO_TOKEN"
	CodeInvalidSession      Code = "INVALID_SESSION"
	CodeSessionExpired      Code = "SESSION_EXPIRED"
	CodeRefreshTokenExpired Code = "REFRESH_TOKEN_EXPIRED"
	CodeInvalidToken        Code = "INVALID_TOKEN"
	CodeAuthFailed          Code = "AUTH_FAILED"
	CodeForbidden           Code = "FORBIDDEN"
	CodeRoleRequired        Code = "ROLE_REQUIRED"
)

// Status is the HTTP status sent with the code
func (c Code) Status() int {
	switch c {
	case CodeForbidden, CodeRoleRequired:
		return http.StatusForbidden
	default:
		return http.StatusUnauthorized
	}
}

// Message is the human readable text sent with the code. It never says more
// than the code does.
func (c Code) Message() string {
	switch c {
	case CodeNoToken:
		return "Authentication required"
	case CodeInvalidSession:
		return "Session is no longer valid"
	case CodeSessionExpired:
		return "Session expired, please log in again"
	case CodeRefreshTokenExpired:
		return "Refresh token expired, please log in again"
	case CodeInvalidToken:
		return "Invalid access token"
	case CodeForbidden:
		return "Insufficient permissions"
	case CodeRoleRequired:
		return "No role configured for this route"
	default:
		return "Authentication failed"
	}
}

func (c Code) String() string {
	return string(c)
}
