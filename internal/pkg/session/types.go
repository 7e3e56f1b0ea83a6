// internal/pkg/session/types.go
package session

import "time"

// SessionData is the server-side record of an issued access token.
type SessionData struct {
	JTI            string    `json:"jti"`
	Subject        string    `json:"subject"`
	Email          string    `json:"email"`
	Roles          []string  `json:"roles"`
	Device         string    `json:"device,omitempty"`
	IPAddress      string    `json:"ip_address"`
	UserAgent      string    `json:"user_agent"`
	LoginAt        time.Time `json:"login_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}
