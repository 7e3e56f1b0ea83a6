// internal/domain/auth/entity.go
package auth

// Account is the single configured back-office login.
type Account struct {
	Email        string
	PasswordHash string
	Roles        []string
}
