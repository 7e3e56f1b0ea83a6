// internal/service/auth/admin_create.go
package auth

import (
	"fmt"
	"strings"

	"showroom-service/internal/domain/auth"
	"showroom-service/internal/pkg/jwt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// BootstrapAccount builds the back-office account from configuration
// (called on startup). A plain password is hashed in memory; an empty
// email disables login and returns nil.
func BootstrapAccount(email, password, passwordHash string, logger *zap.Logger) (*auth.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		logger.Warn("ADMIN_EMAIL not set, back-office login disabled")
		return nil, nil
	}

	if passwordHash == "" {
		if password == "" {
			return nil, fmt.Errorf("admin password must be provided via ADMIN_PASSWORD_HASH or ADMIN_PASSWORD")
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		passwordHash = string(hashed)
		logger.Warn("using plain ADMIN_PASSWORD, set ADMIN_PASSWORD_HASH instead")
	} else if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, fmt.Errorf("ADMIN_PASSWORD_HASH is not a bcrypt hash: %w", err)
	}

	logger.Info("back-office account configured", zap.String("email", email))
	return &auth.Account{
		Email:        email,
		PasswordHash: passwordHash,
		Roles:        []string{jwt.RoleAdmin},
	}, nil
}
