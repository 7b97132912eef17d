package server

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/jrsteele09/mealplan-server/internal/config"
	"github.com/jrsteele09/mealplan-server/users"
	"github.com/rs/zerolog"
)

const demoEmailDomain = "mealplan.local"

// ErrDemoUsersOutsideDev is returned when demo seeding is asked for outside DEV
var ErrDemoUsersOutsideDev = errors.New("demo users are only created in DEV")

// UserSeeder creates login accounts
type UserSeeder interface {
	AddUser(email, password string, role users.Role) (*users.User, error)
}

// SeededUser is a demo account and its generated password
type SeededUser struct {
	Email    string
	Password string
	Role     users.Role
}

// InitialiseDemoUsers creates one account per role with a random password and
// logs the credentials. Any env other than DEV is refused.
func InitialiseDemoUsers(env string, seeder UserSeeder, logger zerolog.Logger) ([]SeededUser, error) {
	if env != config.EnvDev {
		return nil, fmt.Errorf("[InitialiseDemoUsers] env %s: %w", env, ErrDemoUsersOutsideDev)
	}
	seeded := make([]SeededUser, 0, len(users.AllRoles))
	for _, role := range users.AllRoles {
		password, err := generatePassword()
		if err != nil {
			return nil, fmt.Errorf("[InitialiseDemoUsers] failed to generate password: %w", err)
		}
		email := fmt.Sprintf("%s@%s", role, demoEmailDomain)
		if _, err := seeder.AddUser(email, password, role); err != nil {
			return nil, fmt.Errorf("[InitialiseDemoUsers] failed to create %s: %w", role, err)
		}
		seeded = append(seeded, SeededUser{Email: email, Password: password, Role: role})
		logger.Info().
			Str("email", email).
			Str("password", password).
			Stringer("role", role).
			Msg("demo user created")
	}
	return seeded, nil
}

func generatePassword() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
