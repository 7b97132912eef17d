package users

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role is the single role a user holds
type Role string

const (
	RoleAdmin    Role = "admin"    // Manages trainers, customers and system data
	RoleTrainer  Role = "trainer"  // Authors meal plans and protocols for their customers
	RoleCustomer Role = "customer" // Reads the plans assigned to them
)

// AllRoles lists every valid role
var AllRoles = []Role{RoleAdmin, RoleTrainer, RoleCustomer}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTrainer, RoleCustomer:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// ParseRole converts a claim or column value into a Role
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Identity is who a request is acting as. It is immutable for the lifetime of a
// token; a role change needs a fresh login.
type Identity struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// HasAnyRole reports whether the identity holds one of roles
func (i Identity) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

type User struct {
	ID           string    `json:"id,omitempty"`         // Unique identifier for the user
	Email        string    `json:"email,omitempty"`      // User's email address
	PasswordHash string    `json:"-"`                    // Hashed version of the user's password - never serialize
	FirstName    string    `json:"first_name,omitempty"` // First name of the user
	LastName     string    `json:"last_name,omitempty"`  // Last name of the user
	Role         Role      `json:"role,omitempty"`
	DateJoined   time.Time `json:"date_joined,omitempty"`
	Disabled     bool      `json:"disabled,omitempty"` // Disabled accounts keep their row but cannot hold a session
}

// Identity returns the session identity for the user
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Role: u.Role}
}

func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, bcrypt.DefaultCost)
}

func HashPasswordWithCost(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

// NewDummyHash returns a hash, at the given cost, of a password no account uses.
// Checking a password against it costs as much as checking a real account.
func NewDummyHash(cost int) string {
	hash, err := HashPasswordWithCost("mealplan-no-such-account", cost)
	if err != nil {
		panic(fmt.Sprintf("bcrypt dummy hash: %v", err))
	}
	return hash
}

var defaultDummyHash = sync.OnceValue(func() string {
	return NewDummyHash(bcrypt.DefaultCost)
})

// CheckPasswordMissingUser burns one default-cost bcrypt comparison so an
// unknown email takes as long as a wrong password. It always returns false.
func CheckPasswordMissingUser(password string) bool {
	CheckPasswordHash(password, defaultDummyHash())
	return false
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
