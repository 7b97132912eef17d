package fakeuserrepo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/mealplan-server/internal/errors"
	"github.com/jrsteele09/mealplan-server/users"
	"golang.org/x/crypto/bcrypt"
)

var (
	_ users.IdentityLookup    = (*FakeUserRepo)(nil)
	_ users.CredentialChecker = (*FakeUserRepo)(nil)
)

type FakeUserRepo struct {
	users        map[string]*users.User
	emailIds     map[string]string // email to user id
	lock         sync.RWMutex
	passwordCost int
	dummyHash    func() string
}

type Option func(*FakeUserRepo)

// WithPasswordCost sets the bcrypt cost used by AddUser, e.g. bcrypt.MinCost in tests
func WithPasswordCost(cost int) Option {
	return func(ur *FakeUserRepo) {
		ur.passwordCost = cost
	}
}

func NewFakeUserRepo(options ...Option) *FakeUserRepo {
	ur := &FakeUserRepo{
		users:        make(map[string]*users.User),
		emailIds:     make(map[string]string),
		passwordCost: bcrypt.DefaultCost,
	}
	for _, opt := range options {
		opt(ur)
	}
	cost := ur.passwordCost
	ur.dummyHash = sync.OnceValue(func() string { return users.NewDummyHash(cost) })
	return ur
}

func (ur *FakeUserRepo) Upsert(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if !user.Role.Valid() {
		return apperrors.Wrapf(apperrors.ErrInvalidRole, "upsert %s", user.Email)
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.DateJoined.IsZero() {
		user.DateJoined = time.Now().UTC()
	}
	stored := *user
	ur.users[user.ID] = &stored
	ur.emailIds[normaliseEmail(user.Email)] = user.ID
	return nil
}

// AddUser hashes password and stores a new user with the given role
func (ur *FakeUserRepo) AddUser(email, password string, role users.Role) (*users.User, error) {
	hash, err := users.HashPasswordWithCost(password, ur.passwordCost)
	if err != nil {
		return nil, apperrors.Wrapf(err, "hash password for %s", email)
	}
	u := &users.User{Email: email, PasswordHash: hash, Role: role}
	if err := ur.Upsert(u); err != nil {
		return nil, err
	}
	return u, nil
}

func (ur *FakeUserRepo) Delete(id string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	delete(ur.emailIds, normaliseEmail(u.Email))
	delete(ur.users, id)
	return nil
}

func (ur *FakeUserRepo) SetDisabled(id string, disabled bool) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.Disabled = disabled
	return nil
}

func (ur *FakeUserRepo) SetRole(id string, role users.Role) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.Role = role
	return nil
}

func (ur *FakeUserRepo) GetByID(id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	u, ok := ur.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (ur *FakeUserRepo) List() []*users.User {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userList := make([]*users.User, 0, len(ur.users))
	for _, v := range ur.users {
		copied := *v
		userList = append(userList, &copied)
	}
	sort.Slice(userList, func(i, j int) bool {
		return userList[i].Email < userList[j].Email
	})
	return userList
}

func (ur *FakeUserRepo) GetIdentity(ctx context.Context, subjectID string) (*users.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	u, ok := ur.users[subjectID]
	if !ok || u.Disabled {
		return nil, nil
	}
	identity := u.Identity()
	return &identity, nil
}

func (ur *FakeUserRepo) CheckCredentials(ctx context.Context, email, password string) (*users.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ur.lock.RLock()
	id, ok := ur.emailIds[normaliseEmail(email)]
	var u users.User
	if ok {
		u = *ur.users[id]
	}
	ur.lock.RUnlock()

	if !ok {
		users.CheckPasswordHash(password, ur.dummyHash())
		return nil, apperrors.ErrInvalidCredentials
	}
	if !users.CheckPasswordHash(password, u.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if u.Disabled {
		return nil, apperrors.ErrUserDisabled
	}
	identity := u.Identity()
	return &identity, nil
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
