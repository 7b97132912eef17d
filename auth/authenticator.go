package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/mealplan-server/internal/events"
	apperrors "github.com/jrsteele09/mealplan-server/internal/errors"
	"github.com/jrsteele09/mealplan-server/token"
	"github.com/jrsteele09/mealplan-server/token/refresh"
	"github.com/jrsteele09/mealplan-server/users"
	"github.com/rs/zerolog"
)

const defaultStoreTimeout = 2 * time.Second

// errPanic marks a recovered panic from a store or lookup call
var errPanic = errors.New("panic in session dependency")

// TokenPair is what a client receives at login and on every rotation
type TokenPair struct {
	Access           token.AccessToken
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Outcome is the result of authenticating one request. Exactly one of Code
// or Identity is meaningful: an empty Code means the identity is attached.
// Rotated is set when a refresh happened and the client must be given the new
// pair. ClearCookies asks the transport to expire both session cookies.
type Outcome struct {
	Identity     users.Identity
	Code         Code
	Rotated      *TokenPair
	ClearCookies bool
}

// Attached reports whether the request may proceed as Identity
func (o Outcome) Attached() bool {
	return o.Code == ""
}

func deny(code Code) Outcome {
	return Outcome{Code: code}
}

func denyAndClear(code Code) Outcome {
	return Outcome{Code: code, ClearCookies: true}
}

// Deps holds the collaborators of the Authenticator
type Deps struct {
	Codec       *token.Codec
	Refresh     *refresh.Manager
	Identities  users.IdentityLookup
	Credentials users.CredentialChecker // only needed by Login
}

// Authenticator runs the session state machine: verify the access token,
// rotate the refresh token when the access token has expired, and resolve the
// current identity.
type Authenticator struct {
	deps         Deps
	logger       zerolog.Logger
	publisher    events.Publisher
	storeTimeout time.Duration
	nowFunc      func() time.Time
}

type AuthenticatorOption func(*Authenticator)

func WithLogger(logger zerolog.Logger) AuthenticatorOption {
	return func(a *Authenticator) {
		a.logger = logger
	}
}

func WithPublisher(p events.Publisher) AuthenticatorOption {
	return func(a *Authenticator) {
		a.publisher = p
	}
}

// WithStoreTimeout bounds every store and lookup call
func WithStoreTimeout(d time.Duration) AuthenticatorOption {
	return func(a *Authenticator) {
		a.storeTimeout = d
	}
}

func WithNowFunc(now func() time.Time) AuthenticatorOption {
	return func(a *Authenticator) {
		a.nowFunc = now
	}
}

func NewAuthenticator(deps Deps, options ...AuthenticatorOption) (*Authenticator, error) {
	if deps.Codec == nil {
		return nil, errors.New("[NewAuthenticator] token codec is required")
	}
	if deps.Refresh == nil {
		return nil, errors.New("[NewAuthenticator] refresh manager is required")
	}
	if deps.Identities == nil {
		return nil, errors.New("[NewAuthenticator] identity lookup is required")
	}

	a := &Authenticator{
		deps:         deps,
		logger:       zerolog.Nop(),
		publisher:    events.Nop,
		storeTimeout: defaultStoreTimeout,
		nowFunc:      time.Now,
	}
	for _, opt := range options {
		opt(a)
	}
	if a.storeTimeout <= 0 {
		a.storeTimeout = defaultStoreTimeout
	}
	return a, nil
}

// Authenticate decides what a request with the given credentials is allowed to
// be. It never panics and never returns an error; every failure is a Code.
func (a *Authenticator) Authenticate(ctx context.Context, creds Credentials) (out Outcome) {
	refreshing := false
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error().Interface("panic", r).Msg("session authentication panicked")
			out = Outcome{Code: CodeAuthFailed, ClearCookies: refreshing}
		}
	}()

	if creds.AccessToken == "" {
		return deny(CodeNoToken)
	}

	claimed, err := a.deps.Codec.Verify(creds.AccessToken)
	if err != nil {
		kind, ok := token.KindOf(err)
		switch {
		case !ok:
			a.logger.Error().Err(err).Msg("access token verification failed")
			return deny(CodeAuthFailed)
		case kind == token.Expired:
			refreshing = true
			return a.refreshFlow(ctx, creds.RefreshToken)
		default:
			a.logger.Debug().Stringer("kind", kind).Msg("access token rejected")
			return deny(CodeInvalidToken)
		}
	}

	current, err := a.lookup(ctx, claimed.ID)
	if err != nil {
		a.logger.Error().Err(err).Str("subject_id", claimed.ID).Msg("identity lookup failed")
		return deny(CodeAuthFailed)
	}
	if current == nil {
		return deny(CodeInvalidSession)
	}
	if current.Role != claimed.Role {
		a.logger.Info().
			Err(apperrors.ErrRoleChanged).
			Str("subject_id", current.ID).
			Stringer("token_role", claimed.Role).
			Stringer("current_role", current.Role).
			Msg("access token rejected")
		return deny(CodeInvalidSession)
	}
	return Outcome{Identity: *current}
}

// refreshFlow exchanges the refresh token for a new pair. The old record is
// gone as soon as Consume returns it, so every failure past that point clears
// the client's cookies.
func (a *Authenticator) refreshFlow(ctx context.Context, rawRefresh string) Outcome {
	if rawRefresh == "" {
		return deny(CodeSessionExpired)
	}

	rec, err := callWithTimeout(ctx, a.storeTimeout, func(ctx context.Context) (*refresh.Record, error) {
		return a.deps.Refresh.Consume(ctx, rawRefresh)
	})
	if err != nil {
		return a.refreshFailed(err, "refresh token consume failed")
	}
	if rec == nil {
		a.publish(ctx, events.New(events.SessionRefreshRejected, "", a.nowFunc()).WithCode(string(CodeRefreshTokenExpired)))
		return denyAndClear(CodeRefreshTokenExpired)
	}

	current, err := a.lookup(ctx, rec.SubjectID)
	if err != nil {
		return a.refreshFailed(err, "identity lookup failed during refresh")
	}
	if current == nil {
		a.publish(ctx, events.New(events.SessionRefreshRejected, rec.SubjectID, a.nowFunc()).WithCode(string(CodeInvalidSession)))
		return denyAndClear(CodeInvalidSession)
	}

	pair, err := a.IssueSession(ctx, *current)
	if err != nil {
		return a.refreshFailed(err, "session reissue failed")
	}
	a.publish(ctx, events.New(events.SessionRotated, current.ID, a.nowFunc()))
	return Outcome{Identity: *current, Rotated: &pair}
}

func (a *Authenticator) refreshFailed(err error, msg string) Outcome {
	a.logger.Error().Err(err).Msg(msg)
	if errors.Is(err, apperrors.ErrStoreTimeout) || errors.Is(err, errPanic) {
		return denyAndClear(CodeAuthFailed)
	}
	return denyAndClear(CodeSessionExpired)
}

// IssueSession mints a new access token and stores a new refresh token
func (a *Authenticator) IssueSession(ctx context.Context, identity users.Identity) (TokenPair, error) {
	access, err := a.deps.Codec.Issue(identity)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	rec, err := callWithTimeout(ctx, a.storeTimeout, func(ctx context.Context) (*refresh.Record, error) {
		return a.deps.Refresh.Create(ctx, identity.ID)
	})
	if err != nil {
		return TokenPair{}, fmt.Errorf("create refresh token: %w", err)
	}
	return TokenPair{
		Access:           access,
		RefreshToken:     rec.Token,
		RefreshExpiresAt: rec.ExpiresAt,
	}, nil
}

// Login checks credentials and starts a session. Bad credentials return
// errors.ErrInvalidCredentials.
func (a *Authenticator) Login(ctx context.Context, email, password string) (users.Identity, TokenPair, error) {
	if a.deps.Credentials == nil {
		return users.Identity{}, TokenPair{}, apperrors.Wrapf(apperrors.ErrStoreNotConfigured, "credential checker")
	}
	identity, err := callWithTimeout(ctx, a.storeTimeout, func(ctx context.Context) (*users.Identity, error) {
		return a.deps.Credentials.CheckCredentials(ctx, email, password)
	})
	if err != nil {
		return users.Identity{}, TokenPair{}, err
	}
	if identity == nil {
		return users.Identity{}, TokenPair{}, apperrors.ErrInvalidCredentials
	}

	pair, err := a.IssueSession(ctx, *identity)
	if err != nil {
		return users.Identity{}, TokenPair{}, err
	}
	a.publish(ctx, events.New(events.SessionLogin, identity.ID, a.nowFunc()))
	return *identity, pair, nil
}

// Logout deletes the refresh token. The access token stays valid until it
// expires. The logout event names the subject the refresh token belonged to.
func (a *Authenticator) Logout(ctx context.Context, rawRefresh string) error {
	if rawRefresh == "" {
		return nil
	}
	rec, err := callWithTimeout(ctx, a.storeTimeout, func(ctx context.Context) (*refresh.Record, error) {
		return a.deps.Refresh.Consume(ctx, rawRefresh)
	})
	if err != nil {
		return fmt.Errorf("consume refresh token: %w", err)
	}
	if rec == nil {
		// Unknown or expired; an expired record is still removed
		_, err := callWithTimeout(ctx, a.storeTimeout, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, a.deps.Refresh.Delete(ctx, rawRefresh)
		})
		if err != nil {
			return fmt.Errorf("delete refresh token: %w", err)
		}
		return nil
	}
	a.publish(ctx, events.New(events.SessionLogout, rec.SubjectID, a.nowFunc()))
	return nil
}

func (a *Authenticator) lookup(ctx context.Context, subjectID string) (*users.Identity, error) {
	return callWithTimeout(ctx, a.storeTimeout, func(ctx context.Context) (*users.Identity, error) {
		return a.deps.Identities.GetIdentity(ctx, subjectID)
	})
}

func (a *Authenticator) publish(ctx context.Context, ev events.Event) {
	if err := a.publisher.Publish(ctx, ev); err != nil {
		a.logger.Warn().Err(err).Str("event", string(ev.Type)).Msg("security event not published")
	}
}

// callWithTimeout runs fn with a deadline and stops waiting when it passes,
// even if fn ignores its context. Panics in fn come back as errPanic.
func callWithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("%w: %v", errPanic, r)}
			}
		}()
		v, err := fn(ctx)
		done <- result{value: v, err: err}
	}()

	var zero T
	select {
	case r := <-done:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) {
			return zero, apperrors.Wrapf(apperrors.ErrStoreTimeout, "%v", r.err)
		}
		return r.value, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, apperrors.Wrapf(apperrors.ErrStoreTimeout, "after %s", d)
		}
		return zero, ctx.Err()
	}
}
