package token_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/mealplan-server/token"
	"github.com/jrsteele09/mealplan-server/users"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testFixture struct {
	now   time.Time
	codec *token.Codec
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	signer, err := token.NewHMACSigner(testSecret)
	require.NoError(t, err)

	f := &testFixture{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	f.codec = token.NewCodec(signer, token.WithNowFunc(func() time.Time { return f.now }))
	return f
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	f := setupTestFixture(t)

	for _, role := range users.AllRoles {
		identity := users.Identity{ID: "user-" + string(role), Role: role}
		at, err := f.codec.Issue(identity)
		require.NoError(t, err)
		require.Equal(t, f.now, at.IssuedAt)
		require.Equal(t, f.now.Add(15*time.Minute), at.ExpiresAt)

		got, err := f.codec.Verify(at.Value)
		require.NoError(t, err)
		require.Equal(t, identity, got)
	}
}

func TestIssueIsDeterministic(t *testing.T) {
	f := setupTestFixture(t)
	identity := users.Identity{ID: "u1", Role: users.RoleTrainer}

	a, err := f.codec.Issue(identity)
	require.NoError(t, err)
	b, err := f.codec.Issue(identity)
	require.NoError(t, err)
	require.Equal(t, a.Value, b.Value)
}

func TestIssueRejectsBadIdentity(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.codec.Issue(users.Identity{Role: users.RoleAdmin})
	require.Error(t, err)

	_, err = f.codec.Issue(users.Identity{ID: "u1", Role: "owner"})
	require.Error(t, err)
}

func TestVerifyExpired(t *testing.T) {
	f := setupTestFixture(t)
	at, err := f.codec.Issue(users.Identity{ID: "u1", Role: users.RoleCustomer})
	require.NoError(t, err)

	f.now = f.now.Add(14 * time.Minute)
	_, err = f.codec.Verify(at.Value)
	require.NoError(t, err)

	f.now = f.now.Add(2 * time.Minute)
	_, err = f.codec.Verify(at.Value)
	kind, ok := token.KindOf(err)
	require.True(t, ok)
	require.Equal(t, token.Expired, kind)
}

func TestVerifyWrongSecret(t *testing.T) {
	f := setupTestFixture(t)
	at, err := f.codec.Issue(users.Identity{ID: "u1", Role: users.RoleAdmin})
	require.NoError(t, err)

	other, err := token.NewHMACSigner(strings.Repeat("z", 32))
	require.NoError(t, err)
	_, err = token.NewCodec(other, token.WithNowFunc(func() time.Time { return f.now })).Verify(at.Value)
	kind, ok := token.KindOf(err)
	require.True(t, ok)
	require.Equal(t, token.InvalidSignature, kind)
}

func TestVerifyForgedExpiredTokenIsNotExpired(t *testing.T) {
	f := setupTestFixture(t)
	other, err := token.NewHMACSigner(strings.Repeat("z", 32))
	require.NoError(t, err)
	at, err := token.NewCodec(other, token.WithNowFunc(func() time.Time { return f.now })).
		Issue(users.Identity{ID: "u1", Role: users.RoleAdmin})
	require.NoError(t, err)

	f.now = f.now.Add(time.Hour)
	_, err = f.codec.Verify(at.Value)
	kind, _ := token.KindOf(err)
	require.Equal(t, token.InvalidSignature, kind)
}

func TestVerifyMalformed(t *testing.T) {
	f := setupTestFixture(t)

	for _, raw := range []string{"", "abc.def", "abc.def.ghi", "not-a-token"} {
		_, err := f.codec.Verify(raw)
		kind, ok := token.KindOf(err)
		require.True(t, ok, raw)
		require.Equal(t, token.Malformed, kind, raw)
	}
}

func TestVerifyRejectsAlgNone(t *testing.T) {
	f := setupTestFixture(t)
	claims := token.Claims{
		Role: string(users.RoleAdmin),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(f.now),
			ExpiresAt: jwt.NewNumericDate(f.now.Add(time.Minute)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = f.codec.Verify(raw)
	kind, ok := token.KindOf(err)
	require.True(t, ok)
	require.Equal(t, token.InvalidSignature, kind)
}

func TestVerifyUnknownRoleClaim(t *testing.T) {
	f := setupTestFixture(t)
	signer, err := token.NewHMACSigner(testSecret)
	require.NoError(t, err)

	raw, err := signer.Sign(token.Claims{
		Role: "superuser",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(f.now.Add(time.Minute)),
		},
	})
	require.NoError(t, err)

	_, err = f.codec.Verify(raw)
	kind, _ := token.KindOf(err)
	require.Equal(t, token.Malformed, kind)
}

func TestNewHMACSignerRejectsShortSecret(t *testing.T) {
	_, err := token.NewHMACSigner("short")
	require.Error(t, err)
}

func TestCodecTTL(t *testing.T) {
	signer, err := token.NewHMACSigner(testSecret)
	require.NoError(t, err)

	require.Equal(t, 15*time.Minute, token.NewCodec(signer).TTL())
	require.Equal(t, 15*time.Minute, token.NewCodec(signer, token.WithTTL(0)).TTL())

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	codec := token.NewCodec(signer, token.WithTTL(5*time.Minute), token.WithNowFunc(func() time.Time { return now }))
	require.Equal(t, 5*time.Minute, codec.TTL())
	at, err := codec.Issue(users.Identity{ID: "u1", Role: users.RoleCustomer})
	require.NoError(t, err)
	require.Equal(t, now.Add(codec.TTL()), at.ExpiresAt)
}
