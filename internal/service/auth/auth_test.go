// file: internal/service/auth/auth_test.go

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"GridBridge/internal/adapter/sysdb"
	"GridBridge/internal/conf"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef-test"

func newTestService(t *testing.T, ttl time.Duration) *Service {
	t.Helper()
	db, err := sysdb.Open(filepath.Join(t.TempDir(), "system.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = sysdb.Migrate(db)
	require.NoError(t, err)

	svc, err := New(db, testSecret, ttl)
	require.NoError(t, err)
	return svc
}

func TestCreateAndCheckUser(t *testing.T) {
	svc := newTestService(t, time.Hour)
	ctx := context.Background()
	assert.Zero(t, svc.UserCount(ctx))

	id, err := svc.CreateUser(ctx, "ann", "s3cret", RoleEditor)
	require.NoError(t, err)
	assert.Equal(t, 1, svc.UserCount(ctx))

	gotID, role, ok := svc.CheckUser(ctx, "ann", "s3cret")
	assert.True(t, ok)
	assert.Equal(t, id, gotID)
	assert.Equal(t, RoleEditor, role)

	_, _, ok = svc.CheckUser(ctx, "ann", "wrong")
	assert.False(t, ok)
	_, _, ok = svc.CheckUser(ctx, "nobody", "s3cret")
	assert.False(t, ok)

	_, err = svc.CreateUser(ctx, "bob", "pw", "root")
	assert.Error(t, err)
	_, err = svc.CreateUser(ctx, "", "pw", RoleViewer)
	assert.Error(t, err)
}

func TestSeedUsers(t *testing.T) {
	svc := newTestService(t, time.Hour)
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)

	err = svc.SeedUsers(ctx, []conf.UserConfig{
		{Name: "root", PasswordHash: string(hash), Role: RoleAdmin},
		{Name: "broken", PasswordHash: "plain-text", Role: RoleViewer},
	})
	assert.ErrorContains(t, err, "broken")

	_, role, ok := svc.CheckUser(ctx, "root", "pw")
	require.True(t, ok)
	assert.Equal(t, RoleAdmin, role)

	// 重复同步时覆盖角色
	require.NoError(t, svc.SeedUsers(ctx, []conf.UserConfig{{Name: "root", PasswordHash: string(hash), Role: RoleViewer}}))
	_, role, _ = svc.CheckUser(ctx, "root", "pw")
	assert.Equal(t, RoleViewer, role)
	assert.Equal(t, 1, svc.UserCount(ctx))
}

func TestToken_RoundTrip(t *testing.T) {
	svc := newTestService(t, time.Hour)
	token, err := svc.GenToken(7, RoleEditor)
	require.NoError(t, err)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.ID)
	assert.True(t, claims.CanWrite())

	other, err := New(svc.db, "another-secret-value", time.Hour)
	require.NoError(t, err)
	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestToken_Expired(t *testing.T) {
	svc := newTestService(t, time.Hour)
	svc.ttl = -time.Minute
	token, err := svc.GenToken(1, RoleViewer)
	require.NoError(t, err)

	_, err = svc.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorContains(t, err, "expired")
}

func TestMiddleware(t *testing.T) {
	svc := newTestService(t, time.Hour)
	ctx := context.Background()
	id, err := svc.CreateUser(ctx, "ann", "pw", RoleViewer)
	require.NoError(t, err)
	valid, err := svc.GenToken(id, RoleViewer)
	require.NoError(t, err)
	ghost, err := svc.GenToken(999, RoleAdmin)
	require.NoError(t, err)

	var seen *Claim
	handler := svc.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClaimFrom(r.Context())
	}))

	cases := map[string]struct {
		header string
		want   bool
	}{
		"有效令牌":  {"Bearer " + valid, true},
		"无令牌":   {"", false},
		"用户不存在": {"Bearer " + ghost, false},
		"格式错误":  {"Token " + valid, false},
		"伪造令牌":  {"Bearer abc.def.ghi", false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tc.want, seen != nil)
		})
	}
}
