package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/notify"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
)

type welcomes struct {
	mu   sync.Mutex
	sent []notify.UserRegistered
}

func (w *welcomes) UserRegistered(_ context.Context, m notify.UserRegistered) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sent = append(w.sent, m)
}

func newService(t *testing.T) (*Service, *welcomes) {
	t.Helper()
	n := &welcomes{}
	svc := NewService(repository.NewMemory(), NewTokens("test-secret", time.Hour), n, nil)
	svc.cost = bcrypt.MinCost
	return svc, n
}

func registration() model.RegisterUserRequest {
	return model.RegisterUserRequest{
		Username: "priya",
		Email:    " Priya@Example.com ",
		Password: "hunter22",
		FullName: "Priya Nair",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, n := newService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, registration())
	require.NoError(t, err)
	assert.Equal(t, model.RoleAttendee, session.User.Role)
	assert.Equal(t, "priya@example.com", session.User.Email)
	assert.NotEqual(t, "hunter22", session.User.PasswordHash)
	assert.NotEmpty(t, session.Token)

	require.Len(t, n.sent, 1)
	assert.Equal(t, "priya@example.com", n.sent[0].User.Email)

	claims, err := svc.tokens.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)
	assert.Equal(t, model.RoleAttendee, claims.Role)

	login, err := svc.Login(ctx, model.LoginRequest{Username: "priya", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, login.User.ID)

	_, err = svc.Login(ctx, model.LoginRequest{Username: "priya", Password: "wrong-pass"})
	assert.ErrorIs(t, err, model.ErrUnauthorized)
	_, err = svc.Login(ctx, model.LoginRequest{Username: "nobody", Password: "hunter22"})
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	me, err := svc.Me(ctx, session.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "priya", me.Username)
}

func TestRegisterRejects(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, registration())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(r *model.RegisterUserRequest)
		check  func(t *testing.T, err error)
	}{
		{"duplicate username", func(r *model.RegisterUserRequest) { r.Email = "other@example.com" }, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, model.ErrConflict)
		}},
		{"duplicate email", func(r *model.RegisterUserRequest) { r.Username = "priya2" }, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, model.ErrConflict)
		}},
		{"admin self-assigned", func(r *model.RegisterUserRequest) { r.Username = "root"; r.Role = model.RoleAdmin }, func(t *testing.T, err error) {
			assert.True(t, model.IsValidation(err))
		}},
		{"short password", func(r *model.RegisterUserRequest) { r.Username = "neha"; r.Password = "abc" }, func(t *testing.T, err error) {
			assert.True(t, model.IsValidation(err))
		}},
		{"bad email", func(r *model.RegisterUserRequest) { r.Username = "neha"; r.Email = "neha" }, func(t *testing.T, err error) {
			assert.True(t, model.IsValidation(err))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := registration()
			tt.mutate(&req)
			_, err := svc.Register(ctx, req)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestTokens(t *testing.T) {
	tokens := NewTokens("secret-a", time.Minute)
	u := &model.User{ID: "u-1", Email: "a@example.com", Role: model.RoleOrganizer}

	raw, err := tokens.Issue(u)
	require.NoError(t, err)

	_, err = NewTokens("secret-b", time.Minute).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	tokens.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = tokens.Parse(raw)
	assert.ErrorIs(t, err, ErrTokenExpired)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "u-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = NewTokens("secret-a", time.Minute).Parse(none)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	organizer, err := tokens.Issue(&model.User{ID: "org-1", Role: model.RoleOrganizer})
	require.NoError(t, err)
	attendee, err := tokens.Issue(&model.User{ID: "user-1", Role: model.RoleAttendee})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(Authenticate(tokens))
	r.With(RequireRole(model.RoleOrganizer, model.RoleAdmin)).Get("/organizer", func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(id.UserID))
	})

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"no header", "", http.StatusUnauthorized, "MISSING_TOKEN"},
		{"not bearer", "Basic abc", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"garbage", "Bearer not.a.token", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"wrong role", "Bearer " + attendee, http.StatusForbidden, "FORBIDDEN"},
		{"allowed", "Bearer " + organizer, http.StatusOK, "org-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/organizer", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}
