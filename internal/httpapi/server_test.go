package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loopyard/internal/app/loops"
	"loopyard/internal/app/posts"
	"loopyard/internal/app/tracks"
	"loopyard/internal/app/users"
	"loopyard/internal/auth"
	"loopyard/internal/store"
)

type stubUserService struct {
	register func(users.RegisterInput) (*store.User, error)
	login    func(email, password string) (auth.TokenPair, *store.User, error)
	profile  func(userID int64) (*store.User, error)
}

func (s *stubUserService) Register(_ context.Context, in users.RegisterInput) (*store.User, error) {
	return s.register(in)
}

func (s *stubUserService) Login(_ context.Context, email, password string) (auth.TokenPair, *store.User, error) {
	return s.login(email, password)
}

func (s *stubUserService) Refresh(context.Context, string) (auth.TokenPair, error) {
	return auth.TokenPair{}, nil
}

func (s *stubUserService) Profile(_ context.Context, userID int64) (*store.User, error) {
	return s.profile(userID)
}

func (s *stubUserService) UpdateProfile(context.Context, int64, users.ProfileInput) (*store.User, error) {
	return nil, nil
}

func (s *stubUserService) ChangePassword(context.Context, int64, users.ChangePasswordInput) error {
	return nil
}

func (s *stubUserService) Statistics(context.Context, int64) (*store.UserStats, error) {
	return &store.UserStats{}, nil
}

type stubLoopService struct {
	get    func(userID, id int64) (*store.MusicLoop, error)
	create func(userID int64, in loops.CreateInput) (*store.MusicLoop, error)
}

func (s *stubLoopService) Create(_ context.Context, userID int64, in loops.CreateInput) (*store.MusicLoop, error) {
	if s.create != nil {
		return s.create(userID, in)
	}
	return &store.MusicLoop{ID: 1, UserID: userID, Title: in.Title}, nil
}

func (s *stubLoopService) Update(context.Context, int64, int64, loops.UpdateInput) (*store.MusicLoop, error) {
	return nil, nil
}

func (s *stubLoopService) List(context.Context, int64, store.LoopFilter, store.Page) ([]*store.MusicLoop, int64, error) {
	return nil, 0, nil
}

func (s *stubLoopService) Browse(context.Context, store.LoopFilter, store.Page) ([]*store.MusicLoop, int64, error) {
	return nil, 0, nil
}

func (s *stubLoopService) Get(_ context.Context, userID, id int64) (*store.MusicLoop, error) {
	return s.get(userID, id)
}

func (s *stubLoopService) Delete(context.Context, int64, int64) error { return nil }

func (s *stubLoopService) Play(context.Context, int64, int64) (int64, error) { return 0, nil }

type stubTrackService struct{}

func (stubTrackService) Create(context.Context, int64, tracks.CreateInput) (*store.Track, error) {
	return nil, nil
}

func (stubTrackService) Update(context.Context, int64, int64, tracks.UpdateInput) (*store.Track, error) {
	return nil, nil
}

func (stubTrackService) List(context.Context, int64, store.TrackFilter, store.Page) ([]*store.Track, int64, error) {
	return nil, 0, nil
}

func (stubTrackService) Browse(context.Context, int64, store.TrackFilter, store.Page) ([]*store.Track, int64, error) {
	return nil, 0, nil
}

func (stubTrackService) Get(context.Context, int64, int64) (*store.Track, error) { return nil, nil }

func (stubTrackService) Delete(context.Context, int64, int64) error { return nil }

type stubPostService struct{}

func (stubPostService) Create(context.Context, int64, posts.CreateInput) (*store.Post, error) {
	return nil, nil
}

func (stubPostService) Update(context.Context, int64, int64, posts.UpdateInput) (*store.Post, error) {
	return nil, nil
}

func (stubPostService) List(context.Context, int64, store.PostFilter, store.Page) ([]*store.Post, int64, error) {
	return nil, 0, nil
}

func (stubPostService) Browse(context.Context, store.PostFilter, store.Page) ([]*store.Post, int64, error) {
	return nil, 0, nil
}

func (stubPostService) Get(context.Context, int64, int64) (*store.Post, error) { return nil, nil }

func (stubPostService) Delete(context.Context, int64, int64) error { return nil }

type stubToggleService struct {
	toggle func(userID, itemID int64) (bool, error)
	check  func(userID, itemID int64) (bool, error)
	clear  func(userID int64) (int64, error)
}

func (s *stubToggleService) Toggle(_ context.Context, userID, itemID int64) (bool, error) {
	return s.toggle(userID, itemID)
}

func (s *stubToggleService) Check(_ context.Context, userID, itemID int64) (bool, error) {
	return s.check(userID, itemID)
}

func (s *stubToggleService) Clear(_ context.Context, userID int64) (int64, error) {
	return s.clear(userID)
}

type stubFavoriteService struct {
	stubToggleService
}

func (s *stubFavoriteService) List(context.Context, int64, store.Page) ([]*store.Favorite, int64, error) {
	return []*store.Favorite{}, 0, nil
}

type stubLikeService struct {
	stubToggleService
}

func (s *stubLikeService) List(context.Context, int64, store.Page) ([]*store.TrackLike, int64, error) {
	return []*store.TrackLike{}, 0, nil
}

type testFixture struct {
	users     *stubUserService
	loops     *stubLoopService
	favorites *stubFavoriteService
	likes     *stubLikeService
	tokens    *auth.TokenManager
	handler   http.Handler
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		users:     &stubUserService{},
		loops:     &stubLoopService{},
		favorites: &stubFavoriteService{},
		likes:     &stubLikeService{},
		tokens:    auth.NewTokenManager("unit-test-secret-key", time.Hour, 24*time.Hour),
	}
	srv := New(f.users, f.loops, stubTrackService{}, stubPostService{}, f.favorites, f.likes, f.tokens)
	f.handler = srv.Routes([]string{"*"})
	return f
}

func (f *testFixture) authHeader(t *testing.T, userID int64) string {
	t.Helper()
	pair, err := f.tokens.IssuePair(userID)
	require.NoError(t, err)
	return "Bearer " + pair.Access
}

func (f *testFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/loops", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRouteWithMalformedToken(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/loops", "Bearer garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRouteRejectsRefreshToken(t *testing.T) {
	f := newFixture(t)

	pair, err := f.tokens.IssuePair(1)
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/api/v1/loops", "Bearer "+pair.Refresh, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestToggleFavoriteCreated(t *testing.T) {
	f := newFixture(t)
	f.favorites.toggle = func(userID, loopID int64) (bool, error) {
		assert.Equal(t, int64(1), userID)
		assert.Equal(t, int64(7), loopID)
		return true, nil
	}

	rec := f.do(t, http.MethodPost, "/api/v1/favorites/toggle", f.authHeader(t, 1),
		map[string]any{"loop_id": 7})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["is_favorited"])
}

func TestToggleFavoriteRemoved(t *testing.T) {
	f := newFixture(t)
	f.favorites.toggle = func(int64, int64) (bool, error) { return false, nil }

	rec := f.do(t, http.MethodPost, "/api/v1/favorites/toggle", f.authHeader(t, 1),
		map[string]any{"loop_id": 7})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["is_favorited"])
}

func TestToggleFavoriteOwnLoop(t *testing.T) {
	f := newFixture(t)
	f.favorites.toggle = func(int64, int64) (bool, error) { return false, store.ErrSelfToggle }

	rec := f.do(t, http.MethodPost, "/api/v1/favorites/toggle", f.authHeader(t, 1),
		map[string]any{"loop_id": 7})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToggleFavoriteMissingLoop(t *testing.T) {
	f := newFixture(t)
	f.favorites.toggle = func(int64, int64) (bool, error) { return false, store.ErrNotFound }

	rec := f.do(t, http.MethodPost, "/api/v1/favorites/toggle", f.authHeader(t, 1),
		map[string]any{"loop_id": 404})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToggleFavoriteMissingLoopID(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/favorites/toggle", f.authHeader(t, 1),
		map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	fields, ok := body["fields"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, fields, "loop_id")
}

func TestClearLikesReportsCount(t *testing.T) {
	f := newFixture(t)
	f.likes.clear = func(int64) (int64, error) { return 4, nil }

	rec := f.do(t, http.MethodDelete, "/api/v1/likes/clear", f.authHeader(t, 1), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(4), decodeBody(t, rec)["deleted_count"])
}

func TestCheckFavoriteRequiresLoopID(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/favorites/check", f.authHeader(t, 1), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckFavorite(t *testing.T) {
	f := newFixture(t)
	f.favorites.check = func(userID, loopID int64) (bool, error) {
		assert.Equal(t, int64(7), loopID)
		return true, nil
	}

	rec := f.do(t, http.MethodGet, "/api/v1/favorites/check?loop_id=7", f.authHeader(t, 1), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["is_favorited"])
}

func TestCreateLoopIgnoresAttachmentsInJSONBody(t *testing.T) {
	f := newFixture(t)
	f.loops.create = func(_ int64, in loops.CreateInput) (*store.MusicLoop, error) {
		// Attachments must only ever arrive through multipart parsing; a JSON
		// body smuggling file metadata carries no readable bytes.
		assert.Nil(t, in.Audio)
		assert.Nil(t, in.Thumbnail)
		return &store.MusicLoop{ID: 1, Title: in.Title}, nil
	}

	rec := f.do(t, http.MethodPost, "/api/v1/loops", f.authHeader(t, 1), map[string]any{
		"title":     "Loop",
		"Audio":     map[string]any{"Name": "a.mp3", "Size": 5},
		"Thumbnail": map[string]any{"Name": "t.png", "Size": 5},
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestGetLoopNotFound(t *testing.T) {
	f := newFixture(t)
	f.loops.get = func(int64, int64) (*store.MusicLoop, error) { return nil, store.ErrNotFound }

	rec := f.do(t, http.MethodGet, "/api/v1/loops/99", f.authHeader(t, 1), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetLoopPassesAuthenticatedUser(t *testing.T) {
	f := newFixture(t)
	f.loops.get = func(userID, id int64) (*store.MusicLoop, error) {
		assert.Equal(t, int64(5), userID)
		assert.Equal(t, int64(9), id)
		return &store.MusicLoop{ID: 9, UserID: 5, Title: "Mine"}, nil
	}

	rec := f.do(t, http.MethodGet, "/api/v1/loops/9", f.authHeader(t, 5), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Mine", decodeBody(t, rec)["title"])
}

func TestRegisterCreated(t *testing.T) {
	f := newFixture(t)
	f.users.register = func(in users.RegisterInput) (*store.User, error) {
		assert.Equal(t, "ana@example.com", in.Email)
		return &store.User{ID: 1, Email: in.Email, Username: in.Username}, nil
	}

	rec := f.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":    "ana@example.com",
		"username": "ana",
		"password": "hunter22hunter22",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.users.register = func(users.RegisterInput) (*store.User, error) {
		return nil, store.ErrEmailExists
	}

	rec := f.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":    "ana@example.com",
		"username": "ana",
		"password": "hunter22hunter22",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	f.users.login = func(string, string) (auth.TokenPair, *store.User, error) {
		return auth.TokenPair{}, nil, store.ErrInvalidCredentials
	}

	rec := f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "ana@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginReturnsTokensAndUser(t *testing.T) {
	f := newFixture(t)
	f.users.login = func(email, password string) (auth.TokenPair, *store.User, error) {
		return auth.TokenPair{Access: "a", Refresh: "r"}, &store.User{ID: 1, Email: email}, nil
	}

	rec := f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "ana@example.com",
		"password": "hunter22hunter22",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "a", body["access"])
	assert.Equal(t, "r", body["refresh"])
	assert.NotNil(t, body["user"])
}

func TestListFavoritesShape(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/favorites", f.authHeader(t, 1), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(0), body["count"])
	assert.NotNil(t, body["results"])
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
