package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"loopyard/internal/app/loops"
	"loopyard/internal/app/posts"
	"loopyard/internal/app/tracks"
	"loopyard/internal/app/users"
	"loopyard/internal/auth"
	"loopyard/internal/store"
)

// UserService captures account operations needed by the HTTP handlers.
type UserService interface {
	Register(ctx context.Context, in users.RegisterInput) (*store.User, error)
	Login(ctx context.Context, email, password string) (auth.TokenPair, *store.User, error)
	Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error)
	Profile(ctx context.Context, userID int64) (*store.User, error)
	UpdateProfile(ctx context.Context, userID int64, in users.ProfileInput) (*store.User, error)
	ChangePassword(ctx context.Context, userID int64, in users.ChangePasswordInput) error
	Statistics(ctx context.Context, userID int64) (*store.UserStats, error)
}

// LoopService captures music loop workflows.
type LoopService interface {
	Create(ctx context.Context, userID int64, in loops.CreateInput) (*store.MusicLoop, error)
	Update(ctx context.Context, userID, id int64, in loops.UpdateInput) (*store.MusicLoop, error)
	List(ctx context.Context, userID int64, filter store.LoopFilter, page store.Page) ([]*store.MusicLoop, int64, error)
	Browse(ctx context.Context, filter store.LoopFilter, page store.Page) ([]*store.MusicLoop, int64, error)
	Get(ctx context.Context, userID, id int64) (*store.MusicLoop, error)
	Delete(ctx context.Context, userID, id int64) error
	Play(ctx context.Context, userID, id int64) (int64, error)
}

// TrackService captures track workflows.
type TrackService interface {
	Create(ctx context.Context, userID int64, in tracks.CreateInput) (*store.Track, error)
	Update(ctx context.Context, userID, id int64, in tracks.UpdateInput) (*store.Track, error)
	List(ctx context.Context, userID int64, filter store.TrackFilter, page store.Page) ([]*store.Track, int64, error)
	Browse(ctx context.Context, viewerID int64, filter store.TrackFilter, page store.Page) ([]*store.Track, int64, error)
	Get(ctx context.Context, userID, id int64) (*store.Track, error)
	Delete(ctx context.Context, userID, id int64) error
}

// PostService captures post workflows.
type PostService interface {
	Create(ctx context.Context, userID int64, in posts.CreateInput) (*store.Post, error)
	Update(ctx context.Context, userID, id int64, in posts.UpdateInput) (*store.Post, error)
	List(ctx context.Context, userID int64, filter store.PostFilter, page store.Page) ([]*store.Post, int64, error)
	Browse(ctx context.Context, filter store.PostFilter, page store.Page) ([]*store.Post, int64, error)
	Get(ctx context.Context, userID, id int64) (*store.Post, error)
	Delete(ctx context.Context, userID, id int64) error
}

// FavoriteService captures toggle workflows on loops.
type FavoriteService interface {
	Toggle(ctx context.Context, userID, loopID int64) (bool, error)
	Check(ctx context.Context, userID, loopID int64) (bool, error)
	Clear(ctx context.Context, userID int64) (int64, error)
	List(ctx context.Context, userID int64, page store.Page) ([]*store.Favorite, int64, error)
}

// LikeService captures toggle workflows on tracks.
type LikeService interface {
	Toggle(ctx context.Context, userID, trackID int64) (bool, error)
	Check(ctx context.Context, userID, trackID int64) (bool, error)
	Clear(ctx context.Context, userID int64) (int64, error)
	List(ctx context.Context, userID int64, page store.Page) ([]*store.TrackLike, int64, error)
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	users     UserService
	loops     LoopService
	tracks    TrackService
	posts     PostService
	favorites FavoriteService
	likes     LikeService
	tokens    *auth.TokenManager
}

// New configures a Server with the given services.
func New(
	users UserService,
	loops LoopService,
	tracks TrackService,
	posts PostService,
	favorites FavoriteService,
	likes LikeService,
	tokens *auth.TokenManager,
) *Server {
	return &Server{
		users:     users,
		loops:     loops,
		tracks:    tracks,
		posts:     posts,
		favorites: favorites,
		likes:     likes,
		tokens:    tokens,
	}
}

// Routes builds the chi router for the API.
func (s *Server) Routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestLogging())
	r.Use(Recovery())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/refresh", s.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(s.RequireAuth)

			r.Get("/users/me", s.handleProfile)
			r.Put("/users/me", s.handleUpdateProfile)
			r.Post("/users/change-password", s.handleChangePassword)
			r.Get("/users/me/statistics", s.handleStatistics)
			r.Get("/users/me/posts", s.handleMyPosts)

			r.Get("/posts", s.handleBrowsePosts)
			r.Post("/posts", s.handleCreatePost)
			r.Get("/posts/{id}", s.handleGetPost)
			r.Put("/posts/{id}", s.handleUpdatePost)
			r.Delete("/posts/{id}", s.handleDeletePost)

			r.Get("/loops", s.handleListLoops)
			r.Post("/loops", s.handleCreateLoop)
			r.Get("/loops/browse", s.handleBrowseLoops)
			r.Get("/loops/{id}", s.handleGetLoop)
			r.Put("/loops/{id}", s.handleUpdateLoop)
			r.Delete("/loops/{id}", s.handleDeleteLoop)
			r.Post("/loops/{id}/play", s.handlePlayLoop)

			r.Get("/tracks", s.handleListTracks)
			r.Post("/tracks", s.handleCreateTrack)
			r.Get("/tracks/browse", s.handleBrowseTracks)
			r.Get("/tracks/{id}", s.handleGetTrack)
			r.Put("/tracks/{id}", s.handleUpdateTrack)
			r.Delete("/tracks/{id}", s.handleDeleteTrack)

			r.Get("/favorites", s.handleListFavorites)
			r.Post("/favorites/toggle", s.handleToggleFavorite)
			r.Get("/favorites/check", s.handleCheckFavorite)
			r.Delete("/favorites/clear", s.handleClearFavorites)

			r.Get("/likes", s.handleListLikes)
			r.Post("/likes/toggle", s.handleToggleLike)
			r.Get("/likes/check", s.handleCheckLike)
			r.Delete("/likes/clear", s.handleClearLikes)
		})
	})

	return r
}
