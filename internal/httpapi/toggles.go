package httpapi

import (
	"net/http"

	"loopyard/internal/validate"
)

type favoriteRequest struct {
	LoopID int64 `json:"loop_id"`
}

type likeRequest struct {
	TrackID int64 `json:"track_id"`
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	var in favoriteRequest
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if in.LoopID <= 0 {
		respondError(w, r, validate.Field("loop_id", "must be a positive integer"))
		return
	}

	created, err := s.favorites.Toggle(r.Context(), userID, in.LoopID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"is_favorited": created})
}

func (s *Server) handleCheckFavorite(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	loopID, err := queryID(r, "loop_id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	favorited, err := s.favorites.Check(r.Context(), userID, loopID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"is_favorited": favorited})
}

func (s *Server) handleClearFavorites(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	deleted, err := s.favorites.Clear(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"deleted_count": deleted})
}

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	results, count, err := s.favorites.List(r.Context(), userID, pageFrom(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondList(w, count, results)
}

func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	var in likeRequest
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if in.TrackID <= 0 {
		respondError(w, r, validate.Field("track_id", "must be a positive integer"))
		return
	}

	created, err := s.likes.Toggle(r.Context(), userID, in.TrackID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"is_liked": created})
}

func (s *Server) handleCheckLike(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	trackID, err := queryID(r, "track_id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	liked, err := s.likes.Check(r.Context(), userID, trackID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"is_liked": liked})
}

func (s *Server) handleClearLikes(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	deleted, err := s.likes.Clear(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"deleted_count": deleted})
}

func (s *Server) handleListLikes(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	results, count, err := s.likes.List(r.Context(), userID, pageFrom(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondList(w, count, results)
}
