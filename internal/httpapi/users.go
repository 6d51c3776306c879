package httpapi

import (
	"net/http"

	"loopyard/internal/app/users"
)

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	user, err := s.users.Profile(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	var in users.ProfileInput
	if isMultipart(r) {
		if err := parseMultipart(r); err != nil {
			respondError(w, r, err)
			return
		}
		in.Nickname = formStringPtr(r, "nickname")
		in.Bio = formStringPtr(r, "bio")
		image, err := formFile(r, "profile_image")
		if err != nil {
			respondError(w, r, err)
			return
		}
		in.Image = image
	} else if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	user, err := s.users.UpdateProfile(r.Context(), userID, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	var in users.ChangePasswordInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.users.ChangePassword(r.Context(), userID, in); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"detail": "password changed"})
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	stats, err := s.users.Statistics(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleMyPosts(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	results, count, err := s.posts.List(r.Context(), userID, postFilterFrom(r), pageFrom(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondList(w, count, results)
}
