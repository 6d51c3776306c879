package httpapi

import (
	"net/http"

	"loopyard/internal/app/posts"
	"loopyard/internal/store"
)

func postFilterFrom(r *http.Request) store.PostFilter {
	q := r.URL.Query()
	return store.PostFilter{
		Search:   q.Get("search"),
		Ordering: q.Get("ordering"),
	}
}

func (s *Server) handleBrowsePosts(w http.ResponseWriter, r *http.Request) {
	results, count, err := s.posts.Browse(r.Context(), postFilterFrom(r), pageFrom(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondList(w, count, results)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	in, err := decodePostCreate(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	post, err := s.posts.Create(r.Context(), userID, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, post)
}

func decodePostCreate(r *http.Request) (posts.CreateInput, error) {
	var in posts.CreateInput
	if !isMultipart(r) {
		return in, decodeJSON(r, &in)
	}

	if err := parseMultipart(r); err != nil {
		return in, err
	}
	if title, ok := formValue(r, "title"); ok {
		in.Title = title
	}
	if content, ok := formValue(r, "content"); ok {
		in.Content = content
	}
	var err error
	if in.Audio, err = formFile(r, "audio_file"); err != nil {
		return in, err
	}
	if in.Image, err = formFile(r, "image"); err != nil {
		return in, err
	}
	return in, nil
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())
	id, err := idParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	post, err := s.posts.Get(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, post)
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())
	id, err := idParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	in, err := decodePostUpdate(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	post, err := s.posts.Update(r.Context(), userID, id, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, post)
}

func decodePostUpdate(r *http.Request) (posts.UpdateInput, error) {
	var in posts.UpdateInput
	if !isMultipart(r) {
		return in, decodeJSON(r, &in)
	}

	if err := parseMultipart(r); err != nil {
		return in, err
	}
	in.Title = formStringPtr(r, "title")
	in.Content = formStringPtr(r, "content")
	var err error
	if in.Audio, err = formFile(r, "audio_file"); err != nil {
		return in, err
	}
	if in.Image, err = formFile(r, "image"); err != nil {
		return in, err
	}
	return in, nil
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())
	id, err := idParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.posts.Delete(r.Context(), userID, id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
