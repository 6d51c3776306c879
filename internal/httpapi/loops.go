package httpapi

import (
	"net/http"
	"strconv"

	"loopyard/internal/app/loops"
	"loopyard/internal/store"
)

func loopFilterFrom(r *http.Request) store.LoopFilter {
	q := r.URL.Query()
	filter := store.LoopFilter{
		Search:   q.Get("search"),
		Genre:    q.Get("genre"),
		Ordering: q.Get("ordering"),
	}
	if raw := q.Get("is_public"); raw != "" {
		if b, err := strconv.ParseBool(raw); err == nil {
			filter.Public = &b
		}
	}
	return filter
}

func (s *Server) handleListLoops(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	results, count, err := s.loops.List(r.Context(), userID, loopFilterFrom(r), pageFrom(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondList(w, count, results)
}

func (s *Server) handleBrowseLoops(w http.ResponseWriter, r *http.Request) {
	results, count, err := s.loops.Browse(r.Context(), loopFilterFrom(r), pageFrom(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondList(w, count, results)
}

func (s *Server) handleCreateLoop(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	in, err := decodeLoopCreate(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	loop, err := s.loops.Create(r.Context(), userID, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, loop)
}

func decodeLoopCreate(r *http.Request) (loops.CreateInput, error) {
	var in loops.CreateInput
	if !isMultipart(r) {
		return in, decodeJSON(r, &in)
	}

	if err := parseMultipart(r); err != nil {
		return in, err
	}
	if title, ok := formValue(r, "title"); ok {
		in.Title = title
	}
	if desc, ok := formValue(r, "description"); ok {
		in.Description = desc
	}
	if genre, ok := formValue(r, "genre"); ok {
		in.Genre = genre
	}
	bpm, err := formIntPtr(r, "bpm")
	if err != nil {
		return in, err
	}
	in.BPM = bpm
	duration, err := formFloatPtr(r, "duration")
	if err != nil {
		return in, err
	}
	in.Duration = duration
	isPublic, err := formBoolPtr(r, "is_public")
	if err != nil {
		return in, err
	}
	in.IsPublic = isPublic
	if tags, ok := formTags(r, "tags"); ok {
		in.Tags = tags
	}
	if in.Audio, err = formFile(r, "audio_file"); err != nil {
		return in, err
	}
	if in.Thumbnail, err = formFile(r, "thumbnail"); err != nil {
		return in, err
	}
	return in, nil
}

func (s *Server) handleGetLoop(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())
	id, err := idParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	loop, err := s.loops.Get(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, loop)
}

func (s *Server) handleUpdateLoop(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())
	id, err := idParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	in, err := decodeLoopUpdate(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	loop, err := s.loops.Update(r.Context(), userID, id, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, loop)
}

func decodeLoopUpdate(r *http.Request) (loops.UpdateInput, error) {
	var in loops.UpdateInput
	if !isMultipart(r) {
		return in, decodeJSON(r, &in)
	}

	if err := parseMultipart(r); err != nil {
		return in, err
	}
	in.Title = formStringPtr(r, "title")
	in.Description = formStringPtr(r, "description")
	in.Genre = formStringPtr(r, "genre")
	bpm, err := formIntPtr(r, "bpm")
	if err != nil {
		return in, err
	}
	in.BPM = bpm
	duration, err := formFloatPtr(r, "duration")
	if err != nil {
		return in, err
	}
	in.Duration = duration
	isPublic, err := formBoolPtr(r, "is_public")
	if err != nil {
		return in, err
	}
	in.IsPublic = isPublic
	if tags, ok := formTags(r, "tags"); ok {
		in.Tags = &tags
	}
	if in.Audio, err = formFile(r, "audio_file"); err != nil {
		return in, err
	}
	if in.Thumbnail, err = formFile(r, "thumbnail"); err != nil {
		return in, err
	}
	return in, nil
}

func (s *Server) handleDeleteLoop(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())
	id, err := idParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.loops.Delete(r.Context(), userID, id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlayLoop(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())
	id, err := idParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	count, err := s.loops.Play(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"play_count": count})
}
