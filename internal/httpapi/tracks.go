package httpapi

import (
	"net/http"

	"loopyard/internal/app/tracks"
	"loopyard/internal/store"
)

func trackFilterFrom(r *http.Request) store.TrackFilter {
	q := r.URL.Query()
	return store.TrackFilter{
		Search:   q.Get("search"),
		Genre:    q.Get("genre"),
		Ordering: q.Get("ordering"),
	}
}

func (s *Server) handleListTracks(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	results, count, err := s.tracks.List(r.Context(), userID, trackFilterFrom(r), pageFrom(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondList(w, count, results)
}

func (s *Server) handleBrowseTracks(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	results, count, err := s.tracks.Browse(r.Context(), userID, trackFilterFrom(r), pageFrom(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondList(w, count, results)
}

func (s *Server) handleCreateTrack(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	in, err := decodeTrackCreate(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	track, err := s.tracks.Create(r.Context(), userID, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, track)
}

func decodeTrackCreate(r *http.Request) (tracks.CreateInput, error) {
	var in tracks.CreateInput
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
	if artist, ok := formValue(r, "artist"); ok {
		in.Artist = artist
	}
	if genre, ok := formValue(r, "genre"); ok {
		in.Genre = genre
	}
	duration, err := formFloatPtr(r, "duration")
	if err != nil {
		return in, err
	}
	in.Duration = duration
	if in.Audio, err = formFile(r, "audio_file"); err != nil {
		return in, err
	}
	if in.Cover, err = formFile(r, "cover_image"); err != nil {
		return in, err
	}
	return in, nil
}

func (s *Server) handleGetTrack(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())
	id, err := idParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	track, err := s.tracks.Get(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, track)
}

func (s *Server) handleUpdateTrack(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())
	id, err := idParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	in, err := decodeTrackUpdate(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	track, err := s.tracks.Update(r.Context(), userID, id, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, track)
}

func decodeTrackUpdate(r *http.Request) (tracks.UpdateInput, error) {
	var in tracks.UpdateInput
	if !isMultipart(r) {
		return in, decodeJSON(r, &in)
	}

	if err := parseMultipart(r); err != nil {
		return in, err
	}
	in.Title = formStringPtr(r, "title")
	in.Description = formStringPtr(r, "description")
	in.Artist = formStringPtr(r, "artist")
	in.Genre = formStringPtr(r, "genre")
	duration, err := formFloatPtr(r, "duration")
	if err != nil {
		return in, err
	}
	in.Duration = duration
	if in.Audio, err = formFile(r, "audio_file"); err != nil {
		return in, err
	}
	if in.Cover, err = formFile(r, "cover_image"); err != nil {
		return in, err
	}
	return in, nil
}

func (s *Server) handleDeleteTrack(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())
	id, err := idParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.tracks.Delete(r.Context(), userID, id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
