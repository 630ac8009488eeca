package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	mdslides "github.com/alnah/go-mdslides"
	"github.com/alnah/go-mdslides/internal/statesync"
	"github.com/alnah/go-mdslides/internal/store"
)

const maxStateBody = 8 << 20

// slideSummary is one entry of the slide list.
type slideSummary struct {
	Index  int    `json:"index"`
	Title  string `json:"title"`
	Anchor string `json:"anchor"`
}

// slideDetail is a fully enhanced slide.
type slideDetail struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	HTML  string `json:"html"`
	Notes string `json:"notes"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleGetState returns the stored state, falling back to the server's
// replica when the store holds nothing usable.
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	st := s.sync.State()
	raw, err := s.store.Load(r.Context(), s.key)
	switch {
	case err == nil:
		if decoded, err := statesync.DecodeState(raw); err == nil {
			st = decoded
		} else {
			s.logger.Debug("stored state unusable", zap.Error(err))
		}
	case errors.Is(err, store.ErrNotFound):
	default:
		s.logger.Warn("loading state", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, st)
}

// handlePutState replaces the shared state. The write goes through the
// server synchronizer, so every open session receives it.
func (s *Server) handlePutState(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxStateBody+1))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(body) > maxStateBody {
		http.Error(w, "state too large", http.StatusRequestEntityTooLarge)
		return
	}
	next, err := statesync.DecodeState(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.sync.Update(r.Context(), func(st *statesync.State) { *st = next }); err != nil {
		s.logger.Error("updating state", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSlides(w http.ResponseWriter, r *http.Request) {
	slides, err := s.deck.Compile(r.Context(), s.sync.State().Markdown)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	list := make([]slideSummary, len(slides))
	for i, sl := range slides {
		list[i] = slideSummary{Index: sl.ID, Title: sl.Title, Anchor: mdslides.SlideSlug(sl)}
	}
	writeJSON(w, http.StatusOK, list)
}

// handleGetSlide returns one zero-based slide with every enhancement
// stage applied. The theme defaults to the shared one; ?theme= and
// ?lineNumbers=1 override it for this response only.
func (s *Server) handleGetSlide(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(mux.Vars(r)["n"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	st := s.sync.State()
	themeID := st.ThemeID
	if q := r.URL.Query().Get("theme"); q != "" {
		if !mdslides.IsValidTheme(q) {
			http.Error(w, fmt.Sprintf("%v: %q", mdslides.ErrUnknownTheme, q), http.StatusBadRequest)
			return
		}
		themeID = q
	}

	slides, err := s.deck.Compile(r.Context(), st.Markdown)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if n >= len(slides) {
		http.Error(w, fmt.Sprintf("%v: %d of %d", mdslides.ErrSlideRange, n, len(slides)), http.StatusNotFound)
		return
	}
	sl := slides[n]

	body, err := s.deck.Enhance(r.Context(), sl, mdslides.EnhanceSettings{
		SlideID:     sl.ID,
		ThemeID:     themeID,
		LineNumbers: r.URL.Query().Get("lineNumbers") == "1",
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	notes, err := s.deck.NotesHTML(r.Context(), sl)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, slideDetail{Index: sl.ID, Title: sl.Title, HTML: body, Notes: notes})
}
