package server

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	mdslides "github.com/alnah/go-mdslides"
	"github.com/alnah/go-mdslides/internal/assets"
)

type themeOption struct {
	ID   string
	Name string
}

type pageData struct {
	Title     string
	ThemeID   string
	Themes    []themeOption
	KaTeXBase string
}

func (s *Server) handleEditor(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, assets.EditorTemplate)
}

func (s *Server) handlePresenter(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, assets.PresenterTemplate)
}

func (s *Server) renderPage(w http.ResponseWriter, name string) {
	tmpl, err := assets.ParsePage(s.deck.Assets(), name)
	if err != nil {
		s.logger.Error("loading page", zap.String("page", name), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	themes := mdslides.Themes()
	options := make([]themeOption, len(themes))
	for i, t := range themes {
		options[i] = themeOption{ID: t.ID, Name: t.Name}
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, pageData{
		Title:     s.title,
		ThemeID:   s.sync.State().ThemeID,
		Themes:    options,
		KaTeXBase: s.deck.KaTeXBase(),
	})
	if err != nil {
		s.logger.Error("rendering page", zap.String("page", name), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleThemeCSS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	css, err := s.deck.ThemeCSS(id)
	if err != nil {
		if errors.Is(err, mdslides.ErrUnknownTheme) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		s.logger.Error("loading theme", zap.String("theme", id), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = w.Write([]byte(css))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}
