package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matheuscscp/cms-git-backend/internal/constants"
	"github.com/matheuscscp/cms-git-backend/internal/datalayer"
	"github.com/matheuscscp/cms-git-backend/internal/gitprovider"
	"github.com/matheuscscp/cms-git-backend/internal/logging"
)

const (
	pathContent = "/api/cms/content"

	maxContentBytes = 10 << 20
)

// contentRoutes serves the CMS content API. Every route runs behind the
// authorization middleware, so handlers can rely on the editor being in the
// request context.
func contentRoutes(r chi.Router, db *datalayer.Database, authorize func(http.Handler) http.Handler) {
	r.Route(pathContent, func(r chi.Router) {
		r.Use(authorize)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			docs, err := db.List(r.Context(), r.URL.Query().Get(constants.QueryParamContentPrefix))
			if err != nil {
				logging.FromRequest(r).WithError(err).Error("failed to list content")
				respondError(w, r, http.StatusInternalServerError, "Failed to list content")
				return
			}
			respondJSON(w, r, http.StatusOK, docs)
		})

		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			key := chi.URLParam(r, "*")
			doc, err := db.Get(r.Context(), key)
			switch {
			case errors.Is(err, datalayer.ErrNotFound):
				respondError(w, r, http.StatusNotFound, "Content not found")
			case errors.Is(err, gitprovider.ErrInvalidKey):
				respondError(w, r, http.StatusBadRequest, err.Error())
			case err != nil:
				logging.FromRequest(r).WithError(err).Error("failed to get content")
				respondError(w, r, http.StatusInternalServerError, "Failed to get content")
			default:
				respondJSON(w, r, http.StatusOK, doc)
			}
		})

		r.Put("/*", func(w http.ResponseWriter, r *http.Request) {
			l := logging.FromRequest(r)
			key := chi.URLParam(r, "*")

			value, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxContentBytes))
			if err != nil {
				l.WithError(err).Error("failed to read request body")
				respondError(w, r, http.StatusBadRequest, "Failed to read request body")
				return
			}

			if err := db.Put(r.Context(), key, string(value)); err != nil {
				respondSaveError(w, r, err)
				return
			}
			doc, err := db.Get(r.Context(), key)
			if err != nil {
				l.WithError(err).Error("failed to read saved content")
				respondError(w, r, http.StatusInternalServerError, "Failed to read saved content")
				return
			}
			respondJSON(w, r, http.StatusOK, doc)
		})

		r.Delete("/*", func(w http.ResponseWriter, r *http.Request) {
			if err := db.Delete(r.Context(), chi.URLParam(r, "*")); err != nil {
				respondSaveError(w, r, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})
}

// respondSaveError surfaces persistence failures to the editor.
func respondSaveError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, gitprovider.ErrInvalidKey) {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	logging.FromRequest(r).WithError(err).Error("failed to save content")
	respondError(w, r, http.StatusInternalServerError, err.Error())
}
