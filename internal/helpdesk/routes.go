package helpdesk

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the help request API routes. resolve handles
// POST /{id}/resolve; the handler lives with the agent because resolving a
// request also feeds the answer back into the conversation and the corpus.
func RegisterRoutes(r chi.Router, store *Store, resolve http.HandlerFunc) {
	r.Route("/api/help-requests", func(r chi.Router) {
		r.Get("/", handleList(store))
		r.Get("/pending", handlePending(store))
		r.Get("/stats/summary", handleStats(store))
		r.Get("/{id}", handleGet(store))
		if resolve != nil {
			r.Post("/{id}/resolve", resolve)
		}
	})
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := ListFilter{Status: Status(r.URL.Query().Get("status"))}
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				http.Error(w, `{"error":"invalid limit"}`, http.StatusBadRequest)
				return
			}
			filter.Limit = n
		}

		reqs, err := store.GetAll(r.Context(), filter)
		if err != nil {
			http.Error(w, `{"error":"failed to fetch help requests"}`, http.StatusInternalServerError)
			return
		}
		if reqs == nil {
			reqs = []Request{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reqs)
	}
}

func handlePending(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqs, err := store.GetPending(r.Context())
		if err != nil {
			http.Error(w, `{"error":"failed to fetch pending requests"}`, http.StatusInternalServerError)
			return
		}
		if reqs == nil {
			reqs = []Request{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reqs)
	}
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := store.Get(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, `{"error":"failed to fetch help request"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(req)
	}
}

func handleStats(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.GetStats(r.Context())
		if err != nil {
			http.Error(w, `{"error":"failed to compute stats"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stats)
	}
}
