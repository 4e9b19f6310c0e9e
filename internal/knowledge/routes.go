package knowledge

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the knowledge corpus API routes. onChange, when
// non-nil, is invoked after every mutation so consumers (the agent's cached
// grounding context, the event feed) can react; added is non-nil only when
// the mutation created a new entry.
func RegisterRoutes(r chi.Router, store *Store, onChange func(*http.Request, *Entry)) {
	notify := func(req *http.Request, added *Entry) {
		if onChange != nil {
			onChange(req, added)
		}
	}

	r.Route("/api/knowledge", func(r chi.Router) {
		r.Get("/", handleList(store))
		r.Post("/", handleAdd(store, notify))
		r.Get("/{id}", handleGet(store))
		r.Put("/{id}", handleUpdate(store, notify))
		r.Delete("/{id}", handleDelete(store, notify))
	})
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := store.GetAll(r.Context())
		if err != nil {
			http.Error(w, `{"error":"failed to fetch knowledge"}`, http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []Entry{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(entries)
	}
}

type addRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category"`
}

func handleAdd(store *Store, notify func(*http.Request, *Entry)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		category := req.Category
		if category == "" {
			category = "manual"
		}

		entry, err := store.Add(r.Context(), Entry{
			Question: req.Question,
			Answer:   req.Answer,
			Category: category,
			Source:   SourceManual,
		})
		if errors.Is(err, ErrValidation) {
			http.Error(w, `{"error":"question and answer required"}`, http.StatusBadRequest)
			return
		}
		if err != nil {
			http.Error(w, `{"error":"failed to add knowledge"}`, http.StatusInternalServerError)
			return
		}

		notify(r, entry)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(entry)
	}
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := store.Get(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, `{"error":"failed to fetch entry"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(entry)
	}
}

func handleUpdate(store *Store, notify func(*http.Request, *Entry)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch Patch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		err := store.Update(r.Context(), chi.URLParam(r, "id"), patch)
		if errors.Is(err, ErrNotFound) {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, `{"error":"failed to update entry"}`, http.StatusInternalServerError)
			return
		}

		notify(r, nil)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "updated"})
	}
}

func handleDelete(store *Store, notify func(*http.Request, *Entry)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.Delete(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, `{"error":"failed to delete entry"}`, http.StatusInternalServerError)
			return
		}

		notify(r, nil)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}
