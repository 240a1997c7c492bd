package service

import (
	"net/http"
	"strings"
)

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) error {
	tags, err := s.store.ListTags(r.Context())
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, toTags(tags))
	return nil
}

func (s *Server) getTag(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	tag, err := s.store.GetTag(r.Context(), id)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, toTag(*tag))
	return nil
}

// listIngredients filters by a case-insensitive name prefix.
func (s *Server) listIngredients(w http.ResponseWriter, r *http.Request) error {
	prefix := strings.TrimSpace(r.URL.Query().Get("name"))
	ings, err := s.store.ListIngredients(r.Context(), prefix)
	if err != nil {
		return err
	}

	results := make([]ingredientResponse, len(ings))
	for i, ing := range ings {
		results[i] = toIngredient(ing)
	}
	respondJSON(w, http.StatusOK, results)
	return nil
}

func (s *Server) getIngredient(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	ing, err := s.store.GetIngredient(r.Context(), id)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, toIngredient(*ing))
	return nil
}
