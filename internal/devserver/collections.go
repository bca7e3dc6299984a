package devserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gashapon-labs/cardstock/internal/gacha"
)

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var meta gacha.Collection
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, []validationIssue{{
			Loc:  []string{"body"},
			Msg:  "Input should be a valid dictionary or object",
			Type: "model_attributes_type",
		}})
		return
	}

	created, err := s.inventory.CreateCollection(meta)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	meta, err := s.inventory.GetCollection(chi.URLParam(r, "collectionName"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.inventory.ListCollections())
}
