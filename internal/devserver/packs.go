package devserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gashapon-labs/cardstock/internal/gacha"
)

func (s *Server) handleListPacks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.inventory.ListPacks())
}

func (s *Server) handleGetPack(w http.ResponseWriter, r *http.Request) {
	pack, err := s.inventory.GetPack(chi.URLParam(r, "packID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pack)
}

// handleCreatePack accepts the hosted service's form-encoded pack
// creation request. Only a missing field is a validation error; an
// empty pack name is rejected by the inventory with a 400.
func (s *Server) handleCreatePack(w http.ResponseWriter, r *http.Request) {
	// ErrNotMultipart means an urlencoded body, which ParseMultipartForm
	// has already parsed into PostForm.
	if err := r.ParseMultipartForm(8 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeDetail(w, http.StatusUnprocessableEntity, []validationIssue{{
			Loc:  []string{"body"},
			Msg:  "Invalid form body",
			Type: "value_error",
		}})
		return
	}

	var issues []validationIssue
	for _, field := range []string{"pack_name", "collection_id", "price"} {
		if !r.PostForm.Has(field) {
			issues = append(issues, missingField("body", field))
		}
	}
	price := 0
	if v := r.PostFormValue("price"); v != "" {
		var err error
		if price, err = strconv.Atoi(v); err != nil {
			issues = append(issues, intField("body", "price"))
		}
	}
	if len(issues) > 0 {
		writeDetail(w, http.StatusUnprocessableEntity, issues)
		return
	}

	packName := r.PostFormValue("pack_name")
	collectionID := r.PostFormValue("collection_id")

	created, err := s.inventory.CreatePack(collectionID, gacha.Pack{
		Name:        packName,
		Description: r.PostFormValue("description"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"pack_id":       created.ID,
		"pack_name":     created.Name,
		"collection_id": collectionID,
		"price":         strconv.Itoa(price),
		"message":       fmt.Sprintf("Pack '%s' created successfully in collection '%s'", created.Name, collectionID),
	})
}

func (s *Server) handlePackCards(w http.ResponseWriter, r *http.Request) {
	sortBy := r.URL.Query().Get("sort_by")
	if sortBy == "" {
		sortBy = string(gacha.SortByPointWorth)
	}

	cards, err := s.inventory.PackCards(
		chi.URLParam(r, "collectionID"),
		chi.URLParam(r, "packID"),
		sortBy,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleActivatePack(w http.ResponseWriter, r *http.Request) {
	s.togglePack(w, r, true)
}

func (s *Server) handleInactivatePack(w http.ResponseWriter, r *http.Request) {
	s.togglePack(w, r, false)
}

func (s *Server) togglePack(w http.ResponseWriter, r *http.Request, active bool) {
	collectionID := chi.URLParam(r, "collectionID")
	packID := chi.URLParam(r, "packID")

	if err := s.inventory.SetPackActive(collectionID, packID, active); err != nil {
		writeError(w, err)
		return
	}

	verb := "inactivated"
	if active {
		verb = "activated"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":       fmt.Sprintf("Successfully %s pack '%s' in collection '%s'", verb, packID, collectionID),
		"pack_id":       packID,
		"collection_id": collectionID,
	})
}
