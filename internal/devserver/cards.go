package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gashapon-labs/cardstock/internal/gacha"
)

// Wire models matching the hosted service's response schemas.
type paginationInfo struct {
	TotalItems  int `json:"total_items"`
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
}

type appliedFilters struct {
	SortBy      string `json:"sort_by"`
	SortOrder   string `json:"sort_order"`
	SearchQuery string `json:"search_query"`
}

type cardListResponse struct {
	Cards      []gacha.Card   `json:"cards"`
	Pagination paginationInfo `json:"pagination"`
	Filters    appliedFilters `json:"filters"`
}

type quantityChangeRequest struct {
	QuantityChange *int `json:"quantity_change"`
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := ListQuery{
		Collection: q.Get("collectionName"),
		Page:       1,
		PerPage:    gacha.DefaultPerPage,
		SortBy:     string(gacha.DefaultSortField),
		SortOrder:  string(gacha.DefaultSortOrder),
		Search:     q.Get("search_query"),
	}
	if v := q.Get("sort_by"); v != "" {
		query.SortBy = v
	}
	if v := q.Get("sort_order"); v != "" {
		query.SortOrder = v
	}

	var issues []validationIssue
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		switch {
		case err != nil:
			issues = append(issues, intField("query", "page"))
		case n < 1:
			issues = append(issues, validationIssue{
				Loc:  []string{"query", "page"},
				Msg:  "Input should be greater than or equal to 1",
				Type: "greater_than_equal",
			})
		default:
			query.Page = n
		}
	}
	if v := q.Get("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		switch {
		case err != nil:
			issues = append(issues, intField("query", "per_page"))
		case n < 1:
			issues = append(issues, validationIssue{
				Loc:  []string{"query", "per_page"},
				Msg:  "Input should be greater than or equal to 1",
				Type: "greater_than_equal",
			})
		case n > 100:
			issues = append(issues, validationIssue{
				Loc:  []string{"query", "per_page"},
				Msg:  "Input should be less than or equal to 100",
				Type: "less_than_equal",
			})
		default:
			query.PerPage = n
		}
	}
	if len(issues) > 0 {
		writeDetail(w, http.StatusUnprocessableEntity, issues)
		return
	}

	if !gacha.SortField(query.SortBy).Valid() {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf(
			"Could not retrieve cards. Likely an issue with sorting configuration (e.g., field '%s' does not exist or requires an index).",
			query.SortBy))
		return
	}

	cards, total := s.inventory.ListCards(query)

	totalPages := 0
	if query.PerPage > 0 {
		totalPages = (total + query.PerPage - 1) / query.PerPage
	}

	writeJSON(w, http.StatusOK, cardListResponse{
		Cards: cards,
		Pagination: paginationInfo{
			TotalItems:  total,
			TotalPages:  totalPages,
			CurrentPage: query.Page,
			PerPage:     query.PerPage,
		},
		Filters: appliedFilters{
			SortBy:      query.SortBy,
			SortOrder:   query.SortOrder,
			SearchQuery: query.Search,
		},
	})
}

func (s *Server) handleAdjustQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuantityChange == nil {
		writeDetail(w, http.StatusUnprocessableEntity,
			[]validationIssue{missingField("body", "quantity_change")})
		return
	}

	card, err := s.inventory.AdjustQuantity(
		r.URL.Query().Get("collectionName"),
		chi.URLParam(r, "documentID"),
		*req.QuantityChange,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	var patch gacha.CardPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil && !errors.Is(err, io.EOF) {
		writeDetail(w, http.StatusUnprocessableEntity, []validationIssue{{
			Loc:  []string{"body"},
			Msg:  "Input should be a valid dictionary or object",
			Type: "model_attributes_type",
		}})
		return
	}
	if patch.IsEmpty() {
		writeDetail(w, http.StatusBadRequest, "No update data provided")
		return
	}

	card, err := s.inventory.UpdateCard(
		r.URL.Query().Get("collectionName"),
		chi.URLParam(r, "documentID"),
		patch,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	s.inventory.DeleteCard(r.URL.Query().Get("collectionName"), chi.URLParam(r, "documentID"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUploadCard(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, []validationIssue{{
			Loc:  []string{"body"},
			Msg:  "Invalid multipart form",
			Type: "value_error",
		}})
		return
	}

	file, header, err := r.FormFile("image_file")
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity,
			[]validationIssue{missingField("body", "image_file")})
		return
	}
	file.Close()

	if header.Filename == "" {
		writeDetail(w, http.StatusBadRequest, "Image file name is missing.")
		return
	}

	var issues []validationIssue
	pointWorth := 0
	if v := r.FormValue("point_worth"); v == "" {
		issues = append(issues, missingField("body", "point_worth"))
	} else if pointWorth, err = strconv.Atoi(v); err != nil {
		issues = append(issues, intField("body", "point_worth"))
	}
	quantity := 0
	if v := r.FormValue("quantity"); v != "" {
		if quantity, err = strconv.Atoi(v); err != nil {
			issues = append(issues, intField("body", "quantity"))
		}
	}
	if len(issues) > 0 {
		writeDetail(w, http.StatusUnprocessableEntity, issues)
		return
	}

	// Legacy callers send collectionName; collection_metadata_id wins
	// when both are present.
	q := r.URL.Query()
	collection := q.Get("collection_metadata_id")
	if collection == "" {
		collection = q.Get("collectionName")
	}

	card := gacha.Card{
		CardName:       r.FormValue("card_name"),
		Rarity:         r.FormValue("rarity"),
		PointWorth:     pointWorth,
		Quantity:       quantity,
		DateGotInStock: r.FormValue("date_got_in_stock"),
		ImageURL: fmt.Sprintf("dev://%s/%s_%s",
			s.inventory.StoragePrefix(collection), uuid.NewString(), header.Filename),
	}

	created, err := s.inventory.UploadCard(collection, card)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}
