package handlers

import (
	"net/http"
	"strconv"

	"github.com/kmahoney/robotourney/services"
)

type BracketHandler struct {
	service services.BracketService
}

func NewBracketHandler(service services.BracketService) *BracketHandler {
	return &BracketHandler{service: service}
}

// SeedBracket creates and seeds a playoff bracket, advancing first-round
// byes immediately.
// POST /brackets
func (h *BracketHandler) SeedBracket(w http.ResponseWriter, r *http.Request) {
	var input services.SeedBracketInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	data, err := h.service.SeedBracket(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"bracket": data}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListBrackets names every bracket seeded for the tournament.
// GET /brackets
func (h *BracketHandler) ListBrackets(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIntQuery(r, "tournament_id", 0)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	names, err := h.service.ListBrackets(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"brackets": names}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetBracket returns the bracket grid grouped by round, with display
// scores attached. ?verified_only=true hides unverified scores.
// GET /brackets/{bracket}
func (h *BracketHandler) GetBracket(w http.ResponseWriter, r *http.Request) {
	bracket, err := getBracketName(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	tournamentID, err := getIntQuery(r, "tournament_id", 0)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	verifiedOnly, _ := strconv.ParseBool(r.URL.Query().Get("verified_only"))

	data, err := h.service.GetBracketData(r.Context(), tournamentID, bracket, verifiedOnly)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": data}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AdvanceBracket sweeps the bracket, filling every winner slot whose match
// has become decidable. Safe to call repeatedly.
// POST /brackets/{bracket}/advance
func (h *BracketHandler) AdvanceBracket(w http.ResponseWriter, r *http.Request) {
	bracket, err := getBracketName(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	tournamentID, err := getIntQuery(r, "tournament_id", 0)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	changed, err := h.service.AdvanceBracket(r.Context(), tournamentID, bracket)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rows_changed": len(changed), "rows": changed}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// FinishBracket attempts to resolve the bracket completely. Returns
// finished=false when ties or missing scores remain; no rows change in
// that case.
// POST /brackets/{bracket}/finish
func (h *BracketHandler) FinishBracket(w http.ResponseWriter, r *http.Request) {
	bracket, err := getBracketName(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	tournamentID, err := getIntQuery(r, "tournament_id", 0)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	finished, err := h.service.FinishBracket(r.Context(), tournamentID, bracket)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"finished": finished}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// IsUnfinished reports whether any match in the bracket is still tied or
// waiting on scores.
// GET /brackets/{bracket}/unfinished
func (h *BracketHandler) IsUnfinished(w http.ResponseWriter, r *http.Request) {
	bracket, err := getBracketName(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	tournamentID, err := getIntQuery(r, "tournament_id", 0)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	unfinished, err := h.service.IsBracketUnfinished(r.Context(), tournamentID, bracket)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"unfinished": unfinished}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
