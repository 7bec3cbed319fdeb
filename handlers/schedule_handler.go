package handlers

import (
	"net/http"

	"github.com/kmahoney/robotourney/services"
)

type ScheduleHandler struct {
	service services.ScheduleService
}

func NewScheduleHandler(service services.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// CheckSchedule parses a tabular schedule and runs every constraint check
// over it. Violations come back in the report body; the request itself
// fails only on malformed input.
// POST /schedule/check
func (h *ScheduleHandler) CheckSchedule(w http.ResponseWriter, r *http.Request) {
	var input services.CheckScheduleInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	report, err := h.service.CheckSchedule(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"report": report}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type finalistRequest struct {
	Categories map[string][]int `json:"categories"`
}

// ScheduleFinalists packs finalist interview candidates into judging
// slots, never placing a team twice in one slot.
// POST /finalists/schedule
func (h *ScheduleHandler) ScheduleFinalists(w http.ResponseWriter, r *http.Request) {
	var input finalistRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	slots, err := h.service.ScheduleFinalists(r.Context(), input.Categories)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"slots": slots}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
