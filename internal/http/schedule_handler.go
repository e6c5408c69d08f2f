package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/speeddate-scheduler/internal/application"
)

type scheduleService interface {
	GenerateSchedule(ctx context.Context, eventID string, requestedTables, requestedRounds int) (application.GenerateScheduleResult, error)
	GetScheduleForParticipant(ctx context.Context, eventID, participantID string) ([]application.ScheduleEntry, error)
	GetAllSchedules(ctx context.Context, eventID string) (map[string][]application.ScheduleEntry, error)
}

type ScheduleHandler struct {
	service   scheduleService
	responder responder
}

func NewScheduleHandler(service scheduleService, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{service: service, responder: newResponder(logger)}
}

// Generate builds and persists a fresh schedule for the event. A result with
// rounds and tables of -1 means the roster was insufficient; that is reported
// as a conflict rather than a server fault.
func (h *ScheduleHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	var req generateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	result, err := h.service.GenerateSchedule(r.Context(), eventID, req.Tables, req.Rounds)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	if result.Rounds < 0 {
		h.responder.writeJSON(r.Context(), w, http.StatusConflict, errorResponse{
			ErrorCode: "ROSTER_INSUFFICIENT",
			Message:   "チェックイン済みの参加者が不足しているため、スケジュールを生成できません。",
		})
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, generateScheduleResponse{
		Rounds:   result.Rounds,
		Tables:   result.Tables,
		Warnings: result.Warnings,
	})
}

// ListAll returns every participant's personal schedule keyed by participant id.
func (h *ScheduleHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	views, err := h.service.GetAllSchedules(r.Context(), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	response := allSchedulesResponse{Schedules: make(map[string][]scheduleEntryDTO, len(views))}
	for participantID, entries := range views {
		response.Schedules[participantID] = toScheduleEntryDTOs(entries)
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, response)
}

// GetForParticipant returns one participant's schedule ordered by round.
func (h *ScheduleHandler) GetForParticipant(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}
	participantID, ok := ParticipantIDFromContext(r.Context())
	if !ok || strings.TrimSpace(participantID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidParticipantID)
		return
	}

	entries, err := h.service.GetScheduleForParticipant(r.Context(), eventID, participantID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, participantScheduleResponse{
		ParticipantID: participantID,
		Entries:       toScheduleEntryDTOs(entries),
	})
}

type generateScheduleRequest struct {
	Tables int `json:"tables"`
	Rounds int `json:"rounds"`
}

type generateScheduleResponse struct {
	Rounds   int      `json:"rounds"`
	Tables   int      `json:"tables"`
	Warnings []string `json:"warnings,omitempty"`
}

type allSchedulesResponse struct {
	Schedules map[string][]scheduleEntryDTO `json:"schedules"`
}

type participantScheduleResponse struct {
	ParticipantID string             `json:"participant_id"`
	Entries       []scheduleEntryDTO `json:"entries"`
}

type scheduleEntryDTO struct {
	PairingID          string `json:"pairing_id"`
	Round              int    `json:"round"`
	Table              int    `json:"table"`
	PartnerID          string `json:"partner_id"`
	PartnerName        string `json:"partner_name"`
	PartnerAge         int    `json:"partner_age"`
	PartnerAffiliation string `json:"partner_affiliation,omitempty"`
}

func toScheduleEntryDTOs(entries []application.ScheduleEntry) []scheduleEntryDTO {
	if len(entries) == 0 {
		return nil
	}
	out := make([]scheduleEntryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, scheduleEntryDTO{
			PairingID:          entry.PairingID,
			Round:              entry.Round,
			Table:              entry.Table,
			PartnerID:          entry.PartnerID,
			PartnerName:        entry.PartnerName,
			PartnerAge:         entry.PartnerAge,
			PartnerAffiliation: entry.PartnerAffiliation,
		})
	}
	return out
}
