package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/speeddate-scheduler/internal/application"
)

type timerService interface {
	StartRound(ctx context.Context, eventID string, round *int) (application.TimerSnapshot, error)
	PauseRound(ctx context.Context, eventID string, explicitRemaining *int) (application.TimerSnapshot, error)
	ResumeRound(ctx context.Context, eventID string) (application.TimerSnapshot, error)
	NextRound(ctx context.Context, eventID string) (application.NextRoundResult, error)
	UpdateDurations(ctx context.Context, eventID string, roundDurationS, breakDurationS *int) (application.TimerSnapshot, error)
	Status(ctx context.Context, eventID string) (application.TimerStatus, error)
}

type TimerHandler struct {
	service   timerService
	responder responder
}

func NewTimerHandler(service timerService, logger *slog.Logger) *TimerHandler {
	return &TimerHandler{service: service, responder: newResponder(logger)}
}

func (h *TimerHandler) Start(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.requireEvent(w, r)
	if !ok {
		return
	}

	var req startRoundRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	snapshot, err := h.service.StartRound(r.Context(), eventID, req.Round)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, timerResponse{Timer: toTimerDTO(snapshot)})
}

func (h *TimerHandler) Pause(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.requireEvent(w, r)
	if !ok {
		return
	}

	var req pauseRoundRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	snapshot, err := h.service.PauseRound(r.Context(), eventID, req.RemainingSeconds)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, timerResponse{Timer: toTimerDTO(snapshot)})
}

func (h *TimerHandler) Resume(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.requireEvent(w, r)
	if !ok {
		return
	}

	snapshot, err := h.service.ResumeRound(r.Context(), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, timerResponse{Timer: toTimerDTO(snapshot)})
}

func (h *TimerHandler) Next(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.requireEvent(w, r)
	if !ok {
		return
	}

	result, err := h.service.NextRound(r.Context(), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, nextRoundResponse{
		Timer:    toTimerDTO(result.Snapshot),
		Complete: result.Complete,
	})
}

func (h *TimerHandler) UpdateDurations(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.requireEvent(w, r)
	if !ok {
		return
	}

	var req updateDurationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	snapshot, err := h.service.UpdateDurations(r.Context(), eventID, req.RoundDurationS, req.BreakDurationS)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, timerResponse{Timer: toTimerDTO(snapshot)})
}

func (h *TimerHandler) Status(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.requireEvent(w, r)
	if !ok {
		return
	}

	status, err := h.service.Status(r.Context(), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	response := timerStatusResponse{
		HasTimer:      status.HasTimer,
		Status:        string(status.Status),
		TimeRemaining: status.TimeRemaining,
		Message:       status.Message,
	}
	if status.Timer != nil {
		dto := toTimerDTO(*status.Timer)
		response.Timer = &dto
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, response)
}

func (h *TimerHandler) requireEvent(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return "", false
	}
	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return "", false
	}
	return eventID, true
}

// decodeOptionalBody tolerates an empty request body so operations with all
// optional fields can be invoked without one.
func decodeOptionalBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(target)
	if err == io.EOF {
		return nil
	}
	return err
}

type startRoundRequest struct {
	Round *int `json:"round"`
}

type pauseRoundRequest struct {
	RemainingSeconds *int `json:"remaining_seconds"`
}

type updateDurationsRequest struct {
	RoundDurationS *int `json:"round_duration_s"`
	BreakDurationS *int `json:"break_duration_s"`
}

type timerResponse struct {
	Timer timerDTO `json:"timer"`
}

type nextRoundResponse struct {
	Timer    timerDTO `json:"timer"`
	Complete bool     `json:"complete"`
}

type timerStatusResponse struct {
	HasTimer      bool      `json:"has_timer"`
	Timer         *timerDTO `json:"timer,omitempty"`
	Status        string    `json:"status"`
	TimeRemaining int       `json:"time_remaining"`
	Message       string    `json:"message,omitempty"`
}

type timerDTO struct {
	EventID         string `json:"event_id"`
	CurrentRound    int    `json:"current_round"`
	RoundDurationS  int    `json:"round_duration_s"`
	BreakDurationS  int    `json:"break_duration_s"`
	RoundStartTime  string `json:"round_start_time,omitempty"`
	IsPaused        bool   `json:"is_paused"`
	PauseRemainingS *int   `json:"pause_remaining_s,omitempty"`
	FinalRound      int    `json:"final_round"`
}

func toTimerDTO(snapshot application.TimerSnapshot) timerDTO {
	dto := timerDTO{
		EventID:         snapshot.EventID,
		CurrentRound:    snapshot.CurrentRound,
		RoundDurationS:  snapshot.RoundDurationS,
		BreakDurationS:  snapshot.BreakDurationS,
		IsPaused:        snapshot.IsPaused,
		PauseRemainingS: snapshot.PauseRemainingS,
		FinalRound:      snapshot.FinalRound,
	}
	if snapshot.RoundStartTime != nil {
		dto.RoundStartTime = snapshot.RoundStartTime.UTC().Format(time.RFC3339)
	}
	return dto
}
