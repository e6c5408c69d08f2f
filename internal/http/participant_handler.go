package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/speeddate-scheduler/internal/application"
)

type participantService interface {
	CreateParticipant(ctx context.Context, eventID string, input application.ParticipantInput) (application.Participant, error)
	GetParticipant(ctx context.Context, eventID, id string) (application.Participant, error)
	ListParticipants(ctx context.Context, eventID string) ([]application.Participant, error)
	SetCheckedIn(ctx context.Context, eventID, id string, checkedIn bool) error
}

type ParticipantHandler struct {
	service   participantService
	responder responder
}

func NewParticipantHandler(service participantService, logger *slog.Logger) *ParticipantHandler {
	return &ParticipantHandler{service: service, responder: newResponder(logger)}
}

func (h *ParticipantHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	var req participantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	participant, err := h.service.CreateParticipant(r.Context(), eventID, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, participantResponse{Participant: toParticipantDTO(participant)})
}

func (h *ParticipantHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	participant, err := h.service.GetParticipant(r.Context(), eventID, participantID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, participantResponse{Participant: toParticipantDTO(participant)})
}

func (h *ParticipantHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	participants, err := h.service.ListParticipants(r.Context(), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listParticipantsResponse{Participants: toParticipantDTOs(participants)})
}

func (h *ParticipantHandler) SetCheckedIn(w http.ResponseWriter, r *http.Request) {
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

	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	if err := h.service.SetCheckedIn(r.Context(), eventID, participantID, req.CheckedIn); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	handlerLogger(r.Context(), h.responder.logger, "participant", "check_in", "event_id", eventID).
		InfoContext(r.Context(), "check-in updated", "participant_id", participantID, "checked_in", req.CheckedIn)
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type participantRequest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Age         int    `json:"age"`
	Affiliation string `json:"affiliation"`
	CheckedIn   bool   `json:"checked_in"`
}

func (r participantRequest) toInput() application.ParticipantInput {
	return application.ParticipantInput{
		Name:        strings.TrimSpace(r.Name),
		Category:    strings.TrimSpace(r.Category),
		Age:         r.Age,
		Affiliation: strings.TrimSpace(r.Affiliation),
		CheckedIn:   r.CheckedIn,
	}
}

type checkInRequest struct {
	CheckedIn bool `json:"checked_in"`
}

type participantResponse struct {
	Participant participantDTO `json:"participant"`
}

type listParticipantsResponse struct {
	Participants []participantDTO `json:"participants"`
}

type participantDTO struct {
	ID          string `json:"id"`
	EventID     string `json:"event_id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Age         int    `json:"age"`
	Affiliation string `json:"affiliation,omitempty"`
	CheckedIn   bool   `json:"checked_in"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toParticipantDTO(participant application.Participant) participantDTO {
	return participantDTO{
		ID:          participant.ID,
		EventID:     participant.EventID,
		Name:        participant.Name,
		Category:    participant.Category,
		Age:         participant.Age,
		Affiliation: participant.Affiliation,
		CheckedIn:   participant.CheckedIn,
		CreatedAt:   participant.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   participant.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toParticipantDTOs(participants []application.Participant) []participantDTO {
	if len(participants) == 0 {
		return nil
	}
	out := make([]participantDTO, 0, len(participants))
	for _, participant := range participants {
		out = append(out, toParticipantDTO(participant))
	}
	return out
}
