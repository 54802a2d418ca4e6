package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskhub-api/internal/api/shared"
	"github.com/phrazzld/taskhub-api/internal/service"
)

// ChannelHandler handles channel-related HTTP requests
type ChannelHandler struct {
	channelService service.ChannelService
	logger         *slog.Logger
}

// NewChannelHandler creates a new ChannelHandler
func NewChannelHandler(channelService service.ChannelService, logger *slog.Logger) *ChannelHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ChannelHandler")
	}

	return &ChannelHandler{
		channelService: channelService,
		logger:         logger.With(slog.String("component", "channel_handler")),
	}
}

// CreateChannel handles POST /channels requests
func (h *ChannelHandler) CreateChannel(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireAuth(w, r)
	if !ok {
		return
	}

	var req CreateChannelRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request data")
		return
	}

	channel, err := h.channelService.Create(r.Context(), req.Name, req.IsPrivate, userID)
	if err != nil {
		RespondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, channel)
}

// PostMessage handles POST /channels/{id}/messages requests
func (h *ChannelHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireAuth(w, r)
	if !ok {
		return
	}

	channelID, err := getPathUUID(r, "id")
	if err != nil {
		RespondServiceError(w, r, err)
		return
	}

	var req PostMessageRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request data")
		return
	}

	result, err := h.channelService.PostMessage(r.Context(), channelID, userID, req.Body)
	if err != nil {
		RespondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, MessageResponse{
		Message:     result.Message,
		Joined:      result.Joined,
		SideEffects: toSideEffectResponses(result.SideEffects),
	})
}

// AddMember handles POST /channels/{id}/members requests
func (h *ChannelHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireAuth(w, r)
	if !ok {
		return
	}

	channelID, err := getPathUUID(r, "id")
	if err != nil {
		RespondServiceError(w, r, err)
		return
	}

	var req AddMemberRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request data")
		return
	}

	if _, err := h.channelService.AddMember(r.Context(), channelID, userID, req.UserID, req.IsAdmin); err != nil {
		RespondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveMember handles DELETE /channels/{id}/members/{userID} requests
func (h *ChannelHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireAuth(w, r)
	if !ok {
		return
	}

	channelID, err := getPathUUID(r, "id")
	if err != nil {
		RespondServiceError(w, r, err)
		return
	}

	targetID, err := getPathUUID(r, "userID")
	if err != nil {
		RespondServiceError(w, r, err)
		return
	}

	if _, err := h.channelService.RemoveMember(r.Context(), channelID, actorID, targetID); err != nil {
		RespondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
