package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/parley-server/internal/core"
	"github.com/vovakirdan/parley-server/internal/proto"
	"github.com/vovakirdan/parley-server/internal/store"
)

// AdminHandlers provides HTTP handlers for the synchronous admin API:
// session moderation, channel membership, and message dispatch.
type AdminHandlers struct {
	hub   *core.Hub
	store store.Store
	log   *zerolog.Logger
}

// NewAdminHandlers creates a new admin handlers instance.
func NewAdminHandlers(hub *core.Hub, st store.Store, logger *zerolog.Logger) *AdminHandlers {
	return &AdminHandlers{
		hub:   hub,
		store: st,
		log:   logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateSessionRequest represents the create session request body.
type CreateSessionRequest struct {
	Moderator string `json:"moderator" binding:"required,min=1,max=64"`
}

// SessionResponse represents a session in API responses.
type SessionResponse struct {
	ID        string   `json:"id"`
	Moderator string   `json:"moderator"`
	State     string   `json:"state"`
	CreatedAt string   `json:"created_at"`
	Members   []string `json:"members"`
}

// InviteRequest represents the invite request body.
type InviteRequest struct {
	Moderator   string `json:"moderator" binding:"required"`
	Participant string `json:"participant" binding:"required"`
}

// JoinChannelRequest represents the join channel request body.
type JoinChannelRequest struct {
	Participant string `json:"participant" binding:"required"`
}

// SendMessageRequest represents the dispatch request body.
type SendMessageRequest struct {
	From    string               `json:"from" binding:"required"`
	To      proto.DestinationRef `json:"to" binding:"required"`
	Session string               `json:"session,omitempty"`
	Body    string               `json:"body"`
}

// ReportResponse returns the per-recipient outcomes of a dispatch.
type ReportResponse struct {
	MessageID string                       `json:"message_id"`
	Outcomes  map[string]proto.OutcomeData `json:"outcomes"`
}

// OutcomeResponse is one journal row in API responses.
type OutcomeResponse struct {
	MessageID       string `json:"message_id"`
	Sender          string `json:"sender"`
	DestinationKind string `json:"destination_kind"`
	DestinationName string `json:"destination_name"`
	Recipient       string `json:"recipient"`
	Outcome         string `json:"outcome"`
	Reason          string `json:"reason,omitempty"`
	CreatedAt       string `json:"created_at"`
}

func statusForError(err error) int {
	switch core.ErrorCode(err) {
	case core.ErrCodeUnauthorized:
		return http.StatusForbidden
	case core.ErrCodeUnknownParticipant, core.ErrCodeUnknownSession:
		return http.StatusNotFound
	case core.ErrCodeSessionClosed:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func sessionResponse(s *core.Session) SessionResponse {
	return SessionResponse{
		ID:        s.ID,
		Moderator: s.Moderator,
		State:     s.State().String(),
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
		Members:   s.Members(),
	}
}

// CreateSession opens a new moderated session.
// POST /api/sessions
func (h *AdminHandlers) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create session request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	s, err := h.hub.CreateSession(c.Request.Context(), req.Moderator)
	if err != nil {
		h.log.Debug().Err(err).Str("moderator", req.Moderator).Msg("failed to create session")
		c.JSON(statusForError(err), ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, sessionResponse(s))
}

// ListSessionMembers returns the current roster of a session.
// GET /api/sessions/:id/members
func (h *AdminHandlers) ListSessionMembers(c *gin.Context) {
	s, ok := h.hub.Session(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "session not found"})
		return
	}
	c.JSON(http.StatusOK, sessionResponse(s))
}

// Invite adds a participant to a session on the moderator's behalf.
// POST /api/sessions/:id/invites
func (h *AdminHandlers) Invite(c *gin.Context) {
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid invite request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	sessionID := c.Param("id")
	if err := h.hub.Invite(c.Request.Context(), sessionID, req.Moderator, req.Participant); err != nil {
		h.log.Debug().Err(err).Str("session", sessionID).Str("participant", req.Participant).Msg("invite rejected")
		c.JSON(statusForError(err), ErrorResponse{Error: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// LeaveSession removes a participant from a session. If the participant is
// the moderator the session closes for everyone.
// DELETE /api/sessions/:id/members/:participant
func (h *AdminHandlers) LeaveSession(c *gin.Context) {
	sessionID := c.Param("id")
	participant := c.Param("participant")

	if err := h.hub.LeaveSession(c.Request.Context(), sessionID, participant); err != nil {
		h.log.Debug().Err(err).Str("session", sessionID).Str("participant", participant).Msg("leave rejected")
		c.JSON(statusForError(err), ErrorResponse{Error: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// CloseSession moves a session to its terminal state. The caller is named in
// the moderator query parameter.
// DELETE /api/sessions/:id?moderator=<name>
func (h *AdminHandlers) CloseSession(c *gin.Context) {
	moderator := c.Query("moderator")
	if moderator == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "moderator is required"})
		return
	}

	sessionID := c.Param("id")
	if err := h.hub.CloseSession(c.Request.Context(), sessionID, moderator); err != nil {
		h.log.Debug().Err(err).Str("session", sessionID).Msg("close rejected")
		c.JSON(statusForError(err), ErrorResponse{Error: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// JoinChannel subscribes a participant to a channel, creating the channel on
// first use.
// POST /api/channels/:channel/members
func (h *AdminHandlers) JoinChannel(c *gin.Context) {
	var req JoinChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid join channel request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	channel := c.Param("channel")
	if err := h.hub.JoinChannel(c.Request.Context(), channel, req.Participant); err != nil {
		h.log.Debug().Err(err).Str("channel", channel).Str("participant", req.Participant).Msg("join rejected")
		c.JSON(statusForError(err), ErrorResponse{Error: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// LeaveChannel removes a participant from a channel. Idempotent.
// DELETE /api/channels/:channel/members/:participant
func (h *AdminHandlers) LeaveChannel(c *gin.Context) {
	if err := h.hub.LeaveChannel(c.Request.Context(), c.Param("channel"), c.Param("participant")); err != nil {
		c.JSON(statusForError(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// PostMessage dispatches a message on behalf of a participant and returns
// the full delivery report.
// POST /api/messages
func (h *AdminHandlers) PostMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid send message request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	dest, protoErr := destinationFromRef(req.To)
	if protoErr != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: protoErr.Msg})
		return
	}

	msg := &core.Message{
		Sender:      req.From,
		Destination: dest,
		Session:     req.Session,
		Body:        []byte(req.Body),
	}
	report, err := h.hub.Dispatch(c.Request.Context(), msg)
	if err != nil {
		h.log.Debug().Err(err).Str("from", req.From).Msg("dispatch rejected")
		c.JSON(statusForError(err), ErrorResponse{Error: err.Error()})
		return
	}

	outcomes := make(map[string]proto.OutcomeData, len(report))
	for participant, out := range report {
		outcomes[participant] = proto.OutcomeData{Status: string(out.Status), Reason: out.Reason}
	}
	c.JSON(http.StatusOK, ReportResponse{MessageID: msg.ID, Outcomes: outcomes})
}

// MessageOutcomes returns the journaled outcomes of a past dispatch.
// GET /api/messages/:id/outcomes
func (h *AdminHandlers) MessageOutcomes(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "delivery journal is disabled"})
		return
	}

	messageID := c.Param("id")
	recs, err := h.store.MessageOutcomes(c.Request.Context(), messageID)
	if err != nil {
		h.log.Error().Err(err).Str("message", messageID).Msg("failed to read delivery journal")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if len(recs) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "message not found"})
		return
	}

	response := make([]OutcomeResponse, 0, len(recs))
	for _, rec := range recs {
		response = append(response, OutcomeResponse{
			MessageID:       rec.MessageID,
			Sender:          rec.Sender,
			DestinationKind: rec.DestinationKind,
			DestinationName: rec.DestinationName,
			Recipient:       rec.Recipient,
			Outcome:         rec.Outcome,
			Reason:          rec.Reason,
			CreatedAt:       rec.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, response)
}
