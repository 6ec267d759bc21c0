package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/GriffinCanCode/docuseal-embed/internal/docuseal"
	"github.com/GriffinCanCode/docuseal-embed/internal/shared/types"
	"github.com/GriffinCanCode/docuseal-embed/internal/shared/utils"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Classify classifies one message envelope as the host page would
func (h *Handlers) Classify(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, utils.MaxEnvelopeSize+1))
	if err != nil {
		badRequest(c, "failed to read request body")
		return
	}
	if len(data) > utils.MaxEnvelopeSize {
		c.JSON(http.StatusRequestEntityTooLarge, types.ErrorResponse{Error: "envelope too large"})
		return
	}

	var env docuseal.Envelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		badRequest(c, "Invalid envelope format")
		return
	}

	event, err := h.classifier.Classify(env)
	switch {
	case errors.Is(err, docuseal.ErrUntrustedOrigin):
		h.metrics.RecordClassified("", "untrusted")
		c.JSON(http.StatusOK, types.ClassifyResponse{Reason: err.Error()})
		return
	case errors.Is(err, docuseal.ErrForeignMessage):
		h.metrics.RecordClassified("", "foreign")
		c.JSON(http.StatusOK, types.ClassifyResponse{Trusted: true})
		return
	case err != nil:
		h.respondError(c, err)
		return
	}

	resp := types.ClassifyResponse{
		Belongs: true,
		Trusted: true,
		Kind:    string(event.Kind()),
		Event:   event,
	}
	payload, err := event.Payload()
	if err != nil {
		h.metrics.RecordClassified(resp.Kind, "invalid")
		resp.Error = err.Error()
	} else {
		h.metrics.RecordClassified(resp.Kind, "accepted")
		resp.Payload = payload
	}
	c.JSON(http.StatusOK, resp)
}

// Bridge upgrades to the relay websocket
func (h *Handlers) Bridge(c *gin.Context) {
	h.hub.ServeHTTP(c.Writer, c.Request)
}

// ListSessions lists connected embed pages
func (h *Handlers) ListSessions(c *gin.Context) {
	sessions := h.hub.Sessions()
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// GetSession returns one session
func (h *Handlers) GetSession(c *gin.Context) {
	sessionID := c.Param("id")
	if err := utils.ValidateID(sessionID, "session_id", true); err != nil {
		badRequest(c, err.Error())
		return
	}

	info, ok := h.hub.Session(sessionID)
	if !ok {
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: "session not found"})
		return
	}
	c.JSON(http.StatusOK, info)
}

// SendMessage posts a message into the form of one session
func (h *Handlers) SendMessage(c *gin.Context) {
	sessionID := c.Param("id")
	if err := utils.ValidateID(sessionID, "session_id", true); err != nil {
		badRequest(c, err.Error())
		return
	}
	if _, ok := h.hub.Session(sessionID); !ok {
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: "session not found"})
		return
	}

	msg, ok := bindOutbound(c)
	if !ok {
		return
	}

	delivery, err := h.hub.Send(sessionID, msg)
	if err != nil {
		h.logger.Warn("Failed to relay message",
			zap.String("session", sessionID),
			zap.String("type", msg.Type),
			zap.Error(err))
		c.JSON(http.StatusBadGateway, types.ErrorResponse{Error: err.Error()})
		return
	}

	status := http.StatusOK
	if delivery == docuseal.DeliverySkipped {
		status = http.StatusAccepted
	}
	c.JSON(status, types.DeliveryResponse{
		Session:  sessionID,
		Delivery: delivery.String(),
	})
}

// Broadcast posts a message into every loaded form
func (h *Handlers) Broadcast(c *gin.Context) {
	msg, ok := bindOutbound(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, types.BroadcastResponse{Sent: h.hub.Broadcast(msg)})
}

func bindOutbound(c *gin.Context) (docuseal.OutboundMessage, bool) {
	var msg docuseal.OutboundMessage
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, utils.MaxMessageSize)
	if err := c.ShouldBindJSON(&msg); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, types.ErrorResponse{Error: "message too large"})
			return msg, false
		}
		badRequest(c, "Invalid message format")
		return msg, false
	}
	if err := utils.ValidateString(msg.Type, "type", 1, utils.MaxIDLength, true); err != nil {
		badRequest(c, err.Error())
		return msg, false
	}
	if err := utils.ValidateJSONDepth(msg.Data, utils.MaxJSONDepth); err != nil {
		badRequest(c, err.Error())
		return msg, false
	}
	return msg, true
}
