package message

import (
	"net/http"
	"strconv"
	"time"

	"groupchat/internal/apperr"
	"groupchat/internal/middleware"
	"groupchat/internal/utils"

	"github.com/gin-gonic/gin"
)

type Handler interface {
	GetAllMessages(c *gin.Context)
	GetMessagesByDate(c *gin.Context)
	SearchMessages(c *gin.Context)
	WriteMessage(c *gin.Context)
	UpdateMessage(c *gin.Context)
	DeleteMessage(c *gin.Context)
}

type handler struct {
	service Service
}

func NewHandler(service Service) Handler {
	return &handler{service: service}
}

// @Summary Get all messages
// @Description Live messages with author names, oldest update first
// @Tags Message
// @Produce json
// @Success 200 {object} utils.Envelope
// @Failure 401 {object} utils.Envelope
// @Router /api/message [get]
func (h *handler) GetAllMessages(c *gin.Context) {
	messages, err := h.service.GetAllMessages(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.RespondOK(c, http.StatusOK, "Messages retrieved", MessagesData{Messages: messages})
}

// @Summary Get messages changed since a timestamp
// @Description Rows created, edited or deleted after lastFetchTimeStamp, each tagged new, updated or deleted
// @Tags Message
// @Produce json
// @Param lastFetchTimeStamp query string true "ISO-8601 cursor"
// @Success 200 {object} utils.Envelope
// @Failure 400 {object} utils.Envelope
// @Router /api/message/date [get]
func (h *handler) GetMessagesByDate(c *gin.Context) {
	raw := c.Query("lastFetchTimeStamp")
	if raw == "" {
		_ = c.Error(apperr.Validation("Can not retrieve messages").WithDetails("lastFetchTimeStamp is required"))
		return
	}
	since, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		_ = c.Error(apperr.Validation("Can not retrieve messages").WithDetails("lastFetchTimeStamp must be an ISO-8601 timestamp"))
		return
	}

	messages, err := h.service.GetMessagesSince(c.Request.Context(), since)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.RespondOK(c, http.StatusOK, "Messages retrieved", ClassifiedMessagesData{Messages: messages})
}

// @Summary Search messages
// @Tags Message
// @Produce json
// @Param string query string true "Substring to look for"
// @Success 200 {object} utils.Envelope
// @Router /api/message/search [get]
func (h *handler) SearchMessages(c *gin.Context) {
	messages, err := h.service.SearchMessages(c.Request.Context(), c.Query("string"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	text := "No messages Found"
	if len(messages) > 0 {
		text = "Messages Found"
	}
	utils.RespondOK(c, http.StatusOK, text, MessagesData{Messages: messages})
}

// @Summary Write a message
// @Tags Message
// @Accept json
// @Produce json
// @Success 200 {object} utils.Envelope
// @Failure 400 {object} utils.Envelope
// @Router /api/message [post]
func (h *handler) WriteMessage(c *gin.Context) {
	var req WriteMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.Validation("Can not send message").WithDetails("invalid request body"))
		return
	}

	message, err := h.service.WriteMessage(c.Request.Context(), middleware.CallerID(c), req.MessageContent)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.RespondOK(c, http.StatusOK, "Message sent successfully", message)
}

// @Summary Edit a message
// @Tags Message
// @Accept json
// @Produce json
// @Success 200 {object} utils.Envelope
// @Failure 403 {object} utils.Envelope
// @Failure 404 {object} utils.Envelope
// @Router /api/message [put]
func (h *handler) UpdateMessage(c *gin.Context) {
	var req UpdateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.Validation("Can not update message").WithDetails(err.Error()))
		return
	}
	if req.MessageID == 0 {
		_ = c.Error(apperr.Validation("Can not update message").WithDetails("messageId is required"))
		return
	}

	message, err := h.service.UpdateMessage(c.Request.Context(), middleware.CallerID(c), uint64(req.MessageID), req.MessageContent)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.RespondOK(c, http.StatusOK, "Message updated successfully", message)
}

// @Summary Delete a message
// @Tags Message
// @Produce json
// @Param messageId path int true "Message ID"
// @Success 200 {object} utils.Envelope
// @Failure 403 {object} utils.Envelope
// @Failure 404 {object} utils.Envelope
// @Router /api/message/{messageId} [delete]
func (h *handler) DeleteMessage(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("messageId"), 10, 64)
	if err != nil {
		_ = c.Error(apperr.Validation("Can not delete message").WithDetails("invalid message ID"))
		return
	}

	if err := h.service.DeleteMessage(c.Request.Context(), middleware.CallerID(c), id); err != nil {
		_ = c.Error(err)
		return
	}
	utils.RespondOK(c, http.StatusOK, "Message deleted successfully", nil)
}
