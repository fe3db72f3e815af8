package api

import (
	"alcyxob/totalfit/internal/domain"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct{}

func NewChatHandler() *ChatHandler {
	return &ChatHandler{}
}

type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

type ChatResponse struct {
	Reply   string            `json:"reply"`
	History []domain.ChatTurn `json:"history"`
}

// History returns the transcript of the current conversation.
func (h *ChatHandler) History(c *gin.Context) {
	c.JSON(http.StatusOK, ChatResponse{History: controllerFromContext(c).ChatHistory()})
}

// Send godoc
// @Summary Ask the coach about the plan on screen
// @Tags Chat
// @Accept json
// @Security BearerAuth
// @Param message body ChatRequest true "Message"
// @Success 200 {object} ChatResponse
// @Failure 409 {object} gin.H "A reply is still pending"
// @Router /chat [post]
func (h *ChatHandler) Send(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	ctrl := controllerFromContext(c)
	reply, err := ctrl.Ask(c.Request.Context(), req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ChatResponse{Reply: reply, History: ctrl.ChatHistory()})
}
