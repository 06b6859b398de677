package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"careercompass/models"
	"careercompass/services"
	"careercompass/utils"
)

// AdvisorChatHandler streams a career-advisor reply as server-sent events.
func (h *APIHandler) AdvisorChatHandler(c *gin.Context) {
	userID := currentUserID(c)

	var req models.AdvisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid chat payload.", err)
		return
	}

	_, err := h.advisorService.StreamAdvice(c.Request.Context(), userID, req.Message, c.Writer)
	if err != nil {
		if errors.Is(err, services.ErrAdvisorUnavailable) {
			utils.SendJSONError(c, http.StatusServiceUnavailable, "The career advisor is not available right now.", err)
			return
		}
		// Mid-stream failures cannot change the response status anymore; the
		// service has already logged them.
		if !c.Writer.Written() {
			utils.SendJSONError(c, http.StatusBadGateway, "The advisor could not answer. Please try again.", err)
		}
	}
}

// AdvisorHistoryHandler returns the user's stored advisor conversation.
func (h *APIHandler) AdvisorHistoryHandler(c *gin.Context) {
	userID := currentUserID(c)

	messages, err := h.advisorService.GetChatHistory(userID)
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
