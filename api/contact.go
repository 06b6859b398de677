package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"careercompass/models"
	"careercompass/utils"
)

// SubmitContactHandler accepts a public contact-form submission.
func (h *APIHandler) SubmitContactHandler(c *gin.Context) {
	var req models.ContactCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid contact payload.", err)
		return
	}
	msg, err := h.contactService.Submit(c.Request.Context(), req)
	if err != nil {
		utils.SendJSONError(c, http.StatusBadGateway, "Could not send your message. Please try again.", err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// --- Admin: contact message management ---

func (h *APIHandler) AdminListContactsHandler(c *gin.Context) {
	msgs, err := h.contactService.List(forwardCtx(c))
	if err != nil {
		utils.SendJSONError(c, http.StatusBadGateway, "Could not list contact messages.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": msgs})
}

func (h *APIHandler) AdminUpdateContactHandler(c *gin.Context) {
	var patch models.ContactStatusPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid status payload.", err)
		return
	}
	msg, err := h.contactService.UpdateStatus(forwardCtx(c), c.Param("contactID"), patch)
	if err != nil {
		utils.SendJSONError(c, http.StatusBadGateway, "Could not update the contact message.", err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (h *APIHandler) AdminDeleteContactHandler(c *gin.Context) {
	if err := h.contactService.Delete(forwardCtx(c), c.Param("contactID")); err != nil {
		utils.SendJSONError(c, http.StatusBadGateway, "Could not delete the contact message.", err)
		return
	}
	c.Status(http.StatusNoContent)
}
