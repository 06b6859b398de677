package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"careercompass/models"
	"careercompass/utils"
)

// GetProfileHandler returns the authenticated user's profile.
func (h *APIHandler) GetProfileHandler(c *gin.Context) {
	userID := currentUserID(c)

	profile, err := h.profileService.GetProfile(forwardCtx(c), userID)
	if err != nil {
		utils.SendJSONError(c, http.StatusBadGateway, "Could not load your profile.", err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfileHandler patches the authenticated user's profile fields.
func (h *APIHandler) UpdateProfileHandler(c *gin.Context) {
	userID := currentUserID(c)

	var update models.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid profile payload.", err)
		return
	}
	profile, err := h.profileService.UpdateProfile(forwardCtx(c), userID, update)
	if err != nil {
		utils.SendJSONError(c, http.StatusBadGateway, "Could not update your profile.", err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// ChangePasswordHandler changes the authenticated user's password.
func (h *APIHandler) ChangePasswordHandler(c *gin.Context) {
	userID := currentUserID(c)

	var req models.PasswordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid password payload.", err)
		return
	}
	if err := h.profileService.ChangePassword(forwardCtx(c), userID, req); err != nil {
		utils.SendJSONError(c, http.StatusBadGateway, "Could not change your password.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed."})
}

// --- Admin: user management ---

func (h *APIHandler) AdminListUsersHandler(c *gin.Context) {
	users, err := h.profileService.ListUsers(forwardCtx(c))
	if err != nil {
		utils.SendJSONError(c, http.StatusBadGateway, "Could not list users.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *APIHandler) AdminDeleteUserHandler(c *gin.Context) {
	userID := c.Param("userID")
	if err := h.profileService.DeleteUser(forwardCtx(c), userID); err != nil {
		utils.SendJSONError(c, http.StatusBadGateway, "Could not delete the user.", err)
		return
	}
	// The account is gone; its locally stored advisor conversation goes too.
	if err := h.advisorService.ClearHistory(userID); err != nil {
		log.Printf("WARN: [API] Could not clear advisor history for deleted userID %s: %v", userID, err)
	}
	c.Status(http.StatusNoContent)
}
