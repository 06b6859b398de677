package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"careercompass/clients"
	"careercompass/models"
	"careercompass/services"
	"careercompass/utils"
)

// ListResultsHandler returns the user's merged result listing: comprehensive
// reports first, then raw test results by completion date descending.
func (h *APIHandler) ListResultsHandler(c *gin.Context) {
	userID := currentUserID(c)
	ctx := forwardCtx(c)

	results, err := h.resultsService.ListResults(ctx, userID)
	if err != nil {
		utils.SendJSONError(c, http.StatusBadGateway, "Could not load your test results.", err)
		return
	}
	insights, err := h.insightsService.History(ctx, userID)
	if err != nil {
		// A broken history service should not hide the raw results.
		log.Printf("WARN: [API] Insights history unavailable for userID %s, listing raw results only: %v", userID, err)
		insights = nil
	}

	c.JSON(http.StatusOK, gin.H{
		"items": services.MergeAndOrder(results, insights),
	})
}

// GetResultHandler returns a single scored result.
func (h *APIHandler) GetResultHandler(c *gin.Context) {
	userID := currentUserID(c)
	resultID := c.Param("resultID")

	result, err := h.resultsService.GetResult(forwardCtx(c), userID, resultID)
	if err != nil {
		var httpErr *clients.HTTPError
		if errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound {
			utils.SendJSONError(c, http.StatusNotFound, fmt.Sprintf("Result %s not found.", resultID), err)
			return
		}
		utils.SendJSONError(c, http.StatusBadGateway, "Could not load the result.", err)
		return
	}
	if result.UserID != "" && result.UserID != userID {
		utils.SendJSONError(c, http.StatusForbidden, "This result belongs to another user.", nil)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SubmitAnswersHandler scores and stores a finished test via the results service.
func (h *APIHandler) SubmitAnswersHandler(c *gin.Context) {
	userID := currentUserID(c)

	var req models.SubmitAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid submission payload.", err)
		return
	}
	if len(req.Answers) == 0 {
		utils.SendJSONError(c, http.StatusBadRequest, "Submission contains no answers.", nil)
		return
	}

	result, err := h.resultsService.SubmitAnswers(forwardCtx(c), userID, req)
	if err != nil {
		utils.SendJSONError(c, http.StatusBadGateway, "Could not submit your answers. Please try again.", err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// DownloadResultHandler proxies a result export (pdf/json/csv). An empty file
// from the backend is an error, never a silent empty download.
func (h *APIHandler) DownloadResultHandler(c *gin.Context) {
	resultID := c.Param("resultID")
	format := c.DefaultQuery("format", "pdf")

	data, contentType, err := h.resultsService.DownloadResult(forwardCtx(c), resultID, format)
	if err != nil {
		if errors.Is(err, clients.ErrEmptyBody) {
			utils.SendJSONError(c, http.StatusBadGateway, "The export came back empty. Please try again.", err)
			return
		}
		utils.SendJSONError(c, http.StatusBadGateway, "Could not download the export.", err)
		return
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=result-%s.%s", resultID, format))
	c.Data(http.StatusOK, contentType, data)
}

// CompletionStatusHandler reports which required tests the user still has to
// take. `?bust=1` forces a fresh fetch past every cache.
func (h *APIHandler) CompletionStatusHandler(c *gin.Context) {
	userID := currentUserID(c)
	bust := c.Query("bust") != ""

	status, err := h.completionService.GetCompletionStatus(forwardCtx(c), userID, bust)
	if err != nil {
		utils.SendJSONError(c, http.StatusBadGateway, "Could not determine your completion status.", err)
		return
	}
	c.JSON(http.StatusOK, status)
}
