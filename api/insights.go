package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"careercompass/services"
	"careercompass/utils"
)

// InsightsHistoryHandler lists the user's previously generated comprehensive reports.
func (h *APIHandler) InsightsHistoryHandler(c *gin.Context) {
	userID := currentUserID(c)

	items, err := h.insightsService.History(forwardCtx(c), userID)
	if err != nil {
		utils.SendJSONError(c, http.StatusBadGateway, "Could not load your report history.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GenerateInsightsHandler runs one report-generation attempt and streams its
// progress as server-sent events. Event kinds:
//
//	progress  {"stage": ..., "percent": ...}
//	redirect  {"to": "history"}               report already exists
//	complete  {"insights": {...}}
//	error     {"kind": "incomplete"|"failed"|"timeout", ...}
//
// The "timeout" kind tells the UI to offer "view test history" instead of a
// retry, because the report may still finish server-side. Closing the
// connection cancels the poll loop.
func (h *APIHandler) GenerateInsightsHandler(c *gin.Context) {
	userID := currentUserID(c)
	ctx := forwardCtx(c)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	flusher, _ := c.Writer.(http.Flusher)

	emit := func(event string, payload gin.H) {
		c.SSEvent(event, payload)
		if flusher != nil {
			flusher.Flush()
		}
	}

	outcome, err := h.insightsService.GenerateReport(ctx, userID, func(stage string, percent int) {
		emit("progress", gin.H{"stage": stage, "percent": percent})
	})

	if err != nil {
		var incomplete *services.IncompleteError
		var generation *services.GenerationError
		var timeout *services.TimeoutError
		switch {
		case errors.As(err, &incomplete):
			// Actionable guidance, not a failure: name the remaining tests.
			emit("error", gin.H{
				"kind":          "incomplete",
				"message":       incomplete.Error(),
				"missing_tests": incomplete.MissingTests,
				"total_tests":   incomplete.TotalTests,
			})
		case errors.As(err, &generation):
			// Terminal worker failure, surfaced verbatim. Retry is a fresh
			// submission the user has to trigger explicitly.
			emit("error", gin.H{"kind": "failed", "message": generation.Message})
		case errors.As(err, &timeout):
			emit("error", gin.H{"kind": "timeout", "message": timeout.Error(), "check_history": true})
		case errors.Is(err, ctx.Err()) && ctx.Err() != nil:
			// Client went away; nothing left to tell it.
			log.Printf("INFO: [API] Report generation for userID %s cancelled by the client.", userID)
		default:
			emit("error", gin.H{"kind": "failed", "message": "Report generation failed unexpectedly. Please try again."})
			log.Printf("ERROR: [API] Report generation for userID %s failed: %v", userID, err)
		}
		return
	}

	if outcome.RedirectToHistory {
		emit("redirect", gin.H{"to": "history"})
		return
	}
	emit("complete", gin.H{"insights": outcome.Insights})
}
