package api

import (
	"context"

	"github.com/gin-gonic/gin"

	"careercompass/clients"
	"careercompass/middleware"
	"careercompass/services"
)

// APIHandler holds all dependencies for API handlers.
type APIHandler struct {
	resultsService    services.ResultsService
	completionService services.CompletionService
	insightsService   services.InsightsService
	questionService   services.QuestionService
	profileService    services.ProfileService
	contactService    services.ContactService
	advisorService    services.AdvisorService
}

// NewAPIHandler creates a new APIHandler with necessary dependencies.
func NewAPIHandler(
	resultsService services.ResultsService,
	completionService services.CompletionService,
	insightsService services.InsightsService,
	questionService services.QuestionService,
	profileService services.ProfileService,
	contactService services.ContactService,
	advisorService services.AdvisorService,
) *APIHandler {
	return &APIHandler{
		resultsService:    resultsService,
		completionService: completionService,
		insightsService:   insightsService,
		questionService:   questionService,
		profileService:    profileService,
		contactService:    contactService,
		advisorService:    advisorService,
	}
}

// currentUserID returns the authenticated user id set by the Auth middleware.
func currentUserID(c *gin.Context) string {
	userID, _ := c.Get(middleware.CtxUserID)
	id, _ := userID.(string)
	return id
}

// forwardCtx returns a request context carrying the caller's own bearer token,
// so backend calls made on the user's behalf run with the user's identity.
func forwardCtx(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if raw, ok := c.Get(middleware.CtxBearerToken); ok {
		if token, ok := raw.(string); ok && token != "" {
			ctx = clients.WithBearerToken(ctx, token)
		}
	}
	return ctx
}
