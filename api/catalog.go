package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"careercompass/models"
	"careercompass/utils"
)

// ListTestsHandler returns the questionnaire catalog.
func (h *APIHandler) ListTestsHandler(c *gin.Context) {
	tests, err := h.questionService.ListTests(c.Request.Context())
	if err != nil {
		utils.SendJSONError(c, http.StatusBadGateway, "Could not load the test catalog.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tests": tests})
}

// GetQuestionsHandler returns the questions of one test.
func (h *APIHandler) GetQuestionsHandler(c *gin.Context) {
	testID := c.Param("testID")
	questions, err := h.questionService.GetQuestions(c.Request.Context(), testID)
	if err != nil {
		utils.SendJSONError(c, http.StatusBadGateway, "Could not load the questions for this test.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

// --- Admin: test and question management ---

func (h *APIHandler) AdminCreateTestHandler(c *gin.Context) {
	var req models.TestUpsert
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid test payload.", err)
		return
	}
	test, err := h.questionService.CreateTest(forwardCtx(c), req)
	if err != nil {
		utils.SendJSONError(c, http.StatusBadGateway, "Could not create the test.", err)
		return
	}
	c.JSON(http.StatusCreated, test)
}

func (h *APIHandler) AdminUpdateTestHandler(c *gin.Context) {
	var req models.TestUpsert
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid test payload.", err)
		return
	}
	test, err := h.questionService.UpdateTest(forwardCtx(c), c.Param("testID"), req)
	if err != nil {
		utils.SendJSONError(c, http.StatusBadGateway, "Could not update the test.", err)
		return
	}
	c.JSON(http.StatusOK, test)
}

func (h *APIHandler) AdminDeleteTestHandler(c *gin.Context) {
	if err := h.questionService.DeleteTest(forwardCtx(c), c.Param("testID")); err != nil {
		utils.SendJSONError(c, http.StatusBadGateway, "Could not delete the test.", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *APIHandler) AdminCreateQuestionHandler(c *gin.Context) {
	var req models.QuestionUpsert
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid question payload.", err)
		return
	}
	question, err := h.questionService.CreateQuestion(forwardCtx(c), req)
	if err != nil {
		utils.SendJSONError(c, http.StatusBadGateway, "Could not create the question.", err)
		return
	}
	c.JSON(http.StatusCreated, question)
}

func (h *APIHandler) AdminUpdateQuestionHandler(c *gin.Context) {
	var req models.QuestionUpsert
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid question payload.", err)
		return
	}
	question, err := h.questionService.UpdateQuestion(forwardCtx(c), c.Param("questionID"), req)
	if err != nil {
		utils.SendJSONError(c, http.StatusBadGateway, "Could not update the question.", err)
		return
	}
	c.JSON(http.StatusOK, question)
}

func (h *APIHandler) AdminDeleteQuestionHandler(c *gin.Context) {
	if err := h.questionService.DeleteQuestion(forwardCtx(c), c.Param("questionID")); err != nil {
		utils.SendJSONError(c, http.StatusBadGateway, "Could not delete the question.", err)
		return
	}
	c.Status(http.StatusNoContent)
}
