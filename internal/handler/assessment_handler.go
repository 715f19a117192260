package handler

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/talentprobe/talentprobe-backend/internal/model"
	"github.com/talentprobe/talentprobe-backend/internal/response"
	"github.com/talentprobe/talentprobe-backend/internal/service"
	"github.com/talentprobe/talentprobe-backend/internal/validator"
)

// AssessmentHandler handles test and question management endpoints.
type AssessmentHandler struct {
	assessments *service.AssessmentService
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(assessments *service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments}
}

// ListTests godoc
// GET /api/v1/org/tests
func (h *AssessmentHandler) ListTests(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	tests, err := h.assessments.Tests(c.Request.Context(), claims.OrganizationID)
	if err != nil {
		failStoreErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"tests": tests})
}

// CreateTest godoc
// POST /api/v1/org/tests
func (h *AssessmentHandler) CreateTest(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	var req model.CreateTestRequest
	if !validator.Bind(c, &req) {
		return
	}

	test, err := h.assessments.CreateTest(c.Request.Context(), claims.OrganizationID, claims.UserID, req)
	if err != nil {
		failStoreErr(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"test": test})
}

// GetTest godoc
// GET /api/v1/org/tests/:test_id
func (h *AssessmentHandler) GetTest(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	testID, ok := paramID(c, "test_id")
	if !ok {
		return
	}

	test, err := h.assessments.Test(c.Request.Context(), claims.OrganizationID, testID)
	if err != nil {
		failStoreErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"test": test})
}

// UpdateTest godoc
// PATCH /api/v1/org/tests/:test_id
func (h *AssessmentHandler) UpdateTest(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	testID, ok := paramID(c, "test_id")
	if !ok {
		return
	}

	var req model.UpdateTestRequest
	if !validator.Bind(c, &req) {
		return
	}

	test, err := h.assessments.UpdateTest(c.Request.Context(), claims.OrganizationID, testID, req)
	if err != nil {
		failStoreErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"test": test})
}

// DeleteTest godoc
// DELETE /api/v1/org/tests/:test_id
// Removes a test together with its questions, sessions and answers.
func (h *AssessmentHandler) DeleteTest(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	testID, ok := paramID(c, "test_id")
	if !ok {
		return
	}

	if err := h.assessments.DeleteTest(c.Request.Context(), claims.OrganizationID, testID); err != nil {
		failStoreErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// ListQuestions godoc
// GET /api/v1/org/tests/:test_id/questions
// The recruiter view: correct answers included.
func (h *AssessmentHandler) ListQuestions(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	testID, ok := paramID(c, "test_id")
	if !ok {
		return
	}

	questions, err := h.assessments.QuestionsByTest(c.Request.Context(), claims.OrganizationID, testID)
	if err != nil {
		failStoreErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// CreateQuestion godoc
// POST /api/v1/org/tests/:test_id/questions
func (h *AssessmentHandler) CreateQuestion(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	testID, ok := paramID(c, "test_id")
	if !ok {
		return
	}

	var req model.CreateQuestionRequest
	if !validator.Bind(c, &req) {
		return
	}

	question, err := h.assessments.CreateQuestion(c.Request.Context(), claims.OrganizationID, testID, req)
	if err != nil {
		failStoreErr(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// UpdateQuestion godoc
// PATCH /api/v1/org/questions/:question_id
func (h *AssessmentHandler) UpdateQuestion(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	questionID, ok := paramID(c, "question_id")
	if !ok {
		return
	}

	var req model.UpdateQuestionRequest
	if !validator.Bind(c, &req) {
		return
	}

	question, err := h.assessments.UpdateQuestion(c.Request.Context(), claims.OrganizationID, questionID, req)
	if err != nil {
		failStoreErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// DeleteQuestion godoc
// DELETE /api/v1/org/questions/:question_id
func (h *AssessmentHandler) DeleteQuestion(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	questionID, ok := paramID(c, "question_id")
	if !ok {
		return
	}

	if err := h.assessments.DeleteQuestion(c.Request.Context(), claims.OrganizationID, questionID); err != nil {
		failStoreErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// ReorderQuestions godoc
// PUT /api/v1/org/tests/:test_id/questions/order
// Applies a complete new ordering; the id set must exactly match.
func (h *AssessmentHandler) ReorderQuestions(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	testID, ok := paramID(c, "test_id")
	if !ok {
		return
	}

	var req model.ReorderQuestionsRequest
	if !validator.Bind(c, &req) {
		return
	}

	if err := h.assessments.ReorderQuestions(c.Request.Context(), claims.OrganizationID, testID, req.QuestionIDs); err != nil {
		failStoreErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"reordered": true})
}

// ListResults godoc
// GET /api/v1/org/tests/:test_id/results
// Paginated session results with candidate identity attached.
func (h *AssessmentHandler) ListResults(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	testID, ok := paramID(c, "test_id")
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	results, total, err := h.assessments.Results(c.Request.Context(), claims.OrganizationID, testID, page, perPage)
	if err != nil {
		failStoreErr(c, err)
		return
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: int(math.Ceil(float64(total) / float64(perPage))),
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, pagination)
}

// SessionAnswers godoc
// GET /api/v1/org/sessions/:session_id/answers
// Graded answers of a session, for recruiter review.
func (h *AssessmentHandler) SessionAnswers(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	sessionID, ok := paramID(c, "session_id")
	if !ok {
		return
	}

	answers, err := h.assessments.SessionAnswers(c.Request.Context(), claims.OrganizationID, sessionID)
	if err != nil {
		failStoreErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"answers": answers})
}
