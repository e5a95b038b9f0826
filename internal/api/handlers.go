package api

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/meqenet/meqenet-back/internal/apierr"
	"github.com/meqenet/meqenet-back/internal/auth"
	"github.com/meqenet/meqenet-back/internal/excel"
	"github.com/meqenet/meqenet-back/internal/identity"
	"github.com/meqenet/meqenet-back/internal/ledger"
	"github.com/meqenet/meqenet-back/internal/logger"
	"github.com/meqenet/meqenet-back/internal/models"
)

var (
	errInvalidID       = apierr.Validation("invalid_id", "Path id must be a positive integer.")
	errMissingFile     = apierr.Validation("missing_file", "Upload an .xlsx file in the \"file\" field.")
	errForbiddenCPDGet = apierr.Forbidden("forbidden", "Unauthorized to view this progress.")
	errForbiddenCPDSet = apierr.Forbidden("forbidden", "Cannot update progress for another teacher.")
)

const staleMessage = "A newer record is already stored; this update was not applied."

type RosterUploader interface {
	ImportReader(ctx context.Context, r io.Reader, schoolID uint) (*excel.Result, error)
}

type Handlers struct {
	identity *identity.Service
	ledger   *ledger.Service
	gate     *auth.Gate
	roster   RosterUploader
	log      *logger.Logger
}

func NewHandlers(ids *identity.Service, ldg *ledger.Service, gate *auth.Gate, roster RosterUploader, log *logger.Logger) *Handlers {
	return &Handlers{identity: ids, ledger: ldg, gate: gate, roster: roster, log: log.With("service", "api")}
}

func claims(c *gin.Context) *auth.Claims {
	cl, _ := auth.ClaimsFromContext(c.Request.Context())
	return cl
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Status  string `json:"status" example:"OK"`
	Service string `json:"service" example:"Meqenet Backend"`
}

// Status godoc
// @Summary      Service status
// @Tags         system
// @Produce      json
// @Success      200 {object} StatusResponse
// @Router       /status [get]
func (h *Handlers) Status(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{Status: "OK", Service: "Meqenet Backend"})
}

// ListSchools godoc
// @Summary      List schools
// @Description  Public so new users can pick their school during registration
// @Tags         schools
// @Produce      json
// @Success      200 {array}  models.School
// @Failure      500 {object} apierr.Body
// @Router       /schools [get]
func (h *Handlers) ListSchools(c *gin.Context) {
	schools, err := h.identity.ListSchools(c.Request.Context())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, schools)
}

// GetMe godoc
// @Summary      Current user profile
// @Tags         user
// @Produce      json
// @Success      200 {object} models.User
// @Failure      401 {object} apierr.Body
// @Failure      404 {object} apierr.Body
// @Security     BearerAuth
// @Router       /me [get]
func (h *Handlers) GetMe(c *gin.Context) {
	user, err := h.identity.GetUser(c.Request.Context(), claims(c).UserID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type UpdateLanguageRequest struct {
	LanguagePreference string `json:"languagePreference" binding:"required" example:"Oromoo"`
}

// UpdateLanguage godoc
// @Summary      Update language preference
// @Description  Stores the preference and returns a token carrying it
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        body body     UpdateLanguageRequest true "Language"
// @Success      200  {object} auth.SessionResponse
// @Failure      400  {object} apierr.Body
// @Security     BearerAuth
// @Router       /me/language [patch]
func (h *Handlers) UpdateLanguage(c *gin.Context) {
	var req UpdateLanguageRequest
	if !bindJSON(c, h.log, &req, "languagePreference is required.") {
		return
	}
	user, err := h.identity.UpdateLanguage(c.Request.Context(), claims(c).UserID, req.LanguagePreference)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	session, err := h.gate.Reissue(user)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, auth.NewSessionResponse("Language preference updated.", session))
}

// ListLearners godoc
// @Summary      List learners of the caller's school
// @Tags         learners
// @Produce      json
// @Success      200 {array}  models.Learner
// @Failure      401 {object} apierr.Body
// @Security     BearerAuth
// @Router       /learners [get]
func (h *Handlers) ListLearners(c *gin.Context) {
	learners, err := h.identity.ListLearners(c.Request.Context(), claims(c).SchoolID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, learners)
}

type CreateLearnerRequest struct {
	FirstName        string `json:"firstName" binding:"required" example:"Abebe"`
	LastName         string `json:"lastName" example:"Kebede"`
	DateOfBirth      string `json:"dateOfBirth" example:"2016-09-11"`
	GradeLevel       int    `json:"gradeLevel" binding:"required" example:"3"`
	UniqueIdentifier string `json:"uniqueIdentifier" example:"AA-001"`
}

type LearnerResponse struct {
	Message string          `json:"message"`
	Learner *models.Learner `json:"learner"`
}

// CreateLearner godoc
// @Summary      Add a learner
// @Description  Registers a learner under the caller's school
// @Tags         learners
// @Accept       json
// @Produce      json
// @Param        body body     CreateLearnerRequest true "Learner"
// @Success      201  {object} LearnerResponse
// @Failure      400  {object} apierr.Body
// @Security     BearerAuth
// @Router       /learners [post]
func (h *Handlers) CreateLearner(c *gin.Context) {
	var req CreateLearnerRequest
	if !bindJSON(c, h.log, &req, "Missing required learner fields.") {
		return
	}
	learner, err := h.identity.CreateLearner(c.Request.Context(), identity.LearnerInput{
		SchoolID:         claims(c).SchoolID,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		DateOfBirth:      req.DateOfBirth,
		GradeLevel:       req.GradeLevel,
		UniqueIdentifier: req.UniqueIdentifier,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, LearnerResponse{Message: "Learner added successfully.", Learner: learner})
}

type ImportResponse struct {
	Message string `json:"message"`
	*excel.Result
}

// ImportLearners godoc
// @Summary      Import a learner roster
// @Description  Every sheet is imported into the caller's school; sheets named after another school id are rejected
// @Tags         learners
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Roster workbook (.xlsx)"
// @Success      200  {object} ImportResponse
// @Failure      400  {object} apierr.Body
// @Failure      403  {object} apierr.Body
// @Security     BearerAuth
// @Router       /learners/import [post]
func (h *Handlers) ImportLearners(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		fail(c, h.log, errMissingFile)
		return
	}
	file, err := header.Open()
	if err != nil {
		fail(c, h.log, errMissingFile)
		return
	}
	defer file.Close()

	res, err := h.roster.ImportReader(c.Request.Context(), file, claims(c).SchoolID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, ImportResponse{Message: "Roster imported.", Result: res})
}

// GetLearnerProgress godoc
// @Summary      Lesson progress of a learner
// @Tags         progress
// @Produce      json
// @Param        id  path     int true "Learner ID"
// @Success      200 {array}  models.LessonProgress
// @Failure      403 {object} apierr.Body
// @Failure      404 {object} apierr.Body
// @Security     BearerAuth
// @Router       /learners/{id}/progress [get]
func (h *Handlers) GetLearnerProgress(c *gin.Context) {
	learnerID, ok := pathID(c)
	if !ok {
		fail(c, h.log, errInvalidID)
		return
	}
	ctx := c.Request.Context()
	if _, err := h.identity.LearnerInSchool(ctx, learnerID, claims(c).SchoolID); err != nil {
		fail(c, h.log, err)
		return
	}
	progress, err := h.ledger.LessonProgress(ctx, learnerID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

type LessonProgressRequest struct {
	LessonID         string     `json:"lessonId" binding:"required" example:"amharic-fidel-1"`
	CompletionStatus string     `json:"completionStatus" binding:"required" example:"in-progress"`
	Score            *int       `json:"score" example:"80"`
	LastUpdated      *time.Time `json:"lastUpdated" example:"2026-03-01T09:00:00Z"`
}

// LessonProgressResponse.Applied is false when the stored record was newer
// than lastUpdated and was kept.
type LessonProgressResponse struct {
	Message  string                 `json:"message"`
	Applied  bool                   `json:"applied"`
	Progress *models.LessonProgress `json:"progress"`
}

// SyncLearnerProgress godoc
// @Summary      Sync lesson progress
// @Description  Idempotent upsert keyed on (learner, lesson); older lastUpdated values do not overwrite newer ones
// @Tags         progress
// @Accept       json
// @Produce      json
// @Param        id   path     int                   true "Learner ID"
// @Param        body body     LessonProgressRequest true "Progress"
// @Success      200  {object} LessonProgressResponse
// @Failure      400  {object} apierr.Body
// @Failure      403  {object} apierr.Body
// @Failure      404  {object} apierr.Body
// @Security     BearerAuth
// @Router       /learners/{id}/progress [post]
func (h *Handlers) SyncLearnerProgress(c *gin.Context) {
	learnerID, ok := pathID(c)
	if !ok {
		fail(c, h.log, errInvalidID)
		return
	}
	ctx := c.Request.Context()
	if _, err := h.identity.LearnerInSchool(ctx, learnerID, claims(c).SchoolID); err != nil {
		fail(c, h.log, err)
		return
	}
	var req LessonProgressRequest
	if !bindJSON(c, h.log, &req, "Missing required progress fields.") {
		return
	}
	progress, applied, err := h.ledger.SyncLesson(ctx, learnerID, ledger.Entry{
		ItemID: req.LessonID,
		Status: req.CompletionStatus,
		Score:  req.Score,
		At:     req.LastUpdated,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	msg := "Learner progress updated/synced successfully."
	if !applied {
		msg = staleMessage
	}
	c.JSON(http.StatusOK, LessonProgressResponse{Message: msg, Applied: applied, Progress: progress})
}

// GetCPDProgress godoc
// @Summary      CPD progress of a teacher
// @Description  Visible to the teacher and to Admins
// @Tags         progress
// @Produce      json
// @Param        id  path     int true "Teacher (user) ID"
// @Success      200 {array}  models.CPDProgress
// @Failure      403 {object} apierr.Body
// @Failure      404 {object} apierr.Body
// @Security     BearerAuth
// @Router       /teachers/{id}/cpd-progress [get]
func (h *Handlers) GetCPDProgress(c *gin.Context) {
	teacherID, ok := pathID(c)
	if !ok {
		fail(c, h.log, errInvalidID)
		return
	}
	caller := claims(c)
	if caller.UserID != teacherID && caller.Role != models.RoleAdmin {
		fail(c, h.log, errForbiddenCPDGet)
		return
	}
	ctx := c.Request.Context()
	if _, err := h.identity.GetUser(ctx, teacherID); err != nil {
		fail(c, h.log, err)
		return
	}
	progress, err := h.ledger.CPDProgress(ctx, teacherID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

type CPDProgressRequest struct {
	CPDModuleID      string     `json:"cpdModuleId" binding:"required" example:"cpd-inclusive-classrooms"`
	CompletionStatus string     `json:"completionStatus" binding:"required" example:"completed"`
	Score            *int       `json:"score" example:"92"`
	LastUpdated      *time.Time `json:"lastUpdated" example:"2026-03-01T09:00:00Z"`
}

type CPDProgressResponse struct {
	Message  string              `json:"message"`
	Applied  bool                `json:"applied"`
	Progress *models.CPDProgress `json:"progress"`
}

// SyncCPDProgress godoc
// @Summary      Sync CPD progress
// @Description  Only the teacher may write their own CPD progress
// @Tags         progress
// @Accept       json
// @Produce      json
// @Param        id   path     int                true "Teacher (user) ID"
// @Param        body body     CPDProgressRequest true "Progress"
// @Success      200  {object} CPDProgressResponse
// @Failure      400  {object} apierr.Body
// @Failure      403  {object} apierr.Body
// @Security     BearerAuth
// @Router       /teachers/{id}/cpd-progress [post]
func (h *Handlers) SyncCPDProgress(c *gin.Context) {
	teacherID, ok := pathID(c)
	if !ok {
		fail(c, h.log, errInvalidID)
		return
	}
	if claims(c).UserID != teacherID {
		fail(c, h.log, errForbiddenCPDSet)
		return
	}
	var req CPDProgressRequest
	if !bindJSON(c, h.log, &req, "Missing required CPD progress fields.") {
		return
	}
	progress, applied, err := h.ledger.SyncCPD(c.Request.Context(), teacherID, ledger.Entry{
		ItemID: req.CPDModuleID,
		Status: req.CompletionStatus,
		Score:  req.Score,
		At:     req.LastUpdated,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	msg := "CPD progress updated/synced successfully."
	if !applied {
		msg = staleMessage
	}
	c.JSON(http.StatusOK, CPDProgressResponse{Message: msg, Applied: applied, Progress: progress})
}
