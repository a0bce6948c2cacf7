package controller

import (
	"context"
	"strconv"

	"codejudge/internal/common/http/middleware"
	"codejudge/internal/judge/model"
	"codejudge/internal/judge/sandbox/profile"
	"codejudge/internal/judge/service"
	"codejudge/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// JudgeService is the service surface the HTTP layer needs.
type JudgeService interface {
	Run(ctx context.Context, req service.RunRequest) (service.RunResult, error)
	Submit(ctx context.Context, req service.SubmitRequest) (model.SubmissionVerdict, error)
	GetStatus(ctx context.Context, submissionID string) (model.JudgeStatus, error)
	GetSubmission(ctx context.Context, submissionID string) (*model.Submission, error)
	GetProblem(ctx context.Context, problemID int64) (model.Problem, error)
	Languages(ctx context.Context) []profile.LanguageSpec
}

// JudgeController handles run, submit and lookup requests.
type JudgeController struct {
	svc JudgeService
}

// NewJudgeController creates a new controller.
func NewJudgeController(svc JudgeService) *JudgeController {
	return &JudgeController{svc: svc}
}

// RegisterRoutes mounts the judge API on group. Submit goes through authMW.
func (h *JudgeController) RegisterRoutes(group *gin.RouterGroup, authMW gin.HandlerFunc) {
	group.POST("/run", h.Run)
	group.POST("/submit", authMW, h.Submit)
	group.GET("/submissions/:id/status", h.GetStatus)
	group.GET("/submissions/:id", h.GetSubmission)
	group.GET("/problems/:id", h.GetProblem)
	group.GET("/languages", h.Languages)
}

// Run executes code once with custom input.
func (h *JudgeController) Run(c *gin.Context) {
	var req service.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	res, err := h.svc.Run(c.Request.Context(), req)
	if err != nil {
		if res.Error != "" {
			response.ErrorWithData(c, err, res)
			return
		}
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Submit judges code against a problem's test cases.
func (h *JudgeController) Submit(c *gin.Context) {
	var req service.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	req.UserID = middleware.UserID(c)
	verdict, err := h.svc.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, verdict)
}

// GetStatus returns the live status for one submission.
func (h *JudgeController) GetStatus(c *gin.Context) {
	submissionID := c.Param("id")
	if submissionID == "" {
		response.BadRequest(c, "Invalid submission id")
		return
	}
	status, err := h.svc.GetStatus(c.Request.Context(), submissionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, status)
}

// GetSubmission returns a persisted submission.
func (h *JudgeController) GetSubmission(c *gin.Context) {
	submissionID := c.Param("id")
	if submissionID == "" {
		response.BadRequest(c, "Invalid submission id")
		return
	}
	sub, err := h.svc.GetSubmission(c.Request.Context(), submissionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, sub)
}

func (h *JudgeController) GetProblem(c *gin.Context) {
	problemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || problemID <= 0 {
		response.BadRequest(c, "Invalid problem id")
		return
	}
	problem, err := h.svc.GetProblem(c.Request.Context(), problemID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, problem)
}

func (h *JudgeController) Languages(c *gin.Context) {
	response.Success(c, h.svc.Languages(c.Request.Context()))
}
