package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/hirelink/internal/services"
	"github.com/yoockh/hirelink/internal/utils"
)

type ApplicationHandler struct {
	apps     services.ApplicationService
	recs     services.RecommendationService
	accounts services.AccountService
	resumes  services.ResumeService
}

func NewApplicationHandler(
	apps services.ApplicationService,
	recs services.RecommendationService,
	accounts services.AccountService,
	resumes services.ResumeService,
) *ApplicationHandler {
	return &ApplicationHandler{apps: apps, recs: recs, accounts: accounts, resumes: resumes}
}

type ApplyRequest struct {
	Name        string `form:"name" json:"name"`
	Email       string `form:"email" json:"email"`
	Skills      string `form:"skills" json:"skills"`
	ReadyToJoin string `form:"readyToJoin" json:"readyToJoin"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

// Apply accepts multipart (with an optional "resume" file) or JSON. Without
// an uploaded file the account's stored resume is used.
func (h *ApplicationHandler) Apply(c *gin.Context) {
	const op = "ApplicationHandler.Apply"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req ApplyRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, invalidBody(op, err))
		return
	}

	resumeURL, err := uploadResume(c, h.resumes, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	if resumeURL == "" {
		acc, err := h.accounts.Get(c.Request.Context(), userID)
		if err != nil {
			writeError(c, err)
			return
		}
		resumeURL = acc.ResumeURL
	}
	if strings.TrimSpace(resumeURL) == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "resume file is required", nil))
		return
	}

	app, err := h.apps.Apply(c.Request.Context(), userID, c.Param("id"), services.ApplyInput{
		Name:        req.Name,
		Email:       req.Email,
		Skills:      req.Skills,
		ReadyToJoin: req.ReadyToJoin,
		ResumeURL:   resumeURL,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

func (h *ApplicationHandler) MyApplications(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	rows, err := h.apps.ListForApplicant(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *ApplicationHandler) Recommended(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	rows, err := h.recs.Recommend(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *ApplicationHandler) ListApplicants(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	rows, err := h.apps.ListForPosting(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *ApplicationHandler) SetStatus(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, invalidBody("ApplicationHandler.SetStatus", err))
		return
	}
	app, err := h.apps.SetStatus(c.Request.Context(), userID, c.Param("id"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}
