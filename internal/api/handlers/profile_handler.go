package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/hirelink/internal/services"
	"github.com/yoockh/hirelink/internal/utils"
)

type ProfileHandler struct {
	accounts services.AccountService
	resumes  services.ResumeService
}

func NewProfileHandler(accounts services.AccountService, resumes services.ResumeService) *ProfileHandler {
	return &ProfileHandler{accounts: accounts, resumes: resumes}
}

func (h *ProfileHandler) Me(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	acc, err := h.accounts.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

type UpdateProfileRequest struct {
	Name      *string `json:"name,omitempty"`
	Age       *int    `json:"age,omitempty"`
	Education *string `json:"education,omitempty"`
	Skills    *string `json:"skills,omitempty"`
}

// Update accepts JSON or a multipart form with an optional "resume" file.
func (h *ProfileHandler) Update(c *gin.Context) {
	const op = "ProfileHandler.Update"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		var err error
		if req, err = profileFromForm(c); err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid form", err))
			return
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, invalidBody(op, err))
		return
	}

	resumeURL, err := uploadResume(c, h.resumes, userID)
	if err != nil {
		writeError(c, err)
		return
	}

	acc, err := h.accounts.UpdateProfile(c.Request.Context(), userID, services.ProfileInput{
		Name:      req.Name,
		Age:       req.Age,
		Education: req.Education,
		Skills:    req.Skills,
		ResumeURL: resumeURL,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

func profileFromForm(c *gin.Context) (UpdateProfileRequest, error) {
	var req UpdateProfileRequest
	if v, ok := c.GetPostForm("name"); ok {
		req.Name = &v
	}
	if v, ok := c.GetPostForm("education"); ok {
		req.Education = &v
	}
	if v, ok := c.GetPostForm("skills"); ok {
		req.Skills = &v
	}
	if v, ok := c.GetPostForm("age"); ok && strings.TrimSpace(v) != "" {
		age, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return req, err
		}
		req.Age = &age
	}
	return req, nil
}
