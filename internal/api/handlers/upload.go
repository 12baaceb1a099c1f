package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/hirelink/internal/services"
	"github.com/yoockh/hirelink/internal/utils"
)

const resumeField = "resume"

// uploadResume stores the optional multipart "resume" file and returns its
// reference, or "" when the request carries no file.
func uploadResume(c *gin.Context, resumes services.ResumeService, ownerID string) (string, error) {
	const op = "handlers.uploadResume"

	fh, err := c.FormFile(resumeField)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", nil
	}
	if err != nil {
		return "", utils.E(utils.CodeInvalidArgument, op, "invalid multipart field 'resume'", err)
	}
	if fh.Size <= 0 {
		return "", utils.E(utils.CodeInvalidArgument, op, "resume file is empty", nil)
	}

	f, err := fh.Open()
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to open upload", err)
	}
	defer f.Close()

	return resumes.Upload(c.Request.Context(), ownerID, fh.Filename, fh.Size, f)
}
