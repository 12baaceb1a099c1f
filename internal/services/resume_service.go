package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/yoockh/hirelink/internal/storage"
	"github.com/yoockh/hirelink/internal/utils"
)

var resumeTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

type ResumeService interface {
	// Upload stores a resume for ownerID and returns its reference.
	Upload(ctx context.Context, ownerID, fileName string, size int64, r io.Reader) (string, error)
}

type resumeService struct {
	uploader storage.Uploader
	maxBytes int64
}

func NewResumeService(uploader storage.Uploader, maxBytes int64) ResumeService {
	return &resumeService{uploader: uploader, maxBytes: maxBytes}
}

func (s *resumeService) Upload(ctx context.Context, ownerID, fileName string, size int64, r io.Reader) (string, error) {
	const op = "ResumeService.Upload"

	if ownerID == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "owner id is required", nil)
	}
	ext := strings.ToLower(path.Ext(fileName))
	contentType, ok := resumeTypes[ext]
	if !ok {
		return "", utils.E(utils.CodeInvalidArgument, op, "resume must be a .pdf, .doc or .docx file", nil)
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return "", utils.E(utils.CodeInvalidArgument, op, fmt.Sprintf("resume exceeds %d bytes", s.maxBytes), nil)
	}
	if s.uploader == nil {
		return "", utils.E(utils.CodeUnavailable, op, "resume storage is not configured", nil)
	}

	object := fmt.Sprintf("resumes/%s/%s%s", ownerID, uuid.NewString(), ext)
	url, err := s.uploader.Upload(ctx, object, contentType, r)
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "failed to upload resume", err)
	}
	return url, nil
}
