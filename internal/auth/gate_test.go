package auth

import (
	"testing"

	"github.com/yoockh/hirelink/internal/models"
	"github.com/yoockh/hirelink/internal/utils"
)

func TestAuthorize(t *testing.T) {
	applicant := &Identity{AccountID: "a1", Role: models.RoleApplicant}
	recruiter := &Identity{AccountID: "r1", Role: models.RoleRecruiter}

	tests := []struct {
		name     string
		id       *Identity
		required models.Role
		code     utils.Code
	}{
		{name: "absent identity any role", id: nil, required: AnyRole, code: utils.CodeUnauthorized},
		{name: "absent identity applicant", id: nil, required: models.RoleApplicant, code: utils.CodeUnauthorized},
		{name: "empty account id", id: &Identity{Role: models.RoleApplicant}, required: AnyRole, code: utils.CodeUnauthorized},
		{name: "applicant on any", id: applicant, required: AnyRole},
		{name: "recruiter on any", id: recruiter, required: AnyRole},
		{name: "applicant on applicant", id: applicant, required: models.RoleApplicant},
		{name: "recruiter on recruiter", id: recruiter, required: models.RoleRecruiter},
		{name: "applicant on recruiter", id: applicant, required: models.RoleRecruiter, code: utils.CodeForbidden},
		{name: "recruiter on applicant", id: recruiter, required: models.RoleApplicant, code: utils.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Authorize(tt.id, tt.required)
			if tt.code == "" {
				if err != nil {
					t.Fatalf("expected allowed, got %v", err)
				}
				if got.AccountID != tt.id.AccountID {
					t.Fatalf("expected identity %q, got %q", tt.id.AccountID, got.AccountID)
				}
				return
			}
			if !utils.IsCode(err, tt.code) {
				t.Fatalf("expected %s, got %v", tt.code, err)
			}
		})
	}
}
