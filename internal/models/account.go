package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"

	"github.com/yoockh/hirelink/internal/matching"
)

type Role string

const (
	RoleApplicant Role = "applicant"
	RoleRecruiter Role = "recruiter"
)

// ParseRole accepts the canonical role names plus the "jobseeker" alias
// used by older clients.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "applicant", "jobseeker", "job_seeker":
		return RoleApplicant, nil
	case "recruiter":
		return RoleRecruiter, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleApplicant, RoleRecruiter:
		return true
	default:
		return false
	}
}

type Account struct {
	ID           string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name         string `gorm:"column:name;type:text" json:"name"`
	Email        string `gorm:"column:email;type:text" json:"email"`
	PasswordHash string `gorm:"column:password_hash;type:text" json:"-"`
	Role         Role   `gorm:"column:role;type:text" json:"role"`
	Company      string `gorm:"column:company;type:text" json:"company,omitempty"`

	// stored normalized
	Skills pq.StringArray `gorm:"column:skills;type:text[]" json:"skills"`

	Age       int            `gorm:"column:age;type:integer" json:"age,omitempty"`
	Education datatypes.JSON `gorm:"column:education;type:jsonb" json:"education,omitempty"`
	ResumeURL string         `gorm:"column:resume_url;type:text" json:"resume_url,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Account) TableName() string { return "accounts" }

func (a *Account) SkillSet() matching.SkillSet {
	return matching.NewSkillSet(a.Skills...)
}
