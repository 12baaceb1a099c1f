package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ApplicationStatus string

const (
	StatusPending     ApplicationStatus = "Pending"
	StatusShortlisted ApplicationStatus = "Shortlisted"
	StatusRejected    ApplicationStatus = "Rejected"
)

// ParseDecision accepts the statuses a recruiter may set. Pending is not one.
func ParseDecision(s string) (ApplicationStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "shortlisted":
		return StatusShortlisted, nil
	case "rejected":
		return StatusRejected, nil
	default:
		return "", fmt.Errorf("invalid status %q", s)
	}
}

type ReadyToJoin string

const (
	ReadyYes ReadyToJoin = "Yes"
	ReadyNo  ReadyToJoin = "No"
)

func ParseReadyToJoin(s string) (ReadyToJoin, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes":
		return ReadyYes, nil
	case "no":
		return ReadyNo, nil
	default:
		return "", fmt.Errorf("readyToJoin must be Yes or No, got %q", s)
	}
}

type Application struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ApplicantID string             `bson:"applicant_id" json:"applicant_id"`
	PostingID   primitive.ObjectID `bson:"posting_id" json:"posting_id"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	Skills      string             `bson:"skills" json:"skills"`
	ReadyToJoin ReadyToJoin        `bson:"ready_to_join" json:"ready_to_join"`
	ResumeURL   string             `bson:"resume_url" json:"resume_url"`
	MatchScore  int                `bson:"match_score" json:"match_score"`
	Status      ApplicationStatus  `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// Placeholders shown when an application's posting no longer exists.
const (
	DeletedPostingTitle   = "Job Deleted"
	DeletedPostingCompany = "N/A"
)

// ApplicationSummary is the applicant-facing view of one application.
type ApplicationSummary struct {
	ID         primitive.ObjectID `json:"id"`
	PostingID  primitive.ObjectID `json:"posting_id"`
	JobTitle   string             `json:"job_title"`
	Company    string             `json:"company"`
	Status     ApplicationStatus  `json:"status"`
	MatchScore int                `json:"match_score"`
	CreatedAt  time.Time          `json:"applied_at"`
}

// ApplicationEvent is published whenever an application is created or decided.
type ApplicationEvent struct {
	Type          string             `json:"type"`
	ApplicationID primitive.ObjectID `json:"application_id"`
	PostingID     primitive.ObjectID `json:"posting_id"`
	ApplicantID   string             `json:"applicant_id"`
	Status        ApplicationStatus  `json:"status"`
	MatchScore    int                `json:"match_score"`
	At            time.Time          `json:"at"`
}

const (
	EventApplicationCreated = "application_created"
	EventApplicationDecided = "application_status"
)
