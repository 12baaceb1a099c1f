package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yoockh/hirelink/internal/matching"
)

type WorkMode string

const (
	WorkModeOnSite WorkMode = "On-site"
	WorkModeRemote WorkMode = "Remote"
	WorkModeHybrid WorkMode = "Hybrid"
)

func ParseWorkMode(s string) (WorkMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on-site", "onsite", "on site":
		return WorkModeOnSite, nil
	case "remote":
		return WorkModeRemote, nil
	case "hybrid":
		return WorkModeHybrid, nil
	default:
		return "", fmt.Errorf("unknown work mode %q", s)
	}
}

type PostingStatus string

const (
	PostingActive PostingStatus = "Active"
	PostingClosed PostingStatus = "Closed"
)

func ParsePostingStatus(s string) (PostingStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active":
		return PostingActive, nil
	case "closed":
		return PostingClosed, nil
	default:
		return "", fmt.Errorf("unknown posting status %q", s)
	}
}

type Posting struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID     string             `bson:"owner_id" json:"owner_id"`
	Title       string             `bson:"title" json:"title"`
	Company     string             `bson:"company" json:"company"`
	Description string             `bson:"description" json:"description"`
	Salary      float64            `bson:"salary" json:"salary"`
	RoleType    string             `bson:"role_type" json:"role_type"`
	WorkMode    WorkMode           `bson:"work_mode" json:"work_mode"`
	Location    string             `bson:"location" json:"location"`

	// Tags keeps display spelling; TagKeys is the normalized copy used for lookups.
	Tags    []string `bson:"tags" json:"tags"`
	TagKeys []string `bson:"tag_keys" json:"-"`

	Status PostingStatus `bson:"status" json:"status"`

	// Cached counter, reconciled from applications. Not authoritative.
	ApplicantCounter int64 `bson:"applicants" json:"applicant_counter"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// SetTags stores labels and refreshes the normalized keys.
func (p *Posting) SetTags(labels []string) {
	p.Tags = labels
	p.TagKeys = matching.NewSkillSet(labels...).Keys()
}

func (p *Posting) RequiredSkills() matching.SkillSet {
	return matching.NewSkillSet(p.Tags...)
}

// PostingSummary is a posting annotated for listing.
type PostingSummary struct {
	Posting
	Applicants int64 `json:"applicants"`
	MatchScore *int  `json:"match_score,omitempty"`
}

type DashboardStats struct {
	TotalJobs       int   `json:"total_jobs"`
	TotalApplicants int64 `json:"total_applicants"`
	Shortlisted     int64 `json:"shortlisted"`
}

// ApplicationTally summarizes the applications stored for one posting.
type ApplicationTally struct {
	Count  int64
	LastAt time.Time
}

// PostingCounter pairs a posting with its cached applicant count.
type PostingCounter struct {
	ID               primitive.ObjectID `bson:"_id"`
	ApplicantCounter int64              `bson:"applicants"`
}
