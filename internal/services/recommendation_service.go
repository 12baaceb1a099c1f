package services

import (
	"context"
	"errors"

	"github.com/yoockh/hirelink/internal/matching"
	"github.com/yoockh/hirelink/internal/models"
	mongorepo "github.com/yoockh/hirelink/internal/repositories/mongo"
	pgrepo "github.com/yoockh/hirelink/internal/repositories/postgres"
	"github.com/yoockh/hirelink/internal/utils"
)

const DefaultRecommendationLimit = 10

type RecommendationService interface {
	Recommend(ctx context.Context, applicantID string) ([]models.PostingSummary, error)
}

type recommendationService struct {
	accounts     pgrepo.AccountRepository
	postings     mongorepo.PostingRepository
	applications mongorepo.ApplicationRepository
	limit        int
}

func NewRecommendationService(
	accounts pgrepo.AccountRepository,
	postings mongorepo.PostingRepository,
	applications mongorepo.ApplicationRepository,
	limit int,
) RecommendationService {
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}
	return &recommendationService{accounts: accounts, postings: postings, applications: applications, limit: limit}
}

// Recommend returns active postings, newest first, sharing at least one
// skill with the applicant and not owned by them. Each carries a display
// match score; it does not affect membership or order.
func (s *recommendationService) Recommend(ctx context.Context, applicantID string) ([]models.PostingSummary, error) {
	const op = "RecommendationService.Recommend"

	if applicantID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "applicant id is required", nil)
	}
	acc, err := s.accounts.GetByID(ctx, applicantID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "account not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load account", err)
	}

	skills := acc.SkillSet()
	if skills.Len() == 0 {
		return []models.PostingSummary{}, nil
	}

	rows, err := s.postings.Recommend(ctx, skills.Keys(), applicantID, int64(s.limit))
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to find postings", err)
	}

	candidates := rows[:0]
	for _, p := range rows {
		if eligible(p, applicantID, skills) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) > s.limit {
		candidates = candidates[:s.limit]
	}

	out, err := summarize(ctx, s.applications, candidates)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count applicants", err)
	}
	for i := range out {
		score := matching.Score(skills, out[i].RequiredSkills())
		out[i].MatchScore = &score
	}
	return out, nil
}

func eligible(p models.Posting, applicantID string, skills matching.SkillSet) bool {
	return p.Status == models.PostingActive &&
		p.OwnerID != applicantID &&
		p.RequiredSkills().Intersects(skills)
}
