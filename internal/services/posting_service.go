package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yoockh/hirelink/internal/cache"
	"github.com/yoockh/hirelink/internal/matching"
	"github.com/yoockh/hirelink/internal/metrics"
	"github.com/yoockh/hirelink/internal/models"
	mongorepo "github.com/yoockh/hirelink/internal/repositories/mongo"
	pgrepo "github.com/yoockh/hirelink/internal/repositories/postgres"
	"github.com/yoockh/hirelink/internal/utils"
)

// PostingInput holds posting fields as submitted. On update, empty strings
// and nil pointers keep the stored value.
type PostingInput struct {
	Title       string
	Description string
	RoleType    string
	WorkMode    string
	Location    string
	Tags        *string
	Salary      *float64
	Status      string
}

type PostingService interface {
	Create(ctx context.Context, recruiterID string, in PostingInput) (*models.Posting, error)
	Update(ctx context.Context, recruiterID, postingID string, in PostingInput) (*models.Posting, error)
	Get(ctx context.Context, postingID string) (*models.Posting, error)
	Search(ctx context.Context, f mongorepo.PostingFilter) ([]models.PostingSummary, error)
	ListMine(ctx context.Context, recruiterID string) ([]models.PostingSummary, error)
	Stats(ctx context.Context, recruiterID string) (*models.DashboardStats, error)
	// ReconcileApplicantCounts rewrites every drifted applicant counter from
	// the application rows and returns how many postings were corrected.
	// Postings that received an application within settle are left for a
	// later run, since that application's increment may still be in flight.
	ReconcileApplicantCounts(ctx context.Context, settle time.Duration) (int, error)
}

// DefaultReconcileSettle must stay well above counterWriteTimeout so that an
// apply's increment has landed or failed before its posting is reconciled.
const DefaultReconcileSettle = 5 * time.Minute

type postingService struct {
	postings     mongorepo.PostingRepository
	applications mongorepo.ApplicationRepository
	accounts     pgrepo.AccountRepository
	cache        cache.Cache
	cacheTTL     time.Duration
	metrics      *metrics.Recorder
	log          *logrus.Logger
	now          func() time.Time
}

func NewPostingService(
	postings mongorepo.PostingRepository,
	applications mongorepo.ApplicationRepository,
	accounts pgrepo.AccountRepository,
	c cache.Cache,
	cacheTTL time.Duration,
	rec *metrics.Recorder,
	log *logrus.Logger,
) PostingService {
	if c == nil {
		c = cache.Noop{}
	}
	return &postingService{
		postings:     postings,
		applications: applications,
		accounts:     accounts,
		cache:        c,
		cacheTTL:     cacheTTL,
		metrics:      rec,
		log:          log,
		now:          time.Now,
	}
}

func (s *postingService) Create(ctx context.Context, recruiterID string, in PostingInput) (*models.Posting, error) {
	const op = "PostingService.Create"

	if recruiterID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "recruiter id is required", nil)
	}
	acc, err := s.accounts.GetByID(ctx, recruiterID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "recruiter account not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load recruiter", err)
	}
	if acc.Company == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "recruiter account has no company", nil)
	}

	p := &models.Posting{OwnerID: recruiterID, Company: acc.Company, Status: models.PostingActive}
	if err := applyPostingInput(p, in, true); err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, err.Error(), err)
	}
	if err := s.postings.Create(ctx, p); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create posting", err)
	}

	s.log.WithFields(logrus.Fields{"posting_id": p.ID.Hex(), "owner_id": recruiterID}).Info("posting created")
	return p, nil
}

func (s *postingService) Update(ctx context.Context, recruiterID, postingID string, in PostingInput) (*models.Posting, error) {
	const op = "PostingService.Update"

	p, err := s.load(ctx, op, postingID)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != recruiterID {
		return nil, utils.E(utils.CodeNotOwner, op, "only the posting owner can update it", nil)
	}
	if err := applyPostingInput(p, in, false); err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, err.Error(), err)
	}
	if err := s.postings.Update(ctx, p); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "posting not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to update posting", err)
	}
	s.invalidate(ctx, p.ID.Hex())
	return p, nil
}

func (s *postingService) Get(ctx context.Context, postingID string) (*models.Posting, error) {
	const op = "PostingService.Get"

	key := cache.PostingKey(postingID)
	logc := s.log.WithField("posting_id", postingID)
	var cached models.Posting
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	} else if err != nil {
		logc.WithError(err).Warn("posting cache read failed")
	}

	version, verr := s.cache.Version(ctx, key)
	if verr != nil {
		logc.WithError(verr).Warn("posting cache version read failed")
	}
	p, err := s.load(ctx, op, postingID)
	if err != nil {
		return nil, err
	}
	if verr == nil {
		if _, err := s.cache.SetJSONAt(ctx, key, version, p, s.cacheTTL); err != nil {
			logc.WithError(err).Warn("posting cache write failed")
		}
	}
	return p, nil
}

func (s *postingService) Search(ctx context.Context, f mongorepo.PostingFilter) ([]models.PostingSummary, error) {
	const op = "PostingService.Search"

	rows, err := s.postings.Search(ctx, f)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to search postings", err)
	}
	out, err := summarize(ctx, s.applications, rows)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count applicants", err)
	}
	return out, nil
}

func (s *postingService) ListMine(ctx context.Context, recruiterID string) ([]models.PostingSummary, error) {
	const op = "PostingService.ListMine"

	if recruiterID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "recruiter id is required", nil)
	}
	rows, err := s.postings.ListByOwner(ctx, recruiterID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list postings", err)
	}
	out, err := summarize(ctx, s.applications, rows)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count applicants", err)
	}
	return out, nil
}

func (s *postingService) Stats(ctx context.Context, recruiterID string) (*models.DashboardStats, error) {
	const op = "PostingService.Stats"

	if recruiterID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "recruiter id is required", nil)
	}
	rows, err := s.postings.ListByOwner(ctx, recruiterID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list postings", err)
	}
	stats := &models.DashboardStats{TotalJobs: len(rows)}
	if len(rows) == 0 {
		return stats, nil
	}

	ids := postingIDs(rows)
	if stats.TotalApplicants, err = s.applications.Count(ctx, mongorepo.ApplicationFilter{PostingIDs: ids}); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count applicants", err)
	}
	if stats.Shortlisted, err = s.applications.Count(ctx, mongorepo.ApplicationFilter{
		PostingIDs: ids,
		Status:     models.StatusShortlisted,
	}); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count shortlisted", err)
	}
	return stats, nil
}

func (s *postingService) ReconcileApplicantCounts(ctx context.Context, settle time.Duration) (int, error) {
	const op = "PostingService.ReconcileApplicantCounts"

	if settle <= 0 {
		settle = DefaultReconcileSettle
	}
	// Counters are read before the tallies. An apply inserted after the
	// tally is not counted there, and its increment lands on top of the
	// repaired value.
	counters, err := s.postings.ListCounters(ctx)
	if err != nil {
		return 0, utils.E(utils.CodeInternal, op, "failed to list postings", err)
	}
	tallies, err := s.applications.TallyByPosting(ctx)
	if err != nil {
		return 0, utils.E(utils.CodeInternal, op, "failed to count applications", err)
	}
	cutoff := s.now().Add(-settle)

	fixed := 0
	for _, c := range counters {
		tally := tallies[c.ID]
		if c.ApplicantCounter == tally.Count {
			continue
		}
		fields := logrus.Fields{
			"posting_id": c.ID.Hex(),
			"cached":     c.ApplicantCounter,
			"actual":     tally.Count,
		}
		if tally.LastAt.After(cutoff) {
			s.log.WithFields(fields).Info("applicant counter left for a later run; recent applications")
			continue
		}
		swapped, err := s.postings.SwapApplicants(ctx, c.ID, c.ApplicantCounter, tally.Count)
		if err != nil {
			return fixed, utils.E(utils.CodeInternal, op, "failed to repair counter", err)
		}
		if !swapped {
			s.log.WithFields(fields).Info("applicant counter changed during reconcile; skipped")
			continue
		}
		s.log.WithFields(fields).Warn("applicant counter repaired")
		s.invalidate(ctx, c.ID.Hex())
		fixed++
	}
	s.metrics.CounterRepaired(fixed)
	return fixed, nil
}

func (s *postingService) load(ctx context.Context, op, postingID string) (*models.Posting, error) {
	id, err := primitive.ObjectIDFromHex(postingID)
	if err != nil {
		return nil, utils.E(utils.CodeNotFound, op, "posting not found", utils.ErrNotFound)
	}
	p, err := s.postings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "posting not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load posting", err)
	}
	return p, nil
}

func (s *postingService) invalidate(ctx context.Context, postingID string) {
	if err := s.cache.Invalidate(ctx, cache.PostingKey(postingID)); err != nil {
		s.log.WithError(err).WithField("posting_id", postingID).Warn("posting cache invalidation failed")
	}
}

// applyPostingInput copies in onto p. With create set, the core fields are
// mandatory; otherwise blanks keep the current value.
func applyPostingInput(p *models.Posting, in PostingInput, create bool) error {
	set := func(dst *string, v, field string) error {
		v = strings.TrimSpace(v)
		if v == "" {
			if create {
				return errors.New(field + " is required")
			}
			return nil
		}
		*dst = v
		return nil
	}
	if err := set(&p.Title, in.Title, "title"); err != nil {
		return err
	}
	if err := set(&p.Description, in.Description, "description"); err != nil {
		return err
	}
	if err := set(&p.RoleType, in.RoleType, "role type"); err != nil {
		return err
	}
	if err := set(&p.Location, in.Location, "location"); err != nil {
		return err
	}

	if strings.TrimSpace(in.WorkMode) != "" {
		mode, err := models.ParseWorkMode(in.WorkMode)
		if err != nil {
			return err
		}
		p.WorkMode = mode
	} else if create {
		return errors.New("work mode is required")
	}

	if in.Salary != nil {
		if *in.Salary < 0 {
			return errors.New("salary must not be negative")
		}
		p.Salary = *in.Salary
	}
	if in.Tags != nil {
		p.SetTags(matching.SplitLabels(*in.Tags))
	} else if create {
		p.SetTags([]string{})
	}
	if strings.TrimSpace(in.Status) != "" {
		st, err := models.ParsePostingStatus(in.Status)
		if err != nil {
			return err
		}
		p.Status = st
	}
	return nil
}

func postingIDs(rows []models.Posting) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	return ids
}

// summarize annotates rows with their live application counts.
func summarize(ctx context.Context, apps mongorepo.ApplicationRepository, rows []models.Posting) ([]models.PostingSummary, error) {
	out := make([]models.PostingSummary, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	counts, err := apps.CountByPosting(ctx, postingIDs(rows))
	if err != nil {
		return nil, err
	}
	for i, p := range rows {
		out[i] = models.PostingSummary{Posting: p, Applicants: counts[p.ID]}
	}
	return out, nil
}
