package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yoockh/hirelink/internal/cache"
	"github.com/yoockh/hirelink/internal/events"
	"github.com/yoockh/hirelink/internal/matching"
	"github.com/yoockh/hirelink/internal/metrics"
	"github.com/yoockh/hirelink/internal/models"
	mongorepo "github.com/yoockh/hirelink/internal/repositories/mongo"
	"github.com/yoockh/hirelink/internal/utils"
)

// counterWriteTimeout bounds the post-insert counter increment so it cannot
// outlive the reconcile settle window.
const counterWriteTimeout = 10 * time.Second

// ApplyInput is what the applicant submits. Contact fields are captured as
// given and never synced with the account afterwards.
type ApplyInput struct {
	Name        string
	Email       string
	Skills      string
	ReadyToJoin string
	ResumeURL   string
}

type ApplicationService interface {
	Apply(ctx context.Context, applicantID, postingID string, in ApplyInput) (*models.Application, error)
	SetStatus(ctx context.Context, recruiterID, applicationID, status string) (*models.Application, error)
	ListForApplicant(ctx context.Context, applicantID string) ([]models.ApplicationSummary, error)
	ListForPosting(ctx context.Context, recruiterID, postingID string) ([]models.Application, error)
	// OwnedPosting returns the posting when recruiterID owns it.
	OwnedPosting(ctx context.Context, recruiterID, postingID string) (*models.Posting, error)
}

type applicationService struct {
	postings     mongorepo.PostingRepository
	applications mongorepo.ApplicationRepository
	cache        cache.Cache
	events       events.Publisher
	metrics      *metrics.Recorder
	log          *logrus.Logger
}

func NewApplicationService(
	postings mongorepo.PostingRepository,
	applications mongorepo.ApplicationRepository,
	c cache.Cache,
	pub events.Publisher,
	rec *metrics.Recorder,
	log *logrus.Logger,
) ApplicationService {
	if c == nil {
		c = cache.Noop{}
	}
	if pub == nil {
		pub = events.Noop{}
	}
	return &applicationService{
		postings:     postings,
		applications: applications,
		cache:        c,
		events:       pub,
		metrics:      rec,
		log:          log,
	}
}

func (s *applicationService) Apply(ctx context.Context, applicantID, postingID string, in ApplyInput) (*models.Application, error) {
	const op = "ApplicationService.Apply"

	ready, err := validateApply(applicantID, in)
	if err != nil {
		s.metrics.ApplicationSubmitted(metrics.OutcomeRejected)
		return nil, utils.E(utils.CodeInvalidArgument, op, err.Error(), err)
	}

	pid, err := primitive.ObjectIDFromHex(postingID)
	if err != nil {
		s.metrics.ApplicationSubmitted(metrics.OutcomeRejected)
		return nil, utils.E(utils.CodeNotFound, op, "posting not found", utils.ErrNotFound)
	}

	// Fast path only. The unique (applicant_id, posting_id) index decides races.
	exists, err := s.applications.Exists(ctx, applicantID, pid)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to check existing application", err)
	}
	if exists {
		s.metrics.ApplicationSubmitted(metrics.OutcomeDuplicate)
		return nil, utils.E(utils.CodeDuplicateApplication, op, "you have already applied for this job", nil)
	}

	posting, err := s.postings.GetByID(ctx, pid)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			s.metrics.ApplicationSubmitted(metrics.OutcomeRejected)
			return nil, utils.E(utils.CodeNotFound, op, "posting not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load posting", err)
	}

	app := &models.Application{
		ApplicantID: applicantID,
		PostingID:   pid,
		Name:        strings.TrimSpace(in.Name),
		Email:       strings.TrimSpace(in.Email),
		Skills:      in.Skills,
		ReadyToJoin: ready,
		ResumeURL:   in.ResumeURL,
		MatchScore:  matching.Score(matching.ParseSkills(in.Skills), posting.RequiredSkills()),
		Status:      models.StatusPending,
	}
	if err := s.applications.Insert(ctx, app); err != nil {
		if errors.Is(err, utils.ErrDuplicate) {
			s.metrics.ApplicationSubmitted(metrics.OutcomeDuplicate)
			return nil, utils.E(utils.CodeDuplicateApplication, op, "you have already applied for this job", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to save application", err)
	}

	fields := logrus.Fields{
		"application_id": app.ID.Hex(),
		"posting_id":     postingID,
		"applicant_id":   applicantID,
		"match_score":    app.MatchScore,
	}

	// The counter is a cache; reconcile-counters repairs a missed increment.
	incCtx, cancel := context.WithTimeout(ctx, counterWriteTimeout)
	err = s.postings.IncrementApplicants(incCtx, pid, 1)
	cancel()
	if err != nil {
		s.log.WithError(err).WithFields(fields).Warn("applicant counter increment failed")
	}
	if err := s.cache.Invalidate(ctx, cache.PostingKey(postingID)); err != nil {
		s.log.WithError(err).WithFields(fields).Warn("posting cache invalidation failed")
	}
	s.publish(ctx, events.PostingApplicationsChannel(postingID), app, models.EventApplicationCreated)

	s.metrics.ApplicationSubmitted(metrics.OutcomeAccepted)
	s.log.WithFields(fields).Info("application submitted")
	return app, nil
}

func (s *applicationService) SetStatus(ctx context.Context, recruiterID, applicationID, status string) (*models.Application, error) {
	const op = "ApplicationService.SetStatus"

	next, err := models.ParseDecision(status)
	if err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "status must be Shortlisted or Rejected", err)
	}
	aid, err := primitive.ObjectIDFromHex(applicationID)
	if err != nil {
		return nil, utils.E(utils.CodeNotFound, op, "application not found", utils.ErrNotFound)
	}

	app, err := s.applications.GetByID(ctx, aid)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "application not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load application", err)
	}
	posting, err := s.postings.GetByID(ctx, app.PostingID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "posting not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load posting", err)
	}
	if posting.OwnerID != recruiterID {
		return nil, utils.E(utils.CodeNotOwner, op, "not authorized to update this application", nil)
	}

	updated, err := s.applications.UpdateStatus(ctx, aid, next)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "application not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to update application", err)
	}

	s.publish(ctx, events.ApplicantApplicationsChannel(updated.ApplicantID), updated, models.EventApplicationDecided)
	s.metrics.StatusDecided(string(next))
	s.log.WithFields(logrus.Fields{
		"application_id": applicationID,
		"posting_id":     updated.PostingID.Hex(),
		"status":         next,
	}).Info("application status changed")
	return updated, nil
}

func (s *applicationService) ListForApplicant(ctx context.Context, applicantID string) ([]models.ApplicationSummary, error) {
	const op = "ApplicationService.ListForApplicant"

	if applicantID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "applicant id is required", nil)
	}
	apps, err := s.applications.ListByApplicant(ctx, applicantID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list applications", err)
	}

	ids := make([]primitive.ObjectID, 0, len(apps))
	for _, a := range apps {
		ids = append(ids, a.PostingID)
	}
	postings, err := s.postings.GetMany(ctx, ids)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load postings", err)
	}

	out := make([]models.ApplicationSummary, len(apps))
	for i, a := range apps {
		sum := models.ApplicationSummary{
			ID:         a.ID,
			PostingID:  a.PostingID,
			JobTitle:   models.DeletedPostingTitle,
			Company:    models.DeletedPostingCompany,
			Status:     a.Status,
			MatchScore: a.MatchScore,
			CreatedAt:  a.CreatedAt,
		}
		if p, ok := postings[a.PostingID]; ok {
			sum.JobTitle = p.Title
			sum.Company = p.Company
		}
		out[i] = sum
	}
	return out, nil
}

func (s *applicationService) ListForPosting(ctx context.Context, recruiterID, postingID string) ([]models.Application, error) {
	const op = "ApplicationService.ListForPosting"

	posting, err := s.OwnedPosting(ctx, recruiterID, postingID)
	if err != nil {
		return nil, err
	}
	apps, err := s.applications.ListByPosting(ctx, posting.ID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list applications", err)
	}
	return apps, nil
}

func (s *applicationService) OwnedPosting(ctx context.Context, recruiterID, postingID string) (*models.Posting, error) {
	const op = "ApplicationService.OwnedPosting"

	pid, err := primitive.ObjectIDFromHex(postingID)
	if err != nil {
		return nil, utils.E(utils.CodeNotFound, op, "posting not found", utils.ErrNotFound)
	}
	posting, err := s.postings.GetByID(ctx, pid)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "posting not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load posting", err)
	}
	if posting.OwnerID != recruiterID {
		return nil, utils.E(utils.CodeNotOwner, op, "not the owner of this posting", nil)
	}
	return posting, nil
}

func (s *applicationService) publish(ctx context.Context, channel string, app *models.Application, kind string) {
	ev := models.ApplicationEvent{
		Type:          kind,
		ApplicationID: app.ID,
		PostingID:     app.PostingID,
		ApplicantID:   app.ApplicantID,
		Status:        app.Status,
		MatchScore:    app.MatchScore,
		At:            app.UpdatedAt,
	}
	if err := s.events.Publish(ctx, channel, ev); err != nil {
		s.log.WithError(err).WithField("channel", channel).Warn("publish application event failed")
	}
}

func validateApply(applicantID string, in ApplyInput) (models.ReadyToJoin, error) {
	switch {
	case applicantID == "":
		return "", errors.New("applicant id is required")
	case strings.TrimSpace(in.Name) == "":
		return "", errors.New("name is required")
	case strings.TrimSpace(in.Email) == "":
		return "", errors.New("email is required")
	case strings.TrimSpace(in.Skills) == "":
		return "", errors.New("skills are required")
	case strings.TrimSpace(in.ResumeURL) == "":
		return "", errors.New("resume is required")
	}
	return models.ParseReadyToJoin(in.ReadyToJoin)
}
