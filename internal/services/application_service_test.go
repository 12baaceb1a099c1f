package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/yoockh/hirelink/internal/cache"
	"github.com/yoockh/hirelink/internal/events"
	"github.com/yoockh/hirelink/internal/models"
	"github.com/yoockh/hirelink/internal/utils"
)

type appFixture struct {
	clock    *clock
	postings *stubPostings
	apps     *stubApplications
	cache    *memCache
	pub      *stubPublisher
	svc      ApplicationService
}

func newAppFixture(t *testing.T, log *logrus.Logger) *appFixture {
	t.Helper()
	if log == nil {
		log = quietLogger()
	}
	c := newClock()
	f := &appFixture{
		clock:    c,
		postings: newStubPostings(c),
		apps:     newStubApplications(c),
		cache:    newMemCache(),
		pub:      &stubPublisher{},
	}
	f.svc = NewApplicationService(f.postings, f.apps, f.cache, f.pub, nil, log)
	return f
}

func (f *appFixture) posting(t *testing.T, owner string, tags ...string) models.Posting {
	t.Helper()
	p := &models.Posting{
		OwnerID: owner,
		Title:   "Backend Engineer",
		Company: "Acme",
		Status:  models.PostingActive,
	}
	p.SetTags(tags)
	if err := f.postings.Create(context.Background(), p); err != nil {
		t.Fatalf("create posting: %v", err)
	}
	return *p
}

func validApply(skills string) ApplyInput {
	return ApplyInput{
		Name:        "Ada",
		Email:       "ada@example.com",
		Skills:      skills,
		ReadyToJoin: "Yes",
		ResumeURL:   "https://files.test/resume.pdf",
	}
}

func TestApplyComputesScoreAndIncrementsCounter(t *testing.T) {
	f := newAppFixture(t, nil)
	p := f.posting(t, "rec-1", "Go", "Rust", "SQL", "Java")

	app, err := f.svc.Apply(context.Background(), "app-1", p.ID.Hex(), validApply(" go, SQL "))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if app.Status != models.StatusPending {
		t.Fatalf("expected Pending, got %s", app.Status)
	}
	if app.MatchScore != 50 {
		t.Fatalf("expected score 50, got %d", app.MatchScore)
	}
	if got := f.postings.counter(p.ID); got != 1 {
		t.Fatalf("expected counter 1, got %d", got)
	}
	if len(f.pub.events) != 1 || f.pub.events[0].channel != events.PostingApplicationsChannel(p.ID.Hex()) {
		t.Fatalf("expected one event on the posting channel, got %+v", f.pub.events)
	}
	if f.pub.events[0].payload.Type != models.EventApplicationCreated {
		t.Fatalf("unexpected event type %q", f.pub.events[0].payload.Type)
	}
}

func TestApplyInvalidatesPostingCache(t *testing.T) {
	f := newAppFixture(t, nil)
	p := f.posting(t, "rec-1", "go")
	key := cache.PostingKey(p.ID.Hex())
	f.cache.put(key, p)

	if _, err := f.svc.Apply(context.Background(), "app-1", p.ID.Hex(), validApply("go")); err != nil {
		t.Fatalf("apply: %v", err)
	}
	var cached models.Posting
	if hit, _ := f.cache.GetJSON(context.Background(), key, &cached); hit {
		t.Fatalf("expected cache entry to be dropped")
	}
}

func TestApplyTwiceIsDuplicate(t *testing.T) {
	f := newAppFixture(t, nil)
	p := f.posting(t, "rec-1", "go")

	if _, err := f.svc.Apply(context.Background(), "app-1", p.ID.Hex(), validApply("go")); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	_, err := f.svc.Apply(context.Background(), "app-1", p.ID.Hex(), validApply("go"))
	if !utils.IsCode(err, utils.CodeDuplicateApplication) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if n := len(f.apps.all()); n != 1 {
		t.Fatalf("expected 1 application, got %d", n)
	}
	if got := f.postings.counter(p.ID); got != 1 {
		t.Fatalf("expected counter 1, got %d", got)
	}
}

func TestApplyConcurrentDuplicates(t *testing.T) {
	f := newAppFixture(t, nil)
	p := f.posting(t, "rec-1", "go")

	const n = 16
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		ok, dupes  int
		unexpected []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Apply(context.Background(), "app-1", p.ID.Hex(), validApply("go"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case utils.IsCode(err, utils.CodeDuplicateApplication):
				dupes++
			default:
				unexpected = append(unexpected, err)
			}
		}()
	}
	wg.Wait()

	if len(unexpected) > 0 {
		t.Fatalf("unexpected errors: %v", unexpected)
	}
	if ok != 1 || dupes != n-1 {
		t.Fatalf("expected 1 success and %d duplicates, got %d and %d", n-1, ok, dupes)
	}
	if got := f.postings.counter(p.ID); got != 1 {
		t.Fatalf("expected counter 1, got %d", got)
	}
}

func TestApplyConcurrentApplicantsKeepCounterExact(t *testing.T) {
	f := newAppFixture(t, nil)
	p := f.posting(t, "rec-1", "go")

	const k = 25
	var wg sync.WaitGroup
	errs := make(chan error, k)
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := f.svc.Apply(context.Background(), fmt.Sprintf("app-%d", i), p.ID.Hex(), validApply("go")); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("apply: %v", err)
	}

	live, _ := f.apps.CountByPosting(context.Background(), []primitive.ObjectID{p.ID})
	if got := f.postings.counter(p.ID); got != k || live[p.ID] != k {
		t.Fatalf("expected counter and live count %d, got %d and %d", k, got, live[p.ID])
	}
}

func TestApplyRejections(t *testing.T) {
	f := newAppFixture(t, nil)
	p := f.posting(t, "rec-1", "go")

	missingResume := validApply("go")
	missingResume.ResumeURL = ""
	badReady := validApply("go")
	badReady.ReadyToJoin = "Maybe"

	tests := []struct {
		name      string
		postingID string
		in        ApplyInput
		code      utils.Code
	}{
		{name: "unknown posting", postingID: primitive.NewObjectID().Hex(), in: validApply("go"), code: utils.CodeNotFound},
		{name: "malformed posting id", postingID: "nope", in: validApply("go"), code: utils.CodeNotFound},
		{name: "missing resume", postingID: p.ID.Hex(), in: missingResume, code: utils.CodeInvalidArgument},
		{name: "missing skills", postingID: p.ID.Hex(), in: validApply("  "), code: utils.CodeInvalidArgument},
		{name: "bad ready flag", postingID: p.ID.Hex(), in: badReady, code: utils.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Apply(context.Background(), "app-1", tt.postingID, tt.in)
			if !utils.IsCode(err, tt.code) {
				t.Fatalf("expected %s, got %v", tt.code, err)
			}
		})
	}
	if n := len(f.apps.all()); n != 0 {
		t.Fatalf("expected no applications, got %d", n)
	}
}

func TestApplyNoTagsScoresZero(t *testing.T) {
	f := newAppFixture(t, nil)
	p := f.posting(t, "rec-1")

	app, err := f.svc.Apply(context.Background(), "app-1", p.ID.Hex(), validApply("go, rust"))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if app.MatchScore != 0 {
		t.Fatalf("expected score 0, got %d", app.MatchScore)
	}
}

func TestApplySucceedsWhenCounterIncrementFails(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	f := newAppFixture(t, log)
	p := f.posting(t, "rec-1", "go")
	f.postings.incErr = errors.New("write concern timeout")

	if _, err := f.svc.Apply(context.Background(), "app-1", p.ID.Hex(), validApply("go")); err != nil {
		t.Fatalf("expected success despite counter failure, got %v", err)
	}
	warned := false
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == "applicant counter increment failed" {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected a warning about the counter")
	}
}

func TestScoreIsFixedAtSubmission(t *testing.T) {
	f := newAppFixture(t, nil)
	p := f.posting(t, "rec-1", "go", "rust")

	app, err := f.svc.Apply(context.Background(), "app-1", p.ID.Hex(), validApply("go"))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if app.MatchScore != 50 {
		t.Fatalf("expected 50, got %d", app.MatchScore)
	}

	p.SetTags([]string{"go"})
	if err := f.postings.Update(context.Background(), &p); err != nil {
		t.Fatalf("update: %v", err)
	}

	stored, _ := f.apps.GetByID(context.Background(), app.ID)
	if stored.MatchScore != 50 {
		t.Fatalf("expected stored score to stay 50, got %d", stored.MatchScore)
	}
}

func TestSetStatus(t *testing.T) {
	f := newAppFixture(t, nil)
	p := f.posting(t, "rec-1", "go")
	app, err := f.svc.Apply(context.Background(), "app-1", p.ID.Hex(), validApply("go"))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	t.Run("other recruiter is not owner", func(t *testing.T) {
		_, err := f.svc.SetStatus(context.Background(), "rec-2", app.ID.Hex(), "Shortlisted")
		if !utils.IsCode(err, utils.CodeNotOwner) {
			t.Fatalf("expected not owner, got %v", err)
		}
		stored, _ := f.apps.GetByID(context.Background(), app.ID)
		if stored.Status != models.StatusPending {
			t.Fatalf("expected status untouched, got %s", stored.Status)
		}
	})

	t.Run("pending is not a valid decision", func(t *testing.T) {
		_, err := f.svc.SetStatus(context.Background(), "rec-1", app.ID.Hex(), "Pending")
		if !utils.IsCode(err, utils.CodeInvalidArgument) {
			t.Fatalf("expected invalid argument, got %v", err)
		}
	})

	t.Run("unknown application", func(t *testing.T) {
		_, err := f.svc.SetStatus(context.Background(), "rec-1", primitive.NewObjectID().Hex(), "Rejected")
		if !utils.IsCode(err, utils.CodeNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("owner shortlists idempotently", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			got, err := f.svc.SetStatus(context.Background(), "rec-1", app.ID.Hex(), "shortlisted")
			if err != nil {
				t.Fatalf("set status: %v", err)
			}
			if got.Status != models.StatusShortlisted {
				t.Fatalf("expected Shortlisted, got %s", got.Status)
			}
		}
		last := f.pub.events[len(f.pub.events)-1]
		if last.channel != events.ApplicantApplicationsChannel("app-1") || last.payload.Type != models.EventApplicationDecided {
			t.Fatalf("unexpected event %+v", last)
		}
	})
}

func TestListForApplicantUsesPlaceholders(t *testing.T) {
	f := newAppFixture(t, nil)
	kept := f.posting(t, "rec-1", "go")
	gone := f.posting(t, "rec-1", "go")

	if _, err := f.svc.Apply(context.Background(), "app-1", kept.ID.Hex(), validApply("go")); err != nil {
		t.Fatalf("apply kept: %v", err)
	}
	if _, err := f.svc.Apply(context.Background(), "app-1", gone.ID.Hex(), validApply("go")); err != nil {
		t.Fatalf("apply gone: %v", err)
	}
	f.postings.delete(gone.ID)

	got, err := f.svc.ListForApplicant(context.Background(), "app-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(got))
	}
	if got[0].PostingID != gone.ID || got[0].JobTitle != models.DeletedPostingTitle || got[0].Company != models.DeletedPostingCompany {
		t.Fatalf("expected newest entry to carry placeholders, got %+v", got[0])
	}
	if got[1].JobTitle != "Backend Engineer" || got[1].Company != "Acme" {
		t.Fatalf("expected resolved posting, got %+v", got[1])
	}
}

func TestListForPosting(t *testing.T) {
	f := newAppFixture(t, nil)
	p := f.posting(t, "rec-1", "go", "rust", "sql")

	for i, skills := range []string{"go", "go, rust, sql", "rust", "go, rust"} {
		if _, err := f.svc.Apply(context.Background(), fmt.Sprintf("app-%d", i), p.ID.Hex(), validApply(skills)); err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
	}

	if _, err := f.svc.ListForPosting(context.Background(), "rec-2", p.ID.Hex()); !utils.IsCode(err, utils.CodeNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}

	got, err := f.svc.ListForPosting(context.Background(), "rec-1", p.ID.Hex())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	wantOrder := []string{"app-1", "app-3", "app-0", "app-2"}
	for i, a := range got {
		if a.ApplicantID != wantOrder[i] {
			t.Fatalf("position %d: expected %s, got %s (score %d)", i, wantOrder[i], a.ApplicantID, a.MatchScore)
		}
	}
}
