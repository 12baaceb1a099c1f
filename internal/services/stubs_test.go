package services

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yoockh/hirelink/internal/matching"
	"github.com/yoockh/hirelink/internal/models"
	mongorepo "github.com/yoockh/hirelink/internal/repositories/mongo"
	"github.com/yoockh/hirelink/internal/utils"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// clock hands out strictly increasing timestamps so ordering is deterministic.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock { return &clock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)} }

func (c *clock) next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func (c *clock) current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

type stubAccounts struct {
	mu   sync.Mutex
	rows map[string]models.Account
}

func newStubAccounts(accs ...models.Account) *stubAccounts {
	s := &stubAccounts{rows: map[string]models.Account{}}
	for _, a := range accs {
		s.rows[a.ID] = a
	}
	return s
}

func (s *stubAccounts) Create(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.Email == a.Email {
			return utils.ErrDuplicate
		}
	}
	s.rows[a.ID] = *a
	return nil
}

func (s *stubAccounts) GetByID(_ context.Context, id string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &a, nil
}

func (s *stubAccounts) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.rows {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (s *stubAccounts) UpdateProfile(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[a.ID]; !ok {
		return utils.ErrNotFound
	}
	s.rows[a.ID] = *a
	return nil
}

type stubPostings struct {
	mu      sync.Mutex
	clock   *clock
	rows    map[primitive.ObjectID]models.Posting
	order   []primitive.ObjectID
	incErr  error
	updates int
	// beforeInc, when set, runs ahead of every counter increment.
	beforeInc func()
}

func newStubPostings(c *clock) *stubPostings {
	return &stubPostings{clock: c, rows: map[primitive.ObjectID]models.Posting{}}
}

func (s *stubPostings) Create(_ context.Context, p *models.Posting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.clock.next()
	}
	s.rows[p.ID] = *p
	s.order = append(s.order, p.ID)
	return nil
}

func (s *stubPostings) GetByID(_ context.Context, id primitive.ObjectID) (*models.Posting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &p, nil
}

func (s *stubPostings) GetMany(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Posting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[primitive.ObjectID]models.Posting{}
	for _, id := range ids {
		if p, ok := s.rows[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (s *stubPostings) Update(_ context.Context, p *models.Posting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.rows[p.ID]
	if !ok {
		return utils.ErrNotFound
	}
	p.ApplicantCounter = old.ApplicantCounter
	s.rows[p.ID] = *p
	s.updates++
	return nil
}

func (s *stubPostings) delete(id primitive.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
}

// filtered returns postings matching keep, newest first, ties in insertion order.
func (s *stubPostings) filtered(keep func(models.Posting) bool) []models.Posting {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Posting{}
	for _, id := range s.order {
		p, ok := s.rows[id]
		if ok && keep(p) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *stubPostings) Search(_ context.Context, f mongorepo.PostingFilter) ([]models.Posting, error) {
	return s.filtered(func(p models.Posting) bool { return searchMatches(p, f) }), nil
}

func (s *stubPostings) ListByOwner(_ context.Context, ownerID string) ([]models.Posting, error) {
	return s.filtered(func(p models.Posting) bool { return p.OwnerID == ownerID }), nil
}

func (s *stubPostings) Recommend(_ context.Context, tagKeys []string, excludeOwner string, limit int64) ([]models.Posting, error) {
	want := matching.NewSkillSet(tagKeys...)
	out := s.filtered(func(p models.Posting) bool {
		return p.Status == models.PostingActive && p.OwnerID != excludeOwner &&
			matching.NewSkillSet(p.TagKeys...).Intersects(want)
	})
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubPostings) IncrementApplicants(_ context.Context, id primitive.ObjectID, delta int64) error {
	if s.beforeInc != nil {
		s.beforeInc()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.incErr != nil {
		return s.incErr
	}
	p, ok := s.rows[id]
	if !ok {
		return utils.ErrNotFound
	}
	p.ApplicantCounter += delta
	s.rows[id] = p
	return nil
}

func (s *stubPostings) SwapApplicants(_ context.Context, id primitive.ObjectID, from, n int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[id]
	if !ok || p.ApplicantCounter != from {
		return false, nil
	}
	p.ApplicantCounter = n
	s.rows[id] = p
	return true, nil
}

func (s *stubPostings) setCounter(id primitive.ObjectID, n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.rows[id]
	p.ApplicantCounter = n
	s.rows[id] = p
}

func (s *stubPostings) ListCounters(context.Context) ([]models.PostingCounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.PostingCounter{}
	for _, id := range s.order {
		if p, ok := s.rows[id]; ok {
			out = append(out, models.PostingCounter{ID: id, ApplicantCounter: p.ApplicantCounter})
		}
	}
	return out, nil
}

func (s *stubPostings) counter(id primitive.ObjectID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[id].ApplicantCounter
}

func searchMatches(p models.Posting, f mongorepo.PostingFilter) bool {
	contains := func(field, needle string) bool {
		return needle == "" || stringsContainsFold(field, needle)
	}
	if p.Status != models.PostingActive {
		return false
	}
	roleType := f.RoleType
	if roleType == mongorepo.AllRoleTypes {
		roleType = ""
	}
	return contains(p.Title, f.Title) && contains(p.Location, f.Location) &&
		(roleType == "" || p.RoleType == roleType)
}

type stubApplications struct {
	mu    sync.Mutex
	clock *clock
	rows  []models.Application
}

func newStubApplications(c *clock) *stubApplications {
	return &stubApplications{clock: c}
}

func (s *stubApplications) Insert(_ context.Context, a *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.ApplicantID == a.ApplicantID && row.PostingID == a.PostingID {
			return utils.ErrDuplicate
		}
	}
	a.ID = primitive.NewObjectID()
	a.CreatedAt = s.clock.next()
	a.UpdatedAt = a.CreatedAt
	s.rows = append(s.rows, *a)
	return nil
}

func (s *stubApplications) Exists(_ context.Context, applicantID string, postingID primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.ApplicantID == applicantID && row.PostingID == postingID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubApplications) GetByID(_ context.Context, id primitive.ObjectID) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.ID == id {
			return &row, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (s *stubApplications) ListByApplicant(_ context.Context, applicantID string) ([]models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Application{}
	for i := len(s.rows) - 1; i >= 0; i-- {
		if s.rows[i].ApplicantID == applicantID {
			out = append(out, s.rows[i])
		}
	}
	return out, nil
}

func (s *stubApplications) ListByPosting(_ context.Context, postingID primitive.ObjectID) ([]models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Application{}
	for _, row := range s.rows {
		if row.PostingID == postingID {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchScore > out[j].MatchScore })
	return out, nil
}

func (s *stubApplications) UpdateStatus(_ context.Context, id primitive.ObjectID, status models.ApplicationStatus) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows[i].Status = status
			s.rows[i].UpdatedAt = s.clock.next()
			row := s.rows[i]
			return &row, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (s *stubApplications) Count(_ context.Context, f mongorepo.ApplicationFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in := map[primitive.ObjectID]bool{}
	for _, id := range f.PostingIDs {
		in[id] = true
	}
	var n int64
	for _, row := range s.rows {
		if f.ApplicantID != "" && row.ApplicantID != f.ApplicantID {
			continue
		}
		if f.PostingIDs != nil && !in[row.PostingID] {
			continue
		}
		if f.Status != "" && row.Status != f.Status {
			continue
		}
		n++
	}
	return n, nil
}

func (s *stubApplications) CountByPosting(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		in[id] = true
	}
	out := map[primitive.ObjectID]int64{}
	for _, row := range s.rows {
		if ids == nil || in[row.PostingID] {
			out[row.PostingID]++
		}
	}
	return out, nil
}

func (s *stubApplications) TallyByPosting(context.Context) (map[primitive.ObjectID]models.ApplicationTally, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[primitive.ObjectID]models.ApplicationTally{}
	for _, row := range s.rows {
		t := out[row.PostingID]
		t.Count++
		if row.CreatedAt.After(t.LastAt) {
			t.LastAt = row.CreatedAt
		}
		out[row.PostingID] = t
	}
	return out, nil
}

func (s *stubApplications) all() []models.Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Application(nil), s.rows...)
}

type memCache struct {
	mu       sync.Mutex
	entries  map[string]models.Posting
	versions map[string]int64
	dels     []string
	// beforeFill, when set, runs ahead of every versioned write.
	beforeFill func()
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]models.Posting{}, versions: map[string]int64{}}
}

func (c *memCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	*(dst.(*models.Posting)) = p
	return true, nil
}

func (c *memCache) Version(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[key], nil
}

func (c *memCache) SetJSONAt(_ context.Context, key string, version int64, val any, _ time.Duration) (bool, error) {
	if c.beforeFill != nil {
		c.beforeFill()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[key] != version {
		return false, nil
	}
	c.entries[key] = *(val.(*models.Posting))
	return true, nil
}

func (c *memCache) Invalidate(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		c.versions[k]++
		delete(c.entries, k)
		c.dels = append(c.dels, k)
	}
	return nil
}

func (c *memCache) put(key string, p models.Posting) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = p
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

type recordedEvent struct {
	channel string
	payload models.ApplicationEvent
}

type stubPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *stubPublisher) Publish(_ context.Context, channel string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{channel: channel, payload: payload.(models.ApplicationEvent)})
	return nil
}

type stubTokens struct{}

func (stubTokens) Issue(accountID string, role models.Role) (string, error) {
	return "token-" + accountID + "-" + string(role), nil
}

type stubUploader struct {
	objects []string
	err     error
}

func (u *stubUploader) Upload(_ context.Context, objectName, _ string, r io.Reader) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	u.objects = append(u.objects, objectName)
	return "https://files.test/" + objectName, nil
}

func stringsContainsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(sub)))
}
