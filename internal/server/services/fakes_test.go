package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/sendly-app/sendly/internal/common"
	"github.com/sendly-app/sendly/internal/dbx"
	"github.com/sendly-app/sendly/internal/server/mailer"
	"github.com/sendly-app/sendly/internal/server/models"
	"github.com/sendly-app/sendly/internal/server/notify"
	"github.com/sendly-app/sendly/internal/server/repositories/contacts"
	"github.com/sendly-app/sendly/internal/server/repositories/history"
	"github.com/sendly-app/sendly/internal/server/repositories/images"
	"github.com/sendly-app/sendly/internal/server/repositories/notifications"
	"github.com/sendly-app/sendly/internal/server/repositories/profiles"
	"github.com/sendly-app/sendly/internal/server/repositories/repomanager"
	"github.com/sendly-app/sendly/internal/server/repositories/scheduled"
	"github.com/sendly-app/sendly/internal/server/repositories/security"
	"github.com/sendly-app/sendly/internal/server/repositories/sessions"
	"github.com/sendly-app/sendly/internal/server/repositories/templates"
	"github.com/sendly-app/sendly/internal/server/repositories/users"
)

// --- helpers ---

// newTxDB returns a sqlmock database that accepts any number of
// transactions. Repository calls never reach it; they go to memStore.
func newTxDB(t *testing.T) *sql.DB {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 16; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// newPostgresNoQueries wires the real Postgres repositories to a sqlmock that
// expects nothing, so any statement reaching the database fails the test.
func newPostgresNoQueries(t *testing.T) (*sql.DB, sqlmock.Sqlmock, repomanager.RepositoryManager) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock, repomanager.NewPostgresRepositoryManager()
}

// memStore is an in-memory stand-in for every repository. It ignores the
// DBTX it is bound to.
type memStore struct {
	mu sync.Mutex

	users         map[string]*models.User
	sessions      map[string]*models.Session
	security      map[string]*models.SecuritySettings
	profiles      map[string]*models.UserProfile
	templates     map[string]*models.EmailTemplate
	contacts      map[string]*models.Contact
	history       []*models.EmailHistory
	logs          []*models.EmailLog
	scheduled     map[string]*models.ScheduledEmail
	notifications []*models.Notification
	notifySet     map[string]*models.NotificationSettings
	images        map[string]*models.Image

	failNotificationCreate error
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[string]*models.User{},
		sessions:  map[string]*models.Session{},
		security:  map[string]*models.SecuritySettings{},
		profiles:  map[string]*models.UserProfile{},
		templates: map[string]*models.EmailTemplate{},
		contacts:  map[string]*models.Contact{},
		scheduled: map[string]*models.ScheduledEmail{},
		notifySet: map[string]*models.NotificationSettings{},
		images:    map[string]*models.Image{},
	}
}

type fakeManager struct{ s *memStore }

var _ repomanager.RepositoryManager = fakeManager{}

func (fakeManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m fakeManager) Users(dbx.DBTX) users.Repository                 { return memUsers{m.s} }
func (m fakeManager) Sessions(dbx.DBTX) sessions.Repository           { return memSessions{m.s} }
func (m fakeManager) Security(dbx.DBTX) security.Repository           { return memSecurity{m.s} }
func (m fakeManager) Profiles(dbx.DBTX) profiles.Repository           { return memProfiles{m.s} }
func (m fakeManager) Templates(dbx.DBTX) templates.Repository         { return memTemplates{m.s} }
func (m fakeManager) Contacts(dbx.DBTX) contacts.Repository           { return memContacts{m.s} }
func (m fakeManager) History(dbx.DBTX) history.Repository             { return memHistory{m.s} }
func (m fakeManager) Scheduled(dbx.DBTX) scheduled.Repository         { return memScheduled{m.s} }
func (m fakeManager) Notifications(dbx.DBTX) notifications.Repository { return memNotifications{m.s} }
func (m fakeManager) Images(dbx.DBTX) images.Repository               { return memImages{m.s} }

// --- users ---

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.users {
		if x.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *u
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.s.users[c.ID] = &c
	out := c
	return &out, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.users {
		if x.Email == email {
			c := *x
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *x
	return &c, nil
}

func (r memUsers) UpdateAccount(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.users[u.ID]
	if !ok {
		return common.ErrorNotFound
	}
	for _, o := range r.s.users {
		if o.ID != u.ID && o.Email == u.Email {
			return common.ErrorAlreadyExists
		}
	}
	x.Name, x.Email = u.Name, u.Email
	return nil
}

func (r memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	x.PasswordHash = hash
	return nil
}

// --- sessions ---

type memSessions struct{ s *memStore }

func (r memSessions) Create(_ context.Context, ss *models.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ss.ID = uuid.NewString()
	ss.CreatedAt = time.Now()
	c := *ss
	r.s.sessions[ss.ID] = &c
	return nil
}

func (r memSessions) FindActiveByToken(_ context.Context, token string) (*models.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.sessions {
		if x.Token == token && x.Live(time.Now()) {
			c := *x
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memSessions) Touch(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if x, ok := r.s.sessions[id]; ok {
		x.LastActiveAt = time.Now()
	}
	return nil
}

// ListActive leaves expiry filtering to the caller.
func (r memSessions) ListActive(_ context.Context, userID string) ([]*models.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Session
	for _, x := range r.s.sessions {
		if x.UserID == userID && !x.IsRevoked {
			c := *x
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActiveAt.After(out[j].LastActiveAt) })
	return out, nil
}

func (r memSessions) GetForUser(_ context.Context, userID, id string) (*models.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.sessions[id]
	if !ok || x.UserID != userID || x.IsRevoked {
		return nil, common.ErrorNotFound
	}
	c := *x
	return &c, nil
}

func (r memSessions) Revoke(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.sessions[id]
	if !ok || x.UserID != userID || x.IsRevoked {
		return common.ErrorNotFound
	}
	x.IsRevoked = true
	return nil
}

func (r memSessions) RevokeByToken(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.sessions {
		if x.Token == token {
			x.IsRevoked = true
		}
	}
	return nil
}

func (r memSessions) RevokeAllExcept(_ context.Context, userID, keep string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, x := range r.s.sessions {
		if x.UserID == userID && x.Token != keep && !x.IsRevoked {
			x.IsRevoked = true
			n++
		}
	}
	return n, nil
}

func (r memSessions) DeleteExpired(context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, x := range r.s.sessions {
		if !x.ExpiresAt.After(time.Now()) {
			delete(r.s.sessions, id)
			n++
		}
	}
	return n, nil
}

// --- security ---

type memSecurity struct{ s *memStore }

func (r memSecurity) get(userID string) *models.SecuritySettings {
	x, ok := r.s.security[userID]
	if !ok {
		x = &models.SecuritySettings{UserID: userID}
		r.s.security[userID] = x
	}
	return x
}

func (r memSecurity) GetOrCreate(_ context.Context, userID string) (*models.SecuritySettings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *r.get(userID)
	return &c, nil
}

func (r memSecurity) SetPendingSecret(_ context.Context, userID, secret string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x := r.get(userID)
	x.TwoFactorSecret, x.TwoFactorEnabled = secret, false
	return nil
}

func (r memSecurity) Enable(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x := r.get(userID)
	if x.TwoFactorSecret == "" {
		return common.ErrorNotFound
	}
	x.TwoFactorEnabled = true
	return nil
}

func (r memSecurity) Disable(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x := r.get(userID)
	x.TwoFactorSecret, x.TwoFactorEnabled = "", false
	return nil
}

// --- profiles ---

type memProfiles struct{ s *memStore }

func (r memProfiles) GetOrCreate(_ context.Context, userID string) (*models.UserProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.profiles[userID]
	if !ok {
		x = &models.UserProfile{UserID: userID}
		r.s.profiles[userID] = x
	}
	c := *x
	return &c, nil
}

func (r memProfiles) Update(_ context.Context, p *models.UserProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if old, ok := r.s.profiles[p.UserID]; ok {
		p.AvatarURL = old.AvatarURL
	}
	c := *p
	r.s.profiles[p.UserID] = &c
	return nil
}

func (r memProfiles) SetAvatar(_ context.Context, userID, url string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.profiles[userID]
	if !ok {
		x = &models.UserProfile{UserID: userID}
		r.s.profiles[userID] = x
	}
	x.AvatarURL = url
	return nil
}

// --- templates ---

type memTemplates struct{ s *memStore }

func (r memTemplates) Create(_ context.Context, t *models.EmailTemplate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	c := *t
	r.s.templates[t.ID] = &c
	return nil
}

func (r memTemplates) GetByID(_ context.Context, id string) (*models.EmailTemplate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.templates[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *x
	return &c, nil
}

func (r memTemplates) ListVisible(_ context.Context, userID string) ([]*models.EmailTemplate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.EmailTemplate
	for _, x := range r.s.templates {
		if x.UserID == userID || x.IsPublic {
			c := *x
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memTemplates) Update(_ context.Context, t *models.EmailTemplate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.templates[t.ID]
	if !ok || x.UserID != t.UserID {
		return common.ErrorNotFound
	}
	t.CreatedAt = x.CreatedAt
	t.UpdatedAt = time.Now()
	c := *t
	r.s.templates[t.ID] = &c
	return nil
}

func (r memTemplates) Delete(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.templates[id]
	if !ok || x.UserID != userID {
		return common.ErrorNotFound
	}
	delete(r.s.templates, id)
	return nil
}

// --- contacts ---

type memContacts struct{ s *memStore }

func (r memContacts) dup(c *models.Contact) bool {
	for _, x := range r.s.contacts {
		if x.UserID == c.UserID && x.Email == c.Email && x.ID != c.ID {
			return true
		}
	}
	return false
}

func (r memContacts) Create(_ context.Context, c *models.Contact) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.dup(c) {
		return common.ErrorAlreadyExists
	}
	c.ID = uuid.NewString()
	cp := *c
	r.s.contacts[c.ID] = &cp
	return nil
}

func (r memContacts) Get(_ context.Context, userID, id string) (*models.Contact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.contacts[id]
	if !ok || x.UserID != userID {
		return nil, common.ErrorNotFound
	}
	c := *x
	return &c, nil
}

func (r memContacts) List(_ context.Context, userID, search string) ([]*models.Contact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q := strings.ToLower(search)
	var out []*models.Contact
	for _, x := range r.s.contacts {
		if x.UserID != userID {
			continue
		}
		hay := strings.ToLower(x.Name + " " + x.Email + " " + x.Company)
		if q == "" || strings.Contains(hay, q) {
			c := *x
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r memContacts) Update(_ context.Context, c *models.Contact) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.contacts[c.ID]
	if !ok || x.UserID != c.UserID {
		return common.ErrorNotFound
	}
	if r.dup(c) {
		return common.ErrorAlreadyExists
	}
	cp := *c
	r.s.contacts[c.ID] = &cp
	return nil
}

func (r memContacts) Delete(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.contacts[id]
	if !ok || x.UserID != userID {
		return common.ErrorNotFound
	}
	delete(r.s.contacts, id)
	return nil
}

// --- history ---

type memHistory struct{ s *memStore }

func (r memHistory) Create(ctx context.Context, h *models.EmailHistory) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	h.ID = uuid.NewString()
	h.SentAt = time.Now()
	c := *h
	r.s.history = append(r.s.history, &c)
	return nil
}

func (r memHistory) List(_ context.Context, userID string, limit, offset int) ([]*models.EmailHistory, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var mine []*models.EmailHistory
	for i := len(r.s.history) - 1; i >= 0; i-- {
		if r.s.history[i].UserID == userID {
			mine = append(mine, r.s.history[i])
		}
	}
	total := len(mine)
	if offset < 0 {
		return nil, 0, fmt.Errorf("negative offset %d", offset)
	}
	if offset >= total {
		return nil, total, nil
	}
	end := min(offset+limit, total)
	return mine[offset:end], total, nil
}

func (r memHistory) Get(_ context.Context, userID, id string) (*models.EmailHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, h := range r.s.history {
		if h.ID == id && h.UserID == userID {
			c := *h
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memHistory) CreateLog(_ context.Context, l *models.EmailLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l.ID = uuid.NewString()
	c := *l
	r.s.logs = append(r.s.logs, &c)
	return nil
}

func (r memHistory) ListLogs(_ context.Context, userID, historyID string) ([]*models.EmailLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.EmailLog
	for _, l := range r.s.logs {
		if l.UserID == userID && l.HistoryID != nil && *l.HistoryID == historyID {
			out = append(out, l)
		}
	}
	return out, nil
}

// --- scheduled ---

type memScheduled struct{ s *memStore }

func (r memScheduled) Create(_ context.Context, e *models.ScheduledEmail) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e.ID = uuid.NewString()
	e.Status = models.ScheduleStatusPending
	c := *e
	r.s.scheduled[e.ID] = &c
	return nil
}

func (r memScheduled) Get(_ context.Context, userID, id string) (*models.ScheduledEmail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.scheduled[id]
	if !ok || x.UserID != userID {
		return nil, common.ErrorNotFound
	}
	c := *x
	return &c, nil
}

func (r memScheduled) List(_ context.Context, userID string) ([]*models.ScheduledEmail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.ScheduledEmail
	for _, x := range r.s.scheduled {
		if x.UserID == userID {
			c := *x
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (r memScheduled) Cancel(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.scheduled[id]
	if !ok || x.UserID != userID || x.Status != models.ScheduleStatusPending {
		return common.ErrNotScheduled
	}
	x.Status = models.ScheduleStatusCancelled
	return nil
}

func (r memScheduled) ClaimDue(_ context.Context, limit int) ([]*models.ScheduledEmail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.ScheduledEmail
	for _, x := range r.s.scheduled {
		if len(out) == limit {
			break
		}
		due := x.Status == models.ScheduleStatusPending && !x.ScheduledAt.After(time.Now())
		stale := x.Status == models.ScheduleStatusProcessing && time.Since(x.UpdatedAt) > scheduled.ProcessingLease
		if due || stale {
			x.Status = models.ScheduleStatusProcessing
			x.UpdatedAt = time.Now()
			c := *x
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r memScheduled) Finish(ctx context.Context, id, status, errMsg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.scheduled[id]
	if !ok || x.Status != models.ScheduleStatusProcessing {
		return common.ErrorNotFound
	}
	x.Status, x.Error = status, errMsg
	if status == models.ScheduleStatusSent {
		now := time.Now()
		x.SentAt = &now
	}
	return nil
}

// --- notifications ---

type memNotifications struct{ s *memStore }

func (r memNotifications) Create(_ context.Context, n *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failNotificationCreate != nil {
		return r.s.failNotificationCreate
	}
	n.ID = uuid.NewString()
	n.CreatedAt = time.Now()
	c := *n
	r.s.notifications = append(r.s.notifications, &c)
	return nil
}

func (r memNotifications) List(_ context.Context, userID string, unreadOnly bool, limit int) ([]*models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Notification
	for i := len(r.s.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		n := r.s.notifications[i]
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			c := *n
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r memNotifications) CountUnread(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, x := range r.s.notifications {
		if x.UserID == userID && !x.IsRead {
			n++
		}
	}
	return n, nil
}

func (r memNotifications) MarkRead(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.notifications {
		if x.ID == id && x.UserID == userID {
			x.IsRead = true
			return nil
		}
	}
	return common.ErrorNotFound
}

func (r memNotifications) MarkAllRead(_ context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, x := range r.s.notifications {
		if x.UserID == userID && !x.IsRead {
			x.IsRead = true
			n++
		}
	}
	return n, nil
}

func (r memNotifications) Delete(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, x := range r.s.notifications {
		if x.ID == id && x.UserID == userID {
			r.s.notifications = append(r.s.notifications[:i], r.s.notifications[i+1:]...)
			return nil
		}
	}
	return common.ErrorNotFound
}

func (r memNotifications) GetSettings(_ context.Context, userID string) (*models.NotificationSettings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.notifySet[userID]
	if !ok {
		x = &models.NotificationSettings{UserID: userID, EmailOnSend: true, EmailOnFailure: true, InAppEnabled: true}
		r.s.notifySet[userID] = x
	}
	c := *x
	return &c, nil
}

func (r memNotifications) UpdateSettings(_ context.Context, st *models.NotificationSettings) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *st
	r.s.notifySet[st.UserID] = &c
	return nil
}

// --- images ---

type memImages struct{ s *memStore }

func (r memImages) Create(_ context.Context, img *models.Image) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	img.ID = uuid.NewString()
	img.Size = int64(len(img.Data))
	c := *img
	r.s.images[img.ID] = &c
	return nil
}

func (r memImages) Get(_ context.Context, id string) (*models.Image, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.images[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *x
	return &c, nil
}

func (r memImages) List(_ context.Context, userID string) ([]*models.Image, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Image
	for _, x := range r.s.images {
		if x.UserID == userID {
			c := *x
			c.Data = nil
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r memImages) Delete(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.images[id]
	if !ok || x.UserID != userID {
		return common.ErrorNotFound
	}
	delete(r.s.images, id)
	return nil
}

// --- collaborators ---

type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]notify.Event
}

func (p *recordingPublisher) Publish(userID string, ev notify.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = map[string][]notify.Event{}
	}
	p.events[userID] = append(p.events[userID], ev)
}

func (p *recordingPublisher) count(userID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events[userID])
}

// fakeSender fails for every address listed in fail.
type fakeSender struct {
	mu     sync.Mutex
	fail   map[string]bool
	sent   []mailer.Message
	onSend func()
}

func (f *fakeSender) Send(_ context.Context, m mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onSend != nil {
		f.onSend()
	}
	if f.fail[m.To] {
		return errors.New("550 mailbox unavailable")
	}
	f.sent = append(f.sent, m)
	return nil
}
