package services

import (
	"testing"
	"time"

	"github.com/sendly-app/sendly/internal/cryptox"
	"github.com/sendly-app/sendly/internal/logging"
	"github.com/sendly-app/sendly/internal/server/auth"
	"github.com/sendly-app/sendly/internal/server/templating"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// testEnv wires every service over one memStore, mirroring server wiring.
type testEnv struct {
	store  *memStore
	pub    *recordingPublisher
	sender *fakeSender
	issuer *auth.Issuer

	sessions      *SessionService
	notifications *NotificationService
	security      *SecurityService
	users         *UserService
	delivery      *Delivery
	templates     *TemplateService
	schedules     *ScheduleService
	contacts      *ContactService
	history       *HistoryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTxDB(t)
	store := newMemStore()
	m := fakeManager{store}
	log := logging.Nop{}

	cat, err := templating.LoadCatalogue()
	require.NoError(t, err)

	e := &testEnv{
		store:  store,
		pub:    &recordingPublisher{},
		sender: &fakeSender{fail: map[string]bool{}},
		issuer: auth.NewIssuer([]byte("test-secret"), time.Hour, 5*time.Minute),
	}
	e.sessions = NewSessionService(db, m, time.Hour, log)
	e.notifications = NewNotificationService(db, m, e.pub, log)
	sealer, err := cryptox.NewSealer(cryptox.DeriveKey([]byte("test-secret"), []byte("totp")))
	require.NoError(t, err)
	e.security = NewSecurityService(db, m, auth.TOTP{Issuer: "Sendly"}, sealer, e.notifications)
	e.users = NewUserService(db, m, e.issuer, e.sessions, e.security, log)
	e.users.bcryptCost = bcrypt.MinCost
	e.delivery = NewDelivery(db, m, e.sender, e.notifications, log)
	e.templates = NewTemplateService(db, m, cat, e.delivery)
	e.schedules = NewScheduleService(db, m, e.templates, e.delivery, e.notifications, log)
	e.contacts = NewContactService(db, m)
	e.history = NewHistoryService(db, m)
	return e
}

var testDevice = DeviceInfo{
	UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	IP:        "203.0.113.7",
}

// register creates a user and returns the result of its first login.
func (e *testEnv) register(t *testing.T, email string) *AuthResult {
	t.Helper()
	res, err := e.users.Register(t.Context(), "Test User", email, "password123", testDevice)
	require.NoError(t, err)
	return res
}
