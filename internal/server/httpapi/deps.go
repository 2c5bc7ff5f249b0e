package httpapi

import (
	"context"
	"net/http"

	"github.com/sendly-app/sendly/internal/server/auth"
	"github.com/sendly-app/sendly/internal/server/models"
	"github.com/sendly-app/sendly/internal/server/services"
	"github.com/sendly-app/sendly/internal/server/templating"
)

// The interfaces below list what handlers need from the service layer.
// *services.XService values satisfy them.

type Users interface {
	Register(ctx context.Context, name, email, password string, dev services.DeviceInfo) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string, dev services.DeviceInfo) (*services.AuthResult, error)
	LoginTwoFactor(ctx context.Context, ticket, code string, dev services.DeviceInfo) (*services.AuthResult, error)
	Logout(ctx context.Context, sessionToken string) error
	Me(ctx context.Context, userID string) (*models.User, error)
	UpdateAccount(ctx context.Context, userID, sessionToken, name, email string) (*services.AuthResult, error)
	ChangePassword(ctx context.Context, userID, sessionToken, current, next string) (int64, error)
}

type Sessions interface {
	Authenticate(ctx context.Context, token string) (*models.Session, error)
	List(ctx context.Context, userID, currentToken string) ([]services.SessionView, error)
	Revoke(ctx context.Context, userID, sessionID, currentToken string) error
	RevokeOthers(ctx context.Context, userID, currentToken string) (int64, error)
}

type Security interface {
	Status(ctx context.Context, userID string) (*services.TwoFactorStatus, error)
	Setup(ctx context.Context, userID, account string) (*auth.Enrollment, error)
	Verify(ctx context.Context, userID, code string) error
	Disable(ctx context.Context, userID string) error
}

type Templates interface {
	List(ctx context.Context, userID string) ([]templating.Template, error)
	Get(ctx context.Context, userID, ref string) (templating.Template, error)
	Create(ctx context.Context, userID string, in services.TemplateInput) (templating.Template, error)
	Update(ctx context.Context, userID, ref string, in services.TemplateInput) (templating.Template, error)
	Delete(ctx context.Context, userID, ref string) error
	Duplicate(ctx context.Context, userID, ref string) (templating.Template, error)
	Preview(ctx context.Context, userID, ref string, vars map[string]string) (string, string, error)
	Send(ctx context.Context, userID, ref, subject string, vars map[string]string, recipients []string) (*services.DeliveryReport, error)
}

type Contacts interface {
	List(ctx context.Context, userID, search string) ([]*models.Contact, error)
	Get(ctx context.Context, userID, id string) (*models.Contact, error)
	Create(ctx context.Context, userID string, in services.ContactInput) (*models.Contact, error)
	Update(ctx context.Context, userID, id string, in services.ContactInput) (*models.Contact, error)
	Delete(ctx context.Context, userID, id string) error
	Import(ctx context.Context, userID string, in []services.ContactInput) (*services.ImportResult, error)
}

type History interface {
	List(ctx context.Context, userID string, page, pageSize int) (*services.HistoryPage, error)
	Get(ctx context.Context, userID, id string) (*models.EmailHistory, error)
	Logs(ctx context.Context, userID, id string) ([]*models.EmailLog, error)
}

type Schedules interface {
	Create(ctx context.Context, userID string, in services.ScheduleInput) (*models.ScheduledEmail, error)
	List(ctx context.Context, userID string) ([]*models.ScheduledEmail, error)
	Get(ctx context.Context, userID, id string) (*models.ScheduledEmail, error)
	Cancel(ctx context.Context, userID, id string) error
}

type Notifications interface {
	List(ctx context.Context, userID string, unreadOnly bool) (*services.NotificationList, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, userID, id string) error
	Settings(ctx context.Context, userID string) (*models.NotificationSettings, error)
	UpdateSettings(ctx context.Context, userID string, in services.SettingsInput) (*models.NotificationSettings, error)
}

type Profiles interface {
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
	Update(ctx context.Context, userID string, in services.ProfileInput) (*models.UserProfile, error)
	UploadAvatar(ctx context.Context, userID string, data []byte) (string, error)
}

type Images interface {
	Upload(ctx context.Context, userID, filename string, data []byte) (*models.Image, error)
	List(ctx context.Context, userID string) ([]*models.Image, error)
	Raw(ctx context.Context, id string) (*models.Image, error)
	Delete(ctx context.Context, userID, id string) error
}

// Live upgrades a request to the notification WebSocket.
type Live interface {
	Serve(w http.ResponseWriter, r *http.Request, userID string)
}
