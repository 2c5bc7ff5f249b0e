package repomanager

import (
	"context"
	"database/sql"

	"github.com/sendly-app/sendly/internal/dbx"
	"github.com/sendly-app/sendly/internal/server/repositories/contacts"
	"github.com/sendly-app/sendly/internal/server/repositories/history"
	"github.com/sendly-app/sendly/internal/server/repositories/images"
	"github.com/sendly-app/sendly/internal/server/repositories/notifications"
	"github.com/sendly-app/sendly/internal/server/repositories/profiles"
	"github.com/sendly-app/sendly/internal/server/repositories/scheduled"
	"github.com/sendly-app/sendly/internal/server/repositories/security"
	"github.com/sendly-app/sendly/internal/server/repositories/sessions"
	"github.com/sendly-app/sendly/internal/server/repositories/templates"
	"github.com/sendly-app/sendly/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a *sql.DB or to a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Security(db dbx.DBTX) security.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	Templates(db dbx.DBTX) templates.Repository
	Contacts(db dbx.DBTX) contacts.Repository
	History(db dbx.DBTX) history.Repository
	Scheduled(db dbx.DBTX) scheduled.Repository
	Notifications(db dbx.DBTX) notifications.Repository
	Images(db dbx.DBTX) images.Repository
}
