package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sendly-app/sendly/internal/common"
	"github.com/sendly-app/sendly/internal/server/models"
	"github.com/sendly-app/sendly/internal/server/repositories/repomanager"
	"github.com/sendly-app/sendly/internal/server/templating"
)

// TemplateInput is the editable part of a stored template.
type TemplateInput struct {
	Name     string
	Subject  string
	HTML     string
	Category string
	IsPublic bool
}

type TemplateService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	catalogue   *templating.Catalogue
	delivery    *Delivery
}

func NewTemplateService(db *sql.DB, m repomanager.RepositoryManager, c *templating.Catalogue, d *Delivery) *TemplateService {
	return &TemplateService{db: db, repomanager: m, catalogue: c, delivery: d}
}

// List returns the predefined catalogue followed by the user's own and other
// users' public templates.
func (s *TemplateService) List(ctx context.Context, userID string) ([]templating.Template, error) {
	stored, err := s.repomanager.Templates(s.db).ListVisible(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	predefined := s.catalogue.List()
	out := make([]templating.Template, 0, len(predefined)+len(stored))
	for _, p := range predefined {
		out = append(out, p)
	}
	for _, t := range stored {
		out = append(out, templating.Stored{EmailTemplate: t})
	}
	return out, nil
}

// Get resolves ref for userID. Private templates of other users yield
// common.ErrorForbidden.
func (s *TemplateService) Get(ctx context.Context, userID, ref string) (templating.Template, error) {
	if key, ok := templating.ParseRef(ref); ok {
		p, found := s.catalogue.Get(key)
		if !found {
			return nil, common.ErrorNotFound
		}
		return p, nil
	}
	if uuid.Validate(ref) != nil {
		return nil, common.ErrorNotFound
	}
	row, err := s.repomanager.Templates(s.db).GetByID(ctx, ref)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("get template: %w", err)
	}
	t := templating.Stored{EmailTemplate: row}
	if !t.Readable(userID) {
		return nil, common.ErrorForbidden
	}
	return t, nil
}

func (s *TemplateService) Create(ctx context.Context, userID string, in TemplateInput) (templating.Template, error) {
	row := newTemplateRow(userID, in)
	if err := s.repomanager.Templates(s.db).Create(ctx, row); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return templating.Stored{EmailTemplate: row}, nil
}

func (s *TemplateService) Update(ctx context.Context, userID, ref string, in TemplateInput) (templating.Template, error) {
	existing, err := s.writable(ctx, userID, ref)
	if err != nil {
		return nil, err
	}
	row := newTemplateRow(userID, in)
	row.ID = existing.ID
	if err := s.repomanager.Templates(s.db).Update(ctx, row); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("update template: %w", err)
	}
	return templating.Stored{EmailTemplate: row}, nil
}

func (s *TemplateService) Delete(ctx context.Context, userID, ref string) error {
	existing, err := s.writable(ctx, userID, ref)
	if err != nil {
		return err
	}
	return s.repomanager.Templates(s.db).Delete(ctx, userID, existing.ID)
}

// Duplicate copies any readable template into a new private template owned by userID.
func (s *TemplateService) Duplicate(ctx context.Context, userID, ref string) (templating.Template, error) {
	src, err := s.Get(ctx, userID, ref)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, userID, TemplateInput{
		Name:     src.Name() + " (copy)",
		Subject:  src.Subject(),
		HTML:     src.HTML(),
		Category: src.Category(),
	})
}

// Preview renders with [name] markers for missing variables.
func (s *TemplateService) Preview(ctx context.Context, userID, ref string, vars map[string]string) (subject, html string, err error) {
	t, err := s.Get(ctx, userID, ref)
	if err != nil {
		return "", "", err
	}
	return Render(t, "", vars, templating.ModePreview)
}

func (s *TemplateService) Send(ctx context.Context, userID, ref, subject string, vars map[string]string, recipients []string) (*DeliveryReport, error) {
	t, err := s.Get(ctx, userID, ref)
	if err != nil {
		return nil, err
	}
	return s.delivery.Send(ctx, userID, t, subject, vars, recipients)
}

func (s *TemplateService) writable(ctx context.Context, userID, ref string) (*models.EmailTemplate, error) {
	t, err := s.Get(ctx, userID, ref)
	if err != nil {
		return nil, err
	}
	stored, ok := t.(templating.Stored)
	if !ok || !stored.Writable(userID) {
		return nil, common.ErrorForbidden
	}
	return stored.EmailTemplate, nil
}

func newTemplateRow(userID string, in TemplateInput) *models.EmailTemplate {
	return &models.EmailTemplate{
		UserID:    userID,
		Name:      strings.TrimSpace(in.Name),
		Subject:   in.Subject,
		HTML:      in.HTML,
		Variables: templating.ExtractVariables(in.Subject + "\n" + in.HTML),
		Category:  strings.TrimSpace(in.Category),
		IsPublic:  in.IsPublic,
	}
}
