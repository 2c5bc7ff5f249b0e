package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sendly-app/sendly/internal/common"
	"github.com/sendly-app/sendly/internal/server/models"
	"github.com/sendly-app/sendly/internal/server/repositories/repomanager"
)

type ContactInput struct {
	Email   string   `json:"email" binding:"required,email" validate:"required,email"`
	Name    string   `json:"name" binding:"max=200" validate:"max=200"`
	Company string   `json:"company" binding:"max=200" validate:"max=200"`
	Tags    []string `json:"tags" binding:"max=50,dive,max=50" validate:"max=50,dive,max=50"`
	Notes   string   `json:"notes" binding:"max=5000" validate:"max=5000"`
}

// ImportResult counts the outcome of a bulk import.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Invalid  int `json:"invalid"`
}

type ContactService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	validate    *validator.Validate
}

func NewContactService(db *sql.DB, m repomanager.RepositoryManager) *ContactService {
	return &ContactService{db: db, repomanager: m, validate: validator.New()}
}

func (s *ContactService) List(ctx context.Context, userID, search string) ([]*models.Contact, error) {
	list, err := s.repomanager.Contacts(s.db).List(ctx, userID, search)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	if list == nil {
		list = []*models.Contact{}
	}
	return list, nil
}

func (s *ContactService) Get(ctx context.Context, userID, id string) (*models.Contact, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Contacts(s.db).Get(ctx, userID, id)
}

// Create adds a contact; an email already in the user's book yields
// common.ErrorAlreadyExists.
func (s *ContactService) Create(ctx context.Context, userID string, in ContactInput) (*models.Contact, error) {
	c := toContact(userID, in)
	if err := s.repomanager.Contacts(s.db).Create(ctx, c); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return c, nil
}

func (s *ContactService) Update(ctx context.Context, userID, id string, in ContactInput) (*models.Contact, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrorNotFound
	}
	c := toContact(userID, in)
	c.ID = id
	if err := s.repomanager.Contacts(s.db).Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ContactService) Delete(ctx context.Context, userID, id string) error {
	if uuid.Validate(id) != nil {
		return common.ErrorNotFound
	}
	return s.repomanager.Contacts(s.db).Delete(ctx, userID, id)
}

// Import creates each valid contact, skipping emails the user already has.
func (s *ContactService) Import(ctx context.Context, userID string, in []ContactInput) (*ImportResult, error) {
	res := &ImportResult{}
	repo := s.repomanager.Contacts(s.db)
	for _, item := range in {
		if err := s.validate.Struct(item); err != nil {
			res.Invalid++
			continue
		}
		err := repo.Create(ctx, toContact(userID, item))
		switch {
		case err == nil:
			res.Imported++
		case errors.Is(err, common.ErrorAlreadyExists):
			res.Skipped++
		default:
			return nil, fmt.Errorf("import contacts: %w", err)
		}
	}
	return res, nil
}

func toContact(userID string, in ContactInput) *models.Contact {
	tags := make([]string, 0, len(in.Tags))
	for _, t := range in.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return &models.Contact{
		UserID:  userID,
		Email:   NormalizeEmail(in.Email),
		Name:    strings.TrimSpace(in.Name),
		Company: strings.TrimSpace(in.Company),
		Tags:    tags,
		Notes:   in.Notes,
	}
}
