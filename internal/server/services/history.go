package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/sendly-app/sendly/internal/common"
	"github.com/sendly-app/sendly/internal/server/models"
	"github.com/sendly-app/sendly/internal/server/repositories/repomanager"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// MaxPage bounds the page number so the row offset cannot overflow.
	MaxPage = 1_000_000
)

type HistoryPage struct {
	Items    []*models.EmailHistory `json:"items"`
	Total    int                    `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"pageSize"`
}

type HistoryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewHistoryService(db *sql.DB, m repomanager.RepositoryManager) *HistoryService {
	return &HistoryService{db: db, repomanager: m}
}

// List returns page (1-based) of the user's history. Out-of-range page
// parameters are clamped.
func (s *HistoryService) List(ctx context.Context, userID string, page, pageSize int) (*HistoryPage, error) {
	page = min(max(page, 1), MaxPage)
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	items, total, err := s.repomanager.History(s.db).List(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	if items == nil {
		items = []*models.EmailHistory{}
	}
	return &HistoryPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *HistoryService) Get(ctx context.Context, userID, id string) (*models.EmailHistory, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.History(s.db).Get(ctx, userID, id)
}

// Logs returns the delivery log of one of the user's history entries.
func (s *HistoryService) Logs(ctx context.Context, userID, id string) ([]*models.EmailLog, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	logs, err := s.repomanager.History(s.db).ListLogs(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("list email logs: %w", err)
	}
	if logs == nil {
		logs = []*models.EmailLog{}
	}
	return logs, nil
}
