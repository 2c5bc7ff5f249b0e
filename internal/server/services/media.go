package services

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/sendly-app/sendly/internal/common"
	"github.com/sendly-app/sendly/internal/server/models"
	"github.com/sendly-app/sendly/internal/server/repositories/repomanager"
	"github.com/sendly-app/sendly/internal/server/storage"
)

var imageContentTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// checkImage validates size and sniffs the content type instead of trusting
// the client-declared one.
func checkImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: file is empty", common.ErrorValidation)
	}
	if len(data) > common.MaxUploadSize {
		return "", fmt.Errorf("%w: file exceeds %d bytes", common.ErrorValidation, common.MaxUploadSize)
	}
	ct := http.DetectContentType(data)
	if !slices.Contains(imageContentTypes, ct) {
		return "", fmt.Errorf("%w: unsupported image type %s", common.ErrorValidation, ct)
	}
	return ct, nil
}

type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       storage.Store
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager, store storage.Store) *ProfileService {
	return &ProfileService{db: db, repomanager: m, store: store}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	return s.repomanager.Profiles(s.db).GetOrCreate(ctx, userID)
}

type ProfileInput struct {
	Bio      string `json:"bio" binding:"max=1000"`
	Company  string `json:"company" binding:"max=200"`
	JobTitle string `json:"jobTitle" binding:"max=200"`
	Phone    string `json:"phone" binding:"max=50"`
	Location string `json:"location" binding:"max=200"`
	Website  string `json:"website" binding:"omitempty,url,max=500"`
}

func (s *ProfileService) Update(ctx context.Context, userID string, in ProfileInput) (*models.UserProfile, error) {
	p := &models.UserProfile{
		UserID:   userID,
		Bio:      strings.TrimSpace(in.Bio),
		Company:  strings.TrimSpace(in.Company),
		JobTitle: strings.TrimSpace(in.JobTitle),
		Phone:    strings.TrimSpace(in.Phone),
		Location: strings.TrimSpace(in.Location),
		Website:  strings.TrimSpace(in.Website),
	}
	if err := s.repomanager.Profiles(s.db).Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}

// UploadAvatar stores the picture in object storage and records its public URL.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID string, data []byte) (string, error) {
	ct, err := checkImage(data)
	if err != nil {
		return "", err
	}
	url, err := s.store.Put(ctx, "users/"+userID, ct, data)
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	if err := s.repomanager.Profiles(s.db).SetAvatar(ctx, userID, url); err != nil {
		return "", fmt.Errorf("save avatar: %w", err)
	}
	return url, nil
}

// ImageService keeps small images inline in the database so they can be
// referenced from email HTML by URL.
type ImageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewImageService(db *sql.DB, m repomanager.RepositoryManager) *ImageService {
	return &ImageService{db: db, repomanager: m}
}

func (s *ImageService) Upload(ctx context.Context, userID, filename string, data []byte) (*models.Image, error) {
	ct, err := checkImage(data)
	if err != nil {
		return nil, err
	}
	img := &models.Image{UserID: userID, Filename: filename, ContentType: ct, Data: data}
	if err := s.repomanager.Images(s.db).Create(ctx, img); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}
	return img, nil
}

func (s *ImageService) List(ctx context.Context, userID string) ([]*models.Image, error) {
	list, err := s.repomanager.Images(s.db).List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	if list == nil {
		list = []*models.Image{}
	}
	return list, nil
}

// Raw returns the image bytes. It is not scoped to a user.
func (s *ImageService) Raw(ctx context.Context, id string) (*models.Image, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Images(s.db).Get(ctx, id)
}

func (s *ImageService) Delete(ctx context.Context, userID, id string) error {
	if uuid.Validate(id) != nil {
		return common.ErrorNotFound
	}
	return s.repomanager.Images(s.db).Delete(ctx, userID, id)
}
