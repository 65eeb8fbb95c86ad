package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/Baaaki/apartment-booking/internal/models"
	"github.com/Baaaki/apartment-booking/internal/repository"
	"github.com/Baaaki/apartment-booking/internal/storage"
	"github.com/Baaaki/apartment-booking/pkg/apperr"
	"github.com/Baaaki/apartment-booking/pkg/logger"
	"go.uber.org/zap"
)

// MaxImageSize bounds a single apartment image upload.
const MaxImageSize = 10 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

type ApartmentInput struct {
	Title       string
	Description string
	Location    string
	Category    string
	Price       float64
	Capacity    int
	Amenities   string
	Images      []string
}

// ApartmentPatch holds a partial update; nil fields are left unchanged.
type ApartmentPatch struct {
	Title       *string
	Description *string
	Location    *string
	Category    *string
	Price       *float64
	Capacity    *int
	Amenities   *string
	Images      *[]string
}

type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type ApartmentService struct {
	store    *repository.Store
	uploader storage.Uploader
}

func NewApartmentService(store *repository.Store, uploader storage.Uploader) *ApartmentService {
	if uploader == nil {
		uploader = storage.NoopUploader{}
	}
	return &ApartmentService{store: store, uploader: uploader}
}

func (s *ApartmentService) List(ctx context.Context, f repository.ApartmentFilter, page repository.Page) (*PageResult[models.ApartmentWithStats], error) {
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return nil, apperr.Validation("invalid price range",
			apperr.FieldError{Field: "maxPrice", Message: "maxPrice must not be below minPrice"},
		)
	}

	rows, total, err := s.store.Apartments.List(ctx, f, page)
	if err != nil {
		logger.Log.Error("Failed to list apartments", zap.Error(err))
		return nil, apperr.Internal(err, "failed to list apartments")
	}
	return pageResult(rows, total, page), nil
}

func (s *ApartmentService) Get(ctx context.Context, id uint) (*models.ApartmentWithStats, error) {
	apt, err := s.store.Apartments.GetWithStats(ctx, id)
	if err != nil {
		logger.Log.Error("Failed to load apartment",
			zap.Uint("apartment_id", id),
			zap.Error(err),
		)
		return nil, apperr.Internal(err, "failed to load apartment")
	}
	if apt == nil {
		return nil, ErrApartmentNotFound
	}
	return apt, nil
}

func (s *ApartmentService) Categories(ctx context.Context) ([]string, error) {
	values, err := s.store.Apartments.Categories(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list categories")
	}
	return values, nil
}

func (s *ApartmentService) Locations(ctx context.Context) ([]string, error) {
	values, err := s.store.Apartments.Locations(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list locations")
	}
	return values, nil
}

// Create adds a listing. Admin only.
func (s *ApartmentService) Create(ctx context.Context, actor Actor, in ApartmentInput) (*models.Apartment, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminRequired
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	createdBy := actor.UserID
	apt := &models.Apartment{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		Category:    strings.TrimSpace(in.Category),
		Price:       in.Price,
		Capacity:    in.Capacity,
		Amenities:   in.Amenities,
		Images:      joinImages(in.Images),
		CreatedBy:   &createdBy,
	}
	if err := s.store.Apartments.Create(ctx, apt); err != nil {
		logger.Log.Error("Failed to create apartment",
			zap.String("title", apt.Title),
			zap.Error(err),
		)
		return nil, apperr.Internal(err, "failed to create apartment")
	}

	logger.Log.Info("Apartment created",
		zap.Uint("apartment_id", apt.ID),
		zap.Uint("admin_id", actor.UserID),
	)
	return apt, nil
}

// Update applies a partial update. Admin only.
func (s *ApartmentService) Update(ctx context.Context, actor Actor, id uint, patch ApartmentPatch) (*models.ApartmentWithStats, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminRequired
	}

	fields, err := patch.fields()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return s.Get(ctx, id)
	}

	updated, err := s.store.Apartments.Update(ctx, id, fields)
	if err != nil {
		logger.Log.Error("Failed to update apartment",
			zap.Uint("apartment_id", id),
			zap.Error(err),
		)
		return nil, apperr.Internal(err, "failed to update apartment")
	}
	if !updated {
		return nil, ErrApartmentNotFound
	}

	logger.Log.Info("Apartment updated",
		zap.Uint("apartment_id", id),
		zap.Int("fields", len(fields)),
	)
	return s.Get(ctx, id)
}

// Delete soft-deletes a listing. Existing reservations keep referencing it.
func (s *ApartmentService) Delete(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsAdmin() {
		return ErrAdminRequired
	}
	deleted, err := s.store.Apartments.SoftDelete(ctx, id)
	if err != nil {
		logger.Log.Error("Failed to delete apartment",
			zap.Uint("apartment_id", id),
			zap.Error(err),
		)
		return apperr.Internal(err, "failed to delete apartment")
	}
	if !deleted {
		return ErrApartmentNotFound
	}

	logger.Log.Info("Apartment deleted",
		zap.Uint("apartment_id", id),
		zap.Uint("admin_id", actor.UserID),
	)
	return nil
}

// UploadImage stores an image in object storage and appends its URL to the listing.
func (s *ApartmentService) UploadImage(ctx context.Context, actor Actor, id uint, img ImageUpload) (*models.Apartment, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminRequired
	}
	contentType := strings.ToLower(strings.TrimSpace(strings.Split(img.ContentType, ";")[0]))
	if !allowedImageTypes[contentType] {
		return nil, apperr.Validation("unsupported image type",
			apperr.FieldError{Field: "image", Message: "must be a jpeg, png, webp or gif image"},
		)
	}
	if img.Size <= 0 || img.Size > MaxImageSize {
		return nil, apperr.Validation("invalid image size",
			apperr.FieldError{Field: "image", Message: "image must be between 1 byte and 10 MB"},
		)
	}

	apt, err := s.store.Apartments.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load apartment")
	}
	if apt == nil {
		return nil, ErrApartmentNotFound
	}

	key := storage.ApartmentImageKey(id, img.Filename)
	url, err := s.uploader.Upload(ctx, key, img.Body, img.Size, contentType)
	if err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			return nil, apperr.Wrap(err, apperr.CodeInternal, "image storage is not configured")
		}
		logger.Log.Error("Failed to upload apartment image",
			zap.Uint("apartment_id", id),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, apperr.Internal(err, "failed to upload image")
	}

	images := append(apt.ImageList(), url)
	apt.Images = joinImages(images)
	if _, err := s.store.Apartments.Update(ctx, id, map[string]any{"images": apt.Images}); err != nil {
		return nil, apperr.Internal(err, "failed to save image")
	}

	logger.Log.Info("Apartment image uploaded",
		zap.Uint("apartment_id", id),
		zap.String("url", url),
	)
	return apt, nil
}

func (in ApartmentInput) validate() error {
	var fields []apperr.FieldError
	if strings.TrimSpace(in.Title) == "" {
		fields = append(fields, apperr.FieldError{Field: "title", Message: "title is required"})
	}
	if strings.TrimSpace(in.Description) == "" {
		fields = append(fields, apperr.FieldError{Field: "description", Message: "description is required"})
	}
	if strings.TrimSpace(in.Location) == "" {
		fields = append(fields, apperr.FieldError{Field: "location", Message: "location is required"})
	}
	if strings.TrimSpace(in.Category) == "" {
		fields = append(fields, apperr.FieldError{Field: "category", Message: "category is required"})
	}
	if in.Price < 0 {
		fields = append(fields, apperr.FieldError{Field: "price", Message: "price must not be negative"})
	}
	if in.Capacity < 1 {
		fields = append(fields, apperr.FieldError{Field: "capacity", Message: "capacity must be at least 1"})
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid apartment", fields...)
	}
	return nil
}

func (p ApartmentPatch) fields() (map[string]any, error) {
	out := map[string]any{}
	var errs []apperr.FieldError

	text := func(column string, v *string) {
		if v == nil {
			return
		}
		trimmed := strings.TrimSpace(*v)
		if trimmed == "" {
			errs = append(errs, apperr.FieldError{Field: column, Message: column + " cannot be empty"})
			return
		}
		out[column] = trimmed
	}
	text("title", p.Title)
	text("description", p.Description)
	text("location", p.Location)
	text("category", p.Category)

	if p.Price != nil {
		if *p.Price < 0 {
			errs = append(errs, apperr.FieldError{Field: "price", Message: "price must not be negative"})
		} else {
			out["price"] = *p.Price
		}
	}
	if p.Capacity != nil {
		if *p.Capacity < 1 {
			errs = append(errs, apperr.FieldError{Field: "capacity", Message: "capacity must be at least 1"})
		} else {
			out["capacity"] = *p.Capacity
		}
	}
	if p.Amenities != nil {
		out["amenities"] = *p.Amenities
	}
	if p.Images != nil {
		out["images"] = joinImages(*p.Images)
	}

	if len(errs) > 0 {
		return nil, apperr.Validation("invalid apartment", errs...)
	}
	return out, nil
}

func joinImages(urls []string) string {
	clean := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			clean = append(clean, u)
		}
	}
	return strings.Join(clean, ",")
}
