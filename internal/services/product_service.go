package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lernwerk/backend/internal/models"
)

type ProductService struct {
	db *gorm.DB
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

func (s *ProductService) Create(ctx context.Context, product *models.Product) error {
	if product.Title == "" {
		return fmt.Errorf("title is required")
	}
	switch product.Type {
	case models.ProductTypeCourse, models.ProductTypeSeminar, models.ProductTypeDownload, models.ProductTypeBundle:
	default:
		return fmt.Errorf("invalid product type: %s", product.Type)
	}
	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// PatchRecordFields persists derived fields on the owning record and returns
// the updated row. The synchronizer inspects the returned record to decide
// whether the update is confirmed.
func (s *ProductService) PatchRecordFields(ctx context.Context, recordID uuid.UUID, fields map[string]interface{}) (*models.Product, error) {
	if len(fields) == 0 {
		return s.GetByID(ctx, recordID)
	}
	result := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", recordID).Updates(fields)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to patch product %s: %w", recordID, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	var updated models.Product
	if err := s.db.WithContext(ctx).First(&updated, "id = ?", recordID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload product %s: %w", recordID, err)
	}
	return &updated, nil
}
