package repository

import (
	"github.com/morphlyhq/morphly/app/models"
	"gorm.io/gorm"
)

type imageRepository struct {
	db *gorm.DB
}

// NewImageRepository creates an image repository backed by GORM
func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) Create(image *models.Image) error {
	return r.db.Create(image).Error
}

func (r *imageRepository) GetByID(id uint) (*models.Image, error) {
	var image models.Image
	if err := r.db.First(&image, id).Error; err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *imageRepository) GetByPublicID(publicID string) (*models.Image, error) {
	var image models.Image
	if err := r.db.Where("public_id = ?", publicID).First(&image).Error; err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *imageRepository) GetByAuthorID(authorID uint, offset, limit int) ([]models.Image, error) {
	var images []models.Image
	err := r.db.Where("author_id = ?", authorID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&images).Error
	return images, err
}

func (r *imageRepository) Update(image *models.Image) error {
	return r.db.Save(image).Error
}

func (r *imageRepository) Delete(id uint) error {
	return r.db.Delete(&models.Image{}, id).Error
}

// ListPublicIDs returns the full referenced set of blob identifiers. The
// reconciliation sweeper treats this as ground truth over what blobs may
// exist at the storage provider.
func (r *imageRepository) ListPublicIDs() ([]string, error) {
	var publicIDs []string
	err := r.db.Model(&models.Image{}).Pluck("public_id", &publicIDs).Error
	return publicIDs, err
}

func (r *imageRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Image{}).Count(&count).Error
	return count, err
}

func (r *imageRepository) CountByAuthorID(authorID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Image{}).Where("author_id = ?", authorID).Count(&count).Error
	return count, err
}
