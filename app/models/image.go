package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Transformation types supported by the external image-processing service.
// The service never interprets the transformation parameters itself; it only
// stores them alongside the result.
const (
	TransformationRestore           = "restore"
	TransformationFill              = "fill"
	TransformationRemove            = "remove"
	TransformationRecolor           = "recolor"
	TransformationRemoveBackground  = "removeBackground"
	TransformationReplaceBackground = "replaceBackground"
)

// ValidTransformationType reports whether t names a known transformation.
func ValidTransformationType(t string) bool {
	switch t {
	case TransformationRestore, TransformationFill, TransformationRemove,
		TransformationRecolor, TransformationRemoveBackground, TransformationReplaceBackground:
		return true
	}
	return false
}

// JSON stores opaque structured data (transformation parameters) as a JSON
// column without interpreting it.
type JSON json.RawMessage

// Value implements the driver.Valuer interface
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

// Scan implements the sql.Scanner interface
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = JSON("{}")
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("invalid scan source")
	}
	*j = JSON(bytes)
	return nil
}

// MarshalJSON implements the json.Marshaler interface
func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (j *JSON) UnmarshalJSON(data []byte) error {
	*j = JSON(data)
	return nil
}

// Image is one saved transformation result. PublicID is the identifier of the
// blob at the external storage provider and is the join key the reconciliation
// sweeper diffs against the provider listing.
type Image struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	PublicID           string    `gorm:"type:varchar(255) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"public_id"`
	Title              string    `gorm:"type:varchar(255)" json:"title"`
	TransformationType string    `gorm:"type:varchar(50);not null;index" json:"transformation_type"`
	SecureURL          string    `gorm:"type:varchar(512);not null" json:"secure_url"`
	TransformationURL  string    `gorm:"type:varchar(512)" json:"transformation_url"`
	Width              int       `gorm:"type:int" json:"width"`
	Height             int       `gorm:"type:int" json:"height"`
	AspectRatio        string    `gorm:"type:varchar(20)" json:"aspect_ratio"`
	Color              string    `gorm:"type:varchar(50)" json:"color"`
	Prompt             string    `gorm:"type:varchar(255)" json:"prompt"`
	Config             *JSON     `gorm:"type:json" json:"config"`
	AuthorID           uint      `gorm:"index;not null" json:"author_id"`
	Author             User      `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	IsPrivate          bool      `gorm:"default:false" json:"is_private"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate fills a fallback public id when the upload step did not supply one
func (i *Image) BeforeCreate(tx *gorm.DB) error {
	if i.PublicID == "" {
		i.PublicID = uuid.New().String()
	}
	return nil
}

// FindImageByPublicID finds an image by its blob-storage identifier
func FindImageByPublicID(db *gorm.DB, publicID string) (*Image, error) {
	var image Image
	result := db.Where("public_id = ?", publicID).First(&image)
	return &image, result.Error
}
