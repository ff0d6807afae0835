package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductType string

const (
	ProductTypeCourse   ProductType = "course"
	ProductTypeSeminar  ProductType = "seminar"
	ProductTypeDownload ProductType = "download"
	ProductTypeBundle   ProductType = "bundle"
)

type VideoType string

const (
	VideoTypeNone     VideoType = ""
	VideoTypeUpload   VideoType = "upload"
	VideoTypeExternal VideoType = "external"
)

// Product is the owning record assets attach to. EntityID is the secondary
// ("entity") identifier used by content- and system-layer assets; marketing
// assets always key off the primary ID.
type Product struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Type      ProductType `gorm:"size:32;index" json:"type"`
	EntityID  string      `gorm:"size:64;index" json:"entity_id"`
	Title     string      `gorm:"size:255" json:"title"`
	Published bool        `gorm:"default:false" json:"published"`

	// Derived asset fields, kept in sync by the synchronizer after every
	// successful upload or delete.
	HasImage         bool      `gorm:"default:false" json:"has_image"`
	ImageFilename    string    `gorm:"size:255" json:"image_filename"`
	VideoType        VideoType `gorm:"size:16;default:''" json:"video_type"`
	VideoFilename    string    `gorm:"size:255" json:"video_filename"`
	HasLogo          bool      `gorm:"default:false" json:"has_logo"`
	LogoFilename     string    `gorm:"size:255" json:"logo_filename"`
	HasAudio         bool      `gorm:"default:false" json:"has_audio"`
	AudioFilename    string    `gorm:"size:255" json:"audio_filename"`
	HasDocument      bool      `gorm:"default:false" json:"has_document"`
	DocumentFilename string    `gorm:"size:255" json:"document_filename"`
	SlideCount       int       `gorm:"default:0" json:"slide_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
