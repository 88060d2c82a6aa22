package library

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category is a named bucket of the shared catalog.
type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (Category) TableName() string {
	return "library_categories"
}

// Book stores the cover and file locations verbatim as content-delivery
// URLs.
type Book struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CategoryID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"category_id"`
	Title       string         `gorm:"size:200;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	CoverURL    string         `gorm:"type:text" json:"cover_url,omitempty"`
	FileURL     string         `gorm:"type:text" json:"file_url,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Book) TableName() string {
	return "library_books"
}

// --- DTOs ---

type CategoryRequest struct {
	Name string `json:"name"`
}

type BookRequest struct {
	CategoryID  uuid.UUID `json:"category_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CoverURL    string    `json:"cover_url"`
	FileURL     string    `json:"file_url"`
}
