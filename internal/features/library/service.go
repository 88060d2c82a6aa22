package library

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrBookNotFound     = errors.New("book not found")
	ErrCategoryInUse    = errors.New("category still has books")
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) ListCategories() ([]Category, error) {
	var categories []Category
	err := s.db.Order("name").Find(&categories).Error
	return categories, err
}

func (s *Service) CreateCategory(req *CategoryRequest) (*Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.New("category name cannot be empty")
	}

	category := Category{ID: uuid.New(), Name: name}
	if err := s.db.Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *Service) DeleteCategory(id uuid.UUID) error {
	var count int64
	if err := s.db.Model(&Book{}).Where("category_id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrCategoryInUse
	}

	result := s.db.Where("id = ?", id).Delete(&Category{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// ListBooks returns the catalog, optionally filtered to one category.
func (s *Service) ListBooks(categoryID *uuid.UUID) ([]Book, error) {
	query := s.db.Order("created_at DESC")
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	}
	var books []Book
	return books, query.Find(&books).Error
}

func (s *Service) CreateBook(req *BookRequest) (*Book, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, errors.New("book title cannot be empty")
	}

	var category Category
	if err := s.db.First(&category, "id = ?", req.CategoryID).Error; err != nil {
		return nil, ErrCategoryNotFound
	}

	book := Book{
		ID:          uuid.New(),
		CategoryID:  category.ID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		CoverURL:    req.CoverURL,
		FileURL:     req.FileURL,
	}
	if err := s.db.Create(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (s *Service) UpdateBook(id uuid.UUID, req *BookRequest) (*Book, error) {
	var book Book
	if err := s.db.First(&book, "id = ?", id).Error; err != nil {
		return nil, ErrBookNotFound
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, errors.New("book title cannot be empty")
	}
	if req.CategoryID != book.CategoryID {
		var category Category
		if err := s.db.First(&category, "id = ?", req.CategoryID).Error; err != nil {
			return nil, ErrCategoryNotFound
		}
	}

	err := s.db.Model(&book).Updates(map[string]interface{}{
		"category_id": req.CategoryID,
		"title":       title,
		"description": strings.TrimSpace(req.Description),
		"cover_url":   req.CoverURL,
		"file_url":    req.FileURL,
	}).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (s *Service) DeleteBook(id uuid.UUID) error {
	result := s.db.Where("id = ?", id).Delete(&Book{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}
