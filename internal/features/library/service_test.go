package library_test

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/purepath/recovery-backend/internal/features/library"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*library.Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&library.Category{}, &library.Book{}))
	return library.NewService(db), db
}

func TestCategoryLifecycle(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateCategory(&library.CategoryRequest{Name: "   "})
	assert.Error(t, err)

	cat, err := svc.CreateCategory(&library.CategoryRequest{Name: "Recovery stories"})
	require.NoError(t, err)

	categories, err := svc.ListCategories()
	require.NoError(t, err)
	require.Len(t, categories, 1)

	require.NoError(t, svc.DeleteCategory(cat.ID))
	err = svc.DeleteCategory(cat.ID)
	assert.ErrorIs(t, err, library.ErrCategoryNotFound)
}

func TestDeleteCategoryBlockedWhileBooksRemain(t *testing.T) {
	svc, _ := newTestService(t)

	cat, err := svc.CreateCategory(&library.CategoryRequest{Name: "Science"})
	require.NoError(t, err)

	book, err := svc.CreateBook(&library.BookRequest{
		CategoryID: cat.ID,
		Title:      "The Craving Mind",
		CoverURL:   "https://cdn.example.com/covers/craving.jpg",
	})
	require.NoError(t, err)

	err = svc.DeleteCategory(cat.ID)
	assert.ErrorIs(t, err, library.ErrCategoryInUse)

	require.NoError(t, svc.DeleteBook(book.ID))
	require.NoError(t, svc.DeleteCategory(cat.ID))
}

func TestBookCRUD(t *testing.T) {
	svc, _ := newTestService(t)

	cat, err := svc.CreateCategory(&library.CategoryRequest{Name: "Memoirs"})
	require.NoError(t, err)

	_, err = svc.CreateBook(&library.BookRequest{CategoryID: uuid.New(), Title: "Orphan"})
	assert.ErrorIs(t, err, library.ErrCategoryNotFound)

	book, err := svc.CreateBook(&library.BookRequest{
		CategoryID: cat.ID,
		Title:      "  Dry  ",
		FileURL:    "https://cdn.example.com/books/dry.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "Dry", book.Title)

	// The stored URL is kept verbatim.
	books, err := svc.ListBooks(&cat.ID)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "https://cdn.example.com/books/dry.pdf", books[0].FileURL)

	updated, err := svc.UpdateBook(book.ID, &library.BookRequest{
		CategoryID: cat.ID,
		Title:      "Dry: A Memoir",
	})
	require.NoError(t, err)
	assert.Equal(t, "Dry: A Memoir", updated.Title)

	_, err = svc.UpdateBook(uuid.New(), &library.BookRequest{CategoryID: cat.ID, Title: "x"})
	assert.ErrorIs(t, err, library.ErrBookNotFound)

	require.NoError(t, svc.DeleteBook(book.ID))
	books, err = svc.ListBooks(nil)
	require.NoError(t, err)
	assert.Empty(t, books)

	err = svc.DeleteBook(book.ID)
	assert.ErrorIs(t, err, library.ErrBookNotFound)
}
