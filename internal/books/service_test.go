package books

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/librarian-backend/pkg/db/models"
	"github.com/angelmondragon/librarian-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/librarian-backend/pkg/errors"
	"github.com/angelmondragon/librarian-backend/pkg/pagination"
)

type stubBooksRepo struct {
	books     map[uuid.UUID]*models.Book
	byISBN    map[string]*models.Book
	copies    []models.BookCopy
	openLoans int64
	deleted   []uuid.UUID
}

func newStubBooksRepo() *stubBooksRepo {
	return &stubBooksRepo{
		books:  make(map[uuid.UUID]*models.Book),
		byISBN: make(map[string]*models.Book),
	}
}

func (s *stubBooksRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubBooksRepo) Create(ctx context.Context, book *models.Book) (*models.Book, error) {
	if book.ID == uuid.Nil {
		book.ID = uuid.New()
	}
	s.books[book.ID] = book
	if book.ISBN != nil {
		s.byISBN[*book.ISBN] = book
	}
	return book, nil
}

func (s *stubBooksRepo) CreateCopies(ctx context.Context, copies []models.BookCopy) error {
	s.copies = append(s.copies, copies...)
	return nil
}

func (s *stubBooksRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	book, ok := s.books[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return book, nil
}

func (s *stubBooksRepo) FindDetail(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	book, ok := s.books[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	detail := *book
	detail.Copies = nil
	for _, copyRow := range s.copies {
		if copyRow.BookID == id {
			detail.Copies = append(detail.Copies, copyRow)
		}
	}
	return &detail, nil
}

func (s *stubBooksRepo) FindByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	book, ok := s.byISBN[isbn]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return book, nil
}

func (s *stubBooksRepo) List(ctx context.Context, filter ListFilter, page pagination.Params) ([]BookRow, int64, error) {
	rows := make([]BookRow, 0, len(s.books))
	for _, book := range s.books {
		rows = append(rows, BookRow{Book: *book})
	}
	return rows, int64(len(rows)), nil
}

func (s *stubBooksRepo) CopyCounts(ctx context.Context, bookID uuid.UUID) (int64, int64, error) {
	var total, available int64
	for _, copyRow := range s.copies {
		if copyRow.BookID != bookID {
			continue
		}
		total++
		if copyRow.Status == enums.CopyStatusAvailable {
			available++
		}
	}
	return total, available, nil
}

func (s *stubBooksRepo) CountOpenLoans(ctx context.Context, bookID uuid.UUID) (int64, error) {
	return s.openLoans, nil
}

func (s *stubBooksRepo) Update(ctx context.Context, book *models.Book) (*models.Book, error) {
	if _, ok := s.books[book.ID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	s.books[book.ID] = book
	return book, nil
}

func (s *stubBooksRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.books, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubBooksRepo) Categories(ctx context.Context) ([]string, error) {
	return []string{"Fiction", "Science"}, nil
}

func (s *stubBooksRepo) Languages(ctx context.Context) ([]string, error) {
	return []string{"English"}, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newBooksService(t *testing.T, repo *stubBooksRepo) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestCreateBookWithCopies(t *testing.T) {
	repo := newStubBooksRepo()
	svc := newBooksService(t, repo)

	isbn := "978-0-13-468599-1"
	book, err := svc.Create(context.Background(), CreateBookInput{
		Title:       "The Go Programming Language",
		Author:      "Donovan & Kernighan",
		ISBN:        &isbn,
		CopiesCount: 3,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if book.ISBN == nil || *book.ISBN != "9780134685991" {
		t.Fatalf("expected normalized isbn, got %v", book.ISBN)
	}
	if book.Language != "English" {
		t.Fatalf("expected default language English, got %s", book.Language)
	}
	if book.TotalCopies != 3 || book.AvailableCopies != 3 {
		t.Fatalf("expected 3/3 copies, got %d/%d", book.TotalCopies, book.AvailableCopies)
	}
	for _, copyRow := range repo.copies {
		if copyRow.Status != enums.CopyStatusAvailable {
			t.Fatalf("expected copies created available, got %s", copyRow.Status)
		}
	}
}

func TestCreateBookRequiresTitle(t *testing.T) {
	svc := newBooksService(t, newStubBooksRepo())

	_, err := svc.Create(context.Background(), CreateBookInput{Title: "  ", Author: "Someone"})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateBookDuplicateISBN(t *testing.T) {
	repo := newStubBooksRepo()
	svc := newBooksService(t, repo)

	isbn := "9780134685991"
	if _, err := svc.Create(context.Background(), CreateBookInput{Title: "First", Author: "A", ISBN: &isbn}); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	_, err := svc.Create(context.Background(), CreateBookInput{Title: "Second", Author: "B", ISBN: &isbn})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestCreateBookCopiesCountCap(t *testing.T) {
	svc := newBooksService(t, newStubBooksRepo())

	_, err := svc.Create(context.Background(), CreateBookInput{
		Title:       "Oversized",
		Author:      "A",
		CopiesCount: maxInitialCopies + 1,
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestUpdateBookPartial(t *testing.T) {
	repo := newStubBooksRepo()
	svc := newBooksService(t, repo)

	book, err := svc.Create(context.Background(), CreateBookInput{Title: "Old Title", Author: "A"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	title := "New Title"
	updated, err := svc.Update(context.Background(), book.ID, UpdateBookInput{Title: &title})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != title {
		t.Fatalf("expected title %q, got %q", title, updated.Title)
	}
	if updated.Author != "A" {
		t.Fatalf("expected author untouched, got %q", updated.Author)
	}
}

func TestDeleteBookBlockedByOpenLoans(t *testing.T) {
	repo := newStubBooksRepo()
	svc := newBooksService(t, repo)

	book, err := svc.Create(context.Background(), CreateBookInput{Title: "Loaned", Author: "A"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	repo.openLoans = 1

	err = svc.Delete(context.Background(), book.ID)
	assertCode(t, err, pkgerrors.CodeConflict)
	if len(repo.deleted) != 0 {
		t.Fatalf("expected no deletion, got %v", repo.deleted)
	}
}

func TestDeleteBook(t *testing.T) {
	repo := newStubBooksRepo()
	svc := newBooksService(t, repo)

	book, err := svc.Create(context.Background(), CreateBookInput{Title: "Gone", Author: "A"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(context.Background(), book.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != book.ID {
		t.Fatalf("expected book deleted, got %v", repo.deleted)
	}
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	appErr := pkgerrors.As(err)
	if appErr == nil {
		t.Fatalf("expected app error, got %v", err)
	}
	if appErr.Code() != code {
		t.Fatalf("expected code %s, got %s (%v)", code, appErr.Code(), err)
	}
}
