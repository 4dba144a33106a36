package books

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/librarian-backend/pkg/errors"
	"github.com/angelmondragon/librarian-backend/pkg/db/models"
	"github.com/angelmondragon/librarian-backend/pkg/enums"
	"github.com/angelmondragon/librarian-backend/pkg/pagination"
)

const maxInitialCopies = 100

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes catalog management operations.
type Service interface {
	Create(ctx context.Context, input CreateBookInput) (*BookDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*BookDTO, error)
	List(ctx context.Context, filter ListFilter, page pagination.Params) (*ListResult, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateBookInput) (*BookDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Categories(ctx context.Context) ([]string, error)
	Languages(ctx context.Context) ([]string, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds a catalog service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("books repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, input CreateBookInput) (*BookDTO, error) {
	title := strings.TrimSpace(input.Title)
	author := strings.TrimSpace(input.Author)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if author == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "author is required")
	}
	if input.CopiesCount < 0 || input.CopiesCount > maxInitialCopies {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("copies_count must be between 0 and %d", maxInitialCopies))
	}

	isbn := normalizeISBN(input.ISBN)
	if isbn != nil {
		if _, err := s.repo.FindByISBN(ctx, *isbn); err == nil {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a book with this isbn already exists")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check isbn")
		}
	}

	book := &models.Book{
		Title:           title,
		Author:          author,
		ISBN:            isbn,
		Category:        input.Category,
		Publisher:       input.Publisher,
		PublicationYear: input.PublicationYear,
		Pages:           input.Pages,
		Description:     input.Description,
	}
	if input.Language != nil && strings.TrimSpace(*input.Language) != "" {
		book.Language = strings.TrimSpace(*input.Language)
	} else {
		book.Language = "English"
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.Create(ctx, book); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create book")
		}
		if input.CopiesCount > 0 {
			copies := make([]models.BookCopy, 0, input.CopiesCount)
			for i := 0; i < input.CopiesCount; i++ {
				copies = append(copies, models.BookCopy{
					BookID:      book.ID,
					RackID:      input.RackID,
					ShelfNumber: input.ShelfNumber,
					Status:      enums.CopyStatusAvailable,
				})
			}
			if err := repo.CreateCopies(ctx, copies); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create copies")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, book.ID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*BookDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book id required")
	}
	book, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load book")
	}

	var total, available int64
	for _, copyRow := range book.Copies {
		total++
		if copyRow.Status == enums.CopyStatusAvailable {
			available++
		}
	}

	dto := fromModel(book, total, available)
	return &dto, nil
}

func (s *service) List(ctx context.Context, filter ListFilter, page pagination.Params) (*ListResult, error) {
	rows, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list books")
	}

	result := &ListResult{
		Books: make([]BookDTO, 0, len(rows)),
		Meta:  pagination.MetaFor(page, total),
	}
	for i := range rows {
		result.Books = append(result.Books, fromModel(&rows[i].Book, rows[i].TotalCopies, rows[i].AvailableCopies))
	}
	return result, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateBookInput) (*BookDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book id required")
	}
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load book")
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		book.Title = title
	}
	if input.Author != nil {
		author := strings.TrimSpace(*input.Author)
		if author == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "author cannot be empty")
		}
		book.Author = author
	}
	if input.ISBN != nil {
		isbn := normalizeISBN(input.ISBN)
		if isbn != nil {
			existing, err := s.repo.FindByISBN(ctx, *isbn)
			if err == nil && existing.ID != book.ID {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "a book with this isbn already exists")
			} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check isbn")
			}
		}
		book.ISBN = isbn
	}
	if input.Category != nil {
		book.Category = input.Category
	}
	if input.Publisher != nil {
		book.Publisher = input.Publisher
	}
	if input.PublicationYear != nil {
		book.PublicationYear = input.PublicationYear
	}
	if input.Language != nil && strings.TrimSpace(*input.Language) != "" {
		book.Language = strings.TrimSpace(*input.Language)
	}
	if input.Pages != nil {
		book.Pages = input.Pages
	}
	if input.Description != nil {
		book.Description = input.Description
	}

	if _, err := s.repo.Update(ctx, book); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update book")
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "book id required")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load book")
	}

	openLoans, err := s.repo.CountOpenLoans(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count open loans")
	}
	if openLoans > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "book has copies on open loans")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete book")
	}
	return nil
}

func (s *service) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	return categories, nil
}

func (s *service) Languages(ctx context.Context) ([]string, error) {
	languages, err := s.repo.Languages(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list languages")
	}
	return languages, nil
}

func normalizeISBN(isbn *string) *string {
	if isbn == nil {
		return nil
	}
	cleaned := strings.ReplaceAll(strings.TrimSpace(*isbn), "-", "")
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
