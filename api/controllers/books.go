package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/librarian-backend/api/responses"
	"github.com/angelmondragon/librarian-backend/api/validators"
	booksvc "github.com/angelmondragon/librarian-backend/internal/books"
	pkgerrors "github.com/angelmondragon/librarian-backend/pkg/errors"
	"github.com/angelmondragon/librarian-backend/pkg/logger"
)

type createBookRequest struct {
	Title           string  `json:"title" validate:"required"`
	Author          string  `json:"author" validate:"required"`
	ISBN            *string `json:"isbn,omitempty"`
	Category        *string `json:"category,omitempty"`
	Publisher       *string `json:"publisher,omitempty"`
	PublicationYear *int    `json:"publication_year,omitempty" validate:"omitempty,min=1000,max=2100"`
	Language        *string `json:"language,omitempty"`
	Pages           *int    `json:"pages,omitempty" validate:"omitempty,min=1"`
	Description     *string `json:"description,omitempty"`
	CopiesCount     *int    `json:"copies_count,omitempty" validate:"omitempty,min=0,max=100"`
	RackID          *string `json:"rack_id,omitempty" validate:"omitempty,uuid"`
	ShelfNumber     *int    `json:"shelf_number,omitempty" validate:"omitempty,min=1"`
}

type updateBookRequest struct {
	Title           *string `json:"title,omitempty"`
	Author          *string `json:"author,omitempty"`
	ISBN            *string `json:"isbn,omitempty"`
	Category        *string `json:"category,omitempty"`
	Publisher       *string `json:"publisher,omitempty"`
	PublicationYear *int    `json:"publication_year,omitempty" validate:"omitempty,min=1000,max=2100"`
	Language        *string `json:"language,omitempty"`
	Pages           *int    `json:"pages,omitempty" validate:"omitempty,min=1"`
	Description     *string `json:"description,omitempty"`
}

// CreateBook adds a title to the catalog, optionally with initial copies.
func CreateBook(svc booksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "book service unavailable"))
			return
		}

		var payload createBookRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// A new title ships with one copy unless the caller says otherwise.
		copiesCount := 1
		if payload.CopiesCount != nil {
			copiesCount = *payload.CopiesCount
		}

		input := booksvc.CreateBookInput{
			Title:           payload.Title,
			Author:          payload.Author,
			ISBN:            payload.ISBN,
			Category:        payload.Category,
			Publisher:       payload.Publisher,
			PublicationYear: payload.PublicationYear,
			Language:        payload.Language,
			Pages:           payload.Pages,
			Description:     payload.Description,
			CopiesCount:     copiesCount,
			ShelfNumber:     payload.ShelfNumber,
		}
		if payload.RackID != nil {
			rackID, err := validators.PathUUID(*payload.RackID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid rack_id"))
				return
			}
			input.RackID = &rackID
		}

		book, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, book)
	}
}

// GetBook returns one title with its copy availability.
func GetBook(svc booksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		book, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, book)
	}
}

// ListBooks returns a filtered page of the catalog.
func ListBooks(svc booksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		availableOnly, err := validators.ParseQueryBool(r, "available")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := booksvc.ListFilter{
			Search:        r.URL.Query().Get("search"),
			Category:      r.URL.Query().Get("category"),
			Language:      r.URL.Query().Get("language"),
			AvailableOnly: availableOnly,
		}
		result, err := svc.List(r.Context(), filter, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// UpdateBook applies a partial update to a title.
func UpdateBook(svc booksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateBookRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := svc.Update(r.Context(), id, booksvc.UpdateBookInput{
			Title:           payload.Title,
			Author:          payload.Author,
			ISBN:            payload.ISBN,
			Category:        payload.Category,
			Publisher:       payload.Publisher,
			PublicationYear: payload.PublicationYear,
			Language:        payload.Language,
			Pages:           payload.Pages,
			Description:     payload.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, book)
	}
}

// DeleteBook removes a title and its copies when none are on loan.
func DeleteBook(svc booksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ListBookCategories returns the distinct categories present in the catalog.
func ListBookCategories(svc booksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"categories": categories})
	}
}

// ListBookLanguages returns the distinct languages present in the catalog.
func ListBookLanguages(svc booksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		languages, err := svc.Languages(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"languages": languages})
	}
}
