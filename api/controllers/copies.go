package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/librarian-backend/api/responses"
	"github.com/angelmondragon/librarian-backend/api/validators"
	copysvc "github.com/angelmondragon/librarian-backend/internal/copies"
	pkgerrors "github.com/angelmondragon/librarian-backend/pkg/errors"
	"github.com/angelmondragon/librarian-backend/pkg/enums"
	"github.com/angelmondragon/librarian-backend/pkg/logger"
)

type addCopiesRequest struct {
	BookID      string  `json:"book_id" validate:"required,uuid"`
	Count       int     `json:"count" validate:"required,min=1,max=100"`
	RackID      *string `json:"rack_id,omitempty" validate:"omitempty,uuid"`
	ShelfNumber *int    `json:"shelf_number,omitempty" validate:"omitempty,min=1"`
}

type updateCopyRequest struct {
	RackID      *string `json:"rack_id,omitempty" validate:"omitempty,uuid"`
	ClearRack   bool    `json:"clear_rack,omitempty"`
	ShelfNumber *int    `json:"shelf_number,omitempty" validate:"omitempty,min=1"`
	Status      *string `json:"status,omitempty"`
}

// AddCopies registers a batch of physical copies for a title.
func AddCopies(svc copysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "copy service unavailable"))
			return
		}

		var payload addCopiesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bookID, err := validators.PathUUID(payload.BookID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid book_id"))
			return
		}
		input := copysvc.AddCopiesInput{
			BookID:      bookID,
			Count:       payload.Count,
			ShelfNumber: payload.ShelfNumber,
		}
		if payload.RackID != nil {
			rackID, err := validators.PathUUID(*payload.RackID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid rack_id"))
				return
			}
			input.RackID = &rackID
		}

		copies, err := svc.Add(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"copies": copies})
	}
}

// GetCopy returns one physical copy.
func GetCopy(svc copysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		copy, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, copy)
	}
}

// ListCopies returns a filtered page of physical copies.
func ListCopies(svc copysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bookID, err := validators.ParseQueryUUID(r, "book_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rackID, err := validators.ParseQueryUUID(r, "rack_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := copysvc.ListFilter{BookID: bookID, RackID: rackID}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := enums.ParseCopyStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter"))
				return
			}
			filter.Status = status
		}

		result, err := svc.List(r.Context(), filter, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// UpdateCopy relocates a copy or changes its condition.
func UpdateCopy(svc copysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCopyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := copysvc.UpdateCopyInput{
			ClearRack:   payload.ClearRack,
			ShelfNumber: payload.ShelfNumber,
		}
		if payload.RackID != nil {
			rackID, err := validators.PathUUID(*payload.RackID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid rack_id"))
				return
			}
			input.RackID = &rackID
		}
		if payload.Status != nil {
			status, err := enums.ParseCopyStatus(*payload.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status"))
				return
			}
			input.Status = &status
		}

		copy, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, copy)
	}
}

// DeleteCopy retires a copy that is not out on loan.
func DeleteCopy(svc copysvc.Service, logg *logger.Logger) http.HandlerFunc {
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
