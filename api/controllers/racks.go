package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/librarian-backend/api/responses"
	"github.com/angelmondragon/librarian-backend/api/validators"
	racksvc "github.com/angelmondragon/librarian-backend/internal/racks"
	pkgerrors "github.com/angelmondragon/librarian-backend/pkg/errors"
	"github.com/angelmondragon/librarian-backend/pkg/logger"
)

type createRackRequest struct {
	RackNumber string  `json:"rack_number" validate:"required"`
	Location   *string `json:"location,omitempty"`
	Capacity   *int    `json:"capacity,omitempty" validate:"omitempty,min=1"`
	Shelves    *int    `json:"shelves,omitempty" validate:"omitempty,min=1"`
}

type updateRackRequest struct {
	RackNumber *string `json:"rack_number,omitempty"`
	Location   *string `json:"location,omitempty"`
	Capacity   *int    `json:"capacity,omitempty" validate:"omitempty,min=1"`
	Shelves    *int    `json:"shelves,omitempty" validate:"omitempty,min=1"`
}

// CreateRack registers a new shelving unit.
func CreateRack(svc racksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rack service unavailable"))
			return
		}

		var payload createRackRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rack, err := svc.Create(r.Context(), racksvc.CreateRackInput{
			RackNumber: payload.RackNumber,
			Location:   payload.Location,
			Capacity:   payload.Capacity,
			Shelves:    payload.Shelves,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, rack)
	}
}

// GetRack returns one shelving unit.
func GetRack(svc racksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rack, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rack)
	}
}

// ListRacks returns a page of shelving units.
func ListRacks(svc racksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// UpdateRack applies a partial update to a shelving unit.
func UpdateRack(svc racksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateRackRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rack, err := svc.Update(r.Context(), id, racksvc.UpdateRackInput{
			RackNumber: payload.RackNumber,
			Location:   payload.Location,
			Capacity:   payload.Capacity,
			Shelves:    payload.Shelves,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rack)
	}
}

// DeleteRack removes an empty shelving unit.
func DeleteRack(svc racksvc.Service, logg *logger.Logger) http.HandlerFunc {
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

// RackShelfContents lists the copies shelved on a rack, grouped by shelf.
func RackShelfContents(svc racksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listing, err := svc.ShelfContents(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}
