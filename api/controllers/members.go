package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/librarian-backend/api/responses"
	"github.com/angelmondragon/librarian-backend/api/validators"
	membersvc "github.com/angelmondragon/librarian-backend/internal/members"
	pkgerrors "github.com/angelmondragon/librarian-backend/pkg/errors"
	"github.com/angelmondragon/librarian-backend/pkg/enums"
	"github.com/angelmondragon/librarian-backend/pkg/logger"
)

type createMemberRequest struct {
	FirstName             string  `json:"first_name" validate:"required"`
	LastName              string  `json:"last_name" validate:"required"`
	Email                 string  `json:"email" validate:"required,email"`
	Phone                 *string `json:"phone,omitempty"`
	Address               *string `json:"address,omitempty"`
	City                  *string `json:"city,omitempty"`
	State                 *string `json:"state,omitempty"`
	PostalCode            *string `json:"postal_code,omitempty"`
	MembershipType        *string `json:"membership_type,omitempty"`
	MembershipStart       *string `json:"membership_start,omitempty"`
	EmergencyContactName  *string `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string `json:"emergency_contact_phone,omitempty"`
}

type updateMemberRequest struct {
	FirstName             *string `json:"first_name,omitempty"`
	LastName              *string `json:"last_name,omitempty"`
	Email                 *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone                 *string `json:"phone,omitempty"`
	Address               *string `json:"address,omitempty"`
	City                  *string `json:"city,omitempty"`
	State                 *string `json:"state,omitempty"`
	PostalCode            *string `json:"postal_code,omitempty"`
	MembershipType        *string `json:"membership_type,omitempty"`
	Status                *string `json:"status,omitempty"`
	EmergencyContactName  *string `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string `json:"emergency_contact_phone,omitempty"`
}

// CreateMember enrolls a new patron.
func CreateMember(svc membersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "member service unavailable"))
			return
		}

		var payload createMemberRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := membersvc.CreateMemberInput{
			FirstName:             payload.FirstName,
			LastName:              payload.LastName,
			Email:                 payload.Email,
			Phone:                 payload.Phone,
			Address:               payload.Address,
			City:                  payload.City,
			State:                 payload.State,
			PostalCode:            payload.PostalCode,
			EmergencyContactName:  payload.EmergencyContactName,
			EmergencyContactPhone: payload.EmergencyContactPhone,
		}
		if payload.MembershipType != nil {
			membership, err := enums.ParseMembershipType(*payload.MembershipType)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid membership_type"))
				return
			}
			input.MembershipType = &membership
		}
		if payload.MembershipStart != nil {
			start, err := time.Parse("2006-01-02", *payload.MembershipStart)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid membership_start, expected YYYY-MM-DD"))
				return
			}
			input.MembershipStart = &start
		}

		member, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, member)
	}
}

// GetMember returns one patron.
func GetMember(svc membersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		member, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, member)
	}
}

// ListMembers returns a filtered page of patrons.
func ListMembers(svc membersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := membersvc.ListFilter{Search: r.URL.Query().Get("search")}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := enums.ParseMemberStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter"))
				return
			}
			filter.Status = status
		}
		if raw := r.URL.Query().Get("membership_type"); raw != "" {
			membershipType, err := enums.ParseMembershipType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid membership_type filter"))
				return
			}
			filter.MembershipType = membershipType
		}

		result, err := svc.List(r.Context(), filter, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// UpdateMember applies a partial update to a patron record.
func UpdateMember(svc membersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateMemberRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := membersvc.UpdateMemberInput{
			FirstName:             payload.FirstName,
			LastName:              payload.LastName,
			Email:                 payload.Email,
			Phone:                 payload.Phone,
			Address:               payload.Address,
			City:                  payload.City,
			State:                 payload.State,
			PostalCode:            payload.PostalCode,
			EmergencyContactName:  payload.EmergencyContactName,
			EmergencyContactPhone: payload.EmergencyContactPhone,
		}
		if payload.MembershipType != nil {
			membership, err := enums.ParseMembershipType(*payload.MembershipType)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid membership_type"))
				return
			}
			input.MembershipType = &membership
		}
		if payload.Status != nil {
			status, err := enums.ParseMemberStatus(*payload.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status"))
				return
			}
			input.Status = &status
		}

		member, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, member)
	}
}

// DeleteMember removes a patron with no open loans.
func DeleteMember(svc membersvc.Service, logg *logger.Logger) http.HandlerFunc {
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

// MemberStats returns circulation totals for one patron.
func MemberStats(svc membersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stats, err := svc.Stats(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
