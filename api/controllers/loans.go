package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/librarian-backend/api/responses"
	"github.com/angelmondragon/librarian-backend/api/validators"
	loansvc "github.com/angelmondragon/librarian-backend/internal/loans"
	pkgerrors "github.com/angelmondragon/librarian-backend/pkg/errors"
	"github.com/angelmondragon/librarian-backend/pkg/enums"
	"github.com/angelmondragon/librarian-backend/pkg/logger"
)

type issueLoanRequest struct {
	CopyID   string     `json:"copy_id" validate:"required,uuid"`
	MemberID string     `json:"member_id" validate:"required,uuid"`
	DueDate  *time.Time `json:"due_date,omitempty"`
	Notes    *string    `json:"notes,omitempty"`
}

type returnLoanRequest struct {
	FineAmount *decimal.Decimal `json:"fine_amount,omitempty"`
	Notes      *string          `json:"notes,omitempty"`
}

type updateLoanRequest struct {
	DueDate    *time.Time       `json:"due_date,omitempty"`
	Status     *string          `json:"status,omitempty"`
	FineAmount *decimal.Decimal `json:"fine_amount,omitempty"`
	Notes      *string          `json:"notes,omitempty"`
}

// IssueLoan checks a copy out to a member.
func IssueLoan(svc loansvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loan service unavailable"))
			return
		}

		var payload issueLoanRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		copyID, err := validators.PathUUID(payload.CopyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid copy_id"))
			return
		}
		memberID, err := validators.PathUUID(payload.MemberID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid member_id"))
			return
		}

		loan, err := svc.Issue(r.Context(), loansvc.IssueInput{
			CopyID:   copyID,
			MemberID: memberID,
			DueDate:  payload.DueDate,
			Notes:    payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, loan)
	}
}

// ReturnLoan checks a copy back in and settles the fine.
func ReturnLoan(svc loansvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload returnLoanRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		loan, err := svc.Return(r.Context(), id, loansvc.ReturnInput{
			FineAmount: payload.FineAmount,
			Notes:      payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, loan)
	}
}

// GetLoan returns one loan record.
func GetLoan(svc loansvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		loan, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, loan)
	}
}

// ListLoans returns a filtered page of the circulation ledger.
func ListLoans(svc loansvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		memberID, err := validators.ParseQueryUUID(r, "member_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		copyID, err := validators.ParseQueryUUID(r, "copy_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bookID, err := validators.ParseQueryUUID(r, "book_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		overdueOnly, err := validators.ParseQueryBool(r, "overdue")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := loansvc.ListFilter{
			MemberID:    memberID,
			CopyID:      copyID,
			BookID:      bookID,
			OverdueOnly: overdueOnly,
		}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := enums.ParseLoanStatus(raw)
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

// ListOverdueLoans returns the open loans past their due date.
func ListOverdueLoans(svc loansvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Overdue(r.Context(), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// UpdateLoan applies an administrative correction to a loan record.
func UpdateLoan(svc loansvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateLoanRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := loansvc.UpdateLoanInput{
			DueDate:    payload.DueDate,
			FineAmount: payload.FineAmount,
			Notes:      payload.Notes,
		}
		if payload.Status != nil {
			status, err := enums.ParseLoanStatus(*payload.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status"))
				return
			}
			input.Status = &status
		}

		loan, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, loan)
	}
}

// LoanStats returns totals across the circulation ledger.
func LoanStats(svc loansvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
