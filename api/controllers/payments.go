package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/librarian-backend/api/middleware"
	"github.com/angelmondragon/librarian-backend/api/responses"
	"github.com/angelmondragon/librarian-backend/api/validators"
	paysvc "github.com/angelmondragon/librarian-backend/internal/payments"
	pkgerrors "github.com/angelmondragon/librarian-backend/pkg/errors"
	"github.com/angelmondragon/librarian-backend/pkg/enums"
	"github.com/angelmondragon/librarian-backend/pkg/logger"
)

type recordPaymentRequest struct {
	MemberID        string          `json:"member_id" validate:"required,uuid"`
	LoanID          *string         `json:"loan_id,omitempty" validate:"omitempty,uuid"`
	Amount          decimal.Decimal `json:"amount" validate:"required"`
	PaymentType     string          `json:"payment_type" validate:"required"`
	PaymentMethod   *string         `json:"payment_method,omitempty"`
	PaymentDate     *time.Time      `json:"payment_date,omitempty"`
	ReferenceNumber *string         `json:"reference_number,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
}

// RecordPayment posts a payment against a member's account.
func RecordPayment(svc paysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		var payload recordPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		memberID, err := validators.PathUUID(payload.MemberID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid member_id"))
			return
		}
		paymentType, err := enums.ParsePaymentType(payload.PaymentType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment_type"))
			return
		}

		input := paysvc.RecordInput{
			MemberID:        memberID,
			Amount:          payload.Amount,
			PaymentType:     paymentType,
			PaymentDate:     payload.PaymentDate,
			ReferenceNumber: payload.ReferenceNumber,
			Notes:           payload.Notes,
		}
		if payload.LoanID != nil {
			loanID, err := validators.PathUUID(*payload.LoanID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid loan_id"))
				return
			}
			input.LoanID = &loanID
		}
		if payload.PaymentMethod != nil {
			method, err := enums.ParsePaymentMethod(*payload.PaymentMethod)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment_method"))
				return
			}
			input.PaymentMethod = method
		}
		if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
			if receivedBy, err := uuid.Parse(raw); err == nil {
				input.ReceivedBy = &receivedBy
			}
		}

		payment, err := svc.Record(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payment)
	}
}

type updatePaymentRequest struct {
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	PaymentType     *string          `json:"payment_type,omitempty"`
	PaymentMethod   *string          `json:"payment_method,omitempty"`
	PaymentDate     *time.Time       `json:"payment_date,omitempty"`
	ReferenceNumber *string          `json:"reference_number,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
}

// UpdatePayment applies administrative corrections to a recorded payment.
func UpdatePayment(svc paysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updatePaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := paysvc.UpdatePaymentInput{
			Amount:          payload.Amount,
			PaymentDate:     payload.PaymentDate,
			ReferenceNumber: payload.ReferenceNumber,
			Notes:           payload.Notes,
		}
		if payload.PaymentType != nil {
			paymentType, err := enums.ParsePaymentType(*payload.PaymentType)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment_type"))
				return
			}
			input.PaymentType = &paymentType
		}
		if payload.PaymentMethod != nil {
			method, err := enums.ParsePaymentMethod(*payload.PaymentMethod)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment_method"))
				return
			}
			input.PaymentMethod = &method
		}

		payment, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}

// DeletePayment removes a payment record from the ledger.
func DeletePayment(svc paysvc.Service, logg *logger.Logger) http.HandlerFunc {
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

// GetPayment returns one payment record.
func GetPayment(svc paysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payment, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}

// ListPayments returns a filtered page of the payment ledger.
func ListPayments(svc paysvc.Service, logg *logger.Logger) http.HandlerFunc {
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
		loanID, err := validators.ParseQueryUUID(r, "loan_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		from, err := validators.ParseQueryDate(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryDate(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := paysvc.ListFilter{
			MemberID: memberID,
			LoanID:   loanID,
			From:     from,
			To:       to,
		}
		if raw := r.URL.Query().Get("type"); raw != "" {
			paymentType, err := enums.ParsePaymentType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid type filter"))
				return
			}
			filter.PaymentType = paymentType
		}

		result, err := svc.List(r.Context(), filter, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// MemberPaymentSummary returns lifetime payment totals for one member.
func MemberPaymentSummary(svc paysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.MemberSummary(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// PaymentReport aggregates collections over a date range.
func PaymentReport(svc paysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, err := validators.ParseQueryDate(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryDate(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if from == nil || to == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "from and to query parameters are required"))
			return
		}

		report, err := svc.Report(r.Context(), *from, *to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
