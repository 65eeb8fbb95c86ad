package service

import (
	"context"
	"time"

	"github.com/Baaaki/apartment-booking/internal/broker"
	"github.com/Baaaki/apartment-booking/internal/models"
	"github.com/Baaaki/apartment-booking/internal/payment"
	"github.com/Baaaki/apartment-booking/internal/repository"
	"github.com/Baaaki/apartment-booking/pkg/apperr"
	"github.com/Baaaki/apartment-booking/pkg/logger"
	"go.uber.org/zap"
)

// DefaultPaymentMethod is charged by the simplified payment flow.
const DefaultPaymentMethod = "credit_card"

type CreatePaymentInput struct {
	ReservationID uint
	Amount        float64
	Method        string
}

type PaymentService struct {
	store   *repository.Store
	gateway payment.Gateway
	events  *EventRecorder
}

func NewPaymentService(store *repository.Store, gateway payment.Gateway, events *EventRecorder) *PaymentService {
	return &PaymentService{
		store:   store,
		gateway: gateway,
		events:  events,
	}
}

// Create charges an explicit amount through the configured gateway.
// A declined charge still returns the persisted failed payment without error.
func (s *PaymentService) Create(ctx context.Context, actor Actor, in CreatePaymentInput) (*models.Payment, error) {
	var fields []apperr.FieldError
	if in.Amount < 0 {
		fields = append(fields, apperr.FieldError{Field: "amount", Message: "amount must not be negative"})
	}
	if in.Method == "" {
		fields = append(fields, apperr.FieldError{Field: "payment_method", Message: "payment method is required"})
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("invalid payment", fields...)
	}

	amount := in.Amount
	return s.charge(ctx, actor, in.ReservationID, &amount, in.Method, s.gateway)
}

// Process is the simplified flow: it charges the apartment's listed price and always succeeds.
func (s *PaymentService) Process(ctx context.Context, actor Actor, reservationID uint) (*models.Payment, error) {
	return s.charge(ctx, actor, reservationID, nil, DefaultPaymentMethod, payment.FixedGateway{Approve: true})
}

// charge runs in three steps so the gateway call never holds a transaction open:
// record a pending payment, call the gateway, then store the outcome and confirm
// the reservation on success.
func (s *PaymentService) charge(ctx context.Context, actor Actor, reservationID uint, amount *float64, method string, gw payment.Gateway) (*models.Payment, error) {
	start := time.Now()

	logger.Log.Debug("Processing payment",
		zap.Uint("reservation_id", reservationID),
		zap.Uint("user_id", actor.UserID),
		zap.String("method", method),
	)

	// 1. Reserve the payment slot
	var (
		p   *models.Payment
		res *models.Reservation
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		res, err = tx.Reservations.GetByID(ctx, reservationID)
		if err != nil {
			return err
		}
		if res == nil {
			return ErrReservationNotFound
		}
		if !actor.CanAccess(res.UserID) {
			return ErrNotOwner
		}
		if !res.Status.IsActive() {
			return ErrReservationNotPayable
		}

		existing, err := tx.Payments.GetByReservationID(ctx, res.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicatePayment
		}

		charge := 0.0
		if amount != nil {
			charge = *amount
		} else if res.Apartment != nil {
			charge = res.Apartment.Price
		}

		p = &models.Payment{
			ReservationID: res.ID,
			UserID:        res.UserID,
			ApartmentID:   res.ApartmentID,
			Amount:        charge,
			PaymentMethod: method,
			Status:        models.PaymentPending,
		}
		if err := tx.Payments.Create(ctx, p); err != nil {
			if repository.IsDuplicate(err) {
				return ErrDuplicatePayment
			}
			return err
		}
		return nil
	})
	if err != nil {
		logger.Log.Warn("Payment rejected",
			zap.Uint("reservation_id", reservationID),
			zap.Uint("user_id", actor.UserID),
			zap.Error(err),
		)
		return nil, internalOr(err, "failed to process payment")
	}

	// 2. Charge
	result, err := gw.Charge(ctx, payment.ChargeRequest{
		ReservationID: res.ID,
		UserID:        res.UserID,
		Amount:        p.Amount,
		Method:        method,
	})
	if err != nil {
		logger.Log.Error("Payment gateway error",
			zap.Uint("payment_id", p.ID),
			zap.Uint("reservation_id", res.ID),
			zap.Error(err),
		)
		// Use a fresh context: the request may already be cancelled.
		if markErr := s.store.Payments.SetOutcome(context.WithoutCancel(ctx), p.ID, models.PaymentFailed, ""); markErr != nil {
			logger.Log.Error("Failed to mark payment failed",
				zap.Uint("payment_id", p.ID),
				zap.Error(markErr),
			)
		}
		return nil, apperr.Internal(err, "payment gateway unavailable")
	}

	// 3. Store the outcome
	p.Status = models.PaymentFailed
	if result.Approved {
		p.Status = models.PaymentCompleted
	}
	p.TransactionRef = result.TransactionRef

	// The reservation may have changed while the gateway was running.
	confirmed, voided := false, false
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if result.Approved {
			current, err := tx.Reservations.GetByID(ctx, res.ID)
			if err != nil {
				return err
			}
			if current != nil && current.Status == models.ReservationPending {
				changed, err := tx.Reservations.UpdateStatus(ctx, res.ID, models.ReservationPending, models.ReservationConfirmed)
				if err != nil {
					return err
				}
				if !changed {
					if current, err = tx.Reservations.GetByID(ctx, res.ID); err != nil {
						return err
					}
				}
				confirmed = changed
			}
			if !confirmed && (current == nil || !current.Status.IsActive()) {
				voided = true
				p.Status = models.PaymentFailed
			}
			if current != nil {
				res.Status = current.Status
			}
		}
		return tx.Payments.SetOutcome(ctx, p.ID, p.Status, p.TransactionRef)
	})
	if err != nil {
		logger.Log.Error("Failed to record payment outcome",
			zap.Uint("payment_id", p.ID),
			zap.String("status", string(p.Status)),
			zap.Error(err),
		)
		return nil, apperr.Internal(err, "failed to record payment")
	}

	if voided {
		logger.Log.Warn("Reservation closed during payment, payment marked failed",
			zap.Uint("payment_id", p.ID),
			zap.Uint("reservation_id", res.ID),
			zap.String("reservation_status", string(res.Status)),
		)
		p.Reservation = res
		s.events.Record(ctx, paymentEvent(broker.EventPaymentFailed, p, actor.UserID))
		return nil, ErrReservationNotPayable
	}

	if confirmed {
		res.Status = models.ReservationConfirmed
		s.events.Record(ctx, reservationEvent(broker.EventReservationStatusChanged, res, actor.UserID))
	}
	p.Reservation = res

	eventType := broker.EventPaymentFailed
	if result.Approved {
		eventType = broker.EventPaymentCompleted
	}
	s.events.Record(ctx, paymentEvent(eventType, p, actor.UserID))

	logger.Log.Info("Payment processed",
		zap.Uint("payment_id", p.ID),
		zap.Uint("reservation_id", res.ID),
		zap.String("status", string(p.Status)),
		zap.String("decline_reason", result.DeclineReason),
		zap.Bool("reservation_confirmed", confirmed),
		zap.Duration("total_duration", time.Since(start)),
	)

	return p, nil
}

// Get returns a payment visible to its owner or an admin.
func (s *PaymentService) Get(ctx context.Context, actor Actor, id uint) (*models.Payment, error) {
	p, err := s.store.Payments.GetByID(ctx, id)
	if err != nil {
		logger.Log.Error("Failed to load payment",
			zap.Uint("payment_id", id),
			zap.Error(err),
		)
		return nil, apperr.Internal(err, "failed to load payment")
	}
	if p == nil {
		return nil, ErrPaymentNotFound
	}
	if !actor.CanAccess(p.UserID) {
		return nil, ErrNotOwner
	}
	return p, nil
}

func (s *PaymentService) ListMine(ctx context.Context, actor Actor, status models.PaymentStatus, page repository.Page) (*PageResult[models.Payment], error) {
	userID := actor.UserID
	return s.list(ctx, repository.PaymentFilter{UserID: &userID, Status: status}, page)
}

// ListAll lists every payment. Admin only.
func (s *PaymentService) ListAll(ctx context.Context, actor Actor, status models.PaymentStatus, page repository.Page) (*PageResult[models.Payment], error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminRequired
	}
	return s.list(ctx, repository.PaymentFilter{Status: status}, page)
}

func (s *PaymentService) list(ctx context.Context, f repository.PaymentFilter, page repository.Page) (*PageResult[models.Payment], error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validation("invalid status filter",
			apperr.FieldError{Field: "status", Message: "must be one of pending, completed, failed, refunded"},
		)
	}

	rows, total, err := s.store.Payments.List(ctx, f, page)
	if err != nil {
		logger.Log.Error("Failed to list payments", zap.Error(err))
		return nil, apperr.Internal(err, "failed to list payments")
	}
	return pageResult(rows, total, page), nil
}

// Refund marks a completed payment refunded. The reservation status is left as is.
func (s *PaymentService) Refund(ctx context.Context, actor Actor, id uint) (*models.Payment, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminRequired
	}

	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if p.Status != models.PaymentCompleted {
		return nil, ErrPaymentNotRefundable
	}

	changed, err := s.store.Payments.UpdateStatus(ctx, id, models.PaymentCompleted, models.PaymentRefunded)
	if err != nil {
		logger.Log.Error("Failed to refund payment",
			zap.Uint("payment_id", id),
			zap.Error(err),
		)
		return nil, apperr.Internal(err, "failed to refund payment")
	}
	if !changed {
		return nil, ErrPaymentNotRefundable
	}
	p.Status = models.PaymentRefunded

	s.events.Record(ctx, paymentEvent(broker.EventPaymentRefunded, p, actor.UserID))

	logger.Log.Info("Payment refunded",
		zap.Uint("payment_id", id),
		zap.Uint("admin_id", actor.UserID),
		zap.Float64("amount", p.Amount),
	)
	return p, nil
}

func paymentEvent(t broker.EventType, p *models.Payment, actorID uint) broker.Event {
	return broker.Event{
		Type:          t,
		ReservationID: p.ReservationID,
		PaymentID:     p.ID,
		ApartmentID:   p.ApartmentID,
		UserID:        p.UserID,
		ActorID:       actorID,
		Status:        string(p.Status),
	}
}
