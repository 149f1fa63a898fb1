package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperr"
	"storefront/internal/events"
	"storefront/internal/models"
	"storefront/internal/payment"
	"storefront/internal/store"
)

type PaymentConfig struct {
	GatewayTimeout time.Duration
	// CancelOnFailure cancels the order and restores its stock when the
	// gateway reports a failed payment.
	CancelOnFailure bool
	Producer        string
}

type PaymentService struct {
	store   store.Store
	gateway payment.Gateway
	events  eventSink
	cfg     PaymentConfig
}

func NewPaymentService(s store.Store, gw payment.Gateway, pub events.Publisher, cfg PaymentConfig) *PaymentService {
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = 15 * time.Second
	}
	return &PaymentService{
		store:   s,
		gateway: gw,
		events:  eventSink{pub: pub, producer: cfg.Producer},
		cfg:     cfg,
	}
}

type CashInResult struct {
	Payment *models.Payment     `json:"payment"`
	Gateway *payment.CashResult `json:"data"`
}

// CallbackInput is the gateway notification: the transaction ref and the
// reported outcome.
type CallbackInput struct {
	Ref    string
	Status string
}

type CallbackResult struct {
	Payment   *models.Payment `json:"payment"`
	Order     *models.Order   `json:"order,omitempty"`
	Duplicate bool            `json:"duplicate"`
	// RefundDue is set when this callback reported money that has to go back.
	RefundDue bool `json:"refundDue"`
}

/* =========================
   CASH-IN
========================= */

// CashIn asks the gateway to collect the order total. The attempt is stored
// before the gateway is called, so a cancel cannot run while a prompt is out.
func (s *PaymentService) CashIn(ctx context.Context, userID, orderID primitive.ObjectID, number string) (*CashInResult, error) {
	number, err := requireText(number, "number")
	if err != nil {
		return nil, err
	}

	attempt, fresh, err := s.openAttempt(ctx, userID, orderID, number)
	if err != nil {
		return nil, err
	}

	gwCtx, cancel := context.WithTimeout(ctx, s.cfg.GatewayTimeout)
	defer cancel()
	res, err := s.gateway.CashIn(gwCtx, attempt.Amount, number)
	if err != nil {
		log.Println("[PAYMENT] [ERROR] cash-in failed for order:", orderID.Hex(), err)
		if fresh {
			// no prompt went out for this attempt
			if _, ferr := s.store.Payments.TransitionStatus(context.WithoutCancel(ctx), attempt.ID, models.PaymentPending, models.PaymentFailed, ""); ferr != nil {
				log.Println("[PAYMENT] [ERROR] closing attempt failed:", ferr)
			}
		}
		return nil, apperr.External("payment gateway request failed", err)
	}

	pay, err := s.recordPrompt(ctx, attempt, res.Ref, number)
	if err != nil {
		return nil, err
	}

	log.Printf("[PAYMENT] [INFO] cash-in initiated order=%s ref=%s amount=%.2f", orderID.Hex(), pay.Ref, pay.Amount)
	s.events.emit(ctx, events.EventPaymentInitiated, orderID.Hex(), paymentPayload(pay))
	return &CashInResult{Payment: pay, Gateway: res}, nil
}

// openAttempt returns the order's Pending payment, or a new one when there is
// none. fresh reports that the payment was created here.
func (s *PaymentService) openAttempt(ctx context.Context, userID, orderID primitive.ObjectID, number string) (*models.Payment, bool, error) {
	var (
		attempt *models.Payment
		fresh   bool
	)
	err := s.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		attempt, fresh = nil, false
		order, err := s.payableOrder(ctx, userID, orderID)
		if err != nil {
			return err
		}

		latest, err := s.store.Payments.LatestForOrder(ctx, order.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("load payment: %w", err)
		}
		if latest != nil && latest.Status == models.PaymentPending {
			attempt = latest
			return nil
		}

		now := time.Now()
		attempt = &models.Payment{
			ID:        primitive.NewObjectID(),
			OrderID:   order.ID,
			UserID:    userID,
			Amount:    order.TotalOrderPrice,
			Status:    models.PaymentPending,
			Number:    number,
			Provider:  s.gateway.Name(),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.store.Payments.Create(ctx, attempt); err != nil {
			return paymentWriteErr(err)
		}
		fresh = true
		return s.store.Orders.SetPayment(ctx, order.ID, attempt.ID)
	})
	if err != nil {
		return nil, false, err
	}
	return attempt, fresh, nil
}

// recordPrompt points the attempt at the gateway ref. If the attempt settled
// while the gateway was called, the prompt is stored as a payment of its own
// so an approval is still matched, and the caller gets a Conflict.
func (s *PaymentService) recordPrompt(ctx context.Context, attempt *models.Payment, ref, number string) (*models.Payment, error) {
	var (
		pay     *models.Payment
		settled bool
	)
	err := s.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		pay, settled = nil, false
		ok, err := s.store.Payments.Reinitiate(ctx, attempt.ID, ref, number, attempt.Amount)
		if err != nil {
			return paymentWriteErr(err)
		}
		if ok {
			pay, err = s.store.Payments.Get(ctx, attempt.ID)
			if err != nil {
				return fmt.Errorf("reload payment: %w", err)
			}
			return nil
		}

		settled = true
		now := time.Now()
		pay = &models.Payment{
			ID:        primitive.NewObjectID(),
			OrderID:   attempt.OrderID,
			UserID:    attempt.UserID,
			Amount:    attempt.Amount,
			Status:    models.PaymentPending,
			Ref:       ref,
			Number:    number,
			Provider:  attempt.Provider,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.store.Payments.Create(ctx, pay); err != nil {
			return paymentWriteErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if settled {
		log.Printf("[PAYMENT] [WARN] payment %s settled during cash-in, prompt %s kept as %s", attempt.ID.Hex(), ref, pay.ID.Hex())
		return nil, apperr.Conflict("order payment was settled while the request was sent")
	}
	return pay, nil
}

func (s *PaymentService) payableOrder(ctx context.Context, userID, orderID primitive.ObjectID) (*models.Order, error) {
	order, err := s.store.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, lookupErr(err, "order")
	}
	if order.UserID != userID {
		return nil, apperr.Forbidden("order belongs to another user")
	}
	if order.OrderStatus != models.OrderPending {
		return nil, apperr.Conflict(fmt.Sprintf("order is %s and cannot be paid", order.OrderStatus))
	}
	return order, nil
}

func paymentWriteErr(err error) error {
	if errors.Is(err, store.ErrDuplicate) {
		return apperr.Conflict("payment reference already recorded")
	}
	return fmt.Errorf("save payment: %w", err)
}

/* =========================
   CALLBACK
========================= */

// HandleCallback applies a gateway notification. Replays of an already
// applied outcome report Duplicate and change nothing. An approval that no
// order can keep is recorded as owed back and reported with RefundDue.
func (s *PaymentService) HandleCallback(ctx context.Context, in CallbackInput) (*CallbackResult, error) {
	ref, err := requireText(in.Ref, "ref")
	if err != nil {
		return nil, err
	}
	event, err := models.ParsePaymentEvent(in.Status)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}

	found, err := s.store.Payments.GetByRef(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		log.Println("[PAYMENT] [ERROR] callback for unknown ref:", ref)
		return nil, apperr.Conflict("unknown payment reference")
	}
	if err != nil {
		return nil, fmt.Errorf("load payment: %w", err)
	}

	result := &CallbackResult{}
	var transitioned, orderChanged bool
	err = s.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		*result = CallbackResult{}
		transitioned, orderChanged = false, false

		current, err := s.store.Payments.Get(ctx, found.ID)
		if err != nil {
			return lookupErr(err, "payment")
		}
		result.Payment = current

		if current.SettledRef != "" && current.SettledRef != ref {
			// another prompt of a payment that is already settled
			if event != models.EventPaymentSucceeded {
				result.Duplicate = true
				return nil
			}
			return s.owe(ctx, result, ref)
		}
		if current.Status == models.PaymentPending && ref != current.Ref && event == models.EventPaymentFailed {
			// a replaced prompt failed; the current one is still out
			result.Duplicate = true
			return nil
		}

		next, changed, err := models.NextPaymentStatus(current.Status, event)
		if err != nil {
			return apperr.Conflict(err.Error())
		}
		if !changed {
			result.Duplicate = true
			return nil
		}

		ok, err := s.store.Payments.TransitionStatus(ctx, current.ID, current.Status, next, ref)
		if err != nil {
			return fmt.Errorf("update payment: %w", err)
		}
		if !ok {
			// lost a race against another callback
			reread, err := s.store.Payments.Get(ctx, current.ID)
			if err != nil {
				return lookupErr(err, "payment")
			}
			if reread.Status != next {
				return apperr.Conflict(fmt.Sprintf("%v: %s on %s", models.ErrInvalidTransition, event, reread.Status))
			}
			result.Payment = reread
			if event == models.EventPaymentSucceeded && reread.SettledRef != ref {
				return s.owe(ctx, result, ref)
			}
			result.Duplicate = true
			return nil
		}
		transitioned = true
		current.Status = next
		current.SettledRef = ref

		orderChanged, err = s.settleOrder(ctx, current)
		if err != nil {
			return err
		}
		if current.Status == models.PaymentSuccessful && !orderChanged {
			return s.owe(ctx, result, ref)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := s.store.Orders.Get(ctx, result.Payment.OrderID)
	if err == nil {
		result.Order = order
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load order: %w", err)
	}

	if result.Duplicate {
		log.Println("[PAYMENT] [INFO] duplicate callback ignored for ref:", ref)
		return result, nil
	}
	if transitioned {
		log.Printf("[PAYMENT] [INFO] payment %s is now %s", result.Payment.ID.Hex(), result.Payment.Status)
	}
	s.emitSettlement(ctx, result, ref, transitioned, orderChanged)
	return result, nil
}

// owe records ref as money to hand back. A ref already owed is a duplicate.
func (s *PaymentService) owe(ctx context.Context, result *CallbackResult, ref string) error {
	added, err := s.store.Payments.FlagRefund(ctx, result.Payment.ID, ref)
	if err != nil {
		return fmt.Errorf("flag refund: %w", err)
	}
	if !added {
		result.Duplicate = true
		return nil
	}
	result.Payment.RefundRefs = append(result.Payment.RefundRefs, ref)
	result.RefundDue = true
	log.Printf("[PAYMENT] [WARN] refund due on payment %s for ref %s", result.Payment.ID.Hex(), ref)
	return nil
}

// settleOrder moves the order after its payment reached a terminal status and
// reports whether the order status changed. A successful payment that finds
// the order no longer Pending leaves it untouched.
func (s *PaymentService) settleOrder(ctx context.Context, pay *models.Payment) (bool, error) {
	switch pay.Status {
	case models.PaymentSuccessful:
		ok, err := s.store.Orders.UpdateStatus(ctx, pay.OrderID, models.OrderPending, models.OrderCompleted)
		if err != nil {
			return false, fmt.Errorf("complete order: %w", err)
		}
		return ok, nil
	case models.PaymentFailed:
		if !s.cfg.CancelOnFailure {
			return false, nil
		}
		ok, err := s.store.Orders.UpdateStatus(ctx, pay.OrderID, models.OrderPending, models.OrderCancelled)
		if err != nil {
			return false, fmt.Errorf("cancel order: %w", err)
		}
		if !ok {
			return false, nil
		}
		order, err := s.store.Orders.Get(ctx, pay.OrderID)
		if err != nil {
			return false, lookupErr(err, "order")
		}
		return true, restoreStock(ctx, s.store.Products, order.Lines)
	}
	return false, nil
}

func (s *PaymentService) emitSettlement(ctx context.Context, res *CallbackResult, ref string, transitioned, orderChanged bool) {
	orderID := res.Payment.OrderID.Hex()
	if transitioned {
		if res.Payment.Status == models.PaymentSuccessful {
			s.events.emit(ctx, events.EventPaymentSucceeded, orderID, paymentPayload(res.Payment))
		} else {
			s.events.emit(ctx, events.EventPaymentFailed, orderID, paymentPayload(res.Payment))
		}
	}
	if res.RefundDue {
		refund := paymentPayload(res.Payment)
		refund.Ref = ref
		s.events.emit(ctx, events.EventPaymentRefundDue, orderID, refund)
	}
	if !orderChanged || res.Order == nil {
		return
	}
	eventType := events.EventOrderCompleted
	if res.Order.OrderStatus == models.OrderCancelled {
		eventType = events.EventOrderCancelled
	}
	s.events.emit(ctx, eventType, orderID, events.OrderStatusPayload{
		OrderID: orderID,
		Status:  string(res.Order.OrderStatus),
		Reason:  "payment " + strings.ToLower(string(res.Payment.Status)),
	})
}

func paymentPayload(p *models.Payment) events.PaymentPayload {
	return events.PaymentPayload{
		OrderID:   p.OrderID.Hex(),
		PaymentID: p.ID.Hex(),
		Ref:       p.Ref,
		Amount:    p.Amount,
		Status:    string(p.Status),
	}
}

/* =========================
   CASH-OUT & LISTINGS
========================= */

func (s *PaymentService) CashOut(ctx context.Context, number string, amount float64) (*payment.CashResult, error) {
	number, err := requireText(number, "number")
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, apperr.Validation("amount must be greater than 0")
	}

	gwCtx, cancel := context.WithTimeout(ctx, s.cfg.GatewayTimeout)
	defer cancel()
	res, err := s.gateway.CashOut(gwCtx, amount, number)
	if err != nil {
		return nil, apperr.External("payment gateway request failed", err)
	}
	log.Printf("[PAYMENT] [INFO] cash-out ref=%s amount=%.2f", res.Ref, amount)
	return res, nil
}

func (s *PaymentService) Transactions(ctx context.Context) (json.RawMessage, error) {
	gwCtx, cancel := context.WithTimeout(ctx, s.cfg.GatewayTimeout)
	defer cancel()
	raw, err := s.gateway.Transactions(gwCtx)
	if err != nil {
		return nil, apperr.External("payment gateway request failed", err)
	}
	return raw, nil
}

// ListPayments filters stored payments by status; an empty status lists all.
func (s *PaymentService) ListPayments(ctx context.Context, rawStatus string) ([]models.Payment, error) {
	var filter *models.PaymentStatus
	if trimmed := strings.TrimSpace(rawStatus); trimmed != "" {
		status, ok := parsePaymentStatus(trimmed)
		if !ok {
			return nil, apperr.Validationf("unknown payment status %q", trimmed)
		}
		filter = &status
	}
	payments, err := s.store.Payments.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

func parsePaymentStatus(raw string) (models.PaymentStatus, bool) {
	for _, st := range []models.PaymentStatus{models.PaymentPending, models.PaymentSuccessful, models.PaymentFailed} {
		if strings.EqualFold(raw, string(st)) {
			return st, true
		}
	}
	return "", false
}
