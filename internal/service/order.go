package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/util"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/money"
)

type OrderService struct {
	Repo     *repo.GormRepo
	Payments payment.Processor
	Mailer   notify.Mailer
	Events   events.Publisher
	Settings *SettingsService
}

// Reconcile makes sure exactly one order exists for a paid checkout session
// and returns its id. Both the webhook and client verification call it; the
// unique session id column decides which caller inserts.
func (s *OrderService) Reconcile(ctx context.Context, sessionID string, accountID *uuid.UUID) (uuid.UUID, error) {
	l := logging.FromContext(ctx).With("svc", "order.reconcile", "session_id", sessionID)

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return uuid.Nil, fmt.Errorf("%w: session id required", ErrValidation)
	}

	existing, err := s.Repo.GetOrderBySessionID(ctx, sessionID)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, err
	}

	sess, err := s.Payments.GetSession(ctx, sessionID)
	if err != nil {
		return uuid.Nil, err
	}
	if !sess.Paid() {
		return uuid.Nil, fmt.Errorf("%w: status %q", ErrPaymentNotCompleted, sess.PaymentStatus)
	}

	if accountID == nil {
		if raw := sess.Metadata[MetadataUserID]; raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				accountID = &id
			}
		}
	}

	order := orderFromSession(sess, accountID)
	if _, err := s.Repo.CreateOrder(ctx, order); err != nil {
		winner, rerr := s.Repo.GetOrderBySessionID(ctx, sessionID)
		if rerr == nil {
			l.Info("reconcile_lost_race", "order_id", winner.ID)
			return winner.ID, nil
		}
		return uuid.Nil, err
	}
	l.Info("order_created", "order_id", order.ID, "total", order.Total)

	s.sendConfirmation(ctx, order)
	s.publish(ctx, events.OrderEvent{
		Type:     events.OrderCreated,
		OrderID:  order.ID.String(),
		Status:   string(order.Status),
		Total:    order.Total,
		Currency: order.Currency,
		Email:    order.CustomerEmail,
		At:       order.CreatedAt,
	})
	return order.ID, nil
}

func orderFromSession(sess *payment.Session, accountID *uuid.UUID) *models.Order {
	items := make([]models.OrderItem, 0, len(sess.Lines))
	var linesTotal int64
	for _, ln := range sess.Lines {
		amount := ln.AmountTotal
		if amount == 0 {
			amount = ln.UnitAmount * ln.Quantity
		}
		items = append(items, models.OrderItem{
			Name:      ln.Description,
			Quantity:  ln.Quantity,
			UnitPrice: ln.UnitAmount,
			Amount:    amount,
		})
		linesTotal += amount
	}

	subtotal := sess.AmountSubtotal
	if subtotal == 0 {
		subtotal = linesTotal
	}

	o := &models.Order{
		StripeSessionID: sess.ID,
		PaymentIntentID: sess.PaymentIntentID,
		CustomerEmail:   sess.CustomerEmail,
		CustomerName:    sess.CustomerName,
		Items:           items,
		Subtotal:        subtotal,
		Shipping:        sess.AmountShipping,
		Total:           subtotal + sess.AmountShipping,
		Currency:        strings.ToLower(sess.Currency),
		Status:          models.OrderStatusCompleted,
		UserID:          accountID,
	}

	switch {
	case sess.Shipping != nil && !sess.Shipping.Address.Empty():
		o.ShippingAddress = addressFrom(sess.Shipping.Name, sess.Shipping.Address)
	case !sess.CustomerAddress.Empty():
		o.ShippingAddress = addressFrom(sess.CustomerName, sess.CustomerAddress)
	}
	if o.CustomerName == "" && sess.Shipping != nil {
		o.CustomerName = sess.Shipping.Name
	}
	return o
}

func addressFrom(name string, a *payment.Address) *models.Address {
	return &models.Address{
		Name:       name,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func (s *OrderService) storeName(ctx context.Context) string {
	if s.Settings == nil {
		return "Storefront"
	}
	return s.Settings.LoadOrDefaults(ctx).StoreName
}

func (s *OrderService) sendConfirmation(ctx context.Context, o *models.Order) {
	l := logging.FromContext(ctx).With("svc", "order.confirmation", "order_id", o.ID)
	if s.Mailer == nil || o.CustomerEmail == "" {
		return
	}
	email, err := notify.OrderConfirmation(o, s.storeName(ctx))
	if err != nil {
		bestEffort(l, "confirmation_email_error", err)
		return
	}
	bestEffort(l, "confirmation_email_error", s.Mailer.Send(ctx, email))
}

func (s *OrderService) publish(ctx context.Context, ev events.OrderEvent) {
	if s.Events == nil {
		return
	}
	l := logging.FromContext(ctx).With("svc", "order.events", "order_id", ev.OrderID)
	bestEffort(l, "publish_event_error", s.Events.Publish(ctx, events.TopicOrders, ev.OrderID, ev))
}

var statusRank = map[models.OrderStatus]int{
	models.OrderStatusCompleted:  0,
	models.OrderStatusPending:    0,
	models.OrderStatusProcessing: 1,
	models.OrderStatusShipped:    2,
	models.OrderStatusDelivered:  3,
}

func ValidStatus(st models.OrderStatus) bool {
	_, ok := statusRank[st]
	return ok || st == models.OrderStatusCancelled
}

func terminal(st models.OrderStatus) bool {
	return st == models.OrderStatusDelivered || st == models.OrderStatusCancelled
}

// CanTransition reports whether an order may move from one status to another.
// Repeating the current status is allowed so a tracking number can be re-sent.
func CanTransition(from, to models.OrderStatus) bool {
	if !ValidStatus(to) {
		return false
	}
	if from == to {
		return true
	}
	if terminal(from) {
		return false
	}
	if to == models.OrderStatusCancelled {
		return true
	}
	return statusRank[to] > statusRank[from]
}

func notifiesCustomer(st models.OrderStatus) bool {
	return st == models.OrderStatusShipped || st == models.OrderStatusDelivered
}

// UpdateStatus moves an order to status and emails the customer for shipped and delivered.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, tracking *string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.update_status", "order_id", id)

	status = models.OrderStatus(strings.ToLower(strings.TrimSpace(string(status))))
	if !ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	var prev models.OrderStatus
	var changed bool
	updated, err := s.Repo.UpdateOrder(ctx, id, func(o *models.Order) error {
		prev = o.Status
		if !CanTransition(o.Status, status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, status)
		}
		changed = o.Status != status
		o.Status = status
		if status == models.OrderStatusShipped && tracking != nil {
			t := strings.TrimSpace(*tracking)
			if t == "" {
				o.TrackingNumber = nil
			} else {
				if o.TrackingNumber == nil || *o.TrackingNumber != t {
					changed = true
				}
				o.TrackingNumber = &t
			}
		}
		return nil
	})
	if err != nil {
		return nil, notFound(err)
	}

	if changed && notifiesCustomer(status) && updated.CustomerEmail != "" && s.Mailer != nil {
		email, err := notify.StatusEmail(notify.NewStatusUpdate(updated), s.storeName(ctx))
		if err == nil {
			err = s.Mailer.Send(ctx, email)
		}
		bestEffort(l, "status_email_error", err)
	}

	if changed {
		s.publish(ctx, events.OrderEvent{
			Type:       events.OrderStatusChanged,
			OrderID:    updated.ID.String(),
			Status:     string(updated.Status),
			PrevStatus: string(prev),
			Total:      updated.Total,
			Currency:   updated.Currency,
			At:         time.Now().UTC(),
		})
	}
	l.Info("order_status_updated", "from", prev, "to", status)
	return updated, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

func (s *OrderService) ListOrders(ctx context.Context, f repo.OrderFilter, page, size int) (*util.Page[models.Order], error) {
	if f.Status != "" && !ValidStatus(f.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
	}
	offset, limit := util.Calculate(page, size)
	total, orders, err := s.Repo.ListOrders(ctx, f, offset, limit)
	if err != nil {
		return nil, err
	}
	return &util.Page[models.Order]{Data: orders, Meta: util.NewMeta(page, offset, limit, total)}, nil
}

// ExportXLSX writes every order matching f as a spreadsheet.
func (s *OrderService) ExportXLSX(ctx context.Context, f repo.OrderFilter, w io.Writer) error {
	_, orders, err := s.Repo.ListOrders(ctx, f, 0, 0)
	if err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return err
	}

	header := sheet.AddRow()
	for _, h := range []string{"Order ID", "Created", "Status", "Customer", "Email", "Items", "Subtotal", "Shipping", "Total", "Currency", "Tracking", "Ship To"} {
		header.AddCell().SetString(h)
	}

	for _, o := range orders {
		row := sheet.AddRow()
		row.AddCell().SetString(o.ID.String())
		row.AddCell().SetString(o.CreatedAt.UTC().Format(time.RFC3339))
		row.AddCell().SetString(string(o.Status))
		row.AddCell().SetString(o.CustomerName)
		row.AddCell().SetString(o.CustomerEmail)
		row.AddCell().SetString(itemsSummary(o.Items))
		row.AddCell().SetFloat(money.Decimal(o.Subtotal, o.Currency).InexactFloat64())
		row.AddCell().SetFloat(money.Decimal(o.Shipping, o.Currency).InexactFloat64())
		row.AddCell().SetFloat(money.Decimal(o.Total, o.Currency).InexactFloat64())
		row.AddCell().SetString(strings.ToUpper(o.Currency))
		tracking := ""
		if o.TrackingNumber != nil {
			tracking = *o.TrackingNumber
		}
		row.AddCell().SetString(tracking)
		row.AddCell().SetString(addressLine(o.ShippingAddress))
	}

	return file.Write(w)
}

func itemsSummary(items []models.OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%dx %s", it.Quantity, it.Name))
	}
	return strings.Join(parts, "; ")
}

func addressLine(a *models.Address) string {
	if a == nil {
		return ""
	}
	parts := []string{}
	for _, p := range []string{a.Name, a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
