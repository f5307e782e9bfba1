package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const maxBanHours = 24 * 365 * 10

type AdminService struct {
	Repo     *repo.GormRepo
	Settings *SettingsService
	Events   events.Publisher
	Now      func() time.Time
}

func (s *AdminService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *AdminService) ListUsers(ctx context.Context, page, size int) (*util.Page[models.User], error) {
	offset, limit := util.Calculate(page, size)
	total, users, err := s.Repo.ListUsers(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return &util.Page[models.User]{Data: users, Meta: util.NewMeta(page, offset, limit, total)}, nil
}

func (s *AdminService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (s *AdminService) AuthStatus(ctx context.Context, id uuid.UUID) (*transport.UserAuthStatus, error) {
	u, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	st := &transport.UserAuthStatus{
		UserID:       u.ID,
		Email:        u.Email,
		Role:         u.Role,
		Banned:       u.BannedAt(s.now()),
		LastSignInAt: u.LastSignInAt,
		CreatedAt:    u.CreatedAt,
	}
	if st.Banned {
		st.BannedUntil = u.BannedUntil
	}
	return st, nil
}

func (s *AdminService) Ban(ctx context.Context, id uuid.UUID, hours int) (time.Time, error) {
	if hours <= 0 || hours > maxBanHours {
		return time.Time{}, fmt.Errorf("%w: hours must be between 1 and %d", ErrValidation, maxBanHours)
	}
	until := s.now().Add(time.Duration(hours) * time.Hour)
	if err := s.Repo.SetBannedUntil(ctx, id, &until); err != nil {
		return time.Time{}, notFound(err)
	}
	s.publishUser(ctx, events.UserBanned, id)
	return until, nil
}

func (s *AdminService) Unban(ctx context.Context, id uuid.UUID) error {
	return notFound(s.Repo.SetBannedUntil(ctx, id, nil))
}

// DeleteUser removes the account. Its orders remain with no owner.
func (s *AdminService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteUser(ctx, id); err != nil {
		return notFound(err)
	}
	s.publishUser(ctx, events.UserDeleted, id)
	return nil
}

func (s *AdminService) publishUser(ctx context.Context, kind string, id uuid.UUID) {
	if s.Events == nil {
		return
	}
	l := logging.FromContext(ctx).With("svc", "admin.users", "user_id", id)
	bestEffort(l, "publish_event_error", s.Events.Publish(ctx, events.TopicUsers, id.String(), events.UserEvent{
		Type: kind, UserID: id.String(), At: s.now(),
	}))
}

const analyticsMonths = 12

// monthStart returns the first instant of the month n months before t's month.
func monthStart(t time.Time, n int) time.Time {
	return time.Date(t.Year(), t.Month()-time.Month(n), 1, 0, 0, 0, 0, time.UTC)
}

// Analytics reports revenue for the last 12 calendar months and the growth of
// the latest 6 months over the 6 before them.
func (s *AdminService) Analytics(ctx context.Context) (*transport.Analytics, error) {
	now := s.now()
	start := monthStart(now, analyticsMonths-1)

	orders, err := s.Repo.OrdersSince(ctx, start)
	if err != nil {
		return nil, err
	}
	revenue, count, err := s.Repo.RevenueTotals(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.Repo.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}

	buckets := make([]transport.MonthlyRevenue, analyticsMonths)
	for i := range buckets {
		buckets[i].Month = monthStart(now, analyticsMonths-1-i).Format("2006-01")
	}
	for _, o := range orders {
		at := o.CreatedAt.UTC()
		i := (at.Year()-start.Year())*12 + int(at.Month()-start.Month())
		if i < 0 || i >= analyticsMonths {
			continue
		}
		buckets[i].Revenue += o.Total
		buckets[i].Orders++
	}

	out := &transport.Analytics{
		Currency:      s.Settings.LoadOrDefaults(ctx).Currency,
		TotalRevenue:  revenue,
		TotalOrders:   count,
		StatusCounts:  counts,
		Monthly:       buckets,
		GrowthPercent: Growth(buckets),
	}
	if count > 0 {
		out.AverageOrder = decimal.NewFromInt(revenue).Div(decimal.NewFromInt(count)).Round(0).IntPart()
	}
	return out, nil
}

// Growth compares buckets[6:12] against buckets[0:6] as a percentage rounded
// to one decimal. It is nil when the earlier window has no revenue.
func Growth(buckets []transport.MonthlyRevenue) *float64 {
	if len(buckets) != analyticsMonths {
		return nil
	}
	var prev, cur int64
	for i, b := range buckets {
		if i < analyticsMonths/2 {
			prev += b.Revenue
		} else {
			cur += b.Revenue
		}
	}
	if prev == 0 {
		return nil
	}
	pct := decimal.NewFromInt(cur - prev).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(prev)).Round(1)
	f := pct.InexactFloat64()
	return &f
}
