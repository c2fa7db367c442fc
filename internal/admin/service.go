package admin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"hallbook/internal/seats"
	"hallbook/internal/shared/config"
	"hallbook/internal/shared/constants"
	"hallbook/pkg/cache"
	"hallbook/pkg/logger"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidPassphrase is returned when the login passphrase does not match
var ErrInvalidPassphrase = errors.New("invalid passphrase")

// ReviewPublisher receives admin review events, fire-and-forget
type ReviewPublisher interface {
	RegistrationApproved(ctx context.Context, seatID string)
	RegistrationDeclined(ctx context.Context, seatID string)
	SeatReset(ctx context.Context, seatID string)
}

// Service is the admin control surface: passphrase login, the review
// queue, approve/decline/reset and reporting.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	ListSeats(ctx context.Context, status, query string) (*SeatListResponse, error)
	Approve(ctx context.Context, seatID string) error
	Decline(ctx context.Context, seatID string) error
	Reset(ctx context.Context, seatID string) error
	GetReceipt(ctx context.Context, seatID string) (*ReceiptResponse, error)
	Stats(ctx context.Context) (*StatsResponse, error)
	ExportCSV(ctx context.Context) ([]byte, error)
}

type service struct {
	engine    *seats.Engine
	store     seats.Store
	cfg       *config.Config
	cache     cache.Service
	publisher ReviewPublisher
	log       *logger.Logger
}

// NewService creates the admin service. cache and publisher may be nil.
func NewService(engine *seats.Engine, store seats.Store, cfg *config.Config, cacheService cache.Service, publisher ReviewPublisher, log *logger.Logger) Service {
	return &service{
		engine:    engine,
		store:     store,
		cfg:       cfg,
		cache:     cacheService,
		publisher: publisher,
		log:       log,
	}
}

// Login verifies the passphrase against the configured bcrypt hash and
// mints a short-lived admin token. The passphrase is never compared
// client-side.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.Admin.PassphraseHash), []byte(req.Passphrase)); err != nil {
		return nil, ErrInvalidPassphrase
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"role": "admin",
		"iat":  jwt.NewNumericDate(now),
		"exp":  jwt.NewNumericDate(now.Add(s.cfg.Admin.TokenTTL)),
		"iss":  "hallbook",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Admin.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign admin token: %w", err)
	}

	return &LoginResponse{
		Token:     signed,
		ExpiresIn: int64(s.cfg.Admin.TokenTTL.Seconds()),
	}, nil
}

// ListSeats returns every non-AVAILABLE seat, optionally filtered by
// status and by free-text search over attendee and payment fields.
func (s *service) ListSeats(ctx context.Context, status, query string) (*SeatListResponse, error) {
	snapshot, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	statusFilter := seats.Status(strings.ToUpper(strings.TrimSpace(status)))

	var rows []seats.Seat
	for _, seat := range snapshot {
		if seat.Status == seats.StatusAvailable {
			continue
		}
		if statusFilter != "" && seat.Status != statusFilter {
			continue
		}
		if query != "" && !matchesQuery(&seat, query) {
			continue
		}
		rows = append(rows, seat)
	}

	// newest hold first, then by id for a stable order
	sort.Slice(rows, func(i, j int) bool {
		ti, tj := lockedAtOrZero(&rows[i]), lockedAtOrZero(&rows[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return rows[i].ID < rows[j].ID
	})

	resp := &SeatListResponse{Total: len(rows), Seats: make([]seats.SeatResponse, 0, len(rows))}
	for i := range rows {
		resp.Seats = append(resp.Seats, rows[i].ToResponse())
	}
	return resp, nil
}

func lockedAtOrZero(seat *seats.Seat) time.Time {
	if seat.LockedAt != nil {
		return *seat.LockedAt
	}
	return time.Time{}
}

func matchesQuery(seat *seats.Seat, query string) bool {
	fields := []string{seat.ID}
	if seat.Details != nil {
		fields = append(fields,
			seat.Details.Name,
			seat.Details.IdentityNo,
			seat.Details.CarPlate,
			seat.Details.Email,
			seat.Details.Phone,
			seat.Details.Category.String(),
		)
	}
	if seat.Payment != nil {
		fields = append(fields, seat.Payment.RefNo)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

func (s *service) Approve(ctx context.Context, seatID string) error {
	if err := s.engine.Approve(ctx, seatID); err != nil {
		return err
	}
	s.invalidateStats(ctx)
	if s.publisher != nil {
		s.publisher.RegistrationApproved(ctx, seatID)
	}
	return nil
}

func (s *service) Decline(ctx context.Context, seatID string) error {
	if err := s.engine.Decline(ctx, seatID); err != nil {
		return err
	}
	s.invalidateStats(ctx)
	if s.publisher != nil {
		s.publisher.RegistrationDeclined(ctx, seatID)
	}
	return nil
}

func (s *service) Reset(ctx context.Context, seatID string) error {
	if err := s.engine.Reset(ctx, seatID); err != nil {
		return err
	}
	s.invalidateStats(ctx)
	if s.publisher != nil {
		s.publisher.SeatReset(ctx, seatID)
	}
	return nil
}

// GetReceipt returns the receipt blob for a seat in review. Receipts are
// stripped from snapshots, so the admin UI fetches them one at a time.
func (s *service) GetReceipt(ctx context.Context, seatID string) (*ReceiptResponse, error) {
	seat, err := s.store.Get(ctx, seatID)
	if err != nil {
		return nil, err
	}
	if seat.Payment == nil {
		return nil, fmt.Errorf("%w: seat %s has no payment record", seats.ErrSeatNotFound, seatID)
	}
	return &ReceiptResponse{
		SeatID:  seat.ID,
		RefNo:   seat.Payment.RefNo,
		Receipt: seat.Payment.Receipt,
	}, nil
}

// Stats summarizes the hall, cached briefly since the dashboard polls it
func (s *service) Stats(ctx context.Context) (*StatsResponse, error) {
	if s.cache != nil {
		var cached StatsResponse
		err := s.cache.GetOrSet(ctx, constants.CACHE_KEY_ADMIN_STATS, constants.TTL_ADMIN_STATS, func() (interface{}, error) {
			stats, err := s.computeStats(ctx)
			if err != nil {
				return nil, err
			}
			return stats, nil
		}, &cached)
		if err == nil {
			return &cached, nil
		}
		s.log.ErrorWithContext(ctx, "stats cache failed, computing directly", err, nil)
	}
	return s.computeStats(ctx)
}

func (s *service) computeStats(ctx context.Context) (*StatsResponse, error) {
	snapshot, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	stats := &StatsResponse{
		TotalSeats: len(snapshot),
		ByStatus:   make(map[string]int),
		ByTier:     make(map[string]int),
	}
	for _, seat := range snapshot {
		stats.ByStatus[seat.Status.String()]++
		stats.ByTier[string(seat.Tier)]++
		if seat.Status == seats.StatusSold {
			stats.SoldRevenue += seat.PayablePrice(s.cfg.Hall.MemberDiscount)
		}
		if seat.Status == seats.StatusPending {
			stats.PendingReview++
		}
	}
	return stats, nil
}

func (s *service) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, constants.CACHE_KEY_ADMIN_STATS); err != nil {
		s.log.ErrorWithContext(ctx, "stats cache invalidation failed", err, nil)
	}
}
