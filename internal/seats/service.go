package seats

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"time"

	"hallbook/internal/registration"
	"hallbook/internal/shared/config"
	"hallbook/pkg/logger"

	"github.com/google/uuid"
)

// LifecyclePublisher receives booking lifecycle events. Publishing is
// fire-and-forget; implementations must never block the booking flow.
type LifecyclePublisher interface {
	SeatsHeld(ctx context.Context, session string, seatIDs []string)
	SeatsReleased(ctx context.Context, session string, seatIDs []string, reason string)
	RegistrationSubmitted(ctx context.Context, session string, seatIDs []string, refNo string)
}

// Service is the public booking flow over the reservation engine
type Service interface {
	// NewSession mints an opaque holder token for a browser session
	NewSession(ctx context.Context) SessionResponse

	// GetSeatMap returns the current full snapshot
	GetSeatMap(ctx context.Context) (SeatMapResponse, error)

	// Subscribe streams full snapshots, starting with an immediate one
	Subscribe(ctx context.Context) (<-chan map[string]Seat, func(), error)

	// Checkout holds a batch of seats for the session
	Checkout(ctx context.Context, session string, req CheckoutRequest) (*CheckoutResponse, error)

	// CancelCheckout releases the session's holds on the given seats
	CancelCheckout(ctx context.Context, session string, req CancelCheckoutRequest) error

	// SubmitRegistration moves held seats to pending review
	SubmitRegistration(ctx context.Context, session string, req SubmitRegistrationRequest) (*SubmitRegistrationResponse, error)

	// GetSessionHolds lists the session's live holds with countdowns
	GetSessionHolds(ctx context.Context, session string) ([]SessionHoldResponse, error)
}

type service struct {
	engine    *Engine
	store     Store
	hall      config.HallConfig
	publisher LifecyclePublisher
	log       *logger.Logger
}

// SessionResponse carries a freshly minted session token
type SessionResponse struct {
	Token string `json:"token"`
}

// NewService creates the booking service. publisher may be nil when the
// event pipeline is disabled.
func NewService(engine *Engine, store Store, hall config.HallConfig, publisher LifecyclePublisher, log *logger.Logger) Service {
	return &service{
		engine:    engine,
		store:     store,
		hall:      hall,
		publisher: publisher,
		log:       log,
	}
}

func (s *service) NewSession(ctx context.Context) SessionResponse {
	return SessionResponse{Token: uuid.NewString()}
}

func (s *service) GetSeatMap(ctx context.Context) (SeatMapResponse, error) {
	snapshot, err := s.store.Snapshot(ctx)
	if err != nil {
		return SeatMapResponse{}, fmt.Errorf("failed to load seat map: %w", err)
	}
	return ToSeatMapResponse(snapshot), nil
}

func (s *service) Subscribe(ctx context.Context) (<-chan map[string]Seat, func(), error) {
	return s.store.Subscribe(ctx)
}

func (s *service) Checkout(ctx context.Context, session string, req CheckoutRequest) (*CheckoutResponse, error) {
	seatIDs := dedupe(req.SeatIDs)
	if err := s.engine.Checkout(ctx, session, seatIDs); err != nil {
		return nil, err
	}

	total := 0.0
	for _, id := range seatIDs {
		seat, err := s.store.Get(ctx, id)
		if err == nil {
			total += seat.Price
		}
	}

	if s.publisher != nil {
		s.publisher.SeatsHeld(ctx, session, seatIDs)
	}

	now := time.Now()
	return &CheckoutResponse{
		SeatIDs:    seatIDs,
		ExpiresAt:  now.Add(s.hall.LockDuration),
		TTLSeconds: int(s.hall.LockDuration.Seconds()),
		TotalPrice: total,
	}, nil
}

func (s *service) CancelCheckout(ctx context.Context, session string, req CancelCheckoutRequest) error {
	seatIDs := dedupe(req.SeatIDs)
	if err := s.engine.Cancel(ctx, session, seatIDs); err != nil {
		return err
	}
	if s.publisher != nil {
		s.publisher.SeatsReleased(ctx, session, seatIDs, "cancelled")
	}
	return nil
}

func (s *service) SubmitRegistration(ctx context.Context, session string, req SubmitRegistrationRequest) (*SubmitRegistrationResponse, error) {
	payment, err := s.buildPayment(req)
	if err != nil {
		return nil, err
	}

	entries := make([]RegistrationEntry, 0, len(req.Entries))
	seatIDs := make([]string, 0, len(req.Entries))
	for _, e := range req.Entries {
		entries = append(entries, RegistrationEntry{
			SeatID: e.SeatID,
			Details: registration.Details{
				Category:   registration.Category(e.Category),
				Name:       e.Name,
				IdentityNo: e.IdentityNo,
				CarPlate:   e.CarPlate,
				Email:      e.Email,
				Phone:      e.Phone,
				Member:     e.Member,
				Vegan:      e.Vegan,
			},
		})
		seatIDs = append(seatIDs, e.SeatID)
	}

	if err := s.engine.Submit(ctx, session, entries, payment); err != nil {
		return nil, err
	}

	total := 0.0
	for _, id := range seatIDs {
		seat, err := s.store.Get(ctx, id)
		if err == nil {
			total += seat.PayablePrice(s.hall.MemberDiscount)
		}
	}

	if s.publisher != nil {
		s.publisher.RegistrationSubmitted(ctx, session, seatIDs, payment.RefNo)
	}

	return &SubmitRegistrationResponse{
		SeatIDs:      seatIDs,
		RefNo:        payment.RefNo,
		PayableTotal: total,
	}, nil
}

func (s *service) GetSessionHolds(ctx context.Context, session string) ([]SessionHoldResponse, error) {
	holds, err := s.engine.HoldsForSession(ctx, session)
	if err != nil {
		return nil, err
	}
	out := make([]SessionHoldResponse, 0, len(holds))
	for _, h := range holds {
		out = append(out, SessionHoldResponse{
			Seat:             h.Seat.ToResponse(),
			RemainingSeconds: h.RemainingSeconds,
		})
	}
	return out, nil
}

// buildPayment normalizes the payment evidence. Reference numbers are
// stored trimmed and upper-cased; the receipt must decode as base64 and
// stay under the configured byte cap.
func (s *service) buildPayment(req SubmitRegistrationRequest) (PaymentInfo, error) {
	refNo := strings.ToUpper(strings.TrimSpace(req.RefNo))
	if refNo == "" {
		return PaymentInfo{}, fmt.Errorf("%w: payment reference is required", ErrValidationFailed)
	}

	if req.Receipt != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.Receipt)
		if err != nil {
			return PaymentInfo{}, fmt.Errorf("%w: receipt is not valid base64", ErrValidationFailed)
		}
		if int64(len(decoded)) > s.hall.MaxReceiptBytes {
			return PaymentInfo{}, fmt.Errorf("%w: receipt exceeds %d bytes", ErrValidationFailed, s.hall.MaxReceiptBytes)
		}
	}

	return PaymentInfo{
		RefNo:   refNo,
		Date:    strings.TrimSpace(req.Date),
		Time:    strings.TrimSpace(req.Time),
		Receipt: req.Receipt,
	}, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
