// Package matchmaking records requests for agency introductions and concierge
// sessions and hands them to the team through a Notifier.
package matchmaking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/compass/internal/store"
	"github.com/kiranshivaraju/compass/pkg/models"
)

// ErrContactRequired is returned when a request carries no contact email.
var ErrContactRequired = errors.New("contact email is required")

const (
	MatchmakingMessage  = "Your request has been submitted. We'll shortlist 3 best-fit agencies within 24 hours."
	ConciergeMessage    = "Session booked successfully"
	DefaultCalendarBase = "https://calendly.com/compass-concierge/"

	ticketLayout = "20060102150405"
	// maxIDAttempts bounds the suffixed retries when two requests share a second.
	maxIDAttempts = 5
)

// NextSteps are returned with every matchmaking ticket.
var NextSteps = []string{
	"Check your email for agency recommendations",
	"Book a free consultation call",
	"Review agency portfolios",
}

// Store persists requests.
type Store interface {
	CreateMatchmakingRequest(ctx context.Context, req *models.MatchmakingRequest) error
	CreateConciergeBooking(ctx context.Context, booking *models.ConciergeBooking) error
}

// Blueprints looks up stored blueprints; Get returns blueprint.ErrNotFound for unknown ids.
type Blueprints interface {
	Get(ctx context.Context, id string) (models.Blueprint, error)
}

// Notifier tells the matchmaking team about new requests.
type Notifier interface {
	NotifyMatchmaking(ctx context.Context, req models.MatchmakingRequest) error
	NotifyConcierge(ctx context.Context, booking models.ConciergeBooking) error
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct{}

func (LogNotifier) NotifyMatchmaking(_ context.Context, req models.MatchmakingRequest) error {
	slog.Info("matchmaking request received",
		"ticket_id", req.TicketID,
		"blueprint_id", req.BlueprintID,
		"service_lines", req.ServiceLines,
		"budget", req.ConfirmedBudget,
		"timeline", req.ConfirmedTimeline,
		"contact_email", req.Contact.Email,
	)
	return nil
}

func (LogNotifier) NotifyConcierge(_ context.Context, b models.ConciergeBooking) error {
	slog.Info("concierge session booked",
		"booking_id", b.BookingID,
		"blueprint_id", b.BlueprintID,
		"preferred_time", b.PreferredAt,
		"contact_email", b.Contact.Email,
	)
	return nil
}

// MatchmakingInput is the body of POST /api/request-matchmaking.
type MatchmakingInput struct {
	BlueprintID       string             `json:"blueprint_id"`
	ServiceLines      []string           `json:"service_lines"`
	ConfirmedBudget   string             `json:"confirmed_budget"`
	ConfirmedTimeline string             `json:"confirmed_timeline"`
	Contact           models.ContactInfo `json:"contact_info"`
}

// ConciergeInput is the body of POST /api/book-concierge.
type ConciergeInput struct {
	BlueprintID string             `json:"blueprint_id"`
	Contact     models.ContactInfo `json:"contact_info"`
	PreferredAt string             `json:"preferred_time"`
	Notes       string             `json:"notes"`
}

// Ticket is the reply to a matchmaking request.
type Ticket struct {
	TicketID  string   `json:"ticket_id"`
	Message   string   `json:"message"`
	NextSteps []string `json:"next_steps"`
}

// Booking is the reply to a concierge booking.
type Booking struct {
	BookingID    string `json:"booking_id"`
	Message      string `json:"message"`
	CalendarLink string `json:"calendar_link"`
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for ticket ids.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCalendarBase sets the URL prefix of concierge calendar links.
func WithCalendarBase(base string) Option {
	return func(s *Service) { s.calendarBase = base }
}

type Service struct {
	store        Store
	blueprints   Blueprints
	notifier     Notifier
	now          func() time.Time
	calendarBase string
}

func NewService(s Store, blueprints Blueprints, n Notifier, opts ...Option) *Service {
	svc := &Service{
		store:        s,
		blueprints:   blueprints,
		notifier:     n,
		now:          func() time.Time { return time.Now().UTC() },
		calendarBase: DefaultCalendarBase,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// RequestMatchmaking stores the request and notifies the team. A non-empty
// blueprint id must refer to a stored blueprint.
func (s *Service) RequestMatchmaking(ctx context.Context, in MatchmakingInput) (Ticket, error) {
	in.Contact = trimContact(in.Contact)
	if in.Contact.Email == "" {
		return Ticket{}, ErrContactRequired
	}
	in.BlueprintID = strings.TrimSpace(in.BlueprintID)
	if in.BlueprintID != "" {
		if _, err := s.blueprints.Get(ctx, in.BlueprintID); err != nil {
			return Ticket{}, err
		}
	}

	now := s.now()
	req := models.MatchmakingRequest{
		BlueprintID:       in.BlueprintID,
		ServiceLines:      nonNil(in.ServiceLines),
		ConfirmedBudget:   in.ConfirmedBudget,
		ConfirmedTimeline: in.ConfirmedTimeline,
		Contact:           in.Contact,
		CreatedAt:         now,
	}
	err := s.withUniqueID("MATCH-", now, func(id string) error {
		req.ID = uuid.New()
		req.TicketID = id
		return s.store.CreateMatchmakingRequest(ctx, &req)
	})
	if err != nil {
		return Ticket{}, fmt.Errorf("saving matchmaking request: %w", err)
	}

	if err := s.notifier.NotifyMatchmaking(ctx, req); err != nil {
		slog.Warn("matchmaking notification failed", "ticket_id", req.TicketID, "error", err)
	}
	return Ticket{
		TicketID:  req.TicketID,
		Message:   MatchmakingMessage,
		NextSteps: append([]string(nil), NextSteps...),
	}, nil
}

// BookConcierge stores a concierge session request and returns its calendar link.
func (s *Service) BookConcierge(ctx context.Context, in ConciergeInput) (Booking, error) {
	in.Contact = trimContact(in.Contact)
	if in.Contact.Email == "" {
		return Booking{}, ErrContactRequired
	}

	now := s.now()
	b := models.ConciergeBooking{
		BlueprintID: strings.TrimSpace(in.BlueprintID),
		Contact:     in.Contact,
		PreferredAt: in.PreferredAt,
		Notes:       in.Notes,
		CreatedAt:   now,
	}
	err := s.withUniqueID("CONCIERGE-", now, func(id string) error {
		b.ID = uuid.New()
		b.BookingID = id
		b.CalendarLink = s.calendarBase + id
		return s.store.CreateConciergeBooking(ctx, &b)
	})
	if err != nil {
		return Booking{}, fmt.Errorf("saving concierge booking: %w", err)
	}

	if err := s.notifier.NotifyConcierge(ctx, b); err != nil {
		slog.Warn("concierge notification failed", "booking_id", b.BookingID, "error", err)
	}
	return Booking{BookingID: b.BookingID, Message: ConciergeMessage, CalendarLink: b.CalendarLink}, nil
}

// withUniqueID calls save with prefix+timestamp, then with "-2", "-3"...
// suffixes while the store reports a duplicate.
func (s *Service) withUniqueID(prefix string, now time.Time, save func(id string) error) error {
	base := prefix + now.Format(ticketLayout)
	var err error
	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		id := base
		if attempt > 1 {
			id = fmt.Sprintf("%s-%d", base, attempt)
		}
		if err = save(id); !errors.Is(err, store.ErrDuplicateKey) {
			return err
		}
	}
	return err
}

func trimContact(c models.ContactInfo) models.ContactInfo {
	return models.ContactInfo{
		Name:    strings.TrimSpace(c.Name),
		Email:   strings.TrimSpace(c.Email),
		Phone:   strings.TrimSpace(c.Phone),
		Company: strings.TrimSpace(c.Company),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
