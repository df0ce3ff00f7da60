package models

import (
	"time"

	"github.com/google/uuid"
)

// ContactInfo identifies the person behind a matchmaking or concierge request.
type ContactInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
}

// MatchmakingRequest asks the team to shortlist agencies for a blueprint.
type MatchmakingRequest struct {
	ID                uuid.UUID   `db:"id"                 json:"id"`
	TicketID          string      `db:"ticket_id"          json:"ticket_id"`
	BlueprintID       string      `db:"blueprint_id"       json:"blueprint_id"`
	ServiceLines      []string    `db:"service_lines"      json:"service_lines"`
	ConfirmedBudget   string      `db:"confirmed_budget"   json:"confirmed_budget"`
	ConfirmedTimeline string      `db:"confirmed_timeline" json:"confirmed_timeline"`
	Contact           ContactInfo `db:"contact"            json:"contact_info"`
	CreatedAt         time.Time   `db:"created_at"         json:"created_at"`
}

// ConciergeBooking is a request for a guided consultation call.
type ConciergeBooking struct {
	ID           uuid.UUID   `db:"id"            json:"id"`
	BookingID    string      `db:"booking_id"    json:"booking_id"`
	BlueprintID  string      `db:"blueprint_id"  json:"blueprint_id,omitempty"`
	Contact      ContactInfo `db:"contact"       json:"contact_info"`
	PreferredAt  string      `db:"preferred_at"  json:"preferred_time,omitempty"`
	Notes        string      `db:"notes"         json:"notes,omitempty"`
	CalendarLink string      `db:"calendar_link" json:"calendar_link"`
	CreatedAt    time.Time   `db:"created_at"    json:"created_at"`
}
