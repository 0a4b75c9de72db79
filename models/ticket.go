package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Amounts are stored as JSON numbers, the way browser-side readers of the
// same keys write them.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

type TicketStatus string

const (
	TicketConfirmed TicketStatus = "confirmed"
	TicketCancelled TicketStatus = "cancelled"
)

func (s TicketStatus) Valid() bool {
	return s == TicketConfirmed || s == TicketCancelled
}

// Ticket is an issued booking. Everything except Status is fixed at issuance.
type Ticket struct {
	ID          string          `json:"id"`
	EventID     int             `json:"eventId"`
	EventTitle  string          `json:"eventTitle"`
	EventDate   string          `json:"eventDate"`
	EventTime   string          `json:"eventTime"`
	Venue       string          `json:"venue"`
	Location    string          `json:"location"`
	Quantity    int             `json:"quantity"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	BookingDate time.Time       `json:"bookingDate"`
	QRCode      string          `json:"qrCode"`
	Status      TicketStatus    `json:"status"` // confirmed, cancelled
	SeatNumbers []string        `json:"seatNumbers,omitempty"`
}

// TicketInput holds the booking facts supplied by the caller when a ticket
// is issued. Identity, booking date and QR payload are derived.
type TicketInput struct {
	EventID     int             `json:"eventId"`
	EventTitle  string          `json:"eventTitle"`
	EventDate   string          `json:"eventDate"`
	EventTime   string          `json:"eventTime"`
	Venue       string          `json:"venue"`
	Location    string          `json:"location"`
	Quantity    int             `json:"quantity"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	SeatNumbers []string        `json:"seatNumbers,omitempty"`
}

// CloneTickets returns a deep copy so callers never share backing arrays
// with store state.
func CloneTickets(tickets []Ticket) []Ticket {
	if tickets == nil {
		return []Ticket{}
	}
	out := make([]Ticket, len(tickets))
	for i, t := range tickets {
		if t.SeatNumbers != nil {
			t.SeatNumbers = append([]string(nil), t.SeatNumbers...)
		}
		out[i] = t
	}
	return out
}
