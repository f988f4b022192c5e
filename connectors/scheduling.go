package connectors

import (
	"context"
	"net/url"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Slot is one appointment slot on a given date.
type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// Booking is the outcome of an appointment request.
type Booking struct {
	ConfirmationID string `json:"confirmation_id"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Type           string `json:"type,omitempty"`
	Status         string `json:"status"`
}

// Scheduling lists availability and books appointments.
type Scheduling struct {
	client *client
}

// NewScheduling creates the scheduling connector. Without a configured base
// URL it stays in mock mode.
func NewScheduling(cfg *Config) *Scheduling {
	if cfg.Scheduling.BaseURL == "" {
		return &Scheduling{}
	}
	return &Scheduling{client: newClient(cfg.Scheduling)}
}

// mockSlots is the fixed availability served in mock mode.
var mockSlots = []Slot{
	{Time: "09:00", Available: true},
	{Time: "10:00", Available: true},
	{Time: "11:00", Available: false},
	{Time: "14:00", Available: true},
	{Time: "15:00", Available: true},
}

// AvailableSlots lists appointment slots for a date.
func (s *Scheduling) AvailableSlots(ctx context.Context, date, apptType string) ([]Slot, error) {
	if s.client == nil {
		return slices.Clone(mockSlots), nil
	}

	var payload struct {
		Slots []Slot `json:"slots"`
	}
	query := url.Values{"date": {date}, "type": {apptType}}
	if err := s.client.getJSON(ctx, "scheduling.available_slots", "/slots", query, &payload); err != nil {
		return nil, err
	}
	return payload.Slots, nil
}

// Book requests an appointment. Bookings start out pending until the
// scheduling system confirms them.
func (s *Scheduling) Book(ctx context.Context, date, timeSlot, apptType string) (*Booking, error) {
	if s.client == nil {
		return &Booking{
			ConfirmationID: confirmationID(),
			Date:           date,
			Time:           timeSlot,
			Type:           apptType,
			Status:         "pending",
		}, nil
	}

	body := map[string]string{
		"date":   date,
		"time":   timeSlot,
		"type":   apptType,
		"source": "switchboard",
	}
	var booking Booking
	if err := s.client.postJSON(ctx, "scheduling.book", "/appointments", body, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// confirmationID builds a short caller-readable booking reference.
func confirmationID() string {
	id := uuid.Must(uuid.NewV7()).String()
	return "APT-" + strings.ToUpper(id[len(id)-8:])
}
