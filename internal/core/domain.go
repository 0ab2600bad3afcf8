package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Client is a customer record. ID is generated once and never changes.
	Client struct {
		ID        string `json:"id"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Phone     string `json:"phone"`
	}

	// Service is a billable offering. UsageCount counts how many saved
	// appointments referenced it.
	Service struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		Price      Money  `json:"price"`
		UsageCount int    `json:"usageCount"`
	}

	// Appointment is a scheduled visit: one client, one or more services,
	// optional time and comment. ID may be empty for records imported from
	// legacy backups; matching then falls back to the structural key.
	Appointment struct {
		ID         string   `json:"id,omitempty"`
		Date       string   `json:"date"`
		ClientID   string   `json:"clientId"`
		ServiceIDs []string `json:"serviceIds"`
		Time       string   `json:"time,omitempty"`
		Comment    string   `json:"comment,omitempty"`
	}
)

var (
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidTime    = errors.New("invalid time")
	ErrEmptyFirstName = errors.New("empty first name")
	ErrEmptyName      = errors.New("empty service name")
	ErrNoClient       = errors.New("no client selected")
	ErrNoServices     = errors.New("no services selected")
)

// ValidDate reports whether s is a calendar date in YYYY-MM-DD form.
func ValidDate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

// ValidTime reports whether s is a wall-clock time in HH:MM form.
func ValidTime(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

func (c Client) Validate() error {
	if strings.TrimSpace(c.FirstName) == "" {
		return ErrEmptyFirstName
	}
	return nil
}

// DisplayName is the trimmed "First Last" form used everywhere a client
// is shown or sorted.
func (c Client) DisplayName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

func (s Service) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if err := s.Price.Validate(); err != nil {
		return err
	}
	return nil
}

func (a Appointment) Validate() error {
	if !ValidDate(a.Date) {
		return ErrInvalidDate
	}
	if a.ClientID == "" {
		return ErrNoClient
	}
	if len(a.ServiceIDs) == 0 {
		return ErrNoServices
	}
	if a.Time != "" && !ValidTime(a.Time) {
		return ErrInvalidTime
	}
	return nil
}

// CopyServiceIDs returns an independent copy of the service id list.
func (a Appointment) CopyServiceIDs() []string {
	return append([]string(nil), a.ServiceIDs...)
}
