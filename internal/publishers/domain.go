package publishers

import (
	"strings"
	"time"

	"github.com/servicereports/servicereports/internal/activity"
	"github.com/servicereports/servicereports/internal/shared"
)

// Status is the activity status of a publisher.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusIrregular Status = "IRREGULAR"
	StatusInactive  Status = "INACTIVE"
)

// Appointment is a privilege of service held by a publisher.
type Appointment string

const (
	AppointmentPioneer            Appointment = "PIONEER"
	AppointmentSpecialPioneer     Appointment = "SPECIAL_PIONEER"
	AppointmentAuxiliary          Appointment = "AUXILIARY"
	AppointmentMissionary         Appointment = "MISSIONARY"
	AppointmentElder              Appointment = "ELDER"
	AppointmentMinisterialServant Appointment = "MINISTERIAL_SERVANT"
)

// Publisher is a member of the congregation roster.
type Publisher struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	Mobile       string
	GroupID      string
	Status       Status
	Appointments []Appointment
	Deaf         bool
	Blind        bool
	SendReports  bool
	Histories    []shared.HistoryEntry
	Reports      []activity.Report
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName joins first and last name.
func (p Publisher) DisplayName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// HasAppointment reports whether the publisher holds a.
func (p Publisher) HasAppointment(a Appointment) bool {
	for _, have := range p.Appointments {
		if have == a {
			return true
		}
	}
	return false
}

// HasArchived reports whether a report with identifier is already archived.
func (p Publisher) HasArchived(identifier string) bool {
	for _, r := range p.Reports {
		if r.Identifier == identifier {
			return true
		}
	}
	return false
}

// Trailing returns up to n of the most recently archived reports, oldest first.
func (p Publisher) Trailing(n int) []activity.Report {
	if n <= 0 || len(p.Reports) == 0 {
		return nil
	}
	start := len(p.Reports) - n
	if start < 0 {
		start = 0
	}
	return append([]activity.Report(nil), p.Reports[start:]...)
}

// Ref builds the denormalized reference copied onto live records.
func (p Publisher) Ref() *activity.PublisherRef {
	return &activity.PublisherRef{
		Name:        p.DisplayName(),
		Email:       p.Email,
		Mobile:      p.Mobile,
		GroupID:     p.GroupID,
		Status:      string(p.Status),
		SendReports: p.SendReports,
	}
}

// Clone returns a deep copy.
func (p Publisher) Clone() Publisher {
	out := p
	out.Appointments = append([]Appointment(nil), p.Appointments...)
	out.Histories = append([]shared.HistoryEntry(nil), p.Histories...)
	out.Reports = make([]activity.Report, len(p.Reports))
	for i, r := range p.Reports {
		out.Reports[i] = activity.Record{Report: r}.Archive()
	}
	return out
}

// Filter narrows roster queries.
type Filter struct {
	GroupID string
	Status  Status
}

// Matches reports whether p satisfies the filter.
func (f Filter) Matches(p Publisher) bool {
	if f.GroupID != "" && p.GroupID != f.GroupID {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	return true
}
