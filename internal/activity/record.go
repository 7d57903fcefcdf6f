// Package activity defines the monthly service report shapes shared by periods and publishers.
package activity

import (
	"github.com/oklog/ulid/v2"
)

// Kind classifies the reporting role of a publisher for one period.
type Kind string

const (
	KindPublisher       Kind = "PUBLISHER"
	KindPioneer         Kind = "PIONEER"
	KindSpecialPioneer  Kind = "SPECIAL_PIONEER"
	KindAuxiliary       Kind = "AUXILIARY"
	KindMissionary      Kind = "MISSIONARY"
	KindCircuitOverseer Kind = "CIRCUIT_OVERSEER"
)

// Kinds lists every kind in report order.
var Kinds = []Kind{
	KindPublisher,
	KindAuxiliary,
	KindPioneer,
	KindSpecialPioneer,
	KindMissionary,
	KindCircuitOverseer,
}

// Report is the archived form of a monthly report. It carries no contact or group references.
type Report struct {
	Identifier       string `json:"identifier"`
	ServiceYear      int    `json:"serviceYear"`
	PeriodKey        string `json:"periodKey"`
	SortOrder        int    `json:"sortOrder"`
	Kind             Kind   `json:"kind"`
	HasBeenActive    bool   `json:"hasBeenActive"`
	HasNotBeenActive bool   `json:"hasNotBeenActive"`
	StudyCount       *int   `json:"studyCount,omitempty"`
	Hours            *int   `json:"hours,omitempty"`
	Remarks          string `json:"remarks,omitempty"`
	Auxiliary        bool   `json:"auxiliary"`
}

// Filed reports whether the publisher submitted a report either way.
func (r Report) Filed() bool {
	return r.HasBeenActive || r.HasNotBeenActive
}

// PublisherRef holds publisher details copied onto a live record for display and export.
type PublisherRef struct {
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Mobile      string `json:"mobile,omitempty"`
	GroupID     string `json:"groupId,omitempty"`
	Status      string `json:"status"`
	SendReports bool   `json:"sendReports"`
}

// Record is a report while its period is open.
type Record struct {
	Report
	PublisherID string        `json:"publisherId,omitempty"`
	Publisher   *PublisherRef `json:"publisher,omitempty"`
}

// Archive projects the record onto its archived shape.
func (r Record) Archive() Report {
	out := r.Report
	out.StudyCount = cloneInt(r.StudyCount)
	out.Hours = cloneInt(r.Hours)
	return out
}

// Trim drops the denormalized publisher details but keeps the publisher reference.
func (r Record) Trim() Record {
	return Record{Report: r.Archive(), PublisherID: r.PublisherID}
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := Record{Report: r.Archive(), PublisherID: r.PublisherID}
	if r.Publisher != nil {
		ref := *r.Publisher
		out.Publisher = &ref
	}
	return out
}

// NewIdentifier returns a fresh, lexically sortable record identifier.
func NewIdentifier() string {
	return ulid.Make().String()
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
