package remote

import (
	"github.com/servicereports/servicereports/internal/periods"
	"github.com/servicereports/servicereports/internal/publishers"
)

// Sync operations understood by Deliver.
const (
	OpPushPeriod   = "push_period"
	OpDeletePeriod = "delete_period"
	OpPushContacts = "push_contacts"
)

// ReportPayload is one record of a pushed period.
type ReportPayload struct {
	Identifier       string `json:"identifier"`
	PublisherID      string `json:"publisherId"`
	Name             string `json:"name"`
	GroupID          string `json:"groupId,omitempty"`
	Kind             string `json:"kind"`
	HasBeenActive    bool   `json:"hasBeenActive"`
	HasNotBeenActive bool   `json:"hasNotBeenActive"`
	StudyCount       *int   `json:"studyCount,omitempty"`
	Hours            *int   `json:"hours,omitempty"`
	Remarks          string `json:"remarks,omitempty"`
	Auxiliary        bool   `json:"auxiliary"`
}

// PeriodPayload is the body of a period push.
type PeriodPayload struct {
	Key         string          `json:"key"`
	ServiceYear int             `json:"serviceYear"`
	SortOrder   int             `json:"sortOrder"`
	Reports     []ReportPayload `json:"reports"`
}

// Contact is the minimal contact data shared with the server.
type Contact struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Mobile      string `json:"mobile,omitempty"`
	SendReports bool   `json:"sendReports"`
}

// ContactsPayload lists the members of one field service group.
type ContactsPayload struct {
	GroupID    string    `json:"groupId"`
	Publishers []Contact `json:"publishers"`
}

// Task is one unit of remote work, executed inline by the Gateway or queued by the worker.
type Task struct {
	Op             string           `json:"op"`
	CongregationID string           `json:"congregationId"`
	Key            string           `json:"key,omitempty"`
	Period         *PeriodPayload   `json:"period,omitempty"`
	Contacts       *ContactsPayload `json:"contacts,omitempty"`
}

// NewPeriodPayload keeps the records that still carry publisher details.
func NewPeriodPayload(p periods.Period) PeriodPayload {
	out := PeriodPayload{Key: p.Key, ServiceYear: p.ServiceYear, SortOrder: p.SortOrder, Reports: []ReportPayload{}}
	for _, r := range p.Reports {
		if r.Publisher == nil {
			continue
		}
		out.Reports = append(out.Reports, ReportPayload{
			Identifier:       r.Identifier,
			PublisherID:      r.PublisherID,
			Name:             r.Publisher.Name,
			GroupID:          r.Publisher.GroupID,
			Kind:             string(r.Kind),
			HasBeenActive:    r.HasBeenActive,
			HasNotBeenActive: r.HasNotBeenActive,
			StudyCount:       r.StudyCount,
			Hours:            r.Hours,
			Remarks:          r.Remarks,
			Auxiliary:        r.Auxiliary,
		})
	}
	return out
}

// NewContactsPayload builds the contact list of a group.
func NewContactsPayload(groupID string, members []publishers.Publisher) ContactsPayload {
	out := ContactsPayload{GroupID: groupID, Publishers: make([]Contact, 0, len(members))}
	for _, p := range members {
		out.Publishers = append(out.Publishers, Contact{
			ID:          p.ID,
			Name:        p.DisplayName(),
			Email:       p.Email,
			Mobile:      p.Mobile,
			SendReports: p.SendReports,
		})
	}
	return out
}

// PushPeriodTask wraps a period push.
func PushPeriodTask(congregationID string, p periods.Period) Task {
	payload := NewPeriodPayload(p)
	return Task{Op: OpPushPeriod, CongregationID: congregationID, Key: p.Key, Period: &payload}
}

// DeletePeriodTask wraps a delete notification.
func DeletePeriodTask(congregationID, key string) Task {
	return Task{Op: OpDeletePeriod, CongregationID: congregationID, Key: key}
}

// PushContactsTask wraps a contact list push.
func PushContactsTask(congregationID, groupID string, members []publishers.Publisher) Task {
	payload := NewContactsPayload(groupID, members)
	return Task{Op: OpPushContacts, CongregationID: congregationID, Contacts: &payload}
}
