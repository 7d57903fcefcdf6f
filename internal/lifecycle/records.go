package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/servicereports/servicereports/internal/activity"
	"github.com/servicereports/servicereports/internal/periods"
	"github.com/servicereports/servicereports/internal/shared"
)

// RecordInput is a report submission for one record of an open period.
type RecordInput struct {
	HasBeenActive    bool          `json:"hasBeenActive"`
	HasNotBeenActive bool          `json:"hasNotBeenActive" validate:"excluded_with=HasBeenActive"`
	StudyCount       *int          `json:"studyCount" validate:"omitempty,min=0,max=999"`
	Hours            *int          `json:"hours" validate:"omitempty,min=0,max=744"`
	Remarks          string        `json:"remarks" validate:"max=500"`
	Kind             activity.Kind `json:"kind" validate:"omitempty,oneof=PUBLISHER PIONEER SPECIAL_PIONEER AUXILIARY MISSIONARY CIRCUIT_OVERSEER"`
	Auxiliary        *bool         `json:"auxiliary"`
}

// AttendanceInput replaces the weekly attendance figures of one language group.
type AttendanceInput struct {
	Midweek []int `json:"midweek" validate:"max=5,dive,min=0"`
	Weekend []int `json:"weekend" validate:"max=5,dive,min=0"`
}

// UpdateRecord applies a report submission to a record of an open period.
func (s *Service) UpdateRecord(ctx context.Context, key, identifier string, in RecordInput) (activity.Record, error) {
	if err := s.check(in); err != nil {
		return activity.Record{}, err
	}
	var out activity.Record
	err := s.editOpen(ctx, key, func(p *periods.Period) error {
		idx, ok := p.FindReport(identifier)
		if !ok {
			return ErrRecordNotFound
		}
		rec := &p.Reports[idx]
		rec.HasBeenActive = in.HasBeenActive
		rec.HasNotBeenActive = in.HasNotBeenActive
		rec.StudyCount = in.StudyCount
		rec.Hours = in.Hours
		rec.Remarks = strings.TrimSpace(in.Remarks)
		if in.Kind != "" {
			rec.Kind = in.Kind
		}
		if in.Auxiliary != nil {
			rec.Auxiliary = *in.Auxiliary
		}
		out = rec.Clone()
		return nil
	})
	if err != nil {
		return activity.Record{}, err
	}
	return out, nil
}

// UpdateAttendance replaces the attendance of group in an open period.
func (s *Service) UpdateAttendance(ctx context.Context, key, group string, in AttendanceInput) (periods.Attendance, error) {
	if err := s.check(in); err != nil {
		return periods.Attendance{}, err
	}
	var out periods.Attendance
	err := s.editOpen(ctx, key, func(p *periods.Period) error {
		idx, ok := p.FindAttendance(group)
		if !ok {
			return ErrAttendanceNotFound
		}
		p.Attendance[idx].Midweek = append([]int{}, in.Midweek...)
		p.Attendance[idx].Weekend = append([]int{}, in.Weekend...)
		out = p.Attendance[idx]
		return nil
	})
	if err != nil {
		return periods.Attendance{}, err
	}
	return out, nil
}

func (s *Service) editOpen(ctx context.Context, key string, mutate func(*periods.Period) error) error {
	return s.exclusive(ctx, func(ctx context.Context) error {
		p, err := s.periods.FindByKey(ctx, key)
		if errors.Is(err, shared.ErrNotFound) {
			return ErrPeriodNotFound
		}
		if err != nil {
			return fmt.Errorf("lifecycle: load period %s: %w", key, err)
		}
		if p.Status == periods.StatusDone {
			return ErrPeriodClosed
		}
		if err := mutate(&p); err != nil {
			return err
		}
		if _, err := s.periods.Update(ctx, p.ID, p); err != nil {
			return fmt.Errorf("lifecycle: update period %s: %w", key, err)
		}
		return nil
	})
}

func (s *Service) check(in interface{}) error {
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(fields, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
