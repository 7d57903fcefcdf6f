package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/servicereports/servicereports/internal/publishers"
)

// ForceSync pushes the active period to the remote server again.
func (s *Service) ForceSync(ctx context.Context) error {
	if !s.settings.Current().OnlineReporting.Enabled {
		return ErrSyncDisabled
	}
	p, err := s.Active(ctx)
	if err != nil {
		return err
	}
	s.sync.PushPeriod(ctx, p)
	s.metrics.ObserveOperation("sync", "PUSHED")
	return nil
}

// SyncGroupContacts pushes the contact list of a field service group.
func (s *Service) SyncGroupContacts(ctx context.Context, groupID string) (int, error) {
	if !s.settings.Current().OnlineReporting.Enabled {
		return 0, ErrSyncDisabled
	}
	if strings.TrimSpace(groupID) == "" {
		return 0, fmt.Errorf("%w: group id is required", ErrInvalidInput)
	}
	members, err := s.publishers.FindAll(ctx, publishers.Filter{GroupID: groupID})
	if err != nil {
		return 0, fmt.Errorf("lifecycle: load group %s: %w", groupID, err)
	}
	publishers.SortByName(members, language.Make(s.settings.Current().Language))
	s.sync.PushContacts(ctx, groupID, members)
	return len(members), nil
}
