package serviceyears

import "github.com/servicereports/servicereports/internal/shared"

// ServiceYear groups the service months of one fiscal year and its status diary.
type ServiceYear struct {
	Name          int
	ServiceMonths []string
	History       []shared.HistoryEntry
}

// HasMonth reports whether key is registered in the year.
func (y ServiceYear) HasMonth(key string) bool {
	for _, k := range y.ServiceMonths {
		if k == key {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (y ServiceYear) Clone() ServiceYear {
	return ServiceYear{
		Name:          y.Name,
		ServiceMonths: append([]string(nil), y.ServiceMonths...),
		History:       append([]shared.HistoryEntry(nil), y.History...),
	}
}
