package shared

import "fmt"

// LifecycleLockKey builds the redis key guarding period open/close for a congregation.
func LifecycleLockKey(congregationID string) string {
	if congregationID == "" {
		congregationID = "default"
	}
	return fmt.Sprintf("servicereports:%s:lifecycle:lock", congregationID)
}
