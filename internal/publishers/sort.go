package publishers

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortByName orders the roster by last then first name using the collation rules of tag.
func SortByName(list []Publisher, tag language.Tag) {
	c := collate.New(tag, collate.IgnoreCase, collate.IgnoreDiacritics)
	sort.SliceStable(list, func(i, j int) bool {
		if cmp := c.CompareString(list[i].LastName, list[j].LastName); cmp != 0 {
			return cmp < 0
		}
		if cmp := c.CompareString(list[i].FirstName, list[j].FirstName); cmp != 0 {
			return cmp < 0
		}
		return list[i].ID < list[j].ID
	})
}
