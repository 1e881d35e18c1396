package selector

import (
	"github.com/clerkdesk/agenda-report/internal/domain/entities"
)

// Apply filters the loaded items down to the working set passed to
// generation. Each item's inclusion flag from the loader is the default;
// user overrides (item index → bool) win per item. Original order is
// preserved and the operation is idempotent: applying the same overrides to
// its own output yields the same subset.
func Apply(items []entities.AgendaItem, overrides map[int]bool) []entities.AgendaItem {
	selected := make([]entities.AgendaItem, 0, len(items))
	for _, item := range items {
		included := item.Included
		if v, ok := overrides[item.Index]; ok {
			included = v
		}
		if !included {
			continue
		}
		item.Included = true
		selected = append(selected, item)
	}
	return selected
}
