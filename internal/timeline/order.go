package timeline

import (
	"cmp"
	"slices"
	"unifeed/internal/models"
)

func compareEntries(a, b models.TimelineEntry) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ID, b.ID); c != 0 {
		return c
	}
	return cmp.Compare(a.Kind, b.Kind)
}

// Order returns entries newest first with id then kind as tie-breaks. The most
// recent pinned entry of each kind is then lifted to the head, keeping the
// relative order of the lifted entries.
func Order(entries []models.TimelineEntry) []models.TimelineEntry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, compareEntries)

	pinnedKinds := make(map[models.Kind]bool)
	head := make([]models.TimelineEntry, 0, len(models.AllKinds))
	rest := make([]models.TimelineEntry, 0, len(sorted))
	for _, e := range sorted {
		if e.Payload.Pinned && !pinnedKinds[e.Kind] {
			pinnedKinds[e.Kind] = true
			head = append(head, e)
			continue
		}
		rest = append(rest, e)
	}
	return append(head, rest...)
}
