package timeline

import "unifeed/internal/models"

// Dedupe drops activity entries whose media already appears as a post, and any
// repeated (kind, id) pair after its first occurrence. Survivors keep their
// order. Entries without a dedup key are only subject to the (kind, id) rule.
func Dedupe(entries []models.TimelineEntry) []models.TimelineEntry {
	postKeys := make(map[string]struct{})
	for i := range entries {
		if entries[i].Kind == models.KindPost && entries[i].DedupKey != "" {
			postKeys[entries[i].DedupKey] = struct{}{}
		}
	}

	seen := make(map[models.EntryRef]struct{}, len(entries))
	out := make([]models.TimelineEntry, 0, len(entries))
	for _, e := range entries {
		if e.Kind == models.KindActivity && e.DedupKey != "" {
			if _, dup := postKeys[e.DedupKey]; dup {
				continue
			}
		}
		ref := e.Ref()
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, e)
	}
	return out
}
