// Package reconcile decides which remote feed items are new relative to
// the links already stored for a feed. Identity is the item link and
// nothing else; an item whose link is already stored is considered
// unchanged even if its content differs.
package reconcile

import "feedbox/internal/fetch"

// NewItems returns the remote items whose links are absent from local,
// in the remote list's original order. Items without a link are always
// included: they carry no identity and are never deduplicated. A link
// that appears more than once in the remote list is selected once, on
// its first occurrence.
func NewItems(remote []fetch.Item, local map[string]struct{}) []fetch.Item {
	newLinks := make(map[string]struct{})
	for _, item := range remote {
		if item.Link == nil {
			continue
		}
		if _, seen := local[*item.Link]; !seen {
			newLinks[*item.Link] = struct{}{}
		}
	}

	var selected []fetch.Item
	for _, item := range remote {
		if item.Link == nil {
			selected = append(selected, item)
			continue
		}
		if _, ok := newLinks[*item.Link]; ok {
			selected = append(selected, item)
			delete(newLinks, *item.Link)
		}
	}

	return selected
}
