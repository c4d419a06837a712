package domain

import (
	"errors"
	"sort"
)

// ListAndSort decodes a snapshot into links in display order. Every record
// is listed; fields that could not be decoded are zeroed and reported
// together in err.
func ListAndSort(s Snapshot) (links []Link, err error) {
	links = make([]Link, 0, len(s))
	var errs []error
	for id, raw := range s {
		link, err := DecodeLink(id, raw)
		if err != nil {
			errs = append(errs, err)
		}
		links = append(links, link)
	}
	SortLinks(links)
	return links, errors.Join(errs...)
}

// SortLinks orders links ascending by Order, newer CreatedAt first on ties.
// ID breaks the remaining ties so any input yields a single order.
func SortLinks(links []Link) {
	sort.SliceStable(links, func(i, j int) bool {
		return less(links[i], links[j])
	})
}

func less(a, b Link) bool {
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	if a.CreatedAt != b.CreatedAt {
		return a.CreatedAt > b.CreatedAt
	}
	return a.ID < b.ID
}

// NextOrder returns the order for a link appended to s:
// the largest existing order plus one, 1 for an empty collection.
func NextOrder(s Snapshot) int64 {
	var maxOrder int64
	first := true
	for id, raw := range s {
		// a partially decoded record still counts with what parsed
		link, _ := DecodeLink(id, raw)
		if first || link.Order > maxOrder {
			maxOrder = link.Order
			first = false
		}
	}
	return maxOrder + 1
}

// Move returns a copy of links where draggedID has been taken out of its
// position and reinserted at targetID's position. Items between the two
// positions shift by one. ok is false, and links is returned as is, when
// the ids are equal or either one is missing.
func Move(links []Link, draggedID, targetID string) (moved []Link, ok bool) {
	if draggedID == targetID {
		return links, false
	}

	from, to := indexOf(links, draggedID), indexOf(links, targetID)
	if from < 0 || to < 0 {
		return links, false
	}

	moved = make([]Link, 0, len(links))
	moved = append(moved, links[:from]...)
	moved = append(moved, links[from+1:]...)

	item := links[from]
	moved = append(moved, Link{})
	copy(moved[to+1:], moved[to:])
	moved[to] = item

	return moved, true
}

func indexOf(links []Link, id string) int {
	for i := range links {
		if links[i].ID == id {
			return i
		}
	}
	return -1
}
