package memory

import (
	"slices"
	"strings"
)

// SortByDate orders entries newest first. Equal dates fall back to the
// most recently created entry, then to the incoming order. The input is
// not modified.
func SortByDate(entries []Entry) []Entry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b Entry) int {
		if c := strings.Compare(b.Date, a.Date); c != 0 {
			return c
		}
		switch {
		case a.CreatedAt > b.CreatedAt:
			return -1
		case a.CreatedAt < b.CreatedAt:
			return 1
		}
		return 0
	})
	return out
}

// Matches reports whether the entry contains the lowercased query in its
// title, description, location or tags.
func Matches(e Entry, lowerQuery string) bool {
	if lowerQuery == "" {
		return true
	}
	text := e.Title + " " + e.Description + " " + e.Location
	if len(e.Tags) > 0 {
		text += " " + strings.Join(e.Tags, " ")
	}
	return strings.Contains(strings.ToLower(text), lowerQuery)
}

// Filter returns the entries matching query, newest first. A blank query
// matches everything.
func Filter(query string, entries []Entry) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if Matches(e, q) {
			out = append(out, e)
		}
	}
	return SortByDate(out)
}

// Replace returns a copy of entries with the entry sharing e's id swapped
// for e, re-sorted. Unknown ids are appended.
func Replace(entries []Entry, e Entry) []Entry {
	out := slices.Clone(entries)
	i := slices.IndexFunc(out, func(x Entry) bool { return x.ID == e.ID })
	if i < 0 {
		out = append(out, e)
	} else {
		out[i] = e
	}
	return SortByDate(out)
}

// Remove returns a copy of entries without id, and whether it was present.
func Remove(entries []Entry, id string) ([]Entry, bool) {
	out := slices.DeleteFunc(slices.Clone(entries), func(x Entry) bool { return x.ID == id })
	return out, len(out) != len(entries)
}
