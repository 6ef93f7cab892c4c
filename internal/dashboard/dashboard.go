// Package dashboard reproduces the list view's derivation rules: status
// filter, then free-text search, then sort. The functions never mutate the
// authoritative list they are given.
package dashboard

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/Alcatecable/Procedure/internal/store"
)

const (
	FilterAll      = "all"
	FilterActive   = store.StatusActive
	FilterArchived = store.StatusArchived
	FilterReplaced = store.StatusReplaced
)

const (
	SortDateDesc = "date-desc"
	SortDateAsc  = "date-asc"
	SortTitle    = "title"
)

// ViewState is the user-controlled portion of the list view. Zero values
// mean the defaults: status "active", sort "date-desc", no search.
type ViewState struct {
	Search string
	Status string
	Sort   string
}

func (v ViewState) withDefaults() ViewState {
	if v.Status == "" {
		v.Status = FilterActive
	}
	if v.Sort == "" {
		v.Sort = SortDateDesc
	}
	return v
}

func ValidFilter(status string) bool {
	return status == FilterAll || store.ValidStatus(status)
}

func ValidSort(sort string) bool {
	return sort == SortDateDesc || sort == SortDateAsc || sort == SortTitle
}

// Recompute derives the displayed list: (a) status filter unless "all",
// (b) case-insensitive substring search over title, description and source,
// (c) stable sort by the active key.
func Recompute(procs []store.Procedure, vs ViewState) []store.Procedure {
	vs = vs.withDefaults()

	filtered := make([]store.Procedure, 0, len(procs))
	for _, p := range procs {
		if vs.Status != FilterAll && p.Status != vs.Status {
			continue
		}
		if !matchesSearch(p, vs.Search) {
			continue
		}
		filtered = append(filtered, p)
	}

	switch vs.Sort {
	case SortDateAsc:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].EffectiveDate.Before(filtered[j].EffectiveDate)
		})
	case SortTitle:
		c := collate.New(language.English)
		sort.SliceStable(filtered, func(i, j int) bool {
			return c.CompareString(filtered[i].Title, filtered[j].Title) < 0
		})
	default: // SortDateDesc
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[j].EffectiveDate.Before(filtered[i].EffectiveDate)
		})
	}
	return filtered
}

// matchesSearch reports whether the query is a substring of any of title,
// description or source. An empty query matches everything.
func matchesSearch(p store.Procedure, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Description), q) ||
		strings.Contains(strings.ToLower(p.Source), q)
}

// CompletionPercent is acknowledged/profiles as a rounded integer percent,
// 0 when there are no profiles.
func CompletionPercent(acknowledged, profiles int) int {
	if profiles <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(acknowledged) / float64(profiles)))
}

// EmptyMessage picks the copy shown for an empty result, keyed on whether a
// search is active and whether the viewer could add the first procedure.
func EmptyMessage(search string, admin bool) string {
	if strings.TrimSpace(search) != "" {
		return "Try adjusting your search or filters"
	}
	if admin {
		return "Get started by adding your first procedure"
	}
	return "No procedures have been added yet"
}
