package filter

import (
	"strings"
	"time"

	"github.com/amishk599/skywatch/internal/model"
)

// Ensure KeywordSinceFilter implements model.HistoryFilter.
var _ model.HistoryFilter = (*KeywordSinceFilter)(nil)

// KeywordSinceFilter matches history entries whose filename contains any of
// the keywords and that were created at or after since.
// Matching is case-insensitive. Empty keywords and a zero since match all.
type KeywordSinceFilter struct {
	keywords []string
	since    time.Time
}

// NewKeywordSinceFilter returns a filter that requires both a filename
// keyword match (case-insensitive substring) and a creation time not before since.
func NewKeywordSinceFilter(keywords []string, since time.Time) *KeywordSinceFilter {
	var kws []string
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			kws = append(kws, strings.ToLower(kw))
		}
	}
	return &KeywordSinceFilter{keywords: kws, since: since}
}

// Match returns true if the entry passes both the keyword and the age check.
func (f *KeywordSinceFilter) Match(entry model.HistoryEntry) bool {
	if !f.since.IsZero() && entry.CreatedAt().Before(f.since) {
		return false
	}

	if len(f.keywords) > 0 {
		name := strings.ToLower(entry.Filename)
		matched := false
		for _, kw := range f.keywords {
			if strings.Contains(name, kw) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

// Apply returns the entries f matches, preserving order.
func Apply(f model.HistoryFilter, entries []model.HistoryEntry) []model.HistoryEntry {
	var out []model.HistoryEntry
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}
