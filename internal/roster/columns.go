package roster

import "strings"

// NotFound marks a column that could not be resolved.
const NotFound = -1

// ColumnMapping assigns roster CSV column indices to member fields.
// Unresolved columns hold [NotFound].
type ColumnMapping struct {
	ID    int
	Title int
	First int
	Last  int
	Phone int
}

// Keyword sets for heuristic header matching. Matching is case-insensitive
// substring containment; the first matching header wins.
var (
	idKeywords    = []string{"member", "id"}
	titleKeywords = []string{"title", "salutation"}
	firstKeywords = []string{"first", "name"}
	lastKeywords  = []string{"last", "surname"}
	phoneKeywords = []string{"phone", "mobile", "telephone"}
)

// DetectColumns maps a header row to member fields by keyword matching.
// It is a pure function of the header; rows are processed separately.
func DetectColumns(header []string) ColumnMapping {
	return ColumnMapping{
		ID:    matchColumn(header, idKeywords),
		Title: matchColumn(header, titleKeywords),
		First: matchColumn(header, firstKeywords),
		Last:  matchColumn(header, lastKeywords),
		Phone: matchColumn(header, phoneKeywords),
	}
}

// matchColumn returns the index of the first header containing any of the
// keywords, or [NotFound].
func matchColumn(header []string, keywords []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, kw := range keywords {
			if strings.Contains(h, kw) {
				return i
			}
		}
	}
	return NotFound
}

// field returns the trimmed value at index idx, or "" when the column is
// unresolved or the row is too short.
func field(row []string, idx int) string {
	if idx == NotFound || idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
