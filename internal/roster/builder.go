package roster

import (
	"strings"

	"github.com/kelarin/rosync/internal/models"
)

// minColumns is the fewest fields a row needs to be considered at all.
const minColumns = 4

// Builder constructs [models.Member] values from parsed roster rows.
//
// With ScanPhones set (fixed positional mode) the builder tries every column
// from the mapped phone index rightward and keeps the first value that
// normalizes; otherwise only the single mapped phone column is consulted.
type Builder struct {
	Mapping    ColumnMapping
	Phones     Normalizer
	ScanPhones bool
}

// NewBuilder creates a Builder over the given column mapping.
func NewBuilder(mapping ColumnMapping, phones Normalizer) Builder {
	return Builder{Mapping: mapping, Phones: phones}
}

// BuildMember converts one row into a member. The second return value is
// false when the row is skipped: too few columns, empty identifier, or an
// empty composed name. A phone that fails to normalize is not a skip; the
// member simply carries no phone.
func (b Builder) BuildMember(row []string) (models.Member, bool) {
	if len(row) < minColumns {
		return models.Member{}, false
	}

	id := field(row, b.Mapping.ID)
	if id == "" {
		return models.Member{}, false
	}

	name := composeName(
		field(row, b.Mapping.Title),
		field(row, b.Mapping.First),
		field(row, b.Mapping.Last),
	)
	if name == "" {
		return models.Member{}, false
	}

	return models.Member{ID: id, Name: name, Phone: b.phone(row)}, true
}

// BuildMembers converts rows in order, returning the members plus the number
// of skipped rows. When several rows share an identifier the first one wins
// and the rest count as skipped.
func (b Builder) BuildMembers(rows [][]string) ([]models.Member, int) {
	members := make([]models.Member, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	skipped := 0

	for _, row := range rows {
		m, ok := b.BuildMember(row)
		if !ok || seen[m.ID] {
			skipped++
			continue
		}
		seen[m.ID] = true
		members = append(members, m)
	}

	return members, skipped
}

func (b Builder) phone(row []string) string {
	if b.Mapping.Phone == NotFound {
		return ""
	}

	if !b.ScanPhones {
		return b.Phones.Normalize(field(row, b.Mapping.Phone))
	}

	for i := b.Mapping.Phone; i < len(row); i++ {
		if p := b.Phones.Normalize(strings.TrimSpace(row[i])); p != "" {
			return p
		}
	}
	return ""
}

// composeName joins the present name parts with single spaces.
func composeName(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
