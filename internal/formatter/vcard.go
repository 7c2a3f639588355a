// package formatter serializes member records into contact-card bundles and
// renders run summaries for CLI output.
package formatter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/kelarin/rosync/internal/models"
)

// ContactCard renders a single member as a vCard 3.0 block.
func ContactCard(m models.Member) string {
	var b strings.Builder

	b.WriteString("BEGIN:VCARD\n")
	b.WriteString("VERSION:3.0\n")
	b.WriteString(fmt.Sprintf("N:%s;;;;\n", m.Name))
	b.WriteString(fmt.Sprintf("FN:%s\n", m.Name))
	b.WriteString(fmt.Sprintf("TEL;TYPE=CELL:%s\n", m.Phone))
	b.WriteString("END:VCARD")

	return b.String()
}

// ContactBundle renders members with a phone as one importable .vcf file,
// cards separated by a blank line. Members without a phone are skipped.
func ContactBundle(members []models.Member) []byte {
	var buf bytes.Buffer

	for _, m := range members {
		if !m.HasPhone() {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(ContactCard(m))
	}

	if buf.Len() > 0 {
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// CountContacts returns how many members would appear in the bundle.
func CountContacts(members []models.Member) int {
	count := 0
	for _, m := range members {
		if m.HasPhone() {
			count++
		}
	}
	return count
}
