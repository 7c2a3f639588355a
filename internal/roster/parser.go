package roster

import "strings"

// ParseLine tokenizes one CSV line into trimmed fields.
//
// Double-quoted fields may contain commas; a doubled quote ("") inside a
// quoted field becomes a literal quote. Consecutive delimiters produce empty
// fields. Quoting balance is not validated: an unterminated quote consumes
// the remainder of the line as a single field, matching the spreadsheet
// export this feed comes from.
func ParseLine(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes {
				if i+1 < len(line) && line[i+1] == '"' {
					cur.WriteByte('"')
					i++
				} else {
					inQuotes = false
				}
			} else {
				inQuotes = true
			}
		case ch == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}

	fields = append(fields, strings.TrimSpace(cur.String()))
	return fields
}

// Parse splits a CSV document into rows of trimmed fields, dropping lines
// that are empty after trimming.
func Parse(data []byte) [][]string {
	var rows [][]string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, ParseLine(line))
	}
	return rows
}
