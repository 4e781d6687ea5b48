package catalog

import "strings"

// SplitCSVLine splits one feed line on commas outside double quotes. Quote characters only
// toggle the quoted state and never reach the output; doubled quotes are not unescaped.
func SplitCSVLine(line string) []string {
	fields := make([]string, 0, 4)
	var current strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}

	return append(fields, current.String())
}
