package csvmap

import "strings"

// DetectSeparator picks ';' or ',' for a sample line. Semicolons win ties;
// an empty sample yields ','.
func DetectSeparator(sample string) string {
	if sample == "" {
		return ","
	}
	if strings.Count(sample, ";") >= strings.Count(sample, ",") {
		return ";"
	}
	return ","
}

// SplitLine splits line on sep wherever the rest of the line after the
// separator holds an even number of double quotes. Fields wrapped in a pair of
// quotes lose those two characters; interior quotes are kept verbatim.
// Trailing empty fields are preserved and at least one field is returned.
//
// Lines with an odd number of quotes split wherever the balance happens to be
// even, which is wrong for malformed quoting; no attempt is made to repair it.
func SplitLine(line, sep string) []string {
	if sep == "" {
		return []string{unquote(line)}
	}

	// remaining counts the quotes from the scan position to end of line.
	remaining := strings.Count(line, `"`)
	sepQuotes := strings.Count(sep, `"`)

	fields := make([]string, 0, strings.Count(line, sep)+1)
	start := 0
	for i := 0; i < len(line); {
		if strings.HasPrefix(line[i:], sep) && (remaining-sepQuotes)%2 == 0 {
			fields = append(fields, unquote(line[start:i]))
			remaining -= sepQuotes
			i += len(sep)
			start = i
			continue
		}
		if line[i] == '"' {
			remaining--
		}
		i++
	}
	return append(fields, unquote(line[start:]))
}

func unquote(field string) string {
	if len(field) >= 2 && field[0] == '"' && field[len(field)-1] == '"' {
		return field[1 : len(field)-1]
	}
	return field
}
