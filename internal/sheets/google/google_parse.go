package google

import (
	"strings"

	gsheet "google.golang.org/api/sheets/v4"

	ports "billreminder/internal/sheets"
)

// quoteSheet wraps a sheet name in single quotes when A1 notation needs it.
func quoteSheet(name string) string {
	if strings.ContainsAny(name, " '!:") {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}

// lastColumn is the A1 letter of the final ledger column.
func lastColumn() string {
	return columnLetter(len(ports.Columns))
}

// columnLetter converts a 1-based column index to A1 letters.
func columnLetter(n int) string {
	var out []byte
	for n > 0 {
		n--
		out = append([]byte{byte('A' + n%26)}, out...)
		n /= 26
	}
	return string(out)
}

func updatedRange(resp *gsheet.AppendValuesResponse) string {
	if resp == nil || resp.Updates == nil {
		return ""
	}
	return resp.Updates.UpdatedRange
}
