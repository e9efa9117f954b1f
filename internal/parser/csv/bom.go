package csv

import "strings"

const (
	utf8BOM = "\uFEFF"

	// cp1252BOM is a UTF-8 BOM after it has been decoded as Windows-1252.
	cp1252BOM = "\u00ef\u00bb\u00bf"
)

// StripHeaderBOM removes a byte order mark from the first header cell if
// present, in either its UTF-8 or its cp1252-decoded form.
func StripHeaderBOM(headers []string) []string {
	if len(headers) == 0 {
		return headers
	}
	h := headers[0]
	h = strings.TrimPrefix(h, utf8BOM)
	h = strings.TrimPrefix(h, cp1252BOM)
	headers[0] = h
	return headers
}
