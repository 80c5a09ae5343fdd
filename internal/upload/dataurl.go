package upload

import (
	"encoding/base64"
	"regexp"
	"strings"
)

var dataURLPattern = regexp.MustCompile(`^data:(.+?);base64,(.+)$`)

// decodeDataURL splits a base64 data URL into its media type and payload
func decodeDataURL(dataURL string) (string, []byte, error) {
	m := dataURLPattern.FindStringSubmatch(dataURL)
	if m == nil {
		return "", nil, ErrInvalidDataURL
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(m[2]))
	if err != nil {
		return "", nil, ErrInvalidDataURL
	}

	return m[1], data, nil
}

// extension returns the lower-cased alphanumeric suffix after the last dot
// of filename, or png
func extension(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return defaultExtension
	}

	var b strings.Builder
	for _, r := range strings.ToLower(filename[i+1:]) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return defaultExtension
	}
	return b.String()
}
