package cache

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Key derives a cache key from a request path and its query parameters.
// Parameter order does not matter and values are trimmed.
func Key(path string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)

	d := xxhash.New()
	_, _ = d.WriteString(strings.TrimSpace(path))
	for _, k := range names {
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(k)
		_, _ = d.WriteString("=")
		_, _ = d.WriteString(strings.TrimSpace(params[k]))
	}
	return slug(path) + "-" + strconv.FormatUint(d.Sum64(), 16)
}

// slug keeps the filename readable by prefixing the sanitised path.
func slug(path string) string {
	var b strings.Builder
	for _, r := range strings.Trim(path, "/") {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "root"
	}
	return b.String()
}
