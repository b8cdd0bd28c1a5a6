package model

import (
	"net/url"
	"sort"
	"strings"
)

// EncodeMetadata flattens a metadata map into one ;-joined string of
// key=value pairs, keys sorted, both sides query-escaped. DecodeMetadata
// inverts it exactly; the pair backs the metadata column in both the CSV
// export and the SQLite store.
func EncodeMetadata(md map[string]string) string {
	if len(md) == 0 {
		return ""
	}
	keys := make([]string, 0, len(md))
	for k := range md {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(md[k]))
	}
	return strings.Join(parts, ";")
}

// DecodeMetadata parses an EncodeMetadata string. Malformed pairs are
// dropped; an empty result decodes to nil.
func DecodeMetadata(s string) map[string]string {
	md := make(map[string]string)
	for _, part := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		ku, err1 := url.QueryUnescape(k)
		vu, err2 := url.QueryUnescape(v)
		if err1 != nil || err2 != nil {
			continue
		}
		md[ku] = vu
	}
	if len(md) == 0 {
		return nil
	}
	return md
}
