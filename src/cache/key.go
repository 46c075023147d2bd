package cache

import (
	"net/url"
	"sort"
	"strings"
)

// Key is the canonical identity of a client construction call. Two calls with
// the same effective parameters produce equal Keys no matter how the
// parameters were ordered, and comparison is exact string equality rather
// than a hash.
type Key string

// NewKey derives a Key from a service name and its construction parameters.
func NewKey(service string, params map[string]string) Key {
	if len(params) == 0 {
		return Key(service)
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var builder strings.Builder
	builder.WriteString(service)
	for i, name := range names {
		if i == 0 {
			builder.WriteByte('?')
		} else {
			builder.WriteByte('&')
		}
		builder.WriteString(url.QueryEscape(name))
		builder.WriteByte('=')
		builder.WriteString(url.QueryEscape(params[name]))
	}
	return Key(builder.String())
}
