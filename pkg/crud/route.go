package crud

import (
	"net/url"
	"strings"
)

// FillRoute replaces every :name placeholder in route with the matching
// parameter. Placeholders without a parameter are left as they are.
func FillRoute(route string, params Params) string {
	filled, _ := substitute(route, params)

	return filled
}

// ConsumeRoute works like FillRoute but removes from params every entry
// whose placeholder occurred in the route, leaving only the parameters
// that still have to be sent with the request.
func ConsumeRoute(route string, params Params) string {
	filled, used := substitute(route, params)

	for _, name := range used {
		delete(params, name)
	}

	return filled
}

// Placeholders lists the :name tokens still present in route.
func Placeholders(route string) []string {
	var names []string

	for i := 0; i < len(route); i++ {
		if route[i] != ':' {
			continue
		}

		j := i + 1
		for j < len(route) && isNameByte(route[j]) {
			j++
		}

		// Skip scheme separators and ports such as "https://" or ":8080".
		if j > i+1 && !isDigit(route[i+1]) {
			names = append(names, route[i+1:j])
		}

		i = j - 1
	}

	return names
}

// substitute scans route once. A token is the longest run of name bytes
// after a colon, so :id never matches inside :idx, and substituted values
// are not scanned again.
func substitute(route string, params Params) (string, []string) {
	var (
		b    strings.Builder
		used []string
	)

	for i := 0; i < len(route); {
		if route[i] != ':' {
			b.WriteByte(route[i])
			i++

			continue
		}

		j := i + 1
		for j < len(route) && isNameByte(route[j]) {
			j++
		}

		name := route[i+1 : j]
		if value, ok := params[name]; ok && name != "" {
			b.WriteString(url.PathEscape(value))
			used = append(used, name)
		} else {
			b.WriteString(route[i:j])
		}

		i = j
	}

	return b.String(), used
}

func isNameByte(c byte) bool {
	return c == '_' || isDigit(c) || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
