package rewrite

import (
	"regexp"
	"strconv"
	"strings"
)

// NoMatchError reports that no compiled rule matched a path. It carries
// the path so callers can format a useful diagnostic without the
// matcher logging on their behalf.
type NoMatchError struct {
	Path string
}

func (e *NoMatchError) Error() string {
	return "no rewrite rule matches path " + e.Path
}

// Match scans rules in order and returns the destination of the first
// rule whose pattern matches path, with substitution applied. First
// match wins; rule order is significant and is never reordered by
// specificity.
func Match(path string, rules []Compiled) (string, error) {
	for _, rule := range rules {
		indices := rule.Pattern.FindStringSubmatchIndex(path)
		if indices == nil {
			continue
		}
		if !rule.NeedsSubstitution {
			return rule.Destination, nil
		}
		return substitute(rule.Pattern, path, indices, rule.Destination), nil
	}
	return "", &NoMatchError{Path: path}
}

// substitute performs a single left-to-right pass over the destination
// template, replacing $N, ${N} and :name references with the
// corresponding capture from indices. A $N or ${N} reference to a group
// that doesn't exist or didn't participate in the match expands to the
// empty string. A :name with no matching named group, or whose group
// didn't participate, is left in the output literally rather than
// erroring: msaada treats an unmatched name as author intent, not a
// rewrite failure.
func substitute(pattern *regexp.Regexp, path string, indices []int, dest string) string {
	names := pattern.SubexpNames()
	nameIndex := make(map[string]int, len(names))
	for i, n := range names {
		if n != "" {
			nameIndex[n] = i
		}
	}

	group := func(n int) (string, bool) {
		if n*2+1 >= len(indices) {
			return "", false
		}
		start, end := indices[n*2], indices[n*2+1]
		if start < 0 || end < 0 {
			return "", false
		}
		return path[start:end], true
	}

	var out strings.Builder
	i := 0
	for i < len(dest) {
		ch := dest[i]
		switch {
		case ch == '$' && i+1 < len(dest) && dest[i+1] == '{':
			end := strings.IndexByte(dest[i+2:], '}')
			if end < 0 {
				out.WriteByte(ch)
				i++
				continue
			}
			numStr := dest[i+2 : i+2+end]
			if n, err := strconv.Atoi(numStr); err == nil {
				if val, ok := group(n); ok {
					out.WriteString(val)
				}
				i += 2 + end + 1
				continue
			}
			out.WriteByte(ch)
			i++
		case ch == '$' && i+1 < len(dest) && isDigit(dest[i+1]):
			j := i + 1
			for j < len(dest) && isDigit(dest[j]) {
				j++
			}
			n, _ := strconv.Atoi(dest[i+1 : j])
			if val, ok := group(n); ok {
				out.WriteString(val)
			}
			i = j
		case ch == ':':
			j := i + 1
			for j < len(dest) && isNameByte(dest[j]) {
				j++
			}
			name := dest[i+1 : j]
			if name == "" {
				out.WriteByte(ch)
				i++
				continue
			}
			if idx, ok := nameIndex[name]; ok {
				if val, ok := group(idx); ok {
					out.WriteString(val)
					i = j
					continue
				}
			}
			// Unmatched :name: left literal in the output.
			out.WriteString(dest[i:j])
			i = j
		default:
			out.WriteByte(ch)
			i++
		}
	}
	return out.String()
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isNameByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
