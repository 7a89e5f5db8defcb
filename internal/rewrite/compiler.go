// Package rewrite compiles msaada's glob/regex hybrid pattern language
// (source patterns à la Vercel's `serve`) into anchored regular
// expressions and matches request paths against the compiled rule set.
package rewrite

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule is a single rewrite rule as read from configuration, before
// compilation.
type Rule struct {
	Source      string
	Destination string
}

// Compiled is a rewrite rule after startup compilation: it owns the
// compiled regex and knows whether its destination needs substitution.
type Compiled struct {
	Source            string
	Destination       string
	Pattern           *regexp.Regexp
	NeedsSubstitution bool
}

// InvalidPatternError reports a source pattern that failed to compile.
type InvalidPatternError struct {
	Source string
	Reason string
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid rewrite pattern %q: %s", e.Source, e.Reason)
}

var substitutionRef = regexp.MustCompile(`\$\{?\d+\}?|:[A-Za-z0-9_]+`)

// Compile translates a single source pattern into an anchored regular
// expression and classifies the destination template.
func Compile(source, destination string) (Compiled, error) {
	if source == "" || destination == "" {
		return Compiled{}, &InvalidPatternError{Source: source, Reason: "source and destination must be non-empty"}
	}

	pat, err := patternToRegex(source)
	if err != nil {
		return Compiled{}, &InvalidPatternError{Source: source, Reason: err.Error()}
	}

	re, err := regexp.Compile(pat)
	if err != nil {
		return Compiled{}, &InvalidPatternError{Source: source, Reason: err.Error()}
	}

	return Compiled{
		Source:            source,
		Destination:       destination,
		Pattern:           re,
		NeedsSubstitution: substitutionRef.MatchString(destination),
	}, nil
}

// CompileAll compiles an ordered list of rules, stopping at the first
// invalid pattern (per spec: a single invalid pattern aborts startup).
func CompileAll(rules []Rule) ([]Compiled, error) {
	out := make([]Compiled, 0, len(rules))
	for _, r := range rules {
		c, err := Compile(r.Source, r.Destination)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// patternToRegex implements the pattern grammar from spec.md §4.1:
// exact matches, :name named parameters, {…} optional groups and brace
// expansion, */**/? globs, and regex passthrough for patterns that
// already look like regular expressions.
func patternToRegex(pattern string) (string, error) {
	// The literal double-star catch-all.
	if pattern == "**" {
		return "^.*$", nil
	}

	// Regex passthrough: patterns with capture groups that look like
	// `.*`-style regex bodies are accepted mostly as-is, just anchored.
	if looksLikeRegex(pattern) {
		cleaned := strings.TrimPrefix(pattern, "^")
		cleaned = strings.TrimSuffix(cleaned, "$")
		if _, err := regexp.Compile(cleaned); err != nil {
			return "", err
		}
		return "^" + cleaned + "$", nil
	}

	var b strings.Builder
	b.WriteByte('^')

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == ':':
			name := consumeParamName(runes[i+1:])
			if name == "" {
				return "", fmt.Errorf("empty parameter name after ':' at position %d", i)
			}
			b.WriteString(fmt.Sprintf("(?P<%s>[^/]+)", name))
			i += len(name)
		case ch == '{':
			end := matchingBrace(runes, i)
			if end < 0 {
				return "", fmt.Errorf("unterminated '{' at position %d", i)
			}
			inner := string(runes[i+1 : end])
			expanded, err := compileBraceGroup(inner)
			if err != nil {
				return "", err
			}
			b.WriteString(expanded)
			i = end
		case ch == '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				// "**/" at pattern start: optional leading directory prefix.
				if i == 0 && i+2 < len(runes) && runes[i+2] == '/' {
					b.WriteString("(?:.*/)?")
					i += 2
					continue
				}
				// "**/" elsewhere: zero or more path components.
				if i+2 < len(runes) && runes[i+2] == '/' {
					b.WriteString("(?:.*/)?")
					i += 2
					continue
				}
				b.WriteString(".*")
				i++
			} else {
				b.WriteString("[^/]*")
			}
		case ch == '?':
			b.WriteString("[^/]")
		case strings.ContainsRune(`.+()|[]{}^$\`, ch):
			b.WriteByte('\\')
			b.WriteRune(ch)
		default:
			b.WriteRune(ch)
		}
	}

	b.WriteByte('$')
	out := b.String()
	if _, err := regexp.Compile(out); err != nil {
		return "", err
	}
	return out, nil
}

// looksLikeRegex reports whether the pattern should be treated as a
// regex body to anchor, rather than a glob to translate: it contains a
// parenthesized group together with `.*` or a backslash escape. Brace
// and colon syntax in such a pattern is not checked and is passed to the
// regex engine as-is.
func looksLikeRegex(pattern string) bool {
	if !strings.Contains(pattern, "(") {
		return false
	}
	if strings.Contains(pattern, ".*") || strings.Contains(pattern, `\`) {
		return true
	}
	return false
}

// consumeParamName reads a :name capture's identifier: the run of
// alphanumeric or underscore characters; any other character ends it.
func consumeParamName(rest []rune) string {
	i := 0
	for i < len(rest) {
		ch := rest[i]
		if ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			i++
			continue
		}
		break
	}
	return string(rest[:i])
}

func matchingBrace(runes []rune, open int) int {
	depth := 0
	for i := open; i < len(runes); i++ {
		switch runes[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// compileBraceGroup implements both uses of `{ … }`: a comma-separated
// list with no `:` is brace expansion (`{jpg,png,gif}` -> alternation);
// anything else is an optional non-capturing group.
func compileBraceGroup(inner string) (string, error) {
	if inner == "" {
		return "", fmt.Errorf("empty '{}' group")
	}
	if strings.Contains(inner, ",") && !strings.Contains(inner, ":") {
		parts := strings.Split(inner, ",")
		for i, p := range parts {
			parts[i] = regexp.QuoteMeta(p)
		}
		return "(?:" + strings.Join(parts, "|") + ")", nil
	}

	// Optional group: recursively translate the inner pattern fragment
	// as glob syntax, then wrap as non-capturing + optional.
	innerCompiled, err := patternToRegex(inner)
	if err != nil {
		return "", err
	}
	// patternToRegex anchors with ^...$; strip those before nesting.
	innerCompiled = strings.TrimPrefix(innerCompiled, "^")
	innerCompiled = strings.TrimSuffix(innerCompiled, "$")
	return "(?:" + innerCompiled + ")?", nil
}
