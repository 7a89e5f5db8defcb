// Package staticserve implements the static file resolution state
// machine: rewrite, normalize, open, clean-URL/index fallback, caching
// headers, and directory-listing filtering.
package staticserve

import (
	"errors"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"msaada/internal/pathsafe"
	"msaada/internal/policy"
	"msaada/internal/rewrite"
)

// Resolver serves files out of a policy's public root, applying
// rewrites and clean-URL/index fallbacks before giving up.
type Resolver struct {
	policy   *policy.Policy
	resolver *pathsafe.Resolver
}

// NewResolver builds a Resolver over the given policy.
func NewResolver(p *policy.Policy) *Resolver {
	return &Resolver{
		policy:   p,
		resolver: pathsafe.NewResolver(p.PublicRoot, p.Symlinks),
	}
}

// NotFoundError indicates no file could be resolved for the request
// path and no fallback applied.
type NotFoundError struct{ Path string }

func (e *NotFoundError) Error() string { return "not found: " + e.Path }

// ForbiddenError indicates the resolved path escaped the sandbox or was
// denied by the OS.
type ForbiddenError struct{ Path string }

func (e *ForbiddenError) Error() string { return "forbidden: " + e.Path }

// Resolve runs the state machine from spec.md §4.5 for a single request
// path (leading `/` present) and returns the open file plus its
// filesystem path, or a *NotFoundError/*ForbiddenError.
func (s *Resolver) Resolve(requestPath string) (*os.File, string, error) {
	effective := requestPath
	if dest, err := rewrite.Match(requestPath, s.policy.Rewrites); err == nil {
		effective = dest
	}

	if f, fp, err := s.tryOpen(effective); err == nil {
		return f, fp, nil
	} else if isForbidden(err) {
		return nil, "", &ForbiddenError{Path: requestPath}
	}

	if s.policy.CleanURLs && !strings.HasSuffix(effective, ".html") && !strings.HasSuffix(effective, "/") {
		if f, fp, err := s.tryOpen(effective + ".html"); err == nil {
			return f, fp, nil
		} else if isForbidden(err) {
			return nil, "", &ForbiddenError{Path: requestPath}
		}
	}

	indexPath := strings.TrimSuffix(effective, "/") + "/index.html"
	if f, fp, err := s.tryOpen(indexPath); err == nil {
		return f, fp, nil
	} else if isForbidden(err) {
		return nil, "", &ForbiddenError{Path: requestPath}
	}

	return nil, "", &NotFoundError{Path: requestPath}
}

func (s *Resolver) tryOpen(requestPath string) (*os.File, string, error) {
	fp, err := s.resolver.Resolve(requestPath)
	if err != nil {
		return nil, "", &ForbiddenError{Path: requestPath}
	}
	f, err := os.Open(fp)
	if err != nil {
		if os.IsPermission(err) {
			return nil, "", &ForbiddenError{Path: requestPath}
		}
		return nil, "", err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, "", err
	}
	if info.IsDir() {
		f.Close()
		return nil, "", os.ErrNotExist
	}
	return f, fp, nil
}

func isForbidden(err error) bool {
	var f *ForbiddenError
	return errors.As(err, &f)
}

// ApplyCacheHeaders sets ETag or Last-Modified on w according to the
// policy's etag flag, never both.
func ApplyCacheHeaders(w http.ResponseWriter, info os.FileInfo, etagEnabled bool) {
	if etagEnabled {
		w.Header().Set("ETag", computeEtag(info))
		return
	}
	w.Header().Set("Last-Modified", info.ModTime().UTC().Format(http.TimeFormat))
}

func computeEtag(info os.FileInfo) string {
	return `"` + strings.ReplaceAll(path.Base(info.Name()), `"`, "") + "-" +
		info.ModTime().UTC().Format("20060102150405") + `"`
}

// MatchingHeaders returns the response headers to add for requestPath
// per the policy's header rules, in rule order.
func MatchingHeaders(p *policy.Policy, requestPath string) []policy.HeaderRule {
	var matched []policy.HeaderRule
	for _, rule := range p.ResponseHeaders {
		if rule.Pattern.Pattern.MatchString(requestPath) {
			matched = append(matched, rule)
		}
	}
	return matched
}

// DirEntry is a single filtered directory-listing entry.
type DirEntry struct {
	Name  string
	IsDir bool
}

// ListDirectory returns the visible entries of dir, alphabetically
// sorted, filtering out anything matching the policy's unlisted globs.
func ListDirectory(p *policy.Policy, dir string) ([]DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		if isUnlisted(p.Unlisted, e.Name()) {
			continue
		}
		out = append(out, DirEntry{Name: e.Name(), IsDir: e.IsDir()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func isUnlisted(patterns []string, name string) bool {
	for _, pat := range patterns {
		if ok, err := filepath.Match(pat, name); err == nil && ok {
			return true
		}
	}
	return false
}
