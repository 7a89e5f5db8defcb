// Package config loads msaada's JSON configuration from one of three
// recognized file shapes and validates it before it is merged with CLI
// flags into an effective policy.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// HeaderEntry is a single response header to inject.
type HeaderEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// HeaderRule associates a source pattern with headers to add to any
// response whose path matches it.
type HeaderRule struct {
	Source  string        `json:"source"`
	Headers []HeaderEntry `json:"headers"`
}

// Rewrite is a single rewrite rule as read from the config file.
type Rewrite struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// Redirect is a single redirect rule as read from the config file.
type Redirect struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Type        int    `json:"type"`
}

// Configuration is the wire shape of msaada's config file, independent
// of which of the three recognized JSON shapes it was found in.
type Configuration struct {
	Public           string       `json:"public"`
	CleanURLs        bool         `json:"cleanUrls"`
	Rewrites         []Rewrite    `json:"rewrites"`
	Redirects        []Redirect   `json:"redirects"`
	Headers          []HeaderRule `json:"headers"`
	DirectoryListing *bool        `json:"directoryListing"`
	Unlisted         []string     `json:"unlisted"`
	TrailingSlash    bool         `json:"trailingSlash"`
	RenderSingle     bool         `json:"renderSingle"`
	Symlinks         bool         `json:"symlinks"`
	Etag             *bool        `json:"etag"`
}

// Default returns a Configuration with spec-mandated defaults applied:
// directoryListing and etag default true unless the file overrides them.
func Default() Configuration {
	t := true
	return Configuration{
		DirectoryListing: &t,
		Etag:             &t,
	}
}

// Error is a typed configuration error; one variant per failure kind in
// spec.md's error taxonomy.
type Error struct {
	Kind    ErrorKind
	Message string
}

// ErrorKind classifies a configuration error.
type ErrorKind int

const (
	// KindFileNotFound indicates an explicitly named config file is missing.
	KindFileNotFound ErrorKind = iota
	// KindParseError indicates malformed JSON.
	KindParseError
	// KindValidationError indicates well-formed JSON that fails validation.
	KindValidationError
	// KindIOError indicates a filesystem error unrelated to absence.
	KindIOError
)

func (e *Error) Error() string { return e.Message }

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// nowWrapper is the shape now.json wraps a Configuration in.
type nowWrapper struct {
	Now struct {
		Static Configuration `json:"static"`
	} `json:"now"`
}

// packageWrapper is the shape package.json wraps a Configuration in.
type packageWrapper struct {
	Static Configuration `json:"static"`
}

// candidateFile names the three recognized config filenames, in search
// order, and whether using it should emit a deprecation warning.
type candidateFile struct {
	name       string
	deprecated bool
	unwrap     func([]byte) (Configuration, error)
}

func candidates() []candidateFile {
	return []candidateFile{
		{name: "serve.json", unwrap: unwrapFlat},
		{name: "now.json", deprecated: true, unwrap: unwrapNow},
		{name: "package.json", deprecated: true, unwrap: unwrapPackage},
	}
}

func unwrapFlat(data []byte) (Configuration, error) {
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Configuration{}, err
	}
	return cfg, nil
}

func unwrapNow(data []byte) (Configuration, error) {
	w := struct {
		Now struct {
			Static json.RawMessage `json:"static"`
		} `json:"now"`
	}{}
	if err := json.Unmarshal(data, &w); err != nil {
		return Configuration{}, err
	}
	cfg := Default()
	if len(w.Now.Static) > 0 {
		if err := json.Unmarshal(w.Now.Static, &cfg); err != nil {
			return Configuration{}, err
		}
	}
	return cfg, nil
}

func unwrapPackage(data []byte) (Configuration, error) {
	w := struct {
		Static json.RawMessage `json:"static"`
	}{}
	if err := json.Unmarshal(data, &w); err != nil {
		return Configuration{}, err
	}
	cfg := Default()
	if len(w.Static) > 0 {
		if err := json.Unmarshal(w.Static, &cfg); err != nil {
			return Configuration{}, err
		}
	}
	return cfg, nil
}

// Load searches serveDir for a configuration file. If explicitPath is
// non-empty, only that file is tried and its absence is a FileNotFound
// error. Otherwise the three recognized shapes are tried in order;
// the first one found is loaded and the rest are ignored.
func Load(logger *slog.Logger, serveDir, explicitPath string) (Configuration, string, error) {
	if explicitPath != "" {
		data, err := os.ReadFile(explicitPath)
		if err != nil {
			if os.IsNotExist(err) {
				return Configuration{}, "", newError(KindFileNotFound, "config file not found: %s", explicitPath)
			}
			return Configuration{}, "", newError(KindIOError, "reading config file %s: %v", explicitPath, err)
		}
		cfg, err := unwrapFlat(data)
		if err != nil {
			return Configuration{}, "", newError(KindParseError, "parsing %s: %v", explicitPath, err)
		}
		return cfg, explicitPath, nil
	}

	for _, cand := range candidates() {
		path := filepath.Join(serveDir, cand.name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Configuration{}, "", newError(KindIOError, "reading %s: %v", path, err)
		}
		if cand.deprecated {
			logger.Warn("config file format is deprecated, prefer serve.json", "file", cand.name)
		}
		cfg, err := cand.unwrap(data)
		if err != nil {
			return Configuration{}, "", newError(KindParseError, "parsing %s: %v", path, err)
		}
		return cfg, path, nil
	}

	// No config file present is not an error: msaada runs with defaults.
	return Default(), "", nil
}

// ResolvePublic resolves the configuration's public directory relative
// to serveDir, defaulting to serveDir itself when unset. Absolute paths
// are kept as-is.
func ResolvePublic(cfg Configuration, serveDir string) string {
	if cfg.Public == "" {
		return serveDir
	}
	if filepath.IsAbs(cfg.Public) {
		return cfg.Public
	}
	return filepath.Join(serveDir, cfg.Public)
}

// Validate checks the invariants spec.md requires before a Configuration
// can be merged into a policy.
func Validate(cfg Configuration, publicPath string) error {
	info, err := os.Stat(publicPath)
	if err != nil {
		if os.IsNotExist(err) {
			return newError(KindValidationError, "public directory does not exist: %s", publicPath)
		}
		return newError(KindIOError, "stat %s: %v", publicPath, err)
	}
	if !info.IsDir() {
		return newError(KindValidationError, "public path is not a directory: %s", publicPath)
	}

	for _, rw := range cfg.Rewrites {
		if rw.Source == "" || rw.Destination == "" {
			return newError(KindValidationError, "rewrite has empty source or destination: %+v", rw)
		}
	}
	for _, rd := range cfg.Redirects {
		if rd.Source == "" || rd.Destination == "" {
			return newError(KindValidationError, "redirect has empty source or destination: %+v", rd)
		}
		if rd.Type < 300 || rd.Type >= 400 {
			return newError(KindValidationError, "redirect type %d out of range [300, 400): %s -> %s", rd.Type, rd.Source, rd.Destination)
		}
	}
	return nil
}
