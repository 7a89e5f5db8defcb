// Package policy builds and holds the immutable, fully-merged routing
// policy that the request pipeline consumes for the lifetime of the
// process. Nothing in this package mutates a Policy after New returns
// it.
package policy

import (
	"msaada/internal/config"
	"msaada/internal/rewrite"
)

// HeaderRule is a compiled response-header injection rule.
type HeaderRule struct {
	Pattern rewrite.Compiled
	Headers []config.HeaderEntry
}

// Redirect is a compiled redirect rule.
type Redirect struct {
	Pattern     rewrite.Compiled
	Destination string
	Status      int
}

// CLIOverrides carries the boolean flags CLI flags contribute to the
// merge, per spec.md §4.4 and §9's builder-style merge recommendation.
type CLIOverrides struct {
	RenderSingle       bool
	Symlinks           bool
	NoEtag             bool
	CORSEnabled        bool
	CompressionEnabled bool
}

// Policy is the effective, immutable routing policy: config file
// settings merged with CLI overrides, with all patterns pre-compiled.
type Policy struct {
	PublicRoot         string
	Rewrites           []rewrite.Compiled
	Redirects          []Redirect
	ResponseHeaders    []HeaderRule
	Unlisted           []string
	CleanURLs          bool
	TrailingSlash      bool
	DirectoryListing   bool
	RenderSingle       bool
	Symlinks           bool
	Etag               bool
	CompressionEnabled bool
	CORSEnabled        bool
}

// New merges a loaded Configuration, its resolved public root, and CLI
// overrides into an immutable Policy. CLI booleans for RenderSingle and
// Symlinks are OR-ed with the config file's; Etag is ANDed with the
// negation of --no-etag; CompressionEnabled and CORSEnabled come from
// the CLI alone; everything else passes through from config.
func New(cfg config.Configuration, publicRoot string, cli CLIOverrides) (*Policy, error) {
	rewrites, err := rewrite.CompileAll(toRewriteRules(cfg.Rewrites))
	if err != nil {
		return nil, err
	}

	redirects := make([]Redirect, 0, len(cfg.Redirects))
	for _, r := range cfg.Redirects {
		c, err := rewrite.Compile(r.Source, r.Destination)
		if err != nil {
			return nil, err
		}
		redirects = append(redirects, Redirect{Pattern: c, Destination: r.Destination, Status: r.Type})
	}

	headerRules := make([]HeaderRule, 0, len(cfg.Headers))
	for _, h := range cfg.Headers {
		c, err := rewrite.Compile(h.Source, h.Source)
		if err != nil {
			return nil, err
		}
		headerRules = append(headerRules, HeaderRule{Pattern: c, Headers: h.Headers})
	}

	directoryListing := true
	if cfg.DirectoryListing != nil {
		directoryListing = *cfg.DirectoryListing
	}
	etag := true
	if cfg.Etag != nil {
		etag = *cfg.Etag
	}
	etag = etag && !cli.NoEtag

	return &Policy{
		PublicRoot:         publicRoot,
		Rewrites:           rewrites,
		Redirects:          redirects,
		ResponseHeaders:    headerRules,
		Unlisted:           append([]string(nil), cfg.Unlisted...),
		CleanURLs:          cfg.CleanURLs,
		TrailingSlash:      cfg.TrailingSlash,
		DirectoryListing:   directoryListing,
		RenderSingle:       cfg.RenderSingle || cli.RenderSingle,
		Symlinks:           cfg.Symlinks || cli.Symlinks,
		Etag:               etag,
		CompressionEnabled: cli.CompressionEnabled,
		CORSEnabled:        cli.CORSEnabled,
	}, nil
}

func toRewriteRules(rewrites []config.Rewrite) []rewrite.Rule {
	out := make([]rewrite.Rule, 0, len(rewrites))
	for _, r := range rewrites {
		out = append(out, rewrite.Rule{Source: r.Source, Destination: r.Destination})
	}
	return out
}
