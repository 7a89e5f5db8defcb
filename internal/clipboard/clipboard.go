// Package clipboard implements the concrete adapter for msaada's
// out-of-scope "clipboard adapter" collaborator: copying the effective
// server URL to the OS clipboard. Failure here is always a warning, not
// a fatal error.
package clipboard

import "github.com/atotto/clipboard"

// Copier copies text to the OS clipboard.
type Copier interface {
	Copy(text string) error
}

// System is the production Copier, backed by atotto/clipboard.
type System struct{}

// Copy writes text to the OS clipboard.
func (System) Copy(text string) error {
	return clipboard.WriteAll(text)
}

// Noop is a Copier that does nothing.
type Noop struct{}

// Copy is a no-op.
func (Noop) Copy(string) error { return nil }
