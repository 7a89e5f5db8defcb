// Package tlsconfig loads TLS certificate material for msaada's HTTPS
// listener. Only PEM is supported: no PKCS12 library exists anywhere in
// the example pack this project is grounded on, so this package is
// implemented on the standard library rather than left unimplemented.
package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// Error reports a certificate/key loading failure at startup.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// Load builds a *tls.Config from a PEM certificate and key. If
// passphrasePath is non-empty, the passphrase file must be readable and
// non-empty and the key must be an unencrypted PKCS#8 key; encrypted
// keys are not decrypted and are rejected with an *Error.
func Load(certPath, keyPath, passphrasePath string) (*tls.Config, error) {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("reading TLS certificate %s: %v", certPath, err)}
	}
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("reading TLS key %s: %v", keyPath, err)}
	}

	if passphrasePath != "" {
		keyPEM, err = decryptKey(keyPEM, passphrasePath)
		if err != nil {
			return nil, err
		}
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("loading TLS key pair: %v", err)}
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// decryptKey checks keyPEM when a passphrase file is given: an
// unencrypted PKCS#8 key is returned unchanged, anything else is an
// error. No decryption takes place. Go's crypto/x509 dropped DecryptPEMBlock in favor of PKCS#8, so
// encrypted legacy PEM keys (the format --ssl-pass implies) are
// unsupported here beyond reporting a clear configuration error — the
// escape hatch is to supply an unencrypted key.
func decryptKey(keyPEM []byte, passphrasePath string) ([]byte, error) {
	passphrase, err := os.ReadFile(passphrasePath)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("reading TLS passphrase %s: %v", passphrasePath, err)}
	}
	if len(passphrase) == 0 {
		return nil, &Error{Message: "TLS passphrase file is empty"}
	}

	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, &Error{Message: "no PEM block found in TLS key file"}
	}
	if _, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		// Already unencrypted PKCS#8; passphrase is unnecessary but not
		// an error.
		return keyPEM, nil
	}

	return nil, &Error{Message: "encrypted PEM private keys are not supported; provide an unencrypted key (PKCS#8) instead of --ssl-pass"}
}
