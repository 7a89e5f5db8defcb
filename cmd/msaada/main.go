// Command msaada is a local-development HTTP(S) file server: it serves
// a directory with optional TLS, a declarative routing layer, a
// POST-echo test endpoint, and operator niceties (port reselection,
// clipboard copy, graceful shutdown, colorized logs).
package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"msaada/internal/clipboard"
	"msaada/internal/config"
	"msaada/internal/initassets"
	"msaada/internal/logging"
	"msaada/internal/netutil"
	"msaada/internal/policy"
	"msaada/internal/server"
	"msaada/internal/tlsconfig"
)

const version = "1.0.0"

type flags struct {
	port             uint16
	dir              string
	initProject      bool
	test             bool
	configPath       string
	noRequestLogging bool
	noTimestamps     bool
	cors             bool
	noCompression    bool
	single           bool
	sslCert          string
	sslKey           string
	sslPass          string
	noClipboard      bool
	noPortSwitching  bool
	symlinks         bool
	noEtag           bool
	debug            bool
}

func main() {
	f := &flags{}

	root := &cobra.Command{
		Use:   "msaada",
		Short: "A local-development HTTP(S) file server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f)
		},
	}

	root.Flags().Uint16Var(&f.port, "port", 3000, "port to listen on")
	root.Flags().StringVar(&f.dir, "dir", ".", "directory to serve")
	root.Flags().BoolVar(&f.initProject, "init", false, "materialize starter index.html/style.css/main.js if absent")
	root.Flags().BoolVar(&f.test, "test", false, "mount the self-test endpoint")
	root.Flags().StringVar(&f.configPath, "config", "", "explicit config file path")
	root.Flags().BoolVar(&f.noRequestLogging, "no-request-logging", false, "suppress per-request log lines")
	root.Flags().BoolVar(&f.noTimestamps, "no-timestamps", false, "omit timestamp prefix from logs")
	root.Flags().BoolVar(&f.cors, "cors", false, "enable permissive CORS")
	root.Flags().BoolVar(&f.noCompression, "no-compression", false, "disable response compression")
	root.Flags().BoolVar(&f.single, "single", false, "enable SPA fallback")
	root.Flags().StringVar(&f.sslCert, "ssl-cert", "", "TLS certificate file")
	root.Flags().StringVar(&f.sslKey, "ssl-key", "", "TLS key file")
	root.Flags().StringVar(&f.sslPass, "ssl-pass", "", "TLS key passphrase file")
	root.Flags().BoolVar(&f.noClipboard, "no-clipboard", false, "do not copy the server URL to the OS clipboard")
	root.Flags().BoolVar(&f.noPortSwitching, "no-port-switching", false, "fail instead of advancing port on conflict")
	root.Flags().BoolVar(&f.symlinks, "symlinks", false, "allow symlinks to be followed")
	root.Flags().BoolVar(&f.noEtag, "no-etag", false, "use Last-Modified instead of ETag")
	root.Flags().BoolVar(&f.debug, "debug", os.Getenv("DEBUG_LOGS") != "", "enable debug logging")

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, f *flags) error {
	level := slog.LevelInfo
	if f.debug {
		level = slog.LevelDebug
	}
	logger := logging.New(os.Stdout, logging.Options{
		Level:          level,
		AddSource:      f.debug,
		NoTimestamps:   f.noTimestamps,
		RequestLogging: !f.noRequestLogging,
	})

	serveDir, err := filepath.Abs(f.dir)
	if err != nil {
		return fmt.Errorf("resolving --dir: %w", err)
	}

	if f.initProject {
		created, err := initassets.Materialize(serveDir)
		if err != nil {
			return fmt.Errorf("materializing --init templates: %w", err)
		}
		for _, name := range created {
			logger.Info("wrote starter file", "file", name)
		}
	}

	cfg, cfgPath, err := config.Load(logger, serveDir, f.configPath)
	if err != nil {
		return err
	}

	publicRoot := config.ResolvePublic(cfg, serveDir)
	if err := config.Validate(cfg, publicRoot); err != nil {
		return err
	}

	pol, err := policy.New(cfg, publicRoot, policy.CLIOverrides{
		RenderSingle:       f.single,
		Symlinks:           f.symlinks,
		NoEtag:             f.noEtag,
		CORSEnabled:        f.cors,
		CompressionEnabled: !f.noCompression,
	})
	if err != nil {
		return fmt.Errorf("building routing policy: %w", err)
	}

	if cfgPath != "" {
		if err := config.WatchForChanges(ctx, logger, cfgPath); err != nil {
			logger.Warn("could not watch config file for changes", "error", err)
		}
	}

	host := "0.0.0.0"
	resolvedPort, err := netutil.ResolvePort(host, f.port, !f.noPortSwitching)
	if err != nil {
		return err
	}

	var tlsCfg *tls.Config
	usingTLS := f.sslCert != "" && f.sslKey != ""
	if usingTLS {
		tlsCfg, err = tlsconfig.Load(f.sslCert, f.sslKey, f.sslPass)
		if err != nil {
			return err
		}
	}

	effectiveURL := server.EffectiveURL(usingTLS, host, resolvedPort)
	logger.Info("starting msaada", "url", effectiveURL, "public_root", pol.PublicRoot)

	if !f.noClipboard {
		copier := clipboard.Copier(clipboard.System{})
		if err := copier.Copy(effectiveURL); err != nil {
			logger.Warn("could not copy URL to clipboard", "error", err)
		}
	}

	srv := server.New(logger, pol, server.Options{
		ServerName:         "msaada",
		Version:            version,
		RequestLogging:     !f.noRequestLogging,
		CORSEnabled:        f.cors,
		CompressionEnabled: !f.noCompression,
		SelfTestEnabled:    f.test,
	})

	addr := fmt.Sprintf("%s:%d", host, resolvedPort)
	return srv.Run(ctx, addr, tlsCfg)
}
