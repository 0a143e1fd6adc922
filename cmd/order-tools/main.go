// order-tools serves the tool catalog and proxies tool invocations to the
// order backend.
package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/orderdesk/orderdesk/internal/config"
	"github.com/orderdesk/orderdesk/internal/logging"
	"github.com/orderdesk/orderdesk/internal/toolsrv"
)

func main() {
	paths, err := config.ResolvePaths()
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolving paths: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(paths.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(nil, cfg.Logging.Level)

	backend := toolsrv.NewBackendClient(cfg.Orders.BaseURL, log)

	addr := listenAddr(cfg.Tools.ServerURL)
	log.Info().Str("addr", addr).Str("backend", cfg.Orders.BaseURL).Msg("tool server listening")
	if err := http.ListenAndServe(addr, toolsrv.Handler(backend, log)); err != nil {
		log.Fatal().Err(err).Msg("tool server stopped")
	}
}

// listenAddr derives the listen address from the configured tool server URL
// so a single config stanza drives both the engine and this process.
func listenAddr(serverURL string) string {
	u, err := url.Parse(serverURL)
	if err != nil || u.Port() == "" {
		return ":8081"
	}
	return ":" + u.Port()
}
