// order-api serves the order backend REST API on its own port. It is the
// system of record the tool server proxies to.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/orderdesk/orderdesk/internal/config"
	"github.com/orderdesk/orderdesk/internal/logging"
	"github.com/orderdesk/orderdesk/internal/orders"
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

	db, err := orders.OpenDB(cfg.Orders.DBPath, log)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Orders.DBPath).Msg("opening order database")
	}
	defer db.Close()

	svc, err := orders.NewService(db, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initializing order service")
	}

	addr := fmt.Sprintf(":%d", cfg.Orders.Port)
	log.Info().Str("addr", addr).Msg("order API listening")
	if err := http.ListenAndServe(addr, orders.Handler(svc, log)); err != nil {
		log.Fatal().Err(err).Msg("order API stopped")
	}
}
