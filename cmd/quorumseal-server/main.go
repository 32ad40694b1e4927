// quorumseal-server is the coordination server of the threshold decryption
// service. It stops on SIGINT/SIGTERM or on the literal line "stop" on
// stdin.
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/quorumseal/quorumseal/crypto/ecc/curves"
	"github.com/quorumseal/quorumseal/db/metadb"
	"github.com/quorumseal/quorumseal/internal"
	"github.com/quorumseal/quorumseal/log"
	"github.com/quorumseal/quorumseal/server"
	"github.com/quorumseal/quorumseal/wire"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log.Level, cfg.Log.Output)
	log.Infow("starting quorumseal-server", "version", internal.Version)

	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	database, err := metadb.New(cfg.DB.Type, cfg.Datadir)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	curve := curves.New(cfg.Curve)
	storage := server.NewDBStorage(database, curve)

	srv := server.New(server.Config{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Curve:   curve,
		Mode:    wire.Mode(cfg.Mode),
		Storage: storage,
	})
	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	// shut down on signal or on the literal "stop" line
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	stopCh := make(chan struct{}, 1)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if strings.TrimSpace(scanner.Text()) == "stop" {
				stopCh <- struct{}{}
				return
			}
		}
	}()

	select {
	case sig := <-sigCh:
		log.Infow("received signal, shutting down", "signal", sig.String())
	case <-stopCh:
		log.Info("received stop command, shutting down")
	}

	if err := srv.Stop(); err != nil {
		log.Errorw(err, "error stopping server")
	}
	srv.Wait()
	if err := storage.Close(); err != nil {
		log.Errorw(err, "error closing storage")
	}
}
