package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"net/netip"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"wgnode/pkg/api"
	"wgnode/pkg/config"
	"wgnode/pkg/metrics"
	"wgnode/pkg/model"
	"wgnode/pkg/service"
	"wgnode/pkg/store"
	"wgnode/pkg/version"
	"wgnode/pkg/wireguard"
)

func main() {
	showVersion := flag.Bool("v", false, "print version and exit")
	flag.Parse()
	if *showVersion {
		log.Printf("wgnode version=%s", version.Build)
		return
	}

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if lvl, err := log.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	gw := wireguard.NewCLI(cfg.Interface, cfg.CommandTimeout)
	if !gw.Available() {
		log.Warnf("interface %s not available at startup; serving degraded until it appears", cfg.Interface)
	}

	var registry store.Registry
	switch cfg.RegistryBackend {
	case "consul":
		registry, err = store.NewConsulRegistry(cfg.ConsulAddr, cfg.StoragePath)
		if err != nil {
			log.Fatalf("consul registry: %v", err)
		}
	default:
		registry = store.NewFileRegistry(cfg.StoragePath)
	}

	peers, err := registry.Load()
	if err != nil {
		if errors.Is(err, store.ErrCorruptState) {
			log.Fatalf("refusing to start: %v (move the state file aside to reset)", err)
		}
		log.Fatalf("load registry: %v", err)
	}
	log.Infof("registry loaded: %d peers from %s backend", len(peers), cfg.RegistryBackend)

	var journal *store.Journal
	if cfg.AuditDBPath != "" {
		journal, err = store.OpenJournal(cfg.AuditDBPath)
		if err != nil {
			log.Fatalf("audit journal: %v", err)
		}
		defer journal.Close()
	}

	ctx := context.Background()
	subnet, err := resolveSubnet(ctx, cfg, gw)
	if err != nil {
		log.Fatalf("subnet: %v", err)
	}
	log.Infof("managing %s on %s (gateway %s)", subnet.Masked(), cfg.Interface, subnet.Addr())

	hub := api.NewEventHub()
	svc := service.New(service.Config{
		Registry: registry,
		Gateway:  gw,
		Journal:  journal,
		Notifier: hub,
		Subnet:   subnet,
		Server: model.Server{
			PublicKey: cfg.ServerPublicKey,
			Endpoint:  cfg.ServerEndpoint,
			Keepalive: cfg.Keepalive,
		},
		PersistPrivateKeys: cfg.PersistKeys,
		DefaultKeepalive:   cfg.Keepalive,
	})

	if n := svc.Restore(ctx); n > 0 {
		log.Infof("restored %d peers to %s", n, cfg.Interface)
	}

	m := metrics.New()
	handler := api.NewHandler(svc, gw, journal, hub, m, cfg.Interface, version.Build)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, cfg.APIToken, cfg.AuthMode == "jwt")

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Instrument(m, mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Infof("wgnode %s listening on %s", version.Build, cfg.ListenAddr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// resolveSubnet prefers the configured CIDR and falls back to reading the
// interface address, so a bare deployment needs no WG_SUBNET at all.
func resolveSubnet(ctx context.Context, cfg config.Config, gw wireguard.Gateway) (netip.Prefix, error) {
	if cfg.Subnet != "" {
		return netip.ParsePrefix(cfg.Subnet)
	}
	return gw.InterfaceAddr(ctx)
}
