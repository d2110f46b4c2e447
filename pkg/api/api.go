// Package api wires the HTTP surface of the node: peer CRUD, config export,
// health, metrics, events and the audit trail.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"wgnode/pkg/ipalloc"
	"wgnode/pkg/metrics"
	"wgnode/pkg/model"
	"wgnode/pkg/service"
	"wgnode/pkg/store"
	"wgnode/pkg/wireguard"
)

type Handler struct {
	svc     *service.Service
	gw      wireguard.Gateway
	journal *store.Journal
	hub     *EventHub
	metrics *metrics.Metrics
	iface   string
	version string
	started time.Time
}

func NewHandler(svc *service.Service, gw wireguard.Gateway, journal *store.Journal, hub *EventHub, m *metrics.Metrics, iface, version string) *Handler {
	return &Handler{
		svc:     svc,
		gw:      gw,
		journal: journal,
		hub:     hub,
		metrics: m,
		iface:   iface,
		version: version,
		started: time.Now(),
	}
}

// RegisterRoutes wires the HTTP handlers on the provided mux. Health and
// metrics are served without authentication.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, token string, requireJWT bool) {
	auth := authFunc(token, requireJWT)
	guard := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !auth(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("/peers", guard(h.handlePeers))
	mux.HandleFunc("/peers/", guard(h.handlePeerByKey))
	mux.HandleFunc("/events", guard(h.hub.HandleSubscribe))
	mux.HandleFunc("/audit", guard(h.handleAudit))
	mux.HandleFunc("/health", h.handleHealth)
	mux.Handle("/metrics", h.metricsHandler())
}

func (h *Handler) handlePeers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.svc.List(r.Context()))
	case http.MethodPost:
		h.createPeer(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) createPeer(w http.ResponseWriter, r *http.Request) {
	var req model.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	// A disconnecting client must not abort a mutation that already reached
	// the interface, so the critical section runs detached from the request.
	peer, err := h.svc.Create(context.WithoutCancel(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "config" {
		server, err := h.svc.ServerInfo(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		text, err := wireguard.RenderClientConfig(peer, server)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(text))
		return
	}
	writeJSON(w, http.StatusCreated, peer)
}

// handlePeerByKey routes /peers/{public_key} and /peers/{public_key}/config.
// Base64 keys can contain "/", which the mux's path cleaning mangles even
// when percent-encoded; callers must URL-escape the key and keys with a "/"
// may still 404. Known limitation of path-embedded keys.
func (h *Handler) handlePeerByKey(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/peers/")
	if rest == "" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	if key, ok := strings.CutSuffix(rest, "/config"); ok {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.peerConfig(w, r, key)
		return
	}

	switch r.Method {
	case http.MethodGet:
		status, err := h.svc.Get(r.Context(), rest)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	case http.MethodDelete:
		if err := h.svc.Delete(context.WithoutCancel(r.Context()), rest); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) peerConfig(w http.ResponseWriter, r *http.Request, key string) {
	text, err := h.svc.RenderConfig(r.Context(), key, r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"config": strings.TrimSpace(text),
		"note":   "Keep the private key secret; it is not recoverable after peer deletion",
	})
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.journal.Recent(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []model.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("encode response: %v", err)
	}
}

// writeError maps the service error taxonomy onto stable HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateKey),
		errors.Is(err, service.ErrAddressInUse),
		errors.Is(err, ipalloc.ErrPoolExhausted),
		errors.Is(err, wireguard.ErrMissingCredential):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidKey),
		errors.Is(err, service.ErrInvalidAddress),
		errors.Is(err, service.ErrAddressOutOfRange),
		errors.Is(err, service.ErrAddressReserved):
		status = http.StatusBadRequest
	case errors.Is(err, wireguard.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}
