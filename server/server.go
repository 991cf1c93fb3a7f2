// Copyright 2025 The vcscore Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server exposes the bundle2 ingest and changeset query surface
// over HTTP.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hgserve/vcscore/changeset"
	"github.com/hgserve/vcscore/common"
	"github.com/hgserve/vcscore/confengine"
	"github.com/hgserve/vcscore/logger"
)

// requestIDHeader carries the per-request correlation id assigned by
// requestIDMiddleware into the response.
const requestIDHeader = "X-Request-Id"

var uptimeSeconds = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: common.App,
		Name:      "uptime_seconds",
		Help:      "seconds since the process started",
	},
)

// Config controls the HTTP surface. Unpacked from the "server" section of
// the runtime configuration.
type Config struct {
	Enabled bool          `config:"enabled"`
	Address string        `config:"address"`
	Timeout time.Duration `config:"timeout"`
}

// Server wires bundle2 ingest and changeset query routes onto a gorilla/mux
// router in front of a changeset store.
type Server struct {
	config Config
	router *mux.Router
	server *http.Server
	store  *changeset.ContentAddressedChangesetStore
}

// New builds a Server. It returns a nil *Server (and nil error) when the
// server section is disabled, matching the rest of this module's
// opt-in-component convention.
func New(conf *confengine.Config, store *changeset.ContentAddressedChangesetStore) (*Server, error) {
	if conf.Disabled("server") {
		return nil, nil
	}

	var config Config
	if err := conf.UnpackChild("server", &config); err != nil {
		return nil, err
	}
	if !config.Enabled {
		return nil, nil
	}

	router := mux.NewRouter()
	s := &Server{
		config: config,
		router: router,
		store:  store,
		server: &http.Server{
			Handler:      router,
			ReadTimeout:  config.Timeout,
			WriteTimeout: config.Timeout,
		},
	}
	s.router.Use(requestIDMiddleware)
	s.registerRoutes()
	return s, nil
}

// requestIDMiddleware echoes the request's X-Request-Id on the response,
// minting a fresh uuid when the request carries none. The id is not passed
// to logging or metrics.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerRoutes() {
	s.router.Methods(http.MethodPost).Path("/v1/bundle2").HandlerFunc(s.handleDecodeBundle2)
	s.router.Methods(http.MethodGet).Path("/v1/changeset/{id}").HandlerFunc(s.handleGetChangeset)
	s.router.Methods(http.MethodGet).Path("/metrics").HandlerFunc(s.handleMetrics)
	s.router.Methods(http.MethodPost).Path("/v1/admin/loglevel").HandlerFunc(s.handleAdminLogLevel)
	s.router.Methods(http.MethodPost).Path("/v1/admin/reload").HandlerFunc(s.handleAdminReload)
}

// handleMetrics refreshes the uptime gauge from common.Started before
// delegating to the standard prometheus handler, so scrapers see a live
// value rather than one frozen at registration time.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	uptimeSeconds.Set(float64(time.Now().Unix() - common.Started()))
	promhttp.Handler().ServeHTTP(w, r)
}

// ListenAndServe binds the configured address and serves until the
// listener is closed.
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	logger.Infof("server listening on %s", s.config.Address)
	return s.server.Serve(l)
}

// Shutdown closes the HTTP listener, aggregating any failure with store
// cleanup the caller performs alongside it.
func (s *Server) Shutdown(ctx context.Context, extra ...error) error {
	var merr *multierror.Error
	if err := s.server.Shutdown(ctx); err != nil {
		merr = multierror.Append(merr, err)
	}
	for _, err := range extra {
		if err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return merr.ErrorOrNil()
}
