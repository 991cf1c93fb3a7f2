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

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hgserve/vcscore/blobstore/memory"
	mongoblobs "github.com/hgserve/vcscore/blobstore/mongo"
	"github.com/hgserve/vcscore/changeset"
	"github.com/hgserve/vcscore/confengine"
	"github.com/hgserve/vcscore/internal/rescue"
	"github.com/hgserve/vcscore/internal/sigs"
	"github.com/hgserve/vcscore/logger"
	"github.com/hgserve/vcscore/server"
)

var serveConfigPath string

type blobStoreConfig struct {
	Backend string `config:"backend"` // "memory" or "mongo"
	Mongo   struct {
		URI        string `config:"uri"`
		Database   string `config:"database"`
		Collection string `config:"collection"`
	} `config:"mongo"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bundle2 ingest / changeset query HTTP server",
	Run: func(cmd *cobra.Command, args []string) {
		defer rescue.HandleCrash()

		cfg, err := confengine.LoadConfigPath(serveConfigPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}

		var logOpt logger.Options
		if err := cfg.UnpackChild("logger", &logOpt); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load logger config: %v\n", err)
			os.Exit(1)
		}
		logger.SetOptions(logOpt)

		blobs, closeBlobs, err := newBlobStore(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to initialize blob store: %v\n", err)
			os.Exit(1)
		}

		var bs changeset.BlobStore = blobs
		var filter *changeset.RedactionFilter
		if entries, err := loadRedactionEntries(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load redaction set: %v\n", err)
			os.Exit(1)
		} else if len(entries) > 0 {
			filter = changeset.NewRedactionFilter(blobs, entries)
			bs = filter
			logger.Infof("loaded %d redaction entries", len(entries))
		}

		store := changeset.NewContentAddressedChangesetStore(bs)

		srv, err := server.New(cfg, store)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create server: %v\n", err)
			os.Exit(1)
		}
		if srv == nil {
			fmt.Fprintln(os.Stderr, "server.enabled is false, nothing to do")
			os.Exit(1)
		}

		go func() {
			if err := srv.ListenAndServe(); err != nil {
				logger.Errorf("server stopped: %v", err)
			}
		}()

		term := sigs.Terminate()
		reload := sigs.Reload()
		for {
			select {
			case <-reload:
				reloadRedactionSet(serveConfigPath, filter)
			case <-term:
				logger.Infof("shutting down")
				if err := srv.Shutdown(context.Background(), closeBlobs()); err != nil {
					logger.Errorf("shutdown error: %v", err)
				}
				return
			}
		}
	},
	Example: "# vcscore serve --config vcscore.yaml",
}

// reloadRedactionSet re-reads configPath on SIGHUP (or a self-triggered
// reload via the /v1/admin/reload route) and swaps the redaction filter's
// denied-key set in place. A server started without any redaction entries
// has no filter to update, so reload is a no-op for it rather than an
// error: adding entries requires a restart, but an existing filter's set
// can shrink or grow without one.
func reloadRedactionSet(configPath string, filter *changeset.RedactionFilter) {
	if filter == nil {
		logger.Warnf("reload: no redaction filter configured at startup, ignoring")
		return
	}
	cfg, err := confengine.LoadConfigPath(configPath)
	if err != nil {
		logger.Errorf("reload: failed to load config: %v", err)
		return
	}
	entries, err := loadRedactionEntries(cfg)
	if err != nil {
		logger.Errorf("reload: failed to load redaction set: %v", err)
		return
	}
	filter.SetEntries(entries)
	logger.Infof("reload: applied %d redaction entries", len(entries))
}

func loadRedactionEntries(cfg *confengine.Config) ([]changeset.RedactionEntry, error) {
	if !cfg.Has("redaction") {
		return nil, nil
	}
	var raw []map[string]any
	if err := cfg.UnpackChild("redaction", &raw); err != nil {
		return nil, err
	}
	entries := make([]any, len(raw))
	for i, r := range raw {
		entries[i] = r
	}
	return changeset.DecodeRedactionEntries(entries)
}

// newBlobStore constructs the configured BlobStore backend, returning a
// cleanup func that releases backend resources (e.g. a Mongo client) on
// shutdown.
func newBlobStore(cfg *confengine.Config) (changeset.BlobStore, func() error, error) {
	var bscfg blobStoreConfig
	bscfg.Backend = "memory"
	if cfg.Has("blobstore") {
		if err := cfg.UnpackChild("blobstore", &bscfg); err != nil {
			return nil, nil, err
		}
	}

	switch bscfg.Backend {
	case "", "memory":
		store := memory.New()
		return store, func() error { return nil }, nil

	case "mongo":
		client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(bscfg.Mongo.URI))
		if err != nil {
			return nil, nil, err
		}
		coll := client.Database(bscfg.Mongo.Database).Collection(bscfg.Mongo.Collection)
		store := mongoblobs.New(coll)
		return store, func() error { return client.Disconnect(context.Background()) }, nil

	default:
		return nil, nil, fmt.Errorf("unknown blobstore backend %q", bscfg.Backend)
	}
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "vcscore.yaml", "Configuration file path")
	rootCmd.AddCommand(serveCmd)
}
