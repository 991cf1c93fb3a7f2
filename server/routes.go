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

package server

import (
	"encoding/hex"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/hgserve/vcscore/bundle2"
	"github.com/hgserve/vcscore/changeset"
	"github.com/hgserve/vcscore/common"
	"github.com/hgserve/vcscore/internal/sigs"
	"github.com/hgserve/vcscore/logger"
)

// frameSummary is the JSON-facing projection of a decoded bundle2.OuterFrame.
type frameSummary struct {
	Kind         string `json:"kind"`
	PartType     string `json:"partType,omitempty"`
	PartID       uint32 `json:"partId,omitempty"`
	PayloadBytes int    `json:"payloadBytes,omitempty"`
}

// handleDecodeBundle2 drains the request body through an OuterDecoder and
// responds with the resulting frame sequence, reading the body in fixed
// blocks the way a long-lived transport connection would feed the decoder.
func (s *Server) handleDecodeBundle2(w http.ResponseWriter, r *http.Request) {
	dec := bundle2.NewOuterDecoder()
	cur := bundle2.NewCursor()

	var frames []frameSummary
	block := make([]byte, common.ReadBlockSize)

	for {
		for {
			f, err := dec.Next(cur)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if f == nil {
				break
			}
			frames = append(frames, frameSummary{
				Kind:         f.Kind.String(),
				PartType:     f.PartType,
				PartID:       f.PartID,
				PayloadBytes: len(f.Payload),
			})
			if f.Kind == bundle2.FrameStreamEnd {
				writeJSON(w, http.StatusOK, map[string]any{"frames": frames})
				return
			}
		}

		n, err := r.Body.Read(block)
		if n > 0 {
			cur.Feed(block[:n])
		}
		if err == io.EOF {
			writeJSON(w, http.StatusOK, map[string]any{"frames": frames, "truncated": true})
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
}

// changesetView is the JSON-facing projection of a changeset.Record.
type changesetView struct {
	Manifest string            `json:"manifest"`
	User     string            `json:"user"`
	Time     int64             `json:"time"`
	TZOffset int32             `json:"tzOffset"`
	Extras   map[string]string `json:"extras,omitempty"`
	Files    []string          `json:"files,omitempty"`
	Comments string            `json:"comments"`
}

func (s *Server) handleGetChangeset(w http.ResponseWriter, r *http.Request) {
	idHex := mux.Vars(r)["id"]
	raw, err := hex.DecodeString(idHex)
	if err != nil || len(raw) != len(changeset.NullID) {
		http.Error(w, "invalid changeset id", http.StatusBadRequest)
		return
	}
	var id changeset.NodeHash
	copy(id[:], raw)

	ctx := changeset.NewCtxFromRequest(r, logger.Std())
	record, err := s.store.Load(ctx, id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if record == nil {
		http.NotFound(w, r)
		return
	}

	view := changesetView{
		Manifest: record.Manifest.String(),
		User:     string(record.User),
		Time:     record.Time,
		TZOffset: record.TZOffset,
		Comments: string(record.Comments),
	}
	for _, f := range record.Files {
		view.Files = append(view.Files, string(f))
	}
	if len(record.Extras) > 0 {
		view.Extras = make(map[string]string, len(record.Extras))
		for k, v := range record.Extras {
			view.Extras[k] = string(v)
		}
	}

	writeJSON(w, http.StatusOK, view)
}

// handleAdminLogLevel changes the global logger's level on the fly, e.g.
// `POST /v1/admin/loglevel?level=debug` to turn up verbosity without a
// restart.
func (s *Server) handleAdminLogLevel(w http.ResponseWriter, r *http.Request) {
	level := r.FormValue("level")
	if level == "" {
		http.Error(w, "missing level", http.StatusBadRequest)
		return
	}
	logger.SetLoggerLevel(level)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "level": level})
}

// handleAdminReload asks the running process to re-read its config file by
// raising SIGHUP against itself, the same signal an operator could send
// from the shell. It lets the redaction set (and anything else cmd/serve.go
// wires up behind sigs.Reload) be refreshed from an HTTP call instead of
// requiring shell access to the host.
func (s *Server) handleAdminReload(w http.ResponseWriter, r *http.Request) {
	if err := sigs.SelfReload(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("server: failed to write JSON response: %v", err)
	}
}
