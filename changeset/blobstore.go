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

package changeset

import (
	"context"
	"net/http"

	"go.opentelemetry.io/collector/pdata/pcommon"

	"github.com/hgserve/vcscore/internal/tracekit"
	"github.com/hgserve/vcscore/logger"
)

// Ctx carries request-scoped metadata into every BlobStore call: a logger
// handle, an optional sampling destination name, a cancellation signal, and
// a trace id attached to redaction audit output.
type Ctx struct {
	context.Context

	Logger  logger.Logger
	Sample  string
	TraceID pcommon.TraceID
}

// NewCtx wraps parent with a fresh random trace id and the given logger.
// Sample is left empty; set it explicitly when a caller has opted into
// sampled diagnostics.
func NewCtx(parent context.Context, log logger.Logger) *Ctx {
	return &Ctx{
		Context: parent,
		Logger:  log,
		TraceID: tracekit.RandomTraceID(),
	}
}

// NewCtxFromRequest is like NewCtx, but adopts the trace id the HTTP
// request already carries (via a traceparent header) instead of always
// minting a disconnected one, so a client's own trace id survives into
// audit and log output for that request's BlobStore calls.
func NewCtxFromRequest(r *http.Request, log logger.Logger) *Ctx {
	return &Ctx{
		Context: r.Context(),
		Logger:  log,
		TraceID: tracekit.FromRequest(r),
	}
}

// BlobStore is the minimal contract ContentAddressedChangesetStore
// consumes. Implementations are free to be backed by memory, a SQL table, a
// sharded store, or a remote cache; none of that is visible here.
//
// All operations are non-blocking to the caller: they return as soon as the
// operation completes, cancellation included, and never retry internally.
type BlobStore interface {
	// Get returns the stored bytes for key, or ok=false if absent. It never
	// returns a partial value.
	Get(ctx *Ctx, key string) (value []byte, ok bool, err error)

	// Put durably stores value under key. Overwriting an existing key with
	// identical bytes is a no-op; overwriting with different bytes is
	// implementation-defined, but must not silently succeed for
	// content-addressed keys (the backend should at least log a collision
	// when it can detect one).
	Put(ctx *Ctx, key string, value []byte) error

	// IsPresent is a fast existence check. Against eventually-consistent
	// backends, a true result carries no guarantee that a subsequent Get
	// will succeed.
	IsPresent(ctx *Ctx, key string) (bool, error)

	// AssertPresent is a strong existence check; callers treat its failure
	// as fatal.
	AssertPresent(ctx *Ctx, key string) error
}
