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
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/mitchellh/mapstructure"
)

// RedactionEntry is one declared denial: a content key and the
// human-readable reason it was redacted, as loaded from configuration.
type RedactionEntry struct {
	Key    string `mapstructure:"key"`
	Reason string `mapstructure:"reason"`
}

// RedactionFilter wraps a BlobStore and denies Get/IsPresent/AssertPresent
// for a fixed set of content keys, responding as though the blob never
// existed and emitting an audit line through the caller's Ctx logger. Put
// is unaffected. The set can be swapped out at runtime via SetEntries (see
// the SIGHUP reload path in cmd/serve.go), so a lookup running concurrently
// with a reload always sees one complete generation of the set, never a
// partially-rebuilt one.
type RedactionFilter struct {
	inner   BlobStore
	reasons atomic.Pointer[map[uint64]string]
}

// NewRedactionFilter builds a filter denying access to every key named in
// entries. Keys are hashed with xxhash so the set does not retain the
// original key strings twice (once in config, once in the lookup table).
func NewRedactionFilter(inner BlobStore, entries []RedactionEntry) *RedactionFilter {
	f := &RedactionFilter{inner: inner}
	f.SetEntries(entries)
	return f
}

// SetEntries atomically replaces the denied-key set, discarding the
// previous generation. Safe to call concurrently with Get/Put/IsPresent/
// AssertPresent from other goroutines.
func (f *RedactionFilter) SetEntries(entries []RedactionEntry) {
	reasons := make(map[uint64]string, len(entries))
	for _, e := range entries {
		reasons[xxhash.Sum64String(e.Key)] = e.Reason
	}
	f.reasons.Store(&reasons)
}

// DecodeRedactionEntries decodes a loosely-typed configuration value (as
// produced by confengine's YAML unpacking) into a slice of RedactionEntry,
// tolerating the usual map[string]any/[]any shapes YAML decoders produce.
func DecodeRedactionEntries(raw any) ([]RedactionEntry, error) {
	var entries []RedactionEntry
	if err := mapstructure.Decode(raw, &entries); err != nil {
		return nil, newError("decode redaction entries: %v", err)
	}
	return entries, nil
}

func (f *RedactionFilter) reasonFor(key string) (string, bool) {
	reasons := f.reasons.Load()
	reason, denied := (*reasons)[xxhash.Sum64String(key)]
	return reason, denied
}

func (f *RedactionFilter) audit(ctx *Ctx, op, key, reason string) {
	ctx.Logger.Warnf("redaction: denied %s on key=%q trace=%s reason=%q", op, key, ctx.TraceID.String(), reason)
}

// Get denies access to redacted keys, presenting them as a plain miss.
func (f *RedactionFilter) Get(ctx *Ctx, key string) ([]byte, bool, error) {
	if reason, denied := f.reasonFor(key); denied {
		f.audit(ctx, "get", key, reason)
		return nil, false, nil
	}
	return f.inner.Get(ctx, key)
}

// Put is transparent: redaction never blocks writes.
func (f *RedactionFilter) Put(ctx *Ctx, key string, value []byte) error {
	return f.inner.Put(ctx, key, value)
}

// IsPresent denies redacted keys, reporting them as absent.
func (f *RedactionFilter) IsPresent(ctx *Ctx, key string) (bool, error) {
	if reason, denied := f.reasonFor(key); denied {
		f.audit(ctx, "is_present", key, reason)
		return false, nil
	}
	return f.inner.IsPresent(ctx, key)
}

// AssertPresent denies redacted keys, failing as though they were absent.
func (f *RedactionFilter) AssertPresent(ctx *Ctx, key string) error {
	if reason, denied := f.reasonFor(key); denied {
		f.audit(ctx, "assert_present", key, reason)
		return newError("assert_present: key %q not found", key)
	}
	return f.inner.AssertPresent(ctx, key)
}
