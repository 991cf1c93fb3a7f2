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
	"crypto/sha1"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hgserve/vcscore/common"
	"github.com/hgserve/vcscore/internal/rescue"
)

var (
	saveTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: common.App,
			Subsystem: "changeset_store",
			Name:      "save_total",
			Help:      "changeset store save calls, partitioned by outcome",
		},
		[]string{"outcome"},
	)

	loadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: common.App,
			Subsystem: "changeset_store",
			Name:      "load_duration_seconds",
			Help:      "changeset store load call latency",
		},
	)

	loadTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: common.App,
			Subsystem: "changeset_store",
			Name:      "load_total",
			Help:      "changeset store load calls, partitioned by outcome",
		},
		[]string{"outcome"},
	)
)

// ContentAddressedChangesetStore serializes changeset records into a
// BlobStore keyed by the content-address hash of their canonical body, and
// parses them back out with an integrity check.
type ContentAddressedChangesetStore struct {
	blobs      BlobStore
	serializer *Serializer
}

// NewContentAddressedChangesetStore builds a store over the given backend.
func NewContentAddressedChangesetStore(blobs BlobStore) *ContentAddressedChangesetStore {
	return &ContentAddressedChangesetStore{
		blobs:      blobs,
		serializer: NewSerializer(),
	}
}

// blobKey renders the storage key for a node hash, per the
// "changeset-<hex>.<envelope-tag>" schema. Hex is always lowercase.
func blobKey(id NodeHash) string {
	return fmt.Sprintf("changeset-%s.%s", id.String(), EnvelopeTag)
}

// ComputeHash derives r's content address: SHA-1 over its sorted parents
// concatenated with its canonical serialized body.
func (s *ContentAddressedChangesetStore) ComputeHash(r *Record) NodeHash {
	p1, p2 := r.sortedParents()
	body := s.serializer.Encode(r)

	h := sha1.New()
	h.Write(p1[:])
	h.Write(p2[:])
	h.Write(body)

	var id NodeHash
	copy(id[:], h.Sum(nil))
	return id
}

// Save serializes r, computes its content address, wraps it in an envelope
// preserving caller-supplied parent order, and writes it under the derived
// key. Two saves of equal content produce the same key and identical
// bytes; a concurrent save of the same id is benign.
func (s *ContentAddressedChangesetStore) Save(ctx *Ctx, r *Record) (NodeHash, error) {
	body := s.serializer.Encode(r)
	id := s.ComputeHash(r)

	env := &envelope{P1: parent(r.P1), P2: parent(r.P2), Body: body}
	if err := s.blobs.Put(ctx, blobKey(id), marshalEnvelope(env)); err != nil {
		saveTotal.WithLabelValues("error").Inc()
		return NodeHash{}, errWrap(err, "save")
	}

	saveTotal.WithLabelValues("ok").Inc()
	return id, nil
}

// Load fetches and parses the changeset stored under id. NULL_ID returns a
// synthetic empty record without touching the blob store. A miss returns
// (nil, nil); a hit whose recomputed hash disagrees with id returns
// ErrHashMismatch.
func (s *ContentAddressedChangesetStore) Load(ctx *Ctx, id NodeHash) (*Record, error) {
	if id.IsNull() {
		loadTotal.WithLabelValues("null_fast_path").Inc()
		return &Record{Manifest: NullID}, nil
	}

	start := time.Now()
	defer func() { loadDuration.Observe(time.Since(start).Seconds()) }()

	raw, ok, err := s.blobs.Get(ctx, blobKey(id))
	if err != nil {
		loadTotal.WithLabelValues("error").Inc()
		return nil, errWrap(err, "load")
	}
	if !ok {
		loadTotal.WithLabelValues("miss").Inc()
		return nil, nil
	}

	env, err := unmarshalEnvelope(raw)
	if err != nil {
		loadTotal.WithLabelValues("corrupt_envelope").Inc()
		return nil, err
	}

	record, err := s.serializer.Decode(env.Body)
	if err != nil {
		loadTotal.WithLabelValues("corrupt_body").Inc()
		return nil, err
	}
	if !env.P1.IsNull() {
		p1 := env.P1
		record.P1 = &p1
	}
	if !env.P2.IsNull() {
		p2 := env.P2
		record.P2 = &p2
	}

	got := s.ComputeHash(record)
	if got != id {
		loadTotal.WithLabelValues("hash_mismatch").Inc()
		return nil, ErrHashMismatch
	}

	loadTotal.WithLabelValues("ok").Inc()
	return record, nil
}

func errWrap(err error, op string) error {
	return newError("%s: %v", op, err)
}

// saveResult pairs a batch index with the outcome of saving that record, so
// SaveBatch can report results in input order despite workers completing out
// of order.
type saveResult struct {
	idx int
	id  NodeHash
	err error
}

// SaveBatch saves every record in records, running up to common.Concurrency
// saves in parallel against the backing BlobStore. Per spec, Save calls are
// independent and carry no cross-operation locking, so bounding the fan-out
// only protects the backend from unbounded concurrent connections; it is not
// required for correctness. The returned slice is aligned with records by
// index, with a zero id for each record whose save failed; the returned
// error is the first failure received (not necessarily the lowest index).
// A single failed save does not abort the others.
func (s *ContentAddressedChangesetStore) SaveBatch(ctx *Ctx, records []*Record) ([]NodeHash, error) {
	ids := make([]NodeHash, len(records))
	results := make(chan saveResult, len(records))
	sem := make(chan struct{}, common.Concurrency())

	for i, r := range records {
		i, r := i, r
		sem <- struct{}{}
		go func() {
			defer func() { <-sem }()
			// A panic inside one worker (e.g. a BlobStore backend bug)
			// must not take the rest of the batch, or the process, down
			// with it: recover, run it through the same handlers
			// HandleCrash would (metric + log), and report it as that
			// record's error so the result loop below still receives
			// exactly one value per record.
			defer func() {
				if rec := recover(); rec != nil {
					for _, fn := range rescue.PanicHandlers {
						fn(rec)
					}
					results <- saveResult{idx: i, err: newError("panic saving record %d: %v", i, rec)}
				}
			}()
			id, err := s.Save(ctx, r)
			results <- saveResult{idx: i, id: id, err: err}
		}()
	}

	var firstErr error
	for range records {
		res := <-results
		ids[res.idx] = res.id
		if res.err != nil && firstErr == nil {
			firstErr = res.err
		}
	}
	return ids, firstErr
}
