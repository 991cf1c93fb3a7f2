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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hgserve/vcscore/logger"
)

type fakeBlobStore struct {
	mu       sync.Mutex
	data     map[string][]byte
	gets     int
	putCalls int
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{data: map[string][]byte{}}
}

func (f *fakeBlobStore) Get(_ *Ctx, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeBlobStore) Put(_ *Ctx, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	f.data[key] = append([]byte(nil), value...)
	return nil
}

func (f *fakeBlobStore) IsPresent(_ *Ctx, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok, nil
}

func (f *fakeBlobStore) AssertPresent(ctx *Ctx, key string) error {
	ok, _ := f.IsPresent(ctx, key)
	if !ok {
		return newError("assert_present: %q not found", key)
	}
	return nil
}

func testCtx() *Ctx {
	return NewCtx(context.Background(), logger.New(logger.Options{Stdout: true}))
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	blobs := newFakeBlobStore()
	store := NewContentAddressedChangesetStore(blobs)

	r := &Record{
		Manifest: NodeHash{7, 7},
		User:     []byte("dave"),
		Time:     123,
		TZOffset: 0,
		Files:    [][]byte{[]byte("f1")},
		Comments: []byte("hi"),
	}

	id, err := store.Save(testCtx(), r)
	require.NoError(t, err)

	got, err := store.Load(testCtx(), id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, r.Manifest, got.Manifest)
	assert.Equal(t, r.Comments, got.Comments)
}

func TestStoreNullFastPath(t *testing.T) {
	blobs := newFakeBlobStore()
	store := NewContentAddressedChangesetStore(blobs)

	got, err := store.Load(testCtx(), NullID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, NullID, got.Manifest)
	assert.Equal(t, 0, blobs.gets, "null id load must never touch the blob store")
}

func TestStoreLoadMiss(t *testing.T) {
	blobs := newFakeBlobStore()
	store := NewContentAddressedChangesetStore(blobs)

	got, err := store.Load(testCtx(), NodeHash{1, 2, 3})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStoreLoadHashMismatch(t *testing.T) {
	blobs := newFakeBlobStore()
	store := NewContentAddressedChangesetStore(blobs)

	r := &Record{Manifest: NodeHash{1}, User: []byte("u"), Comments: []byte("c")}
	id, err := store.Save(testCtx(), r)
	require.NoError(t, err)

	// corrupt the stored envelope's body directly, bypassing Save
	key := blobKey(id)
	env, err := unmarshalEnvelope(blobs.data[key])
	require.NoError(t, err)
	env.Body = append(env.Body, 'X')
	blobs.data[key] = marshalEnvelope(env)

	_, err = store.Load(testCtx(), id)
	assert.ErrorIs(t, err, ErrHashMismatch)
}

func TestStoreSaveIdempotent(t *testing.T) {
	blobs := newFakeBlobStore()
	store := NewContentAddressedChangesetStore(blobs)

	r := &Record{Manifest: NodeHash{3}, User: []byte("u"), Comments: []byte("c")}

	id1, err := store.Save(testCtx(), r)
	require.NoError(t, err)
	id2, err := store.Save(testCtx(), r)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, blobs.data[blobKey(id1)], blobs.data[blobKey(id2)])
}

func TestStoreSaveBatch(t *testing.T) {
	blobs := newFakeBlobStore()
	store := NewContentAddressedChangesetStore(blobs)

	records := make([]*Record, 0, 32)
	for i := 0; i < 32; i++ {
		records = append(records, &Record{
			Manifest: NodeHash{byte(i)},
			User:     []byte("dave"),
			Comments: []byte("batch"),
		})
	}

	ids, err := store.SaveBatch(testCtx(), records)
	require.NoError(t, err)
	require.Len(t, ids, len(records))

	for i, id := range ids {
		got, err := store.Load(testCtx(), id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, records[i].Manifest, got.Manifest)
	}
}

func TestRedactionFilterDeniesAccess(t *testing.T) {
	blobs := newFakeBlobStore()
	store := NewContentAddressedChangesetStore(blobs)

	r := &Record{Manifest: NodeHash{4}, User: []byte("u"), Comments: []byte("secret")}
	id, err := store.Save(testCtx(), r)
	require.NoError(t, err)

	filter := NewRedactionFilter(blobs, []RedactionEntry{{Key: blobKey(id), Reason: "legal hold"}})
	filteredStore := NewContentAddressedChangesetStore(filter)

	got, err := filteredStore.Load(testCtx(), id)
	require.NoError(t, err)
	assert.Nil(t, got, "redacted key must appear absent even though the blob exists")

	present, err := filter.IsPresent(testCtx(), blobKey(id))
	require.NoError(t, err)
	assert.False(t, present)

	// Put is unaffected by redaction.
	require.NoError(t, filter.Put(testCtx(), "other-key", []byte("v")))
	v, ok, err := blobs.Get(testCtx(), "other-key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}
