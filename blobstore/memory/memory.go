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

// Package memory implements changeset.BlobStore over an in-process sync.Map,
// for tests and single-node deployments where durability across restarts
// does not matter.
package memory

import (
	"bytes"
	"sync"

	"github.com/golang/snappy"

	"github.com/hgserve/vcscore/changeset"
)

// Store is an in-memory changeset.BlobStore. Values are snappy-compressed
// before being held, trading a little CPU for materially less resident
// memory on large envelopes.
type Store struct {
	m sync.Map // string -> []byte (snappy-compressed)
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

func (s *Store) Get(_ *changeset.Ctx, key string) ([]byte, bool, error) {
	v, ok := s.m.Load(key)
	if !ok {
		return nil, false, nil
	}
	decoded, err := snappy.Decode(nil, v.([]byte))
	if err != nil {
		return nil, false, err
	}
	return decoded, true, nil
}

func (s *Store) Put(ctx *changeset.Ctx, key string, value []byte) error {
	encoded := snappy.Encode(nil, value)
	if prev, loaded := s.m.Load(key); loaded {
		prevDecoded, err := snappy.Decode(nil, prev.([]byte))
		if err == nil && !bytes.Equal(prevDecoded, value) {
			ctx.Logger.Warnf("blobstore/memory: overwrite of %q with differing bytes", key)
		}
	}
	s.m.Store(key, encoded)
	return nil
}

func (s *Store) IsPresent(_ *changeset.Ctx, key string) (bool, error) {
	_, ok := s.m.Load(key)
	return ok, nil
}

func (s *Store) AssertPresent(_ *changeset.Ctx, key string) error {
	if _, ok := s.m.Load(key); !ok {
		return errNotPresent(key)
	}
	return nil
}

func errNotPresent(key string) error {
	return &notPresentError{key: key}
}

type notPresentError struct{ key string }

func (e *notPresentError) Error() string {
	return "blobstore/memory: key not present: " + e.key
}
