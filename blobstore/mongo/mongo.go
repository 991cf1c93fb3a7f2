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

// Package mongo implements changeset.BlobStore over a MongoDB collection,
// one document per content-addressed key.
package mongo

import (
	"bytes"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hgserve/vcscore/changeset"
)

// document is the on-disk shape of a single envelope: _id is the
// content-addressed blob key, Data is the raw envelope bytes.
type document struct {
	ID   string `bson:"_id"`
	Data []byte `bson:"data"`
}

// Store is a changeset.BlobStore backed by a single MongoDB collection.
type Store struct {
	coll *mongo.Collection
}

// New wraps an existing collection handle. Callers own the client's
// lifecycle (connect/disconnect); Store only issues CRUD operations.
func New(coll *mongo.Collection) *Store {
	return &Store{coll: coll}
}

func (s *Store) Get(ctx *changeset.Ctx, key string) ([]byte, bool, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	switch {
	case err == mongo.ErrNoDocuments:
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return doc.Data, true, nil
}

func (s *Store) Put(ctx *changeset.Ctx, key string, value []byte) error {
	existing, present, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if present && !bytes.Equal(existing, value) {
		ctx.Logger.Warnf("blobstore/mongo: overwrite of %q with differing bytes", key)
	}

	opts := options.Replace().SetUpsert(true)
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": key}, document{ID: key, Data: value}, opts)
	return err
}

func (s *Store) IsPresent(ctx *changeset.Ctx, key string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"_id": key}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) AssertPresent(ctx *changeset.Ctx, key string) error {
	ok, err := s.IsPresent(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return mongo.ErrNoDocuments
	}
	return nil
}
