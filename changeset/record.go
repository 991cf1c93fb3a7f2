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
	"encoding/hex"

	"github.com/hgserve/vcscore/common"
)

// NodeHash is a 20-byte content-address, matching the legacy revlog node id
// format: SHA-1 over sorted parent hashes concatenated with a canonical body.
type NodeHash [common.NodeHashSize]byte

// NullID is the all-zero node hash denoting "no such changeset". It is never
// present as a key in a blob store.
var NullID NodeHash

// IsNull reports whether h is the all-zero node hash.
func (h NodeHash) IsNull() bool {
	return h == NullID
}

// String renders h as lowercase hex.
func (h NodeHash) String() string {
	return hex.EncodeToString(h[:])
}

// Less orders two node hashes lexicographically by their raw bytes, the
// ordering the node-hash rule sorts parents by.
func (h NodeHash) Less(other NodeHash) bool {
	for i := range h {
		if h[i] != other[i] {
			return h[i] < other[i]
		}
	}
	return false
}

// Record is an immutable changeset: two optional parents, a manifest hash,
// author/time metadata, an ordered file list, an extras mapping, and a
// free-form comment body.
type Record struct {
	P1 *NodeHash
	P2 *NodeHash

	Manifest NodeHash
	User     []byte

	Time     int64
	TZOffset int32

	// Extras keys must be unique; ordering is insertion-irrelevant, the
	// wire form is always key-sorted (see Serializer).
	Extras map[string][]byte

	Files    [][]byte
	Comments []byte
}

// parent returns p or NullID if p is nil, used when sorting/hashing parents
// that may be absent.
func parent(p *NodeHash) NodeHash {
	if p == nil {
		return NullID
	}
	return *p
}

// sortedParents returns (p1, p2) sorted lexicographically, substituting
// NullID for an absent parent. This is the order the node hash is computed
// over; it is independent of the caller-supplied order preserved in the
// envelope.
func (r *Record) sortedParents() (NodeHash, NodeHash) {
	a, b := parent(r.P1), parent(r.P2)
	if b.Less(a) {
		a, b = b, a
	}
	return a, b
}
