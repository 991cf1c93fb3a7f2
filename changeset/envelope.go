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
	"github.com/gogo/protobuf/proto"
)

// EnvelopeTag identifies the wire encoding of the on-disk {parents, body}
// container. Changing the encoding requires a new tag, since every
// content-addressed key embeds it.
const EnvelopeTag = "v1"

// envelope is the persisted wrapper around a changeset body: the two
// parents in caller-supplied order (not sorted, unlike the hash input) and
// the canonical textual body.
type envelope struct {
	P1   NodeHash
	P2   NodeHash
	Body []byte
}

// marshalEnvelope encodes e as three length-delimited fields using
// protobuf's wire-primitive Buffer rather than a bespoke binary layout:
// p1, p2, body, each a raw-bytes field prefixed with its varint length.
func marshalEnvelope(e *envelope) []byte {
	buf := proto.NewBuffer(nil)
	_ = buf.EncodeRawBytes(e.P1[:])
	_ = buf.EncodeRawBytes(e.P2[:])
	_ = buf.EncodeRawBytes(e.Body)
	return buf.Bytes()
}

// unmarshalEnvelope is the inverse of marshalEnvelope.
func unmarshalEnvelope(data []byte) (*envelope, error) {
	buf := proto.NewBuffer(data)

	p1, err := buf.DecodeRawBytes(true)
	if err != nil {
		return nil, newError("envelope: decode p1: %v", err)
	}
	p2, err := buf.DecodeRawBytes(true)
	if err != nil {
		return nil, newError("envelope: decode p2: %v", err)
	}
	body, err := buf.DecodeRawBytes(true)
	if err != nil {
		return nil, newError("envelope: decode body: %v", err)
	}
	if len(p1) != len(NullID) || len(p2) != len(NullID) {
		return nil, newError("envelope: malformed parent hash length")
	}

	e := &envelope{Body: body}
	copy(e.P1[:], p1)
	copy(e.P2[:], p2)
	return e, nil
}
