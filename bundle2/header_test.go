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

package bundle2

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeHeaderBody builds a raw header body (everything after the 4-byte
// outer length) for the given type/id/params, matching §4.2's byte layout.
func encodeHeaderBody(typ string, id uint32, mandatory, advisory map[string]string) []byte {
	var b []byte
	b = append(b, byte(len(typ)))
	b = append(b, []byte(typ)...)

	idb := make([]byte, 4)
	binary.BigEndian.PutUint32(idb, id)
	b = append(b, idb...)

	b = append(b, byte(len(mandatory)), byte(len(advisory)))

	appendPairs := func(m map[string]string) {
		for k, v := range m {
			b = append(b, byte(len(k)))
			vl := make([]byte, 4)
			binary.BigEndian.PutUint32(vl, uint32(len(v)))
			b = append(b, vl...)
			_ = v
			_ = k
		}
	}
	// must emit key_len/value_len pairs first, then key/value bytes, in a
	// single consistent order since maps have no defined iteration order
	var keys []string
	for k := range mandatory {
		keys = append(keys, k)
	}
	var akeys []string
	for k := range advisory {
		akeys = append(akeys, k)
	}
	_ = appendPairs

	for _, k := range keys {
		v := mandatory[k]
		b = append(b, byte(len(k)))
		vl := make([]byte, 4)
		binary.BigEndian.PutUint32(vl, uint32(len(v)))
		b = append(b, vl...)
	}
	for _, k := range akeys {
		v := advisory[k]
		b = append(b, byte(len(k)))
		vl := make([]byte, 4)
		binary.BigEndian.PutUint32(vl, uint32(len(v)))
		b = append(b, vl...)
	}
	for _, k := range keys {
		b = append(b, []byte(k)...)
		b = append(b, []byte(mandatory[k])...)
	}
	for _, k := range akeys {
		b = append(b, []byte(k)...)
		b = append(b, []byte(advisory[k])...)
	}
	return b
}

func TestPartHeaderCodecDecode(t *testing.T) {
	body := encodeHeaderBody("changegroup", 7, map[string]string{"nbchanges": "3"}, map[string]string{"note": "hi"})

	c := NewPartHeaderCodec()
	hdr, err := c.Decode(body)
	require.NoError(t, err)
	assert.Equal(t, "changegroup", hdr.Type)
	assert.Equal(t, uint32(7), hdr.ID)
	assert.Equal(t, []byte("3"), hdr.Mandatory["nbchanges"])
	assert.Equal(t, []byte("hi"), hdr.Advisory["note"])
}

func TestPartHeaderCodecDuplicateKey(t *testing.T) {
	// build by hand: two advisory params sharing a key
	body := []byte{1, 'x', 0, 0, 0, 7, 0, 2}
	// key_len/value_len pairs: ("a", 1), ("a", 1)
	body = append(body, 1, 0, 0, 0, 1)
	body = append(body, 1, 0, 0, 0, 1)
	// key/value bytes
	body = append(body, 'a', '1')
	body = append(body, 'a', '2')

	c := NewPartHeaderCodec()
	_, err := c.Decode(body)
	assert.ErrorIs(t, err, ErrDuplicateParamKey)
}

func TestPartHeaderCodecTruncated(t *testing.T) {
	c := NewPartHeaderCodec()
	_, err := c.Decode([]byte{5, 'a', 'b'}) // claims 5 bytes of type name, only 2 present
	assert.ErrorIs(t, err, ErrBundle2Decode)
}

func TestPartHeaderCodecValueTooLarge(t *testing.T) {
	body := []byte{1, 'x', 0, 0, 0, 1, 1, 0}
	body = append(body, 1) // key_len=1
	vl := make([]byte, 4)
	binary.BigEndian.PutUint32(vl, 1<<20)
	body = append(body, vl...) // value_len = 1MiB
	body = append(body, 'k')
	body = append(body, make([]byte, 10)...) // not enough bytes to satisfy 1MiB anyway, but cap check runs first

	c := &PartHeaderCodec{MaxParamValueLen: 4}
	_, err := c.Decode(body)
	assert.ErrorIs(t, err, ErrParamValueTooLarge)
}

func TestMandatoriness(t *testing.T) {
	assert.True(t, (&PartHeader{Type: "X"}).Mandatoriness())
	assert.False(t, (&PartHeader{Type: "x"}).Mandatoriness())
}

func TestRecognizeKnown(t *testing.T) {
	hdr := &PartHeader{Type: "changegroup"}
	got, err := Recognize(hdr)
	assert.NoError(t, err)
	assert.Same(t, hdr, got)
}

func TestRecognizeUnknownAdvisory(t *testing.T) {
	hdr := &PartHeader{Type: "x"}
	got, err := Recognize(hdr)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRecognizeUnknownMandatory(t *testing.T) {
	hdr := &PartHeader{Type: "X"}
	_, err := Recognize(hdr)
	assert.ErrorIs(t, err, ErrUnknownMandatoryPart)
}
