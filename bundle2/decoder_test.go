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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u32be(n uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, n)
	return b
}

func i32be(n int32) []byte {
	return u32be(uint32(n))
}

// encodeHeaderFrame wraps a header body (as built by encodeHeaderBody) with
// its 4-byte big-endian length prefix.
func encodeHeaderFrame(typ string, id uint32, mandatory, advisory map[string]string) []byte {
	body := encodeHeaderBody(typ, id, mandatory, advisory)
	return append(u32be(uint32(len(body))), body...)
}

func encodeChunk(payload []byte) []byte {
	return append(i32be(int32(len(payload))), payload...)
}

func encodeChunkTerminator() []byte {
	return i32be(0)
}

func encodeStreamTerminator() []byte {
	return u32be(0)
}

// drainAll feeds the full stream to a fresh cursor in one shot and pulls
// frames until StreamEnd or an error.
func drainAll(t *testing.T, d *OuterDecoder, stream []byte) ([]*OuterFrame, error) {
	t.Helper()
	cur := NewCursor()
	cur.Feed(stream)
	var frames []*OuterFrame
	for {
		f, err := d.Next(cur)
		if err != nil {
			return frames, err
		}
		if f == nil {
			return frames, nil // ran out of data mid-stream
		}
		frames = append(frames, f)
		if f.Kind == FrameStreamEnd {
			return frames, nil
		}
	}
}

// TestScenarioEmptyStream covers an empty stream: only the terminator is
// present, yielding a single StreamEnd frame.
func TestScenarioEmptyStream(t *testing.T) {
	stream := encodeStreamTerminator()

	d := NewOuterDecoder()
	frames, err := drainAll(t, d, stream)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, FrameStreamEnd, frames[0].Kind)
	assert.Equal(t, StateStreamEnded, d.State())
}

// TestScenarioUnknownAdvisoryPart covers a single advisory part whose type
// isn't registered: the header itself and its empty payload both surface as
// Discard frames, then the stream ends.
func TestScenarioUnknownAdvisoryPart(t *testing.T) {
	var stream []byte
	stream = append(stream, encodeHeaderFrame("x", 1, nil, nil)...)
	stream = append(stream, encodeChunkTerminator()...)
	stream = append(stream, encodeStreamTerminator()...)

	d := NewOuterDecoder()
	frames, err := drainAll(t, d, stream)
	require.NoError(t, err)
	require.Len(t, frames, 3)
	assert.Equal(t, FrameDiscard, frames[0].Kind)
	assert.Equal(t, FrameDiscard, frames[1].Kind)
	assert.Equal(t, FrameStreamEnd, frames[2].Kind)
}

// TestScenarioKnownPartTwoChunks covers a recognized part delivered across
// two payload chunks, matching the Header/Payload/Payload/PartEnd/StreamEnd
// sequence an upstream protocol consumer would expect.
func TestScenarioKnownPartTwoChunks(t *testing.T) {
	var stream []byte
	stream = append(stream, encodeHeaderFrame("changegroup", 1, nil, nil)...)
	stream = append(stream, encodeChunk([]byte("abc"))...)
	stream = append(stream, encodeChunk([]byte("defgh"))...)
	stream = append(stream, encodeChunkTerminator()...)
	stream = append(stream, encodeStreamTerminator()...)

	d := NewOuterDecoder()
	frames, err := drainAll(t, d, stream)
	require.NoError(t, err)
	require.Len(t, frames, 5)

	assert.Equal(t, FrameHeader, frames[0].Kind)
	assert.Equal(t, "changegroup", frames[0].Header.Type)

	assert.Equal(t, FramePayload, frames[1].Kind)
	assert.Equal(t, []byte("abc"), frames[1].Payload)

	assert.Equal(t, FramePayload, frames[2].Kind)
	assert.Equal(t, []byte("defgh"), frames[2].Payload)

	assert.Equal(t, FramePartEnd, frames[3].Kind)
	assert.Equal(t, FrameStreamEnd, frames[4].Kind)
}

// TestScenarioUnknownMandatoryPart covers a part type whose first letter is
// uppercase and unregistered: decoding the header must fail and put the
// decoder into DiscardingPayload so the stream can be resynchronized on the
// next terminator instead of the whole connection being torn down.
func TestScenarioUnknownMandatoryPart(t *testing.T) {
	header := encodeHeaderFrame("X", 1, nil, nil)

	d := NewOuterDecoder()
	cur := NewCursor()
	cur.Feed(header)

	f, err := d.Next(cur)
	assert.Nil(t, f)
	assert.ErrorIs(t, err, ErrUnknownMandatoryPart)
	assert.Equal(t, StateDiscardingPayload, d.State())

	cur.Feed(encodeChunkTerminator())
	f, err = d.Next(cur)
	require.NoError(t, err)
	assert.Equal(t, FrameDiscard, f.Kind)
	assert.Equal(t, StateAwaitHeader, d.State())
}

// TestDecoderDeterministicAcrossChunkSplits feeds the same logical byte
// stream to independent decoders in arbitrarily different slices and
// asserts the resulting frame sequences are identical, i.e. the decoder's
// output only depends on the bytes seen, not on how they were chunked by
// the transport.
func TestDecoderDeterministicAcrossChunkSplits(t *testing.T) {
	var stream []byte
	stream = append(stream, encodeHeaderFrame("changegroup", 9, map[string]string{"k": "v"}, nil)...)
	stream = append(stream, encodeChunk([]byte("payload-one"))...)
	stream = append(stream, encodeChunk([]byte("p2"))...)
	stream = append(stream, encodeChunkTerminator()...)
	stream = append(stream, encodeStreamTerminator()...)

	reference, err := drainAll(t, NewOuterDecoder(), stream)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 20; trial++ {
		d := NewOuterDecoder()
		cur := NewCursor()
		var frames []*OuterFrame
		remaining := stream
		for len(remaining) > 0 {
			n := 1 + rng.Intn(len(remaining))
			cur.Feed(remaining[:n])
			remaining = remaining[n:]
			for {
				f, err := d.Next(cur)
				require.NoError(t, err)
				if f == nil {
					break
				}
				frames = append(frames, f)
				if f.Kind == FrameStreamEnd {
					break
				}
			}
		}
		require.Len(t, frames, len(reference))
		for i := range reference {
			assert.Equal(t, reference[i].Kind, frames[i].Kind)
			assert.Equal(t, reference[i].Payload, frames[i].Payload)
		}
	}
}

// TestStreamEndIdempotent asserts that once a decoder reaches StreamEnded,
// further calls keep returning StreamEnd instead of erroring or blocking.
func TestStreamEndIdempotent(t *testing.T) {
	d := NewOuterDecoder()
	cur := NewCursor()
	cur.Feed(encodeStreamTerminator())

	for i := 0; i < 3; i++ {
		f, err := d.Next(cur)
		require.NoError(t, err)
		assert.Equal(t, FrameStreamEnd, f.Kind)
	}
}

// TestInvalidStateIsSticky asserts that a corrupt length field permanently
// fails the decoder: every subsequent call returns the same framing error
// without ever attempting to resynchronize.
func TestInvalidStateIsSticky(t *testing.T) {
	d := NewOuterDecoder()
	cur := NewCursor()
	cur.Feed(encodeHeaderFrame("changegroup", 1, nil, nil))
	cur.Feed(i32be(-2)) // invalid chunk length

	_, err := d.Next(cur) // header
	require.NoError(t, err)

	_, err = d.Next(cur) // corrupt chunk length
	assert.ErrorIs(t, err, ErrBundle2Decode)
	assert.Equal(t, StateInvalid, d.State())

	cur.Feed(encodeStreamTerminator())
	for i := 0; i < 3; i++ {
		_, err := d.Next(cur)
		assert.ErrorIs(t, err, ErrBundle2Decode)
		assert.Equal(t, StateInvalid, d.State())
	}
}

// TestNeedMoreDataLeavesCursorUntouched asserts the decoder never consumes
// a partial frame: feeding bytes one at a time must never desync the
// eventual result from feeding them all at once.
func TestNeedMoreDataLeavesCursorUntouched(t *testing.T) {
	stream := encodeHeaderFrame("changegroup", 1, nil, nil)

	d := NewOuterDecoder()
	cur := NewCursor()
	for i := 0; i < len(stream)-1; i++ {
		cur.Feed(stream[i : i+1])
		f, err := d.Next(cur)
		require.NoError(t, err)
		assert.Nil(t, f, "must not produce a frame before the full header arrives")
	}
	cur.Feed(stream[len(stream)-1:])
	f, err := d.Next(cur)
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, FrameHeader, f.Kind)
}
