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
	"bytes"
	"compress/gzip"
	"io"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDecompressingSourceNone(t *testing.T) {
	src := bytes.NewReader([]byte("raw bytes"))
	r, err := NewDecompressingSource(src, CompressionNone)
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "raw bytes", string(got))
}

func TestNewDecompressingSourceGZ(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte("hello gzip"))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	r, err := NewDecompressingSource(&buf, CompressionGZ)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello gzip", string(got))
}

func TestNewDecompressingSourceZS(t *testing.T) {
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = zw.Write([]byte("hello zstd"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	r, err := NewDecompressingSource(&buf, CompressionZS)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello zstd", string(got))
}

func TestNewDecompressingSourceUnknown(t *testing.T) {
	_, err := NewDecompressingSource(bytes.NewReader(nil), CompressionKind("ZZ"))
	assert.ErrorIs(t, err, ErrUnknownCompression)
}
