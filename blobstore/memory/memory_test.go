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

package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hgserve/vcscore/changeset"
	"github.com/hgserve/vcscore/logger"
)

func testCtx() *changeset.Ctx {
	return changeset.NewCtx(context.Background(), logger.New(logger.Options{Stdout: true}))
}

func TestStorePutGetRoundTrip(t *testing.T) {
	s := New()
	require.NoError(t, s.Put(testCtx(), "k", []byte("hello")))

	v, ok, err := s.Get(testCtx(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("hello"), v)
}

func TestStoreGetMiss(t *testing.T) {
	s := New()
	_, ok, err := s.Get(testCtx(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreIsPresentAndAssertPresent(t *testing.T) {
	s := New()
	require.NoError(t, s.Put(testCtx(), "k", []byte("v")))

	ok, err := s.IsPresent(testCtx(), "k")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, s.AssertPresent(testCtx(), "k"))
	assert.Error(t, s.AssertPresent(testCtx(), "missing"))
}
