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

import "github.com/pkg/errors"

func newError(format string, args ...any) error {
	format = "changeset: " + format
	return errors.Errorf(format, args...)
}

var (
	// ErrHashMismatch is returned by Load when the recomputed node hash of
	// a loaded envelope does not match the requested id.
	ErrHashMismatch = newError("recomputed hash does not match requested id")

	// ErrRedactedBlob names the "blob key is redacted" error kind.
	// RedactionFilter does not return it: Get and IsPresent report a
	// redacted key as a plain miss, AssertPresent fails with a not-found
	// error, and the denial itself is recorded only in the audit log.
	ErrRedactedBlob = newError("blob key is redacted")

	// ErrBlobStoreIO wraps backend failures that are not this package's to
	// interpret or retry.
	ErrBlobStoreIO = newError("blob store operation failed")
)
