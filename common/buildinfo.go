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

package common

import "fmt"

// BuildInfo holds the version metadata stamped into the binary at build
// time via -ldflags, surfaced through `vcscore --version`.
type BuildInfo struct {
	Version string
	GitHash string
	Time    string
}

// String renders the form cobra's Command.Version field expects:
// "<version> (<git hash>, built <time>)".
func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (%s, built %s)", b.Version, b.GitHash, b.Time)
}

var (
	buildVersion string
	buildTime    string
	buildHash    string
)

// GetBuildInfo assembles BuildInfo from the package-level vars -ldflags
// writes into at link time (e.g. -X common.buildVersion=v1.2.3).
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version: buildVersion,
		GitHash: buildHash,
		Time:    buildTime,
	}
}
