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

package sigs

import (
	"os"
	"os/signal"
	"syscall"
)

// Terminate returns a channel that fires once on SIGINT/SIGTERM. cmd/serve.go
// selects on it alongside Reload in its main run loop to drain in-flight
// requests before exiting.
func Terminate() chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	return ch
}

// Reload returns a channel that fires on SIGHUP. cmd/serve.go uses it to
// re-read the redaction set from the config file on disk without dropping
// the listening socket or any in-flight bundle2 decode.
func Reload() chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGHUP)
	return ch
}

// SelfReload raises SIGHUP against the current process, driving the same
// path Reload's channel would on an operator-sent signal. The
// /v1/admin/reload HTTP route uses this so a reload can be triggered
// without shell access to the host.
func SelfReload() error {
	return syscall.Kill(syscall.Getpid(), syscall.SIGHUP)
}
