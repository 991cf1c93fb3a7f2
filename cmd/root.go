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

// Package cmd assembles the vcscore command-line surface.
package cmd

import (
	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"

	"github.com/hgserve/vcscore/common"
)

var rootCmd = &cobra.Command{
	Use:     "vcscore",
	Short:   "Bundle2 ingest and content-addressed changeset store",
	Version: common.GetBuildInfo().String(),
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}
