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

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hgserve/vcscore/bundle2"
	"github.com/hgserve/vcscore/common"
)

var decodeBundle2File string

var decodeBundle2Cmd = &cobra.Command{
	Use:   "decode-bundle2",
	Short: "Decode a bundle2 stream from a file and print its frame sequence",
	Run: func(cmd *cobra.Command, args []string) {
		f, err := os.Open(decodeBundle2File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()

		dec := bundle2.NewOuterDecoder()
		cur := bundle2.NewCursor()
		block := make([]byte, common.ReadBlockSize)

		for {
			frame, err := dec.Next(cur)
			if err != nil {
				fmt.Fprintf(os.Stderr, "decode error: %v (state=%d)\n", err, dec.State())
				os.Exit(1)
			}
			if frame == nil {
				n, rerr := f.Read(block)
				if n > 0 {
					cur.Feed(block[:n])
				}
				if rerr == io.EOF {
					fmt.Fprintln(os.Stderr, "stream ended without a terminator")
					os.Exit(1)
				}
				if rerr != nil {
					fmt.Fprintf(os.Stderr, "read error: %v\n", rerr)
					os.Exit(1)
				}
				continue
			}

			printFrame(frame)
			if frame.Kind == bundle2.FrameStreamEnd {
				return
			}
		}
	},
	Example: "# vcscore decode-bundle2 --file stream.bundle2",
}

func printFrame(f *bundle2.OuterFrame) {
	name := f.Kind.String()
	switch f.Kind {
	case bundle2.FrameHeader:
		fmt.Printf("%s type=%s id=%d\n", name, f.PartType, f.PartID)
	case bundle2.FramePayload, bundle2.FrameDiscard:
		fmt.Printf("%s type=%s id=%d bytes=%d\n", name, f.PartType, f.PartID, len(f.Payload))
	case bundle2.FramePartEnd, bundle2.FrameInterrupted:
		fmt.Printf("%s type=%s id=%d\n", name, f.PartType, f.PartID)
	default:
		fmt.Println(name)
	}
}

func init() {
	decodeBundle2Cmd.Flags().StringVar(&decodeBundle2File, "file", "", "Path to a bundle2 stream file")
	_ = decodeBundle2Cmd.MarkFlagRequired("file")
	rootCmd.AddCommand(decodeBundle2Cmd)
}
