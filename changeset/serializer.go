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
	"bytes"
	"encoding/hex"
	"sort"
	"strconv"

	"github.com/valyala/bytebufferpool"
)

// Serializer produces and parses the canonical textual changeset body. The
// byte output is part of the content-address hash input, so it must be
// deterministic: identical field values always produce identical bytes.
type Serializer struct{}

// NewSerializer returns a Serializer. It holds no state; a single value may
// be shared across goroutines.
func NewSerializer() *Serializer {
	return &Serializer{}
}

var bodyBufPool bytebufferpool.Pool

// Encode renders r's canonical textual body.
func (Serializer) Encode(r *Record) []byte {
	buf := bodyBufPool.Get()
	defer bodyBufPool.Put(buf)
	buf.Reset()

	buf.WriteString(r.Manifest.String())
	buf.WriteByte('\n')

	buf.Write(r.User)
	buf.WriteByte('\n')

	buf.WriteString(strconv.FormatInt(r.Time, 10))
	buf.WriteByte(' ')
	buf.WriteString(strconv.FormatInt(int64(r.TZOffset), 10))
	if len(r.Extras) > 0 {
		buf.WriteByte(' ')
		buf.Write(encodeExtras(r.Extras))
	}
	buf.WriteByte('\n')

	for _, f := range r.Files {
		buf.Write(f)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')

	buf.Write(r.Comments)

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out
}

// Decode parses a canonical body back into a Record. The parents are left
// nil; callers that need the full record (rather than just the body)
// populate them separately from the envelope, since parents are not part of
// the textual body.
func (Serializer) Decode(body []byte) (*Record, error) {
	lines := bytes.SplitN(body, []byte{'\n'}, 4)
	if len(lines) < 4 {
		return nil, newError("truncated changeset body: expected at least 4 newline-delimited sections")
	}

	manifestHex, userLine, metaLine, rest := lines[0], lines[1], lines[2], lines[3]

	var manifest NodeHash
	if len(manifestHex) != hex.EncodedLen(len(manifest)) {
		return nil, newError("invalid manifest hex: expected %d chars, got %d", hex.EncodedLen(len(manifest)), len(manifestHex))
	}
	if _, err := hex.Decode(manifest[:], manifestHex); err != nil {
		return nil, newError("invalid manifest hex: %v", err)
	}

	metaParts := bytes.SplitN(metaLine, []byte{' '}, 3)
	if len(metaParts) < 2 {
		return nil, newError("malformed time/tz/extras line")
	}
	tm, err := strconv.ParseInt(string(metaParts[0]), 10, 64)
	if err != nil {
		return nil, newError("invalid commit time: %v", err)
	}
	tz, err := strconv.ParseInt(string(metaParts[1]), 10, 32)
	if err != nil {
		return nil, newError("invalid tz offset: %v", err)
	}
	var extras map[string][]byte
	if len(metaParts) == 3 {
		extras, err = decodeExtras(metaParts[2])
		if err != nil {
			return nil, err
		}
	}

	// rest is: path-1\n ... path-N\n \n comments. File paths cannot be told
	// apart from the trailing blank-line separator by splitting alone
	// (comments may themselves contain arbitrary newlines), so scan line by
	// line until the first empty line, then take everything after it
	// verbatim as comments.
	var files [][]byte
	remaining := rest
	for {
		idx := bytes.IndexByte(remaining, '\n')
		if idx < 0 {
			return nil, newError("changeset body missing blank line before comments")
		}
		line := remaining[:idx]
		remaining = remaining[idx+1:]
		if len(line) == 0 {
			break
		}
		files = append(files, append([]byte(nil), line...))
	}
	comments := remaining

	return &Record{
		Manifest: manifest,
		User:     append([]byte(nil), userLine...),
		Time:     tm,
		TZOffset: int32(tz),
		Extras:   extras,
		Files:    files,
		Comments: append([]byte(nil), comments...),
	}, nil
}

func encodeExtras(extras map[string][]byte) []byte {
	keys := make([]string, 0, len(extras))
	for k := range extras {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(0)
		}
		buf.Write(escapeExtra([]byte(k)))
		buf.WriteByte(':')
		buf.Write(escapeExtra(extras[k]))
	}
	return buf.Bytes()
}

func decodeExtras(blob []byte) (map[string][]byte, error) {
	extras := map[string][]byte{}
	for _, entry := range bytes.Split(blob, []byte{0}) {
		i := bytes.IndexByte(entry, ':')
		if i < 0 {
			return nil, newError("malformed extras entry %q: missing ':'", entry)
		}
		k := unescapeExtra(entry[:i])
		v := unescapeExtra(entry[i+1:])
		extras[string(k)] = v
	}
	return extras, nil
}

func escapeExtra(b []byte) []byte {
	var out bytes.Buffer
	for _, c := range b {
		switch c {
		case '\\':
			out.WriteString(`\\`)
		case 0:
			out.WriteString(`\0`)
		case '\n':
			out.WriteString(`\n`)
		case '\r':
			out.WriteString(`\r`)
		default:
			out.WriteByte(c)
		}
	}
	return out.Bytes()
}

func unescapeExtra(b []byte) []byte {
	var out bytes.Buffer
	for i := 0; i < len(b); i++ {
		if b[i] == '\\' && i+1 < len(b) {
			switch b[i+1] {
			case '\\':
				out.WriteByte('\\')
				i++
				continue
			case '0':
				out.WriteByte(0)
				i++
				continue
			case 'n':
				out.WriteByte('\n')
				i++
				continue
			case 'r':
				out.WriteByte('\r')
				i++
				continue
			}
		}
		out.WriteByte(b[i])
	}
	return out.Bytes()
}
