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
	"compress/bzip2"
	"compress/gzip"
	"io"

	"github.com/klauspost/compress/zstd"
)

// CompressionKind 是流头部声明的压缩算法标识
type CompressionKind string

const (
	CompressionNone CompressionKind = ""
	CompressionGZ   CompressionKind = "GZ"
	CompressionBZ   CompressionKind = "BZ"
	CompressionZS   CompressionKind = "ZS"
)

// NewDecompressingSource 在传输层与 OuterDecoder 之间插入一个透明的解压适配器
//
// 压缩算法的选择只会在流头部发生一次 中途切换不受支持 —— 调用方应当在流
// 打开时调用一次本函数 并在整条流的生命周期内复用返回的 io.Reader
//
// 这里只是把标准库/生态中已有的解压器接到同一个声明式接口后面 具体压缩
// 算法本身的正确性由各自的实现保证 不在这个适配层重复校验
func NewDecompressingSource(r io.Reader, kind CompressionKind) (io.Reader, error) {
	switch kind {
	case CompressionNone:
		return r, nil
	case CompressionGZ:
		return gzip.NewReader(r)
	case CompressionBZ:
		return bzip2.NewReader(r), nil
	case CompressionZS:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return &zstdReadCloser{dec}, nil
	default:
		return nil, ErrUnknownCompression
	}
}

// zstdReadCloser 适配 *zstd.Decoder 到普通 io.Reader 调用习惯
//
// zstd.Decoder.Close 不返回 error 这里包一层避免调用方需要区分处理
type zstdReadCloser struct {
	dec *zstd.Decoder
}

func (z *zstdReadCloser) Read(p []byte) (int, error) {
	return z.dec.Read(p)
}

func (z *zstdReadCloser) Close() {
	z.dec.Close()
}
