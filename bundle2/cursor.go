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

import "encoding/binary"

// ErrUnderflow 表示缓冲区内字节数不足以完成本次读取
//
// 这不是一个致命错误 调用方应当保留已有数据 等待更多字节到达后重试
var ErrUnderflow = newError("underflow: not enough buffered bytes")

// Cursor 是一个可增长的字节缓冲区 提供 peek/split 语义的拉式解析原语
// Feed 在尾部追加字节 DrainI32BE/SplitTo 从头部移除已消费的字节
//
// Cursor 本身不做任何 I/O 它只负责在一个不断被 Feed 追加的缓冲区上
// 做无拷贝的前瞻读取 (Peek) 以及有拷贝的切割读取 (SplitTo)
type Cursor struct {
	buf []byte
}

// NewCursor 创建一个空 Cursor
func NewCursor() *Cursor {
	return &Cursor{}
}

// Feed 向缓冲区尾部追加新到达的字节
func (c *Cursor) Feed(p []byte) {
	c.buf = append(c.buf, p...)
}

// Len 返回当前缓冲区内尚未消费的字节数
func (c *Cursor) Len() int {
	return len(c.buf)
}

// PeekU32BE 在不消费数据的前提下读取前 4 字节 按大端解释为 uint32
//
// 缓冲区不足 4 字节时返回 ErrUnderflow 且不改变缓冲区
func (c *Cursor) PeekU32BE() (uint32, error) {
	if len(c.buf) < 4 {
		return 0, ErrUnderflow
	}
	return binary.BigEndian.Uint32(c.buf[:4]), nil
}

// PeekI32BE 与 PeekU32BE 相同 但按有符号整数解释
func (c *Cursor) PeekI32BE() (int32, error) {
	u, err := c.PeekU32BE()
	if err != nil {
		return 0, err
	}
	return int32(u), nil
}

// DrainI32BE 消费前 4 字节 按大端有符号整数返回
//
// 调用方必须自行保证缓冲区内至少有 4 字节 (通常先调用 PeekI32BE 判定)
// 缓冲区不足属于编程错误而非运行时条件 这里选择 panic 而不是返回 error
func (c *Cursor) DrainI32BE() int32 {
	v := int32(binary.BigEndian.Uint32(c.buf[:4]))
	c.buf = c.buf[4:]
	return v
}

// SplitTo 切下缓冲区前 n 字节并返回给调用方持有
//
// 返回的切片是一份独立拷贝 调用方可以自由修改或长期持有而不影响 Cursor
// 与 DrainI32BE 一样 n > Len() 是编程错误 调用方需先行校验长度
func (c *Cursor) SplitTo(n int) []byte {
	out := make([]byte, n)
	copy(out, c.buf[:n])
	c.buf = c.buf[n:]
	return out
}

// Bytes 返回当前缓冲区剩余字节的只读视图 不消费
func (c *Cursor) Bytes() []byte {
	return c.buf
}
