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

// FrameKind 标识 OuterFrame 携带的事件类型
type FrameKind uint8

const (
	// FrameHeader 一个新的 part 头部已被识别
	FrameHeader FrameKind = iota
	// FramePayload 已识别 part 的一个 payload chunk 已被读出 (discard 路径改为发出 FrameDiscard)
	FramePayload
	// FramePartEnd 当前 part 的 payload 已读完 (零长度 chunk 作为终止符)
	FramePartEnd
	// FrameDiscard 被丢弃的内容: 未识别 advisory part 的 header 本身 以及
	// DiscardingPayload 状态下读出的每个 payload chunk (包括其终止符)
	FrameDiscard
	// FrameStreamEnd 流终止哨兵已读到
	FrameStreamEnd
	// FrameInterrupted 读到了 total_len == -1 的中断标记
	//
	// 这是一个保留值 上层协议目前没有定义任何处理语义 这里选择显式地
	// 把它作为一帧事件暴露给调用方 而不是静默吞掉
	FrameInterrupted
)

var frameKindNames = [...]string{
	FrameHeader:      "header",
	FramePayload:     "payload",
	FramePartEnd:     "part_end",
	FrameDiscard:     "discard",
	FrameStreamEnd:   "stream_end",
	FrameInterrupted: "interrupted",
}

// String renders k using the same lowercase names across every consumer of
// this package, rather than each caller maintaining its own mapping.
func (k FrameKind) String() string {
	if int(k) < len(frameKindNames) {
		return frameKindNames[k]
	}
	return "unknown"
}

// OuterFrame 是 OuterDecoder 向上层协议暴露的单个事件
type OuterFrame struct {
	Kind FrameKind

	// Header 仅在 Kind == FrameHeader 时有效
	Header *PartHeader

	// PartType/PartID 在 Payload/PartEnd/Discard/Interrupted 时有效
	PartType string
	PartID   uint32

	// Payload 仅在 Kind == FramePayload 或 FrameDiscard 且携带数据时有效
	Payload []byte
}

// OuterState 是 OuterDecoder 的内部状态
type OuterState uint8

const (
	// StateAwaitHeader 等待下一个 part 的 header (或流终止哨兵)
	StateAwaitHeader OuterState = iota
	// StateInPayload 正在读取一个已识别 part 的 payload chunk
	StateInPayload
	// StateDiscardingPayload 正在丢弃当前 part 的 payload chunk: 未识别的 advisory
	// part 以及 header 返回应用层错误 (未识别 mandatory part/重复参数键) 的 part
	StateDiscardingPayload
	// StateStreamEnded 流已经正常终止 后续调用恒定返回 StreamEnd
	StateStreamEnded
	// StateInvalid 流已经被判定为损坏 后续调用恒定返回 Corrupt 错误
	StateInvalid
)
