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

// OuterDecoder 把一段不断增长的字节缓冲区解析为 OuterFrame 事件序列
//
// 契约 (与协议的上层消费者之间): 给定一个 Cursor 要么返回下一帧并消费掉
// 对应字节 要么返回"数据不足"且完全不触碰缓冲区 解码器从不阻塞在 I/O 上
// 阻塞/读取调度完全是调用方的职责
//
// OuterDecoder 本身不是并发安全的 每条流应当拥有自己的解码器实例
type OuterDecoder struct {
	codec *PartHeaderCodec
	state OuterState

	curType string
	curID   uint32
}

// NewOuterDecoder 创建一个使用默认 PartHeaderCodec 的解码器
func NewOuterDecoder() *OuterDecoder {
	return NewOuterDecoderWithCodec(NewPartHeaderCodec())
}

// NewOuterDecoderWithCodec 创建一个使用指定 PartHeaderCodec 的解码器
func NewOuterDecoderWithCodec(codec *PartHeaderCodec) *OuterDecoder {
	return &OuterDecoder{codec: codec, state: StateAwaitHeader}
}

// State 返回解码器当前状态 主要用于测试/可观测性
func (d *OuterDecoder) State() OuterState {
	return d.state
}

// Next 尝试从 cur 中解析出下一帧
//
// 返回 (nil, nil) 代表数据不足 cur 未被修改 调用方应补充数据后重试
func (d *OuterDecoder) Next(cur *Cursor) (*OuterFrame, error) {
	switch d.state {
	case StateStreamEnded:
		return &OuterFrame{Kind: FrameStreamEnd}, nil

	case StateInvalid:
		return nil, ErrBundle2Decode

	case StateAwaitHeader:
		return d.nextAwaitHeader(cur)

	case StateInPayload, StateDiscardingPayload:
		return d.nextChunk(cur)
	}
	// unreachable
	return nil, ErrBundle2Decode
}

func (d *OuterDecoder) nextAwaitHeader(cur *Cursor) (*OuterFrame, error) {
	headerLen, err := cur.PeekU32BE()
	if err != nil {
		return nil, nil // need more data
	}

	if headerLen == 0 {
		// 消费掉这 4 字节长度字段 流终止哨兵
		cur.SplitTo(4)
		d.state = StateStreamEnded
		return &OuterFrame{Kind: FrameStreamEnd}, nil
	}

	if cur.Len() < 4+int(headerLen) {
		return nil, nil // need more data, 不触碰缓冲区
	}

	cur.SplitTo(4) // 消费长度字段
	body := cur.SplitTo(int(headerLen))

	hdr, err := d.codec.Decode(body)
	if err != nil {
		if isFramingError(err) {
			d.state = StateInvalid
		} else {
			// 应用层错误 (重复参数键等): 转入 discard 以便上层重新同步
			d.curType, d.curID = "", 0
			d.state = StateDiscardingPayload
		}
		return nil, err
	}

	recognized, err := Recognize(hdr)
	if err != nil {
		// 未识别的 mandatory part
		d.curType, d.curID = hdr.Type, hdr.ID
		d.state = StateDiscardingPayload
		return nil, err
	}

	if recognized == nil {
		// 未识别的 advisory part: header 本身即被丢弃
		d.curType, d.curID = hdr.Type, hdr.ID
		d.state = StateDiscardingPayload
		return &OuterFrame{Kind: FrameDiscard, PartType: hdr.Type, PartID: hdr.ID}, nil
	}

	d.curType, d.curID = hdr.Type, hdr.ID
	d.state = StateInPayload
	return &OuterFrame{Kind: FrameHeader, Header: hdr, PartType: hdr.Type, PartID: hdr.ID}, nil
}

func (d *OuterDecoder) nextChunk(cur *Cursor) (*OuterFrame, error) {
	totalLen, err := cur.PeekI32BE()
	if err != nil {
		return nil, nil // need more data
	}

	discarding := d.state == StateDiscardingPayload

	switch {
	case totalLen == -1:
		// 保留标记: 当前实现仅透传 不做消费以外的处理
		if cur.Len() < 4 {
			return nil, nil
		}
		cur.SplitTo(4)
		return &OuterFrame{Kind: FrameInterrupted, PartType: d.curType, PartID: d.curID}, nil

	case totalLen < -1:
		d.state = StateInvalid
		return nil, ErrBundle2Decode

	case totalLen == 0:
		if cur.Len() < 4 {
			return nil, nil
		}
		cur.SplitTo(4)
		pt, pid := d.curType, d.curID
		d.state = StateAwaitHeader
		d.curType, d.curID = "", 0
		if discarding {
			return &OuterFrame{Kind: FrameDiscard, PartType: pt, PartID: pid}, nil
		}
		return &OuterFrame{Kind: FramePartEnd, PartType: pt, PartID: pid}, nil

	default:
		n := int(totalLen)
		if cur.Len() < 4+n {
			return nil, nil // need more data, 不消费已 peek 的长度
		}
		cur.SplitTo(4)
		payload := cur.SplitTo(n)
		if discarding {
			return &OuterFrame{Kind: FrameDiscard, PartType: d.curType, PartID: d.curID, Payload: payload}, nil
		}
		return &OuterFrame{Kind: FramePayload, PartType: d.curType, PartID: d.curID, Payload: payload}, nil
	}
}

// isFramingError 区分"帧结构损坏" (应让解码器进入 Invalid) 与
// "应用层可恢复错误" (应转入 DiscardingPayload 以便重新同步)
func isFramingError(err error) bool {
	return err == ErrBundle2Decode || err == ErrParamValueTooLarge
}
