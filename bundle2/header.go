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
	"encoding/binary"
)

// DefaultMaxParamValueLen 是头部参数值长度的默认上限
//
// 线上协议用 u32 表示参数值长度 理论上限接近 4GiB 这里选择一个保守的
// 默认值 并允许调用方通过 PartHeaderCodec.MaxParamValueLen 覆盖
const DefaultMaxParamValueLen = 64 << 20 // 64 MiB

// PartHeader 描述一个 bundle2 part 的头部
type PartHeader struct {
	// Type 是 part 的符号类型名 大小写敏感
	//
	// 首字母大写代表 mandatory part 小写代表 advisory part
	Type string

	// ID 是该 part 在流内的编号
	ID uint32

	// Mandatory/Advisory 分别是强制/建议参数表 保留声明顺序无关紧要
	// 但键在各自分组内必须唯一
	Mandatory map[string][]byte
	Advisory  map[string][]byte
}

// Mandatoriness 返回该 part 是否为 mandatory part
//
// 规则: 类型名首字母为大写字母即为 mandatory
func (h *PartHeader) Mandatoriness() bool {
	if h.Type == "" {
		return false
	}
	c := h.Type[0]
	return c >= 'A' && c <= 'Z'
}

// PartHeaderCodec 解码单个 part header 的主体字节 (4 字节长度之后的部分)
type PartHeaderCodec struct {
	// MaxParamValueLen 限制单个参数值的字节长度 0 表示使用 DefaultMaxParamValueLen
	MaxParamValueLen uint32
}

// NewPartHeaderCodec 创建一个使用默认限制的 PartHeaderCodec
func NewPartHeaderCodec() *PartHeaderCodec {
	return &PartHeaderCodec{MaxParamValueLen: DefaultMaxParamValueLen}
}

func (c *PartHeaderCodec) maxParamValueLen() uint32 {
	if c.MaxParamValueLen == 0 {
		return DefaultMaxParamValueLen
	}
	return c.MaxParamValueLen
}

// Decode 解析一个完整的 header body 字节切片
//
// 字节布局:
//  1. 1B  type 长度
//  2. NB  type 名称 (ASCII)
//  3. 4B  part id (big-endian u32)
//  4. 1B  mandatory 参数个数 M
//  5. 1B  advisory 参数个数 A
//  6. M+A 组 (key_len u8, value_len u32-BE)
//  7. M+A 组 (key bytes, value bytes) 按声明顺序排列
func (c *PartHeaderCodec) Decode(b []byte) (*PartHeader, error) {
	if len(b) < 1 {
		return nil, ErrBundle2Decode
	}
	typeLen := int(b[0])
	off := 1
	if len(b) < off+typeLen {
		return nil, ErrBundle2Decode
	}
	typeName := string(b[off : off+typeLen])
	if !isASCIILetters(typeName) {
		return nil, ErrBundle2Decode
	}
	off += typeLen

	if len(b) < off+4+1+1 {
		return nil, ErrBundle2Decode
	}
	id := binary.BigEndian.Uint32(b[off : off+4])
	off += 4

	numMandatory := int(b[off])
	off++
	numAdvisory := int(b[off])
	off++

	total := numMandatory + numAdvisory
	type lenPair struct {
		keyLen uint8
		valLen uint32
	}
	lens := make([]lenPair, total)
	for i := 0; i < total; i++ {
		if len(b) < off+1+4 {
			return nil, ErrBundle2Decode
		}
		lens[i].keyLen = b[off]
		off++
		lens[i].valLen = binary.BigEndian.Uint32(b[off : off+4])
		off += 4
	}

	maxVal := c.maxParamValueLen()
	mandatory := make(map[string][]byte, numMandatory)
	advisory := make(map[string][]byte, numAdvisory)
	for i := 0; i < total; i++ {
		kl := int(lens[i].keyLen)
		vl := lens[i].valLen
		if vl > maxVal {
			return nil, ErrParamValueTooLarge
		}
		if len(b) < off+kl+int(vl) {
			return nil, ErrBundle2Decode
		}
		key := string(b[off : off+kl])
		off += kl
		val := b[off : off+int(vl)]
		off += int(vl)

		var group map[string][]byte
		if i < numMandatory {
			group = mandatory
		} else {
			group = advisory
		}
		if _, dup := group[key]; dup {
			return nil, ErrDuplicateParamKey
		}
		group[key] = append([]byte(nil), val...)
	}

	return &PartHeader{
		Type:      typeName,
		ID:        id,
		Mandatory: mandatory,
		Advisory:  advisory,
	}, nil
}

func isASCIILetters(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
			return false
		}
	}
	return true
}

// KnownPartTypes 是已识别 part 类型的登记表
//
// part 类型的具体语义与能力协商由上层协议负责 这里只登记少量示例类型
// 用于演示 recognized/unknown 两条路径 真实部署应替换为完整的登记表
var KnownPartTypes = map[string]bool{
	"changegroup": true,
	"replycaps":   true,
	"pushkey":     true,
	"check:heads": true,
}

// Recognize 对已解码的 header 执行识别判定
//
// 返回值语义:
//   - (header, nil)  已识别 调用方应转入 InPayload 读取该 part 的数据
//   - (nil, nil)     未识别但 advisory 调用方应转入 DiscardingPayload
//   - (nil, err)     未识别且 mandatory 返回 ErrUnknownMandatoryPart
func Recognize(h *PartHeader) (*PartHeader, error) {
	if KnownPartTypes[h.Type] {
		return h, nil
	}
	if h.Mandatoriness() {
		return nil, ErrUnknownMandatoryPart
	}
	return nil, nil
}
