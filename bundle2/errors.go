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

import "github.com/pkg/errors"

func newError(format string, args ...any) error {
	format = "bundle2: " + format
	return errors.Errorf(format, args...)
}

var (
	// ErrBundle2Decode 表示帧结构本身已经损坏 (长度非法/截断) 解码器应置为 Invalid
	ErrBundle2Decode = newError("corrupt framing")

	// ErrUnknownMandatoryPart 表示遇到了未识别的 mandatory part
	//
	// 这是一个"应用层"错误 解码器应转入 DiscardingPayload 而不是 Invalid
	// 以便调用方可以跳过该 part 的剩余 payload 后继续解析流
	ErrUnknownMandatoryPart = newError("unknown mandatory part")

	// ErrDuplicateParamKey 表示同一分组 (mandatory/advisory) 内出现了重复的参数键
	ErrDuplicateParamKey = newError("duplicate parameter key")

	// ErrUnknownCompression 表示流头部声明了无法识别的压缩算法标识
	ErrUnknownCompression = newError("unknown compression identifier")

	// ErrParamValueTooLarge 表示某个头部参数值超过了配置的长度上限
	//
	// 它包裹 ErrBundle2Decode 因此 errors.Is(err, ErrBundle2Decode) 同样成立
	ErrParamValueTooLarge = errors.Wrap(ErrBundle2Decode, "bundle2: parameter value exceeds configured limit")
)
