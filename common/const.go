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

package common

const (
	// App 应用程序名称
	App = "vcscore"

	// Version 应用程序版本
	Version = "v0.0.1"

	// ReadBlockSize 从传输层读取数据时使用的默认块大小
	//
	// bundle2 的 part payload 是以 chunk 形式切割传输的 这里设置一个
	// 折中的读取粒度 过大会在短流上浪费内存 过小会增加系统调用次数
	ReadBlockSize = 4096

	// NodeHashSize 内容寻址哈希 (SHA-1) 的字节长度
	NodeHashSize = 20
)
