package consts

import "runtime"

// CpuCount 表示逻辑 CPU 核心数，用于控制并发任务调度上限
var CpuCount = runtime.NumCPU()

// 治理程序版本（决定指令账户布局与参数编码）
const (
	ProgramVersionV1 uint8 = 1
	ProgramVersionV2 uint8 = 2
	ProgramVersionV3 uint8 = 3

	DefaultProgramVersion = ProgramVersionV3
)
