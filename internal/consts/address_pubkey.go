package consts

import (
	"governance-sdk-sol/pkg/types"
)

// 公钥形式的地址常量（types.Pubkey），用于指令构造、链上比对等场景。
var (
	SystemProgram = types.PubkeyFromBase58(SystemProgramStr)
	TokenProgram  = types.PubkeyFromBase58(TokenProgramStr)

	SysvarRent  = types.PubkeyFromBase58(SysvarRentStr)
	SysvarClock = types.PubkeyFromBase58(SysvarClockStr)

	GovernanceProgram      = types.PubkeyFromBase58(GovernanceProgramStr)
	PythGovernanceProgram  = types.PubkeyFromBase58(PythGovernanceProgramStr)
	MangoGovernanceProgram = types.PubkeyFromBase58(MangoGovernanceProgramStr)
)
