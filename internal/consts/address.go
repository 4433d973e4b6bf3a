package consts

// Base58 地址常量（可读性高，适合配置与日志使用）
const (
	// Programs
	SystemProgramStr = "11111111111111111111111111111111"
	TokenProgramStr  = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

	// Sysvars（仅 v1 治理程序的 CastVote 需要）
	SysvarRentStr  = "SysvarRent111111111111111111111111111111111"
	SysvarClockStr = "SysvarC1ock11111111111111111111111111111111"

	// SPL Governance 官方部署
	GovernanceProgramStr = "GovER5Lthms3bLBqWub97yVrMmEogzX7xNjdXpPPCVZw"

	// 各 DAO 自行部署的治理程序实例
	PythGovernanceProgramStr  = "pytGY6tWRgGinSCvRLnSv4fHfBTMoiDGiCsesmHWM6U"
	MangoGovernanceProgramStr = "GqTPL6qRf5aUuqscLh8Rg2HTxPUXfhhAXDptTLhp1t2J"
)
