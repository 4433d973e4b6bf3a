package consts

// PDA 种子前缀，与治理程序中的派生规则保持一致
const (
	SeedGovernance        = "governance"
	SeedAccountGovernance = "account-governance"
	SeedProgramGovernance = "program-governance"
	SeedMintGovernance    = "mint-governance"
	SeedTokenGovernance   = "token-governance"
	SeedRealmConfig       = "realm-config"
	SeedNativeTreasury    = "native-treasury"
	SeedProposalDeposit   = "proposal-deposit"
)
