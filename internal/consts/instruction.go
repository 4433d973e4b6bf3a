package consts

// GovernanceInstruction 枚举序号（borsh 编码首字节）
const (
	IxCreateRealm             uint8 = 0
	IxDepositGoverningTokens  uint8 = 1
	IxWithdrawGoverningTokens uint8 = 2
	IxSetGovernanceDelegate   uint8 = 3
	IxCreateGovernance        uint8 = 4
	IxCreateProgramGovernance uint8 = 5
	IxCreateProposal          uint8 = 6
	IxAddSignatory            uint8 = 7
	IxRemoveSignatory         uint8 = 8
	IxInsertTransaction       uint8 = 9
	IxRemoveTransaction       uint8 = 10
	IxCancelProposal          uint8 = 11
	IxSignOffProposal         uint8 = 12
	IxCastVote                uint8 = 13
	IxFinalizeVote            uint8 = 14
	IxRelinquishVote          uint8 = 15
	IxExecuteTransaction      uint8 = 16
	IxCreateMintGovernance    uint8 = 17
	IxCreateTokenGovernance   uint8 = 18
	IxSetGovernanceConfig     uint8 = 19
	IxFlagTransactionError    uint8 = 20
	IxSetRealmAuthority       uint8 = 21
	IxSetRealmConfig          uint8 = 22
	IxCreateTokenOwnerRecord  uint8 = 23
	IxUpdateProgramMetadata   uint8 = 24
	IxCreateNativeTreasury    uint8 = 25
	IxRevokeGoverningTokens   uint8 = 26
	IxRefundProposalDeposit   uint8 = 27
	IxCompleteProposal        uint8 = 28
	IxAddRequiredSignatory    uint8 = 29
	IxRemoveRequiredSignatory uint8 = 30
)
