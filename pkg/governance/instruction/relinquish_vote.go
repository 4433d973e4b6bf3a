package instruction

import (
	"fmt"

	sdktypes "github.com/blocto/solana-go-sdk/types"
	"github.com/near/borsh-go"

	"governance-sdk-sol/internal/consts"
	"governance-sdk-sol/pkg/governance/errs"
	"governance-sdk-sol/pkg/types"
)

type RelinquishVoteAccounts struct {
	Realm                 types.Pubkey
	Governance            types.Pubkey
	Proposal              types.Pubkey
	VoterTokenOwnerRecord types.Pubkey
	GoverningTokenMint    types.Pubkey
}

// Refund 提案仍在投票中时撤票需要 authority 签名，押金退给 beneficiary
type Refund struct {
	Authority   types.Pubkey
	Beneficiary types.Pubkey
}

// NewRefund 两个都为 nil 时返回 (nil, nil)，只给一个时返回 ErrIncompleteRefundPair
func NewRefund(authority, beneficiary *types.Pubkey) (*Refund, error) {
	switch {
	case authority == nil && beneficiary == nil:
		return nil, nil
	case authority == nil || beneficiary == nil:
		return nil, errs.ErrIncompleteRefundPair
	}
	return &Refund{Authority: *authority, Beneficiary: *beneficiary}, nil
}

type relinquishVoteArgs struct {
	Instruction uint8
}

// RelinquishVote 构造撤票指令。是否需要 refund 由调用方根据提案状态决定，这里不检查。
func (b *Builder) RelinquishVote(acc RelinquishVoteAccounts, refund *Refund) (sdktypes.Instruction, error) {
	voteRecord, err := b.deriver.VoteRecord(b.programID, acc.Proposal, acc.VoterTokenOwnerRecord)
	if err != nil {
		return sdktypes.Instruction{}, fmt.Errorf("derive vote record: %w", err)
	}
	data, err := borsh.Serialize(relinquishVoteArgs{Instruction: consts.IxRelinquishVote})
	if err != nil {
		return sdktypes.Instruction{}, fmt.Errorf("encode relinquish vote: %w", err)
	}

	metas := make([]sdktypes.AccountMeta, 0, 8)
	if b.version >= consts.ProgramVersionV3 {
		metas = append(metas, readonly(acc.Realm))
	}
	metas = append(metas,
		readonly(acc.Governance),
		writable(acc.Proposal),
		writable(acc.VoterTokenOwnerRecord),
		writable(voteRecord.Pubkey),
		readonly(acc.GoverningTokenMint),
	)
	if refund != nil {
		metas = append(metas, signer(refund.Authority, false), writable(refund.Beneficiary))
	}
	return b.instruction(metas, data), nil
}
