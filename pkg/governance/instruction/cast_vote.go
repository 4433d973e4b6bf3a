package instruction

import (
	"fmt"

	sdktypes "github.com/blocto/solana-go-sdk/types"
	"github.com/near/borsh-go"

	"governance-sdk-sol/internal/consts"
	"governance-sdk-sol/pkg/governance/accounts"
	"governance-sdk-sol/pkg/governance/errs"
	"governance-sdk-sol/pkg/types"
)

// CastVoteAccounts 投票指令所需的地址，vote record 与 realm config 由 Builder 自行推导
type CastVoteAccounts struct {
	Realm                 types.Pubkey
	Governance            types.Pubkey
	Proposal              types.Pubkey
	ProposalOwnerRecord   types.Pubkey
	VoterTokenOwnerRecord types.Pubkey
	VoterAuthority        types.Pubkey
	GoverningTokenMint    types.Pubkey
	Payer                 types.Pubkey
}

// VoterWeightPlugin 插件提供的投票权记录与最大投票权记录，二者必须同时存在
type VoterWeightPlugin struct {
	VoterWeightRecord    types.Pubkey
	MaxVoterWeightRecord types.Pubkey
}

// NewVoterWeightPlugin 两个都为 nil 时返回 (nil, nil)，只给一个时返回 ErrIncompletePluginPair
func NewVoterWeightPlugin(voterWeightRecord, maxVoterWeightRecord *types.Pubkey) (*VoterWeightPlugin, error) {
	switch {
	case voterWeightRecord == nil && maxVoterWeightRecord == nil:
		return nil, nil
	case voterWeightRecord == nil || maxVoterWeightRecord == nil:
		return nil, errs.ErrIncompletePluginPair
	}
	return &VoterWeightPlugin{
		VoterWeightRecord:    *voterWeightRecord,
		MaxVoterWeightRecord: *maxVoterWeightRecord,
	}, nil
}

type voteChoiceArg struct {
	Rank             uint8
	WeightPercentage uint8
}

// approveArg borsh-go 只序列化 struct 类型的枚举负载，Vec<VoteChoice> 需要包一层
type approveArg struct {
	Choices []voteChoiceArg
}

// voteArg 对应链上的 Vote 枚举
type voteArg struct {
	Enum    borsh.Enum `borsh_enum:"true"`
	Approve approveArg
	Deny    struct{}
	Abstain struct{}
	Veto    struct{}
}

type castVoteArgs struct {
	Instruction uint8
	Vote        voteArg
}

// v1 程序只支持 Yes/No
type castVoteArgsV1 struct {
	Instruction uint8
	YesNoVote   uint8
}

// CastVote 构造不带插件的投票指令
func (b *Builder) CastVote(vote accounts.Vote, proposal *accounts.Proposal, acc CastVoteAccounts) (sdktypes.Instruction, error) {
	return b.castVote(vote, proposal, acc, nil)
}

// CastVoteWithPlugin 构造带投票权插件的投票指令，插件账户追加在末尾
func (b *Builder) CastVoteWithPlugin(vote accounts.Vote, proposal *accounts.Proposal, acc CastVoteAccounts, plugin VoterWeightPlugin) (sdktypes.Instruction, error) {
	return b.castVote(vote, proposal, acc, &plugin)
}

func (b *Builder) castVote(vote accounts.Vote, proposal *accounts.Proposal, acc CastVoteAccounts, plugin *VoterWeightPlugin) (sdktypes.Instruction, error) {
	if err := vote.Validate(); err != nil {
		return sdktypes.Instruction{}, err
	}
	if proposal == nil {
		return sdktypes.Instruction{}, fmt.Errorf("%w: proposal is required", errs.ErrInvalidArgument)
	}
	if proposal.GoverningTokenMint != acc.GoverningTokenMint {
		return sdktypes.Instruction{}, fmt.Errorf("%w: proposal mint %s, supplied %s",
			errs.ErrMintMismatch, proposal.GoverningTokenMint, acc.GoverningTokenMint)
	}

	data, err := b.encodeCastVote(vote)
	if err != nil {
		return sdktypes.Instruction{}, err
	}

	voteRecord, err := b.deriver.VoteRecord(b.programID, acc.Proposal, acc.VoterTokenOwnerRecord)
	if err != nil {
		return sdktypes.Instruction{}, fmt.Errorf("derive vote record: %w", err)
	}
	realmConfig, err := b.deriver.RealmConfig(b.programID, acc.Realm)
	if err != nil {
		return sdktypes.Instruction{}, fmt.Errorf("derive realm config: %w", err)
	}

	metas := make([]sdktypes.AccountMeta, 0, 16)
	metas = append(metas,
		readonly(acc.Realm),
		writable(acc.Governance),
		writable(acc.Proposal),
		writable(acc.ProposalOwnerRecord),
		writable(acc.VoterTokenOwnerRecord),
		signer(acc.VoterAuthority, false),
		writable(voteRecord.Pubkey),
		readonly(acc.GoverningTokenMint),
		signer(acc.Payer, true),
		readonly(consts.SystemProgram),
	)
	if b.version == consts.ProgramVersionV1 {
		metas = append(metas, readonly(consts.SysvarRent), readonly(consts.SysvarClock))
	}
	metas = append(metas, readonly(realmConfig.Pubkey))
	if plugin != nil {
		metas = append(metas, readonly(plugin.VoterWeightRecord), readonly(plugin.MaxVoterWeightRecord))
	}
	return b.instruction(metas, data), nil
}

func (b *Builder) encodeCastVote(vote accounts.Vote) ([]byte, error) {
	if b.version == consts.ProgramVersionV1 {
		var yesNo uint8
		switch vote.Kind {
		case accounts.VoteApprove:
			yesNo = 0
		case accounts.VoteDeny:
			yesNo = 1
		default:
			return nil, fmt.Errorf("%w: %s vote on program v1", errs.ErrVoteNotSupported, vote.Kind)
		}
		return borsh.Serialize(castVoteArgsV1{Instruction: consts.IxCastVote, YesNoVote: yesNo})
	}

	arg := voteArg{Enum: borsh.Enum(vote.Kind)}
	if vote.Kind == accounts.VoteApprove {
		arg.Approve.Choices = make([]voteChoiceArg, 0, len(vote.Choices))
		for _, c := range vote.Choices {
			arg.Approve.Choices = append(arg.Approve.Choices, voteChoiceArg{Rank: c.Rank, WeightPercentage: c.WeightPercentage})
		}
	}
	data, err := borsh.Serialize(castVoteArgs{Instruction: consts.IxCastVote, Vote: arg})
	if err != nil {
		return nil, fmt.Errorf("encode cast vote: %w", err)
	}
	return data, nil
}
