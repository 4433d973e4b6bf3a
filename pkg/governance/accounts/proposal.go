package accounts

import "governance-sdk-sol/pkg/types"

// VoteTypeKind 单选 / 多选
type VoteTypeKind uint8

const (
	VoteTypeSingleChoice VoteTypeKind = 0
	VoteTypeMultiChoice  VoteTypeKind = 1
)

type VoteType struct {
	Kind              VoteTypeKind
	ChoiceType        uint8 // 0 = FullWeight, 1 = Weighted
	MinVoterOptions   uint8
	MaxVoterOptions   uint8
	MaxWinningOptions uint8
}

// ProposalOption 提案选项及其累计票数
type ProposalOption struct {
	Label                     string
	VoteWeight                uint64
	VoteResult                uint8 // 0 = None, 1 = Succeeded, 2 = Defeated
	TransactionsExecutedCount uint16
	TransactionsCount         uint16
	TransactionsNextIndex     uint16
}

// Proposal 统一表示 V1/V2 提案；V1 的 yes 票映射为单一选项，no 票映射为 DenyVoteWeight
type Proposal struct {
	AccountType               AccountType
	Governance                types.Pubkey
	GoverningTokenMint        types.Pubkey
	State                     ProposalState
	TokenOwnerRecord          types.Pubkey
	SignatoriesCount          uint8
	SignatoriesSignedOffCount uint8
	VoteType                  VoteType
	Options                   []ProposalOption
	DenyVoteWeight            *uint64
	AbstainVoteWeight         *uint64
	VetoVoteWeight            uint64
	StartVotingAt             *int64
	DraftAt                   int64
	SigningOffAt              *int64
	VotingAt                  *int64
	VotingAtSlot              *uint64
	VotingCompletedAt         *int64
	ExecutingAt               *int64
	ClosedAt                  *int64
	ExecutionFlags            uint8
	MaxVoteWeight             *uint64
	MaxVotingTime             *uint32
	VoteThreshold             *VoteThreshold
	Name                      string
	DescriptionLink           string
}

func (*Proposal) RecordKind() Kind { return KindProposal }

// proposalOptionMinSize label 长度前缀 + 固定字段
const proposalOptionMinSize = 4 + 8 + 1 + 2*3

// DecodeProposal 解码 Proposal 账户
func DecodeProposal(data []byte) (*Proposal, error) {
	t, err := checkHeader(KindProposal, data)
	if err != nil {
		return nil, err
	}
	r := newReader(data)
	r.skip(1)
	rec := &Proposal{AccountType: t}
	rec.Governance = r.pubkey()
	rec.GoverningTokenMint = r.pubkey()
	rec.State = ProposalState(r.u8())
	if rec.State > ProposalVetoed {
		r.malformed("invalid proposal state %d", rec.State)
	}
	rec.TokenOwnerRecord = r.pubkey()
	rec.SignatoriesCount = r.u8()
	rec.SignatoriesSignedOffCount = r.u8()

	if t == AccountProposalV1 {
		decodeProposalV1(r, rec)
	} else {
		decodeProposalV2(r, rec)
	}
	return finish(rec, r, KindProposal)
}

func decodeProposalV1(r *reader, rec *Proposal) {
	yes := r.u64()
	no := r.u64()
	executed := r.u16()
	count := r.u16()
	next := r.u16()
	rec.VoteType = VoteType{Kind: VoteTypeSingleChoice}
	rec.Options = []ProposalOption{{
		Label:                     "Yes",
		VoteWeight:                yes,
		TransactionsExecutedCount: executed,
		TransactionsCount:         count,
		TransactionsNextIndex:     next,
	}}
	rec.DenyVoteWeight = &no
	rec.DraftAt = r.i64()
	rec.SigningOffAt = r.optionI64()
	rec.VotingAt = r.optionI64()
	rec.VotingAtSlot = r.optionU64()
	rec.VotingCompletedAt = r.optionI64()
	rec.ExecutingAt = r.optionI64()
	rec.ClosedAt = r.optionI64()
	rec.ExecutionFlags = r.u8()
	rec.MaxVoteWeight = r.optionU64()
	rec.VoteThreshold = r.optionVoteThreshold()
	rec.Name = r.string()
	rec.DescriptionLink = r.string()
}

func decodeProposalV2(r *reader, rec *Proposal) {
	switch kind := VoteTypeKind(r.u8()); kind {
	case VoteTypeSingleChoice:
		rec.VoteType = VoteType{Kind: kind}
	case VoteTypeMultiChoice:
		rec.VoteType = VoteType{
			Kind:              kind,
			ChoiceType:        r.u8(),
			MinVoterOptions:   r.u8(),
			MaxVoterOptions:   r.u8(),
			MaxWinningOptions: r.u8(),
		}
	default:
		r.malformed("invalid vote type %d", kind)
		return
	}

	n := r.vecLen(proposalOptionMinSize)
	rec.Options = make([]ProposalOption, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		rec.Options = append(rec.Options, ProposalOption{
			Label:                     r.string(),
			VoteWeight:                r.u64(),
			VoteResult:                r.u8(),
			TransactionsExecutedCount: r.u16(),
			TransactionsCount:         r.u16(),
			TransactionsNextIndex:     r.u16(),
		})
	}
	rec.DenyVoteWeight = r.optionU64()
	r.skip(1) // reserved
	rec.AbstainVoteWeight = r.optionU64()
	rec.StartVotingAt = r.optionI64()
	rec.DraftAt = r.i64()
	rec.SigningOffAt = r.optionI64()
	rec.VotingAt = r.optionI64()
	rec.VotingAtSlot = r.optionU64()
	rec.VotingCompletedAt = r.optionI64()
	rec.ExecutingAt = r.optionI64()
	rec.ClosedAt = r.optionI64()
	rec.ExecutionFlags = r.u8()
	rec.MaxVoteWeight = r.optionU64()
	rec.MaxVotingTime = r.optionU32()
	rec.VoteThreshold = r.optionVoteThreshold()
	r.skip(64) // reserved
	rec.Name = r.string()
	rec.DescriptionLink = r.string()
	// 旧版 V2 账户没有 veto 字段
	if r.err == nil && r.remaining() >= 8 {
		rec.VetoVoteWeight = r.u64()
	}
}
