// Package accounts 定义治理程序的链上账户记录，并负责把原始账户字节解码为类型化记录。
package accounts

import (
	"fmt"

	"governance-sdk-sol/pkg/governance/errs"
	"governance-sdk-sol/pkg/types"
)

// AccountType 是每个治理账户数据的首字节（判别符），同时编码了账户种类与布局版本
type AccountType uint8

const (
	AccountUninitialized         AccountType = 0
	AccountRealmV1               AccountType = 1
	AccountTokenOwnerRecordV1    AccountType = 2
	AccountGovernanceV1          AccountType = 3
	AccountProgramGovernanceV1   AccountType = 4
	AccountProposalV1            AccountType = 5
	AccountSignatoryRecordV1     AccountType = 6
	AccountVoteRecordV1          AccountType = 7
	AccountProposalInstructionV1 AccountType = 8
	AccountMintGovernanceV1      AccountType = 9
	AccountTokenGovernanceV1     AccountType = 10
	AccountRealmConfig           AccountType = 11
	AccountVoteRecordV2          AccountType = 12
	AccountProposalTransactionV2 AccountType = 13
	AccountProposalV2            AccountType = 14
	AccountProgramMetadata       AccountType = 15
	AccountRealmV2               AccountType = 16
	AccountTokenOwnerRecordV2    AccountType = 17
	AccountGovernanceV2          AccountType = 18
	AccountProgramGovernanceV2   AccountType = 19
	AccountMintGovernanceV2      AccountType = 20
	AccountTokenGovernanceV2     AccountType = 21
	AccountSignatoryRecordV2     AccountType = 22
	AccountProposalDeposit       AccountType = 23
	AccountRequiredSignatory     AccountType = 24

	maxKnownAccountType = AccountRequiredSignatory
)

// Kind 表示记录种类（与布局版本无关）
type Kind uint8

const (
	KindUnknown Kind = iota
	KindRealm
	KindGovernance
	KindProposal
	KindTokenOwnerRecord
	KindVoteRecord
	KindRealmConfig
	KindSignatoryRecord
	KindProposalTransaction
	KindProgramMetadata
	KindProposalDeposit
	KindRequiredSignatory
)

var kindNames = [...]string{
	"Unknown", "Realm", "Governance", "Proposal", "TokenOwnerRecord", "VoteRecord",
	"RealmConfig", "SignatoryRecord", "ProposalTransaction", "ProgramMetadata",
	"ProposalDeposit", "RequiredSignatory",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

var accountKinds = [...]Kind{
	AccountUninitialized:         KindUnknown,
	AccountRealmV1:               KindRealm,
	AccountTokenOwnerRecordV1:    KindTokenOwnerRecord,
	AccountGovernanceV1:          KindGovernance,
	AccountProgramGovernanceV1:   KindGovernance,
	AccountProposalV1:            KindProposal,
	AccountSignatoryRecordV1:     KindSignatoryRecord,
	AccountVoteRecordV1:          KindVoteRecord,
	AccountProposalInstructionV1: KindProposalTransaction,
	AccountMintGovernanceV1:      KindGovernance,
	AccountTokenGovernanceV1:     KindGovernance,
	AccountRealmConfig:           KindRealmConfig,
	AccountVoteRecordV2:          KindVoteRecord,
	AccountProposalTransactionV2: KindProposalTransaction,
	AccountProposalV2:            KindProposal,
	AccountProgramMetadata:       KindProgramMetadata,
	AccountRealmV2:               KindRealm,
	AccountTokenOwnerRecordV2:    KindTokenOwnerRecord,
	AccountGovernanceV2:          KindGovernance,
	AccountProgramGovernanceV2:   KindGovernance,
	AccountMintGovernanceV2:      KindGovernance,
	AccountTokenGovernanceV2:     KindGovernance,
	AccountSignatoryRecordV2:     KindSignatoryRecord,
	AccountProposalDeposit:       KindProposalDeposit,
	AccountRequiredSignatory:     KindRequiredSignatory,
}

// Kind 返回判别符对应的记录种类，未知判别符返回 KindUnknown
func (t AccountType) Kind() Kind {
	if int(t) < len(accountKinds) {
		return accountKinds[t]
	}
	return KindUnknown
}

// AccountTypesOf 返回某记录种类所有布局版本的判别符，用于批量查询的 memcmp 过滤
func AccountTypesOf(kind Kind) []AccountType {
	var out []AccountType
	for t, k := range accountKinds {
		if k == kind && kind != KindUnknown {
			out = append(out, AccountType(t))
		}
	}
	return out
}

// Record 是所有解码结果的公共接口
type Record interface {
	RecordKind() Kind
}

// ProgramAccount 是带地址的解码记录
type ProgramAccount[T any] struct {
	Pubkey  types.Pubkey
	Account *T
}

// ProposalState 提案状态
type ProposalState uint8

const (
	ProposalDraft ProposalState = iota
	ProposalSigningOff
	ProposalVoting
	ProposalSucceeded
	ProposalExecuting
	ProposalCompleted
	ProposalCancelled
	ProposalDefeated
	ProposalExecutingWithErrors
	ProposalVetoed
)

var proposalStateNames = [...]string{
	"Draft", "SigningOff", "Voting", "Succeeded", "Executing",
	"Completed", "Cancelled", "Defeated", "ExecutingWithErrors", "Vetoed",
}

func (s ProposalState) String() string {
	if int(s) < len(proposalStateNames) {
		return proposalStateNames[s]
	}
	return fmt.Sprintf("ProposalState(%d)", uint8(s))
}

// IsVoting 投票中的提案撤票需要 authority + beneficiary
func (s ProposalState) IsVoting() bool {
	return s == ProposalVoting
}

// VoteThresholdType 投票阈值类型
type VoteThresholdType uint8

const (
	ThresholdYesVotePercentage VoteThresholdType = 0
	ThresholdQuorumPercentage  VoteThresholdType = 1
	ThresholdDisabled          VoteThresholdType = 2
)

type VoteThreshold struct {
	Type  VoteThresholdType
	Value uint8 // Disabled 时为 0
}

// VoteTipping 投票提前结束策略：Strict 0 / Early 1 / Disabled 2
type VoteTipping uint8

// MintMaxVoterWeightSource 最大投票权来源：供应量比例 或 绝对值
type MintMaxVoterWeightSource struct {
	Type  uint8 // 0 = SupplyFraction, 1 = Absolute
	Value uint64
}

// VoteKind 选票种类
type VoteKind uint8

const (
	VoteApprove VoteKind = 0
	VoteDeny    VoteKind = 1
	VoteAbstain VoteKind = 2
	VoteVeto    VoteKind = 3
)

func (k VoteKind) String() string {
	switch k {
	case VoteApprove:
		return "Approve"
	case VoteDeny:
		return "Deny"
	case VoteAbstain:
		return "Abstain"
	case VoteVeto:
		return "Veto"
	default:
		return fmt.Sprintf("VoteKind(%d)", uint8(k))
	}
}

// VoteChoice 单个选项的排名与权重百分比
type VoteChoice struct {
	Rank             uint8
	WeightPercentage uint8
}

// Vote 选票。Approve 时 Choices 按提案选项顺序排列，其他种类 Choices 为空。
type Vote struct {
	Kind    VoteKind
	Choices []VoteChoice
}

func ApproveVote(choices ...VoteChoice) Vote {
	return Vote{Kind: VoteApprove, Choices: choices}
}

func DenyVote() Vote    { return Vote{Kind: VoteDeny} }
func AbstainVote() Vote { return Vote{Kind: VoteAbstain} }
func VetoVote() Vote    { return Vote{Kind: VoteVeto} }

// Validate 校验选票：Approve 必须至少一个选项，同一 rank 的权重之和必须恰好为 100
func (v Vote) Validate() error {
	switch v.Kind {
	case VoteDeny, VoteAbstain, VoteVeto:
		if len(v.Choices) != 0 {
			return fmt.Errorf("%w: %s vote carries %d choices", errs.ErrInvalidVoteWeights, v.Kind, len(v.Choices))
		}
		return nil
	case VoteApprove:
	default:
		return fmt.Errorf("%w: unknown vote kind %d", errs.ErrInvalidArgument, v.Kind)
	}

	if len(v.Choices) == 0 {
		return fmt.Errorf("%w: approve vote without choices", errs.ErrInvalidVoteWeights)
	}
	sums := make(map[uint8]int, 1)
	for _, c := range v.Choices {
		sums[c.Rank] += int(c.WeightPercentage)
	}
	for rank, sum := range sums {
		if sum != 100 {
			return fmt.Errorf("%w: rank %d sums to %d", errs.ErrInvalidVoteWeights, rank, sum)
		}
	}
	return nil
}
