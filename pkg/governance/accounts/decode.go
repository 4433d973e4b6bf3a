package accounts

import (
	"fmt"

	"governance-sdk-sol/pkg/governance/errs"
)

// memcmp 过滤用的字段偏移（首字节为判别符）
const (
	AccountTypeOffset           = 0
	TokenOwnerRecordRealmOffset = 1
	TokenOwnerRecordMintOffset  = 33
	TokenOwnerRecordOwnerOffset = 65
	GovernanceRealmOffset       = 1
	ProposalGovernanceOffset    = 1
	ProposalMintOffset          = 33
	VoteRecordProposalOffset    = 1
	RealmConfigRealmOffset      = 1
)

// checkHeader 校验判别符与期望种类一致
func checkHeader(kind Kind, data []byte) (AccountType, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: empty account data", errs.ErrTruncatedData)
	}
	t := AccountType(data[0])
	if t > maxKnownAccountType {
		return t, fmt.Errorf("%w: account type %d", errs.ErrUnsupportedVersion, t)
	}
	if got := t.Kind(); got != kind {
		return t, fmt.Errorf("%w: expected %s, got %s (type %d)", errs.ErrUnexpectedAccountKind, kind, got, t)
	}
	return t, nil
}

// Decode 按指定种类解码账户数据，返回完整记录或错误，不会返回部分填充的记录
func Decode(kind Kind, data []byte) (Record, error) {
	switch kind {
	case KindRealm:
		return DecodeRealm(data)
	case KindGovernance:
		return DecodeGovernance(data)
	case KindProposal:
		return DecodeProposal(data)
	case KindTokenOwnerRecord:
		return DecodeTokenOwnerRecord(data)
	case KindVoteRecord:
		return DecodeVoteRecord(data)
	case KindRealmConfig:
		return DecodeRealmConfig(data)
	default:
		return nil, fmt.Errorf("%w: no decoder for %s", errs.ErrUnexpectedAccountKind, kind)
	}
}

// DecodeAny 按判别符自动选择解码器（用于账户订阅流）
func DecodeAny(data []byte) (Record, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty account data", errs.ErrTruncatedData)
	}
	t := AccountType(data[0])
	if t > maxKnownAccountType {
		return nil, fmt.Errorf("%w: account type %d", errs.ErrUnsupportedVersion, t)
	}
	return Decode(t.Kind(), data)
}

// finish 统一收尾：读取出错时丢弃记录
func finish[T any](rec *T, r *reader, kind Kind) (*T, error) {
	if r.err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, r.err)
	}
	return rec, nil
}
