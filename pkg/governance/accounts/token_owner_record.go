package accounts

import "governance-sdk-sol/pkg/types"

// TokenOwnerRecord 记录某个 owner 在 realm 中针对某个 mint 的存款与投票情况
type TokenOwnerRecord struct {
	AccountType                 AccountType
	Realm                       types.Pubkey
	GoverningTokenMint          types.Pubkey
	GoverningTokenOwner         types.Pubkey
	GoverningTokenDepositAmount uint64
	UnrelinquishedVotesCount    uint32
	TotalVotesCount             uint32
	OutstandingProposalCount    uint8
	Version                     uint8
	GovernanceDelegate          *types.Pubkey
}

func (*TokenOwnerRecord) RecordKind() Kind { return KindTokenOwnerRecord }

// DecodeTokenOwnerRecord 解码 TokenOwnerRecord（V1/V2 同布局）
func DecodeTokenOwnerRecord(data []byte) (*TokenOwnerRecord, error) {
	t, err := checkHeader(KindTokenOwnerRecord, data)
	if err != nil {
		return nil, err
	}
	r := newReader(data)
	r.skip(1)
	rec := &TokenOwnerRecord{AccountType: t}
	rec.Realm = r.pubkey()
	rec.GoverningTokenMint = r.pubkey()
	rec.GoverningTokenOwner = r.pubkey()
	rec.GoverningTokenDepositAmount = r.u64()
	rec.UnrelinquishedVotesCount = r.u32()
	rec.TotalVotesCount = r.u32()
	rec.OutstandingProposalCount = r.u8()
	rec.Version = r.u8()
	r.skip(6) // reserved
	rec.GovernanceDelegate = r.optionPubkey()
	return finish(rec, r, KindTokenOwnerRecord)
}

// CanActFor 判断 signer 能否以该记录的身份投票：owner 本人或委托人
func (t *TokenOwnerRecord) CanActFor(signer types.Pubkey) bool {
	if signer == t.GoverningTokenOwner {
		return true
	}
	return t.GovernanceDelegate != nil && *t.GovernanceDelegate == signer
}
