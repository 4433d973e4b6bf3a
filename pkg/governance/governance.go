// Package governance 是治理程序客户端的对外入口：读取并解码链上账户、派生地址、构造投票指令。
package governance

import (
	"context"
	"fmt"

	"governance-sdk-sol/internal/consts"
	"governance-sdk-sol/pkg/governance/instruction"
	"governance-sdk-sol/pkg/governance/pda"
	"governance-sdk-sol/pkg/types"
)

// AccountFilter 对应 getProgramAccounts 的 memcmp 过滤
type AccountFilter struct {
	Offset uint64
	Bytes  []byte
}

// KeyedAccount 带地址的原始账户数据
type KeyedAccount struct {
	Pubkey types.Pubkey
	Data   []byte
}

// LedgerReader 账本读取接口。账户不存在时 FetchAccount 返回 errs.ErrAccountNotFound。
type LedgerReader interface {
	FetchAccount(ctx context.Context, addr types.Pubkey) ([]byte, error)
	FetchAccountsByFilter(ctx context.Context, program types.Pubkey, filters ...AccountFilter) ([]KeyedAccount, error)
}

type options struct {
	programID types.Pubkey
	version   uint8
	deriver   *pda.Deriver
}

type Option func(*options)

// WithProgramID 指定治理程序部署地址，默认 consts.GovernanceProgram
func WithProgramID(programID types.Pubkey) Option {
	return func(o *options) { o.programID = programID }
}

// WithProgramVersion 指定程序版本，默认 v3
func WithProgramVersion(version uint8) Option {
	return func(o *options) { o.version = version }
}

// WithDeriver 共享带缓存的地址派生器
func WithDeriver(d *pda.Deriver) Option {
	return func(o *options) { o.deriver = d }
}

// Governance 绑定一个治理程序部署的客户端。自身不持有可变状态，可并发使用。
type Governance struct {
	reader    LedgerReader
	programID types.Pubkey
	builder   *instruction.Builder
}

func New(reader LedgerReader, opts ...Option) (*Governance, error) {
	o := options{
		programID: consts.GovernanceProgram,
		version:   consts.DefaultProgramVersion,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if reader == nil {
		return nil, fmt.Errorf("governance: ledger reader is required")
	}
	builder, err := instruction.NewBuilder(o.programID, o.version, o.deriver)
	if err != nil {
		return nil, err
	}
	return &Governance{
		reader:    reader,
		programID: o.programID,
		builder:   builder,
	}, nil
}

func (g *Governance) ProgramID() types.Pubkey { return g.programID }

func (g *Governance) ProgramVersion() uint8 { return g.builder.Version() }

func (g *Governance) Builder() *instruction.Builder { return g.builder }

// DeriveTokenOwnerRecordAddress 派生 (realm, mint, owner) 的 TokenOwnerRecord 地址
func (g *Governance) DeriveTokenOwnerRecordAddress(realm, mint, owner types.Pubkey) (types.Pubkey, error) {
	addr, err := g.builder.Deriver().TokenOwnerRecord(g.programID, realm, mint, owner)
	if err != nil {
		return types.Pubkey{}, err
	}
	return addr.Pubkey, nil
}

// DeriveVoteRecordAddress 派生投票记录地址
func (g *Governance) DeriveVoteRecordAddress(proposal, tokenOwnerRecord types.Pubkey) (types.Pubkey, error) {
	addr, err := g.builder.Deriver().VoteRecord(g.programID, proposal, tokenOwnerRecord)
	if err != nil {
		return types.Pubkey{}, err
	}
	return addr.Pubkey, nil
}

// DeriveRealmConfigAddress 派生 realm 配置账户地址
func (g *Governance) DeriveRealmConfigAddress(realm types.Pubkey) (types.Pubkey, error) {
	addr, err := g.builder.Deriver().RealmConfig(g.programID, realm)
	if err != nil {
		return types.Pubkey{}, err
	}
	return addr.Pubkey, nil
}
