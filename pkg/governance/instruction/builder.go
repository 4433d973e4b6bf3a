// Package instruction 构造治理程序的 CastVote / RelinquishVote 指令。
// 所有构造函数都是纯函数：不访问网络，不签名。
package instruction

import (
	"fmt"

	sdktypes "github.com/blocto/solana-go-sdk/types"

	"governance-sdk-sol/internal/consts"
	"governance-sdk-sol/pkg/governance/errs"
	"governance-sdk-sol/pkg/governance/pda"
	"governance-sdk-sol/pkg/types"
)

// Builder 绑定某个治理程序部署（program id + 版本）
type Builder struct {
	programID types.Pubkey
	version   uint8
	deriver   *pda.Deriver
}

// NewBuilder deriver 为 nil 时不缓存 PDA 推导结果
func NewBuilder(programID types.Pubkey, version uint8, deriver *pda.Deriver) (*Builder, error) {
	if version < consts.ProgramVersionV1 || version > consts.ProgramVersionV3 {
		return nil, fmt.Errorf("%w: program version %d", errs.ErrInvalidArgument, version)
	}
	if deriver == nil {
		deriver = pda.NewDeriver(nil)
	}
	return &Builder{programID: programID, version: version, deriver: deriver}, nil
}

func (b *Builder) ProgramID() types.Pubkey { return b.programID }
func (b *Builder) Version() uint8          { return b.version }
func (b *Builder) Deriver() *pda.Deriver   { return b.deriver }

func readonly(p types.Pubkey) sdktypes.AccountMeta {
	return sdktypes.AccountMeta{PubKey: p.ToSDK()}
}

func writable(p types.Pubkey) sdktypes.AccountMeta {
	return sdktypes.AccountMeta{PubKey: p.ToSDK(), IsWritable: true}
}

func signer(p types.Pubkey, isWritable bool) sdktypes.AccountMeta {
	return sdktypes.AccountMeta{PubKey: p.ToSDK(), IsSigner: true, IsWritable: isWritable}
}

func (b *Builder) instruction(metas []sdktypes.AccountMeta, data []byte) sdktypes.Instruction {
	return sdktypes.Instruction{
		ProgramID: b.programID.ToSDK(),
		Accounts:  metas,
		Data:      data,
	}
}
