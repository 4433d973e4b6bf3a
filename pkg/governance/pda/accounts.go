package pda

import (
	"governance-sdk-sol/pkg/types"
)

// TokenOwnerRecord 派生 (realm, mint, owner) 唯一对应的 TokenOwnerRecord 地址
func (d *Deriver) TokenOwnerRecord(programID, realm, mint, owner types.Pubkey) (Address, error) {
	return d.Derive(KindTokenOwnerRecord, programID, realm[:], mint[:], owner[:])
}

func (d *Deriver) VoteRecord(programID, proposal, tokenOwnerRecord types.Pubkey) (Address, error) {
	return d.Derive(KindVoteRecord, programID, proposal[:], tokenOwnerRecord[:])
}

func (d *Deriver) RealmConfig(programID, realm types.Pubkey) (Address, error) {
	return d.Derive(KindRealmConfig, programID, realm[:])
}

func (d *Deriver) Realm(programID types.Pubkey, name string) (Address, error) {
	return d.Derive(KindRealm, programID, []byte(name))
}

// Governance 派生 v3 的账户治理地址，seed 通常是被治理账户或任意种子公钥
func (d *Deriver) Governance(programID, realm, governanceSeed types.Pubkey) (Address, error) {
	return d.Derive(KindGovernance, programID, realm[:], governanceSeed[:])
}

func (d *Deriver) ProgramGovernance(programID, realm, governedProgram types.Pubkey) (Address, error) {
	return d.Derive(KindProgramGovernance, programID, realm[:], governedProgram[:])
}

func (d *Deriver) MintGovernance(programID, realm, governedMint types.Pubkey) (Address, error) {
	return d.Derive(KindMintGovernance, programID, realm[:], governedMint[:])
}

func (d *Deriver) TokenGovernance(programID, realm, governedToken types.Pubkey) (Address, error) {
	return d.Derive(KindTokenGovernance, programID, realm[:], governedToken[:])
}

// Proposal 派生提案地址。v3 的 proposalSeed 为 32 字节公钥，v1/v2 使用 ProposalIndexSeed
func (d *Deriver) Proposal(programID, governance, mint types.Pubkey, proposalSeed []byte) (Address, error) {
	return d.Derive(KindProposal, programID, governance[:], mint[:], proposalSeed)
}

func (d *Deriver) NativeTreasury(programID, governance types.Pubkey) (Address, error) {
	return d.Derive(KindNativeTreasury, programID, governance[:])
}

func (d *Deriver) GoverningTokenHolding(programID, realm, mint types.Pubkey) (Address, error) {
	return d.Derive(KindGoverningTokenHolding, programID, realm[:], mint[:])
}

func (d *Deriver) SignatoryRecord(programID, proposal, signatory types.Pubkey) (Address, error) {
	return d.Derive(KindSignatoryRecord, programID, proposal[:], signatory[:])
}

func (d *Deriver) ProposalDeposit(programID, proposal, payer types.Pubkey) (Address, error) {
	return d.Derive(KindProposalDeposit, programID, proposal[:], payer[:])
}
