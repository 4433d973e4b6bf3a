package governance

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"governance-sdk-sol/internal/consts"
	"governance-sdk-sol/internal/testutil"
	"governance-sdk-sol/pkg/governance/accounts"
	"governance-sdk-sol/pkg/governance/errs"
	"governance-sdk-sol/pkg/types"
)

// fakeLedger 在内存中模拟 getAccountInfo / getProgramAccounts
type fakeLedger struct {
	accounts      map[types.Pubkey][]byte
	ignoreFilters bool
	filterCalls   int
	err           error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{accounts: make(map[types.Pubkey][]byte)}
}

func (f *fakeLedger) put(addr types.Pubkey, data []byte) {
	f.accounts[addr] = data
}

func (f *fakeLedger) FetchAccount(_ context.Context, addr types.Pubkey) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.accounts[addr]
	if !ok {
		return nil, errs.ErrAccountNotFound
	}
	return data, nil
}

func (f *fakeLedger) FetchAccountsByFilter(_ context.Context, _ types.Pubkey, filters ...AccountFilter) ([]KeyedAccount, error) {
	f.filterCalls++
	if f.err != nil {
		return nil, f.err
	}
	var out []KeyedAccount
	for addr, data := range f.accounts {
		if !f.ignoreFilters && !matchAll(data, filters) {
			continue
		}
		out = append(out, KeyedAccount{Pubkey: addr, Data: data})
	}
	return out, nil
}

func matchAll(data []byte, filters []AccountFilter) bool {
	for _, flt := range filters {
		end := flt.Offset + uint64(len(flt.Bytes))
		if end > uint64(len(data)) || !bytes.Equal(data[flt.Offset:end], flt.Bytes) {
			return false
		}
	}
	return true
}

var (
	realmA     = testutil.Key(1)
	realmB     = testutil.Key(2)
	mintA      = testutil.Key(3)
	mintB      = testutil.Key(4)
	user       = testutil.Key(5)
	otherUser  = testutil.Key(6)
	govA       = testutil.Key(7)
	govB       = testutil.Key(8)
	governedA  = testutil.Key(9)
	proposalA  = testutil.Key(10)
	proposalB  = testutil.Key(11)
	payer      = testutil.Key(12)
	vwrPlugin  = testutil.Key(13)
	mvwrPlugin = testutil.Key(14)
)

func torBlob(accountType uint8, realm, mint, owner types.Pubkey) []byte {
	return testutil.MustSerialize(testutil.TokenOwnerRecord{
		AccountType:                 accountType,
		Realm:                       realm,
		GoverningTokenMint:          mint,
		GoverningTokenOwner:         owner,
		GoverningTokenDepositAmount: 1,
	})
}

func governanceBlob(realm, governed types.Pubkey) []byte {
	return testutil.MustSerialize(testutil.GovernanceV2{
		AccountType:            testutil.TypeGovernanceV2,
		Realm:                  realm,
		GovernedAccount:        governed,
		CommunityVoteThreshold: testutil.Threshold{Type: 0, Value: 60},
	})
}

func proposalBlob(governance, mint, ownerRecord types.Pubkey, name string) []byte {
	return testutil.MustSerialize(testutil.ProposalV2{
		AccountType:        testutil.TypeProposalV2,
		Governance:         governance,
		GoverningTokenMint: mint,
		State:              2,
		TokenOwnerRecord:   ownerRecord,
		Options:            []testutil.ProposalOption{{Label: "Approve"}},
		DenyVoteWeight:     testutil.Ptr[uint64](0),
		Name:               name,
	})
}

func realmBlob(community types.Pubkey, council *types.Pubkey) []byte {
	return testutil.MustSerialize(testutil.Realm{
		AccountType:   testutil.TypeRealmV2,
		CommunityMint: community,
		CouncilMint:   council,
		Name:          "realm",
	})
}

func newClient(t *testing.T, ledger *fakeLedger, opts ...Option) *Governance {
	g, err := New(ledger, opts...)
	require.NoError(t, err)
	return g
}

func keysOf[T any](list []accounts.ProgramAccount[T]) []types.Pubkey {
	out := make([]types.Pubkey, 0, len(list))
	for _, a := range list {
		out = append(out, a.Pubkey)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}

// seedLedger 写入一组混合账户，返回 user 名下 TOR 的地址集合
func seedLedger(t *testing.T, g *Governance, ledger *fakeLedger) []types.Pubkey {
	var mine []types.Pubkey
	for _, c := range []struct {
		accountType uint8
		realm, mint types.Pubkey
		owner       types.Pubkey
	}{
		{testutil.TypeTokenOwnerRecordV2, realmA, mintA, user},
		{testutil.TypeTokenOwnerRecordV2, realmB, mintB, user},
		{testutil.TypeTokenOwnerRecordV1, realmB, mintA, user},
		{testutil.TypeTokenOwnerRecordV2, realmA, mintA, otherUser},
		{testutil.TypeTokenOwnerRecordV1, realmB, mintB, otherUser},
	} {
		addr, err := g.DeriveTokenOwnerRecordAddress(c.realm, c.mint, c.owner)
		require.NoError(t, err)
		ledger.put(addr, torBlob(c.accountType, c.realm, c.mint, c.owner))
		if c.owner == user {
			mine = append(mine, addr)
		}
	}
	ledger.put(realmA, realmBlob(mintA, &mintB))
	ledger.put(govA, governanceBlob(realmA, governedA))
	ledger.put(govB, governanceBlob(realmB, governedA))
	ledger.put(proposalA, proposalBlob(govA, mintA, mine[0], "first"))
	ledger.put(proposalB, proposalBlob(govB, mintA, mine[0], "second"))
	sort.Slice(mine, func(i, j int) bool { return bytes.Compare(mine[i][:], mine[j][:]) < 0 })
	return mine
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(newFakeLedger(), WithProgramVersion(7))
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)

	g := newClient(t, newFakeLedger(), WithProgramID(consts.PythGovernanceProgram), WithProgramVersion(consts.ProgramVersionV2))
	assert.Equal(t, consts.PythGovernanceProgram, g.ProgramID())
	assert.Equal(t, consts.ProgramVersionV2, g.ProgramVersion())
}

func TestGetTokenOwnerRecordsFromPubkey(t *testing.T) {
	for _, ignore := range []bool{false, true} {
		ledger := newFakeLedger()
		ledger.ignoreFilters = ignore
		g := newClient(t, ledger)
		want := seedLedger(t, g, ledger)

		got, err := g.GetTokenOwnerRecordsFromPubkey(context.Background(), user)
		require.NoError(t, err)
		assert.Equal(t, want, keysOf(got), "ignoreFilters=%v", ignore)
		for _, r := range got {
			assert.Equal(t, user, r.Account.GoverningTokenOwner)
		}
		// 每个布局版本一次批量查询
		assert.Equal(t, 2, ledger.filterCalls)
	}
}

func TestGetTokenOwnerRecordsForRealm(t *testing.T) {
	ledger := newFakeLedger()
	g := newClient(t, ledger)
	seedLedger(t, g, ledger)

	got, err := g.GetTokenOwnerRecordsForRealm(context.Background(), realmB)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestGetGovernanceForRealm(t *testing.T) {
	ledger := newFakeLedger()
	g := newClient(t, ledger)
	seedLedger(t, g, ledger)

	got, err := g.GetGovernanceForRealm(context.Background(), realmA)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, govA, got[0].Pubkey)
	assert.Equal(t, 8, ledger.filterCalls)
}

func TestGetProposalsForGovernance(t *testing.T) {
	ledger := newFakeLedger()
	ledger.ignoreFilters = true
	g := newClient(t, ledger)
	seedLedger(t, g, ledger)

	got, err := g.GetProposalsForGovernance(context.Background(), govB)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, proposalB, got[0].Pubkey)
	assert.Equal(t, "second", got[0].Account.Name)
}

func TestQueryFailsOnMalformedAccount(t *testing.T) {
	ledger := newFakeLedger()
	g := newClient(t, ledger)
	seedLedger(t, g, ledger)

	blob := torBlob(testutil.TypeTokenOwnerRecordV2, realmA, mintB, user)
	ledger.put(testutil.Key(200), blob[:100])

	_, err := g.GetTokenOwnerRecordsFromPubkey(context.Background(), user)
	assert.ErrorIs(t, err, errs.ErrTruncatedData)
	assert.ErrorIs(t, err, errs.ErrInvalidAccountData)
}

func TestQueryPropagatesReaderError(t *testing.T) {
	ledger := newFakeLedger()
	ledger.err = errors.New("rpc down")
	g := newClient(t, ledger)

	_, err := g.GetGovernanceForRealm(context.Background(), realmA)
	assert.ErrorContains(t, err, "rpc down")
}

func TestGetSingleAccounts(t *testing.T) {
	ledger := newFakeLedger()
	g := newClient(t, ledger)
	seedLedger(t, g, ledger)
	ctx := context.Background()

	p, err := g.GetProposal(ctx, proposalA)
	require.NoError(t, err)
	assert.Equal(t, proposalA, p.Pubkey)
	assert.Equal(t, "first", p.Account.Name)

	realm, err := g.GetRealm(ctx, realmA)
	require.NoError(t, err)
	assert.Equal(t, mintA, realm.Account.CommunityMint)

	_, err = g.GetProposal(ctx, testutil.Key(99))
	assert.ErrorIs(t, err, errs.ErrAccountNotFound)

	_, err = g.GetProposal(ctx, govA)
	assert.ErrorIs(t, err, errs.ErrUnexpectedAccountKind)
}

func TestDerivedAddressRoundTrip(t *testing.T) {
	ledger := newFakeLedger()
	g := newClient(t, ledger)
	seedLedger(t, g, ledger)
	ctx := context.Background()

	tors, err := g.GetTokenOwnerRecordsFromPubkey(ctx, user)
	require.NoError(t, err)
	for _, tor := range tors {
		addr, err := g.DeriveTokenOwnerRecordAddress(tor.Account.Realm, tor.Account.GoverningTokenMint, tor.Account.GoverningTokenOwner)
		require.NoError(t, err)
		assert.Equal(t, tor.Pubkey, addr)
	}

	govAddr, err := g.Builder().Deriver().Governance(g.ProgramID(), realmA, governedA)
	require.NoError(t, err)
	ledger.put(govAddr.Pubkey, governanceBlob(realmA, governedA))
	gov, err := g.GetGovernance(ctx, govAddr.Pubkey)
	require.NoError(t, err)
	again, err := g.Builder().Deriver().Governance(g.ProgramID(), gov.Account.Realm, gov.Account.GovernedAccount)
	require.NoError(t, err)
	assert.Equal(t, govAddr, again)

	first, err := g.DeriveTokenOwnerRecordAddress(realmA, mintA, user)
	require.NoError(t, err)
	vrAddr, err := g.DeriveVoteRecordAddress(proposalA, first)
	require.NoError(t, err)
	ledger.put(vrAddr, testutil.VoteRecordV2Data(proposalA, user, false, 1, 1))
	vr, err := g.GetVoteRecord(ctx, vrAddr)
	require.NoError(t, err)
	tor, err := g.DeriveTokenOwnerRecordAddress(realmA, mintA, vr.Account.GoverningTokenOwner)
	require.NoError(t, err)
	again2, err := g.DeriveVoteRecordAddress(vr.Account.Proposal, tor)
	require.NoError(t, err)
	assert.Equal(t, vrAddr, again2)
}

func TestCastVoteScenario(t *testing.T) {
	ledger := newFakeLedger()
	g := newClient(t, ledger)
	seedLedger(t, g, ledger)
	ctx := context.Background()

	first, err := g.DeriveTokenOwnerRecordAddress(realmA, mintA, user)
	require.NoError(t, err)
	second, err := g.DeriveTokenOwnerRecordAddress(realmA, mintA, user)
	require.NoError(t, err)
	require.Equal(t, first, second)

	params := CastVoteParams{
		Realm:                 realmA,
		Proposal:              proposalA,
		VoterTokenOwnerRecord: first,
		VoterAuthority:        user,
		GoverningTokenMint:    mintA,
		Payer:                 payer,
	}
	vote := accounts.ApproveVote(accounts.VoteChoice{Rank: 0, WeightPercentage: 100})
	ix, err := g.CastVoteInstruction(ctx, vote, params)
	require.NoError(t, err)

	require.Len(t, ix.Accounts, 11)
	expectedHead := []types.Pubkey{realmA, govA, proposalA, first, first, user}
	for i, want := range expectedHead {
		assert.Equal(t, want, types.PubkeyFromSDK(ix.Accounts[i].PubKey), "account %d", i)
	}
	for i, m := range ix.Accounts {
		key := types.PubkeyFromSDK(m.PubKey)
		assert.Equal(t, key == user || key == payer, m.IsSigner, "account %d", i)
	}
	// CastVote, Vote::Approve, vec len 1, {rank 0, weight 100}
	assert.Equal(t, []byte{consts.IxCastVote, 0, 1, 0, 0, 0, 0, 100}, ix.Data)
}

func TestCastVoteInstructionValidation(t *testing.T) {
	ledger := newFakeLedger()
	g := newClient(t, ledger)
	seedLedger(t, g, ledger)
	ctx := context.Background()
	base := CastVoteParams{
		Realm:              realmA,
		Proposal:           proposalA,
		VoterAuthority:     user,
		GoverningTokenMint: mintA,
		Payer:              payer,
	}
	approve := accounts.ApproveVote(accounts.VoteChoice{WeightPercentage: 100})

	_, err := g.CastVoteInstruction(ctx, accounts.ApproveVote(accounts.VoteChoice{WeightPercentage: 90}), base)
	assert.ErrorIs(t, err, errs.ErrInvalidVoteWeights)

	p := base
	p.GoverningTokenMint = mintB
	_, err = g.CastVoteInstruction(ctx, approve, p)
	assert.ErrorIs(t, err, errs.ErrMintMismatch)

	p = base
	p.VoterWeightRecord = &vwrPlugin
	_, err = g.CastVoteInstruction(ctx, approve, p)
	assert.ErrorIs(t, err, errs.ErrIncompletePluginPair)

	p = base
	p.MaxVoterWeightRecord = &mvwrPlugin
	_, err = g.CastVoteInstruction(ctx, approve, p)
	assert.ErrorIs(t, err, errs.ErrIncompletePluginPair)

	p.VoterWeightRecord = &vwrPlugin
	ix, err := g.CastVoteInstruction(ctx, approve, p)
	require.NoError(t, err)
	require.Len(t, ix.Accounts, 13)
	assert.Equal(t, vwrPlugin, types.PubkeyFromSDK(ix.Accounts[11].PubKey))
	assert.Equal(t, mvwrPlugin, types.PubkeyFromSDK(ix.Accounts[12].PubKey))

	p = base
	p.Proposal = testutil.Key(150)
	_, err = g.CastVoteInstruction(ctx, approve, p)
	assert.ErrorIs(t, err, errs.ErrAccountNotFound)
}

func TestRelinquishVoteInstruction(t *testing.T) {
	g := newClient(t, newFakeLedger())
	tor, err := g.DeriveTokenOwnerRecordAddress(realmA, mintA, user)
	require.NoError(t, err)
	params := RelinquishVoteParams{
		Realm:                 realmA,
		Governance:            govA,
		Proposal:              proposalA,
		VoterTokenOwnerRecord: tor,
		GoverningTokenMint:    mintA,
	}

	ix, err := g.RelinquishVoteInstruction(params)
	require.NoError(t, err)
	assert.Len(t, ix.Accounts, 6)

	params.Authority = &user
	_, err = g.RelinquishVoteInstruction(params)
	assert.ErrorIs(t, err, errs.ErrIncompleteRefundPair)

	params.Beneficiary = &payer
	ix, err = g.RelinquishVoteInstruction(params)
	require.NoError(t, err)
	assert.Len(t, ix.Accounts, 8)
}

func TestResolveVoterWeightPlugin(t *testing.T) {
	ledger := newFakeLedger()
	g := newClient(t, ledger)
	ledger.put(realmA, realmBlob(mintA, &mintB))
	ctx := context.Background()

	cfg, err := g.ResolveVoterWeightPlugin(ctx, realmA, mintA)
	require.NoError(t, err)
	assert.Nil(t, cfg)

	configAddr, err := g.DeriveRealmConfigAddress(realmA)
	require.NoError(t, err)
	ledger.put(configAddr, testutil.MustSerialize(testutil.RealmConfig{
		AccountType: testutil.TypeRealmConfig,
		Realm:       realmA,
		CommunityToken: testutil.GoverningTokenConfig{
			VoterWeightAddin:    &vwrPlugin,
			MaxVoterWeightAddin: &mvwrPlugin,
		},
	}))

	cfg, err = g.ResolveVoterWeightPlugin(ctx, realmA, mintA)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.NotNil(t, cfg.VoterWeightAddin)
	assert.Equal(t, vwrPlugin, *cfg.VoterWeightAddin)

	cfg, err = g.ResolveVoterWeightPlugin(ctx, realmA, mintB)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Nil(t, cfg.VoterWeightAddin)

	_, err = g.ResolveVoterWeightPlugin(ctx, realmA, user)
	assert.ErrorIs(t, err, errs.ErrMintMismatch)
}
