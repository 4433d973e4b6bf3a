package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	sdktypes "github.com/blocto/solana-go-sdk/types"
	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"

	"governance-sdk-sol/internal/config"
	"governance-sdk-sol/internal/service"
	"governance-sdk-sol/internal/svc"
	"governance-sdk-sol/pkg/governance"
	"governance-sdk-sol/pkg/governance/accounts"
	"governance-sdk-sol/pkg/logger"
	"governance-sdk-sol/pkg/types"
	"governance-sdk-sol/pkg/utils"
)

var configFile = flag.String("f", "etc/governance.yaml", "the config file")

func main() {
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
		}
	}()

	flag.Parse()

	var c config.GovernanceAppConfig
	conf.MustLoad(*configFile, &c)

	if err := logger.InitLogger(c.LogConf.ToLogOption()); err != nil {
		logx.Errorf("init logger: %v", err)
		os.Exit(1)
	}
	defer logger.Sync()

	sc, err := svc.NewServiceContext(c)
	if err != nil {
		logger.Errorf("[Main] init service context: %v", err)
		os.Exit(1)
	}
	defer sc.Close()

	keypair, err := loadKeypair(c.Demo.KeypairFile)
	if err != nil {
		logger.Errorf("[Main] load keypair: %v", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := run(ctx, sc, keypair); err != nil {
		logger.Errorf("[Main] %v", err)
	}
	logRPCStats(sc)
}

// loadKeypair 读取 solana-keygen 格式（64 个数字的 JSON 数组）；未配置时生成临时 keypair
func loadKeypair(path string) (sdktypes.Account, error) {
	if path == "" {
		logger.Warnf("[Main] keypair_file not set, using an ephemeral keypair")
		return sdktypes.NewAccount(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return sdktypes.Account{}, err
	}
	var ints []int
	if err := json.Unmarshal(raw, &ints); err != nil {
		return sdktypes.Account{}, fmt.Errorf("parse %s: %w", path, err)
	}
	secret := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return sdktypes.Account{}, fmt.Errorf("parse %s: byte %d out of range", path, i)
		}
		secret[i] = byte(v)
	}
	return sdktypes.AccountFromBytes(secret)
}

func run(ctx context.Context, sc *svc.ServiceContext, keypair sdktypes.Account) error {
	demo := sc.Config.Demo
	gov := sc.Governance
	me := types.PubkeyFromSDK(keypair.PublicKey)

	user := me
	if demo.User != "" {
		pk, err := types.TryPubkeyFromBase58(demo.User)
		if err != nil {
			return fmt.Errorf("demo.user: %w", err)
		}
		user = pk
	}

	if err := listMemberships(ctx, gov, user, demo.Workers); err != nil {
		return err
	}

	if demo.Realm != "" && demo.Proposal != "" {
		if err := castAndRelinquish(ctx, sc, keypair, demo); err != nil {
			return err
		}
	}

	if demo.PluginRealm != "" && demo.PluginProposal != "" {
		if err := buildPluginVote(ctx, sc, me, demo); err != nil {
			return err
		}
	}
	return nil
}

// listMemberships 用户参与的 DAO → 第一个 DAO 的 governance → 每个 governance 的提案
func listMemberships(ctx context.Context, gov *governance.Governance, user types.Pubkey, workers int) error {
	logger.Infof("[Main] fetching all the DAOs for %s", user)
	tors, err := gov.GetTokenOwnerRecordsFromPubkey(ctx, user)
	if err != nil {
		return fmt.Errorf("list token owner records: %w", err)
	}
	logger.Infof("[Main] the user is currently a member of %d DAOs", len(tors))
	if len(tors) == 0 {
		return nil
	}

	realm := tors[0].Account.Realm
	governances, err := gov.GetGovernanceForRealm(ctx, realm)
	if err != nil {
		return fmt.Errorf("list governances of %s: %w", realm, err)
	}
	logger.Infof("[Main] fetched %d governance accounts for realm %s", len(governances), realm)

	counts, err := utils.ParallelMapCtx(ctx, governances, workers,
		func(ctx context.Context, g accounts.ProgramAccount[accounts.Governance]) (int, error) {
			proposals, err := gov.GetProposalsForGovernance(ctx, g.Pubkey)
			return len(proposals), err
		})
	if err != nil {
		return fmt.Errorf("list proposals: %w", err)
	}
	for i, g := range governances {
		logger.Infof("[Main] found %d proposals for governance %s", counts[i], g.Pubkey)
	}
	return nil
}

func castAndRelinquish(ctx context.Context, sc *svc.ServiceContext, keypair sdktypes.Account, demo config.DemoConfig) error {
	gov := sc.Governance
	realm, err := types.TryPubkeyFromBase58(demo.Realm)
	if err != nil {
		return fmt.Errorf("demo.realm: %w", err)
	}
	proposalAddr, err := types.TryPubkeyFromBase58(demo.Proposal)
	if err != nil {
		return fmt.Errorf("demo.proposal: %w", err)
	}

	proposal, err := gov.GetProposal(ctx, proposalAddr)
	if err != nil {
		return fmt.Errorf("get proposal %s: %w", proposalAddr, err)
	}
	me := types.PubkeyFromSDK(keypair.PublicKey)
	myTOR, err := gov.DeriveTokenOwnerRecordAddress(realm, proposal.Account.GoverningTokenMint, me)
	if err != nil {
		return err
	}
	logger.Infof("[Main] proposal %q state=%s, voter TOR %s", proposal.Account.Name, proposal.Account.State, myTOR)

	vote := accounts.ApproveVote(accounts.VoteChoice{Rank: 0, WeightPercentage: 100})
	castParams := governance.CastVoteParams{
		Realm:                 realm,
		Governance:            proposal.Account.Governance,
		Proposal:              proposalAddr,
		ProposalOwnerRecord:   proposal.Account.TokenOwnerRecord,
		VoterTokenOwnerRecord: myTOR,
		VoterAuthority:        me,
		GoverningTokenMint:    proposal.Account.GoverningTokenMint,
		Payer:                 me,
		ProposalAccount:       proposal.Account,
	}
	relinquishParams := governance.RelinquishVoteParams{
		Realm:                 realm,
		Governance:            proposal.Account.Governance,
		Proposal:              proposalAddr,
		VoterTokenOwnerRecord: myTOR,
		GoverningTokenMint:    proposal.Account.GoverningTokenMint,
		Authority:             &me,
		Beneficiary:           &me,
	}

	if !demo.Submit {
		castIx, err := gov.CastVoteInstruction(ctx, vote, castParams)
		if err != nil {
			return err
		}
		logInstruction("cast vote", castIx)
		relinquishIx, err := gov.RelinquishVoteInstruction(relinquishParams)
		if err != nil {
			return err
		}
		logInstruction("relinquish vote", relinquishIx)
		return nil
	}

	opts := []service.VoteServiceOption{}
	if sc.Journal != nil {
		opts = append(opts, service.WithJournal(sc.Journal))
	}
	if sc.Sender != nil {
		kc := sc.Config.KafkaProducer
		opts = append(opts, service.WithReceipts(sc.Sender, kc.Topics.Receipt, kc.Partitions.Receipt))
	}
	votes := service.NewVoteService(gov, sc.Ledger, opts...)

	submitCtx, cancel := context.WithTimeout(ctx, 2*sc.Config.Rpc.ConfirmTimeout()+10*time.Second)
	defer cancel()

	sig, err := votes.CastVote(submitCtx, keypair, vote, castParams)
	if err != nil {
		return fmt.Errorf("cast vote (signature %q): %w", sig, err)
	}
	logger.Infof("[Main] cast vote confirmed: %s", sig)

	sig, err = votes.RelinquishVote(submitCtx, keypair, relinquishParams)
	if err != nil {
		return fmt.Errorf("relinquish vote (signature %q): %w", sig, err)
	}
	logger.Infof("[Main] relinquish vote confirmed: %s", sig)
	return nil
}

// buildPluginVote 在第二个部署上构造带 voter weight 插件的投票指令
func buildPluginVote(ctx context.Context, sc *svc.ServiceContext, me types.Pubkey, demo config.DemoConfig) error {
	gov, d, err := sc.GovernanceFor(demo.PluginRealm)
	if err != nil {
		return err
	}
	keys, err := parseKeys(map[string]string{
		"plugin_realm_account":    demo.PluginRealmAccount,
		"plugin_proposal":         demo.PluginProposal,
		"plugin_voter":            demo.PluginVoter,
		"voter_weight_record":     demo.VoterWeightRecord,
		"max_voter_weight_record": demo.MaxVoterWeightRecord,
	})
	if err != nil {
		return err
	}
	realm, proposalAddr := keys["plugin_realm_account"], keys["plugin_proposal"]
	vwr, mvwr := keys["voter_weight_record"], keys["max_voter_weight_record"]

	proposal, err := gov.GetProposal(ctx, proposalAddr)
	if err != nil {
		return fmt.Errorf("get %s proposal %s: %w", d.Name, proposalAddr, err)
	}
	voterTOR, err := gov.DeriveTokenOwnerRecordAddress(realm, proposal.Account.GoverningTokenMint, keys["plugin_voter"])
	if err != nil {
		return err
	}

	tokenConfig, err := gov.ResolveVoterWeightPlugin(ctx, realm, proposal.Account.GoverningTokenMint)
	if err != nil {
		logger.Warnf("[Main] resolve voter weight plugin for %s: %v", realm, err)
	} else if tokenConfig != nil && tokenConfig.VoterWeightAddin != nil {
		logger.Infof("[Main] realm %s uses voter weight addin %s", realm, *tokenConfig.VoterWeightAddin)
	}

	ix, err := gov.CastVoteInstruction(ctx, accounts.ApproveVote(accounts.VoteChoice{Rank: 0, WeightPercentage: 100}),
		governance.CastVoteParams{
			Realm:                 realm,
			Governance:            proposal.Account.Governance,
			Proposal:              proposalAddr,
			ProposalOwnerRecord:   proposal.Account.TokenOwnerRecord,
			VoterTokenOwnerRecord: voterTOR,
			VoterAuthority:        me,
			GoverningTokenMint:    proposal.Account.GoverningTokenMint,
			Payer:                 me,
			VoterWeightRecord:     &vwr,
			MaxVoterWeightRecord:  &mvwr,
			ProposalAccount:       proposal.Account,
		})
	if err != nil {
		return err
	}
	logInstruction(d.Name+" cast vote with plugin", ix)
	return nil
}

func parseKeys(fields map[string]string) (map[string]types.Pubkey, error) {
	out := make(map[string]types.Pubkey, len(fields))
	for name, s := range fields {
		pk, err := types.TryPubkeyFromBase58(s)
		if err != nil {
			return nil, fmt.Errorf("demo.%s: %w", name, err)
		}
		out[name] = pk
	}
	return out, nil
}

func logInstruction(label string, ix sdktypes.Instruction) {
	logger.Infof("[Main] %s: program=%s data=%v accounts=%d", label, ix.ProgramID, ix.Data, len(ix.Accounts))
	for i, m := range ix.Accounts {
		logger.Infof("[Main]   #%-2d %s signer=%t writable=%t", i, m.PubKey, m.IsSigner, m.IsWritable)
	}
}

func logRPCStats(sc *svc.ServiceContext) {
	families, err := sc.Metrics.Gather()
	if err != nil {
		return
	}
	for _, mf := range families {
		if mf.GetName() != "governance_rpc_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := ""
			for _, lp := range m.GetLabel() {
				labels += lp.GetName() + "=" + lp.GetValue() + " "
			}
			logger.Infof("[Main] rpc %s: %.0f", labels, m.GetCounter().GetValue())
		}
	}
}
