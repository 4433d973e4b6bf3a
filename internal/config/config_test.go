package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/conf"

	"governance-sdk-sol/internal/consts"
	"governance-sdk-sol/pkg/types"
)

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadWatcherConfig(t *testing.T) {
	path := writeFile(t, "watcher.yaml", `
logger:
  format: json
  level: debug
governance:
  realm: pyth
kafka_producer:
  brokers: localhost:9092
grpc:
  endpoint: localhost:10000
  x_token: secret
`)
	var c WatcherConfig
	require.NoError(t, conf.Load(path, &c))

	assert.Equal(t, "json", c.LogConf.Format)
	assert.Equal(t, "pyth", c.Governance.Realm)
	assert.Equal(t, 10000, c.Governance.CacheLimit)
	assert.Equal(t, "governance", c.KafkaProducer.Topics.Governance)
	assert.Equal(t, 8, c.KafkaProducer.Partitions.Governance)
	assert.Equal(t, 10, c.Grpc.StreamPingIntervalSec)
	assert.Equal(t, 3000, c.TimeConf.EventSendTimeoutMs)

	opt := c.KafkaProducer.ToKafkaOption()
	require.Len(t, opt.Topics, 2)
	assert.Equal(t, "receipt", opt.Topics[1].Topic)
	assert.Equal(t, "debug", c.LogConf.ToLogOption().Level)
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	d, ok := r.Lookup("default")
	require.True(t, ok)
	assert.Equal(t, consts.GovernanceProgram, d.ProgramID)
	assert.Equal(t, consts.ProgramVersionV3, d.Version)

	alias, ok := r.Lookup(" SPL ")
	require.True(t, ok)
	assert.Equal(t, d, alias)

	_, ok = r.Lookup("unknown")
	assert.False(t, ok)
}

func TestLoadRegistry(t *testing.T) {
	custom := types.PubkeyFromBase58(consts.TokenProgramStr)
	path := writeFile(t, "realms.yaml", `
deployments:
  - name: Custom
    program_id: `+consts.TokenProgramStr+`
    version: 1
    aliases: [legacy]
  - name: pyth
    program_id: `+consts.GovernanceProgramStr+`
`)
	r, err := LoadRegistry(path)
	require.NoError(t, err)

	d, ok := r.Lookup("legacy")
	require.True(t, ok)
	assert.Equal(t, custom, d.ProgramID)
	assert.Equal(t, consts.ProgramVersionV1, d.Version)

	// 文件中的条目覆盖内置表，未写版本时默认 v3
	d, ok = r.Lookup("pyth")
	require.True(t, ok)
	assert.Equal(t, consts.GovernanceProgram, d.ProgramID)
	assert.Equal(t, consts.DefaultProgramVersion, d.Version)

	_, err = LoadRegistry(writeFile(t, "bad.yaml", "deployments:\n  - name: x\n    program_id: not-base58-0OIl\n"))
	assert.Error(t, err)
	_, err = LoadRegistry(writeFile(t, "v9.yaml", "deployments:\n  - name: x\n    program_id: "+consts.GovernanceProgramStr+"\n    version: 9\n"))
	assert.Error(t, err)
	_, err = LoadRegistry(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestGovernanceConfigResolve(t *testing.T) {
	r := DefaultRegistry()

	d, err := (&GovernanceConfig{Realm: "mango"}).Resolve(r)
	require.NoError(t, err)
	assert.Equal(t, consts.MangoGovernanceProgram, d.ProgramID)

	d, err = (&GovernanceConfig{Realm: "mango", ProgramVersion: 3}).Resolve(r)
	require.NoError(t, err)
	assert.Equal(t, consts.ProgramVersionV3, d.Version)

	d, err = (&GovernanceConfig{Realm: "mine", ProgramID: consts.PythGovernanceProgramStr}).Resolve(r)
	require.NoError(t, err)
	assert.Equal(t, consts.PythGovernanceProgram, d.ProgramID)
	assert.Equal(t, consts.DefaultProgramVersion, d.Version)

	_, err = (&GovernanceConfig{Realm: "nope"}).Resolve(r)
	assert.Error(t, err)
	_, err = (&GovernanceConfig{Realm: "default", ProgramID: "???"}).Resolve(r)
	assert.Error(t, err)
	_, err = (&GovernanceConfig{Realm: "default", ProgramVersion: 5}).Resolve(r)
	assert.Error(t, err)
}

func TestLoadSampleConfigs(t *testing.T) {
	var app GovernanceAppConfig
	require.NoError(t, conf.Load("../../etc/governance.yaml", &app))
	assert.Equal(t, "confirmed", app.Rpc.Commitment)
	assert.Equal(t, 15, app.Rpc.RequestTimeoutSec)
	assert.Equal(t, "governance-receipt", app.KafkaProducer.Topics.Receipt)
	assert.Empty(t, app.KafkaProducer.Brokers)
	assert.Equal(t, "pyth", app.Demo.PluginRealm)
	_, err := types.TryPubkeyFromBase58(app.Demo.MaxVoterWeightRecord)
	assert.NoError(t, err)

	var watcher WatcherConfig
	require.NoError(t, conf.Load("../../etc/watcher.yaml", &watcher))
	assert.Equal(t, 200, watcher.TimeConf.BatchFlushMs)
	assert.Equal(t, 4194304, watcher.Grpc.MaxCallSendMsgSize)

	r, err := LoadRegistry("../../etc/realms.yaml")
	require.NoError(t, err)
	d, ok := r.Lookup("test")
	require.True(t, ok)
	assert.Equal(t, consts.ProgramVersionV2, d.Version)
	_, ok = r.Lookup("pyth")
	assert.True(t, ok)
}
