package config

import (
	"time"

	"governance-sdk-sol/internal/mq"
	"governance-sdk-sol/pkg/logger"
)

type LogConfig struct {
	Format   string `json:"format,default=console"` // 日志格式，支持 "console" 或 "json"
	LogDir   string `json:"log_dir,optional"`       // 日志目录（可为相对路径或绝对路径），为空只输出到 stdout
	Level    string `json:"level,default=info"`     // 日志级别：debug / info / warn / error
	Compress bool   `json:"compress,optional"`      // 是否压缩旧日志文件
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

// RpcConfig Solana JSON-RPC 节点配置
type RpcConfig struct {
	Endpoint          string `json:"endpoint"`                       // 例如 https://api.devnet.solana.com
	Commitment        string `json:"commitment,default=confirmed"`   // processed / confirmed / finalized
	ConfirmTimeoutSec int    `json:"confirm_timeout_sec,default=60"` // 等待交易确认的最长时间（秒）
	PollIntervalMs    int    `json:"poll_interval_ms,default=500"`   // 轮询签名状态间隔（毫秒）
	RequestTimeoutSec int    `json:"request_timeout_sec,default=15"` // 单次 RPC 请求超时（秒）
}

func (c *RpcConfig) ConfirmTimeout() time.Duration {
	return time.Duration(c.ConfirmTimeoutSec) * time.Second
}

func (c *RpcConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

func (c *RpcConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// GovernanceConfig 治理程序部署配置
type GovernanceConfig struct {
	Realm          string `json:"realm,default=default"`     // 使用 registry 中的哪个部署
	RegistryFile   string `json:"registry_file,optional"`    // realm 注册表（yaml），为空使用内置表
	ProgramID      string `json:"program_id,optional"`       // 覆盖注册表中的 program id
	ProgramVersion uint8  `json:"program_version,optional"`  // 覆盖注册表中的版本
	CacheLimit     int    `json:"cache_limit,default=10000"` // PDA 缓存条目上限
	CacheExpireSec int    `json:"cache_expire_sec,default=3600"`
}

// KafkaProducerConfig 表示 Kafka 生产者相关配置
type KafkaProducerConfig struct {
	Brokers   string `json:"brokers,optional"`             // Kafka broker 地址，多个用英文逗号分隔
	BatchSize int    `json:"batch_size,default=32768"`     // 批处理大小（单位字节）
	LingerMs  int    `json:"linger_ms,default=5"`          // 批处理最大延迟（毫秒）
	ClientID  string `json:"client_id,default=governance"` // client.id 前缀

	Topics struct {
		Governance string `json:"governance,default=governance"` // 账户变更事件 topic
		Receipt    string `json:"receipt,default=receipt"`       // 投票回执 topic
	} `json:"topics"`

	Partitions struct {
		Governance int `json:"governance,default=8"`
		Receipt    int `json:"receipt,default=1"`
	} `json:"partitions"`
}

func (c *KafkaProducerConfig) ToKafkaOption() mq.KafkaProducerOption {
	return mq.KafkaProducerOption{
		Brokers:   c.Brokers,
		BatchSize: c.BatchSize,
		LingerMs:  c.LingerMs,
		ClientID:  c.ClientID,
		Topics: []mq.TopicOption{
			{Topic: c.Topics.Governance, Partitions: c.Partitions.Governance},
			{Topic: c.Topics.Receipt, Partitions: c.Partitions.Receipt},
		},
	}
}

// RedisConfig 提交日志（journal）所用的 Redis
type RedisConfig struct {
	Addr       string `json:"addr,optional"`
	Password   string `json:"password,optional"`
	DB         int    `json:"db,optional"`
	IntentTTLS int    `json:"intent_ttl_sec,default=86400"` // 意图记录保留时间（秒）
}

func (c *RedisConfig) IntentTTL() time.Duration {
	return time.Duration(c.IntentTTLS) * time.Second
}

// TimeConfig 表示各种超时配置（单位：毫秒）
type TimeConfig struct {
	EventSendTimeoutMs int `json:"event_send_timeout_ms,default=3000"` // 单条事件发送到 Kafka 并等待 ack 的超时时间
	BatchFlushMs       int `json:"batch_flush_ms,default=200"`         // 账户事件批量发送间隔
}

func (c *TimeConfig) EventSendTimeout() time.Duration {
	return time.Duration(c.EventSendTimeoutMs) * time.Millisecond
}

func (c *TimeConfig) BatchFlush() time.Duration {
	return time.Duration(c.BatchFlushMs) * time.Millisecond
}

// GrpcConfig Yellowstone gRPC 客户端连接相关配置
type GrpcConfig struct {
	Endpoint string `json:"endpoint"`         // gRPC 服务端地址
	XToken   string `json:"x_token,optional"` // x-token 认证
	// 本地/内网节点不走 TLS
	Plaintext bool `json:"plaintext,optional"`

	// 应用级逻辑心跳（ping）配置
	StreamPingIntervalSec int `json:"stream_ping_interval_sec,default=10"`

	// gRPC Keepalive 底层连接检测配置
	KeepalivePingIntervalSec int `json:"keepalive_ping_interval_sec,default=15"`
	KeepalivePingTimeoutSec  int `json:"keepalive_ping_timeout_sec,default=5"`

	// 消息体大小限制
	MaxCallSendMsgSize int `json:"max_call_send_msg_size,default=4194304"`
	MaxCallRecvMsgSize int `json:"max_call_recv_msg_size,default=67108864"`

	// 超时与重连策略
	ReconnectIntervalSec int `json:"reconnect_interval_sec,default=3"`
	ConnectTimeoutSec    int `json:"connect_timeout_sec,default=10"`
	SendTimeoutSec       int `json:"send_timeout_sec,default=5"`
}

// DemoConfig 演示流程参数
type DemoConfig struct {
	KeypairFile string `json:"keypair_file,optional"` // solana-keygen 生成的 JSON 私钥文件
	Workers     int    `json:"workers,default=4"`     // 并发读取提案的协程数
	Submit      bool   `json:"submit,optional"`       // 是否真正提交交易

	User     string `json:"user,optional"`     // 列出该地址参与的 DAO，为空时用 keypair 地址
	Realm    string `json:"realm,optional"`    // 投票的 realm
	Proposal string `json:"proposal,optional"` // 投票的提案

	// 第二个部署上的插件投票（只构造指令）
	PluginRealm          string `json:"plugin_realm,optional"` // registry 中的部署名
	PluginRealmAccount   string `json:"plugin_realm_account,optional"`
	PluginProposal       string `json:"plugin_proposal,optional"`
	PluginVoter          string `json:"plugin_voter,optional"`
	VoterWeightRecord    string `json:"voter_weight_record,optional"`
	MaxVoterWeightRecord string `json:"max_voter_weight_record,optional"`
}

// GovernanceAppConfig 投票演示程序（cmd/governance）的主配置
type GovernanceAppConfig struct {
	LogConf       LogConfig           `json:"logger"`
	Rpc           RpcConfig           `json:"rpc"`
	Governance    GovernanceConfig    `json:"governance"`
	Redis         RedisConfig         `json:"redis"`
	KafkaProducer KafkaProducerConfig `json:"kafka_producer"`
	TimeConf      TimeConfig          `json:"time_conf"`
	Demo          DemoConfig          `json:"demo"`
}

// WatcherConfig 账户订阅程序（cmd/watcher）的主配置
type WatcherConfig struct {
	LogConf       LogConfig           `json:"logger"`
	Governance    GovernanceConfig    `json:"governance"`
	KafkaProducer KafkaProducerConfig `json:"kafka_producer"`
	TimeConf      TimeConfig          `json:"time_conf"`
	Grpc          GrpcConfig          `json:"grpc"`
}
