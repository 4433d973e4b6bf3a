package svc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"governance-sdk-sol/internal/cache"
	"governance-sdk-sol/internal/config"
	"governance-sdk-sol/internal/journal"
	"governance-sdk-sol/internal/ledger"
	"governance-sdk-sol/internal/mq"
	"governance-sdk-sol/pkg/governance"
	"governance-sdk-sol/pkg/governance/pda"
	"governance-sdk-sol/pkg/logger"
)

// ServiceContext 投票程序的共享资源
type ServiceContext struct {
	Config     config.GovernanceAppConfig
	Registry   *config.Registry
	Deployment config.Deployment
	Metrics    *prometheus.Registry
	Deriver    *pda.Deriver
	Ledger     *ledger.RPCLedger
	Governance *governance.Governance
	Redis      *redis.Client         // redis.addr 为空时为 nil
	Journal    *journal.RedisJournal // 同上
	Producer   *kafka.Producer       // kafka_producer.brokers 为空时为 nil
	Sender     mq.JobSender
}

// NewServiceContext 创建投票程序的服务上下文，Redis / Kafka 未配置时跳过
func NewServiceContext(c config.GovernanceAppConfig) (*ServiceContext, error) {
	registry, deployment, err := resolveDeployment(c.Governance)
	if err != nil {
		return nil, err
	}

	deriver, err := newDeriver(c.Governance)
	if err != nil {
		return nil, err
	}

	metrics := prometheus.NewRegistry()
	rpcLedger, err := ledger.NewRPCLedger(c.Rpc, metrics)
	if err != nil {
		return nil, err
	}

	gov, err := governance.New(rpcLedger,
		governance.WithProgramID(deployment.ProgramID),
		governance.WithProgramVersion(deployment.Version),
		governance.WithDeriver(deriver))
	if err != nil {
		return nil, err
	}

	ctx := &ServiceContext{
		Config:     c,
		Registry:   registry,
		Deployment: deployment,
		Metrics:    metrics,
		Deriver:    deriver,
		Ledger:     rpcLedger,
		Governance: gov,
	}

	if c.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis ping %s: %w", c.Redis.Addr, err)
		}
		ctx.Redis = rdb
		ctx.Journal = journal.NewRedisJournal(rdb, c.Redis.IntentTTL())
	}

	if strings.TrimSpace(c.KafkaProducer.Brokers) != "" {
		producer, err := mq.NewKafkaProducer(c.KafkaProducer.ToKafkaOption())
		if err != nil {
			logger.Errorf("[ServiceContext] Kafka producer 初始化失败: %v", err)
			ctx.Close()
			return nil, err
		}
		ctx.Producer = producer
		ctx.Sender = mq.NewKafkaSender(producer, c.TimeConf.EventSendTimeout())
	}

	logger.Infof("[ServiceContext] deployment=%s program=%s version=%d",
		deployment.Name, deployment.ProgramID, deployment.Version)
	return ctx, nil
}

// GovernanceFor 按注册表名称构造另一个部署的客户端，共享 ledger 与 PDA 缓存
func (ctx *ServiceContext) GovernanceFor(name string) (*governance.Governance, config.Deployment, error) {
	d, ok := ctx.Registry.Lookup(name)
	if !ok {
		return nil, config.Deployment{}, fmt.Errorf("unknown governance deployment %q", name)
	}
	gov, err := governance.New(ctx.Ledger,
		governance.WithProgramID(d.ProgramID),
		governance.WithProgramVersion(d.Version),
		governance.WithDeriver(ctx.Deriver))
	if err != nil {
		return nil, config.Deployment{}, err
	}
	return gov, d, nil
}

// Close 关闭服务上下文中的资源
func (ctx *ServiceContext) Close() {
	if ctx.Producer != nil {
		ctx.Producer.Flush(3000)
		ctx.Producer.Close()
	}
	if ctx.Redis != nil {
		_ = ctx.Redis.Close()
	}
}

// WatcherServiceContext 账户订阅程序的共享资源
type WatcherServiceContext struct {
	Config     config.WatcherConfig
	Deployment config.Deployment
	Producer   *kafka.Producer
	Sender     mq.JobSender
}

func NewWatcherServiceContext(c config.WatcherConfig) (*WatcherServiceContext, error) {
	_, deployment, err := resolveDeployment(c.Governance)
	if err != nil {
		return nil, err
	}

	producer, err := mq.NewKafkaProducer(c.KafkaProducer.ToKafkaOption())
	if err != nil {
		logger.Errorf("[WatcherServiceContext] Kafka producer 初始化失败: %v", err)
		return nil, err
	}

	logger.Infof("[WatcherServiceContext] watching program %s (%s)", deployment.ProgramID, deployment.Name)
	return &WatcherServiceContext{
		Config:     c,
		Deployment: deployment,
		Producer:   producer,
		Sender:     mq.NewKafkaSender(producer, c.TimeConf.EventSendTimeout()),
	}, nil
}

func (ctx *WatcherServiceContext) Close() {
	if ctx.Producer != nil {
		ctx.Producer.Flush(3000)
		ctx.Producer.Close()
	}
}

func resolveDeployment(c config.GovernanceConfig) (*config.Registry, config.Deployment, error) {
	registry, err := config.LoadRegistry(c.RegistryFile)
	if err != nil {
		return nil, config.Deployment{}, err
	}
	d, err := c.Resolve(registry)
	if err != nil {
		return nil, config.Deployment{}, err
	}
	return registry, d, nil
}

func newDeriver(c config.GovernanceConfig) (*pda.Deriver, error) {
	addrCache, err := cache.NewAddressCache(c.CacheLimit, time.Duration(c.CacheExpireSec)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("address cache: %w", err)
	}
	return pda.NewDeriver(addrCache), nil
}
