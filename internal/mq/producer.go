package mq

import (
	"context"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/zeromicro/go-zero/core/netx"

	"governance-sdk-sol/pkg/logger"
)

const (
	defaultBatchSize = 32 * 1024
	defaultLingerMs  = 5
	defaultClientID  = "governance"
)

type TopicOption struct {
	Topic      string // topic 名称
	Partitions int    // 分区数
}

type KafkaProducerOption struct {
	Brokers   string // Kafka broker 地址，多个用英文逗号分隔（如 "localhost:9092,localhost:9093"）
	BatchSize int    // 批处理大小（单位字节），如 32768 = 32KB
	LingerMs  int    // 批处理最大延迟（毫秒），建议 5~20ms 之间
	ClientID  string // client.id 前缀，会拼接本机 IP

	Topics []TopicOption
}

// NewKafkaProducer 创建 Kafka 生产者，并确保配置中的 topic 存在
func NewKafkaProducer(cfg KafkaProducerOption) (*kafka.Producer, error) {
	if cfg.Brokers == "" {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	if err := ensureTopics(cfg); err != nil {
		return nil, err
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	lingerMs := cfg.LingerMs
	if lingerMs < 0 {
		lingerMs = defaultLingerMs
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = defaultClientID
	}
	localIP := netx.InternalIp()
	if localIP == "" {
		localIP = "unknown"
	}

	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		// 基础连接
		"bootstrap.servers": cfg.Brokers,
		"client.id":         fmt.Sprintf("%s-%s", clientID, localIP),

		// 可靠性保障
		"acks":                                  "all",
		"enable.idempotence":                    true,
		"max.in.flight.requests.per.connection": 5, // 幂等场景下最大值为 5

		// 超时与重试
		"delivery.timeout.ms": 30000,
		"request.timeout.ms":  30000,
		"retries":             5,
		"retry.backoff.ms":    100,

		// 性能优化
		"batch.size":       batchSize,
		"linger.ms":        lingerMs,
		"compression.type": "none",

		"message.max.bytes": 2 * 1024 * 1024, // 2MB
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}
	return producer, nil
}

// ensureTopics 检查 topic 是否存在，不存在则按配置的分区数创建
func ensureTopics(cfg KafkaProducerOption) error {
	adminClient, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer adminClient.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	meta, err := adminClient.GetMetadata(nil, true, 10000)
	if err != nil {
		return fmt.Errorf("failed to get metadata: %w", err)
	}
	brokerCount := len(meta.Brokers)

	// 每个分区副本的数量
	replicationFactor := 1
	if brokerCount > 1 {
		replicationFactor = 2
	}
	logger.Infof("[mq] Kafka broker count = %d, using replication factor = %d", brokerCount, replicationFactor)

	existingTopics := make(map[string]bool, len(meta.Topics))
	for _, topic := range meta.Topics {
		existingTopics[topic.Topic] = true
	}

	var topicsToCreate []kafka.TopicSpecification
	for _, topic := range cfg.Topics {
		if topic.Topic == "" || existingTopics[topic.Topic] {
			continue
		}
		partitions := topic.Partitions
		if partitions <= 0 {
			partitions = 1
		}
		topicsToCreate = append(topicsToCreate, kafka.TopicSpecification{
			Topic:             topic.Topic,
			NumPartitions:     partitions,
			ReplicationFactor: replicationFactor,
		})
	}
	if len(topicsToCreate) == 0 {
		return nil
	}

	results, err := adminClient.CreateTopics(ctx, topicsToCreate)
	if err != nil {
		return fmt.Errorf("failed to create topics: %w", err)
	}
	for _, result := range results {
		if code := result.Error.Code(); code != kafka.ErrNoError && code != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("failed to create topic %s: %w", result.Topic, result.Error)
		}
		logger.Infof("[mq] created topic %s", result.Topic)
	}
	return nil
}
