// Package mq 消息队列接入：跨节点的新消息中继。
package mq

import (
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/Kostikrut/bubbly-back/internal/models"
)

// Envelope 中继信封。NodeID 标记消息来源节点，消费端据此跳过自己发布的消息。
type Envelope struct {
	NodeID  string          `json:"node_id"`
	Message *models.Message `json:"message"`
}

// KafkaProducer 同步生产者。消息已先行落库，这里只负责通知其他节点。
type KafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
	nodeID   string
	logger   *zap.Logger
}

func NewKafkaProducer(brokers []string, topic, nodeID string, logger *zap.Logger) (*KafkaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to start sarama producer: %w", err)
	}

	return &KafkaProducer{
		producer: producer,
		topic:    topic,
		nodeID:   nodeID,
		logger:   logger,
	}, nil
}

// PublishMessage 将已持久化的消息发布到中继主题。
// 以接收方 ID 作为分区键，保证同一接收方的消息有序。
func (k *KafkaProducer) PublishMessage(msg *models.Message) error {
	bytes, err := json.Marshal(Envelope{NodeID: k.nodeID, Message: msg})
	if err != nil {
		return fmt.Errorf("failed to marshal relay envelope: %w", err)
	}

	pm := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(fmt.Sprintf("%d", msg.ReceiverID)),
		Value: sarama.ByteEncoder(bytes),
	}

	partition, offset, err := k.producer.SendMessage(pm)
	if err != nil {
		return fmt.Errorf("failed to publish message to kafka: %w", err)
	}

	k.logger.Debug("message published to relay topic",
		zap.String("topic", k.topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
		zap.Uint("message_id", msg.ID),
	)
	return nil
}

func (k *KafkaProducer) Close() error {
	return k.producer.Close()
}
