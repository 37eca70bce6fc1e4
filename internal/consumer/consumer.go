// Package consumer 消费中继主题，把其他节点持久化的消息推送给
// 连接在本节点的接收方。
package consumer

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/Kostikrut/bubbly-back/internal/ws"
	logger "github.com/Kostikrut/bubbly-back/middleware/log"
	"github.com/Kostikrut/bubbly-back/pkg/mq"
)

// RelayConsumer 实现 sarama.ConsumerGroupHandler
type RelayConsumer struct {
	hub    *ws.Hub
	nodeID string
	logger *logger.Logger
}

func NewRelayConsumer(hub *ws.Hub, nodeID string, log *logger.Logger) *RelayConsumer {
	return &RelayConsumer{
		hub:    hub,
		nodeID: nodeID,
		logger: log,
	}
}

// Setup is run at the beginning of a new session, before ConsumeClaim
func (c *RelayConsumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited
func (c *RelayConsumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim 消费分区消息。反序列化失败或来自本节点的信封直接跳过，
// 消息本体已落库，推送失败不重试。
func (c *RelayConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		var env mq.Envelope
		if err := json.Unmarshal(message.Value, &env); err != nil {
			c.logger.Warn("failed to unmarshal relay envelope",
				zap.String("topic", message.Topic),
				zap.Error(err),
			)
			session.MarkMessage(message, "")
			continue
		}

		// 本节点发布的消息在发送请求周期内已推送过
		if env.NodeID == c.nodeID || env.Message == nil {
			session.MarkMessage(message, "")
			continue
		}

		if c.hub.PushNewMessage(env.Message) {
			c.logger.Debug("relayed message to local connection",
				zap.Uint("message_id", env.Message.ID),
				zap.Uint("receiver_id", env.Message.ReceiverID),
			)
		}

		session.MarkMessage(message, "")
	}
	return nil
}

// Start 启动消费循环。每个节点使用独立的 groupID（groupID-nodeID），
// 使中继主题表现为广播而非队列。
func Start(ctx context.Context, brokers []string, groupID, nodeID, topic string, consumer *RelayConsumer, log *logger.Logger) error {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	config.Consumer.Offsets.Initial = sarama.OffsetNewest

	client, err := sarama.NewConsumerGroup(brokers, groupID+"-"+nodeID, config)
	if err != nil {
		return err
	}

	go func() {
		defer client.Close()
		for {
			if err := client.Consume(ctx, []string{topic}, consumer); err != nil {
				log.Error("relay consumer error", zap.Error(err))
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()
	return nil
}
