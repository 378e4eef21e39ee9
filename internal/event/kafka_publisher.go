package event

import (
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// KafkaPublisher forwards ranking-changed events to a Kafka topic for
// out-of-process consumers (websocket gateways, admin dashboards).
// Uses the async producer: delivery errors are drained to the log, the
// mutation path never waits on a broker.
type KafkaPublisher struct {
	producer sarama.AsyncProducer
	topic    string
	logger   *zap.Logger
	done     chan struct{}
}

// NewKafkaPublisher connects the async producer and starts the error drain.
func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) (*KafkaPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = false

	producer, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer failed: %w", err)
	}

	p := &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   log,
		done:     make(chan struct{}),
	}

	go func() {
		defer close(p.done)
		for perr := range producer.Errors() {
			p.logger.Warn("kafka publish failed",
				zap.String("topic", perr.Msg.Topic),
				zap.Error(perr.Err))
		}
	}()

	return p, nil
}

// OnRankingChanged implements Listener.
func (p *KafkaPublisher) OnRankingChanged(ev RankingChanged) {
	payload, err := json.Marshal(ev)
	if err != nil {
		p.logger.Warn("kafka event serialize failed",
			zap.String("member_id", ev.MemberID), zap.Error(err))
		return
	}

	p.producer.Input() <- &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.MemberID),
		Value: sarama.ByteEncoder(payload),
	}
}

// Close flushes pending messages and stops the error drain.
func (p *KafkaPublisher) Close() error {
	err := p.producer.Close()
	<-p.done
	return err
}
