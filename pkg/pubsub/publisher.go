package pubsub

import (
	"context"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"
)

type Publisher interface {
	Publish(ctx context.Context, topic string, key string, headers map[string]string, message []byte) error
	Close() error
}

type confluentKafkaPublisher struct {
	logger   *logrus.Logger
	producer *kafka.Producer
}

// PublisherFromConfluentKafkaProducer wraps p and starts draining its
// delivery reports into the logger.
func PublisherFromConfluentKafkaProducer(logger *logrus.Logger, p *kafka.Producer) Publisher {
	pub := &confluentKafkaPublisher{
		logger:   logger,
		producer: p,
	}

	go pub.deliveryReports()

	return pub
}

func (p *confluentKafkaPublisher) deliveryReports() {
	for e := range p.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				p.logger.WithFields(logrus.Fields{
					"object": "pubsub",
					"topic":  *ev.TopicPartition.Topic,
					"key":    string(ev.Key),
				}).WithError(ev.TopicPartition.Error).Error("message delivery failed")
			}
		case kafka.Error:
			p.logger.WithField("object", "pubsub").WithError(ev).Error()
		}
	}
}

// Publish implements Publisher.
func (p *confluentKafkaPublisher) Publish(ctx context.Context, topic string, key string, headers map[string]string, message []byte) error {
	kh := make([]kafka.Header, 0, len(headers))
	for k, v := range headers {
		kh = append(kh, kafka.Header{Key: k, Value: []byte(v)})
	}

	err := p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(key),
		Value:          message,
		Headers:        kh,
	}, nil)
	if err != nil {
		p.logger.WithContext(ctx).WithFields(logrus.Fields{
			"object": "pubsub",
			"topic":  topic,
			"key":    key,
		}).WithError(err).Error()
		return err
	}

	return nil
}

// Close implements Publisher.
func (p *confluentKafkaPublisher) Close() error {
	p.producer.Flush(5000)
	p.producer.Close()
	return nil
}
