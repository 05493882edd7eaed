package kafka

import (
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/hirestore/hs-order/config"
)

// NewProducer builds a producer from the application configuration. It
// panics on an invalid client configuration since nothing can be published
// without it.
func NewProducer() *kafka.Producer {
	c := config.Get()

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  c.Kafka.BootstrapServers,
		"client.id":          c.Kafka.ClientID,
		"acks":               c.Kafka.Acks,
		"enable.idempotence": true,
	})
	if err != nil {
		panic(err)
	}

	return p
}
