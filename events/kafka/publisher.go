// Package kafka publishes ledger events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/nspcc-dev/banking-contract/ledger"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/segmentio/kafka-go"
)

// DefaultTopic is the topic used when none is configured.
const DefaultTopic = "banking_account_created"

// AccountCreatedMessage is a JSON payload of AccountCreated event.
type AccountCreatedMessage struct {
	Event string `json:"event"`
	ID    uint64 `json:"id"`
	// Owner is a Neo address of the account owner.
	Owner string `json:"owner"`
	// Balance in base units, decimal string.
	Balance string `json:"balance"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes ledger events to Kafka, one message per event keyed by
// the account id.
type Publisher struct {
	writer messageWriter
}

// NewPublisher creates Publisher writing to the topic on the given brokers.
func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}

	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish sends the event.
func (p *Publisher) Publish(ctx context.Context, ev ledger.Event) error {
	msg, err := encodeEvent(ev)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s message: %w", ev.Name(), err)
	}

	return nil
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func encodeEvent(ev ledger.Event) (kafka.Message, error) {
	switch e := ev.(type) {
	case ledger.AccountCreated:
		data, err := json.Marshal(AccountCreatedMessage{
			Event:   e.Name(),
			ID:      uint64(e.ID),
			Owner:   address.Uint160ToString(e.Owner),
			Balance: e.Balance.String(),
		})
		if err != nil {
			return kafka.Message{}, fmt.Errorf("encode %s: %w", e.Name(), err)
		}

		return kafka.Message{
			Key:   []byte(strconv.FormatUint(uint64(e.ID), 10)),
			Value: data,
			Headers: []kafka.Header{
				{Key: "event", Value: []byte(e.Name())},
			},
		}, nil
	default:
		return kafka.Message{}, fmt.Errorf("unsupported event %T", ev)
	}
}
