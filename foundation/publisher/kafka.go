// Package publisher announces ledger changes to a Kafka topic so systems
// outside the network can follow the chain a node holds.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ardanlabs/pownode/foundation/blockchain/database"
	"github.com/segmentio/kafka-go"
)

// Set of message types written to the topic.
const (
	TypeBlock = "block"
	TypeChain = "chain"
)

// Config represents the settings for connecting to the brokers.
type Config struct {
	Brokers []string
	Topic   string
	NodeID  string
}

// EventHandler defines a function that is called when events
// occur while publishing.
type EventHandler func(v string, args ...any)

// writer is the behavior required from the kafka client.
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Message is the document written for every block.
type Message struct {
	Type   string         `json:"type"`
	NodeID string         `json:"nodeID"`
	Hash   string         `json:"hash"`
	Block  database.Block `json:"block"`
	Time   time.Time      `json:"time"`
}

// Kafka publishes blocks to a kafka topic.
type Kafka struct {
	topic     string
	nodeID    string
	writer    writer
	evHandler EventHandler
}

// New constructs a publisher for the configured brokers. Messages are
// written synchronously and acknowledged by all in sync replicas.
func New(cfg Config, evHandler EventHandler) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("no kafka brokers configured")
	}
	if cfg.Topic == "" {
		return nil, errors.New("no kafka topic configured")
	}

	w := kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}

	return newKafka(cfg, &w, evHandler), nil
}

func newKafka(cfg Config, w writer, evHandler EventHandler) *Kafka {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	return &Kafka{
		topic:     cfg.Topic,
		nodeID:    cfg.NodeID,
		writer:    w,
		evHandler: ev,
	}
}

// Close flushes pending messages and closes the connection to the brokers.
func (k *Kafka) Close() error {
	if err := k.writer.Close(); err != nil {
		return fmt.Errorf("closing kafka writer: %w", err)
	}

	k.evHandler("publisher: Close: disconnected from kafka: topic[%s]", k.topic)
	return nil
}

// PublishBlock writes a newly mined block to the topic.
func (k *Kafka) PublishBlock(ctx context.Context, block database.Block) error {
	msg, err := k.message(TypeBlock, block)
	if err != nil {
		return err
	}

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing block %d: %w", block.Index, err)
	}

	k.evHandler("publisher: PublishBlock: topic[%s]: block[%d]", k.topic, block.Index)
	return nil
}

// PublishChain writes every block of an adopted chain to the topic as a
// single batch.
func (k *Kafka) PublishChain(ctx context.Context, blocks []database.Block) error {
	if len(blocks) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, len(blocks))
	for i, block := range blocks {
		msg, err := k.message(TypeChain, block)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publishing chain of %d blocks: %w", len(blocks), err)
	}

	k.evHandler("publisher: PublishChain: topic[%s]: blocks[%d]", k.topic, len(blocks))
	return nil
}

// message builds the kafka message for a block. Blocks are keyed by index
// so every version of a position lands on the same partition.
func (k *Kafka) message(typ string, block database.Block) (kafka.Message, error) {
	doc := Message{
		Type:   typ,
		NodeID: k.nodeID,
		Hash:   block.Hash(),
		Block:  block,
		Time:   time.Now().UTC(),
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal block %d: %w", block.Index, err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(block.Index, 10)),
		Value: data,
	}

	return msg, nil
}
