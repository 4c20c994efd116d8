package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// TopicDayLoaded carries a notification for every day the ETL pipeline
// commits, so downstream consumers can react to fresh box-office data.
const TopicDayLoaded = "cinelytics.boxoffice.loaded"

// DayLoadedEvent is the payload published after a successful day load.
type DayLoadedEvent struct {
	TargetDt   string    `json:"target_dt"`
	MovieCount int       `json:"movie_count"`
	LoadedAt   time.Time `json:"loaded_at"`
}

type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
	})
	return &Producer{Writer: writer}
}

// Publish writes a single message to the given topic.
func (p *Producer) Publish(topic string, key string, value []byte) error {
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: value,
		},
	)
}

// PublishDayLoaded streams a day-loaded event to Kafka.
func (p *Producer) PublishDayLoaded(event DayLoadedEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.Publish(TopicDayLoaded, event.TargetDt, msgBytes)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
