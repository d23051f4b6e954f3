package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/config"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EmailMessage is the payload published for the mailer service.
type EmailMessage struct {
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes emails to a topic consumed by the mailer.
type KafkaNotifier struct {
	writer  messageWriter
	timeout time.Duration
	log     *zap.Logger
}

func NewKafkaNotifier(cfg config.NotifyConfig, log *zap.Logger) *KafkaNotifier {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           cfg.WriteTimeout,
	}
	return &KafkaNotifier{writer: w, timeout: cfg.WriteTimeout, log: log.Named("notify")}
}

func (n *KafkaNotifier) SendEmail(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(EmailMessage{
		To:        to,
		Subject:   subject,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encoding email message: %w", err)
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	// Keyed by recipient so one user's emails stay ordered.
	if err := n.writer.WriteMessages(ctx, kafka.Message{Key: []byte(to), Value: payload}); err != nil {
		return fmt.Errorf("publishing email message: %w", err)
	}

	n.log.Debug("email queued", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

// New picks the Kafka publisher when brokers are configured and the log-only
// notifier otherwise.
func New(cfg config.NotifyConfig, log *zap.Logger) Notifier {
	if len(cfg.KafkaBrokers) == 0 {
		log.Info("no kafka brokers configured; notifications are logged only")
		return NewLogNotifier(log)
	}
	return NewKafkaNotifier(cfg, log)
}
