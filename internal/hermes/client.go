package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects used on the bus.
const (
	// SubjectToolPrefix prefixes tool request subjects: cerealbox.tools.<tool>.
	SubjectToolPrefix = "cerealbox.tools."
	// SubjectSkeletonBuilt is published after a skeleton or variant set is built.
	SubjectSkeletonBuilt = "cerealbox.skeleton.built"
	// SubjectSkeletonRefined is published after a section is refined.
	SubjectSkeletonRefined = "cerealbox.skeleton.refined"
	// QueueGroup load-balances tool requests across replicas.
	QueueGroup = "cerealbox"
)

// SkeletonEvent announces a newly built skeleton.
type SkeletonEvent struct {
	RequestID       string    `json:"request_id"`
	Tool            string    `json:"tool"`
	Category        string    `json:"category"`
	Sections        []string  `json:"sections"`
	EstimatedTokens int       `json:"estimated_tokens"`
	Variants        int       `json:"variants,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// RefinementEvent announces an edit to one skeleton section.
type RefinementEvent struct {
	RequestID         string    `json:"request_id"`
	Category          string    `json:"category"`
	Component         string    `json:"component"`
	UserModifications []string  `json:"user_modifications"`
	EstimatedTokens   int       `json:"estimated_tokens"`
	Timestamp         time.Time `json:"timestamp"`
}

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("cerealbox"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

// Serve answers request/reply messages on subject within the queue group.
// The handler's return value is sent back as the reply.
func (c *Client) Serve(subject string, handler func(subject string, data []byte) []byte) error {
	sub, err := c.conn.QueueSubscribe(subject, QueueGroup, func(msg *nats.Msg) {
		reply := handler(msg.Subject, msg.Data)
		if msg.Reply == "" {
			return
		}
		if err := msg.Respond(reply); err != nil {
			c.logger.Warn("failed to respond", "subject", msg.Subject, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("queue subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("serving", "subject", subject, "queue", QueueGroup)
	return nil
}

// Request sends data to subject and waits for a reply.
func (c *Client) Request(ctx context.Context, subject string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	msg, err := c.conn.RequestWithContext(ctx, subject, payload)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", subject, err)
	}
	return msg.Data, nil
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}
