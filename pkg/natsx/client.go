// Package natsx wraps the NATS connection with the reconnect discipline and
// JSON helpers the pathfinder service uses for request/reply.
package natsx

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Config holds NATS connection settings.
type Config struct {
	URL      string
	ClientID string
}

// Client wraps a NATS connection.
type Client struct {
	conn   *nats.Conn
	logger *logrus.Entry
}

// NewClient connects to NATS with unlimited reconnects and logged
// connection events.
func NewClient(config *Config) (*Client, error) {
	logger := logrus.WithField("component", "nats-client")

	opts := []nats.Option{
		nats.Name(config.ClientID),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Errorf("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			logger.Errorf("NATS error: %v", err)
		}),
	}

	conn, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Client{conn: conn, logger: logger}, nil
}

// Conn exposes the raw connection.
func (c *Client) Conn() *nats.Conn { return c.conn }

// Close drains and closes the connection.
func (c *Client) Close() {
	if c.conn != nil {
		_ = c.conn.Drain()
		c.conn.Close()
	}
}

// PublishJSON marshals v and publishes it on subject.
func (c *Client) PublishJSON(subject string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return c.conn.Publish(subject, data)
}

// RespondJSON marshals v as the reply to msg.
func (c *Client) RespondJSON(msg *nats.Msg, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}
	return msg.Respond(data)
}

// QueueSubscribe registers handler on subject within a queue group, so
// horizontally-scaled services split the request load.
func (c *Client) QueueSubscribe(subject, queue string, handler nats.MsgHandler) (*nats.Subscription, error) {
	sub, err := c.conn.QueueSubscribe(subject, queue, handler)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	return sub, nil
}
