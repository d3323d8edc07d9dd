package notifiers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"

	"github.com/kova98/yars/data"
)

// msgPublisher is satisfied by *nats.Conn.
type msgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

// headerCarrier lets the otel propagator read and write NATS headers.
type headerCarrier nats.Msg

func (c *headerCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *headerCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

// PostPublisher announces stored posts on a NATS subject as JSON, one
// message per post, carrying the trace context of ctx in the headers.
type PostPublisher struct {
	conn    msgPublisher
	subject string
}

func NewPostPublisher(conn *nats.Conn, subject string) *PostPublisher {
	return &PostPublisher{conn: conn, subject: subject}
}

func (p *PostPublisher) PublishPosts(ctx context.Context, posts []data.StoredPost) error {
	for _, post := range posts {
		payload, err := json.Marshal(post)
		if err != nil {
			return fmt.Errorf("encode post %s: %w", post.Permalink, err)
		}

		msg := &nats.Msg{Subject: p.subject, Data: payload}
		otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))

		if err := p.conn.PublishMsg(msg); err != nil {
			return fmt.Errorf("publish post %s: %w", post.Permalink, err)
		}
	}
	return nil
}
