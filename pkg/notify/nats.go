// Copyright 2026 cloudygreybeard
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NATSBus publishes notifications as JSON on a NATS connection, so
// processes on different hosts sharing a bookmark file over a network
// mount stay in sync. Handlers run on the connection's dispatch goroutine.
type NATSBus struct {
	nc     *nats.Conn
	owns   bool
	logger zerolog.Logger

	mu     sync.Mutex
	closed bool
}

// ConnectNATS dials url and returns a bus that owns the connection.
func ConnectNATS(url string, logger zerolog.Logger, opts ...nats.Option) (*NATSBus, error) {
	base := []nats.Option{
		nats.Name("xbel"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	}
	nc, err := nats.Connect(url, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	b := NewNATSBus(nc, logger)
	b.owns = true
	return b, nil
}

// NewNATSBus wraps an existing connection. Close leaves it open.
func NewNATSBus(nc *nats.Conn, logger zerolog.Logger) *NATSBus {
	return &NATSBus{nc: nc, logger: logger}
}

// Publish implements Channel. NATS publishes are asynchronous, so ctx is
// only checked before sending.
func (b *NATSBus) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	if b.isClosed() {
		return ErrClosed
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return b.nc.Publish(Subject(msg.Channel, msg.Topic), data)
}

// Subscribe implements Channel with a wildcard subscription over every
// topic of channel.
func (b *NATSBus) Subscribe(channel string, h Handler) (Subscription, error) {
	if b.isClosed() {
		return nil, ErrClosed
	}
	subject := SubjectPrefix + "." + token(channel) + ".*"
	sub, err := b.nc.Subscribe(subject, b.deliver(channel, h))
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", subject, err)
	}
	return sub, nil
}

// deliver decodes subject messages for h. Distinct channels can map to
// the same subject token, so the channel named in the payload is checked.
func (b *NATSBus) deliver(channel string, h Handler) nats.MsgHandler {
	return func(m *nats.Msg) {
		msg, err := decode(m.Data)
		if err != nil {
			b.logger.Warn().Err(err).Str("subject", m.Subject).Msg("dropping malformed notification")
			return
		}
		if msg.Channel != channel {
			return
		}
		h(msg)
	}
}

// Flush waits until the server has processed everything published so far.
func (b *NATSBus) Flush(ctx context.Context) error {
	return b.nc.FlushWithContext(ctx)
}

// Close drains the connection when the bus owns it.
func (b *NATSBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if b.owns {
		return b.nc.Drain()
	}
	return nil
}

func (b *NATSBus) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func decode(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("unmarshal notification: %w", err)
	}
	if err := msg.Validate(); err != nil {
		return Message{}, err
	}
	return msg, nil
}
