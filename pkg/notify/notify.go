// Package notify announces finished import runs on NATS.
package notify

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	"github.com/mpapenbr/speedview-sync/log"
)

type Publisher struct {
	conn *nats.Conn
	l    *log.Logger
}

// Connect opens a connection to the NATS server at url
func Connect(url string) (*Publisher, error) {
	l := log.Default().Named("nats")
	conn, err := nats.Connect(url,
		nats.Name("speedview-sync"),
		nats.MaxReconnects(3),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				l.Warn("disconnected", log.ErrorField(err))
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &Publisher{conn: conn, l: l}, nil
}

// Publish sends v as JSON to subject and waits until the server got it
func (p *Publisher) Publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return err
	}
	p.l.Debug("published", log.String("subject", subject), log.Int("bytes", len(data)))
	return p.conn.FlushTimeout(5 * time.Second)
}

// Close drains pending messages and closes the connection
func (p *Publisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.l.Warn("drain failed", log.ErrorField(err))
		p.conn.Close()
	}
}
