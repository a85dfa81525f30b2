package ingest

import (
	"context"
	"fmt"
	"log"
	"net"

	"github.com/eclipse/paho.golang/paho"
)

// ConsumerConfig holds the MQTT connection settings for the ingestion
// consumer.
type ConsumerConfig struct {
	// BrokerAddr is the broker's host:port.
	BrokerAddr string
	ClientID   string
	Username   string
	Password   string
	Topic      string
}

// Consumer is the single logical bus consumer. Paho dispatches incoming
// publishes one at a time, so each message is fully handled (parse, persist,
// fan out) before the next one starts, giving strict arrival-order
// processing of stored readings.
type Consumer struct {
	cfg     ConsumerConfig
	gateway *Gateway
}

// NewConsumer creates a Consumer feeding gw.
func NewConsumer(cfg ConsumerConfig, gw *Gateway) *Consumer {
	return &Consumer{cfg: cfg, gateway: gw}
}

// Run connects to the broker, subscribes to the readings topic and blocks
// until the context is cancelled or the connection is lost. The returned
// error is nil only on context cancellation; callers are expected to retry
// on connection loss.
func (c *Consumer) Run(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.cfg.BrokerAddr)
	if err != nil {
		return fmt.Errorf("dial broker %s: %w", c.cfg.BrokerAddr, err)
	}

	connErr := make(chan error, 1)
	fail := func(err error) {
		select {
		case connErr <- err:
		default:
		}
	}

	client := paho.NewClient(paho.ClientConfig{
		Conn:     conn,
		ClientID: c.cfg.ClientID,
		OnPublishReceived: []func(paho.PublishReceived) (bool, error){
			func(pr paho.PublishReceived) (bool, error) {
				if err := c.gateway.HandleMessage(ctx, pr.Packet.Payload); err != nil {
					// The reading is lost; keep consuming.
					log.Printf("ingest: %v", err)
				}
				return true, nil
			},
		},
		OnClientError: func(err error) {
			fail(fmt.Errorf("client error: %w", err))
		},
		OnServerDisconnect: func(d *paho.Disconnect) {
			fail(fmt.Errorf("server disconnect: reason code %d", d.ReasonCode))
		},
	})

	connect := &paho.Connect{
		ClientID:   c.cfg.ClientID,
		KeepAlive:  30,
		CleanStart: true,
	}
	if c.cfg.Username != "" {
		connect.Username = c.cfg.Username
		connect.UsernameFlag = true
	}
	if c.cfg.Password != "" {
		connect.Password = []byte(c.cfg.Password)
		connect.PasswordFlag = true
	}

	if _, err := client.Connect(ctx, connect); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}

	if _, err := client.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{
			{Topic: c.cfg.Topic, QoS: 1},
		},
	}); err != nil {
		_ = client.Disconnect(&paho.Disconnect{ReasonCode: 0})
		return fmt.Errorf("subscribe %s: %w", c.cfg.Topic, err)
	}

	log.Printf("ingest: consuming %s from %s", c.cfg.Topic, c.cfg.BrokerAddr)

	select {
	case <-ctx.Done():
		_ = client.Disconnect(&paho.Disconnect{ReasonCode: 0})
		return nil
	case err := <-connErr:
		return err
	}
}
