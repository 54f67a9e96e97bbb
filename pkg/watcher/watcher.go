package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/dbertolani/noise-guard/pkg/directory"
	"github.com/dbertolani/noise-guard/pkg/mesh"
	"github.com/dbertolani/noise-guard/pkg/notify"
	"github.com/dbertolani/noise-guard/pkg/store"
)

// Options holds the runtime knobs for the telemetry watcher.
type Options struct {
	BrokerHost string
	BrokerPort int
	Username   string
	Password   string
	Topic      string

	NoiseThreshold       int64
	NotificationInterval time.Duration
	MaxHopsAllowed       int
}

// Directory resolves node names from the public map.
type Directory interface {
	Lookup(nodeNum string) (*directory.NodeDetails, error)
}

// Watcher subscribes to the mesh uplink topic and feeds every packet through
// the link, noise and hop pipelines. Packets are processed sequentially in
// arrival order.
type Watcher struct {
	opts     Options
	stores   *store.Stores
	dir      Directory
	sender   notify.Sender
	decoders []mesh.Decoder

	client  mqtt.Client
	now     func() time.Time
	baseCtx context.Context
}

func New(opts Options, stores *store.Stores, dir Directory, sender notify.Sender) *Watcher {
	return &Watcher{
		opts:     opts,
		stores:   stores,
		dir:      dir,
		sender:   sender,
		decoders: mesh.NewDecoders(),
		now:      time.Now,
		baseCtx:  context.Background(),
	}
}

// Run connects to the broker and blocks until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	w.baseCtx = ctx
	broker := fmt.Sprintf("tcp://%s:%d", w.opts.BrokerHost, w.opts.BrokerPort)
	clientOpts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(fmt.Sprintf("noise-guard-%d", time.Now().UnixNano())).
		SetAutoReconnect(true).
		SetOrderMatters(true).
		SetOnConnectHandler(w.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			slog.Warn("mqtt connection lost", "error", err)
		})
	if w.opts.Username != "" {
		clientOpts.SetUsername(w.opts.Username)
		clientOpts.SetPassword(w.opts.Password)
	}

	w.client = mqtt.NewClient(clientOpts)
	if token := w.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connecting to broker %s: %w", broker, token.Error())
	}
	slog.Info("connected to mqtt broker", "broker", broker)

	<-ctx.Done()
	w.client.Disconnect(250)
	slog.Info("mqtt client disconnected")
	return nil
}

func (w *Watcher) onConnect(client mqtt.Client) {
	token := client.Subscribe(w.opts.Topic, 0, w.onMessage)
	if token.Wait() && token.Error() != nil {
		slog.Error("subscribing to topic failed", "topic", w.opts.Topic, "error", token.Error())
		return
	}
	slog.Info("subscribed to uplink topic", "topic", w.opts.Topic)
}

func (w *Watcher) onMessage(_ mqtt.Client, msg mqtt.Message) {
	w.processPayload(msg.Payload())
}
