package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"eduscan-api/config"
	"eduscan-api/pkg/logging"
	"eduscan-api/services"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// LiveChannel is the redis channel the websocket feed listens on.
const LiveChannel = "eduscan:live"

const (
	TypePredictionSaved  = "prediction_saved"
	TypeObservationSaved = "observation_saved"
	TypePurgeCompleted   = "purge_completed"
)

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	At   time.Time   `json:"at"`
}

func New(eventType string, data interface{}) Event {
	return Event{Type: eventType, Data: data, At: time.Now().UTC()}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// RedisPublisher fans events out over redis pub/sub.
type RedisPublisher struct {
	cache   *services.CacheService
	channel string
}

func NewRedisPublisher(cache *services.CacheService) *RedisPublisher {
	return &RedisPublisher{cache: cache, channel: LiveChannel}
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	return p.cache.Publish(ctx, p.channel, e)
}

func (p *RedisPublisher) Close() error { return nil }

// MQTTPublisher forwards events to an MQTT broker under topic/<type>.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
	logger *logging.StructuredLogger
}

// NewMQTTPublisher connects to the broker. The client keeps reconnecting
// in the background after the first successful connect.
func NewMQTTPublisher(cfg config.MQTTConfig, logger *logging.StructuredLogger) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID + "-" + time.Now().Format("20060102150405"))
	opts.SetAutoReconnect(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetConnectTimeout(5 * time.Second)
	opts.OnConnect = func(mqtt.Client) {
		logger.Info(context.Background(), "[EVENTS] mqtt connected", logging.Fields{"broker": cfg.Broker})
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.Warn(context.Background(), "[EVENTS] mqtt connection lost", logging.Fields{"error": err.Error()})
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect %s: timeout", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, err)
	}
	return &MQTTPublisher{client: client, topic: cfg.Topic, logger: logger}, nil
}

func (p *MQTTPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	token := p.client.Publish(p.topic+"/"+e.Type, 1, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Async publishes in the background and only logs failures, so a slow
// broker never holds up a request.
func Async(p Publisher, e Event, logger *logging.StructuredLogger) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.Publish(ctx, e); err != nil {
			logger.Warn(ctx, "[EVENTS] publish failed", logging.Fields{"type": e.Type, "error": err.Error()})
		}
	}()
}

var ErrUnavailable = errors.New("live feed unavailable")

// Subscriber delivers published events as their JSON encoding. The channel
// closes when ctx ends.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan []byte, error)
}

func (p *RedisPublisher) Subscribe(ctx context.Context) (<-chan []byte, error) {
	pubsub := p.cache.Subscribe(ctx, p.channel)
	if pubsub == nil {
		return nil, ErrUnavailable
	}
	out := make(chan []byte, 16)
	go func() {
		defer close(out)
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Hub is an in-process Publisher and Subscriber for when redis is down.
// Slow subscribers miss events rather than block publishers.
type Hub struct {
	mu   sync.Mutex
	subs map[chan []byte]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: map[chan []byte]struct{}{}}
}

func (h *Hub) Publish(_ context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- data:
		default:
		}
	}
	return nil
}

func (h *Hub) Subscribe(ctx context.Context) (<-chan []byte, error) {
	ch := make(chan []byte, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

func (h *Hub) Close() error { return nil }
