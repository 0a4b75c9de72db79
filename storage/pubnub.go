package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	pubnub "github.com/pubnub/go/v7"
)

// PubNubNotifier relays change events through a PubNub channel, for hosts
// whose tabs cannot reach a common Redis.
type PubNubNotifier struct {
	PubNub  *pubnub.PubNub
	channel string
	logger  *slog.Logger
}

type PubNubConfig struct {
	PublishKey    string
	SubscribeKey  string
	SecretKey     string
	ChannelPrefix string
}

// NewPubNubNotifier builds a PubNub client identified by the tab id and
// bound to the profile's change channel.
func NewPubNubNotifier(cfg PubNubConfig, profile, tabID string, logger *slog.Logger) *PubNubNotifier {
	pnCfg := pubnub.NewConfigWithUserId(pubnub.UserId(tabID))
	pnCfg.PublishKey = cfg.PublishKey
	pnCfg.SubscribeKey = cfg.SubscribeKey
	pnCfg.SecretKey = cfg.SecretKey

	prefix := cfg.ChannelPrefix
	if prefix == "" {
		prefix = "ticketshub-"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PubNubNotifier{
		PubNub:  pubnub.NewPubNub(pnCfg),
		channel: fmt.Sprintf("%s%s-changes", prefix, profile),
		logger:  logger,
	}
}

func (n *PubNubNotifier) Channel() string {
	return n.channel
}

func (n *PubNubNotifier) Publish(_ context.Context, ev ChangeEvent) error {
	_, _, err := n.PubNub.Publish().
		Channel(n.channel).
		Message(ev).
		Execute()
	return err
}

func (n *PubNubNotifier) Subscribe(ctx context.Context, origin string) (<-chan ChangeEvent, error) {
	listener := pubnub.NewListener()
	n.PubNub.AddListener(listener)
	n.PubNub.Subscribe().
		Channels([]string{n.channel}).
		Execute()

	out := make(chan ChangeEvent, subscriberBuffer)
	go func() {
		defer close(out)
		defer n.PubNub.RemoveListener(listener)

		for {
			select {
			case <-ctx.Done():
				n.PubNub.Unsubscribe().Channels([]string{n.channel}).Execute()
				return

			case st := <-listener.Status:
				switch st.Category {
				case pubnub.PNConnectedCategory, pubnub.PNReconnectedCategory:
					n.logger.Info("Connected to change channel", "channel", n.channel)
				case pubnub.PNDisconnectedCategory, pubnub.PNTimeoutCategory:
					n.logger.Warn("Lost change channel", "channel", n.channel, "category", st.Category)
				case pubnub.PNAccessDeniedCategory, pubnub.PNBadRequestCategory:
					n.logger.Error("Change channel rejected subscription", "channel", n.channel, "category", st.Category)
				}

			case msg := <-listener.Message:
				if msg == nil || msg.Channel != n.channel {
					continue
				}

				ev, err := decodePubNubMessage(msg.Message)
				if err != nil {
					n.logger.Warn("Dropping malformed change event", "error", err, "channel", msg.Channel)
					continue
				}
				if ev.Origin == origin {
					continue
				}

				select {
				case out <- ev:
				default:
				}
			}
		}
	}()

	return out, nil
}

func (n *PubNubNotifier) Close() error {
	n.PubNub.UnsubscribeAll()
	return nil
}

// decodePubNubMessage accepts both a JSON string payload and the decoded
// object form PubNub hands to listeners for structured messages.
func decodePubNubMessage(message any) (ChangeEvent, error) {
	switch m := message.(type) {
	case string:
		return decodeChangeEvent(m)
	case nil:
		return ChangeEvent{}, fmt.Errorf("empty change event")
	default:
		data, err := json.Marshal(m)
		if err != nil {
			return ChangeEvent{}, err
		}
		return decodeChangeEvent(string(data))
	}
}
