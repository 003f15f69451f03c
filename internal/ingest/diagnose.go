package ingest

import (
	"context"
	"fmt"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"

	"github.com/lueurxax/netdisk-aggregator/internal/domain"
	"github.com/lueurxax/netdisk-aggregator/internal/parser"
	"github.com/lueurxax/netdisk-aggregator/internal/platform/config"
)

// withClient opens the persisted session and runs fn against an
// authenticated API handle, matching Run's bootstrap but for a single
// short-lived admin request rather than the long-running update loop.
func withClient(ctx context.Context, cfg config.TelegramMTProtoConfig, fn func(ctx context.Context, api *tg.Client) error) error {
	l := &Loop{cfg: &cfg}

	client := telegram.NewClient(cfg.APIID, cfg.APIHash, telegram.Options{
		SessionStorage: &telegram.FileSessionStorage{Path: cfg.SessionPath},
	})

	return client.Run(ctx, func(ctx context.Context) error {
		if err := client.Auth().IfNecessary(ctx, l.authFlow()); err != nil {
			return fmt.Errorf("authenticate: %w", err)
		}

		return fn(ctx, tg.NewClient(client))
	})
}

// Diagnose resolves username through the MTProto client and reports whether
// it is reachable, per SPEC_FULL.md's admin channels.diagnose action.
func Diagnose(ctx context.Context, cfg config.TelegramMTProtoConfig, username string) (bool, error) {
	var reachable bool

	err := withClient(ctx, cfg, func(ctx context.Context, api *tg.Client) error {
		res, err := api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: username})
		if err != nil {
			return fmt.Errorf("resolve username: %w", err)
		}

		for _, c := range res.Chats {
			if _, ok := c.(*tg.Channel); ok {
				reachable = true
			}
		}

		return nil
	})

	return reachable, err
}

// TestMonitor fetches the most recent message posted to username and runs
// it through the parser without persisting, per SPEC_FULL.md's admin
// channels.test-monitor action. The second return value is false when the
// channel has no parseable link-bearing message to show.
func TestMonitor(ctx context.Context, cfg config.TelegramMTProtoConfig, username string) (domain.Message, bool, error) {
	var (
		result domain.Message
		found  bool
	)

	err := withClient(ctx, cfg, func(ctx context.Context, api *tg.Client) error {
		res, err := api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: username})
		if err != nil {
			return fmt.Errorf("resolve username: %w", err)
		}

		var channel *tg.Channel

		for _, c := range res.Chats {
			if ch, ok := c.(*tg.Channel); ok {
				channel = ch
			}
		}

		if channel == nil {
			return fmt.Errorf("username %q is not a channel", username)
		}

		history, err := api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
			Peer:  &tg.InputPeerChannel{ChannelID: channel.ID, AccessHash: channel.AccessHash},
			Limit: 1,
		})
		if err != nil {
			return fmt.Errorf("get history: %w", err)
		}

		var messages []tg.MessageClass

		switch h := history.(type) {
		case *tg.MessagesChannelMessages:
			messages = h.Messages
		case *tg.MessagesMessages:
			messages = h.Messages
		case *tg.MessagesMessagesSlice:
			messages = h.Messages
		}

		for _, mc := range messages {
			msg, ok := mc.(*tg.Message)
			if !ok {
				continue
			}

			meta := buildMetadata(msg)

			parsed := parser.Parse(msg.Message, meta)
			if len(parsed.Links) == 0 {
				continue
			}

			result = domain.Message{
				Timestamp:    toLocalTime(msg.Date),
				Title:        parsed.Title,
				Description:  parsed.Description,
				Links:        parsed.Links,
				Tags:         parsed.Tags,
				Source:       parsed.Source,
				Channel:      parsed.Channel,
				GroupName:    parsed.GroupName,
				Bot:          parsed.Bot,
				NetdiskTypes: parsed.NetdiskTypes(),
			}
			found = true

			break
		}

		return nil
	})

	return result, found, err
}
