package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"wilma-backend/internal/components/telemetry"
	"wilma-backend/internal/scrapers/wilma"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/spf13/cobra"
)

var watchInterval time.Duration

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", time.Minute*5, "How often the inbox is polled.")
	rootCmd.AddCommand(watchCmd)
}

// inboxWatcher remembers which unread messages were already announced.
type inboxWatcher struct {
	seen *expirable.LRU[string, struct{}]
}

func newInboxWatcher() inboxWatcher {
	return inboxWatcher{
		seen: expirable.NewLRU[string, struct{}](4096, nil, time.Hour*24*7),
	}
}

// unseen returns the unread messages that have not been returned before.
func (w inboxWatcher) unseen(messages []wilma.Message) []wilma.Message {
	var out []wilma.Message
	for _, msg := range messages {
		if !msg.IsUnread {
			continue
		}
		key := msg.Key()
		if w.seen.Contains(key) {
			continue
		}
		w.seen.Add(key, struct{}{})
		out = append(out, msg)
	}
	return out
}

var watchCmd = &cobra.Command{
	Use:   "watch [--interval <duration>]",
	Short: "Polls the inbox and prints new unread messages until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if watchInterval <= 0 {
			return errors.New("interval must be positive")
		}
		ctx := cmd.Context()

		client, session, cfg, err := signIn(ctx)
		if err != nil {
			return err
		}
		tel := telemetry.NewScopedAPI("watch", telemetry.SlogAPI{})
		telemetry.InstrumentPerfStats(ctx, tel)

		watcher := newInboxWatcher()
		poll := func(ctx context.Context) error {
			messages, err := client.GetMessages(ctx, session)
			if errors.Is(err, wilma.ErrNotAuthenticated) {
				slog.Info("session expired, signing in again")
				_, err = client.Login(ctx, session, cfg.Username, cfg.Password)
				if err != nil {
					return err
				}
				messages, err = client.GetMessages(ctx, session)
			}
			if err != nil {
				return err
			}

			fresh := watcher.unseen(messages)
			tel.ReportCount("unread", int64(len(fresh)))
			if len(fresh) > 0 {
				renderMessages(fresh)
			}
			return nil
		}

		ticker := time.NewTicker(watchInterval)
		defer ticker.Stop()
		for {
			err := poll(ctx)
			if errors.Is(err, wilma.ErrInvalidCredentials) {
				return err
			}
			if err != nil && ctx.Err() == nil {
				slog.Warn("poll failed", "err", err.Error(), "message", wilma.UserMessage(err))
			}

			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	},
}
