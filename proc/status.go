package proc

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/gateway"
	"github.com/leeineian/brewbot/sys"
)

// configKeyStatus turns the rotating presence off when set to "false" in bot_config.
const configKeyStatus = "status_visible"

var (
	statusClient   atomic.Pointer[bot.Client]
	statusActive   int32
	lastStatusText string
)

func init() {
	sys.OnClientReady(func(ctx context.Context, client *bot.Client) {
		statusClient.Store(client)
	})
	sys.RegisterDaemon(sys.LogStatus, StartStatusRotator)
}

func rotationInterval() time.Duration {
	return time.Duration(30+rand.Intn(61)) * time.Second
}

// StartStatusRotator is the daemon starter for the presence rotation.
func StartStatusRotator(ctx context.Context) (bool, func(), func()) {
	if !atomic.CompareAndSwapInt32(&statusActive, 0, 1) {
		return false, nil, nil
	}

	return true, func() {
			select {
			case <-sys.ClientReady():
			case <-ctx.Done():
				return
			}
			for {
				next := rotationInterval()
				updateStatus(ctx, statusClient.Load(), next)
				select {
				case <-time.After(next):
				case <-ctx.Done():
					return
				}
			}
		}, func() {
			atomic.StoreInt32(&statusActive, 0)
		}
}

func updateStatus(ctx context.Context, client *bot.Client, next time.Duration) {
	if client == nil {
		return
	}

	if visible, err := sys.GetBotConfig(ctx, configKeyStatus); err != nil || visible == "false" {
		_ = client.SetPresence(ctx, gateway.WithOnlineStatus(discord.OnlineStatusOnline))
		return
	}

	selected := pickStatus(statusTexts(Catalog, time.Since(sys.StartupTime), client.Gateway.Latency()), lastStatusText, rand.Intn)
	lastStatusText = selected

	err := client.SetPresence(ctx,
		gateway.WithOnlineStatus(discord.OnlineStatusOnline),
		gateway.WithWatchingActivity(selected),
	)
	if err != nil {
		sys.LogStatus(sys.MsgStatusUpdateFail, err)
		return
	}
	sys.LogDebug(sys.MsgStatusRotated, selected, next)
}

// statusTexts lists the presence lines that currently have something to say.
func statusTexts(catalog *CatalogService, uptime, latency time.Duration) []string {
	var out []string
	if catalog != nil {
		if n := catalog.PackageCount(); n > 0 {
			out = append(out, fmt.Sprintf("%d homebrew apps", n))
		}
		if last := catalog.LastRefresh(); last != nil && last.Err == nil {
			out = append(out, "Repo synced "+sys.FormatDuration(time.Since(last.At))+" ago")
		}
	}
	if latency > 0 {
		out = append(out, fmt.Sprintf("Ping: %dms", latency.Milliseconds()))
	}
	out = append(out, fmt.Sprintf("Uptime: %dh %dm", int(uptime.Hours()), int(uptime.Minutes())%60))
	return out
}

// pickStatus picks a random line that differs from the previous one when it can.
func pickStatus(choices []string, last string, intn func(int) int) string {
	var fresh []string
	for _, c := range choices {
		if c != last {
			fresh = append(fresh, c)
		}
	}
	if len(fresh) == 0 {
		return last
	}
	return fresh[intn(len(fresh))]
}
