// Package main demonstrates a simple bot with a state cache. It logs all
// messages it sees and replies to pings.
package main

import (
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Rapptz/discord.py-sub002/gateway"
	"github.com/Rapptz/discord.py-sub002/handler"
	"github.com/Rapptz/discord.py-sub002/state"
	"github.com/Rapptz/discord.py-sub002/utils/wsutil"
)

// To run, do `BOT_TOKEN="TOKEN HERE" go run .`, or put the token into a .env
// file next to the binary.

func main() {
	// A missing .env is fine; the token may come from the environment.
	godotenv.Load()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	token := os.Getenv("BOT_TOKEN")
	if token == "" {
		sugar.Fatal("no $BOT_TOKEN given")
	}

	// Route the library's loggers into zap.
	wsutil.WSError = func(err error) { sugar.Errorw("gateway error", "err", err) }
	handler.ErrorHook = func(err error) { sugar.Errorw("handler error", "err", err) }

	s, err := state.NewWithIntents("Bot "+token,
		gateway.IntentGuilds,
		gateway.IntentGuildMessages,
		gateway.IntentDirectMessages,
	)
	if err != nil {
		sugar.Fatalw("failed to create state", "err", err)
	}

	s.Gateway.ErrorLog = func(err error) { sugar.Errorw("gateway error", "err", err) }
	s.StateLog = func(err error) { sugar.Warnw("state error", "err", err) }

	s.AddHandler(func(ev *gateway.ReadyEvent) {
		sugar.Infof("ready as %s with %d guilds", ev.User.Username, len(ev.Guilds))
		sugar.Debug(spew.Sdump(ev))
	})

	s.AddHandler(func(c *gateway.MessageCreateEvent) {
		sugar.Infow("message",
			"author", c.Author.Username,
			"content", c.Content)

		if c.Content == "!ping" {
			_, err := s.SendMessage(c.ChannelID, "Pong!")
			if err != nil {
				sugar.Errorw("failed to send pong", "err", err)
			}
		}
	})

	if err := s.Open(); err != nil {
		sugar.Fatalw("failed to connect", "err", err)
	}
	defer s.Close()

	u, err := s.Me()
	if err != nil {
		sugar.Fatalw("failed to get myself", "err", err)
	}

	sugar.Infof("started as %s", u.Username)

	// Block forever.
	select {}
}
