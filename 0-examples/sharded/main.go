// Package main demonstrates a bot that spreads its guilds over multiple
// gateway shards.
package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/Rapptz/discord.py-sub002/gateway"
	"github.com/Rapptz/discord.py-sub002/session/shard"
)

// To run, do `BOT_TOKEN="TOKEN HERE" go run .`

func main() {
	godotenv.Load()

	token := os.Getenv("BOT_TOKEN")
	if token == "" {
		log.Fatalln("No $BOT_TOKEN given.")
	}

	m, err := shard.NewManager("Bot " + token)
	if err != nil {
		log.Fatalln("failed to create shard manager:", err)
	}

	m.AddIntents(gateway.IntentGuilds)
	m.AddIntents(gateway.IntentGuildMessages)

	m.OnShardError = func(shardID int, err error) {
		log.Println("shard", shardID, "died:", err)
	}

	for i, s := range m.Shards {
		i := i
		s.AddHandler(func(c *gateway.MessageCreateEvent) {
			log.Println(c.Author.Username, "sent", c.Content, "on shard", i)
		})
	}

	if err := m.Open(); err != nil {
		log.Fatalln("failed to connect shards:", err)
	}
	defer m.Close()

	for i, s := range m.Shards {
		u, err := s.Me()
		if err != nil {
			log.Fatalln("failed to get myself:", err)
		}

		log.Printf("Shard %d/%d started as %s", i, len(m.Shards)-1, u.Username)
	}

	// Block forever.
	select {}
}
