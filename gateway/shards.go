package gateway

import "github.com/Rapptz/discord.py-sub002/discord"

// Shard is the [shard_id, num_shards] tuple in IDENTIFY.
type Shard [2]int

// DefaultShard is the zeroth shard of one.
func DefaultShard() *Shard {
	return &Shard{0, 1}
}

func (s Shard) ShardID() int {
	return s[0]
}

func (s Shard) NumShards() int {
	return s[1]
}

// ShardID returns the shard that handles events for the given guild.
func ShardID(guildID discord.GuildID, numShards int) int {
	return int(uint64(guildID)>>22) % numShards
}
