// Package shard provides a manager that owns one session per shard and
// supervises their lifecycles. All shards share a single IDENTIFY allowance,
// so logins never trip the gateway's session-start limit.
package shard

import (
	"net/url"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/Rapptz/discord.py-sub002/discord"
	"github.com/Rapptz/discord.py-sub002/gateway"
	"github.com/Rapptz/discord.py-sub002/internal/backoff"
	"github.com/Rapptz/discord.py-sub002/internal/moreatomic"
	"github.com/Rapptz/discord.py-sub002/session"
)

// Manager owns and supervises the sessions of all shards.
type Manager struct {
	Shards []*session.Session

	// OnShardError is called whenever a shard's gateway dies fatally or a
	// supervised restart fails. Optional.
	OnShardError func(shardID int, err error)

	// RestartMinBackoff and RestartMaxBackoff bound the redial backoff of a
	// supervised restart. They must not be changed after Open.
	RestartMinBackoff time.Duration
	RestartMaxBackoff time.Duration

	closed moreatomic.Bool
}

// NewManager asks Discord for the recommended shard count and creates that
// many sessions.
func NewManager(token string) (*Manager, error) {
	bot, err := gateway.BotURL(token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query gateway/bot")
	}

	return NewManagerWithShards(bot.URL, token, bot.Shards), nil
}

// NewManagerWithShards creates numShards sessions dialing the given bare
// gateway URL; the version and encoding parameters are appended.
func NewManagerWithShards(gatewayURL, token string, numShards int) *Manager {
	if numShards < 1 {
		numShards = 1
	}

	param := url.Values{
		"v":        {gateway.Version},
		"encoding": {gateway.Encoding},
	}
	gatewayURL += "?" + param.Encode()

	// One IDENTIFY allowance for the whole fleet.
	base := gateway.DefaultIdentifier(token)

	m := &Manager{
		Shards:            make([]*session.Session, numShards),
		RestartMinBackoff: time.Second,
		RestartMaxBackoff: time.Minute,
	}

	for i := range m.Shards {
		data := base.IdentifyData
		data.Shard = &gateway.Shard{i, numShards}

		id := gateway.NewIdentifier(data)
		id.IdentifyShortLimit = base.IdentifyShortLimit
		id.IdentifyGlobalLimit = base.IdentifyGlobalLimit

		g := gateway.NewCustomGateway(gatewayURL, token)
		g.Identifier = id

		shardID := i
		g.FatalErrorCallback = func(err error) {
			m.shardError(shardID, err)
		}

		m.Shards[i] = session.NewWithGateway(g)
	}

	return m
}

// AddIntents adds the intents to every shard. It only works before Open.
func (m *Manager) AddIntents(i gateway.Intents) {
	for _, s := range m.Shards {
		s.Gateway.AddIntents(i)
	}
}

// Open opens the shards one by one; the shared IDENTIFY limiter spaces the
// logins out. If any shard fails to open, the already-opened ones are closed
// again.
func (m *Manager) Open() error {
	m.closed.Set(false)

	for i, s := range m.Shards {
		if err := s.Open(); err != nil {
			m.Close()
			return errors.Wrapf(err, "failed to open shard %d/%d", i, len(m.Shards)-1)
		}
	}

	return nil
}

// Close closes all shards concurrently, returning the first error. Closing
// an already-closed manager is a no-op.
func (m *Manager) Close() error {
	if !m.closed.Acquire() {
		return nil
	}

	var group errgroup.Group
	for _, s := range m.Shards {
		group.Go(s.Close)
	}

	return group.Wait()
}

// AllReady reports whether every shard has finished its handshake and is
// connected.
func (m *Manager) AllReady() bool {
	for _, s := range m.Shards {
		if s.Gateway.Status() != gateway.StatusConnected {
			return false
		}
	}

	return true
}

// FromGuildID returns the shard serving the given guild.
func (m *Manager) FromGuildID(guildID discord.GuildID) *session.Session {
	return m.Shards[gateway.ShardID(guildID, len(m.Shards))]
}

func (m *Manager) shardError(shardID int, err error) {
	if m.OnShardError != nil {
		m.OnShardError(shardID, err)
	}

	if m.closed.Get() {
		return
	}

	var closeErr *gateway.CloseError
	if errors.As(err, &closeErr) {
		// The server rejected the session itself (bad token, bad intents,
		// bad shard count). Redialing can't fix those.
		return
	}

	go m.restart(shardID)
}

// restart redials a dead shard until it opens or the manager closes.
func (m *Manager) restart(shardID int) {
	timer := backoff.NewTimer(m.RestartMinBackoff, m.RestartMaxBackoff)
	defer timer.Stop()

	for !m.closed.Get() {
		<-timer.Next()

		if m.closed.Get() {
			return
		}

		if err := m.Shards[shardID].Open(); err != nil {
			if m.OnShardError != nil {
				m.OnShardError(shardID, err)
			}
			continue
		}

		return
	}
}
