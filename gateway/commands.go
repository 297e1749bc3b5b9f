package gateway

import (
	"context"

	"github.com/pkg/errors"

	"github.com/Rapptz/discord.py-sub002/discord"
)

// Identify sends off the Identify command with the gateway's timeout.
func (g *Gateway) Identify() error {
	ctx, cancel := context.WithTimeout(context.Background(), g.WSTimeout)
	defer cancel()

	return g.IdentifyCtx(ctx)
}

// IdentifyCtx waits for the identify rate limiters, then sends off the
// Identify command.
func (g *Gateway) IdentifyCtx(ctx context.Context) error {
	if err := g.Identifier.Wait(ctx); err != nil {
		return errors.Wrap(err, "can't wait for identify()")
	}

	g.setStatus(StatusIdentifying)

	return g.SendCtx(ctx, IdentifyOP, g.Identifier)
}

// ResumeData is the RESUME command's payload.
type ResumeData struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Sequence  int64  `json:"seq"`
}

// Resume sends off the Resume command with the gateway's timeout.
func (g *Gateway) Resume() error {
	ctx, cancel := context.WithTimeout(context.Background(), g.WSTimeout)
	defer cancel()

	return g.ResumeCtx(ctx)
}

// ResumeCtx sends off the Resume command. It fails with ErrMissingForResume
// when there's no session to resume.
func (g *Gateway) ResumeCtx(ctx context.Context) error {
	var (
		ses = g.SessionID
		seq = g.Sequence.Get()
	)

	if ses == "" || seq == 0 {
		return ErrMissingForResume
	}

	g.setStatus(StatusResuming)

	return g.SendCtx(ctx, ResumeOP, ResumeData{
		Token:     g.Identifier.Token,
		SessionID: ses,
		Sequence:  seq,
	})
}

// Heartbeat sends a heartbeat with the gateway's timeout. It is the
// pacemaker's pacer, but the server can also demand one at any time.
func (g *Gateway) Heartbeat() error {
	ctx, cancel := context.WithTimeout(context.Background(), g.WSTimeout)
	defer cancel()

	return g.HeartbeatCtx(ctx)
}

// HeartbeatCtx sends a heartbeat carrying the last seen sequence, or null
// if no dispatch was seen yet.
func (g *Gateway) HeartbeatCtx(ctx context.Context) error {
	var seq *int64
	if s := g.Sequence.Get(); s > 0 {
		seq = &s
	}

	return g.SendCtx(ctx, HeartbeatOP, seq)
}

// RequestGuildMembersData is the RequestGuildMembers command's payload.
type RequestGuildMembersData struct {
	GuildIDs []discord.GuildID `json:"guild_id"`
	UserIDs  []discord.UserID  `json:"user_ids,omitempty"`

	Query     string `json:"query"`
	Limit     uint   `json:"limit"`
	Presences bool   `json:"presences,omitempty"`
	Nonce     string `json:"nonce,omitempty"`
}

// RequestGuildMembers asks the gateway to stream a guild's member list in
// GuildMembersChunk events.
func (g *Gateway) RequestGuildMembers(data RequestGuildMembersData) error {
	ctx, cancel := context.WithTimeout(context.Background(), g.WSTimeout)
	defer cancel()

	return g.RequestGuildMembersCtx(ctx, data)
}

func (g *Gateway) RequestGuildMembersCtx(ctx context.Context, data RequestGuildMembersData) error {
	return g.SendCtx(ctx, RequestGuildMembersOP, data)
}

// UpdateStatusData is the UpdateStatus command's payload.
type UpdateStatusData struct {
	Since int64 `json:"since"` // 0 if not idle

	Activities []discord.Activity `json:"activities"`

	Status discord.Status `json:"status"`
	AFK    bool           `json:"afk"`
}

// UpdateStatus updates the bot's presence on all guilds this connection
// serves.
func (g *Gateway) UpdateStatus(data UpdateStatusData) error {
	ctx, cancel := context.WithTimeout(context.Background(), g.WSTimeout)
	defer cancel()

	return g.UpdateStatusCtx(ctx, data)
}

func (g *Gateway) UpdateStatusCtx(ctx context.Context, data UpdateStatusData) error {
	return g.SendCtx(ctx, StatusUpdateOP, data)
}

// UpdateVoiceStateData is the UpdateVoiceState command's payload. A null
// ChannelID disconnects from voice.
type UpdateVoiceStateData struct {
	GuildID   discord.GuildID   `json:"guild_id"`
	ChannelID discord.ChannelID `json:"channel_id"` // NullChannelID disconnects
	SelfMute  bool              `json:"self_mute"`
	SelfDeaf  bool              `json:"self_deaf"`
}

func (g *Gateway) UpdateVoiceState(data UpdateVoiceStateData) error {
	ctx, cancel := context.WithTimeout(context.Background(), g.WSTimeout)
	defer cancel()

	return g.UpdateVoiceStateCtx(ctx, data)
}

func (g *Gateway) UpdateVoiceStateCtx(ctx context.Context, data UpdateVoiceStateData) error {
	return g.SendCtx(ctx, VoiceStateUpdateOP, data)
}
