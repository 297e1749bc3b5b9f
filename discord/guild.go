package discord

import "time"

type Guild struct {
	ID     GuildID `json:"id"`
	Name   string  `json:"name"`
	Icon   Hash    `json:"icon"`
	Banner Hash    `json:"banner,omitempty"`

	Owner   bool   `json:"owner,omitempty"` // self is owner
	OwnerID UserID `json:"owner_id"`

	AFKChannelID    ChannelID `json:"afk_channel_id,omitempty"`
	AFKTimeout      Seconds   `json:"afk_timeout"`
	SystemChannelID ChannelID `json:"system_channel_id,omitempty"`

	Roles  []Role  `json:"roles"`
	Emojis []Emoji `json:"emojis"`

	MaxPresences uint64 `json:"max_presences,omitempty"`
	MaxMembers   uint64 `json:"max_members,omitempty"`

	ApproximateMembers   uint64 `json:"approximate_member_count,omitempty"`
	ApproximatePresences uint64 `json:"approximate_presence_count,omitempty"`

	VanityURLCode string `json:"vanity_url_code,omitempty"`
	Description   string `json:"description,omitempty"`

	PreferredLocale string `json:"preferred_locale"`
}

// CreatedAt returns a time object representing when the guild was created.
func (g Guild) CreatedAt() time.Time {
	return g.ID.Time()
}

// IconURL returns the URL to the guild icon, or an empty string if the guild
// has none.
func (g Guild) IconURL() string {
	if g.Icon == "" {
		return ""
	}

	base := "https://cdn.discordapp.com/icons/" + g.ID.String() + "/" + g.Icon

	if len(g.Icon) > 2 && g.Icon[:2] == "a_" {
		return base + ".gif"
	}

	return base + ".png"
}

type Role struct {
	ID   RoleID `json:"id"`
	Name string `json:"name"`

	Color    uint32 `json:"color"`
	Hoist    bool   `json:"hoist"` // if the role is separated
	Position int    `json:"position"`

	Permissions Permissions `json:"permissions,string"`

	Managed     bool `json:"managed"`
	Mentionable bool `json:"mentionable"`
}

// CreatedAt returns a time object representing when the role was created.
func (r Role) CreatedAt() time.Time {
	return r.ID.Time()
}

// Mention returns a mention of the role.
func (r Role) Mention() string {
	return r.ID.Mention()
}

type Member struct {
	User    User     `json:"user"`
	Nick    string   `json:"nick,omitempty"`
	RoleIDs []RoleID `json:"roles"`

	Joined       Timestamp `json:"joined_at"`
	BoostedSince Timestamp `json:"premium_since,omitempty"`

	Deaf bool `json:"deaf"`
	Mute bool `json:"mute"`
}

// Mention returns a mention of the member.
func (m Member) Mention() string {
	return "<@!" + m.User.ID.String() + ">"
}

type Emoji struct {
	ID   EmojiID `json:"id"` // NullEmojiID for unicode emojis
	Name string  `json:"name"`

	RoleIDs []RoleID `json:"roles,omitempty"`
	User    User     `json:"user,omitempty"`

	RequireColons bool `json:"require_colons,omitempty"`
	Managed       bool `json:"managed,omitempty"`
	Animated      bool `json:"animated,omitempty"`
}

// IsCustom returns whether the emoji is a custom (uploaded) emoji.
func (e Emoji) IsCustom() bool {
	return e.ID.IsValid()
}

// String formats the emoji as the gateway and API expect it: either the
// unicode emoji itself, or "name:id" for custom ones.
func (e Emoji) String() string {
	if !e.IsCustom() {
		return e.Name
	}
	return e.Name + ":" + e.ID.String()
}

type Presence struct {
	User       User       `json:"user"`
	GuildID    GuildID    `json:"guild_id,omitempty"`
	Status     Status     `json:"status"`
	Activities []Activity `json:"activities,omitempty"`
}

// Activity is a single entry in a presence's activity list.
type Activity struct {
	Name string       `json:"name"`
	Type ActivityType `json:"type"`
	URL  string       `json:"url,omitempty"`

	// Only filled for user's presences.
	Details string `json:"details,omitempty"`
	State   string `json:"state,omitempty"`
}

type ActivityType uint8

const (
	GameActivity ActivityType = iota
	StreamingActivity
	ListeningActivity
	WatchingActivity
	CustomActivity
	CompetingActivity
)

// Status is the enumerate type for a user's status.
type Status string

const (
	UnknownStatus      Status = ""
	OnlineStatus       Status = "online"
	DoNotDisturbStatus Status = "dnd"
	IdleStatus         Status = "idle"
	InvisibleStatus    Status = "invisible"
	OfflineStatus      Status = "offline"
)

// Permissions is a set of Discord permission bits.
type Permissions uint64

const (
	PermissionCreateInstantInvite Permissions = 1 << iota
	PermissionKickMembers
	PermissionBanMembers
	PermissionAdministrator
	PermissionManageChannels
	PermissionManageGuild
	PermissionAddReactions
	PermissionViewAuditLog
	PermissionPrioritySpeaker
	PermissionStream
	PermissionViewChannel
	PermissionSendMessages
	PermissionSendTTSMessages
	PermissionManageMessages
	PermissionEmbedLinks
	PermissionAttachFiles
	PermissionReadMessageHistory
	PermissionMentionEveryone
	PermissionUseExternalEmojis
	PermissionViewGuildInsights
	PermissionConnect
	PermissionSpeak
	PermissionMuteMembers
	PermissionDeafenMembers
	PermissionMoveMembers
	PermissionUseVAD
	PermissionChangeNickname
	PermissionManageNicknames
	PermissionManageRoles
	PermissionManageWebhooks
	PermissionManageEmojis
)

// Has returns true if p contains perm.
func (p Permissions) Has(perm Permissions) bool {
	return p&perm == perm
}
