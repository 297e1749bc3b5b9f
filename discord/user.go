package discord

import "time"

// Hash is a string for image hashes.
type Hash = string

type User struct {
	ID            UserID `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	Avatar        Hash   `json:"avatar"`

	Bot    bool   `json:"bot,omitempty"`
	System bool   `json:"system,omitempty"`
	Locale string `json:"locale,omitempty"`

	Flags       UserFlags `json:"flags,omitempty"`
	PublicFlags UserFlags `json:"public_flags,omitempty"`
}

// CreatedAt returns a time object representing when the user was created.
func (u User) CreatedAt() time.Time {
	return u.ID.Time()
}

// Mention returns a mention of the user.
func (u User) Mention() string {
	return u.ID.Mention()
}

// Tag returns the user's tag, e.g. "hime#0001".
func (u User) Tag() string {
	return u.Username + "#" + u.Discriminator
}

// AvatarURL returns the URL to the user avatar, or an empty string if the
// user has none.
func (u User) AvatarURL() string {
	if u.Avatar == "" {
		return ""
	}

	base := "https://cdn.discordapp.com/avatars/" + u.ID.String() + "/" + u.Avatar

	if len(u.Avatar) > 2 && u.Avatar[:2] == "a_" {
		return base + ".gif"
	}

	return base + ".png"
}

type UserFlags uint32

const NoFlag UserFlags = 0

const (
	Employee UserFlags = 1 << iota
	Partner
	HypeSquadEvents
	BugHunterLvl1
	_
	_
	HouseBravery
	HouseBrilliance
	HouseBalance
	EarlySupporter
	TeamUser
	_
	DiscordSystem
	_
	BugHunterLvl2
	_
	VerifiedBot
	VerifiedBotDeveloper
)
