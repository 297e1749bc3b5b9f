package discord

import (
	"strconv"
	"strings"
	"time"
)

// Epoch is the Discord epoch in time.Duration (nanoseconds) since the Unix
// epoch.
const Epoch = 1420070400000 * time.Millisecond

// DurationSinceEpoch returns the duration from the Discord epoch to t.
func DurationSinceEpoch(t time.Time) time.Duration {
	return time.Duration(t.UnixNano()) - Epoch
}

// Snowflake is the format of Discord's ID type. It is a format that can be
// sorted chronologically.
type Snowflake int64

// NullSnowflake gets encoded into a null. This is used for optional and
// nullable snowflake fields.
const NullSnowflake Snowflake = -1

// NewSnowflake creates a new snowflake from the given time.
func NewSnowflake(t time.Time) Snowflake {
	return Snowflake((DurationSinceEpoch(t) / time.Millisecond) << 22)
}

// ParseSnowflake parses a snowflake.
func ParseSnowflake(sf string) (Snowflake, error) {
	if sf == "null" {
		return NullSnowflake, nil
	}

	i, err := strconv.ParseInt(sf, 10, 64)
	if err != nil {
		return 0, err
	}

	return Snowflake(i), nil
}

func (s *Snowflake) UnmarshalJSON(v []byte) error {
	p, err := ParseSnowflake(strings.Trim(string(v), `"`))
	if err != nil {
		return err
	}

	*s = p
	return nil
}

func (s Snowflake) MarshalJSON() ([]byte, error) {
	// This includes 0 and null, because MarshalJSON does not dictate when a
	// value gets omitted.
	if !s.IsValid() {
		return []byte("null"), nil
	}
	return []byte(`"` + strconv.FormatInt(int64(s), 10) + `"`), nil
}

// String returns the ID, or nothing if the snowflake isn't valid.
func (s Snowflake) String() string {
	if !s.IsValid() {
		return ""
	}
	return strconv.FormatUint(uint64(s), 10)
}

// IsValid returns whether or not the snowflake is valid.
func (s Snowflake) IsValid() bool {
	return !(int64(s) == 0 || s == NullSnowflake)
}

// IsNull returns whether or not the snowflake is null.
func (s Snowflake) IsNull() bool {
	return s == NullSnowflake
}

// Time returns the creation time encoded inside the snowflake.
func (s Snowflake) Time() time.Time {
	unixnano := ((time.Duration(s) >> 22) * time.Millisecond) + Epoch
	return time.Unix(0, int64(unixnano))
}

func (s Snowflake) Worker() uint8 {
	return uint8(s & 0x3E0000 >> 17)
}

func (s Snowflake) PID() uint8 {
	return uint8(s & 0x1F000 >> 12)
}

func (s Snowflake) Increment() uint16 {
	return uint16(s & 0xFFF)
}

// GuildID is the snowflake type for a guild ID.
type GuildID Snowflake

// NullGuildID gets encoded into a null.
const NullGuildID = GuildID(NullSnowflake)

func (s *GuildID) UnmarshalJSON(v []byte) error { return (*Snowflake)(s).UnmarshalJSON(v) }
func (s GuildID) MarshalJSON() ([]byte, error)  { return Snowflake(s).MarshalJSON() }

func (s GuildID) String() string  { return Snowflake(s).String() }
func (s GuildID) IsValid() bool   { return Snowflake(s).IsValid() }
func (s GuildID) IsNull() bool    { return Snowflake(s).IsNull() }
func (s GuildID) Time() time.Time { return Snowflake(s).Time() }

// ChannelID is the snowflake type for a channel ID.
type ChannelID Snowflake

// NullChannelID gets encoded into a null.
const NullChannelID = ChannelID(NullSnowflake)

func (s *ChannelID) UnmarshalJSON(v []byte) error { return (*Snowflake)(s).UnmarshalJSON(v) }
func (s ChannelID) MarshalJSON() ([]byte, error)  { return Snowflake(s).MarshalJSON() }

func (s ChannelID) String() string  { return Snowflake(s).String() }
func (s ChannelID) IsValid() bool   { return Snowflake(s).IsValid() }
func (s ChannelID) IsNull() bool    { return Snowflake(s).IsNull() }
func (s ChannelID) Time() time.Time { return Snowflake(s).Time() }
func (s ChannelID) Mention() string { return "<#" + s.String() + ">" }

// UserID is the snowflake type for a user ID.
type UserID Snowflake

// NullUserID gets encoded into a null.
const NullUserID = UserID(NullSnowflake)

func (s *UserID) UnmarshalJSON(v []byte) error { return (*Snowflake)(s).UnmarshalJSON(v) }
func (s UserID) MarshalJSON() ([]byte, error)  { return Snowflake(s).MarshalJSON() }

func (s UserID) String() string  { return Snowflake(s).String() }
func (s UserID) IsValid() bool   { return Snowflake(s).IsValid() }
func (s UserID) IsNull() bool    { return Snowflake(s).IsNull() }
func (s UserID) Time() time.Time { return Snowflake(s).Time() }
func (s UserID) Mention() string { return "<@" + s.String() + ">" }

// MessageID is the snowflake type for a message ID.
type MessageID Snowflake

// NullMessageID gets encoded into a null.
const NullMessageID = MessageID(NullSnowflake)

func (s *MessageID) UnmarshalJSON(v []byte) error { return (*Snowflake)(s).UnmarshalJSON(v) }
func (s MessageID) MarshalJSON() ([]byte, error)  { return Snowflake(s).MarshalJSON() }

func (s MessageID) String() string  { return Snowflake(s).String() }
func (s MessageID) IsValid() bool   { return Snowflake(s).IsValid() }
func (s MessageID) IsNull() bool    { return Snowflake(s).IsNull() }
func (s MessageID) Time() time.Time { return Snowflake(s).Time() }

// RoleID is the snowflake type for a role ID.
type RoleID Snowflake

// NullRoleID gets encoded into a null.
const NullRoleID = RoleID(NullSnowflake)

func (s *RoleID) UnmarshalJSON(v []byte) error { return (*Snowflake)(s).UnmarshalJSON(v) }
func (s RoleID) MarshalJSON() ([]byte, error)  { return Snowflake(s).MarshalJSON() }

func (s RoleID) String() string  { return Snowflake(s).String() }
func (s RoleID) IsValid() bool   { return Snowflake(s).IsValid() }
func (s RoleID) IsNull() bool    { return Snowflake(s).IsNull() }
func (s RoleID) Time() time.Time { return Snowflake(s).Time() }
func (s RoleID) Mention() string { return "<@&" + s.String() + ">" }

// EmojiID is the snowflake type for an emoji ID.
type EmojiID Snowflake

// NullEmojiID gets encoded into a null.
const NullEmojiID = EmojiID(NullSnowflake)

func (s *EmojiID) UnmarshalJSON(v []byte) error { return (*Snowflake)(s).UnmarshalJSON(v) }
func (s EmojiID) MarshalJSON() ([]byte, error)  { return Snowflake(s).MarshalJSON() }

func (s EmojiID) String() string  { return Snowflake(s).String() }
func (s EmojiID) IsValid() bool   { return Snowflake(s).IsValid() }
func (s EmojiID) IsNull() bool    { return Snowflake(s).IsNull() }
func (s EmojiID) Time() time.Time { return Snowflake(s).Time() }
