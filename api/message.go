package api

import (
	"github.com/Rapptz/discord.py-sub002/discord"
	"github.com/Rapptz/discord.py-sub002/utils/httputil"
)

// SendMessageData is the data for SendMessage.
type SendMessageData struct {
	Content string `json:"content,omitempty"`
	TTS     bool   `json:"tts,omitempty"`

	// Files, if any, are uploaded as multipart form data alongside the
	// JSON fields.
	Files []SendMessageFile `json:"-"`
}

// SendMessage posts a message to a channel.
func (c *Client) SendMessage(
	channelID discord.ChannelID, content string) (*discord.Message, error) {

	return c.SendMessageComplex(channelID, SendMessageData{
		Content: content,
	})
}

// SendMessageComplex posts a message to a channel with the full data set.
// Messages with files are sent as a streamed multipart body.
func (c *Client) SendMessageComplex(
	channelID discord.ChannelID, data SendMessageData) (*discord.Message, error) {

	var url = EndpointChannels + channelID.String() + "/messages"

	if len(data.Files) > 0 {
		return c.sendMessageMultipart(url, data)
	}

	var msg *discord.Message
	return msg, c.RequestJSON(
		&msg, "POST", url,
		httputil.WithJSONBody(data),
	)
}

// Message returns a single message by its ID.
func (c *Client) Message(
	channelID discord.ChannelID, messageID discord.MessageID) (*discord.Message, error) {

	var msg *discord.Message
	return msg, c.RequestJSON(
		&msg, "GET",
		EndpointChannels+channelID.String()+"/messages/"+messageID.String(),
	)
}

// Messages lists up to limit of the channel's most recent messages, newest
// first. Limit caps out at 100; 0 means the server default.
func (c *Client) Messages(
	channelID discord.ChannelID, limit uint) ([]discord.Message, error) {

	var param struct {
		Limit uint `schema:"limit,omitempty"`
	}
	param.Limit = limit

	var msgs []discord.Message
	return msgs, c.RequestJSON(
		&msgs, "GET",
		EndpointChannels+channelID.String()+"/messages",
		httputil.WithSchema(c, param),
	)
}

// EditMessage edits a message's content. Only the author can do this.
func (c *Client) EditMessage(
	channelID discord.ChannelID, messageID discord.MessageID,
	content string) (*discord.Message, error) {

	var data = struct {
		Content string `json:"content"`
	}{content}

	var msg *discord.Message
	return msg, c.RequestJSON(
		&msg, "PATCH",
		EndpointChannels+channelID.String()+"/messages/"+messageID.String(),
		httputil.WithJSONBody(data),
	)
}

// DeleteMessage deletes a message.
func (c *Client) DeleteMessage(
	channelID discord.ChannelID, messageID discord.MessageID, reason AuditLogReason) error {

	return c.FastRequest(
		"DELETE",
		EndpointChannels+channelID.String()+"/messages/"+messageID.String(),
		WithAuditLogReason(reason),
	)
}

// React adds a reaction to a message. The emoji is either a unicode emoji
// or, for custom emojis, "name:id".
func (c *Client) React(
	channelID discord.ChannelID, messageID discord.MessageID, emoji string) error {

	return c.FastRequest(
		"PUT",
		EndpointChannels+channelID.String()+"/messages/"+messageID.String()+
			"/reactions/"+emoji+"/@me",
	)
}
