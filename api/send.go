package api

import (
	"io"
	"mime/multipart"
	"strconv"

	"github.com/pkg/errors"

	"github.com/Rapptz/discord.py-sub002/discord"
	"github.com/Rapptz/discord.py-sub002/utils/json"
)

// SendMessageFile is a file to upload alongside a message.
type SendMessageFile struct {
	Name   string
	Reader io.Reader
}

// sendMessageMultipart streams the message's files while the request is being
// sent; the JSON fields ride along in a payload_json part.
func (c *Client) sendMessageMultipart(
	url string, data SendMessageData) (*discord.Message, error) {

	resp, err := c.MeanwhileMultipart(func(body *multipart.Writer) error {
		return writeMultipartMessage(body, data)
	}, "POST", url)
	if err != nil {
		return nil, err
	}

	var respBody = resp.GetBody()
	defer respBody.Close()

	var msg *discord.Message
	if err := json.DecodeStream(respBody, &msg); err != nil {
		return nil, errors.Wrap(err, "failed to decode message response")
	}

	return msg, nil
}

func writeMultipartMessage(body *multipart.Writer, data SendMessageData) error {
	// Encode the JSON fields first.
	w, err := body.CreateFormField("payload_json")
	if err != nil {
		return errors.Wrap(err, "failed to create bodypart for JSON")
	}

	if err := json.EncodeStream(w, data); err != nil {
		return errors.Wrap(err, "failed to encode JSON")
	}

	for i, file := range data.Files {
		w, err := body.CreateFormFile("file"+strconv.Itoa(i), file.Name)
		if err != nil {
			return errors.Wrapf(err, "failed to create bodypart for file %d", i)
		}

		if _, err := io.Copy(w, file.Reader); err != nil {
			return errors.Wrapf(err, "failed to write file %d", i)
		}
	}

	return nil
}
