package rate

import "testing"

func TestBucketKey(t *testing.T) {
	var tests = [][2]string{
		{"/guilds/123123/messages",
			"/guilds/123123/messages"},
		{"/guilds/123123/",
			"/guilds/123123/"},
		{"/channels/123131231",
			"/channels/123131231"},
		{"/channels/123123/message/123456",
			"/channels/123123/message/"},
		{"/user/123123", "/user/"},
		{"/channels/1/messages/1/reactions/🤔/@me",
			"/channels/1/messages//reactions//@me"},
		{"/channels/1/messages/2/reactions/thonk:123123/@me",
			"/channels/1/messages//reactions//@me"},
		// Actual URL:
		{"/channels/486833611564253186/messages/540519319814275089/reactions/🥺/@me",
			"/channels/486833611564253186/messages//reactions//@me"},
	}

	for _, conds := range tests {
		key := ParseBucketKey(conds[0])
		if key != conds[1] {
			t.Fatalf("Expected/got\n%s\n%s", conds[1], key)
		}
	}
}

func TestMajorParameter(t *testing.T) {
	var tests = [][2]string{
		{"/channels/123/messages/456", "123"},
		{"/guilds/99/channels", "99"},
		{"/webhooks/55/token", "55"},
		{"/users/@me", ""},
		{"/gateway/bot", ""},
	}

	for _, conds := range tests {
		major := MajorParameter(conds[0])
		if major != conds[1] {
			t.Fatalf("Expected major %q for %s, got %q", conds[1], conds[0], major)
		}
	}
}
