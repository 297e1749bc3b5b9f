package api

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/Rapptz/discord.py-sub002/utils/httputil"
	"github.com/Rapptz/discord.py-sub002/utils/httputil/httpdriver"
)

func mockAPIClient(handle func(*httpdriver.MockRequest) (*httpdriver.MockResponse, error)) *Client {
	httpClient := httputil.NewClient()
	httpClient.Client = httpdriver.MockClient{Handle: handle}
	return NewCustomClient("Bot totally-legit-token", httpClient)
}

func TestClientAuthorization(t *testing.T) {
	c := mockAPIClient(func(r *httpdriver.MockRequest) (*httpdriver.MockResponse, error) {
		if auth := r.Header.Get("Authorization"); auth != "Bot totally-legit-token" {
			t.Error("unexpected Authorization header:", auth)
		}
		if ua := r.Header.Get("User-Agent"); ua == "" {
			t.Error("missing User-Agent header")
		}
		return httpdriver.NewMockResponse(200, nil, map[string]interface{}{
			"id":            "170905798654296064",
			"username":      "gateway-tester",
			"discriminator": "0001",
		}), nil
	})

	me, err := c.Me()
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	if me.Username != "gateway-tester" {
		t.Fatal("unexpected username:", me.Username)
	}
}

func TestClientRateLimitWait(t *testing.T) {
	var calls int

	c := mockAPIClient(func(r *httpdriver.MockRequest) (*httpdriver.MockResponse, error) {
		calls++
		if calls == 1 {
			// Headerless 429; the delay only lives in the body. The next
			// acquire has to wait it out.
			return httpdriver.NewMockResponse(429, nil, map[string]interface{}{
				"message":     "You are being rate limited.",
				"retry_after": 0.05,
				"global":      false,
			}), nil
		}
		return httpdriver.NewMockResponse(200, nil, map[string]interface{}{
			"id": "1",
		}), nil
	})

	start := time.Now()

	if _, err := c.User(1); err != nil {
		t.Fatal("unexpected error:", err)
	}

	if calls != 2 {
		t.Fatal("expected 2 calls, got", calls)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Fatal("rate limit not waited out, elapsed:", elapsed)
	}
}

func TestSendMessageFile(t *testing.T) {
	c := mockAPIClient(func(r *httpdriver.MockRequest) (*httpdriver.MockResponse, error) {
		ctype, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil {
			t.Error("malformed Content-Type:", err)
			return httpdriver.NewMockResponse(400, nil, nil), nil
		}
		if ctype != "multipart/form-data" {
			t.Error("unexpected Content-Type:", ctype)
		}

		form, err := multipart.NewReader(bytes.NewReader(r.Body), params["boundary"]).ReadForm(1 << 20)
		if err != nil {
			t.Error("malformed multipart body:", err)
			return httpdriver.NewMockResponse(400, nil, nil), nil
		}
		defer form.RemoveAll()

		payload := form.Value["payload_json"]
		if len(payload) != 1 || !strings.Contains(payload[0], `"content":"here you go"`) {
			t.Errorf("unexpected payload_json: %q", payload)
		}

		files := form.File["file0"]
		if len(files) != 1 || files[0].Filename != "hello.txt" {
			t.Errorf("unexpected file0 part: %#v", files)
		} else {
			f, err := files[0].Open()
			if err != nil {
				t.Error("failed to open file0:", err)
			} else {
				b, _ := io.ReadAll(f)
				f.Close()
				if string(b) != "hello world" {
					t.Errorf("unexpected file0 content: %q", b)
				}
			}
		}

		return httpdriver.NewMockResponse(200, nil, map[string]interface{}{
			"id":         "456",
			"channel_id": "2",
			"content":    "here you go",
		}), nil
	})

	msg, err := c.SendMessageComplex(2, SendMessageData{
		Content: "here you go",
		Files: []SendMessageFile{
			{Name: "hello.txt", Reader: strings.NewReader("hello world")},
		},
	})
	if err != nil {
		t.Fatal("failed to send:", err)
	}
	if msg.ID != 456 || msg.Content != "here you go" {
		t.Fatalf("unexpected message response: %#v", msg)
	}
}

func TestClientRateLimitHeaders(t *testing.T) {
	var calls int

	c := mockAPIClient(func(r *httpdriver.MockRequest) (*httpdriver.MockResponse, error) {
		calls++

		h := http.Header{}
		h.Set("X-RateLimit-Remaining", "0")
		h.Set("X-RateLimit-Reset-After", "0.05")

		return httpdriver.NewMockResponse(200, h, map[string]interface{}{
			"id": "1",
		}), nil
	})

	if _, err := c.User(1); err != nil {
		t.Fatal("unexpected error:", err)
	}

	// Bucket is now exhausted; the second call has to wait ~50ms.
	start := time.Now()

	if _, err := c.User(1); err != nil {
		t.Fatal("unexpected error:", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Fatal("exhausted bucket not waited out, elapsed:", elapsed)
	}
}
