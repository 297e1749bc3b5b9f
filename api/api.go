// Package api provides an interface to interact with the Discord REST API.
// It handles rate limiting, as well as authorizing and more.
package api

import (
	"context"
	"net/http"

	"github.com/Rapptz/discord.py-sub002/api/rate"
	"github.com/Rapptz/discord.py-sub002/utils/httputil"
	"github.com/Rapptz/discord.py-sub002/utils/httputil/httpdriver"
	"github.com/Rapptz/discord.py-sub002/utils/json"
)

var (
	BaseEndpoint = "https://discord.com"
	APIVersion   = "9"
	APIPath      = "/api/v" + APIVersion

	Endpoint           = BaseEndpoint + APIPath + "/"
	EndpointGateway    = Endpoint + "gateway"
	EndpointGatewayBot = EndpointGateway + "/bot"

	EndpointUsers    = Endpoint + "users/"
	EndpointMe       = EndpointUsers + "@me"
	EndpointChannels = Endpoint + "channels/"
	EndpointGuilds   = Endpoint + "guilds/"
)

var UserAgent = "DiscordBot (https://github.com/Rapptz/discord.py-sub002, v0.0.1)"

type Client struct {
	*httputil.Client
	Limiter *rate.Limiter

	AuthToken string
}

func NewClient(token string) *Client {
	return NewCustomClient(token, httputil.NewClient())
}

func NewCustomClient(token string, httpClient *httputil.Client) *Client {
	c := &Client{
		Client:    httpClient.Copy(),
		Limiter:   rate.NewLimiter(APIPath),
		AuthToken: token,
	}

	c.Client.OnRequest = append(c.Client.OnRequest, c.InjectRequest)
	c.Client.OnResponse = append(c.Client.OnResponse, c.OnResponse)

	return c
}

// WithContext returns a shallow copy of Client with the given context. It's
// used for method timeouts and such.
func (c *Client) WithContext(ctx context.Context) *Client {
	return &Client{
		Client:    c.Client.WithContext(ctx),
		Limiter:   c.Limiter,
		AuthToken: c.AuthToken,
	}
}

// InjectRequest sets the standard headers and acquires the rate limiter for
// the request's route. It is run before every request.
func (c *Client) InjectRequest(r httpdriver.Request) error {
	if c.AuthToken != "" {
		r.AddHeader(http.Header{
			"Authorization": {c.AuthToken},
		})
	}

	r.AddHeader(http.Header{
		"User-Agent":            {UserAgent},
		"X-RateLimit-Precision": {"millisecond"},
	})

	return c.Limiter.Acquire(r.GetContext(), r.GetMethod(), r.GetPath())
}

// OnResponse releases the rate limiter with the response's headers. It is
// run after every request, even failed ones.
func (c *Client) OnResponse(r httpdriver.Request, resp httpdriver.Response) error {
	if resp == nil {
		return c.Limiter.Release(r.GetMethod(), r.GetPath(), nil, nil)
	}

	var body429 *rate.TooManyRequests

	if resp.GetStatus() == httputil.StatusTooManyRequests {
		// Pull the body out now; the retry loop won't get another chance.
		body429 = new(rate.TooManyRequests)
		if err := json.DecodeStream(resp.GetBody(), body429); err != nil {
			body429 = nil
		}
	}

	return c.Limiter.Release(r.GetMethod(), r.GetPath(), resp.GetHeader(), body429)
}
