package browser

import (
	"testing"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
)

func TestChromePageRecordsTraffic(t *testing.T) {
	p := &chromePage{url: "https://example.com"}

	p.onRequest(&network.EventRequestWillBeSent{
		Request: &network.Request{URL: "https://example.com/", Method: "GET"},
		Type:    network.ResourceTypeDocument,
	})
	p.onRequest(&network.EventRequestWillBeSent{
		Request: &network.Request{URL: "https://connect.facebook.net/fbevents.js", Method: "GET"},
		Type:    network.ResourceTypeScript,
	})
	assert.Nil(t, p.DocumentHeaders())

	p.onResponse(&network.EventResponseReceived{
		Type:     network.ResourceTypeScript,
		Response: &network.Response{URL: "https://connect.facebook.net/fbevents.js"},
	})
	assert.Nil(t, p.DocumentHeaders())

	p.onResponse(&network.EventResponseReceived{
		Type: network.ResourceTypeDocument,
		Response: &network.Response{
			URL:     "https://www.example.com/",
			Headers: network.Headers{"Strict-Transport-Security": "max-age=63072000"},
		},
	})
	// A later document (an iframe) does not replace the main one.
	p.onResponse(&network.EventResponseReceived{
		Type:     network.ResourceTypeDocument,
		Response: &network.Response{URL: "https://ads.example.net/frame", Headers: network.Headers{}},
	})

	reqs := p.Requests()
	assert.Len(t, reqs, 2)
	assert.Equal(t, "Script", reqs[1].ResourceType)
	assert.Equal(t, map[string]string{"strict-transport-security": "max-age=63072000"}, p.DocumentHeaders())
	assert.Equal(t, "https://www.example.com/", p.URL())

	reqs[0].URL = "mutated"
	assert.Equal(t, "https://example.com/", p.Requests()[0].URL)
}
