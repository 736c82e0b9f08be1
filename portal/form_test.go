package portal

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormField(t *testing.T) {
	t.Parallel()

	const body = "a=1&ssid=Hello%20World&password=p%26q"
	assert.Equal(t, "Hello%20World", formField(body, "ssid"))
	assert.Equal(t, "p%26q", formField(body, "password"))
	assert.Equal(t, "1", formField(body, "a"))
	assert.Equal(t, "", formField(body, "missing"))
	assert.Equal(t, "", formField("ssid=", "ssid"))
}

func TestURLDecode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in     string
		expect string
	}{
		{"", ""},
		{"plain", "plain"},
		{"a+b", "a b"},
		{"Hello%20World", "Hello World"},
		{"p%26q", "p&q"},
		{"%3a%3A", "::"},
		{"secret%21", "secret!"},
		{"%41%6a", "Aj"},
		// malformed escapes pass through literally
		{"abc%", "abc%"},
		{"abc%4", "abc%4"},
		{"%zz", "%zz"},
		{"%4g", "%4g"},
		{"100%", "100%"},
	}
	for _, c := range cases {
		assert.Equal(t, c.expect, urlDecode(c.in), "in=%q", c.in)
	}
}

func TestURLDecodeFidelity(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"simple",
		"with space & ampersand",
		"unicode ßüé",
		"binary \x00\x01\xff bytes",
		"sym!@#$%^&*()_+=",
	}
	for _, in := range inputs {
		enc := url.QueryEscape(in)
		assert.Equal(t, in, urlDecode(enc), "encoded=%q", enc)
	}
}

func TestFieldExtractionDecoded(t *testing.T) {
	t.Parallel()

	const body = "a=1&ssid=Hello%20World&password=p%26q"
	assert.Equal(t, "Hello World", urlDecode(formField(body, "ssid")))
	assert.Equal(t, "p&q", urlDecode(formField(body, "password")))
}
