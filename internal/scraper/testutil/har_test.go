package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const devtoolsHAR = `{
  "log": {
    "version": "1.2",
    "creator": {"name": "WebInspector", "version": "537.36"},
    "entries": [
      {
        "request": {
          "method": "POST",
          "url": "https://hb2.bankleumi.co.il/ChannelWCF/Broker.svc/ProcessRequest?moduleName=UC_SO_27_GetBusinessAccountTrx",
          "postData": {"mimeType": "application/json", "text": "{\"FromDate\":\"01.08.24\"}"}
        },
        "response": {
          "status": 200,
          "headers": [{"name": "Content-Type", "value": "application/json"}],
          "content": {"mimeType": "application/json", "text": "eyJqc29uUmVzcCI6IiJ9", "encoding": "base64"}
        }
      },
      {
        "request": {"method": "GET", "url": "https://hb2.bankleumi.co.il/H/Login.html"},
        "response": {"status": 302, "headers": [{"name": "location", "value": "/H/Login2.html"}], "content": {"text": ""}}
      }
    ]
  }
}`

func TestParseHAR_DevTools(t *testing.T) {
	har, err := ParseHAR([]byte(devtoolsHAR))
	require.NoError(t, err)
	require.Len(t, har.Entries, 2)

	first := har.Entries[0]
	assert.Equal(t, `{"FromDate":"01.08.24"}`, first.Request.Body())
	assert.Equal(t, `{"jsonResp":""}`, string(first.Response.Content.Bytes()))
	assert.Equal(t, "/H/Login2.html", har.Entries[1].Response.Header("Location"))
	assert.Empty(t, har.Entries[1].Request.Body())
}

func TestParseHAR_Unwrapped(t *testing.T) {
	har, err := ParseHAR([]byte(`{"entries":[{"request":{"method":"GET","url":"https://x/"},"response":{"status":200,"content":{"text":"ok"}}}]}`))

	require.NoError(t, err)
	require.Len(t, har.Entries, 1)
	assert.Equal(t, "ok", string(har.Entries[0].Response.Content.Bytes()))
}

func TestParseHAR_Invalid(t *testing.T) {
	_, err := ParseHAR([]byte("not json"))
	assert.Error(t, err)
}

func TestHAR_Find(t *testing.T) {
	har, err := ParseHAR([]byte(devtoolsHAR))
	require.NoError(t, err)

	found := har.Find("post", har.Entries[0].Request.URL)
	require.Len(t, found, 1)
	assert.Same(t, &har.Entries[0], found[0])

	assert.Empty(t, har.Find("GET", har.Entries[0].Request.URL))
}

func TestSaveHAR_WritesDevToolsLayout(t *testing.T) {
	har, err := ParseHAR([]byte(devtoolsHAR))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.har.json")
	require.NoError(t, SaveHAR(path, har))

	loaded := MustLoadHAR(t, path)
	assert.Equal(t, har.Entries, loaded.Entries)
}
