package testutil

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizer_NestedJSONResponse(t *testing.T) {
	inner := `{"HistoryTransactionsItems":[{"Description":"העברה לחשבון 123-456/78","Amount":-150.5,"ReferenceNumberLong":1001}],"SessionToken":"abc"}`
	outer, err := json.Marshal(map[string]string{"jsonResp": inner})
	require.NoError(t, err)

	got := DefaultSanitizer().Body(string(outer))

	var env struct {
		JSONResp string `json:"jsonResp"`
	}
	require.NoError(t, json.Unmarshal([]byte(got), &env))

	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(env.JSONResp), &resp))
	assert.Equal(t, redacted, resp["SessionToken"])

	item := resp["HistoryTransactionsItems"].([]any)[0].(map[string]any)
	assert.Equal(t, "העברה לחשבון XXX-XXXXX/XX", item["Description"])
	assert.Equal(t, -150.5, item["Amount"])
	assert.Equal(t, float64(1001), item["ReferenceNumberLong"])
}

func TestSanitizer_Body(t *testing.T) {
	s := DefaultSanitizer()

	tests := []struct {
		name      string
		body      string
		contains  []string
		redactsTo []string
	}{
		{
			name:      "login json",
			body:      `{"username":"john","password":"hunter2","lang":"he"}`,
			contains:  []string{`"lang":"he"`},
			redactsTo: []string{"john", "hunter2"},
		},
		{
			name:      "hebrew password field",
			body:      `{"סיסמה":"hunter2"}`,
			redactsTo: []string{"hunter2"},
		},
		{
			name:      "form body",
			body:      "uid=john&pwd=hunter2&lang=he",
			contains:  []string{"lang=he"},
			redactsTo: []string{"john", "hunter2"},
		},
		{
			name:      "html",
			body:      `<span class="display-number-li">123-456/7</span> ת.ז. 012345678`,
			contains:  []string{"XXX-XXXXX/XX", "XXXXXXXXX"},
			redactsTo: []string{"123-456/7", "012345678"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Body(tt.body)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, gone := range tt.redactsTo {
				assert.NotContains(t, got, gone)
			}
		})
	}
}

func TestSanitizer_SanitizeHAR(t *testing.T) {
	har := &HAR{Entries: []Entry{{
		Request: Request{
			Method: "POST",
			URL:    "https://hb2.bankleumi.co.il/ChannelWCF/Broker.svc/ProcessRequest?moduleName=UC_SO_27&token=abc",
			Headers: []Header{
				{Name: "Cookie", Value: "ASP.NET_SessionId=xyz"},
				{Name: "Accept", Value: "application/json"},
			},
			PostData: &PostData{MimeType: "application/json", Text: `{"password":"hunter2"}`},
		},
		Response: Response{
			Status:  200,
			Headers: []Header{{Name: "Set-Cookie", Value: "a=b"}},
			Content: Content{MimeType: "text/html", Text: "<b>123-456/7</b>"},
		},
	}}}

	got := DefaultSanitizer().SanitizeHAR(har)

	e := got.Entries[0]
	assert.Contains(t, e.Request.URL, "moduleName=UC_SO_27")
	assert.NotContains(t, e.Request.URL, "abc")
	assert.Equal(t, redacted, e.Request.Headers[0].Value)
	assert.Equal(t, "application/json", e.Request.Headers[1].Value)
	assert.NotContains(t, e.Request.Body(), "hunter2")
	assert.Equal(t, redacted, e.Response.Headers[0].Value)
	assert.Equal(t, "<b>XXX-XXXXX/XX</b>", e.Response.Content.Text)

	// The input is left untouched
	assert.Equal(t, `{"password":"hunter2"}`, har.Entries[0].Request.Body())
	assert.Equal(t, "ASP.NET_SessionId=xyz", har.Entries[0].Request.Headers[0].Value)
}

func TestSanitizer_Scan(t *testing.T) {
	found := DefaultSanitizer().Scan(strings.Repeat("<li>123-456/7</li>", 3))

	assert.Equal(t, map[string]int{"Account number (branch-account/suffix)": 3}, found)
}
