package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeable(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"ascii credentials", "user_01!Pass", true},
		{"filter date", "01.08.25", true},
		{"empty", "", true},
		{"hebrew", "שם משתמש", false},
		{"tab", "a\tb", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Typeable(tc.input))
		})
	}
}

func TestResponseMatch(t *testing.T) {
	m := ResponseMatch{
		URL:    "https://hb2.bankleumi.co.il/ChannelWCF/Broker.svc/ProcessRequest?moduleName=UC_SO_27_GetBusinessAccountTrx",
		Method: "POST",
	}

	assert.True(t, m.Matches(m.URL, "POST"))
	assert.True(t, m.Matches(m.URL, "post"))
	assert.False(t, m.Matches(m.URL, "GET"))
	assert.False(t, m.Matches(m.URL+"&x=1", "POST"))
}
