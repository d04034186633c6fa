package influence

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	testCases := []struct {
		text     string
		expected Status
		fails    bool
	}{
		{text: "success", expected: StatusSuccess},
		{text: "estimated", expected: StatusEstimated},
		{text: "error", expected: StatusError},
		{text: "Success", fails: true},
		{text: "", fails: true},
	}

	for _, test := range testCases {
		t.Run(test.text, func(t *testing.T) {
			status, err := ParseStatus(test.text)
			if test.fails {
				require.ErrorIs(t, err, ErrUnknownStatus)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.expected, status)
			require.Equal(t, test.text, status.String())
		})
	}
}

func TestSampleJSON(t *testing.T) {
	var sample PlatformSample
	err := json.Unmarshal([]byte(`{"platform":"weibo","status":"estimated","followers":10,"views":2,"engagement_rate":1.5}`), &sample)
	require.NoError(t, err)
	require.Equal(t, StatusEstimated, sample.Status)
	require.Equal(t, int64(10), sample.Followers)

	err = json.Unmarshal([]byte(`{"platform":"weibo","status":"guessed"}`), &sample)
	require.ErrorIs(t, err, ErrUnknownStatus)

	out, err := json.Marshal(PlatformSample{Platform: "x", Status: StatusSuccess})
	require.NoError(t, err)
	require.Contains(t, string(out), `"status":"success"`)
}

func TestResolvePlatform(t *testing.T) {
	known := []string{"bilibili", "douyin", "twitter", "wechat_channels", "wechat_official", "weibo", "youtube"}

	testCases := []struct {
		name     string
		expected string
		implicit bool
	}{
		{name: "YouTube", expected: "youtube"},
		{name: "wechat-official", expected: "wechat_official"},
		{name: "WeChat Channels", expected: "wechat_channels"},
		{name: "x", expected: "twitter"},
		{name: "youtub", expected: "youtube", implicit: true},
		{name: "bilibil", expected: "bilibili", implicit: true},
		{name: "mastodon", expected: "mastodon"},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			res := ResolvePlatform(test.name, known)
			require.Equal(t, test.expected, res.Platform)
			require.Equal(t, test.implicit, res.Implicit)
		})
	}
}
