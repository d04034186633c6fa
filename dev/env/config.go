package devenv

// YouTubeTestConfig is read from dev/.state/youtube.json5 by the live youtube
// tests.
type YouTubeTestConfig struct {
	ApiKey    string `json:"api_key"`
	ChannelId string `json:"channel_id"`
}

// BilibiliTestConfig is read from dev/.state/bilibili.json5 by the live bilibili
// tests.
type BilibiliTestConfig struct {
	Uid string `json:"uid"`
}
