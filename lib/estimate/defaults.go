package estimate

// generic platform profiles, used to fill in whatever a creator record omits
var defaultProfiles = map[string]Record{
	"bilibili":        {AvgPlays: 300_000, Posts: 200, Note: "bilibili uid unconfirmed, estimated from public information"},
	"weibo":           {AvgLikes: 10_000, AvgComments: 1_000, AvgReposts: 2_000, Posts: 1_000, Note: "weibo requires login, estimated from public information"},
	"douyin":          {AvgLikes: 50_000, AvgComments: 10_000, AvgShares: 5_000, Posts: 500, Note: "douyin requires request signing, estimated from public information"},
	"wechat_official": {AvgReads: 50_000, AvgLikes: 3_000, Posts: 200, Note: "wechat official accounts have no public api, estimated from industry averages"},
	"wechat_channels": {AvgPlays: 100_000, AvgLikes: 5_000, Posts: 200, Note: "wechat channels has no public api, estimated from industry averages"},
	"twitter":         {Note: "x blocks anonymous access, using configured follower count"},
	"tiktok":          {Note: "tiktok profile could not be scraped, using configured follower count"},
	"instagram":       {Note: "instagram profile could not be scraped, using configured follower count"},
	"podcast":         {Note: "podcast platforms do not publish subscriber counts, using configured listener estimate"},
}

var defaultCreators = map[string]map[string]Record{
	"liziqi": {
		"bilibili":        {Followers: 8_000_000, AvgPlays: 8_000_000, Posts: 10},
		"weibo":           {Followers: 27_500_000, AvgLikes: 50_000, AvgComments: 3_000, AvgReposts: 10_000, Posts: 500},
		"douyin":          {Followers: 49_000_000, AvgLikes: 1_000_000, AvgComments: 50_000, AvgShares: 30_000, Posts: 200},
		"wechat_official": {Followers: 5_000_000, AvgReads: 80_000, AvgLikes: 5_000, Posts: 100},
		"wechat_channels": {Followers: 8_000_000, AvgPlays: 500_000, AvgLikes: 30_000, Posts: 150},
	},
	"simanan": {
		"bilibili":        {Followers: 1_500_000, AvgPlays: 500_000, Posts: 500},
		"weibo":           {Followers: 2_200_000, AvgLikes: 5_000, AvgComments: 2_000, AvgReposts: 1_500, Posts: 3_000},
		"douyin":          {Followers: 8_500_000, AvgLikes: 50_000, AvgComments: 15_000, AvgShares: 10_000, Posts: 800},
		"wechat_official": {Followers: 1_500_000, AvgReads: 30_000, AvgLikes: 2_000, Posts: 500},
		"wechat_channels": {Followers: 3_000_000},
	},
	"huxijin": {
		"bilibili":        {Followers: 2_000_000, AvgPlays: 800_000, Posts: 800},
		"weibo":           {Followers: 24_800_000, AvgLikes: 30_000, AvgComments: 8_000, AvgReposts: 5_000, Posts: 5_000},
		"douyin":          {Followers: 12_000_000, AvgLikes: 80_000, AvgComments: 25_000, AvgShares: 15_000, Posts: 1_000},
		"wechat_official": {Followers: 3_000_000, AvgReads: 100_000, AvgLikes: 8_000, Posts: 800},
		"wechat_channels": {Followers: 5_000_000},
	},
	"mashubobi": {
		"weibo":           {Followers: 800_000},
		"douyin":          {Followers: 3_000_000},
		"wechat_official": {Followers: 500_000},
		"wechat_channels": {Followers: 800_000, AvgPlays: 80_000, AvgLikes: 4_000, Posts: 100},
	},
	"xiaolinshuo": {
		"weibo":           {Followers: 1_500_000},
		"douyin":          {Followers: 5_000_000},
		"wechat_official": {Followers: 2_000_000},
		"wechat_channels": {Followers: 1_500_000, AvgPlays: 150_000, AvgLikes: 8_000, Posts: 120},
	},
	"shuiqianxiaoxi": {
		"weibo":           {Followers: 500_000},
		"douyin":          {Followers: 2_000_000},
		"wechat_official": {Followers: 1_500_000},
		"wechat_channels": {Followers: 1_000_000, AvgPlays: 120_000, AvgLikes: 6_000, Posts: 300},
	},
	"mkbhd": {
		"twitter":   {Followers: 3_100_000},
		"tiktok":    {Followers: 4_700_000},
		"instagram": {Followers: 4_200_000},
	},
	"mrbeast": {
		"twitter":   {Followers: 31_000_000},
		"tiktok":    {Followers: 96_000_000},
		"instagram": {Followers: 65_000_000},
	},
	"joerogan": {
		"twitter": {Followers: 14_800_000},
		"podcast": {Followers: 11_000_000},
	},
}

// DefaultTable returns the built-in estimate table.
func DefaultTable() Table {
	return NewTable(defaultCreators, defaultProfiles)
}
