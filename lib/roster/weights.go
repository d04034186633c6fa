package roster

import "influence-backend/lib/influence"

// USWeights is the weight table used for english speaking creators.
func USWeights() map[string]influence.PlatformWeight {
	return map[string]influence.PlatformWeight{
		"youtube":   {Weight: 1.0, Engagement: 0.05, Region: "GLOBAL"},
		"twitter":   {Weight: 0.25, Engagement: 0.02, Region: "GLOBAL"},
		"tiktok":    {Weight: 0.35, Engagement: 0.15, Region: "US"},
		"instagram": {Weight: 0.3, Engagement: 0.03, Region: "US"},
		"podcast":   {Weight: 0.6, Engagement: 0.08, Region: "US"},
	}
}

// CNWeights is the weight table used for chinese creators.
func CNWeights() map[string]influence.PlatformWeight {
	return map[string]influence.PlatformWeight{
		"bilibili":        {Weight: 0.9, Engagement: 0.08, Region: "CN"},
		"youtube":         {Weight: 0.95, Engagement: 0.06, Region: "GLOBAL"},
		"weibo":           {Weight: 0.7, Engagement: 0.05, Region: "CN"},
		"douyin":          {Weight: 0.85, Engagement: 0.12, Region: "CN"},
		"wechat_official": {Weight: 0.6, Engagement: 0.04, Region: "CN"},
		"wechat_channels": {Weight: 0.5, Engagement: 0.06, Region: "CN"},
	}
}

func regionWeights(region string) (map[string]influence.PlatformWeight, bool) {
	switch region {
	case "US":
		return USWeights(), true
	case "CN":
		return CNWeights(), true
	}
	return nil, false
}
