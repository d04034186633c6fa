package influence

import (
	"influence-backend/lib/textutil"

	"github.com/antzucaro/matchr"
)

// ResolveThreshold is the minimum JaroWinkler similarity for an implicit match.
const ResolveThreshold = 0.85

var platformAliases = map[string]string{
	"x":         "twitter",
	"weixin":    "wechat_official",
	"wechat":    "wechat_official",
	"gzh":       "wechat_official",
	"channels":  "wechat_channels",
	"shipinhao": "wechat_channels",
	"b站":        "bilibili",
	"微博":        "weibo",
	"抖音":        "douyin",
	"yt":        "youtube",
	"ig":        "instagram",
}

// Resolution describes how a platform name was resolved.
type Resolution struct {
	Platform   string
	Similarity float64
	Implicit   bool
}

// ResolvePlatform maps a free form platform name onto one of the known names.
// Exact matches (after normalization) and aliases win, otherwise the most similar
// known name is used when it passes ResolveThreshold. If nothing matches the
// normalized name is returned as is.
func ResolvePlatform(name string, known []string) Resolution {
	key := textutil.NormalizeKey(name)
	for _, k := range known {
		if k == key {
			return Resolution{Platform: k, Similarity: 1}
		}
	}
	if alias, ok := platformAliases[key]; ok {
		return Resolution{Platform: alias, Similarity: 1}
	}

	best := Resolution{Platform: key}
	for _, k := range known {
		similarity := matchr.JaroWinkler(key, k, false)
		if similarity > best.Similarity {
			best = Resolution{Platform: k, Similarity: similarity, Implicit: true}
		}
	}
	if best.Similarity < ResolveThreshold {
		return Resolution{Platform: key, Similarity: best.Similarity}
	}
	return best
}
