package db

type Influencer struct {
	Key       string
	Name      string
	RealName  string
	Region    string
	Category  string
	Stance    string
	Direction string
	UpdatedAt int64
}

type PlatformStat struct {
	ID             int64
	InfluencerKey  string
	Platform       string
	Date           string
	Status         string
	Followers      int64
	Views          int64
	Likes          int64
	Posts          int64
	EngagementRate float64
	Note           string
	ErrorMessage   string
	DataJson       string
	CollectedAt    int64
}

type InfluenceScore struct {
	InfluencerKey   string
	Date            string
	TotalScore      float64
	BaseScore       float64
	ReachScore      float64
	CommercialScore float64
	BreakdownJson   string
	RankGlobal      int64
	RankRegion      int64
	RunID           string
	CalculatedAt    int64
}
