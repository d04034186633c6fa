package rankings

import (
	"influence-backend/lib/influence"
	"influence-backend/lib/scorestore"
)

const ServiceName = "influence.v1.RankingsService"

const (
	GetRankingsProcedure       = "/" + ServiceName + "/GetRankings"
	GetCreatorHistoryProcedure = "/" + ServiceName + "/GetCreatorHistory"
	GetCreatorSamplesProcedure = "/" + ServiceName + "/GetCreatorSamples"
)

type GetRankingsRequest struct {
	// Date defaults to the latest date with scores.
	Date string `json:"date"`
	// Region filters the rankings, empty ranks every creator.
	Region string `json:"region"`
}

type GetRankingsResponse struct {
	Date     string             `json:"date"`
	Rankings []scorestore.Score `json:"rankings"`
}

type GetCreatorHistoryRequest struct {
	Key   string `json:"key"`
	Limit int    `json:"limit"`
}

type GetCreatorHistoryResponse struct {
	Scores []scorestore.Score `json:"scores"`
}

type GetCreatorSamplesRequest struct {
	Key  string `json:"key"`
	Date string `json:"date"`
}

type GetCreatorSamplesResponse struct {
	Date    string                              `json:"date"`
	Samples map[string]influence.PlatformSample `json:"samples"`
}
