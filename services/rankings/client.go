package rankings

import (
	"context"

	"connectrpc.com/connect"
)

type Client struct {
	getRankings       *connect.Client[GetRankingsRequest, GetRankingsResponse]
	getCreatorHistory *connect.Client[GetCreatorHistoryRequest, GetCreatorHistoryResponse]
	getCreatorSamples *connect.Client[GetCreatorSamplesRequest, GetCreatorSamplesResponse]
}

func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) Client {
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return Client{
		getRankings:       connect.NewClient[GetRankingsRequest, GetRankingsResponse](httpClient, baseURL+GetRankingsProcedure, opts...),
		getCreatorHistory: connect.NewClient[GetCreatorHistoryRequest, GetCreatorHistoryResponse](httpClient, baseURL+GetCreatorHistoryProcedure, opts...),
		getCreatorSamples: connect.NewClient[GetCreatorSamplesRequest, GetCreatorSamplesResponse](httpClient, baseURL+GetCreatorSamplesProcedure, opts...),
	}
}

func (c Client) GetRankings(ctx context.Context, req *connect.Request[GetRankingsRequest]) (*connect.Response[GetRankingsResponse], error) {
	return c.getRankings.CallUnary(ctx, req)
}

func (c Client) GetCreatorHistory(ctx context.Context, req *connect.Request[GetCreatorHistoryRequest]) (*connect.Response[GetCreatorHistoryResponse], error) {
	return c.getCreatorHistory.CallUnary(ctx, req)
}

func (c Client) GetCreatorSamples(ctx context.Context, req *connect.Request[GetCreatorSamplesRequest]) (*connect.Response[GetCreatorSamplesResponse], error) {
	return c.getCreatorSamples.CallUnary(ctx, req)
}
