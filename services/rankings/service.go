// Package rankings serves stored scores over connect.
package rankings

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"influence-backend/lib/scorestore"

	"connectrpc.com/connect"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/rankings")

type Service struct {
	store scorestore.Store
}

func NewService(store scorestore.Store) Service {
	return Service{store: store}
}

func toConnectError(err error) error {
	if errors.Is(err, scorestore.ErrNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

func (s Service) GetRankings(ctx context.Context, req *connect.Request[GetRankingsRequest]) (*connect.Response[GetRankingsResponse], error) {
	ctx, span := tracer.Start(ctx, "GetRankings")
	defer span.End()

	date := strings.TrimSpace(req.Msg.Date)
	region := strings.ToUpper(strings.TrimSpace(req.Msg.Region))
	span.SetAttributes(
		attribute.String("date", date),
		attribute.String("region", region),
	)

	if date == "" {
		latest, err := s.store.LatestDate(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, toConnectError(err)
		}
		date = latest
	}
	scores, err := s.store.Rankings(ctx, date, region)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, toConnectError(err)
	}
	if scores == nil {
		scores = []scorestore.Score{}
	}
	return connect.NewResponse(&GetRankingsResponse{Date: date, Rankings: scores}), nil
}

func (s Service) GetCreatorHistory(ctx context.Context, req *connect.Request[GetCreatorHistoryRequest]) (*connect.Response[GetCreatorHistoryResponse], error) {
	ctx, span := tracer.Start(ctx, "GetCreatorHistory")
	defer span.End()

	key := strings.TrimSpace(req.Msg.Key)
	if key == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("key is required"))
	}
	span.SetAttributes(attribute.String("key", key))

	scores, err := s.store.History(ctx, key, req.Msg.Limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetCreatorHistoryResponse{Scores: scores}), nil
}

func (s Service) GetCreatorSamples(ctx context.Context, req *connect.Request[GetCreatorSamplesRequest]) (*connect.Response[GetCreatorSamplesResponse], error) {
	ctx, span := tracer.Start(ctx, "GetCreatorSamples")
	defer span.End()

	key := strings.TrimSpace(req.Msg.Key)
	if key == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("key is required"))
	}
	date := strings.TrimSpace(req.Msg.Date)
	if date == "" {
		latest, err := s.store.LatestDate(ctx)
		if err != nil {
			return nil, toConnectError(err)
		}
		date = latest
	}
	span.SetAttributes(
		attribute.String("key", key),
		attribute.String("date", date),
	)

	samples, err := s.store.Samples(ctx, key, date)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetCreatorSamplesResponse{Date: date, Samples: samples}), nil
}

// NewHandler mounts the service, the returned path is the prefix to register on
// a mux.
func NewHandler(svc Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)

	mux := http.NewServeMux()
	mux.Handle(GetRankingsProcedure, connect.NewUnaryHandler(GetRankingsProcedure, svc.GetRankings, opts...))
	mux.Handle(GetCreatorHistoryProcedure, connect.NewUnaryHandler(GetCreatorHistoryProcedure, svc.GetCreatorHistory, opts...))
	mux.Handle(GetCreatorSamplesProcedure, connect.NewUnaryHandler(GetCreatorSamplesProcedure, svc.GetCreatorSamples, opts...))
	return "/" + ServiceName + "/", mux
}
