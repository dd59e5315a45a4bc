package sweepd

import (
	"context"
	"encoding/json"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/GoSim-25-26J-441/hpsweep/pkg/logger"
	"github.com/GoSim-25-26J-441/hpsweep/pkg/models"
)

// SweepGRPCServer implements SweepServiceServer on top of a RunStore
type SweepGRPCServer struct {
	store    *RunStore
	Executor *Executor
}

var _ SweepServiceServer = (*SweepGRPCServer)(nil)

func NewSweepGRPCServer(store *RunStore, executor *Executor) *SweepGRPCServer {
	return &SweepGRPCServer{
		store:    store,
		Executor: executor,
	}
}

// CreateSweep expects {experiment_yaml, sweep_id?, callback_url?, callback_secret?}
func (s *SweepGRPCServer) CreateSweep(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	input := SweepInput{
		ExperimentYAML: stringField(req, "experiment_yaml"),
		CallbackURL:    stringField(req, "callback_url"),
		CallbackSecret: stringField(req, "callback_secret"),
	}
	if input.ExperimentYAML == "" {
		return nil, status.Error(codes.InvalidArgument, "experiment_yaml is required")
	}

	sw, err := s.store.Create(stringField(req, "sweep_id"), input)
	if err != nil {
		return nil, grpcError(err)
	}
	logger.Info("sweep created", "sweep_id", sw.ID)
	return sweepResponse(sw)
}

func (s *SweepGRPCServer) StartSweep(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(req, "sweep_id")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, ErrSweepIDMissing.Error())
	}
	sw, err := s.Executor.Start(id)
	if err != nil {
		return nil, grpcError(err)
	}
	logger.Info("sweep started (executor)", "sweep_id", id)
	return sweepResponse(sw)
}

func (s *SweepGRPCServer) StopSweep(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(req, "sweep_id")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, ErrSweepIDMissing.Error())
	}
	sw, err := s.Executor.Stop(id)
	if err != nil {
		return nil, grpcError(err)
	}
	logger.Info("sweep cancelled", "sweep_id", id)
	return sweepResponse(sw)
}

func (s *SweepGRPCServer) GetSweep(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(req, "sweep_id")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, ErrSweepIDMissing.Error())
	}
	sw, ok := s.store.Get(id)
	if !ok {
		return nil, status.Error(codes.NotFound, "sweep not found")
	}
	return sweepResponse(sw)
}

func grpcError(err error) error {
	switch {
	case errors.Is(err, ErrSweepNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrSweepExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, ErrSweepTerminal):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrSweepIDMissing), errors.Is(err, ErrInvalidSweepID), errors.Is(err, ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func stringField(req *structpb.Struct, name string) string {
	if req == nil {
		return ""
	}
	return req.GetFields()[name].GetStringValue()
}

// sweepResponse wraps a sweep as {"sweep": {...}} using its JSON form
func sweepResponse(sw models.Sweep) (*structpb.Struct, error) {
	raw, err := json.Marshal(sw)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out, err := structpb.NewStruct(map[string]any{"sweep": fields})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
