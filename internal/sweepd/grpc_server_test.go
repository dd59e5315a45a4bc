package sweepd

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/GoSim-25-26J-441/hpsweep/pkg/models"
)

func newBufconnClient(t *testing.T, store *RunStore, exec *Executor) *SweepServiceClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterSweepServiceServer(srv, NewSweepGRPCServer(store, exec))
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial bufconn: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewSweepServiceClient(conn)
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("struct: %v", err)
	}
	return s
}

func sweepField(t *testing.T, resp *structpb.Struct, name string) *structpb.Value {
	t.Helper()
	sw := resp.GetFields()["sweep"].GetStructValue()
	if sw == nil {
		t.Fatalf("response has no sweep: %v", resp)
	}
	return sw.GetFields()[name]
}

func TestGRPCSweepLifecycle(t *testing.T) {
	store, exec := newTestExecutor(t)
	client := newBufconnClient(t, store, exec)
	ctx := context.Background()

	created, err := client.CreateSweep(ctx, mustStruct(t, map[string]any{
		"sweep_id":        "grpc-1",
		"experiment_yaml": testExperimentYAML,
	}))
	if err != nil {
		t.Fatalf("CreateSweep: %v", err)
	}
	if got := sweepField(t, created, "status").GetStringValue(); got != string(models.SweepStatusPending) {
		t.Fatalf("expected pending, got %s", got)
	}

	if _, err := client.StartSweep(ctx, mustStruct(t, map[string]any{"sweep_id": "grpc-1"})); err != nil {
		t.Fatalf("StartSweep: %v", err)
	}
	waitForStatus(t, store, "grpc-1", models.SweepStatusCompleted)
	exec.Wait()

	got, err := client.GetSweep(ctx, mustStruct(t, map[string]any{"sweep_id": "grpc-1"}))
	if err != nil {
		t.Fatalf("GetSweep: %v", err)
	}
	if status := sweepField(t, got, "status").GetStringValue(); status != string(models.SweepStatusCompleted) {
		t.Fatalf("expected completed, got %s", status)
	}
	modelsList := sweepField(t, got, "models").GetListValue().GetValues()
	if len(modelsList) != 1 {
		t.Fatalf("expected one model summary, got %d", len(modelsList))
	}
	if !modelsList[0].GetStructValue().GetFields()["found"].GetBoolValue() {
		t.Fatal("expected the tree sweep to find a winner")
	}
}

func TestGRPCErrorCodes(t *testing.T) {
	store, exec := newTestExecutor(t)
	client := newBufconnClient(t, store, exec)
	ctx := context.Background()

	if _, err := client.CreateSweep(ctx, mustStruct(t, map[string]any{"sweep_id": "dup", "experiment_yaml": testExperimentYAML})); err != nil {
		t.Fatalf("CreateSweep: %v", err)
	}
	if _, err := client.StopSweep(ctx, mustStruct(t, map[string]any{"sweep_id": "dup"})); err != nil {
		t.Fatalf("StopSweep: %v", err)
	}

	tests := []struct {
		name string
		call func() error
		want codes.Code
	}{
		{"create without yaml", func() error {
			_, err := client.CreateSweep(ctx, mustStruct(t, map[string]any{}))
			return err
		}, codes.InvalidArgument},
		{"create invalid yaml", func() error {
			_, err := client.CreateSweep(ctx, mustStruct(t, map[string]any{"experiment_yaml": "models: ["}))
			return err
		}, codes.InvalidArgument},
		{"create duplicate", func() error {
			_, err := client.CreateSweep(ctx, mustStruct(t, map[string]any{"sweep_id": "dup", "experiment_yaml": testExperimentYAML}))
			return err
		}, codes.AlreadyExists},
		{"start without id", func() error {
			_, err := client.StartSweep(ctx, mustStruct(t, map[string]any{}))
			return err
		}, codes.InvalidArgument},
		{"start missing", func() error {
			_, err := client.StartSweep(ctx, mustStruct(t, map[string]any{"sweep_id": "nope"}))
			return err
		}, codes.NotFound},
		{"start cancelled", func() error {
			_, err := client.StartSweep(ctx, mustStruct(t, map[string]any{"sweep_id": "dup"}))
			return err
		}, codes.FailedPrecondition},
		{"stop missing", func() error {
			_, err := client.StopSweep(ctx, mustStruct(t, map[string]any{"sweep_id": "nope"}))
			return err
		}, codes.NotFound},
		{"get missing", func() error {
			_, err := client.GetSweep(ctx, mustStruct(t, map[string]any{"sweep_id": "nope"}))
			return err
		}, codes.NotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if status.Code(err) != tt.want {
				t.Fatalf("expected %s, got %v", tt.want, err)
			}
		})
	}
}
