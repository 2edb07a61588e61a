package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowkit/agentcore/telemetry"
)

func TestOrchestratorRunCompletesWhenAllStepsSucceed(t *testing.T) {
	var order []string
	step := func(name string) SagaStep {
		return FuncStep{
			StepName: name,
			ForwardFn: func(context.Context, *SagaContext) (any, error) {
				order = append(order, "forward:"+name)
				return name + "-result", nil
			},
			CompFn: func(_ context.Context, _ *SagaContext, storedResult any) error {
				order = append(order, "compensate:"+name+":"+storedResult.(string))
				return nil
			},
		}
	}
	orch := New(telemetry.Noop(), step("a"), step("b"), step("c"))
	result := orch.Run(context.Background(), NewSagaContext())

	require.Equal(t, ResultCompleted, result.Kind)
	require.Equal(t, []string{"forward:a", "forward:b", "forward:c"}, order)
	require.Equal(t, "c-result", result.FinalResult)
	require.Len(t, result.Context.History, 3)
}

func TestOrchestratorCompensatesInReverseOrderWithStoredResult(t *testing.T) {
	var order []string
	ok := func(name string) SagaStep {
		return FuncStep{
			StepName: name,
			ForwardFn: func(context.Context, *SagaContext) (any, error) {
				order = append(order, "forward:"+name)
				return name + "-result", nil
			},
			CompFn: func(_ context.Context, _ *SagaContext, storedResult any) error {
				order = append(order, "compensate:"+name+":"+storedResult.(string))
				return nil
			},
		}
	}
	failing := FuncStep{
		StepName:  "c",
		ForwardFn: func(context.Context, *SagaContext) (any, error) { return nil, errors.New("boom") },
	}
	orch := New(telemetry.Noop(), ok("a"), ok("b"), failing)
	result := orch.Run(context.Background(), NewSagaContext())

	require.Equal(t, ResultCompensated, result.Kind)
	require.Equal(t, "c", result.FailedStep)
	require.Equal(t, []string{"b", "a"}, result.CompensatedSteps)
	require.Equal(t,
		[]string{"forward:a", "forward:b", "compensate:b:b-result", "compensate:a:a-result"},
		order)
}

func TestOrchestratorReturnsFailedWhenCompensationAlsoFails(t *testing.T) {
	ok := FuncStep{
		StepName:  "a",
		ForwardFn: func(context.Context, *SagaContext) (any, error) { return "a-result", nil },
		CompFn: func(_ context.Context, _ *SagaContext, _ any) error {
			return errors.New("compensation broke")
		},
	}
	failing := FuncStep{
		StepName:  "b",
		ForwardFn: func(context.Context, *SagaContext) (any, error) { return nil, errors.New("forward broke") },
	}
	orch := New(telemetry.Noop(), ok, failing)
	result := orch.Run(context.Background(), NewSagaContext())

	require.Equal(t, ResultFailed, result.Kind)
	require.Contains(t, result.CompensationErrs, "a")
	require.Empty(t, result.CompensatedSteps)
}

func TestOrchestratorRetriesForwardUpToMaxRetriesBeforeSucceeding(t *testing.T) {
	attempts := 0
	flaky := FuncStep{
		StepName: "flaky",
		Retries:  2,
		ForwardFn: func(context.Context, *SagaContext) (any, error) {
			attempts++
			if attempts < 3 {
				return nil, errors.New("transient")
			}
			return "ok", nil
		},
	}
	orch := New(telemetry.Noop(), flaky)
	result := orch.Run(context.Background(), NewSagaContext())

	require.Equal(t, ResultCompleted, result.Kind)
	require.Equal(t, 3, attempts)
}

func TestOrchestratorStopsRetryingAfterExhaustingBudgetAndCompensates(t *testing.T) {
	attempts := 0
	alwaysFails := FuncStep{
		StepName: "never-works",
		Retries:  1,
		ForwardFn: func(context.Context, *SagaContext) (any, error) {
			attempts++
			return nil, errors.New("persistent failure")
		},
	}
	orch := New(telemetry.Noop(), alwaysFails)
	result := orch.Run(context.Background(), NewSagaContext())

	require.Equal(t, 2, attempts, "expected exactly 1+max_retries attempts")
	require.Equal(t, ResultCompensated, result.Kind)
}

func TestOrchestratorForwardRetryAbortsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	step := FuncStep{
		StepName: "cancel-me",
		Retries:  5,
		ForwardFn: func(context.Context, *SagaContext) (any, error) {
			attempts++
			cancel()
			return nil, errors.New("transient")
		},
	}
	orch := New(telemetry.Noop(), step)
	result := orch.Run(ctx, NewSagaContext())

	require.Equal(t, 1, attempts)
	require.Equal(t, ResultCompensated, result.Kind)
	require.ErrorIs(t, result.ForwardErr, context.Canceled)
}
