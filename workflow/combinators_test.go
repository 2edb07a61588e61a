package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func setData(key string, value any) Step {
	return NewStep("set_"+key, func(_ context.Context, wc *Context) (Decision, error) {
		wc.Data[key] = value
		return Continue(), nil
	})
}

func TestThenStopsOnFirstNonContinue(t *testing.T) {
	then := Then("seq", setData("a", 1), respondStep("done"), setData("b", 2))
	wc := NewContext(10)
	dec, err := then.Execute(context.Background(), wc)
	require.NoError(t, err)
	require.Equal(t, DecisionRespond, dec.Kind)
	require.Equal(t, 1, wc.Data["a"])
	require.Nil(t, wc.Data["b"])
}

func TestParallelMergesDeterministicallyByChildIndex(t *testing.T) {
	children := []Step{
		setData("key", "first"),
		setData("key", "second"),
		setData("key", "third"),
	}
	par := Parallel("fanout", children...)
	wc := NewContext(10)
	dec, err := par.Execute(context.Background(), wc)
	require.NoError(t, err)
	require.Equal(t, DecisionContinue, dec.Kind)
	// Children run concurrently but merge in declared order, so the last
	// declared child's write always wins regardless of goroutine scheduling.
	require.Equal(t, "third", wc.Data["key"])
}

func appendMessage(text string) Step {
	return NewStep("append_"+text, func(_ context.Context, wc *Context) (Decision, error) {
		wc.AppendMessage(Message{Role: RoleAssistant, Content: text})
		return Continue(), nil
	})
}

func TestParallelConcatenatesMessagesFromEveryChildInChildIndexOrder(t *testing.T) {
	children := []Step{
		appendMessage("from-0"),
		appendMessage("from-1"),
		appendMessage("from-2"),
	}
	par := Parallel("fanout", children...)
	wc := NewContext(10)
	wc.AppendMessage(Message{Role: RoleSystem, Content: "seed"})

	_, err := par.Execute(context.Background(), wc)
	require.NoError(t, err)

	require.Len(t, wc.Messages, 4, "seed message plus one appended message per child")
	var appended []string
	for _, m := range wc.Messages[1:] {
		appended = append(appended, m.Content)
	}
	require.Equal(t, []string{"from-0", "from-1", "from-2"}, appended)
}

func TestBranchSelectsStepByPredicate(t *testing.T) {
	branch := Branch("choose",
		func(wc *Context) bool { return wc.Data["flag"] == true },
		respondStep("yes"),
		respondStep("no"),
	)
	wc := NewContext(10)
	wc.Data["flag"] = true
	dec, err := branch.Execute(context.Background(), wc)
	require.NoError(t, err)
	require.Equal(t, "yes", dec.Text)
}

func TestForEachIteratesOverDataSlice(t *testing.T) {
	var seen []any
	collect := NewStep("collect", func(_ context.Context, wc *Context) (Decision, error) {
		seen = append(seen, wc.Data["item"])
		return Continue(), nil
	})
	each := ForEach("each", "items", "item", collect)
	wc := NewContext(10)
	wc.Data["items"] = []any{"a", "b", "c"}
	_, err := each.Execute(context.Background(), wc)
	require.NoError(t, err)
	require.Equal(t, []any{"a", "b", "c"}, seen)
}
