package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type echoTool struct{ name string }

func (e *echoTool) Name() string                      { return e.name }
func (e *echoTool) Description() string               { return "echoes its args" }
func (e *echoTool) InputSchema() map[string]any        { return map[string]any{"type": "object"} }
func (e *echoTool) Execute(_ context.Context, args map[string]any) (Result, error) {
	return Result{Content: args["text"].(string)}, nil
}

func TestStaticRegistryListToolsReturnsAllRegistered(t *testing.T) {
	r := NewStaticRegistry(&echoTool{name: "echo"}, &echoTool{name: "shout"})
	list, err := r.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestStaticRegistryExecuteDispatchesByName(t *testing.T) {
	r := NewStaticRegistry(&echoTool{name: "echo"})
	res, err := r.Execute(context.Background(), "echo", map[string]any{"text": "hi"})
	require.NoError(t, err)
	require.Equal(t, "hi", res.Content)
}

func TestStaticRegistryExecuteUnknownToolErrors(t *testing.T) {
	r := NewStaticRegistry()
	_, err := r.Execute(context.Background(), "missing", nil)
	require.Error(t, err)
	var unknown *UnknownToolError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "missing", unknown.Name)
}
