package booking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDOTLocalPipeline(t *testing.T) {
	dot, err := DOT(ModeLocal)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(dot, "digraph local_pipeline {"))
	for _, node := range []string{"select_provider", "negotiate_slots", "validate_calendar", "reserve_and_book", "finalize"} {
		require.Contains(t, dot, "  "+node+";")
	}
	require.Contains(t, dot, "select_provider -> negotiate_slots;")
	require.Contains(t, dot, "finalize -> end;")
	require.NotContains(t, dot, "tools")
}

func TestDOTAgentPipelineHasToolCycle(t *testing.T) {
	dot, err := DOT(ModeAgent)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(dot, "digraph agent_pipeline {"))
	require.Contains(t, dot, "agent -> tools;")
	require.Contains(t, dot, "tools -> agent;")
	require.Contains(t, dot, "create_event -> speak_user;")
	require.Contains(t, dot, "speak_user -> end;")
}

func TestDOTEmptyModeMeansLocal(t *testing.T) {
	byDefault, err := DOT("")
	require.NoError(t, err)
	local, err := DOT(ModeLocal)
	require.NoError(t, err)

	require.Equal(t, local, byDefault)
}

func TestDOTUnknownMode(t *testing.T) {
	dot, err := DOT("hybrid")

	require.Empty(t, dot)
	require.EqualError(t, err, `unknown workflow mode "hybrid"`)
}
