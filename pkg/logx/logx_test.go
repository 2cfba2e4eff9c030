package logx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDebugEnabledForRespectsDomainFilter(t *testing.T) {
	dbgCfg = &debugConfig{enabled: true, domains: map[string]bool{"planner": true}}
	require.True(t, debugEnabledFor("planner"))
	require.False(t, debugEnabledFor("executor"))
}

func TestDebugDisabledWhenFlagOff(t *testing.T) {
	dbgCfg = &debugConfig{enabled: false}
	require.False(t, debugEnabledFor("planner"))
}

func TestInitReadsEnv(t *testing.T) {
	t.Setenv("DEBUG", "1")
	t.Setenv("DEBUG_DOMAINS", "validator, router")
	dbgCfg = &debugConfig{}
	loadDebugConfig()
	require.True(t, debugEnabledFor("validator"))
	require.False(t, debugEnabledFor("planner"))
}
