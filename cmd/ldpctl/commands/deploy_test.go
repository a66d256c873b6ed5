package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeploy(t *testing.T) {
	cmd := Deploy()

	require.NotNil(t, cmd)
	assert.Equal(t, "deploy", cmd.Use)
	assert.Equal(t, "Deploy or update the data platform", cmd.Short)
}

func TestDeploy_ConfigFlag(t *testing.T) {
	cmd := Deploy()

	flag := cmd.Flags().Lookup("config")
	require.NotNil(t, flag, "config flag should exist")
	assert.Equal(t, "c", flag.Shorthand)
	assert.Equal(t, "", flag.DefValue)
	assert.Equal(t, "Path to configuration file (default: ldpctl.yaml)", flag.Usage)
}

func TestDeploy_ConvergeFlag(t *testing.T) {
	cmd := Deploy()

	flag := cmd.Flags().Lookup("converge")
	require.NotNil(t, flag, "converge flag should exist")
	assert.Equal(t, "false", flag.DefValue)
}

func TestDeploy_PlainFlag(t *testing.T) {
	cmd := Deploy()

	flag := cmd.Flags().Lookup("plain")
	require.NotNil(t, flag, "plain flag should exist")
	assert.Equal(t, "false", flag.DefValue)
}

func TestDeploy_TimeoutScaleFlag(t *testing.T) {
	cmd := Deploy()

	flag := cmd.Flags().Lookup("timeout-scale")
	require.NotNil(t, flag, "timeout-scale flag should exist")
	assert.Equal(t, "1", flag.DefValue)
}

func TestDeploy_RunE(t *testing.T) {
	cmd := Deploy()
	assert.NotNil(t, cmd.RunE, "Deploy command should have RunE function")
}
