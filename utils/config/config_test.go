package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/signalctl/utils/config"
)

func validConfig() config.Config {
	c := config.Default()
	c.Junctions = []config.Junction{{
		ID: "J1",
		Phases: []config.Phase{
			{Green: []string{"in_ns"}},
			{Green: []string{"in_ew"}},
		},
		Lanes: []config.Lane{
			{ID: "in_ns", Capacity: 1, Downstream: []string{"out"}},
			{ID: "in_ew", Capacity: 1, Downstream: []string{"out"}},
			{ID: "out", Capacity: 1},
		},
	}}
	return c
}

func TestDefaultWithTopologyIsValid(t *testing.T) {
	_, err := config.NewRuntimeConfig(validConfig())
	require.NoError(t, err)
}

func TestValidateRejectsBadTiming(t *testing.T) {
	c := validConfig()
	c.Signal.MinGreen = 0
	assert.ErrorContains(t, c.Validate(), "min_green")

	c = validConfig()
	c.Signal.Yellow = -1
	assert.ErrorContains(t, c.Validate(), "yellow")

	c = validConfig()
	c.Signal.MaxGreen = 5 // 低于min_green
	assert.ErrorContains(t, c.Validate(), "max_green")

	c = validConfig()
	c.Control.Step.Interval = 0
	assert.ErrorContains(t, c.Validate(), "interval")
}

func TestValidateRejectsBadTraining(t *testing.T) {
	c := validConfig()
	c.Training.Gamma = 1.0
	assert.ErrorContains(t, c.Validate(), "gamma")

	c = validConfig()
	c.Training.BufferSize = c.Training.BatchSize - 1
	assert.ErrorContains(t, c.Validate(), "buffer_size")

	c = validConfig()
	c.Training.EpsilonDecay = 0
	assert.ErrorContains(t, c.Validate(), "epsilon_decay")
}

func TestValidateRejectsBadTopology(t *testing.T) {
	c := validConfig()
	c.Junctions[0].Phases = c.Junctions[0].Phases[:1]
	assert.ErrorContains(t, c.Validate(), "at least 2 phases")

	c = validConfig()
	c.Junctions[0].Phases[0].Green = []string{"nonexistent"}
	assert.ErrorContains(t, c.Validate(), "unknown lane")

	c = validConfig()
	c.Junctions[0].Lanes[0].Downstream = []string{"nonexistent"}
	assert.ErrorContains(t, c.Validate(), "unknown downstream")

	c = validConfig()
	c.Junctions = nil
	assert.ErrorContains(t, c.Validate(), "at least one junction")
}

func TestValidateRejectsUnknownPolicy(t *testing.T) {
	c := validConfig()
	c.Control.Policy = "webster"
	assert.ErrorContains(t, c.Validate(), "unknown policy")
}

func TestValidateDQNRequiresHomogeneousPhases(t *testing.T) {
	c := validConfig()
	c.Control.Policy = config.PolicyDQN
	second := c.Junctions[0]
	second.ID = "J2"
	second.Phases = append([]config.Phase{}, second.Phases...)
	second.Phases = append(second.Phases, config.Phase{Green: []string{"in_ns"}})
	c.Junctions = append(c.Junctions, second)
	assert.ErrorContains(t, c.Validate(), "homogeneous phase counts")
}
