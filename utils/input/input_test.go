package input_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/utils/config"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/utils/input"
)

const scenario = `
objects:
  - type: sign
    zone: corner_se
  - type: light
    position: [-5, 0, -5]
  - id: 20
    type: car
    position: [1, 0, 24]
    direction: [0, 0, -1]
    goal: [1, 0, -24]
  - type: car
    zone: start_east
    goal_zone: goal_south
`

func TestParse(t *testing.T) {
	s, err := input.Parse([]byte(scenario))
	require.NoError(t, err)
	require.Len(t, s.Objects, 4)

	assert.Equal(t, input.TypeSign, s.Objects[0].Type)
	assert.Equal(t, "corner_se", s.Objects[0].Zone)

	p, err := s.Objects[1].Position.Vec3()
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{-5, 0, -5}, *p)

	car := s.Objects[2]
	assert.Equal(t, int32(20), car.ID)
	g, err := car.Goal.Vec3()
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{1, 0, -24}, *g)

	d, err := s.Objects[3].Direction.Vec3()
	require.NoError(t, err)
	assert.Nil(t, d)
	assert.Equal(t, "goal_south", s.Objects[3].GoalZone)
}

func TestParseRejects(t *testing.T) {
	_, err := input.Parse([]byte("objects:\n  - type: car\n    colour: red\n"))
	assert.Error(t, err)

	s, err := input.Parse([]byte("objects:\n  - type: car\n    position: [1, 2]\n"))
	require.NoError(t, err)
	_, err = s.Objects[0].Position.Vec3()
	assert.ErrorIs(t, err, input.ErrBadPoint)
}

func TestInitFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenario), 0o644))

	res := input.Init(config.Config{Input: config.Input{Scenario: &config.InputPath{File: path}}})
	assert.Len(t, res.Scenario.Objects, 4)

	res = input.Init(config.Config{})
	assert.Empty(t, res.Scenario.Objects)

	assert.Panics(t, func() {
		input.Init(config.Config{Input: config.Input{Scenario: &config.InputPath{File: filepath.Join(t.TempDir(), "missing.yaml")}}})
	})
}
