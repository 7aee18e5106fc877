package scenario

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/simphys/pkg/physics"
)

// Vec is a vector as written in scenario files. Both the mapping form
// {x: 1, y: 2} and the short sequence form [1, 2] are accepted.
type Vec struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func VecOf(v physics.Vector2) Vec { return Vec{X: v.X, Y: v.Y} }

func (v Vec) Vector2() physics.Vector2 { return physics.Vec2(v.X, v.Y) }

func (v Vec) String() string { return fmt.Sprintf("(%g, %g)", v.X, v.Y) }

func (v *Vec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var pair []float64
		if err := node.Decode(&pair); err != nil {
			return err
		}
		return v.fromPair(pair, node.Line)
	case yaml.MappingNode:
		type plain Vec
		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}
		*v = Vec(p)
		return nil
	default:
		return fmt.Errorf("line %d: vector must be [x, y] or {x, y}", node.Line)
	}
}

func (v *Vec) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err == nil {
		return v.fromPair(pair, 0)
	}
	type plain Vec
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*v = Vec(p)
	return nil
}

func (v *Vec) fromPair(pair []float64, line int) error {
	if len(pair) != 2 {
		if line > 0 {
			return fmt.Errorf("line %d: vector needs 2 components, got %d", line, len(pair))
		}
		return fmt.Errorf("vector needs 2 components, got %d", len(pair))
	}
	v.X, v.Y = pair[0], pair[1]
	return nil
}
