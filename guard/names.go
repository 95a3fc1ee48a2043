package guard

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Names is a route requirement declared either as a single name or as a list. A single
// name must be held, a list needs any one of its names. The zero value is undeclared.
type Names struct {
	values []string
	list   bool
}

// One declares a single required name. An empty name leaves the requirement undeclared.
func One(name string) Names {
	if name == "" {
		return Names{}
	}
	return Names{values: []string{name}}
}

// AnyOf declares a list requirement. An empty list is declared and can never be met.
func AnyOf(names ...string) Names {
	if names == nil {
		names = []string{}
	}
	return Names{values: names, list: true}
}

func (n Names) Declared() bool {
	return n.list || len(n.values) > 0
}

// IsZero reports an undeclared requirement.
func (n Names) IsZero() bool {
	return !n.Declared()
}

func (n Names) IsList() bool {
	return n.list
}

func (n Names) Values() []string {
	return append([]string(nil), n.values...)
}

// Satisfied checks the requirement with single for one name and anyOf for a list.
func (n Names) Satisfied(single func(string) bool, anyOf func([]string) bool) bool {
	if n.list {
		return anyOf(n.Values())
	}
	if len(n.values) == 0 {
		return true
	}
	return single(n.values[0])
}

func (n Names) String() string {
	if n.list {
		return fmt.Sprintf("%v", n.values)
	}
	if len(n.values) == 0 {
		return ""
	}
	return n.values[0]
}

func (n *Names) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*n = Names{}
			return nil
		}
		*n = One(value.Value)
		return nil
	case yaml.SequenceNode:
		names := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("line %d: requirement list items must be names, got %q", item.Line, item.Value)
			}
			names = append(names, item.Value)
		}
		*n = AnyOf(names...)
		return nil
	}
	return fmt.Errorf("line %d: requirement must be a name or a list of names", value.Line)
}

func (n Names) MarshalYAML() (any, error) {
	if n.list {
		return n.Values(), nil
	}
	if len(n.values) == 0 {
		return nil, nil
	}
	return n.values[0], nil
}

func (n *Names) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*n = Names{}
	case string:
		*n = One(t)
	case []any:
		names := make([]string, 0, len(t))
		for i, item := range t {
			name, ok := item.(string)
			if !ok {
				return fmt.Errorf("requirement list item %d must be a name, got %T", i, item)
			}
			names = append(names, name)
		}
		*n = AnyOf(names...)
	default:
		return fmt.Errorf("requirement must be a name or a list of names, got %T", v)
	}
	return nil
}

func (n Names) MarshalJSON() ([]byte, error) {
	v, _ := n.MarshalYAML()
	return json.Marshal(v)
}
