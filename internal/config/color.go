package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Color is a 24-bit RGB color. In YAML it may be written as an integer,
// "0xRRGGBB" or "#RRGGBB".
type Color uint32

// RGB returns the color components in [0,1].
func (c Color) RGB() [3]float32 {
	return [3]float32{
		float32((c>>16)&0xff) / 255,
		float32((c>>8)&0xff) / 255,
		float32(c&0xff) / 255,
	}
}

// String formats the color as #rrggbb.
func (c Color) String() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xffffff)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Color) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: color must be a scalar", node.Line)
	}
	s := strings.TrimSpace(node.Value)
	base := 0
	if strings.HasPrefix(s, "#") {
		s = s[1:]
		base = 16
	}
	v, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return fmt.Errorf("line %d: invalid color %q", node.Line, node.Value)
	}
	if v > 0xffffff {
		return fmt.Errorf("line %d: color %q out of range", node.Line, node.Value)
	}
	*c = Color(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (c Color) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}
