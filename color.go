package shaper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ColorKind tags the variant held by a Color.
type ColorKind uint8

const (
	ColorNone ColorKind = iota
	ColorIndexed
	ColorRGB
)

func (k ColorKind) String() string {
	switch k {
	case ColorNone:
		return "none"
	case ColorIndexed:
		return "indexed"
	case ColorRGB:
		return "rgb"
	default:
		return fmt.Sprintf("ColorKind(%d)", int(k))
	}
}

// Color is an optional display override: none, a palette index or an RGB triple.
// The zero value is NoColor.
type Color struct {
	kind  ColorKind
	index int
	rgb   [3]float64
}

func NoColor() Color { return Color{} }

func Indexed(index int) Color { return Color{kind: ColorIndexed, index: index} }

func RGB(r, g, b float64) Color { return Color{kind: ColorRGB, rgb: [3]float64{r, g, b}} }

// RGB255 converts 8-bit channels to an RGB color.
func RGB255(r, g, b uint8) Color {
	return RGB(float64(r)/255.0, float64(g)/255.0, float64(b)/255.0)
}

func (c Color) Kind() ColorKind { return c.kind }

func (c Color) IsNone() bool { return c.kind == ColorNone }

// Index returns the palette index and whether c is indexed.
func (c Color) Index() (int, bool) { return c.index, c.kind == ColorIndexed }

// Triple returns the RGB components and whether c is an RGB color.
func (c Color) Triple() ([3]float64, bool) { return c.rgb, c.kind == ColorRGB }

// Equal compares kind and the fields that kind uses.
func (c Color) Equal(o Color) bool {
	if c.kind != o.kind {
		return false
	}
	switch c.kind {
	case ColorIndexed:
		return c.index == o.index
	case ColorRGB:
		return c.rgb == o.rgb
	}
	return true
}

func (c Color) String() string {
	switch c.kind {
	case ColorIndexed:
		return strconv.Itoa(c.index)
	case ColorRGB:
		return fmt.Sprintf("%g,%g,%g", c.rgb[0], c.rgb[1], c.rgb[2])
	default:
		return "none"
	}
}

func (c Color) validate() error {
	switch c.kind {
	case ColorNone:
		return nil
	case ColorIndexed:
		if c.index < 0 {
			return fmt.Errorf("color index %d is negative", c.index)
		}
	case ColorRGB:
		for _, v := range c.rgb {
			if !(v >= 0 && v <= 1) {
				return fmt.Errorf("rgb color %v outside [0,1]", c.rgb)
			}
		}
	default:
		return fmt.Errorf("unknown color kind %v", c.kind)
	}
	return nil
}

// ParseColor reads "none", an integer palette index, "r,g,b" floats in [0,1]
// or a "#rrggbb" hex triple.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || strings.EqualFold(s, "none"):
		return NoColor(), nil
	case strings.HasPrefix(s, "#"):
		if len(s) != 7 {
			return Color{}, fmt.Errorf("invalid hex color %q", s)
		}
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err != nil {
			return Color{}, fmt.Errorf("invalid hex color %q: %w", s, err)
		}
		return RGB255(uint8(v>>16), uint8(v>>8), uint8(v)), nil
	case strings.Contains(s, ","):
		parts := strings.Split(s, ",")
		if len(parts) != 3 {
			return Color{}, fmt.Errorf("rgb color %q needs 3 components", s)
		}
		var rgb [3]float64
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return Color{}, fmt.Errorf("invalid rgb component %q: %w", p, err)
			}
			rgb[i] = v
		}
		c := RGB(rgb[0], rgb[1], rgb[2])
		return c, c.validate()
	default:
		i, err := strconv.Atoi(s)
		if err != nil {
			return Color{}, fmt.Errorf("invalid color %q", s)
		}
		c := Indexed(i)
		return c, c.validate()
	}
}

// MarshalJSON writes null, an integer or a 3-number array.
func (c Color) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case ColorIndexed:
		return json.Marshal(c.index)
	case ColorRGB:
		return json.Marshal(c.rgb)
	default:
		return []byte("null"), nil
	}
}

func (c *Color) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = NoColor()
	case len(data) > 0 && data[0] == '[':
		var rgb []float64
		if err := json.Unmarshal(data, &rgb); err != nil {
			return err
		}
		if len(rgb) != 3 {
			return fmt.Errorf("rgb color needs 3 components, got %d", len(rgb))
		}
		*c = RGB(rgb[0], rgb[1], rgb[2])
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("color must be null, an integer or an rgb array: %w", err)
		}
		if f != float64(int(f)) {
			return fmt.Errorf("color index %v is not an integer", f)
		}
		*c = Indexed(int(f))
	}
	return nil
}

// OverrideState mirrors the host's override attributes on one shape.
type OverrideState struct {
	Enabled bool
	RGBMode bool
	RGB     [3]float64
	Index   int
}

// Encode maps a color to override attributes. Unused numeric fields are zeroed.
func Encode(c Color) OverrideState {
	switch c.kind {
	case ColorIndexed:
		return OverrideState{Enabled: true, Index: c.index}
	case ColorRGB:
		return OverrideState{Enabled: true, RGBMode: true, RGB: c.rgb}
	default:
		return OverrideState{}
	}
}

// Decode maps override attributes back to a color; a disabled override is NoColor.
func Decode(st OverrideState) Color {
	if !st.Enabled {
		return NoColor()
	}
	if st.RGBMode {
		return RGB(st.RGB[0], st.RGB[1], st.RGB[2])
	}
	return Indexed(st.Index)
}
