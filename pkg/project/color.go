package project

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	errs "github.com/matzehuels/kitbash/pkg/errors"
)

// Transparent is the default background: every channel zero.
var Transparent = color.NRGBA{}

// ParseColor parses "#RRGGBB", "#RGB" or "#RRGGBBAA" (straight alpha), or the
// keyword "transparent". Colours without an alpha component are opaque.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "transparent") {
		return Transparent, nil
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}

	alpha := uint8(255)
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return color.NRGBA{}, errs.New(errs.ErrCodeInvalidColor, "invalid alpha in colour %q", s)
		}
		alpha = uint8(a)
		s = s[:7]
	}

	if len(s) != 4 && len(s) != 7 {
		return color.NRGBA{}, errs.New(errs.ErrCodeInvalidColor, "invalid colour %q: want #RGB, #RRGGBB or #RRGGBBAA", s)
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, errs.Wrap(errs.ErrCodeInvalidColor, err, "invalid colour %q", s)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

// FormatColor renders c as "#rrggbbaa", or "#rrggbb" when opaque.
func FormatColor(c color.NRGBA) string {
	hex := colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Hex()
	if c.A == 255 {
		return hex
	}
	return fmt.Sprintf("%s%02x", hex, c.A)
}
