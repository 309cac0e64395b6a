package roster

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// colorNames maps the standard lobby palette to its display names.
var colorNames = map[string]string{
	"B4141E": "Red",
	"0042FF": "Blue",
	"1CA7EA": "Teal",
	"EBE129": "Yellow",
	"540081": "Purple",
	"FE8A0E": "Orange",
	"168000": "Green",
	"CCA6FC": "Light Pink",
	"1F01C9": "Violet",
	"525494": "Light Grey",
	"106246": "Dark Green",
	"4E2A04": "Brown",
	"96FF91": "Light Green",
	"232323": "Dark Grey",
	"E55BB0": "Pink",
	"FFFFFF": "White",
	"000000": "Black",
}

// Color is an RGBA lobby color.
type Color struct {
	R, G, B, A uint8
}

func (c Color) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// String returns the palette name when the color is a standard one,
// otherwise "#RRGGBB".
func (c Color) String() string {
	if name, ok := colorNames[c.Hex()]; ok {
		return name
	}
	return "#" + c.Hex()
}

func (c Color) MarshalJSON() ([]byte, error) { return json.Marshal(c.Hex()) }

func (c *Color) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*c = Color{}
		return nil
	}
	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("color %q: want RRGGBB or RRGGBBAA hex", s)
	}
	n, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return fmt.Errorf("color %q: %w", s, err)
	}
	if len(s) == 6 {
		n = n<<8 | 0xFF
	}
	*c = Color{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}
	return nil
}
