package theme

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

type RGB [3]uint8

type Palette struct {
	Name   string
	Colors []RGB
}

// builtinStops runs from deep purple through magenta and rose to yellow
var builtinStops = []string{
	"#140a24", "#2b1245", "#5a1f6e", "#9c2f8f", "#e0457b", "#ff7a59", "#ffd23f",
}

// Builtin returns the palette used when no .gpl file is configured
func Builtin() *Palette {
	p := &Palette{Name: "Dusk"}
	for _, hex := range builtinStops {
		c, err := colorful.Hex(hex)
		if err != nil {
			continue
		}
		p.Colors = append(p.Colors, fromColorful(c))
	}
	return p
}

// LoadGPL reads a GIMP palette file
func LoadGPL(path string) (*Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p := &Palette{}
	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if name, ok := strings.CutPrefix(line, "Name:"); ok {
			p.Name = strings.TrimSpace(name)
			continue
		}

		// Skip headers and comments
		if line == "" || line[0] == '#' || strings.HasPrefix(line, "GIMP") || strings.HasPrefix(line, "Columns") {
			continue
		}

		// First 3 fields are R G B
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		var c RGB
		ok := true
		for i := range c {
			v, err := strconv.Atoi(fields[i])
			if err != nil || v < 0 || v > 255 {
				ok = false
				break
			}
			c[i] = uint8(v)
		}
		if ok {
			p.Colors = append(p.Colors, c)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(p.Colors) == 0 {
		return nil, fmt.Errorf("no colors found in palette %s", path)
	}

	return p, nil
}

// LoadOrBuiltin loads path, falling back to the built-in palette when path is
// empty or unreadable
func LoadOrBuiltin(path string) (*Palette, error) {
	if path == "" {
		return Builtin(), nil
	}
	p, err := LoadGPL(path)
	if err != nil {
		return Builtin(), err
	}
	return p, nil
}

// Lookup returns the color for a normalized value 0-1, blended in Lab space
func (p *Palette) Lookup(norm float64) RGB {
	if norm <= 0 || len(p.Colors) == 1 {
		return p.Colors[0]
	}
	if norm >= 1 {
		return p.Colors[len(p.Colors)-1]
	}

	// Find the two colors to blend between
	pos := norm * float64(len(p.Colors)-1)
	i := int(pos)
	frac := pos - float64(i)

	c0 := toColorful(p.Colors[i])
	c1 := toColorful(p.Colors[i+1])
	return fromColorful(c0.BlendLab(c1, frac).Clamped())
}

// Dim darkens c toward black by amount (0 keeps it, 1 is black)
func Dim(c RGB, amount float64) RGB {
	amount = min(max(amount, 0), 1)
	return fromColorful(toColorful(c).BlendLab(colorful.Color{}, amount).Clamped())
}

// Index returns color at specific index (no interpolation)
func (p *Palette) Index(i int) RGB {
	if i < 0 {
		return p.Colors[0]
	}
	if i >= len(p.Colors) {
		return p.Colors[len(p.Colors)-1]
	}
	return p.Colors[i]
}

func toColorful(c RGB) colorful.Color {
	return colorful.Color{R: float64(c[0]) / 255, G: float64(c[1]) / 255, B: float64(c[2]) / 255}
}

func fromColorful(c colorful.Color) RGB {
	r, g, b := c.RGB255()
	return RGB{r, g, b}
}
