package assets

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"
)

// Material defines surface properties for rendering
type Material struct {
	Name     string
	Ambient  color.RGBA
	Diffuse  color.RGBA
	Specular color.RGBA
	Opacity  float64
	Texture  string // map_Kd, relative to the asset root
}

// DefaultMaterial is used for meshes without a material library.
func DefaultMaterial() *Material {
	return &Material{
		Name:     "default",
		Ambient:  color.RGBA{R: 51, G: 51, B: 51, A: 255},
		Diffuse:  color.RGBA{R: 200, G: 200, B: 200, A: 255},
		Specular: color.RGBA{A: 255},
		Opacity:  1,
	}
}

// ParseMTL reads every material in a Wavefront MTL stream.
func ParseMTL(r io.Reader, name string) (map[string]*Material, error) {
	materials := make(map[string]*Material)
	var cur *Material

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if fields[0] == "newmtl" {
			if len(fields) < 2 {
				return nil, fmt.Errorf("%w: %s line %d: newmtl without name", ErrMalformed, name, lineNo)
			}
			cur = DefaultMaterial()
			cur.Name = fields[1]
			materials[cur.Name] = cur
			continue
		}
		if cur == nil {
			continue
		}

		var err error
		switch fields[0] {
		case "Ka":
			cur.Ambient, err = parseColor(fields[1:])
		case "Kd":
			cur.Diffuse, err = parseColor(fields[1:])
		case "Ks":
			cur.Specular, err = parseColor(fields[1:])
		case "d":
			cur.Opacity, err = parseScalar(fields[1:])
		case "Tr":
			var tr float64
			tr, err = parseScalar(fields[1:])
			cur.Opacity = 1 - tr
		case "map_Kd":
			if len(fields) > 1 {
				cur.Texture = fields[len(fields)-1]
			}
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrMalformed, name, lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return materials, nil
}

func parseScalar(fields []string) (float64, error) {
	if len(fields) == 0 {
		return 0, fmt.Errorf("missing value")
	}
	return strconv.ParseFloat(fields[0], 64)
}

func parseColor(fields []string) (color.RGBA, error) {
	v, err := parseVec(fields, 3)
	if err != nil {
		return color.RGBA{}, err
	}
	c := color.RGBA{A: 255}
	for i, dst := range []*uint8{&c.R, &c.G, &c.B} {
		*dst = uint8(min(max(v[i], 0), 1)*255 + 0.5)
	}
	return c, nil
}
