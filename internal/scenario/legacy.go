package scenario

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// The line format stores one value per line in column blocks: the object
// count, then N mesh names, N collision mesh names, N positions, N
// rotations, N canMove flags, N inverse masses, N gravity flags and N
// velocities, followed by the global gravity and elasticity.

// ReadLegacy parses the line format.
func ReadLegacy(r io.Reader) (Definition, error) {
	lr := &lineReader{sc: bufio.NewScanner(r)}

	countLine, err := lr.next("object count")
	if err != nil {
		return Definition{}, err
	}
	n, err := strconv.Atoi(countLine)
	if err != nil || n < 0 {
		return Definition{}, fmt.Errorf("%w: line %d: bad object count %q", ErrMalformed, lr.line, countLine)
	}

	def := Definition{Objects: make([]ObjectDef, n)}
	objs := def.Objects

	columns := []struct {
		what  string
		parse func(o *ObjectDef, s string) error
	}{
		{"mesh name", func(o *ObjectDef, s string) error { o.Mesh = s; return nil }},
		{"collision mesh name", func(o *ObjectDef, s string) error { o.CollisionMesh = s; return nil }},
		{"position", func(o *ObjectDef, s string) (err error) { o.Position, err = parseTriple(s); return }},
		{"rotation", func(o *ObjectDef, s string) (err error) { o.Rotation, err = parseTriple(s); return }},
		{"canMove", func(o *ObjectDef, s string) error { o.CanMove = parseBool(s); return nil }},
		{"inverse mass", func(o *ObjectDef, s string) (err error) { o.InverseMass, err = parseNumber(s); return }},
		{"gravity flag", func(o *ObjectDef, s string) error { o.Gravity = parseBool(s); return nil }},
		{"velocity", func(o *ObjectDef, s string) (err error) { o.Velocity, err = parseTriple(s); return }},
	}
	for _, col := range columns {
		for i := range objs {
			s, err := lr.next(col.what)
			if err != nil {
				return Definition{}, err
			}
			if err := col.parse(&objs[i], s); err != nil {
				return Definition{}, fmt.Errorf("%w: line %d: %s: %v", ErrMalformed, lr.line, col.what, err)
			}
		}
	}

	for _, g := range []struct {
		what string
		dst  *float64
	}{{"gravity", &def.Gravity}, {"elasticity", &def.Elasticity}} {
		s, err := lr.next(g.what)
		if err != nil {
			return Definition{}, err
		}
		if *g.dst, err = parseNumber(s); err != nil {
			return Definition{}, fmt.Errorf("%w: line %d: %s: %v", ErrMalformed, lr.line, g.what, err)
		}
	}
	return def, nil
}

// WriteLegacy writes def in the line format. Inverse masses are truncated to
// integers and objects without a collision mesh get the lowPoly name.
func WriteLegacy(w io.Writer, def Definition) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, len(def.Objects))

	for _, o := range def.Objects {
		fmt.Fprintln(bw, o.Mesh)
	}
	for _, o := range def.Objects {
		lp := o.CollisionMesh
		if lp == "" {
			lp = CollisionPrefix + o.Mesh
		}
		fmt.Fprintln(bw, lp)
	}
	for _, o := range def.Objects {
		fmt.Fprintln(bw, formatTriple(o.Position))
	}
	for _, o := range def.Objects {
		fmt.Fprintln(bw, formatTriple(o.Rotation))
	}
	for _, o := range def.Objects {
		fmt.Fprintln(bw, strconv.FormatBool(o.CanMove))
	}
	for _, o := range def.Objects {
		fmt.Fprintln(bw, int64(o.InverseMass))
	}
	for _, o := range def.Objects {
		fmt.Fprintln(bw, strconv.FormatBool(o.Gravity))
	}
	for _, o := range def.Objects {
		fmt.Fprintln(bw, formatTriple(o.Velocity))
	}
	fmt.Fprintln(bw, formatFloat(def.Gravity))
	fmt.Fprintln(bw, formatFloat(def.Elasticity))
	return bw.Flush()
}

type lineReader struct {
	sc   *bufio.Scanner
	line int
}

func (lr *lineReader) next(what string) (string, error) {
	if !lr.sc.Scan() {
		if err := lr.sc.Err(); err != nil {
			return "", fmt.Errorf("read scenario: %w", err)
		}
		return "", fmt.Errorf("%w: missing %s after line %d", ErrMalformed, what, lr.line)
	}
	lr.line++
	return strings.TrimSpace(lr.sc.Text()), nil
}

// parseTriple reads the first three numbers on a line, skipping any leading
// words such as labels.
func parseTriple(s string) ([3]float64, error) {
	var out [3]float64
	n := 0
	for _, f := range strings.Fields(s) {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			if n == 0 {
				continue
			}
			return out, fmt.Errorf("bad number %q", f)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return out, fmt.Errorf("bad number %q", f)
		}
		out[n] = v
		n++
		if n == 3 {
			return out, nil
		}
	}
	return out, fmt.Errorf("expected 3 numbers in %q", s)
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("bad number %q", s)
	}
	return v, nil
}

// parseBool treats anything but "true" as false.
func parseBool(s string) bool {
	return strings.EqualFold(s, "true")
}

func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func formatTriple(v [3]float64) string {
	return formatFloat(v[0]) + " " + formatFloat(v[1]) + " " + formatFloat(v[2])
}
