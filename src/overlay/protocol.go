package overlay

import (
	"fmt"
	"strconv"
	"strings"

	"circle-to-search/src/screenshot"
)

const polygonPrefix = "polygon:"

// FormatSelection renders a region in the selector stdout contract:
// "x,y wxh" and, for lasso selections, a second "polygon: x,y x,y ..." line.
func FormatSelection(r screenshot.Region) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d,%d %dx%d\n", r.X, r.Y, r.Width, r.Height)
	if len(r.Polygon) >= 3 {
		b.WriteString(polygonPrefix)
		for _, p := range r.Polygon {
			fmt.Fprintf(&b, " %d,%d", p.X, p.Y)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// ParseSelection reads selector output. Extra text after the geometry on the
// first line (slurp labels, for instance) is ignored.
func ParseSelection(out string) (screenshot.Region, error) {
	lines := strings.Split(strings.TrimSpace(strings.ReplaceAll(out, "\r\n", "\n")), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return screenshot.Region{}, fmt.Errorf("empty selection output")
	}

	fields := strings.Fields(lines[0])
	if len(fields) < 2 {
		return screenshot.Region{}, fmt.Errorf("malformed selection %q", lines[0])
	}
	x, y, err := parsePair(fields[0], ",")
	if err != nil {
		return screenshot.Region{}, fmt.Errorf("malformed position %q: %w", fields[0], err)
	}
	w, h, err := parsePair(fields[1], "x")
	if err != nil {
		return screenshot.Region{}, fmt.Errorf("malformed size %q: %w", fields[1], err)
	}
	if w < 0 || h < 0 {
		return screenshot.Region{}, fmt.Errorf("negative size %q", fields[1])
	}
	region := screenshot.Region{X: x, Y: y, Width: w, Height: h}

	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, polygonPrefix) {
			continue
		}
		for _, field := range strings.Fields(strings.TrimPrefix(line, polygonPrefix)) {
			px, py, err := parsePair(field, ",")
			if err != nil {
				return screenshot.Region{}, fmt.Errorf("malformed polygon point %q: %w", field, err)
			}
			region.Polygon = append(region.Polygon, screenshot.Point{X: px, Y: py})
		}
	}
	if len(region.Polygon) > 0 && len(region.Polygon) < 3 {
		region.Polygon = nil
	}
	return region, nil
}

func parsePair(s, sep string) (int, int, error) {
	a, b, ok := strings.Cut(s, sep)
	if !ok {
		return 0, 0, fmt.Errorf("missing %q", sep)
	}
	first, err := strconv.Atoi(a)
	if err != nil {
		return 0, 0, err
	}
	second, err := strconv.Atoi(b)
	if err != nil {
		return 0, 0, err
	}
	return first, second, nil
}
