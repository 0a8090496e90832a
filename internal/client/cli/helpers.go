package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tutorlab/liveboard/internal/models"
)

// parseDevicePoint разбирает "x,y" в пикселях устройства и переводит
// в виртуальные координаты доски
func (c *Cli) parseDevicePoint(s string) (models.Point, error) {
	x, y, err := splitCoords(s)
	if err != nil {
		return models.Point{}, err
	}
	return c.viewport.ToVirtual(x, y), nil
}

// parseDevicePoints разбирает список точек "x,y x,y ..."
func (c *Cli) parseDevicePoints(args []string) ([]models.Point, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("expected at least one x,y point")
	}

	points := make([]models.Point, 0, len(args))
	for _, arg := range args {
		p, err := c.parseDevicePoint(arg)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

// splitCoords разбирает строку вида "120,340.5"
func splitCoords(s string) (x, y float64, err error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid point %q, expected x,y", s)
	}

	x, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid x coordinate %q: %w", parts[0], err)
	}
	y, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid y coordinate %q: %w", parts[1], err)
	}
	return x, y, nil
}
