package board

import (
	"math"

	"github.com/tutorlab/liveboard/internal/models"
)

// eraserRadius радиус захвата ластика в виртуальных единицах
const eraserRadius = 12.0

// hitTest проверяет, задевает ли курсор элемент с учетом радиуса захвата.
// Линии проверяются по расстоянию до отрезков, фигуры с площадью —
// по попаданию в контур/границы. Неизвестный тип не задевается никогда.
func hitTest(el *models.DrawingElement, p models.Point, radius float64) bool {
	tol := radius + el.LineWidth/2

	switch el.Type {
	case models.TypeFreehand:
		for i := 1; i < len(el.Points); i++ {
			if distToSegment(p, el.Points[i-1], el.Points[i]) <= tol {
				return true
			}
		}
		return false

	case models.TypeLine, models.TypeArrow:
		a := models.Point{X: el.X, Y: el.Y}
		b := models.Point{X: el.EndX, Y: el.EndY}
		return distToSegment(p, a, b) <= tol

	case models.TypeRect, models.TypeImage:
		return p.X >= el.X-tol && p.X <= el.X+el.Width+tol &&
			p.Y >= el.Y-tol && p.Y <= el.Y+el.Height+tol

	case models.TypeCircle:
		// Нормализованное расстояние до эллипса с запасом на радиус захвата
		rx := el.RadiusX + tol
		ry := el.RadiusY + tol
		if rx <= 0 || ry <= 0 {
			return distance(p, models.Point{X: el.X, Y: el.Y}) <= tol
		}
		dx := (p.X - el.X) / rx
		dy := (p.Y - el.Y) / ry
		return dx*dx+dy*dy <= 1

	case models.TypeText:
		// Приближенный bounding box текста
		w := float64(len([]rune(el.Text))) * el.FontSize * 0.6
		h := el.FontSize
		return p.X >= el.X-tol && p.X <= el.X+w+tol &&
			p.Y >= el.Y-tol && p.Y <= el.Y+h+tol
	}

	return false
}

// distToSegment возвращает расстояние от точки до отрезка ab
func distToSegment(p, a, b models.Point) float64 {
	abx := b.X - a.X
	aby := b.Y - a.Y
	lenSq := abx*abx + aby*aby
	if lenSq == 0 {
		return distance(p, a)
	}

	t := ((p.X-a.X)*abx + (p.Y-a.Y)*aby) / lenSq
	t = math.Max(0, math.Min(1, t))

	closest := models.Point{X: a.X + t*abx, Y: a.Y + t*aby}
	return distance(p, closest)
}

// distance возвращает евклидово расстояние между точками
func distance(a, b models.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
