package models

// Виртуальное координатное пространство доски.
// Все координаты элементов выражаются в логических единицах 1920x1080
// независимо от фактического размера экрана участника — это делает
// модель переносимой между устройствами с разными размерами viewport.
const (
	VirtualWidth  = 1920.0
	VirtualHeight = 1080.0
)

// ElementType определяет тип нарисованного элемента (закрытое множество)
type ElementType string

const (
	TypeFreehand ElementType = "freehand" // произвольная линия от руки
	TypeLine     ElementType = "line"     // прямая линия
	TypeArrow    ElementType = "arrow"    // стрелка
	TypeRect     ElementType = "rect"     // прямоугольник
	TypeCircle   ElementType = "circle"   // эллипс
	TypeText     ElementType = "text"     // текстовая надпись
	TypeImage    ElementType = "image"    // изображение по URL
)

// Known возвращает true для известного типа элемента.
// Неизвестные типы защитно игнорируются потребителями (forward-compatibility).
func (t ElementType) Known() bool {
	switch t {
	case TypeFreehand, TypeLine, TypeArrow, TypeRect, TypeCircle, TypeText, TypeImage:
		return true
	}
	return false
}

// Point представляет точку в виртуальных координатах
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DrawingElement представляет один нарисованный объект доски.
// После фиксации (commit) элемент неизменяем; ID генерируется на стороне
// автора в момент фиксации и стабилен между участниками.
//
// Поля, специфичные для формы:
//   - freehand: Points (минимум 2 точки для валидности)
//   - line/arrow: X,Y (начало) и EndX,EndY (конец)
//   - rect: X,Y,Width,Height и опциональный Fill
//   - circle: X,Y (центр), RadiusX,RadiusY и опциональный Fill
//   - text: X,Y (якорь), Text, FontSize
//   - image: X,Y,Width,Height, ImageURL
type DrawingElement struct {
	ID        string      `json:"id"`
	Type      ElementType `json:"type"`
	Color     string      `json:"color"`
	LineWidth float64     `json:"line_width"`
	Points    []Point     `json:"points,omitempty"`
	X         float64     `json:"x,omitempty"`
	Y         float64     `json:"y,omitempty"`
	EndX      float64     `json:"end_x,omitempty"`
	EndY      float64     `json:"end_y,omitempty"`
	Width     float64     `json:"width,omitempty"`
	Height    float64     `json:"height,omitempty"`
	RadiusX   float64     `json:"radius_x,omitempty"`
	RadiusY   float64     `json:"radius_y,omitempty"`
	Fill      string      `json:"fill,omitempty"`
	Text      string      `json:"text,omitempty"`
	FontSize  float64     `json:"font_size,omitempty"`
	ImageURL  string      `json:"image_url,omitempty"`
}

// WellFormed проверяет, что элемент пригоден к фиксации и отрисовке.
// Freehand требует минимум 2 точки (одиночный клик без движения не дает
// элемента); text требует непустой текст; image требует URL.
// Rect/circle с нулевыми размерами считаются валидными — рендер деградирует
// до нулевого размера без ошибки.
func (e *DrawingElement) WellFormed() bool {
	if !e.Type.Known() {
		return false
	}

	switch e.Type {
	case TypeFreehand:
		return len(e.Points) >= 2
	case TypeText:
		return e.Text != ""
	case TypeImage:
		return e.ImageURL != ""
	}

	return true
}

// Clone возвращает глубокую копию элемента.
// Используется при снятии снапшотов, чтобы зафиксированные элементы
// не разделяли срез точек с черновиком.
func (e *DrawingElement) Clone() DrawingElement {
	c := *e
	if e.Points != nil {
		c.Points = make([]Point, len(e.Points))
		copy(c.Points, e.Points)
	}
	return c
}
