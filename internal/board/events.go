package board

import "github.com/tutorlab/liveboard/internal/models"

// Tool определяет активный инструмент рисования
type Tool string

const (
	ToolFreehand Tool = "freehand"
	ToolLine     Tool = "line"
	ToolArrow    Tool = "arrow"
	ToolRect     Tool = "rect"
	ToolCircle   Tool = "circle"
	ToolText     Tool = "text"
	ToolEraser   Tool = "eraser"
)

// Phase определяет текущую фазу машины состояний доски
type Phase string

const (
	// PhaseIdle нет активного взаимодействия
	PhaseIdle Phase = "idle"
	// PhaseDragging идет перетаскивание указателя, существует черновик
	PhaseDragging Phase = "dragging"
	// PhaseTextEditing открыт ввод текста, якорь зафиксирован
	PhaseTextEditing Phase = "text_editing"
)

// Event представляет одно входное событие машины состояний.
// События указателя приходят уже в виртуальных координатах (см. viewport):
// машина состояний никогда не видит пиксели устройства.
type Event interface {
	isEvent()
}

// PointerDown нажатие указателя в виртуальных координатах
type PointerDown struct {
	Pos models.Point
}

// PointerMove перемещение указателя при зажатой кнопке
type PointerMove struct {
	Pos models.Point
}

// PointerUp отпускание указателя
type PointerUp struct {
	Pos models.Point
}

// TextCommit подтверждение набранного текста (confirm или blur)
type TextCommit struct {
	Text string
}

// TextCancel отмена ввода текста (escape); элемент не создается
type TextCancel struct{}

// InsertImage фиксация элемента-изображения по уже загруженному URL.
// Загрузка файла происходит вне машины состояний; при ошибке загрузки
// событие просто не отправляется и элемент не создается.
type InsertImage struct {
	URL    string
	Pos    models.Point
	Width  float64
	Height float64
}

// Undo откат последнего локального действия
type Undo struct{}

// Redo повтор последнего отмененного действия
type Redo struct{}

// Clear полная очистка доски (атомарная операция, не серия удалений)
type Clear struct{}

func (PointerDown) isEvent() {}
func (PointerMove) isEvent() {}
func (PointerUp) isEvent()   {}
func (TextCommit) isEvent()  {}
func (TextCancel) isEvent()  {}
func (InsertImage) isEvent() {}
func (Undo) isEvent()        {}
func (Redo) isEvent()        {}
func (Clear) isEvent()       {}

// OpKind определяет тип исходящей операции для канала синхронизации
type OpKind string

const (
	OpAdd    OpKind = "add"
	OpDelete OpKind = "delete"
	OpClear  OpKind = "clear"
)

// Op описывает операцию, которую вызывающая сторона должна сообщить
// участникам сессии. Машина состояний сама ничего не отправляет в сеть —
// она лишь возвращает список операций из Apply, а сервис сессии
// транслирует их в сообщения канала.
type Op struct {
	Kind    OpKind
	Element *models.DrawingElement // для OpAdd
	ID      string                 // для OpDelete
}
