package board

import (
	"math"

	"github.com/google/uuid"

	"github.com/tutorlab/liveboard/internal/models"
)

// actionType тип записи в стеке undo/redo
type actionType string

const (
	actionAdd    actionType = "add"
	actionDelete actionType = "delete"
)

// action одна запись истории: что было сделано и с каким элементом
type action struct {
	typ     actionType
	element models.DrawingElement
}

// Board владеет локальным состоянием доски одного участника:
// упорядоченный список зафиксированных элементов, черновик,
// история undo/redo и текущая конфигурация инструмента.
//
// Все мутации происходят синхронно внутри обработчика события —
// модель однопоточная, блокировки не нужны. Локальные и удаленные
// операции проходят через одни и те же внутренние функции
// addElement/removeElement/clearElements, что гарантирует идентичное
// применение независимо от источника.
type Board struct {
	elements  []models.DrawingElement
	draft     *models.DrawingElement
	undoStack []action
	redoStack []action

	phase      Phase
	tool       Tool
	color      string
	lineWidth  float64
	fontSize   float64
	textAnchor models.Point
	dragStart  models.Point

	// newID генерирует ID элемента; подменяется в тестах
	newID func() string
}

// New создает пустую доску с инструментом по умолчанию
func New() *Board {
	return &Board{
		phase:     PhaseIdle,
		tool:      ToolFreehand,
		color:     "#000000",
		lineWidth: 2,
		fontSize:  24,
		newID:     uuid.NewString,
	}
}

// SetTool меняет активный инструмент. Конфигурация инструмента локальна
// и не синхронизируется с участниками.
func (b *Board) SetTool(t Tool) { b.tool = t }

// SetColor меняет текущий цвет
func (b *Board) SetColor(c string) { b.color = c }

// SetLineWidth меняет текущую толщину линии
func (b *Board) SetLineWidth(w float64) { b.lineWidth = w }

// SetFontSize меняет размер шрифта для текстовых элементов
func (b *Board) SetFontSize(s float64) { b.fontSize = s }

// Tool возвращает активный инструмент
func (b *Board) Tool() Tool { return b.tool }

// Phase возвращает текущую фазу машины состояний
func (b *Board) Phase() Phase { return b.phase }

// Draft возвращает текущий черновик (nil вне фазы Dragging).
// Черновик принадлежит только автору и никогда не отправляется участникам.
func (b *Board) Draft() *models.DrawingElement { return b.draft }

// Elements возвращает копию списка зафиксированных элементов
// в порядке вставки (поздние элементы рисуются поверх ранних)
func (b *Board) Elements() []models.DrawingElement {
	out := make([]models.DrawingElement, len(b.elements))
	for i := range b.elements {
		out[i] = b.elements[i].Clone()
	}
	return out
}

// Len возвращает количество зафиксированных элементов
func (b *Board) Len() int { return len(b.elements) }

// CanUndo сообщает, есть ли что откатывать
func (b *Board) CanUndo() bool { return len(b.undoStack) > 0 }

// CanRedo сообщает, есть ли что повторять
func (b *Board) CanRedo() bool { return len(b.redoStack) > 0 }

// Apply обрабатывает одно событие и возвращает операции, которые
// нужно сообщить участникам сессии. Пустой результат означает, что
// событие не породило сетевых эффектов (например, pointer-move).
func (b *Board) Apply(ev Event) []Op {
	switch e := ev.(type) {
	case PointerDown:
		return b.pointerDown(e.Pos)
	case PointerMove:
		return b.pointerMove(e.Pos)
	case PointerUp:
		return b.pointerUp(e.Pos)
	case TextCommit:
		return b.textCommit(e.Text)
	case TextCancel:
		b.textCancel()
		return nil
	case InsertImage:
		return b.insertImage(e)
	case Undo:
		return b.undo()
	case Redo:
		return b.redo()
	case Clear:
		return b.clear()
	}
	return nil
}

// pointerDown начинает взаимодействие в зависимости от инструмента
func (b *Board) pointerDown(pos models.Point) []Op {
	if b.phase != PhaseIdle {
		return nil
	}

	switch b.tool {
	case ToolEraser:
		// Ластик не имеет фазы черновика: каждый задетый элемент —
		// самостоятельная завершенная мутация
		return b.eraseAt(pos)

	case ToolText:
		b.phase = PhaseTextEditing
		b.textAnchor = pos
		return nil

	default:
		b.phase = PhaseDragging
		b.dragStart = pos
		b.draft = b.seedDraft(pos)
		return nil
	}
}

// seedDraft создает черновик с типом формы инструмента,
// текущим цветом/толщиной и позицией нажатия
func (b *Board) seedDraft(pos models.Point) *models.DrawingElement {
	el := &models.DrawingElement{
		Color:     b.color,
		LineWidth: b.lineWidth,
	}

	switch b.tool {
	case ToolFreehand:
		el.Type = models.TypeFreehand
		el.Points = []models.Point{pos}
	case ToolLine:
		el.Type = models.TypeLine
		el.X, el.Y = pos.X, pos.Y
		el.EndX, el.EndY = pos.X, pos.Y
	case ToolArrow:
		el.Type = models.TypeArrow
		el.X, el.Y = pos.X, pos.Y
		el.EndX, el.EndY = pos.X, pos.Y
	case ToolRect:
		el.Type = models.TypeRect
		el.X, el.Y = pos.X, pos.Y
	case ToolCircle:
		el.Type = models.TypeCircle
		el.X, el.Y = pos.X, pos.Y
	}

	return el
}

// pointerMove расширяет черновик; мутация на месте, без фиксации и
// без отправки в сеть (одно сообщение на фигуру, а не на каждый сэмпл)
func (b *Board) pointerMove(pos models.Point) []Op {
	switch b.phase {
	case PhaseDragging:
		b.extendDraft(pos)
	case PhaseIdle:
		if b.tool == ToolEraser {
			return b.eraseAt(pos)
		}
	}
	return nil
}

// extendDraft обновляет форму черновика по текущей позиции указателя
func (b *Board) extendDraft(pos models.Point) {
	if b.draft == nil {
		return
	}

	switch b.draft.Type {
	case models.TypeFreehand:
		b.draft.Points = append(b.draft.Points, pos)
	case models.TypeLine, models.TypeArrow:
		b.draft.EndX, b.draft.EndY = pos.X, pos.Y
	case models.TypeRect:
		// Нормализуем: X,Y всегда верхний левый угол
		b.draft.X = min(b.dragStart.X, pos.X)
		b.draft.Y = min(b.dragStart.Y, pos.Y)
		b.draft.Width = math.Abs(pos.X - b.dragStart.X)
		b.draft.Height = math.Abs(pos.Y - b.dragStart.Y)
	case models.TypeCircle:
		// Центр в точке нажатия, радиусы по смещению
		b.draft.RadiusX = math.Abs(pos.X - b.dragStart.X)
		b.draft.RadiusY = math.Abs(pos.Y - b.dragStart.Y)
	}
}

// pointerUp завершает перетаскивание: валидный черновик фиксируется,
// невалидный (freehand из одной точки) молча отбрасывается
func (b *Board) pointerUp(pos models.Point) []Op {
	if b.phase != PhaseDragging {
		return nil
	}

	b.extendDraft(pos)
	draft := b.draft
	b.draft = nil
	b.phase = PhaseIdle

	// freehand из одной точки не становится элементом; остальные
	// формы всегда валидны (нулевой размер допустим)
	if draft == nil || !draft.WellFormed() {
		return nil
	}

	return b.commit(*draft)
}

// textCommit фиксирует текстовый элемент, если текст непуст
func (b *Board) textCommit(text string) []Op {
	if b.phase != PhaseTextEditing {
		return nil
	}
	b.phase = PhaseIdle

	if text == "" {
		return nil
	}

	el := models.DrawingElement{
		Type:      models.TypeText,
		Color:     b.color,
		LineWidth: b.lineWidth,
		X:         b.textAnchor.X,
		Y:         b.textAnchor.Y,
		Text:      text,
		FontSize:  b.fontSize,
	}
	return b.commit(el)
}

// textCancel отменяет ввод текста, элемент не создается
func (b *Board) textCancel() {
	if b.phase == PhaseTextEditing {
		b.phase = PhaseIdle
	}
}

// insertImage фиксирует элемент-изображение
func (b *Board) insertImage(e InsertImage) []Op {
	if e.URL == "" {
		return nil
	}
	el := models.DrawingElement{
		Type:      models.TypeImage,
		Color:     b.color,
		LineWidth: b.lineWidth,
		X:         e.Pos.X,
		Y:         e.Pos.Y,
		Width:     e.Width,
		Height:    e.Height,
		ImageURL:  e.URL,
	}
	return b.commit(el)
}

// commit присваивает ID, добавляет элемент, пишет историю.
// Фиксация нового действия инвалидирует redo-историю
// (линейный undo, не дерево).
func (b *Board) commit(el models.DrawingElement) []Op {
	el.ID = b.newID()
	b.addElement(el)
	b.undoStack = append(b.undoStack, action{typ: actionAdd, element: el.Clone()})
	b.redoStack = nil

	added := el.Clone()
	return []Op{{Kind: OpAdd, Element: &added}}
}

// eraseAt удаляет все элементы под курсором. Каждое удаление —
// отдельная запись undo и отдельная операция delete для канала,
// никогда не батч и не clear.
func (b *Board) eraseAt(pos models.Point) []Op {
	var ops []Op

	// Идем с конца: верхние элементы проверяются первыми
	for i := len(b.elements) - 1; i >= 0; i-- {
		el := b.elements[i]
		if !hitTest(&el, pos, eraserRadius) {
			continue
		}

		b.removeElement(el.ID)
		b.undoStack = append(b.undoStack, action{typ: actionDelete, element: el.Clone()})
		b.redoStack = nil
		ops = append(ops, Op{Kind: OpDelete, ID: el.ID})
	}

	return ops
}

// undo откатывает последнее действие и возвращает компенсирующую
// операцию для участников: откат add — это delete, откат delete — add.
// Точное соответствие обязательно, иначе состояние зрителей
// необратимо разойдется с авторским.
func (b *Board) undo() []Op {
	if len(b.undoStack) == 0 {
		return nil
	}

	last := b.undoStack[len(b.undoStack)-1]
	b.undoStack = b.undoStack[:len(b.undoStack)-1]
	b.redoStack = append(b.redoStack, last)

	switch last.typ {
	case actionAdd:
		b.removeElement(last.element.ID)
		return []Op{{Kind: OpDelete, ID: last.element.ID}}
	case actionDelete:
		restored := last.element.Clone()
		b.addElement(restored)
		out := restored.Clone()
		return []Op{{Kind: OpAdd, Element: &out}}
	}
	return nil
}

// redo повторяет последнее отмененное действие (симметрично undo)
func (b *Board) redo() []Op {
	if len(b.redoStack) == 0 {
		return nil
	}

	last := b.redoStack[len(b.redoStack)-1]
	b.redoStack = b.redoStack[:len(b.redoStack)-1]
	b.undoStack = append(b.undoStack, last)

	switch last.typ {
	case actionAdd:
		restored := last.element.Clone()
		b.addElement(restored)
		out := restored.Clone()
		return []Op{{Kind: OpAdd, Element: &out}}
	case actionDelete:
		b.removeElement(last.element.ID)
		return []Op{{Kind: OpDelete, ID: last.element.ID}}
	}
	return nil
}

// clear атомарно очищает элементы и обе истории
func (b *Board) clear() []Op {
	b.clearElements()
	b.undoStack = nil
	b.redoStack = nil
	return []Op{{Kind: OpClear}}
}

// ApplyRemoteAdd применяет элемент, полученный от автора.
// Неизвестные типы защитно игнорируются. История undo не затрагивается —
// она строго локальная.
func (b *Board) ApplyRemoteAdd(el models.DrawingElement) {
	if !el.Type.Known() || el.ID == "" {
		return
	}
	b.addElement(el.Clone())
}

// ApplyRemoteDelete применяет удаление, полученное от автора
func (b *Board) ApplyRemoteDelete(id string) {
	b.removeElement(id)
}

// ApplyRemoteClear применяет полную очистку, полученную от автора
func (b *Board) ApplyRemoteClear() {
	b.clearElements()
	b.undoStack = nil
	b.redoStack = nil
}

// ApplySnapshot замещает состояние полным снапшотом автора.
// Используется для догоняющей синхронизации после подключения или
// восстановления из локального хранилища.
func (b *Board) ApplySnapshot(elements []models.DrawingElement) {
	b.elements = b.elements[:0]
	for i := range elements {
		if !elements[i].Type.Known() {
			continue
		}
		b.elements = append(b.elements, elements[i].Clone())
	}
}

// Единственные точки мутации списка элементов: используются и локальным,
// и удаленным путем применения операций.

func (b *Board) addElement(el models.DrawingElement) {
	b.elements = append(b.elements, el)
}

func (b *Board) removeElement(id string) {
	for i := range b.elements {
		if b.elements[i].ID == id {
			b.elements = append(b.elements[:i], b.elements[i+1:]...)
			return
		}
	}
}

func (b *Board) clearElements() {
	b.elements = nil
}
