// Package viewport отображает фиксированное виртуальное пространство доски
// 1920x1080 на фактическую поверхность отрисовки произвольного размера.
//
// Контракт: масштаб сохраняет пропорции, остаток центрируется (letterbox);
// ToVirtual и ToScreen — взаимно обратные функции. Весь ввод указателя
// конвертируется в виртуальные координаты до попадания в машину состояний,
// все хранимые и синхронизируемые координаты — только виртуальные.
// Именно это позволяет преподавателю на ноутбуке и ученику на планшете
// видеть рисунок в одних и тех же позициях.
package viewport

import "github.com/tutorlab/liveboard/internal/models"

// Viewport хранит текущее преобразование виртуальных координат в экранные.
// Пересчитывается при каждом изменении размера поверхности.
type Viewport struct {
	scale   float64
	offsetX float64
	offsetY float64
	width   float64
	height  float64
}

// New создает viewport под поверхность заданного размера
func New(surfaceWidth, surfaceHeight float64) *Viewport {
	v := &Viewport{}
	v.Resize(surfaceWidth, surfaceHeight)
	return v
}

// Resize пересчитывает масштаб и смещение под новый размер поверхности.
// Выбирается меньший из масштабов по осям, остаток делится пополам.
func (v *Viewport) Resize(surfaceWidth, surfaceHeight float64) {
	v.width = surfaceWidth
	v.height = surfaceHeight

	if surfaceWidth <= 0 || surfaceHeight <= 0 {
		v.scale = 1
		v.offsetX = 0
		v.offsetY = 0
		return
	}

	scaleX := surfaceWidth / models.VirtualWidth
	scaleY := surfaceHeight / models.VirtualHeight
	v.scale = min(scaleX, scaleY)

	v.offsetX = (surfaceWidth - models.VirtualWidth*v.scale) / 2
	v.offsetY = (surfaceHeight - models.VirtualHeight*v.scale) / 2
}

// Scale возвращает текущий масштаб
func (v *Viewport) Scale() float64 { return v.scale }

// ToVirtual конвертирует экранные (device) координаты в виртуальные
func (v *Viewport) ToVirtual(deviceX, deviceY float64) models.Point {
	return models.Point{
		X: (deviceX - v.offsetX) / v.scale,
		Y: (deviceY - v.offsetY) / v.scale,
	}
}

// ToScreen конвертирует виртуальные координаты в экранные
func (v *Viewport) ToScreen(vx, vy float64) (float64, float64) {
	return vx*v.scale + v.offsetX, vy*v.scale + v.offsetY
}
