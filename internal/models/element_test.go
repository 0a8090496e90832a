package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementType_Known(t *testing.T) {
	known := []ElementType{
		TypeFreehand, TypeLine, TypeArrow, TypeRect, TypeCircle, TypeText, TypeImage,
	}
	for _, et := range known {
		assert.True(t, et.Known(), "type %s should be known", et)
	}

	// Неизвестные типы игнорируются, а не ломают клиента
	assert.False(t, ElementType("sticker").Known())
	assert.False(t, ElementType("").Known())
}

func TestDrawingElement_WellFormed(t *testing.T) {
	tests := []struct {
		name    string
		element DrawingElement
		want    bool
	}{
		{
			name: "freehand with 2 points",
			element: DrawingElement{
				Type:   TypeFreehand,
				Points: []Point{{X: 0, Y: 0}, {X: 10, Y: 10}},
			},
			want: true,
		},
		{
			name: "freehand with single point is a click, not a stroke",
			element: DrawingElement{
				Type:   TypeFreehand,
				Points: []Point{{X: 5, Y: 5}},
			},
			want: false,
		},
		{
			name:    "text requires content",
			element: DrawingElement{Type: TypeText, Text: ""},
			want:    false,
		},
		{
			name:    "text with content",
			element: DrawingElement{Type: TypeText, Text: "hello"},
			want:    true,
		},
		{
			name:    "image requires url",
			element: DrawingElement{Type: TypeImage},
			want:    false,
		},
		{
			name:    "image with url",
			element: DrawingElement{Type: TypeImage, ImageURL: "/uploads/a.png"},
			want:    true,
		},
		{
			name:    "zero-size rect renders as degenerate but valid",
			element: DrawingElement{Type: TypeRect},
			want:    true,
		},
		{
			name:    "zero-size circle is valid",
			element: DrawingElement{Type: TypeCircle},
			want:    true,
		},
		{
			name:    "unknown type",
			element: DrawingElement{Type: "sticker"},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.element.WellFormed())
		})
	}
}

func TestDrawingElement_Clone(t *testing.T) {
	original := DrawingElement{
		ID:        "el-1",
		Type:      TypeFreehand,
		Color:     "#000000",
		LineWidth: 2,
		Points:    []Point{{X: 1, Y: 2}, {X: 3, Y: 4}},
	}

	clone := original.Clone()
	require.Equal(t, original, clone)

	// Срез точек не разделяется между копиями
	clone.Points[0].X = 100
	assert.Equal(t, 1.0, original.Points[0].X)
}

func TestDrawingElement_JSONRoundTrip(t *testing.T) {
	el := DrawingElement{
		ID:        "el-7",
		Type:      TypeLine,
		Color:     "#ff8800",
		LineWidth: 3,
		X:         10, Y: 20,
		EndX: 110, EndY: 220,
	}

	data, err := json.Marshal(el)
	require.NoError(t, err)

	// Wire-формат использует snake_case ключи
	assert.Contains(t, string(data), `"line_width":3`)
	assert.Contains(t, string(data), `"end_x":110`)

	var decoded DrawingElement
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, el, decoded)
}
