package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorlab/liveboard/internal/board"
	"github.com/tutorlab/liveboard/internal/client/session"
	clientstorage "github.com/tutorlab/liveboard/internal/client/storage"
	"github.com/tutorlab/liveboard/internal/client/ws"
	"github.com/tutorlab/liveboard/internal/models"
	"github.com/tutorlab/liveboard/internal/viewport"
	"github.com/tutorlab/liveboard/pkg/api"
)

// testIO собирает вывод консоли в буфер
type testIO struct {
	out strings.Builder
}

func (t *testIO) Println(a ...any)            { fmt.Fprintln(&t.out, a...) }
func (t *testIO) Printf(f string, a ...any)   { fmt.Fprintf(&t.out, f, a...) }
func (t *testIO) ReadInput(string) (string, error) {
	return "", io.EOF
}
func (t *testIO) Write(p []byte) (int, error) { return t.out.Write(p) }

// recordingSender запоминает отправленные сообщения
type recordingSender struct {
	messages []api.Message
}

func (r *recordingSender) Send(msg api.Message) error {
	r.messages = append(r.messages, msg)
	return nil
}

// memoryStorage хранит элементы в памяти
type memoryStorage struct {
	boards map[string][]models.DrawingElement
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{boards: make(map[string][]models.DrawingElement)}
}

func (m *memoryStorage) SaveElements(_ context.Context, sessionID string, elements []models.DrawingElement) error {
	m.boards[sessionID] = elements
	return nil
}

func (m *memoryStorage) LoadElements(_ context.Context, sessionID string) ([]models.DrawingElement, error) {
	elements, ok := m.boards[sessionID]
	if !ok {
		return nil, clientstorage.ErrBoardNotFound
	}
	return elements, nil
}

func (m *memoryStorage) ClearSession(_ context.Context, sessionID string) error {
	delete(m.boards, sessionID)
	return nil
}

func createTestCli(t *testing.T, role ws.Role) (*Cli, *recordingSender, *board.Board) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b := board.New()
	sender := &recordingSender{}
	store := newMemoryStorage()

	svc := session.NewService(logger, session.Config{
		SessionID: "test-session",
		Role:      role,
		Board:     b,
		Channel:   sender,
		Storage:   store,
	})

	channel, err := ws.New(logger, ws.Config{
		ServerURL: "http://localhost:8080",
		SessionID: "test-session",
		ClientID:  "test-client",
		Role:      role,
	})
	require.NoError(t, err)

	// Видимая область совпадает с виртуальной, координаты 1:1
	vp := viewport.New(models.VirtualWidth, models.VirtualHeight)

	return New(&testIO{}, svc, b, vp, channel, nil, role), sender, b
}

func TestExecute_DrawLine(t *testing.T) {
	cli, sender, b := createTestCli(t, ws.RoleAuthor)
	ctx := context.Background()

	quit, err := cli.Execute(ctx, "line 100,100 400,300")
	require.NoError(t, err)
	assert.False(t, quit)

	elements := b.Elements()
	require.Len(t, elements, 1)
	assert.Equal(t, models.TypeLine, elements[0].Type)
	assert.Equal(t, 100.0, elements[0].X)
	assert.Equal(t, 300.0, elements[0].EndY)

	require.Len(t, sender.messages, 1)
	assert.Equal(t, api.KindAdd, sender.messages[0].Kind)
}

func TestExecute_Freehand(t *testing.T) {
	cli, sender, b := createTestCli(t, ws.RoleAuthor)
	ctx := context.Background()

	_, err := cli.Execute(ctx, "pen 10,10 20,25 30,40")
	require.NoError(t, err)

	elements := b.Elements()
	require.Len(t, elements, 1)
	assert.Equal(t, models.TypeFreehand, elements[0].Type)
	assert.Len(t, elements[0].Points, 3)
	require.Len(t, sender.messages, 1)
}

func TestExecute_TextAndUndo(t *testing.T) {
	cli, sender, b := createTestCli(t, ws.RoleAuthor)
	ctx := context.Background()

	_, err := cli.Execute(ctx, "text 200,150 Hello class")
	require.NoError(t, err)

	elements := b.Elements()
	require.Len(t, elements, 1)
	assert.Equal(t, "Hello class", elements[0].Text)

	// Undo добавления уходит как удаление того же элемента
	_, err = cli.Execute(ctx, "undo")
	require.NoError(t, err)
	assert.Empty(t, b.Elements())

	require.Len(t, sender.messages, 2)
	assert.Equal(t, api.KindDelete, sender.messages[1].Kind)
	assert.Equal(t, elements[0].ID, sender.messages[1].ElementID)
}

func TestExecute_ViewerCannotDraw(t *testing.T) {
	cli, sender, b := createTestCli(t, ws.RoleViewer)
	ctx := context.Background()

	_, err := cli.Execute(ctx, "line 0,0 10,10")
	require.ErrorIs(t, err, ws.ErrNotAuthor)
	assert.Empty(t, b.Elements())
	assert.Empty(t, sender.messages)

	// Читающие команды зрителю доступны
	quit, err := cli.Execute(ctx, "list")
	require.NoError(t, err)
	assert.False(t, quit)
}

func TestExecute_ColorValidation(t *testing.T) {
	cli, _, _ := createTestCli(t, ws.RoleAuthor)
	ctx := context.Background()

	_, err := cli.Execute(ctx, "color red")
	require.Error(t, err)

	_, err = cli.Execute(ctx, "color #ff8800")
	require.NoError(t, err)
}

func TestExecute_BlankLine(t *testing.T) {
	cli, sender, _ := createTestCli(t, ws.RoleAuthor)

	for _, line := range []string{"", "   ", "\t"} {
		quit, err := cli.Execute(context.Background(), line)
		require.NoError(t, err)
		assert.False(t, quit)
	}
	assert.Empty(t, sender.messages)
}

func TestExecute_UnknownCommand(t *testing.T) {
	cli, _, _ := createTestCli(t, ws.RoleAuthor)

	_, err := cli.Execute(context.Background(), "frobnicate 1,2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestSplitCoords(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		x, y    float64
		wantErr bool
	}{
		{name: "integers", input: "100,200", x: 100, y: 200},
		{name: "floats", input: "10.5,20.25", x: 10.5, y: 20.25},
		{name: "with spaces", input: "10, 20", x: 10, y: 20},
		{name: "missing comma", input: "100", wantErr: true},
		{name: "bad x", input: "abc,10", wantErr: true},
		{name: "bad y", input: "10,abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, err := splitCoords(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.x, x)
			assert.Equal(t, tt.y, y)
		})
	}
}
