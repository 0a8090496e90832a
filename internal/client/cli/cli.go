// Package cli реализует интерактивную консоль headless-клиента доски.
// Команды консоли превращаются в те же pointer-события, что и жесты
// на канве, поэтому путь применения у консоли и у UI общий.
package cli

import (
	"fmt"

	"github.com/tutorlab/liveboard/internal/board"
	"github.com/tutorlab/liveboard/internal/client/iocli"
	"github.com/tutorlab/liveboard/internal/client/session"
	"github.com/tutorlab/liveboard/internal/client/upload"
	"github.com/tutorlab/liveboard/internal/client/ws"
	"github.com/tutorlab/liveboard/internal/viewport"
)

// Cli интерактивная консоль одной сессии доски
type Cli struct {
	io       iocli.IO
	service  *session.Service
	board    *board.Board
	viewport *viewport.Viewport
	channel  *ws.Channel
	uploader *upload.Client
	role     ws.Role
}

// New создает консоль сессии
func New(
	io iocli.IO,
	service *session.Service,
	b *board.Board,
	vp *viewport.Viewport,
	channel *ws.Channel,
	uploader *upload.Client,
	role ws.Role,
) *Cli {
	return &Cli{
		io:       io,
		service:  service,
		board:    b,
		viewport: vp,
		channel:  channel,
		uploader: uploader,
		role:     role,
	}
}

func PrintUsage() {
	fmt.Println("Liveboard Client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  liveboard [OPTIONS]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version          Show version information")
	fmt.Println("  --server URL       Server URL (default: http://localhost:8080)")
	fmt.Println("  --session ID       Lesson session ID (required)")
	fmt.Println("  --role ROLE        author or viewer (default: viewer)")
	fmt.Println("  --db PATH          Path to local database (default: liveboard-client.db)")
	fmt.Println("  --width N          Device canvas width in pixels (default: 1920)")
	fmt.Println("  --height N         Device canvas height in pixels (default: 1080)")
	fmt.Println()
	fmt.Println("Console commands (coordinates are device pixels):")
	fmt.Println("  pen x,y x,y [x,y ...]     Draw a freehand stroke")
	fmt.Println("  line x1,y1 x2,y2          Draw a straight line")
	fmt.Println("  arrow x1,y1 x2,y2         Draw an arrow")
	fmt.Println("  rect x1,y1 x2,y2          Draw a rectangle")
	fmt.Println("  circle x1,y1 x2,y2        Draw an ellipse")
	fmt.Println("  text x,y CONTENT          Place a text label")
	fmt.Println("  image PATH x,y [w h]      Upload an image and place it")
	fmt.Println("  erase x,y                 Erase elements near a point")
	fmt.Println("  color #rrggbb             Set stroke color")
	fmt.Println("  width N                   Set stroke width")
	fmt.Println("  undo | redo | clear       History operations")
	fmt.Println("  list                      Show board elements")
	fmt.Println("  status                    Show connection state")
	fmt.Println("  end                       End the session (author only)")
	fmt.Println("  quit                      Leave the console")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  liveboard --session algebra-7b --role author")
	fmt.Println("  liveboard --session algebra-7b")
	fmt.Println("  > line 100,100 400,300")
	fmt.Println("  > text 200,150 Hello class")
	fmt.Println("  > image ./diagram.png 500,200")
}
