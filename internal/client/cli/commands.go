package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tutorlab/liveboard/internal/board"
	"github.com/tutorlab/liveboard/internal/client/ws"
	"github.com/tutorlab/liveboard/internal/validation"
)

// Run читает и выполняет команды консоли до quit, end или конца ввода
func (c *Cli) Run(ctx context.Context) error {
	c.io.Printf("Connected to session as %s. Type 'help' for commands.\n", c.role)

	for {
		if c.service.Ended() {
			c.io.Println("Session ended by the author")
			return nil
		}

		line, err := c.io.ReadInput("> ")
		if err != nil {
			// Конец ввода — обычный выход из консоли
			return nil
		}
		if line == "" {
			continue
		}

		quit, err := c.Execute(ctx, line)
		if err != nil {
			c.io.Printf("Error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// Execute выполняет одну команду консоли; возвращает true для выхода
func (c *Cli) Execute(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	command, args := fields[0], fields[1:]

	switch command {
	case "help":
		PrintUsage()
		return false, nil
	case "list":
		c.printElements()
		return false, nil
	case "status":
		c.io.Printf("Connection: %s\n", c.channel.State())
		return false, nil
	case "quit", "exit":
		return true, nil
	}

	if c.role != ws.RoleAuthor {
		return false, ws.ErrNotAuthor
	}

	switch command {
	case "pen":
		return false, c.drawStroke(ctx, board.ToolFreehand, args)
	case "line":
		return false, c.drawTwoPoint(ctx, board.ToolLine, args)
	case "arrow":
		return false, c.drawTwoPoint(ctx, board.ToolArrow, args)
	case "rect":
		return false, c.drawTwoPoint(ctx, board.ToolRect, args)
	case "circle":
		return false, c.drawTwoPoint(ctx, board.ToolCircle, args)
	case "text":
		return false, c.placeText(ctx, args)
	case "image":
		return false, c.placeImage(ctx, args)
	case "erase":
		return false, c.erase(ctx, args)
	case "color":
		return false, c.setColor(args)
	case "width":
		return false, c.setWidth(args)
	case "undo":
		return false, c.service.HandleEvent(ctx, board.Undo{})
	case "redo":
		return false, c.service.HandleEvent(ctx, board.Redo{})
	case "clear":
		return false, c.service.HandleEvent(ctx, board.Clear{})
	case "end":
		if err := c.service.End(ctx); err != nil {
			return false, err
		}
		c.channel.Close()
		return true, nil
	default:
		return false, fmt.Errorf("unknown command: %s", command)
	}
}

// drawStroke проводит freehand-штрих через все указанные точки
func (c *Cli) drawStroke(ctx context.Context, tool board.Tool, args []string) error {
	points, err := c.parseDevicePoints(args)
	if err != nil {
		return err
	}
	if len(points) < 2 {
		return fmt.Errorf("stroke requires at least 2 points")
	}

	c.board.SetTool(tool)
	if err := c.service.HandleEvent(ctx, board.PointerDown{Pos: points[0]}); err != nil {
		return err
	}
	for _, p := range points[1:] {
		if err := c.service.HandleEvent(ctx, board.PointerMove{Pos: p}); err != nil {
			return err
		}
	}
	return c.service.HandleEvent(ctx, board.PointerUp{Pos: points[len(points)-1]})
}

// drawTwoPoint рисует фигуру перетаскиванием от первой точки до второй
func (c *Cli) drawTwoPoint(ctx context.Context, tool board.Tool, args []string) error {
	points, err := c.parseDevicePoints(args)
	if err != nil {
		return err
	}
	if len(points) != 2 {
		return fmt.Errorf("%s requires exactly 2 points", tool)
	}

	c.board.SetTool(tool)
	if err := c.service.HandleEvent(ctx, board.PointerDown{Pos: points[0]}); err != nil {
		return err
	}
	if err := c.service.HandleEvent(ctx, board.PointerMove{Pos: points[1]}); err != nil {
		return err
	}
	return c.service.HandleEvent(ctx, board.PointerUp{Pos: points[1]})
}

func (c *Cli) placeText(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: text x,y CONTENT")
	}
	pos, err := c.parseDevicePoint(args[0])
	if err != nil {
		return err
	}
	content := strings.Join(args[1:], " ")

	c.board.SetTool(board.ToolText)
	if err := c.service.HandleEvent(ctx, board.PointerDown{Pos: pos}); err != nil {
		return err
	}
	return c.service.HandleEvent(ctx, board.TextCommit{Text: content})
}

func (c *Cli) placeImage(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: image PATH x,y [w h]")
	}
	pos, err := c.parseDevicePoint(args[1])
	if err != nil {
		return err
	}

	// Габариты задаются в виртуальных координатах; по умолчанию
	// изображение вставляется в четверть ширины доски
	width, height := 480.0, 0.0
	if len(args) >= 4 {
		if width, err = strconv.ParseFloat(args[2], 64); err != nil {
			return fmt.Errorf("invalid width: %w", err)
		}
		if height, err = strconv.ParseFloat(args[3], 64); err != nil {
			return fmt.Errorf("invalid height: %w", err)
		}
	}

	url, err := c.uploader.UploadFile(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to upload image: %w", err)
	}
	c.io.Printf("Uploaded: %s\n", url)

	return c.service.HandleEvent(ctx, board.InsertImage{
		URL:    url,
		Pos:    pos,
		Width:  width,
		Height: height,
	})
}

func (c *Cli) erase(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: erase x,y")
	}
	pos, err := c.parseDevicePoint(args[0])
	if err != nil {
		return err
	}

	prevTool := c.board.Tool()
	c.board.SetTool(board.ToolEraser)
	defer c.board.SetTool(prevTool)

	if err := c.service.HandleEvent(ctx, board.PointerDown{Pos: pos}); err != nil {
		return err
	}
	return c.service.HandleEvent(ctx, board.PointerUp{Pos: pos})
}

func (c *Cli) setColor(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: color #rrggbb")
	}
	if err := validation.ValidateColor(args[0]); err != nil {
		return err
	}
	c.board.SetColor(args[0])
	return nil
}

func (c *Cli) setWidth(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: width N")
	}
	w, err := strconv.ParseFloat(args[0], 64)
	if err != nil || w <= 0 {
		return fmt.Errorf("width must be a positive number")
	}
	c.board.SetLineWidth(w)
	return nil
}

func (c *Cli) printElements() {
	elements := c.board.Elements()
	if len(elements) == 0 {
		c.io.Println("Board is empty")
		return
	}

	c.io.Printf("%d element(s):\n", len(elements))
	for _, el := range elements {
		switch {
		case el.Text != "":
			c.io.Printf("  %s %s  %q at (%.0f, %.0f)\n", el.ID, el.Type, el.Text, el.X, el.Y)
		case el.ImageURL != "":
			c.io.Printf("  %s %s  %s at (%.0f, %.0f)\n", el.ID, el.Type, el.ImageURL, el.X, el.Y)
		case len(el.Points) > 0:
			c.io.Printf("  %s %s  %d points, color %s\n", el.ID, el.Type, len(el.Points), el.Color)
		default:
			c.io.Printf("  %s %s  at (%.0f, %.0f), color %s\n", el.ID, el.Type, el.X, el.Y, el.Color)
		}
	}
}
