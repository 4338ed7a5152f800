// Package menu draws the badge's screens with termui and reads the user's
// choices from a stream of key events.
package menu

import (
	"fmt"
	"io"
	"strings"
	"sync"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	"github.com/go-errors/errors"
)

const (
	menuWidth    = 40
	menuHeight   = 12
	resultWidth  = 40
	resultHeight = 8
)

// ErrEscape is returned when the user backs out of a screen.
var ErrEscape = errors.New("escape")

// ValidCheck returns the accepted input, or a warning and false.
type ValidCheck func(string) (string, string, bool)

type Entry interface {
	Label() string
}

// render and clearScreen are replaced in tests, where no terminal is attached.
var (
	render      = func(items ...ui.Drawable) { ui.Render(items...) }
	clearScreen = ui.Clear
)

func Init() error {
	return ui.Init()
}

func Close() {
	ui.Close()
}

func AlwaysValid(input string) (string, string, bool) {
	return input, "", true
}

// LengthBetween accepts inputs of minLen to maxLen characters.
func LengthBetween(minLen, maxLen int) ValidCheck {
	return func(input string) (string, string, bool) {
		n := len([]rune(input))
		if n < minLen || n > maxLen {
			return "", fmt.Sprintf("Enter %d to %d characters.", minLen, maxLen), false
		}
		return input, "", true
	}
}

func newParagraph(initText string, border bool, location int, wid int, ht int) *widgets.Paragraph {
	p := widgets.NewParagraph()
	p.Text = initText
	p.Border = border
	p.SetRect(0, location, wid, location+ht)
	p.TextStyle.Fg = ui.ColorWhite
	return p
}

// readKey reads a key from input stream. A closed stream reads as <C-d>.
func readKey(uiEvents <-chan ui.Event) string {
	for {
		e, ok := <-uiEvents
		if !ok {
			return "<C-d>"
		}
		if e.Type == ui.KeyboardEvent {
			return e.ID
		}
	}
}

// Input presents an input box and returns what the user typed once it
// passes isValid. With masked set, typed characters are shown as *.
func Input(introwords string, masked bool, isValid ValidCheck, uiEvents <-chan ui.Event) (string, error) {
	defer clearScreen()

	intro := newParagraph(introwords, false, 0, menuWidth, 3)
	input := newParagraph("", true, 2, menuWidth, 3)
	warning := newParagraph("", false, 5, menuWidth, 3)

	text := ""
	show := func() {
		if masked {
			input.Text = strings.Repeat("*", len([]rune(text)))
		} else {
			input.Text = text
		}
		render(input)
	}

	render(intro, input, warning)

	for {
		k := readKey(uiEvents)
		switch k {
		case "<C-d>":
			return text, io.EOF
		case "<Escape>":
			return "", ErrEscape
		case "<Enter>":
			accepted, warningText, ok := isValid(text)
			if ok {
				return accepted, nil
			}
			text = ""
			warning.Text = warningText
			show()
			render(warning)
		case "<Backspace>":
			if r := []rune(text); len(r) > 0 {
				text = string(r[:len(r)-1])
				show()
			}
		case "<Space>":
			text += " "
			show()
		default:
			// termui names special keys like <F1>; only plain characters
			// are part of the input.
			if !strings.HasPrefix(k, "<") {
				text += k
				show()
			}
		}
	}
}

// Select presents entries as a list with a cursor. Up and Down move the
// cursor, Enter picks the highlighted entry and Escape backs out.
func Select(title string, entries []Entry, uiEvents <-chan ui.Event) (int, error) {
	defer clearScreen()

	if len(entries) == 0 {
		return 0, errors.New("no entry in the menu")
	}

	list := widgets.NewList()
	list.Title = title
	list.SetRect(0, 0, menuWidth, menuHeight)
	list.TextStyle.Fg = ui.ColorWhite
	list.SelectedRowStyle = ui.NewStyle(ui.ColorBlack, ui.ColorWhite)
	list.WrapText = false

	for _, e := range entries {
		list.Rows = append(list.Rows, e.Label())
	}

	render(list)

	for {
		k := readKey(uiEvents)
		switch k {
		case "<C-d>":
			return 0, io.EOF
		case "<Escape>":
			return 0, ErrEscape
		case "<Enter>":
			return list.SelectedRow, nil
		case "<Up>", "k":
			list.ScrollUp()
		case "<Down>", "j":
			list.ScrollDown()
		case "<PageUp>", "<Left>":
			list.ScrollPageUp()
		case "<PageDown>", "<Right>":
			list.ScrollPageDown()
		case "<Home>":
			list.ScrollTop()
		case "<End>":
			list.ScrollBottom()
		default:
			continue
		}
		render(list)
	}
}

// DisplayResult shows message until a key is pressed. Escape is reported
// as ErrEscape so callers can tell a dismissal from an exit request.
func DisplayResult(message []string, uiEvents <-chan ui.Event) (string, error) {
	defer clearScreen()

	var text []string
	for _, m := range message {
		for len(m) > resultWidth {
			text = append(text, m[:resultWidth])
			m = m[resultWidth:]
		}
		text = append(text, m)
	}

	p := widgets.NewParagraph()
	p.Border = true
	p.SetRect(0, 0, resultWidth+2, resultHeight+3)
	p.TextStyle.Fg = ui.ColorWhite
	p.Text = strings.Join(text, "\n")

	render(p)

	switch readKey(uiEvents) {
	case "<C-d>":
		return p.Text, io.EOF
	case "<Escape>":
		return p.Text, ErrEscape
	default:
		return p.Text, nil
	}
}

// Progress is a status box that is updated while an operation runs.
type Progress struct {
	mu        sync.Mutex
	paragraph *widgets.Paragraph
}

func NewProgress(title string, text string) *Progress {
	paragraph := widgets.NewParagraph()
	paragraph.Border = true
	paragraph.SetRect(0, 0, resultWidth+2, 6)
	paragraph.TextStyle.Fg = ui.ColorWhite
	paragraph.Title = title
	paragraph.Text = text
	render(paragraph)

	return &Progress{paragraph: paragraph}
}

func (p *Progress) Text() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.paragraph.Text
}

func (p *Progress) Update(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.paragraph.Text = text
	render(p.paragraph)
}

func (p *Progress) Close() {
	clearScreen()
}
