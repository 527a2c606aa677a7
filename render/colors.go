package render

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/signadot/sharedoc/ir"
)

type Colorable struct {
	Type ir.Type
	Attr ColorAttr
}

type ColorAttr int

const (
	FieldColor ColorAttr = iota
	ValueColor
	SepColor
	InsertColor
	DeleteColor
	StaleColor
)

type Colors struct {
	Default func(string, ...any) string
	Map     map[Colorable]func(string, ...any) string
}

// NewColors returns the terminal palette.
func NewColors() *Colors {
	c := &Colors{
		Default: colorDefault,
		Map:     map[Colorable]func(string, ...any) string{},
	}
	for _, t := range ir.Types() {
		c.set(t, SepColor, color.RGB(255, 0, 196))
		c.set(t, InsertColor, color.New(color.FgGreen))
		c.set(t, DeleteColor, color.New(color.FgRed))
		c.set(t, StaleColor, color.RGB(96, 96, 96))
	}
	for _, p := range []struct {
		t   ir.Type
		a   ColorAttr
		col *color.Color
	}{
		{ir.NullType, ValueColor, color.RGB(168, 0, 196)},
		{ir.BoolType, ValueColor, color.New(color.FgCyan)},
		{ir.NumberType, ValueColor, color.RGB(128, 216, 236)},
		{ir.StringType, ValueColor, color.RGB(8, 196, 16)},
		{ir.BinaryType, ValueColor, color.New(color.FgYellow)},
		{ir.ObjectType, FieldColor, color.RGB(128, 168, 196)},
		{ir.ObjectType, SepColor, color.RGB(196, 128, 128)},
	} {
		c.set(p.t, p.a, p.col)
	}
	return c
}

func (c *Colors) set(t ir.Type, a ColorAttr, col *color.Color) {
	c.Map[Colorable{Type: t, Attr: a}] = func(s string, _ ...any) string {
		return col.Sprint(s)
	}
}

// Plain returns colors that leave text unchanged.
func Plain() *Colors {
	return &Colors{Default: colorDefault}
}

// For returns NewColors when f is a terminal and Plain otherwise.
func For(f *os.File) *Colors {
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return NewColors()
	}
	return Plain()
}

func colorDefault(v string, _ ...any) string { return v }

func (c *Colors) Color(t ir.Type, a ColorAttr, s string) string {
	return c.Get(t, a)(s)
}

func (c *Colors) Get(t ir.Type, a ColorAttr) func(string, ...any) string {
	if c == nil {
		return colorDefault
	}
	f := c.Map[Colorable{Type: t, Attr: a}]
	if f == nil {
		return c.Default
	}
	return f
}

// hex renders s in the #rrggbb color hexColor, when colors are enabled.
func (c *Colors) hex(hexColor, s string) string {
	if c == nil || len(c.Map) == 0 {
		return s
	}
	var r, g, b int
	if len(hexColor) != 7 {
		return s
	}
	if _, err := fmt.Sscanf(hexColor, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return s
	}
	return color.RGB(r, g, b).Sprint(s)
}
