// Package render turns chat message bodies into styled terminal text and
// holds the colour themes of the interface.
package render

import (
	"os"

	"github.com/saithsab877/hivechat/internal/config"
)

// Options configures the markdown renderer
type Options struct {
	// Width is the wrap width in cells (default: 80)
	Width int

	// Style is a glamour style name ("dark", "light", "notty"...) or a path
	// to a JSON style file.
	Style string

	EnableEmoji      bool
	PreserveNewLines bool
	TableWrap        bool
	InlineTableLinks bool
}

// DefaultOptions returns the default renderer options
func DefaultOptions() Options {
	return FromConfig(config.DefaultMarkdownConfig())
}

// FromConfig builds options from the markdown section of the config file.
// GLAMOUR_STYLE overrides the configured style.
func FromConfig(md config.MarkdownConfig) Options {
	opts := Options{
		Width:            80,
		Style:            md.Style,
		EnableEmoji:      md.EnableEmoji,
		PreserveNewLines: md.PreserveNewLines,
		TableWrap:        md.TableWrap,
		InlineTableLinks: md.InlineTableLinks,
	}
	if opts.Style == "" {
		opts.Style = "dark"
	}
	if style := os.Getenv("GLAMOUR_STYLE"); style != "" {
		opts.Style = style
	}
	return opts
}

// WithWidth returns a copy with the given wrap width
func (o Options) WithWidth(width int) Options {
	o.Width = width
	return o
}

// WithStyle returns a copy with the given style
func (o Options) WithStyle(style string) Options {
	o.Style = style
	return o
}

// WithEmoji returns a copy with emoji conversion toggled
func (o Options) WithEmoji(enabled bool) Options {
	o.EnableEmoji = enabled
	return o
}

// Styles lists the glamour styles accepted without a file path
func Styles() []string {
	return []string{"dark", "light", "dracula", "tokyo-night", "pink", "notty", "ascii"}
}
