// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logx

import (
	"io"
	"log/slog"
	"os"

	"github.com/muesli/termenv"
)

// UseColor is whether to use color in log messages.
// It is on by default, and only takes effect when
// the output is a terminal that supports color.
var UseColor = true

// levelColors are the ANSI colors used for each log level.
var levelColors = map[slog.Level]string{
	slog.LevelDebug: "8",
	slog.LevelInfo:  "4",
	slog.LevelWarn:  "3",
	slog.LevelError: "1",
}

// NewHandler returns a new [slog.TextHandler] writing to w at
// [UserLevel], which colors the level names when w is a color terminal.
func NewHandler(w io.Writer) slog.Handler {
	out := termenv.NewOutput(w)
	color := UseColor && out.Profile != termenv.Ascii
	opts := &slog.HandlerOptions{
		Level: UserLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if !color || len(groups) > 0 || a.Key != slog.LevelKey {
				return a
			}
			lv, ok := a.Value.Any().(slog.Level)
			if !ok {
				return a
			}
			st := out.String(lv.String())
			if c, has := levelColors[lv]; has {
				st = st.Foreground(out.Color(c))
			}
			if lv >= slog.LevelWarn {
				st = st.Bold()
			}
			return slog.String(a.Key, st.String())
		},
	}
	return slog.NewTextHandler(w, opts)
}

// SetDefaultLogger sets the default logger to one that writes
// colored output to [os.Stderr] at [UserLevel].
func SetDefaultLogger() {
	slog.SetDefault(slog.New(NewHandler(os.Stderr)))
}
