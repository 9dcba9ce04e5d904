// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
)

const (
	// MaxLineSize bounds a single line. Longer lines are discarded.
	MaxLineSize = 1 << 20

	dataPrefix = "data: "
	doneMarker = "[DONE]"
)

// ErrLineTooLong is reported by LineReader for a line over MaxLineSize.
// The line has been consumed and reading can continue.
var ErrLineTooLong = errors.New("stream line exceeds maximum size")

// =============================================================================
// LINE READER
// =============================================================================

// LineReader splits a byte stream on '\n', trimming a trailing '\r'.
// Lines split across reads are reassembled.
type LineReader struct {
	reader *bufio.Reader
	max    int
}

// NewLineReader creates a LineReader with the MaxLineSize limit.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{reader: bufio.NewReaderSize(r, 64*1024), max: MaxLineSize}
}

// ReadLine returns the next line without its terminator. A final line
// without '\n' is returned before io.EOF.
func (l *LineReader) ReadLine() ([]byte, error) {
	var line []byte
	tooLong := false

	for {
		frag, err := l.reader.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(frag) > l.max+2 {
				tooLong = true
				line = nil
			} else {
				line = append(line, frag...)
			}
		}

		switch {
		case err == nil:
			if tooLong {
				return nil, ErrLineTooLong
			}
			return trimEOL(line), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if tooLong {
				return nil, ErrLineTooLong
			}
			if len(line) > 0 {
				return trimEOL(line), nil
			}
			return nil, io.EOF
		default:
			return nil, err
		}
	}
}

func trimEOL(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r"))
}

// =============================================================================
// EVENTS
// =============================================================================

// Event is one decoded data line.
type Event struct {
	Content string
	ChatID  string
}

type wireEvent struct {
	Content any             `json:"content"`
	ChatID  json.RawMessage `json:"chat_id"`
}

// ParseLine decodes a line. ok is false for lines that carry nothing: no
// "data: " prefix, the [DONE] marker, or malformed JSON. err is set only
// for malformed JSON so callers can log it.
func ParseLine(line []byte) (ev Event, ok bool, err error) {
	if !bytes.HasPrefix(line, []byte(dataPrefix)) {
		return Event{}, false, nil
	}
	data := line[len(dataPrefix):]
	if string(data) == doneMarker {
		return Event{}, false, nil
	}

	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return Event{}, false, err
	}

	if s, isString := w.Content.(string); isString {
		ev.Content = s
	}
	ev.ChatID = decodeChatID(w.ChatID)
	return ev, ev.Content != "" || ev.ChatID != "", nil
}

// decodeChatID accepts a string or a number. Empty, zero, false and null
// are treated as absent.
func decodeChatID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == 0 {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}
