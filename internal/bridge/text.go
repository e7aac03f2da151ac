// internal/bridge/text.go
package bridge

import (
	"errors"
	"strings"

	"github.com/tamzrod/sign-controller/internal/protocol"
)

// Plain-text payloads on <prefix>/<id>/message and <prefix>/message:
//
//	#                 clear the sign
//	*text             priority message
//	[red,scroll]text  message with inline style options
//	text              message in the default style

type textKind uint8

const (
	textMessage textKind = iota
	textPriority
	textClear
)

type textPayload struct {
	kind    textKind
	text    string
	style   Style
	unknown []string // option names that matched nothing
}

// short names accepted in option lists
var optionAliases = map[string]string{
	"fish":    "fishimal",
	"balloon": "turballoon",
}

func parseText(b []byte) (textPayload, error) {
	s := strings.TrimSpace(string(b))
	if s == "" {
		return textPayload{}, errors.New("bridge: empty message")
	}

	kind := textMessage
	switch s[0] {
	case '#':
		return textPayload{kind: textClear}, nil
	case '*':
		kind = textPriority
		s = strings.TrimSpace(s[1:])
	}

	p := parseOptions(s)
	p.kind = kind
	if p.text == "" {
		return textPayload{}, errors.New("bridge: message without text")
	}
	return p, nil
}

// parseOptions splits a leading [opt,opt] list off s. A missing closing
// bracket leaves s as plain text.
func parseOptions(s string) textPayload {
	rest, ok := strings.CutPrefix(s, "[")
	if !ok {
		return textPayload{text: s}
	}
	opts, text, ok := strings.Cut(rest, "]")
	if !ok {
		return textPayload{text: s}
	}

	p := textPayload{text: strings.TrimSpace(text)}
	for _, opt := range strings.Split(opts, ",") {
		opt = strings.ToLower(strings.TrimSpace(opt))
		if opt == "" {
			continue
		}
		if alias, ok := optionAliases[opt]; ok {
			opt = alias
		}
		if !p.style.set(opt) {
			p.unknown = append(p.unknown, opt)
		}
	}
	return p
}

// set files one option name under the attribute it names.
func (st *Style) set(name string) bool {
	if _, err := protocol.ParseColor(name); err == nil {
		st.Color = name
		return true
	}
	if e, err := protocol.ParseEffect(name); err == nil && e != protocol.EffectNone {
		st.Special = name
		return true
	}
	if _, err := protocol.ParseMode(name); err == nil {
		st.Mode = name
		return true
	}
	if _, err := protocol.ParsePosition(name); err == nil {
		st.Position = name
		return true
	}
	return false
}
