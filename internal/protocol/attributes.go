// internal/protocol/attributes.go
package protocol

import (
	"fmt"
	"strings"
)

// Each attribute enum is a closed set. The zero value is invalid (except
// EffectNone) so an unset field fails fast at encode time. Value v maps to
// index v-1 of its name and code tables.

type Color uint8

const (
	ColorRed Color = iota + 1
	ColorGreen
	ColorAmber
	ColorDimRed
	ColorDimGreen
	ColorBrown
	ColorOrange
	ColorYellow
	ColorRainbow1
	ColorRainbow2
	ColorMix
	ColorAuto
)

var (
	colorNames = []string{
		"red", "green", "amber", "dimred", "dimgreen", "brown",
		"orange", "yellow", "rainbow1", "rainbow2", "colormix", "autocolor",
	}
	colorCodes = []byte("123456789ABC")
)

type Mode uint8

const (
	ModeRotate Mode = iota + 1
	ModeHold
	ModeFlash
	ModeRollUp
	ModeRollDown
	ModeRollLeft
	ModeRollRight
	ModeWipeUp
	ModeWipeDown
	ModeWipeLeft
	ModeWipeRight
	ModeScroll
	ModeSpecial
	ModeAuto
	ModeRollIn
	ModeRollOut
	ModeWipeIn
	ModeWipeOut
	ModeCompressedRotate
	ModeExplode
	ModeClock
)

var (
	modeNames = []string{
		"rotate", "hold", "flash", "rollup", "rolldown", "rollleft",
		"rollright", "wipeup", "wipedown", "wipeleft", "wiperight",
		"scroll", "special", "automode", "rollin", "rollout",
		"wipein", "wipeout", "comprotate", "explode", "clock",
	}
	modeCodes = []byte("abcefghijklmnopqrstuv")
)

// Effect is a special display mode. EffectNone means a plain mode is used.
type Effect uint8

const (
	EffectNone Effect = iota
	EffectTwinkle
	EffectSparkle
	EffectSnow
	EffectInterlock
	EffectSwitch
	EffectSlide
	EffectSpray
	EffectStarburst
	EffectWelcome
	EffectSlots
	EffectNewsFlash
	EffectTrumpet
	EffectCycleColors
	EffectThankYou
	EffectNoSmoking
	EffectDontDrinkAndDrive
	EffectFishimal
	EffectFireworks
	EffectTurbAlloon
	EffectBomb
)

var (
	effectNames = []string{
		"twinkle", "sparkle", "snow", "interlock", "switch", "slide",
		"spray", "starburst", "welcome", "slots", "newsflash", "trumpet",
		"cyclecolors", "thankyou", "nosmoking", "dontdrinkanddrive",
		"fishimal", "fireworks", "turballoon", "bomb",
	}
	effectCodes = []byte("0123456789ABCSUVWXYZ")
)

type Charset uint8

const (
	Charset5High Charset = iota + 1
	Charset5Stroke
	Charset7High
	Charset7Stroke
	Charset7HighFancy
	Charset10High
	Charset7Shadow
	CharsetFullHighFancy
	CharsetFullHigh
	Charset7ShadowFancy
	Charset5Wide
	Charset7Wide
	Charset7WideFancy
	Charset5WideStroke
)

var (
	charsetNames = []string{
		"5high", "5stroke", "7high", "7stroke", "7highfancy",
		"10high", "7shadow", "fhighfancy", "fhigh", "7shadowfancy",
		"5wide", "7wide", "7widefancy", "5widestroke",
	}
	charsetCodes = []byte("123456789:;<=>")
)

type Position uint8

const (
	PositionMiddle Position = iota + 1
	PositionTop
	PositionBottom
	PositionFill
	PositionLeft
	PositionRight
)

var (
	positionNames = []string{"midline", "topline", "botline", "fill", "left", "right"}
	positionCodes = []byte(" \"&012")
)

// SignType selects which sign models on the bus accept a frame.
type SignType uint8

const (
	SignAll SignType = iota + 1
	SignBetaBrite
	SignOneLine
	SignTwoLine
	SignAlphaVision
	SignAlphaEclipse
	SignAlphaPremiere
)

var (
	signTypeNames = []string{
		"all", "betabrite", "1line", "2line", "alphavision", "alphaeclipse", "alphapremiere",
	}
	signTypeCodes = []byte("?^12#VX")
)

// ---- table helpers ----

func codeOf[T ~uint8](field string, v T, codes []byte) (byte, error) {
	if v == 0 || int(v) > len(codes) {
		return 0, encodingErr(field, "unknown value %d", v)
	}
	return codes[v-1], nil
}

func valueOf[T ~uint8](code byte, codes []byte) (T, bool) {
	for i, c := range codes {
		if c == code {
			return T(i + 1), true
		}
	}
	return 0, false
}

func nameOf[T ~uint8](v T, names []string) string {
	if v == 0 || int(v) > len(names) {
		return fmt.Sprintf("invalid(%d)", v)
	}
	return names[v-1]
}

func parseName[T ~uint8](field, s string, names []string) (T, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return T(i + 1), nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q (want one of %s)", field, s, strings.Join(names, ", "))
}

// ---- Color ----

func ParseColor(s string) (Color, error) { return parseName[Color]("color", s, colorNames) }
func (c Color) String() string           { return nameOf(c, colorNames) }
func (c Color) Valid() bool              { return c > 0 && int(c) <= len(colorNames) }
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
func (c *Color) UnmarshalText(b []byte) (err error) {
	*c, err = ParseColor(string(b))
	return err
}

// ---- Mode ----

func ParseMode(s string) (Mode, error) { return parseName[Mode]("mode", s, modeNames) }
func (m Mode) String() string          { return nameOf(m, modeNames) }
func (m Mode) Valid() bool             { return m > 0 && int(m) <= len(modeNames) }
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
func (m *Mode) UnmarshalText(b []byte) (err error) {
	*m, err = ParseMode(string(b))
	return err
}

// ---- Effect ----

// ParseEffect accepts "" and "none" as EffectNone.
func ParseEffect(s string) (Effect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return EffectNone, nil
	}
	return parseName[Effect]("effect", s, effectNames)
}

func (e Effect) String() string {
	if e == EffectNone {
		return "none"
	}
	return nameOf(e, effectNames)
}
func (e Effect) Valid() bool { return int(e) <= len(effectNames) }
func (e Effect) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}
func (e *Effect) UnmarshalText(b []byte) (err error) {
	*e, err = ParseEffect(string(b))
	return err
}

// ---- Charset ----

func ParseCharset(s string) (Charset, error) { return parseName[Charset]("charset", s, charsetNames) }
func (c Charset) String() string             { return nameOf(c, charsetNames) }
func (c Charset) Valid() bool                { return c > 0 && int(c) <= len(charsetNames) }
func (c Charset) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
func (c *Charset) UnmarshalText(b []byte) (err error) {
	*c, err = ParseCharset(string(b))
	return err
}

// ---- Position ----

func ParsePosition(s string) (Position, error) {
	return parseName[Position]("position", s, positionNames)
}
func (p Position) String() string { return nameOf(p, positionNames) }
func (p Position) Valid() bool    { return p > 0 && int(p) <= len(positionNames) }
func (p Position) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
func (p *Position) UnmarshalText(b []byte) (err error) {
	*p, err = ParsePosition(string(b))
	return err
}

// ---- SignType ----

func ParseSignType(s string) (SignType, error) {
	return parseName[SignType]("sign type", s, signTypeNames)
}
func (t SignType) String() string { return nameOf(t, signTypeNames) }
func (t SignType) Valid() bool    { return t > 0 && int(t) <= len(signTypeNames) }
func (t SignType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
func (t *SignType) UnmarshalText(b []byte) (err error) {
	*t, err = ParseSignType(string(b))
	return err
}

// Code returns the wire code for the sign type.
func (t SignType) Code() (byte, error) { return codeOf("sign type", t, signTypeCodes) }

// ---- Attributes ----

// Attributes is the rendering style of one text file.
type Attributes struct {
	Color    Color    `json:"color" yaml:"color"`
	Mode     Mode     `json:"mode" yaml:"mode"`
	Effect   Effect   `json:"effect" yaml:"effect"`
	Charset  Charset  `json:"charset" yaml:"charset"`
	Position Position `json:"position" yaml:"position"`
	Speed    int      `json:"speed" yaml:"speed"`
}

// Normalized returns the attributes as they travel on the wire: any effect
// forces the special mode.
func (a Attributes) Normalized() Attributes {
	if a.Effect != EffectNone {
		a.Mode = ModeSpecial
	}
	return a
}

// ControlCodes translates the attributes into the control-code prefix of a
// text file: ESC position mode [effect] charset speed color.
func (a Attributes) ControlCodes() ([]byte, error) {
	a = a.Normalized()

	pos, err := codeOf("position", a.Position, positionCodes)
	if err != nil {
		return nil, err
	}
	mode, err := codeOf("mode", a.Mode, modeCodes)
	if err != nil {
		return nil, err
	}
	charset, err := codeOf("charset", a.Charset, charsetCodes)
	if err != nil {
		return nil, err
	}
	color, err := codeOf("color", a.Color, colorCodes)
	if err != nil {
		return nil, err
	}
	if a.Speed < 1 || a.Speed > len(speedCodes) {
		return nil, encodingErr("speed", "%d out of range 1-%d", a.Speed, len(speedCodes))
	}

	out := []byte{ESC, pos, mode}
	if a.Mode == ModeSpecial {
		if a.Effect == EffectNone {
			return nil, encodingErr("effect", "special mode requires an effect")
		}
		eff, err := codeOf("effect", a.Effect, effectCodes)
		if err != nil {
			return nil, err
		}
		out = append(out, eff)
	}
	out = append(out,
		FormatSelectCharset, charset,
		speedCodes[a.Speed-1],
		FormatSelectColor, color,
	)
	return out, nil
}

// DecodeControlCodes is the inverse of ControlCodes. It returns the decoded
// attributes and the remaining bytes (the text payload).
func DecodeControlCodes(b []byte) (Attributes, []byte, error) {
	var a Attributes
	var ok bool

	take := func(field string) (byte, error) {
		if len(b) == 0 {
			return 0, fmt.Errorf("%w: missing %s", ErrTruncated, field)
		}
		c := b[0]
		b = b[1:]
		return c, nil
	}
	expect := func(want byte, field string) error {
		c, err := take(field)
		if err != nil {
			return err
		}
		if c != want {
			return fmt.Errorf("%w: %s marker 0x%02x, want 0x%02x", ErrBadFraming, field, c, want)
		}
		return nil
	}

	if err := expect(ESC, "escape"); err != nil {
		return a, nil, err
	}

	c, err := take("position")
	if err != nil {
		return a, nil, err
	}
	if a.Position, ok = valueOf[Position](c, positionCodes); !ok {
		return a, nil, fmt.Errorf("%w: unknown position code 0x%02x", ErrBadFraming, c)
	}

	if c, err = take("mode"); err != nil {
		return a, nil, err
	}
	if a.Mode, ok = valueOf[Mode](c, modeCodes); !ok {
		return a, nil, fmt.Errorf("%w: unknown mode code 0x%02x", ErrBadFraming, c)
	}

	if a.Mode == ModeSpecial {
		if c, err = take("effect"); err != nil {
			return a, nil, err
		}
		if a.Effect, ok = valueOf[Effect](c, effectCodes); !ok {
			return a, nil, fmt.Errorf("%w: unknown effect code 0x%02x", ErrBadFraming, c)
		}
	}

	if err := expect(FormatSelectCharset, "charset"); err != nil {
		return a, nil, err
	}
	if c, err = take("charset"); err != nil {
		return a, nil, err
	}
	if a.Charset, ok = valueOf[Charset](c, charsetCodes); !ok {
		return a, nil, fmt.Errorf("%w: unknown charset code 0x%02x", ErrBadFraming, c)
	}

	if c, err = take("speed"); err != nil {
		return a, nil, err
	}
	speed, ok := valueOf[uint8](c, speedCodes[:])
	if !ok {
		return a, nil, fmt.Errorf("%w: unknown speed code 0x%02x", ErrBadFraming, c)
	}
	a.Speed = int(speed)

	if err := expect(FormatSelectColor, "color"); err != nil {
		return a, nil, err
	}
	if c, err = take("color"); err != nil {
		return a, nil, err
	}
	if a.Color, ok = valueOf[Color](c, colorCodes); !ok {
		return a, nil, fmt.Errorf("%w: unknown color code 0x%02x", ErrBadFraming, c)
	}

	return a, b, nil
}

// AllColors and friends enumerate each closed set, for validation and tests.
func AllColors() []Color {
	out := make([]Color, len(colorNames))
	for i := range out {
		out[i] = Color(i + 1)
	}
	return out
}

func AllModes() []Mode {
	out := make([]Mode, len(modeNames))
	for i := range out {
		out[i] = Mode(i + 1)
	}
	return out
}

func AllEffects() []Effect {
	out := make([]Effect, len(effectNames)+1)
	for i := range out {
		out[i] = Effect(i)
	}
	return out
}

func AllCharsets() []Charset {
	out := make([]Charset, len(charsetNames))
	for i := range out {
		out[i] = Charset(i + 1)
	}
	return out
}

func AllPositions() []Position {
	out := make([]Position, len(positionNames))
	for i := range out {
		out[i] = Position(i + 1)
	}
	return out
}
