package logic

import (
	"fmt"
	"strconv"
	"strings"
)

// ActionKind is the closed set of action categories.
type ActionKind uint8

const (
	KindShortPress ActionKind = iota + 1
	KindLongPress
	KindHold
	KindMultiPress
)

const multiPressSuffix = "_MULTI_PRESS"

// Action is a normalized classified action.
// The zero value is not a valid action. A multi-press always has a count of
// at least 2; a count of 1 is represented as ShortPress.
type Action struct {
	kind  ActionKind
	count int
}

var (
	ShortPress  = Action{kind: KindShortPress}
	LongPress   = Action{kind: KindLongPress}
	Hold        = Action{kind: KindHold}
	DoublePress = Action{kind: KindMultiPress, count: 2}
)

// MultiPress returns the action for n consecutive short presses.
// n == 1 normalizes to ShortPress. n < 1 fails with ErrInvalidAction.
func MultiPress(n int) (Action, error) {
	if n < 1 {
		return Action{}, fmt.Errorf("%w: %d%s", ErrInvalidAction, n, multiPressSuffix)
	}
	return multiPress(n), nil
}

// multiPress is MultiPress for counts already known to be positive.
func multiPress(n int) Action {
	if n == 1 {
		return ShortPress
	}
	return Action{kind: KindMultiPress, count: n}
}

// ParseAction converts an action name to its normalized Action.
//
// Accepted names are SHORT_PRESS, LONG_PRESS, HOLD, DOUBLE_PRESS and
// "<N>_MULTI_PRESS" for a positive decimal N.
func ParseAction(s string) (Action, error) {
	switch s {
	case "SHORT_PRESS":
		return ShortPress, nil
	case "LONG_PRESS":
		return LongPress, nil
	case "HOLD":
		return Hold, nil
	case "DOUBLE_PRESS":
		return DoublePress, nil
	}

	num, ok := strings.CutSuffix(s, multiPressSuffix)
	if !ok || num == "" {
		return Action{}, fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 1 {
		return Action{}, fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
	return multiPress(n), nil
}

// Kind returns the action category.
func (a Action) Kind() ActionKind {
	return a.kind
}

// Count returns the number of presses the action represents:
// 1 for a short press, N for a multi-press and 0 otherwise.
func (a Action) Count() int {
	switch a.kind {
	case KindShortPress:
		return 1
	case KindMultiPress:
		return a.count
	}
	return 0
}

// IsValid reports whether a is one of the normalized actions.
func (a Action) IsValid() bool {
	switch a.kind {
	case KindShortPress, KindLongPress, KindHold:
		return a.count == 0
	case KindMultiPress:
		return a.count >= 2
	}
	return false
}

func (a Action) String() string {
	switch a.kind {
	case KindShortPress:
		return "SHORT_PRESS"
	case KindLongPress:
		return "LONG_PRESS"
	case KindHold:
		return "HOLD"
	case KindMultiPress:
		return strconv.Itoa(a.count) + multiPressSuffix
	}
	return "INVALID"
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	if !a.IsValid() {
		return nil, fmt.Errorf("%w: zero action", ErrInvalidAction)
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
