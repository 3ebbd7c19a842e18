package scenario

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Swind/go-turn-loop/core"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid scenario")

// ParseKind maps a scenario kind to a priority class. Timer kinds resolve to
// KindShortTimer; the scheduler re-derives the class from the delay.
func ParseKind(s string) (core.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "immediate", "":
		return core.KindImmediate, nil
	case "timer", "short_timer", "long_timer":
		return core.KindShortTimer, nil
	case "end_of_turn":
		return core.KindEndOfTurn, nil
	default:
		return 0, fmt.Errorf("unknown kind %q", s)
	}
}

// Validate checks kinds, name uniqueness and cancel references.
func (s *Scenario) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if s.MaxTurns < 0 {
		return fmt.Errorf("%w: max_turns must be >= 0", ErrInvalid)
	}

	names := map[string]string{}
	var refs []ref
	if err := walk("items", s.Items, names, &refs); err != nil {
		return err
	}
	for i, name := range s.Cancel {
		refs = append(refs, ref{path: fmt.Sprintf("cancel[%d]", i), name: name})
	}
	for _, r := range refs {
		if _, ok := names[r.name]; !ok {
			return fmt.Errorf("%w: %s: unknown item %q", ErrInvalid, r.path, r.name)
		}
	}
	return nil
}

type ref struct {
	path string
	name string
}

func walk(path string, items []Item, names map[string]string, refs *[]ref) error {
	for i, it := range items {
		p := fmt.Sprintf("%s[%d]", path, i)
		if strings.TrimSpace(it.Name) == "" {
			return fmt.Errorf("%w: %s.name is required", ErrInvalid, p)
		}
		if prev, dup := names[it.Name]; dup {
			return fmt.Errorf("%w: %s.name %q already used at %s", ErrInvalid, p, it.Name, prev)
		}
		names[it.Name] = p

		if _, err := ParseKind(it.Kind); err != nil {
			return fmt.Errorf("%w: %s.kind: %v", ErrInvalid, p, err)
		}
		if it.Fail != "" && it.Panic != "" {
			return fmt.Errorf("%w: %s: fail and panic are mutually exclusive", ErrInvalid, p)
		}
		for j, name := range it.Cancel {
			*refs = append(*refs, ref{path: fmt.Sprintf("%s.cancel[%d]", p, j), name: name})
		}
		if err := walk(p+".then", it.Then, names, refs); err != nil {
			return err
		}
	}
	return nil
}
