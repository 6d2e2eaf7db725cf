package agents

import (
	"fmt"
	"strings"
)

// Few-shot line prefixes. The format is a fixed platform convention:
// stanzas separated by blank lines, each opening with "Q:" and closing with
// "A:", with optional func exchanges in between:
//
//	Q: How much is 2 + 2?
//	Ask Func[calc]: 2 + 2
//	Func[calc] says: 4
//	A: The answer is 4.
const (
	queryPrefix   = "Q:"
	answerPrefix  = "A:"
	askFuncPrefix = "Ask Func["
	funcSaysOpen  = "Func["
)

// FewShot is one parsed example exchange from an agent's prompt.
type FewShot struct {
	// Query is the example user text after the opening "Q:".
	Query string
	// Answer is the example reply after the closing "A:", "" when the
	// stanza has no answer line.
	Answer string
	// Raw preserves the stanza exactly as written, for the platform
	// metadata handshake.
	Raw string

	funcCalls []string
}

// FuncCalls returns the func names this stanza invokes via "Ask Func[...]",
// in order of appearance.
func (f FewShot) FuncCalls() []string {
	out := make([]string, len(f.funcCalls))
	copy(out, f.funcCalls)
	return out
}

// ParseFewShots splits text into blank-line separated stanzas and parses
// each one. Lines that carry no recognized prefix continue the preceding
// field, so multi-line queries and answers are allowed.
func ParseFewShots(text string) ([]FewShot, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var shots []FewShot
	for i, stanza := range splitStanzas(text) {
		shot, err := parseStanza(stanza)
		if err != nil {
			return nil, fmt.Errorf("few-shot %d: %w", i+1, err)
		}
		shots = append(shots, shot)
	}
	return shots, nil
}

// splitStanzas groups consecutive non-blank lines.
func splitStanzas(text string) []string {
	var stanzas []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			stanzas = append(stanzas, strings.Join(cur, "\n"))
			cur = nil
		}
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return stanzas
}

func parseStanza(stanza string) (FewShot, error) {
	shot := FewShot{Raw: stanza}

	// last points at the field a continuation line appends to.
	var last *string

	for _, line := range strings.Split(stanza, "\n") {
		switch {
		case strings.HasPrefix(line, queryPrefix):
			if shot.Query != "" {
				return FewShot{}, fmt.Errorf("second %q in stanza", queryPrefix)
			}
			shot.Query = strings.TrimSpace(strings.TrimPrefix(line, queryPrefix))
			last = &shot.Query

		case strings.HasPrefix(line, askFuncPrefix):
			if shot.Query == "" {
				return FewShot{}, fmt.Errorf("stanza must open with %q", queryPrefix)
			}
			name, err := parseFuncRef(line[len(askFuncPrefix):])
			if err != nil {
				return FewShot{}, err
			}
			shot.funcCalls = append(shot.funcCalls, name)
			last = nil // func args never continue onto following lines

		case strings.HasPrefix(line, funcSaysOpen) && strings.Contains(line, "] says:"):
			if shot.Query == "" {
				return FewShot{}, fmt.Errorf("stanza must open with %q", queryPrefix)
			}
			last = nil

		case strings.HasPrefix(line, answerPrefix):
			if shot.Query == "" {
				return FewShot{}, fmt.Errorf("stanza must open with %q", queryPrefix)
			}
			shot.Answer = strings.TrimSpace(strings.TrimPrefix(line, answerPrefix))
			last = &shot.Answer

		default:
			if last == nil {
				if shot.Query == "" {
					return FewShot{}, fmt.Errorf("stanza must open with %q", queryPrefix)
				}
				return FewShot{}, fmt.Errorf("unexpected continuation line %q", line)
			}
			*last += "\n" + line
		}
	}

	if shot.Query == "" {
		return FewShot{}, fmt.Errorf("stanza must open with %q", queryPrefix)
	}
	return shot, nil
}

// parseFuncRef extracts the func name from the remainder of an
// "Ask Func[name]: args" line, starting just past the open bracket.
func parseFuncRef(rest string) (string, error) {
	end := strings.Index(rest, "]:")
	if end < 0 {
		return "", fmt.Errorf("malformed func reference: missing %q", "]:")
	}
	name := rest[:end]
	if !validFuncName(name) {
		return "", fmt.Errorf("invalid func name %q", name)
	}
	return name, nil
}
