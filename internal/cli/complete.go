package cli

import (
	"sort"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/samber/lo"

	"othello/internal/board"
)

// argValues lists the fixed arguments offered per command
var argValues = map[string][]string{
	"player":   {"black", "white", "engine"},
	"practice": {"on", "off"},
	"color":    {string(ThemeOff), string(ThemeGreen), string(ThemeGray)},
}

// Completer implements readline.AutoCompleter for the CLI commands. Moves
// complete from the engine's current legal set.
type Completer struct {
	cli *CLI
}

func (c *CLI) Completer() *Completer {
	return &Completer{cli: c}
}

func (c *Completer) commandNames() []string {
	names := append([]string(nil), c.cli.order...)
	sort.Strings(names)
	return names
}

func (c *Completer) legalSquares() []string {
	return lo.Map(c.cli.game.Legal(), func(m board.Move, _ int) string {
		return strings.ToLower(m.String())
	})
}

// Do returns the suffixes completing the word under the cursor
func (c *Completer) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	if !endsWithSpace && len(fields) > 0 {
		prefix = fields[len(fields)-1]
	}

	var completions []string
	switch {
	case len(fields) == 0 || (len(fields) == 1 && !endsWithSpace):
		// first word: a command or a square
		completions = append(c.commandNames(), c.legalSquares()...)
	default:
		cmd := strings.ToLower(fields[0])
		argIndex := len(fields) - 1
		if endsWithSpace {
			argIndex = len(fields)
		}
		if argIndex != 1 {
			break
		}
		switch cmd {
		case "move", "m":
			completions = c.legalSquares()
		case "help", "?":
			completions = c.commandNames()
		default:
			if full, ok := c.cli.commands[cmd]; ok {
				completions = argValues[full.Name]
			}
		}
	}

	lower := strings.ToLower(prefix)
	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, lower) {
			matches = append(matches, []rune(completion[len(lower):]))
		}
	}
	return matches, len(prefix)
}
