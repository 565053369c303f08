package tools

import (
	"strconv"

	"github.com/alessio/shellescape"
)

// Invocation is a fully resolved command: program plus discrete argument
// tokens. It is never joined into a shell string for execution.
type Invocation struct {
	Program string
	Args    []string
}

// Argv returns program followed by its arguments
func (inv Invocation) Argv() []string {
	argv := make([]string, 0, len(inv.Args)+1)
	argv = append(argv, inv.Program)
	return append(argv, inv.Args...)
}

// String renders the invocation quoted so it can be pasted into a shell
func (inv Invocation) String() string {
	return shellescape.QuoteCommand(inv.Argv())
}

// Build turns validated arguments into an invocation. Parameters are
// emitted in declaration order, so equal arguments always give equal
// command lines.
func (r *Registry) Build(t *Tool, args Arguments) Invocation {
	out := make([]string, 0, len(t.Command)+2*len(args)+len(t.TrailingArgs))
	out = append(out, t.Command...)

	for i := range t.Params {
		p := &t.Params[i]
		value, ok := args[p.Name]
		if !ok {
			continue
		}
		out = append(out, p.tokens(value)...)
	}

	out = append(out, t.TrailingArgs...)
	return Invocation{Program: r.program, Args: out}
}

// tokens maps one argument to its command-line tokens:
// true booleans emit the bare flag, scalars emit flag and value, lists
// emit flag and value once per element.
func (p *Param) tokens(value any) []string {
	switch p.Kind {
	case KindBoolean:
		if b, _ := value.(bool); b {
			return []string{p.Flag}
		}
		return nil
	case KindNumber:
		f, _ := value.(float64)
		return []string{p.Flag, formatNumber(f, p.Precision)}
	case KindStringList:
		list, _ := value.([]string)
		out := make([]string, 0, 2*len(list))
		for _, item := range list {
			out = append(out, p.Flag, item)
		}
		return out
	default:
		s, _ := value.(string)
		return []string{p.Flag, s}
	}
}

// formatNumber uses a fixed number of decimals; negative precision gives
// the shortest exact form.
func formatNumber(f float64, precision int) string {
	return strconv.FormatFloat(f, 'f', precision, 64)
}
