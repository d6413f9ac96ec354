package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/rzbill/sharedq/internal/entrystore"
)

// ErrInvalidExpression is returned by Compile for expressions that fail to
// parse or type-check, or that do not yield a bool.
var ErrInvalidExpression = errors.New("filter: invalid expression")

// Filter is a compiled CEL predicate over queue entries. The zero Filter
// matches everything.
//
// Variables: uid (string), timestamp (string), number (int), position (int,
// zero-based queue position) and assigned (bool).
type Filter struct {
	prog    cel.Program
	enabled bool
}

// Compile builds a Filter. An empty or blank expression matches everything.
func Compile(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Filter{}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("uid", cel.StringType),
		cel.Variable("timestamp", cel.StringType),
		cel.Variable("number", cel.IntType),
		cel.Variable("position", cel.IntType),
		cel.Variable("assigned", cel.BoolType),
	)
	if err != nil {
		return Filter{}, err
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return Filter{}, fmt.Errorf("%w: %w", ErrInvalidExpression, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return Filter{}, fmt.Errorf("%w: result is %s, want bool", ErrInvalidExpression, ast.OutputType())
	}
	prog, err := env.Program(ast)
	if err != nil {
		return Filter{}, fmt.Errorf("%w: %w", ErrInvalidExpression, err)
	}
	return Filter{prog: prog, enabled: true}, nil
}

// Match evaluates the filter against e at position pos. Evaluation errors
// count as no match.
func (f Filter) Match(e entrystore.Entry, pos int) bool {
	if !f.enabled {
		return true
	}
	out, _, err := f.prog.Eval(map[string]any{
		"uid":       e.UID,
		"timestamp": e.Timestamp,
		"number":    int64(e.Number),
		"position":  int64(pos),
		"assigned":  e.Assigned(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

// Apply returns the entries that match, keeping their order.
func (f Filter) Apply(entries []entrystore.Entry) []entrystore.Entry {
	if !f.enabled {
		return entries
	}
	out := make([]entrystore.Entry, 0, len(entries))
	for i, e := range entries {
		if f.Match(e, i) {
			out = append(out, e)
		}
	}
	return out
}
