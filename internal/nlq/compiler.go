// Package nlq compiles free-form Russian analytics questions about video
// engagement into parameterized SQL over the videos / video_snapshots pair.
//
// Every compiler produces a Query whose SQL text is assembled exclusively
// from the fixed table and column whitelist in schema.go; all values taken
// from user text are bound through sequential positional placeholders.
package nlq

import (
	"context"
	"errors"
)

// ErrUnparseable is returned when no intent rule matches the question.
// It is an expected outcome: callers substitute a neutral answer.
var ErrUnparseable = errors.New("nlq: question not recognized")

// Query is the compiler output: SQL text with $1..$n placeholders and the
// ordered argument list, Args[i-1] binding $i. Intent carries the name of
// the matched rule for logs and metrics; it never reaches the SQL text.
type Query struct {
	SQL    string
	Args   []any
	Intent string
}

// Compiler turns a question into a Query or signals ErrUnparseable.
// Implementations must be safe for concurrent use.
type Compiler interface {
	Compile(ctx context.Context, question string) (Query, error)
}
