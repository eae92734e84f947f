// Package batch runs structural operations in resumable chunks. All state between
// chunks lives in a Token, so a run can be persisted after every chunk and resumed later.
package batch

import (
	"fmt"
	"time"
)

// Op names a structural operation.
type Op string

const (
	OpBuild   Op = "build"
	OpAssign  Op = "assign"
	OpDestroy Op = "destroy"
	OpSync    Op = "sync"
)

// ParseOp validates an operation name.
func ParseOp(s string) (Op, error) {
	switch op := Op(s); op {
	case OpBuild, OpAssign, OpDestroy, OpSync:
		return op, nil
	default:
		return "", fmt.Errorf("unknown operation %q (want build, assign, destroy or sync)", s)
	}
}

// MaxRecorded caps the error and warning messages a token keeps. The token is
// persisted after every chunk, so it must not grow with the item count; the
// counts stay exact.
const MaxRecorded = 100

// Phase is where a token is in its lifecycle.
type Phase string

const (
	PhaseInit Phase = "init"
	PhaseRun  Phase = "run"
	PhaseDone Phase = "done"
)

// Token is the complete state of one run. It is a plain value: Step takes one and
// returns the next.
type Token struct {
	Op       Op     `json:"op"`
	BookType string `json:"book_type,omitempty"`
	Phase    Phase  `json:"phase"`

	Progress int `json:"progress"`
	Max      int `json:"max"`

	// Snapshot is the ordered item set captured at init. Items created after init are
	// not part of the run.
	Snapshot []string `json:"snapshot,omitempty"`

	Finished float64 `json:"finished"`
	Message  string  `json:"message,omitempty"`

	Errors       []string `json:"errors,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
	ErrorCount   int      `json:"error_count,omitempty"`
	WarningCount int      `json:"warning_count,omitempty"`
	Failed       bool     `json:"failed,omitempty"`

	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// NewToken returns a fresh token for op. bookType may be empty for OpSync, meaning
// every registered book type.
func NewToken(op Op, bookType string) Token {
	return Token{Op: op, BookType: bookType, Phase: PhaseInit}
}

// Done reports whether no further Step will change the token.
func (t Token) Done() bool {
	return t.Failed || t.Phase == PhaseDone
}

// fraction is Progress/Max, with an empty run counting as complete.
func (t Token) fraction() float64 {
	if t.Max <= 0 {
		return 1.0
	}
	return float64(t.Progress) / float64(t.Max)
}

func (t *Token) addError(msg string) {
	t.ErrorCount++
	if len(t.Errors) < MaxRecorded {
		t.Errors = append(t.Errors, msg)
	}
}

func (t *Token) addWarning(msg string) {
	t.WarningCount++
	if len(t.Warnings) < MaxRecorded {
		t.Warnings = append(t.Warnings, msg)
	}
}

// fail records the error that ends the run. It is kept even past the cap.
func (t *Token) fail(err error) {
	t.ErrorCount++
	t.Errors = append(t.Errors, err.Error())
	t.Failed = true
	t.Message = fmt.Sprintf("%s failed: %v", t.Op, err)
}
