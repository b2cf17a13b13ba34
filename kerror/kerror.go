package kerror

import (
	"encoding/hex"
	"fmt"
	"runtime/debug"
	"strings"
)

type Keypair struct {
	K string
	V interface{}
}

// Kerror is the error type used across this repo. Type is an event-style
// name (CamelCase, greppable), Details keep insertion order (a map would
// not), Stack is optional since capturing it is expensive.
type Kerror struct {
	Type      string
	Msg       string
	Details   []Keypair
	Stack     string
	CausedBy  error
	ErrorCode ErrorCode
}

func Create(errType string, msg string) *Kerror {
	return &Kerror{
		Type:      errType,
		Msg:       msg,
		Stack:     GetCallStack(1),
		ErrorCode: EC_UNKNOWN,
	}
}

// Wrap builds a Kerror around an inner error. Only attach a stack when the
// inner error is not already a Kerror (which carries its own).
func Wrap(err error, errType, msg string, needStack bool) *Kerror {
	ke := &Kerror{
		Type:      errType,
		Msg:       msg,
		CausedBy:  err,
		ErrorCode: EC_UNKNOWN,
	}
	if Retryable(err) {
		ke.ErrorCode = EC_RETRYABLE
	}
	if needStack {
		if _, ok := err.(*Kerror); !ok {
			ke.Stack = GetCallStack(1)
		}
	}
	return ke
}

func (ke *Kerror) With(key string, val interface{}) *Kerror {
	ke.Details = append(ke.Details, Keypair{K: key, V: val})
	return ke
}

func (ke *Kerror) WithErrorCode(code ErrorCode) *Kerror {
	ke.ErrorCode = code
	return ke
}

func (ke *Kerror) WithoutStack() *Kerror {
	ke.Stack = ""
	return ke
}

func (ke *Kerror) GetType() string {
	return ke.Type
}

func (ke *Kerror) GetHttpErrorCode() int {
	return ke.ErrorCode.ToHttpErrorCode()
}

// Unwrap makes Kerror cooperate with errors.Is()/errors.As().
func (ke *Kerror) Unwrap() error {
	return ke.CausedBy
}

func (ke *Kerror) Error() string {
	return ke.ShortString()
}

func (ke *Kerror) String() string {
	return ke.FullString()
}

// ShortString: type, msg and details only.
func (ke *Kerror) ShortString() string {
	var b strings.Builder
	b.Grow(256)
	ke.buildString(&b, false /*withStack*/, false /*withCause*/)
	return b.String()
}

// FullString: everything, including stack and cause chain.
func (ke *Kerror) FullString() string {
	var b strings.Builder
	b.Grow(1024)
	ke.buildString(&b, true /*withStack*/, true /*withCause*/)
	return b.String()
}

func (ke *Kerror) CausedByString() string {
	var b strings.Builder
	b.Grow(256)
	ke.buildCauseString(&b, false /*withStack*/, true /*withCause*/)
	return b.String()
}

func (ke *Kerror) buildString(b *strings.Builder, withStack, withCause bool) {
	fmt.Fprintf(b, "%s: %s", ke.Type, ke.Msg)
	for _, item := range ke.Details {
		fmt.Fprintf(b, ", %s=%v", item.K, formatVal(item.V))
	}
	if withStack && ke.Stack != "" {
		fmt.Fprintf(b, ", stack=%s", ke.Stack)
	}
	if withCause {
		fmt.Fprintf(b, ";\n Caused by: ")
		ke.buildCauseString(b, withStack, withCause)
		fmt.Fprintf(b, "\n")
	}
}

func (ke *Kerror) buildCauseString(b *strings.Builder, withStack, withCause bool) {
	if ke.CausedBy == nil {
		return
	}
	if cause, ok := ke.CausedBy.(*Kerror); ok {
		cause.buildString(b, withStack, withCause)
	} else {
		fmt.Fprintf(b, "%s", ke.CausedBy.Error())
	}
}

func formatVal(val interface{}) interface{} {
	if bytes, ok := val.([]byte); ok {
		return hex.EncodeToString(bytes)
	}
	return val
}

// GetCallStack returns the current stack with the top removeTop frames (and
// the debug.Stack plumbing itself) trimmed off.
func GetCallStack(removeTop int) string {
	stack := string(debug.Stack())
	split := strings.SplitAfterN(stack, "\n", 6+2*removeTop)
	return split[len(split)-1]
}

// ******************** Retryable ********************

type retryable interface {
	Retryable() bool
}

func (ke *Kerror) Retryable() bool {
	return ke.ErrorCode == EC_RETRYABLE
}

// Retryable reports whether err (not necessarily a Kerror) is retryable.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	retry, ok := err.(retryable)
	if !ok {
		return false
	}
	return retry.Retryable()
}
