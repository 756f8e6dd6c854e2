package config

import (
	"strconv"
	"strings"

	"github.com/bamsammich/pdd/internal/size"
)

// Operand identifies a key=value command-line operand.
type Operand int

const (
	OperandIf Operand = iota + 1
	OperandOf
	OperandBS
	OperandCount
	OperandSkip
	OperandSeek
	OperandSync
	OperandDirect
	OperandFsync
)

var operandNames = [...]string{
	OperandIf:     "if",
	OperandOf:     "of",
	OperandBS:     "bs",
	OperandCount:  "count",
	OperandSkip:   "skip",
	OperandSeek:   "seek",
	OperandSync:   "sync",
	OperandDirect: "direct",
	OperandFsync:  "fsync",
}

func (o Operand) String() string {
	if o > 0 && int(o) < len(operandNames) {
		return operandNames[o]
	}
	return "unknown"
}

// Toggle reports whether the operand is a boolean switch that may appear
// without a value.
func (o Operand) Toggle() bool {
	return o == OperandSync || o == OperandDirect || o == OperandFsync
}

// LookupOperand returns the operand named name.
func LookupOperand(name string) (Operand, bool) {
	for i, n := range operandNames {
		if n != "" && n == name {
			return Operand(i), true
		}
	}
	return 0, false
}

type operandHandler func(o *Options, value string) error

var operandHandlers = map[Operand]operandHandler{
	OperandIf:     func(o *Options, v string) error { o.Input = v; return nil },
	OperandOf:     func(o *Options, v string) error { o.Output = v; return nil },
	OperandBS:     sizeHandler(OperandBS, func(o *Options) *int64 { return &o.BlockSize }),
	OperandCount:  sizeHandler(OperandCount, func(o *Options) *int64 { return &o.Count }),
	OperandSkip:   sizeHandler(OperandSkip, func(o *Options) *int64 { return &o.Skip }),
	OperandSeek:   sizeHandler(OperandSeek, func(o *Options) *int64 { return &o.Seek }),
	OperandSync:   toggleHandler(OperandSync, func(o *Options) *bool { return &o.Sync }),
	OperandDirect: toggleHandler(OperandDirect, func(o *Options) *bool { return &o.Direct }),
	OperandFsync:  toggleHandler(OperandFsync, func(o *Options) *bool { return &o.Fsync }),
}

func sizeHandler(op Operand, field func(*Options) *int64) operandHandler {
	return func(o *Options, v string) error {
		n, err := size.Parse(v)
		if err != nil {
			return &Error{Field: op.String(), Value: v, Reason: "invalid size"}
		}
		if op == OperandBS && n == 0 {
			return &Error{Field: op.String(), Value: v, Reason: "block size must be greater than zero"}
		}
		*field(o) = n
		return nil
	}
}

func toggleHandler(op Operand, field func(*Options) *bool) operandHandler {
	return func(o *Options, v string) error {
		if v == "" {
			*field(o) = true
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &Error{Field: op.String(), Value: v, Reason: "expected a boolean"}
		}
		*field(o) = b
		return nil
	}
}

// Apply sets a single operand on o.
func (o *Options) Apply(op Operand, value string) error {
	h, ok := operandHandlers[op]
	if !ok {
		return &Error{Field: op.String(), Reason: "unknown operand"}
	}
	return h(o, value)
}

// ParseOperands applies key[=value] tokens to base in order; later tokens
// override earlier ones. The result is not validated.
func ParseOperands(base Options, args []string) (Options, error) {
	o := base
	for _, arg := range args {
		key, value, hasValue := strings.Cut(arg, "=")
		op, ok := LookupOperand(key)
		if !ok {
			return base, &Error{Field: key, Reason: "unknown operand"}
		}
		if !op.Toggle() && (!hasValue || value == "") {
			return base, &Error{Field: key, Reason: "missing value"}
		}
		if err := o.Apply(op, value); err != nil {
			return base, err
		}
	}
	return o, nil
}
