package packet

import (
	"fmt"

	"go.uber.org/zap"
)

// Stage is a session's position in the connection lifecycle.
type Stage int

const (
	StageUnauthenticated Stage = iota
	StageAuthenticated
	StageInRealm
	StageLoading
	StageInWorld
	StageDisconnecting
)

func (s Stage) String() string {
	switch s {
	case StageUnauthenticated:
		return "Unauthenticated"
	case StageAuthenticated:
		return "Authenticated"
	case StageInRealm:
		return "InRealm"
	case StageLoading:
		return "Loading"
	case StageInWorld:
		return "InWorld"
	case StageDisconnecting:
		return "Disconnecting"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// PortCategory partitions opcode space by which listener accepted the
// connection; an opcode registered under one category is rejected on
// a session that connected through another.
type PortCategory int

const (
	PortAuth PortCategory = iota
	PortRealm
	PortWorld
)

// HandlerFunc processes one decoded packet for a session. sess is
// passed as an opaque interface so this package never imports the
// session type (avoids an import cycle with netio).
type HandlerFunc func(sess any, r *Reader) error

// Outcome classifies what Dispatch did with one packet, so the caller
// can maintain dispatched/unknown/unhandled/error counters without
// Dispatch itself needing a metrics dependency.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeUnknownOpcode
	OutcomeUnhandled // registered opcode but wrong port/stage for this session
	OutcomeHandlerError
)

type handlerEntry struct {
	categories map[PortCategory]bool
	fn         HandlerFunc
	allowed    map[Stage]bool
}

// Registry maps opcodes to handlers gated by port category and
// session stage.
type Registry struct {
	handlers map[byte]*handlerEntry
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{handlers: make(map[byte]*handlerEntry), log: log}
}

// Register binds opcode to fn for the given port categories and
// session stages. Some opcodes are legal on more than one port (the
// credential exchange runs on both the auth and world listeners), so
// cats is a slice.
func (reg *Registry) Register(opcode byte, cats []PortCategory, stages []Stage, fn HandlerFunc) {
	categories := make(map[PortCategory]bool, len(cats))
	for _, c := range cats {
		categories[c] = true
	}
	allowed := make(map[Stage]bool, len(stages))
	for _, s := range stages {
		allowed[s] = true
	}
	reg.handlers[opcode] = &handlerEntry{categories: categories, fn: fn, allowed: allowed}
}

// Dispatch looks up data's opcode, checks port category and stage,
// and invokes the handler. Unknown opcodes, wrong-category opcodes,
// out-of-stage opcodes, and handler panics are all logged and
// swallowed here — none of them may crash the connection server or
// the zone actor a handler runs against. The returned Outcome
// lets the caller maintain dispatch counters without Dispatch itself
// needing a metrics dependency.
func (reg *Registry) Dispatch(sess any, cat PortCategory, stage Stage, data []byte) (outcome Outcome, err error) {
	if len(data) == 0 {
		return OutcomeUnknownOpcode, fmt.Errorf("dispatch: empty packet")
	}
	opcode := data[0]

	defer func() {
		if r := recover(); r != nil {
			reg.log.Error("handler panicked", zap.Uint8("opcode", opcode), zap.Any("panic", r))
			outcome, err = OutcomeHandlerError, fmt.Errorf("handler panic: opcode %d: %v", opcode, r)
		}
	}()

	entry, ok := reg.handlers[opcode]
	if !ok {
		reg.log.Debug("unknown opcode", zap.Uint8("opcode", opcode), zap.String("stage", stage.String()))
		return OutcomeUnknownOpcode, nil
	}
	if !entry.categories[cat] {
		reg.log.Warn("opcode not valid on this port", zap.Uint8("opcode", opcode), zap.String("stage", stage.String()))
		return OutcomeUnhandled, nil
	}
	if !entry.allowed[stage] {
		reg.log.Debug("opcode not allowed in stage", zap.Uint8("opcode", opcode), zap.String("stage", stage.String()))
		return OutcomeUnhandled, nil
	}

	r := NewReader(data)
	if err := entry.fn(sess, r); err != nil {
		reg.log.Error("handler error", zap.Uint8("opcode", opcode), zap.Error(err))
		return OutcomeHandlerError, nil
	}
	return OutcomeOK, nil
}
