package packet

import (
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestDispatchOutcomes(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(0x10, []PortCategory{PortWorld}, []Stage{StageInWorld}, func(sess any, r *Reader) error {
		return nil
	})
	reg.Register(0x11, []PortCategory{PortWorld}, []Stage{StageInWorld}, func(sess any, r *Reader) error {
		return errors.New("boom")
	})

	cases := []struct {
		name string
		cat  PortCategory
		st   Stage
		data []byte
		want Outcome
	}{
		{"ok", PortWorld, StageInWorld, []byte{0x10}, OutcomeOK},
		{"unknown opcode", PortWorld, StageInWorld, []byte{0xFF}, OutcomeUnknownOpcode},
		{"wrong port", PortAuth, StageInWorld, []byte{0x10}, OutcomeUnhandled},
		{"wrong stage", PortWorld, StageLoading, []byte{0x10}, OutcomeUnhandled},
		{"handler error", PortWorld, StageInWorld, []byte{0x11}, OutcomeHandlerError},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, _ := reg.Dispatch(nil, c.cat, c.st, c.data)
			if got != c.want {
				t.Fatalf("Dispatch(%v,%v,%v) outcome = %v, want %v", c.cat, c.st, c.data, got, c.want)
			}
		})
	}
}

func TestDispatchEmptyPacketIsError(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	_, err := reg.Dispatch(nil, PortWorld, StageInWorld, nil)
	if err == nil {
		t.Fatal("expected error for empty packet")
	}
}

func TestDispatchRecoversHandlerPanic(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(0x20, []PortCategory{PortWorld}, []Stage{StageInWorld}, func(sess any, r *Reader) error {
		panic("handler blew up")
	})
	outcome, err := reg.Dispatch(nil, PortWorld, StageInWorld, []byte{0x20})
	if err == nil {
		t.Fatal("expected error from recovered panic")
	}
	if outcome != OutcomeHandlerError {
		t.Fatalf("outcome = %v, want OutcomeHandlerError", outcome)
	}
}
