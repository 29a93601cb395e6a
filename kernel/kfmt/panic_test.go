package kfmt

import (
	"bytes"
	"errors"
	"testing"

	"github.com/lightap/Microkernel-OS-sub001/kernel"
)

func TestPanic(t *testing.T) {
	defer func() { cpuHaltFn = func() {} }()

	var haltCalled bool
	cpuHaltFn = func() { haltCalled = true }

	t.Run("with *kernel.Error", func(t *testing.T) {
		haltCalled = false
		var buf bytes.Buffer
		SetOutputSink(&buf)
		defer SetOutputSink(nil)

		Panic(&kernel.Error{Module: "test", Message: "boom"})

		exp := "\n-----------------------------------\n[test] unrecoverable error: boom\n*** kernel panic: system halted ***\n-----------------------------------\n"
		if got := buf.String(); got != exp {
			t.Fatalf("expected:\n%q\ngot:\n%q", exp, got)
		}
		if !haltCalled {
			t.Fatal("expected cpu halt to be invoked")
		}
	})

	t.Run("with error", func(t *testing.T) {
		haltCalled = false
		var buf bytes.Buffer
		SetOutputSink(&buf)
		defer SetOutputSink(nil)

		Panic(errors.New("go error"))

		exp := "\n-----------------------------------\n[rt] unrecoverable error: go error\n*** kernel panic: system halted ***\n-----------------------------------\n"
		if got := buf.String(); got != exp {
			t.Fatalf("expected:\n%q\ngot:\n%q", exp, got)
		}
	})

	t.Run("with string", func(t *testing.T) {
		haltCalled = false
		var buf bytes.Buffer
		SetOutputSink(&buf)
		defer SetOutputSink(nil)

		Panic("raw string panic")

		exp := "\n-----------------------------------\n[rt] unrecoverable error: raw string panic\n*** kernel panic: system halted ***\n-----------------------------------\n"
		if got := buf.String(); got != exp {
			t.Fatalf("expected:\n%q\ngot:\n%q", exp, got)
		}
	})
}
