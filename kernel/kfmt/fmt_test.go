package kfmt

import (
	"bytes"
	"testing"
)

func TestFprintfVerbs(t *testing.T) {
	specs := []struct {
		format string
		args   []interface{}
		exp    string
	}{
		{"hello world", nil, "hello world"},
		{"%d", []interface{}{42}, "42"},
		{"%5d", []interface{}{42}, "   42"},
		{"%d", []interface{}{-7}, "-7"},
		{"%x", []interface{}{uint32(0xCAFE)}, "cafe"},
		{"%4x", []interface{}{uint8(0xA)}, "000a"},
		{"%o", []interface{}{uint32(8)}, "10"},
		{"%s", []interface{}{"abc"}, "abc"},
		{"%6s", []interface{}{"abc"}, "   abc"},
		{"%s", []interface{}{[]byte("xyz")}, "xyz"},
		{"%t", []interface{}{true}, "true"},
		{"%t", []interface{}{false}, "false"},
		{"%%", nil, "%"},
		{"%d and %s", []interface{}{1, "two"}, "1 and two"},
		{"%d", nil, "(MISSING)"},
		{"%d", []interface{}{"not an int"}, "%!(WRONGTYPE)"},
		{"%d", []interface{}{1, 2}, "1%!(EXTRA)"},
		{"%z", nil, "%!(NOVERB)"},
	}

	for specIndex, spec := range specs {
		var buf bytes.Buffer
		Fprintf(&buf, spec.format, spec.args...)
		if got := buf.String(); got != spec.exp {
			t.Errorf("[spec %d] expected %q; got %q", specIndex, spec.exp, got)
		}
	}
}

func TestPrintfUsesOutputSink(t *testing.T) {
	defer SetOutputSink(nil)

	var buf bytes.Buffer
	SetOutputSink(&buf)
	Printf("n=%d", 7)

	if got, exp := buf.String(), "n=7"; got != exp {
		t.Errorf("expected %q; got %q", exp, got)
	}
	if GetOutputSink() != &buf {
		t.Error("expected GetOutputSink to return the installed sink")
	}
}

func TestPrintfBuffersBeforeSinkInstalled(t *testing.T) {
	earlyBuf = ringBuffer{}
	outputSink = nil

	Printf("buffered")

	var buf bytes.Buffer
	SetOutputSink(&buf)
	defer SetOutputSink(nil)

	if got, exp := buf.String(), "buffered"; got != exp {
		t.Errorf("expected %q; got %q", exp, got)
	}
}
