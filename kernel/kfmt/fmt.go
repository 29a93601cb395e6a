// Package kfmt provides an allocation-free, minimal Printf implementation
// that the kernel can use before the Go runtime's memory allocator has been
// bootstrapped (see kernel/goruntime). It deliberately does not reuse the
// standard library's fmt package: fmt's verb dispatch goes through
// interface conversions that allocate, which would crash the kernel if
// exercised before kernel/goruntime.Init runs.
package kfmt

import (
	"io"
	"unsafe"
)

// maxNumWidth bounds the scratch buffer used while formatting integers.
const maxNumWidth = 32

var (
	msgMissingArg = []byte("(MISSING)")
	msgBadArgType = []byte("%!(WRONGTYPE)")
	msgNoVerb     = []byte("%!(NOVERB)")
	msgExtraArg   = []byte("%!(EXTRA)")
	msgTrue       = []byte("true")
	msgFalse      = []byte("false")

	numScratch = make([]byte, maxNumWidth)

	// oneByte is a shared single-byte buffer used to avoid allocating a
	// new slice for every rune written out.
	oneByte = []byte{0}

	// earlyBuf accumulates Printf output produced before SetOutputSink is
	// called with a live console/TTY.
	earlyBuf ringBuffer

	// outputSink receives formatted output once set; nil redirects to
	// earlyBuf instead.
	outputSink io.Writer
)

// SetOutputSink directs future Printf calls to w and flushes anything
// buffered in earlyBuf to it.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		io.Copy(w, &earlyBuf)
	}
}

// GetOutputSink returns the writer currently installed via SetOutputSink, or
// nil if output is still being buffered.
func GetOutputSink() io.Writer {
	return outputSink
}

// Printf writes a formatted string to the currently active output sink (or
// to an internal ring buffer if none has been installed yet). It supports a
// narrow subset of the standard verbs:
//
//	%s  string or []byte, left-padded with spaces to the given width
//	%o  integer, base 8
//	%d  integer, base 10, left-padded with spaces
//	%x  integer, base 16 (lower-case), left-padded with zeroes
//	%t  bool
//
// A decimal number immediately before the verb sets the minimum field width.
// Pointers (%p) are intentionally unsupported: formatting one would require
// importing the reflect package, which pulls in allocating runtime helpers.
func Printf(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
}

// Fprintf behaves like Printf but writes to w explicitly.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		ch                           byte
		argIndex                     int
		blockStart, blockEnd, padLen int
		fmtLen                       = len(format)
	)

	for blockEnd < fmtLen {
		ch = format[blockEnd]
		if ch != '%' {
			blockEnd++
			continue
		}

		if blockStart < blockEnd {
			writeRange(w, format, blockStart, blockEnd)
		}

		padLen = 0
		blockEnd++
	scanVerb:
		for ; blockEnd < fmtLen; blockEnd++ {
			ch = format[blockEnd]
			switch {
			case ch == '%':
				oneByte[0] = '%'
				emit(w, oneByte)
				break scanVerb
			case ch >= '0' && ch <= '9':
				padLen = (padLen * 10) + int(ch-'0')
				continue
			case ch == 'd' || ch == 'x' || ch == 'o' || ch == 's' || ch == 't':
				if argIndex >= len(args) {
					emit(w, msgMissingArg)
					break scanVerb
				}

				switch ch {
				case 'o':
					emitInt(w, args[argIndex], 8, padLen)
				case 'd':
					emitInt(w, args[argIndex], 10, padLen)
				case 'x':
					emitInt(w, args[argIndex], 16, padLen)
				case 's':
					emitString(w, args[argIndex], padLen)
				case 't':
					emitBool(w, args[argIndex])
				}

				argIndex++
				break scanVerb
			}

			emit(w, msgNoVerb)
		}
		blockStart, blockEnd = blockEnd+1, blockEnd+1
	}

	if blockStart != blockEnd {
		writeRange(w, format, blockStart, blockEnd)
	}

	for ; argIndex < len(args); argIndex++ {
		emit(w, msgExtraArg)
	}
}

// writeRange emits format[from:to] one byte at a time; slicing a string and
// passing the result to an io.Writer would otherwise allocate.
func writeRange(w io.Writer, format string, from, to int) {
	for i := from; i < to; i++ {
		oneByte[0] = format[i]
		emit(w, oneByte)
	}
}

func emitBool(w io.Writer, v interface{}) {
	b, ok := v.(bool)
	if !ok {
		emit(w, msgBadArgType)
		return
	}
	if b {
		emit(w, msgTrue)
	} else {
		emit(w, msgFalse)
	}
}

func emitString(w io.Writer, v interface{}, padLen int) {
	switch val := v.(type) {
	case string:
		padSpaces(w, padLen-len(val))
		for i := 0; i < len(val); i++ {
			oneByte[0] = val[i]
			emit(w, oneByte)
		}
	case []byte:
		padSpaces(w, padLen-len(val))
		emit(w, val)
	default:
		emit(w, msgBadArgType)
	}
}

func padSpaces(w io.Writer, count int) {
	oneByte[0] = ' '
	for i := 0; i < count; i++ {
		emit(w, oneByte)
	}
}

// emitInt formats v (any built-in signed/unsigned integer type) in the given
// base, applying padLen of left padding.
func emitInt(w io.Writer, v interface{}, base, padLen int) {
	var (
		signed           int64
		unsigned         uint64
		divisor          uint64
		padCh            byte
		left, right, end int
	)

	if padLen >= maxNumWidth {
		padLen = maxNumWidth - 1
	}

	switch base {
	case 8:
		divisor, padCh = 8, '0'
	case 10:
		divisor, padCh = 10, ' '
	case 16:
		divisor, padCh = 16, '0'
	}

	switch val := v.(type) {
	case uint8:
		unsigned = uint64(val)
	case uint16:
		unsigned = uint64(val)
	case uint32:
		unsigned = uint64(val)
	case uint64:
		unsigned = val
	case uintptr:
		unsigned = uint64(val)
	case int8:
		signed = int64(val)
	case int16:
		signed = int64(val)
	case int32:
		signed = int64(val)
	case int64:
		signed = val
	case int:
		signed = int64(val)
	default:
		emit(w, msgBadArgType)
		return
	}

	if signed < 0 {
		unsigned = uint64(-signed)
	} else if signed > 0 {
		unsigned = uint64(signed)
	}

	for right < maxNumWidth {
		digit := unsigned % divisor
		if digit < 10 {
			numScratch[right] = byte(digit) + '0'
		} else {
			numScratch[right] = byte(digit-10) + 'a'
		}
		right++

		unsigned /= divisor
		if unsigned == 0 {
			break
		}
	}

	for ; right-left < padLen; right++ {
		numScratch[right] = padCh
	}

	if signed < 0 {
		for end = right - 1; numScratch[end] == ' '; end-- {
		}
		if end == right-1 {
			right++
		}
		numScratch[end+1] = '-'
	}

	end = right
	for right = right - 1; left < right; left, right = left+1, right-1 {
		numScratch[left], numScratch[right] = numScratch[right], numScratch[left]
	}

	emit(w, numScratch[0:end])
}

// emit routes p to the active sink, hiding p from escape analysis via the
// noEscape trick so Printf calls made before the allocator is up don't
// trigger a runtime.convT2E-driven allocation.
func emit(w io.Writer, p []byte) {
	emitReal(w, noEscape(unsafe.Pointer(&p)))
}

func emitReal(w io.Writer, bufPtr unsafe.Pointer) {
	p := *(*[]byte)(bufPtr)
	if w != nil {
		w.Write(p)
	} else {
		earlyBuf.Write(p)
	}
}

//go:nosplit
func noEscape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
