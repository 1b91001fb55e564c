// Package early provides an allocation-free Printf implementation that can
// be used before the heap, the console drivers and the rest of the Go
// runtime bootstrap have completed. Output goes straight to the COM1 serial
// port, which is the only output device the spec guarantees is reachable
// at this point in boot (the framebuffer may not be mapped yet).
package early

import "github.com/Zafnok/hobby-os/kernel/serial"

var (
	// writeByteFn sends a single byte to the active early-boot output
	// device. It defaults to the serial port and is swapped out by tests.
	writeByteFn = serial.WriteByte

	errMissingArg   = []byte("(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")
)

// writeBytes emits a byte slice one byte at a time; slicing operations that
// would trigger a runtime.convT2E/newobject call are deliberately avoided
// throughout this file.
func writeBytes(p []byte) {
	for _, b := range p {
		writeByteFn(b)
	}
}

// Printf is a minimal, allocation-free formatter supporting the verbs %s,
// %d, %o, %x and %t, with an optional decimal width prefix (e.g. "%16x").
// It never touches the heap, so it is safe to call from the very first
// instruction of Kmain through to the point where kfmt.SetOutputSink takes
// over general-purpose logging.
func Printf(format string, args ...interface{}) {
	var (
		nextCh                       byte
		nextArgIndex                 int
		blockStart, blockEnd, padLen int
		fmtLen                       = len(format)
	)

	for blockEnd < fmtLen {
		nextCh = format[blockEnd]
		if nextCh != '%' {
			blockEnd++
			continue
		}

		for i := blockStart; i < blockEnd; i++ {
			writeByteFn(format[i])
		}

		padLen = 0
		blockEnd++
	parseFmt:
		for ; blockEnd < fmtLen; blockEnd++ {
			nextCh = format[blockEnd]
			switch {
			case nextCh == '%':
				writeByteFn('%')
				break parseFmt
			case nextCh >= '0' && nextCh <= '9':
				padLen = (padLen * 10) + int(nextCh-'0')
				continue
			case nextCh == 'd' || nextCh == 'x' || nextCh == 'o' || nextCh == 's' || nextCh == 't':
				if nextArgIndex >= len(args) {
					writeBytes(errMissingArg)
					break parseFmt
				}

				switch nextCh {
				case 'o':
					writeInt(args[nextArgIndex], 8, padLen)
				case 'd':
					writeInt(args[nextArgIndex], 10, padLen)
				case 'x':
					writeInt(args[nextArgIndex], 16, padLen)
				case 's':
					writeString(args[nextArgIndex], padLen)
				case 't':
					writeBool(args[nextArgIndex])
				}

				nextArgIndex++
				break parseFmt
			default:
				writeBytes(errNoVerb)
				break parseFmt
			}
		}
		blockStart, blockEnd = blockEnd+1, blockEnd+1
	}

	for i := blockStart; i < blockEnd; i++ {
		writeByteFn(format[i])
	}

	for ; nextArgIndex < len(args); nextArgIndex++ {
		writeBytes(errExtraArg)
	}
}

// Debugf behaves like Printf but is compiled out entirely (the call becomes
// a no-op) unless the kernel is built with -tags debug.
func Debugf(format string, args ...interface{}) {
	if !debugEnabled {
		return
	}
	Printf(format, args...)
}

func writeBool(v interface{}) {
	b, ok := v.(bool)
	if !ok {
		writeBytes(errWrongArgType)
		return
	}
	if b {
		writeBytes(trueValue)
	} else {
		writeBytes(falseValue)
	}
}

func writeString(v interface{}, padLen int) {
	switch val := v.(type) {
	case string:
		writeRepeat(' ', padLen-len(val))
		for i := 0; i < len(val); i++ {
			writeByteFn(val[i])
		}
	case []byte:
		writeRepeat(' ', padLen-len(val))
		writeBytes(val)
	default:
		writeBytes(errWrongArgType)
	}
}

func writeRepeat(ch byte, count int) {
	for i := 0; i < count; i++ {
		writeByteFn(ch)
	}
}

// writeInt formats v (any built-in integer type) in the requested base,
// left-padding to padLen characters, and streams the result directly to
// writeByteFn without ever materializing a string.
func writeInt(v interface{}, base, padLen int) {
	var (
		sval             int64
		uval             uint64
		divider          uint64
		remainder        uint64
		buf              [20]byte
		padCh            byte
		left, right, end int
	)

	switch base {
	case 8:
		divider, padCh = 8, '0'
	case 10:
		divider, padCh = 10, ' '
	case 16:
		divider, padCh = 16, '0'
	}

	switch t := v.(type) {
	case uint8:
		uval = uint64(t)
	case uint16:
		uval = uint64(t)
	case uint32:
		uval = uint64(t)
	case uint64:
		uval = t
	case uintptr:
		uval = uint64(t)
	case int8:
		sval = int64(t)
	case int16:
		sval = int64(t)
	case int32:
		sval = int64(t)
	case int64:
		sval = t
	case int:
		sval = int64(t)
	default:
		writeBytes(errWrongArgType)
		return
	}

	if sval < 0 {
		uval = uint64(-sval)
	} else if sval > 0 {
		uval = uint64(sval)
	}

	for {
		remainder = uval % divider
		if remainder < 10 {
			buf[right] = byte(remainder) + '0'
		} else {
			buf[right] = byte(remainder-10) + 'a'
		}
		right++

		uval /= divider
		if uval == 0 {
			break
		}
	}

	for ; right-left < padLen; right++ {
		buf[right] = padCh
	}

	if sval < 0 {
		for end = right - 1; buf[end] == ' '; end-- {
		}
		if end == right-1 {
			right++
		}
		buf[end+1] = '-'
	}

	end = right
	for right = right - 1; left < right; left, right = left+1, right-1 {
		buf[left], buf[right] = buf[right], buf[left]
	}

	writeBytes(buf[0:end])
}
