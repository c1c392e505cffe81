package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/chenjianlong/filetask/pkg/task"
)

const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInvalidPath = 2
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// FileList renders a list result: a JSON array of paths on success, a failure
// object otherwise.
func FileList(res task.Result) ([]byte, int) {
	if res.Err != nil {
		return Failure(res.Err), listExitCode(res.Err.Kind)
	}
	return stringArray(res.Files), ExitOK
}

// Upload renders an upload result as {"result": ...} with a message on failure.
func Upload(res task.Result) ([]byte, int) {
	if res.Err != nil {
		return Failure(res.Err), ExitFailure
	}
	if res.Ack == nil || !res.Ack.Success {
		msg := "upload not acknowledged"
		if res.Ack != nil && res.Ack.Message != "" {
			msg = res.Ack.Message
		}
		return object(resultFailure, msg), ExitFailure
	}
	return object(resultSuccess, ""), ExitOK
}

// Failure renders any error as a failure object.
func Failure(err error) []byte {
	msg := "internal error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return object(resultFailure, msg)
}

// ListExitCode is the exit code for a list request rejected with err.
func ListExitCode(err error) int {
	return listExitCode(task.KindOf(err))
}

func listExitCode(kind task.ErrorKind) int {
	switch kind {
	case task.NotFound, task.InvalidArgument:
		return ExitInvalidPath
	}
	return ExitFailure
}

func object(result, message string) []byte {
	var buf bytes.Buffer
	buf.WriteString(`{"result": `)
	buf.Write(quote(result))
	if message != "" {
		buf.WriteString(`, "message": `)
		buf.Write(quote(message))
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

func stringArray(items []string) []byte {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.Write(quote(item))
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

// quote renders s as a JSON string. Bytes that are not valid UTF-8 become
// \udc80-\udcff escapes so that distinct file names never print alike.
func quote(s string) []byte {
	if utf8.ValidString(s) {
		return encodeString(s)
	}
	var buf bytes.Buffer
	buf.WriteByte('"')
	start := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			buf.Write(unquoted(s[start:i]))
			fmt.Fprintf(&buf, `\udc%02x`, s[i])
			i++
			start = i
			continue
		}
		i += size
	}
	buf.Write(unquoted(s[start:]))
	buf.WriteByte('"')
	return buf.Bytes()
}

func encodeString(s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return bytes.TrimRight(buf.Bytes(), "\n")
}

func unquoted(s string) []byte {
	b := encodeString(s)
	return b[1 : len(b)-1]
}
