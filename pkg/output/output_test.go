package output

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenjianlong/filetask/pkg/task"
)

func TestFileList(t *testing.T) {
	out, code := FileList(task.FileList("id", nil))
	assert.Equal(t, "[]", string(out))
	assert.Equal(t, ExitOK, code)

	out, code = FileList(task.FileList("id", []string{"/a", "/b \"q\"", "/c&d"}))
	assert.Equal(t, ExitOK, code)
	var files []string
	require.NoError(t, json.Unmarshal(out, &files))
	assert.Equal(t, []string{"/a", "/b \"q\"", "/c&d"}, files)
	assert.Equal(t, `["/a", "/b \"q\"", "/c&d"]`, string(out))
}

func TestFileListFailure(t *testing.T) {
	out, code := FileList(task.Failure("id", task.Errorf(task.NotFound, "not found")))
	assert.Equal(t, ExitInvalidPath, code)
	assert.Equal(t, `{"result": "failure", "message": "not found"}`, string(out))

	_, code = FileList(task.Failure("id", task.Errorf(task.InvalidArgument, "not a directory")))
	assert.Equal(t, ExitInvalidPath, code)

	_, code = FileList(task.Failure("id", task.Errorf(task.Timeout, "timed out")))
	assert.Equal(t, ExitFailure, code)
}

func TestUpload(t *testing.T) {
	out, code := Upload(task.Ack("id", "uploaded as a.txt"))
	assert.Equal(t, ExitOK, code)
	assert.Equal(t, `{"result": "success"}`, string(out))

	out, code = Upload(task.Failure("id", task.Errorf(task.TransferFailed, "transfer failed after 3 attempt(s)")))
	assert.Equal(t, ExitFailure, code)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(out, &payload))
	assert.Equal(t, "failure", payload["result"])
	assert.Equal(t, "transfer failed after 3 attempt(s)", payload["message"])

	out, code = Upload(task.Result{TaskID: "id", Ack: &task.UploadAck{Success: false}})
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, string(out), "not acknowledged")
}

func TestFailure(t *testing.T) {
	assert.Equal(t, `{"result": "failure", "message": "not found"}`, string(Failure(task.Errorf(task.NotFound, "not found"))))
	assert.Equal(t, `{"result": "failure", "message": "internal error"}`, string(Failure(nil)))
}

func TestListExitCode(t *testing.T) {
	assert.Equal(t, ExitInvalidPath, ListExitCode(task.Errorf(task.InvalidArgument, "empty path")))
	assert.Equal(t, ExitFailure, ListExitCode(task.Errorf(task.CapacityExceeded, "full")))
}

func TestFileListInvalidUTF8(t *testing.T) {
	out, code := FileList(task.FileList("id", []string{"/d/a\xffb", "/d/a\xfeb", "/d/é"}))
	assert.Equal(t, ExitOK, code)
	assert.Equal(t, `["/d/a\udcffb", "/d/a\udcfeb", "/d/é"]`, string(out))

	var files []string
	require.NoError(t, json.Unmarshal(out, &files))
	assert.Len(t, files, 3)
}
