package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageEnglish(t *testing.T) {
	InitBundle("en")
	assert.Equal(t, "Listing /tmp", Message("ListDir", map[string]interface{}{"Path": "/tmp"}))
	assert.Equal(t, "Uploaded a.txt as a.txt", Message("UploadDone", map[string]interface{}{"Path": "a.txt", "Remote": "a.txt"}))
}

func TestMessageChinese(t *testing.T) {
	InitBundle("zh-CN")
	defer InitBundle("en")
	assert.Equal(t, "正在列出 /tmp", Message("ListDir", map[string]interface{}{"Path": "/tmp"}))
}

func TestMessageFallbacks(t *testing.T) {
	InitBundle("fr-FR")
	defer InitBundle("en")
	assert.Equal(t, "Listing /tmp", Message("ListDir", map[string]interface{}{"Path": "/tmp"}))
	assert.Equal(t, "NoSuchMessage", Message("NoSuchMessage", nil))
}

func TestDetect(t *testing.T) {
	assert.NotEmpty(t, Detect())
}
