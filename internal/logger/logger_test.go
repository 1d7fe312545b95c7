package logger

import (
	"bytes"
	"errors"
	"log"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})
	return &buf
}

func TestFormatFieldsSortedAndTyped(t *testing.T) {
	got := formatFields(Fields{
		"model":       "gemini-2.5-flash",
		"duration_ms": int64(42),
		"temperature": 0.8,
		"lines":       3,
	})

	assert.Equal(t, "{duration_ms=42, lines=3, model=gemini-2.5-flash, temperature=0.80}", got)
	assert.Empty(t, formatFields(nil))
}

func TestLevelsWritePrefixes(t *testing.T) {
	buf := captureLog(t)

	Info("hello", Fields{"a": "b"})
	Warn("careful", nil)
	Debug("details", Fields{"n": 1})
	Error("boom", errors.New("backend down"), Fields{"provider": "gemini"})

	out := buf.String()
	assert.Contains(t, out, "[INFO] hello {a=b}")
	assert.Contains(t, out, "[WARN] careful")
	assert.Contains(t, out, "[DEBUG] details {n=1}")
	assert.Contains(t, out, "[ERROR] boom: backend down {provider=gemini}")
}

func TestWithContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/api/v1/poems", nil)
	c.Set("request_id", "req-1")
	c.Set("session_id", "sess-1")

	fields := WithContext(c)

	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "sess-1", fields["session_id"])
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, "/api/v1/poems", fields["path"])
}
