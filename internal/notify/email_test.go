package notify

import (
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMIMEMessage(t *testing.T) {
	msg := Message{
		Subject: "Daily Sensex Trade Report - 2025-06-20",
		Body:    "Attached is your daily Sensex trade report.",
		Attachments: []Attachment{
			{
				Filename:    "signals_2025-06-20.csv",
				ContentType: "text/csv",
				Data:        []byte("Stock Name,Signal (BUY/SELL)\nRELIANCE.NS,BUY\n"),
			},
			{
				Filename:    "sensex_pulse_2025-06-20.xlsx",
				ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
				Data:        []byte{0x50, 0x4b, 0x03, 0x04, 0x00, 0x01, 0x02},
			},
		},
	}

	raw, err := buildMIMEMessage("bot@example.com", []string{"a@example.com", "b@example.com"}, msg)
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(strings.NewReader(string(raw)))
	require.NoError(t, err)

	assert.Equal(t, "bot@example.com", parsed.Header.Get("From"))
	assert.Equal(t, "a@example.com, b@example.com", parsed.Header.Get("To"))
	assert.Equal(t, msg.Subject, parsed.Header.Get("Subject"))
	assert.Equal(t, "1.0", parsed.Header.Get("MIME-Version"))

	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/mixed", mediaType)
	require.NotEmpty(t, params["boundary"])

	mr := multipart.NewReader(parsed.Body, params["boundary"])

	text, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=UTF-8", text.Header.Get("Content-Type"))
	body, err := io.ReadAll(text)
	require.NoError(t, err)
	assert.Equal(t, msg.Body, string(body))

	for _, want := range msg.Attachments {
		part, err := mr.NextPart()
		require.NoError(t, err)
		assert.Equal(t, want.ContentType, part.Header.Get("Content-Type"))
		assert.Equal(t, `attachment; filename="`+want.Filename+`"`, part.Header.Get("Content-Disposition"))
		assert.Equal(t, "base64", part.Header.Get("Content-Transfer-Encoding"))

		encoded, err := io.ReadAll(part)
		require.NoError(t, err)
		decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(string(encoded), "\r\n", ""))
		require.NoError(t, err)
		assert.Equal(t, want.Data, decoded)
	}

	_, err = mr.NextPart()
	assert.Equal(t, io.EOF, err)
}

func TestBuildMIMEMessageNoAttachments(t *testing.T) {
	raw, err := buildMIMEMessage("bot@example.com", []string{"a@example.com"}, Message{
		Subject: "No actionable signals today.",
		Body:    "Quiet session.",
	})
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(strings.NewReader(string(raw)))
	require.NoError(t, err)

	_, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	require.NoError(t, err)

	mr := multipart.NewReader(parsed.Body, params["boundary"])
	text, err := mr.NextPart()
	require.NoError(t, err)
	body, err := io.ReadAll(text)
	require.NoError(t, err)
	assert.Equal(t, "Quiet session.", string(body))

	_, err = mr.NextPart()
	assert.Equal(t, io.EOF, err)
}

func TestWriteBase64WrapsLines(t *testing.T) {
	var sb strings.Builder
	data := make([]byte, 200)
	for i := range data {
		data[i] = byte(i)
	}
	require.NoError(t, writeBase64(&sb, data))

	lines := strings.Split(strings.TrimSuffix(sb.String(), "\r\n"), "\r\n")
	require.NotEmpty(t, lines)
	for i, line := range lines[:len(lines)-1] {
		assert.Len(t, line, 76, "line %d", i)
	}
	assert.LessOrEqual(t, len(lines[len(lines)-1]), 76)

	decoded, err := base64.StdEncoding.DecodeString(strings.Join(lines, ""))
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestEmailChannelName(t *testing.T) {
	assert.Equal(t, "email", (&EmailChannel{}).Name())
}
