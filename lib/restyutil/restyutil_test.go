package restyutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	messages map[string]string
}

func (m *memoryOutput) Write(id string, contents string) {
	m.messages[id] = contents
}

func TestFormatHeadersRedactsAuthorization(t *testing.T) {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer secret")
	rendered := formatHeaders(headers)
	require.Equal(t, "Authorization: <redacted>", rendered)
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "resty")
	out, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	out.Write("1", "hello")
	contents, err := os.ReadFile(filepath.Join(dir, "1"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(contents))
}

func TestInstrumentClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := resty.New()
	out := &memoryOutput{messages: map[string]string{}}
	InstrumentClient(client, nil, out)

	res, err := client.R().Get(server.URL)
	require.NoError(t, err)
	require.Equal(t, "ok", res.String())
}
