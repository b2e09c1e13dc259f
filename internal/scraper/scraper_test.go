package scraper

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/dormwatch/internal/config"
	"github.com/jgoulah/dormwatch/pkg/models"
)

func page(spanID, text string) string {
	return `<html><body><form><table><tr><td>剩余电量</td><td><span id="` + spanID + `">` + text + `</span></td></tr></table></form></body></html>`
}

func TestParsePowerPage(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		want    float64
		wantErr error
	}{
		{name: "primary label", html: page("lblSYDL", " 23.45 "), want: 23.45},
		{name: "fallback label", html: page("Label1", "8.50"), want: 8.5},
		{name: "unsupported", html: page("lblSYDL", "暂不支持查询"), wantErr: models.ErrUnsupported},
		{name: "integer has no decimals", html: page("lblSYDL", "12"), wantErr: ErrUnexpectedPage},
		{name: "garbage", html: page("lblSYDL", "--"), wantErr: ErrUnexpectedPage},
		{name: "no label", html: `<html><body><span id="other">1.0</span></body></html>`, wantErr: ErrUnexpectedPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePowerPage(strings.NewReader(tt.html))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePowerPage_PrefersPrimaryLabel(t *testing.T) {
	html := `<span id="Label1">1.11</span><span id="lblSYDL">2.22</span>`
	got, err := ParsePowerPage(strings.NewReader(html))
	require.NoError(t, err)
	assert.Equal(t, 2.22, got)
}

func TestHTTPReader_Read(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(page("lblSYDL", "42.10")))
	}))
	defer srv.Close()

	reader := NewHTTPReader(srv.URL, "", 5*time.Second)
	value, err := reader.Read(context.Background(), models.Room{ID: "R1", Type: "3"})
	require.NoError(t, err)
	assert.Equal(t, 42.1, value)
	assert.Equal(t, "opid=a&type=3&xid=R1", gotQuery)
	assert.Contains(t, gotUA, "Mozilla")
}

func TestHTTPReader_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTPReader(srv.URL, "", time.Second).Read(context.Background(), models.Room{ID: "R1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestHTTPReader_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewHTTPReader(srv.URL, "", 50*time.Millisecond).Read(context.Background(), models.Room{ID: "R1"})
	assert.Error(t, err)
}

func TestHTTPReader_FetchPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>raw</html>"))
	}))
	defer srv.Close()

	body, err := NewHTTPReader(srv.URL, "", time.Second).FetchPage(context.Background(), models.Room{ID: "R1"})
	require.NoError(t, err)
	assert.Equal(t, "<html>raw</html>", body)
}

func TestHTTPReader_OversizedPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte("x"), maxPageSize+10))
	}))
	defer srv.Close()

	_, err := NewHTTPReader(srv.URL, "", 5*time.Second).FetchPage(context.Background(), models.Room{ID: "R1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedPage)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestNew(t *testing.T) {
	r, err := New(&config.Config{})
	require.NoError(t, err)
	assert.IsType(t, &HTTPReader{}, r)

	r, err = New(&config.Config{Reader: config.ReaderConfig{Mode: "browser"}})
	require.NoError(t, err)
	assert.IsType(t, &BrowserReader{}, r)

	_, err = New(&config.Config{Reader: config.ReaderConfig{Mode: "ftp"}})
	assert.Error(t, err)
}
