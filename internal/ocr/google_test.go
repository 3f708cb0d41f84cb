package ocr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readSide fails on bad image fetches before it ever touches the
// Vision client, so these run with a nil client.

func TestReadSideEmptyImageBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewGoogleProvider("", "key", 5*time.Second)
	_, _, err := p.readSide(context.Background(), nil, srv.URL+"/card.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image body was empty")
	assert.NotContains(t, err.Error(), "%!w")
}

func TestReadSideNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewGoogleProvider("", "key", 5*time.Second)
	_, _, err := p.readSide(context.Background(), nil, srv.URL+"/card.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
