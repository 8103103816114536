package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

const (
	textModel  = "test-text"
	imageModel = "test-image"
)

const boloPayload = `{"titulo":"Bolo de Cenoura","tempo":"50 min","porcoes":"8 porções","dificuldade":"Fácil","ingredientes":["2 cenouras","3 ovos"],"instrucoes":["Bata os ovos","Asse por 40 min"]}`

// fakeGemini answers generateContent calls for the text and image models.
type fakeGemini struct {
	server *httptest.Server

	textCalls  atomic.Int32
	imageCalls atomic.Int32

	textStatus atomic.Int32
	textBody   string
	imageParts []map[string]interface{}
}

// newFakeGemini starts the server after applying configure, so handlers only
// read settled fields. textStatus may change between requests.
func newFakeGemini(t *testing.T, configure ...func(*fakeGemini)) *fakeGemini {
	t.Helper()
	f := &fakeGemini{
		textBody: boloPayload,
		imageParts: []map[string]interface{}{
			{"inlineData": map[string]interface{}{"mimeType": "image/png", "data": "iVBORw0KGgo="}},
		},
	}
	f.textStatus.Store(http.StatusOK)
	for _, fn := range configure {
		fn(f)
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeGemini) handle(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, ":generateContent") {
		http.NotFound(w, r)
		return
	}

	switch {
	case strings.Contains(r.URL.Path, imageModel):
		f.imageCalls.Add(1)
		writeCandidate(w, f.imageParts)
	case strings.Contains(r.URL.Path, textModel):
		f.textCalls.Add(1)
		if status := int(f.textStatus.Load()); status != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]interface{}{"code": status, "message": "backend error", "status": "INTERNAL"},
			})
			return
		}
		writeCandidate(w, []map[string]interface{}{{"text": f.textBody}})
	default:
		http.NotFound(w, r)
	}
}

func writeCandidate(w http.ResponseWriter, parts []map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{"role": "model", "parts": parts}},
		},
	})
}
