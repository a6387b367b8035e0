package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/subword/internal/tokenizer"
)

func newTestEcho(t *testing.T) (*echo.Echo, *tokenizer.Model) {
	t.Helper()
	merges, vocab, err := tokenizer.Train(context.Background(), []string{"Hello world!", "Hello there world!"}, 5)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	model, err := tokenizer.NewModel(merges, vocab)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	e := echo.New()
	NewServer(model, nil).Register(e)
	return e, model
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	e, model := newTestEcho(t)
	rec := doJSON(t, e, http.MethodPost, "/v1/encode", `{"input":"Hello world!","return_tokens":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("encode status: got %d body=%s", rec.Code, rec.Body.String())
	}
	enc := decodeBody[EncodeResponse](t, rec)
	if !strings.HasPrefix(enc.ID, "enc_") {
		t.Fatalf("unexpected id %q", enc.ID)
	}
	if len(enc.Data) != 1 {
		t.Fatalf("data: got %d items want 1", len(enc.Data))
	}
	want := model.Encode("Hello world!", true)
	got := enc.Data[0].IDs
	if len(got) != len(want) || got[0] != model.BOSID() || got[len(got)-1] != model.EOSID() {
		t.Fatalf("ids: got %v want %v", got, want)
	}
	if enc.Data[0].Tokens[1] != "Hello</w>" {
		t.Fatalf("tokens: got %q", enc.Data[0].Tokens)
	}
	if enc.Usage.TotalTokens != len(want) {
		t.Fatalf("usage: got %d want %d", enc.Usage.TotalTokens, len(want))
	}

	idsJSON, _ := json.Marshal(got)
	rec = doJSON(t, e, http.MethodPost, "/v1/decode", `{"ids":`+string(idsJSON)+`,"skip_special":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("decode status: got %d body=%s", rec.Code, rec.Body.String())
	}
	dec := decodeBody[DecodeResponse](t, rec)
	if dec.Text != "Hello world!" {
		t.Fatalf("decode text: got %q", dec.Text)
	}
}

func TestEncodeBatchWithoutSpecials(t *testing.T) {
	t.Parallel()

	e, model := newTestEcho(t)
	rec := doJSON(t, e, http.MethodPost, "/v1/encode", `{"input":["Hello","there"],"add_special":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("encode status: got %d body=%s", rec.Code, rec.Body.String())
	}
	enc := decodeBody[EncodeResponse](t, rec)
	if len(enc.Data) != 2 || enc.Data[1].Index != 1 {
		t.Fatalf("batch: got %+v", enc.Data)
	}
	if got, want := enc.Data[0].IDs, model.Encode("Hello", false); len(got) != 1 || got[0] != want[0] {
		t.Fatalf("ids: got %v want %v", got, want)
	}
	if enc.Data[0].Tokens != nil {
		t.Fatalf("tokens should be omitted unless requested")
	}
}

func TestDecodeUnknownIDs(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t)
	rec := doJSON(t, e, http.MethodPost, "/v1/decode", `{"ids":[1,-5,99999]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("decode status: got %d body=%s", rec.Code, rec.Body.String())
	}
	if dec := decodeBody[DecodeResponse](t, rec); dec.Text != "<unk><unk><unk>" {
		t.Fatalf("decode text: got %q", dec.Text)
	}
}

func TestValidationErrors(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t)
	tests := []struct {
		path, body, want string
	}{
		{"/v1/encode", `{}`, "input is required"},
		{"/v1/encode", `{"input":42}`, ""},
		{"/v1/encode", `not json`, ""},
		{"/v1/decode", `{}`, "ids is required"},
		{"/v1/decode", `{"ids":["a"]}`, ""},
	}
	for _, tc := range tests {
		rec := doJSON(t, e, http.MethodPost, tc.path, tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s %s: expected 400, got %d body=%s", tc.path, tc.body, rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), `"type":"invalid_request_error"`) {
			t.Fatalf("%s %s: unexpected error envelope: %s", tc.path, tc.body, rec.Body.String())
		}
		if tc.want != "" && !strings.Contains(rec.Body.String(), tc.want) {
			t.Fatalf("%s %s: expected %q in %s", tc.path, tc.body, tc.want, rec.Body.String())
		}
	}
}

func TestModelAndVocab(t *testing.T) {
	t.Parallel()

	e, model := newTestEcho(t)
	rec := doJSON(t, e, http.MethodGet, "/v1/model", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("model status: got %d", rec.Code)
	}
	info := decodeBody[ModelResponse](t, rec)
	if info.Merges != 5 || info.VocabSize != model.VocabSize() || len(info.SpecialTokens) != 5 {
		t.Fatalf("model info: got %+v", info)
	}
	if info.SpecialTokens[1].Token != "<unk>" || info.SpecialTokens[1].ID != 1 {
		t.Fatalf("unk entry: got %+v", info.SpecialTokens[1])
	}

	rec = doJSON(t, e, http.MethodGet, "/v1/vocab?token=%3C%2Fw%3E", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("vocab by token: got %d body=%s", rec.Code, rec.Body.String())
	}
	entry := decodeBody[VocabEntry](t, rec)
	if want, _ := model.TokenID("</w>"); entry.ID != want {
		t.Fatalf("vocab by token: got %+v", entry)
	}

	rec = doJSON(t, e, http.MethodGet, "/v1/vocab?id=2", "")
	if entry := decodeBody[VocabEntry](t, rec); entry.Token != "<s>" {
		t.Fatalf("vocab by id: got %+v", entry)
	}

	for _, path := range []string{"/v1/vocab?token=zzz", "/v1/vocab?id=9999"} {
		if rec := doJSON(t, e, http.MethodGet, path, ""); rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, rec.Code)
		}
	}
	if rec := doJSON(t, e, http.MethodGet, "/v1/vocab?id=x", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: expected 400, got %d", rec.Code)
	}
}

func TestIndexAndHealth(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t)
	rec := doJSON(t, e, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("index status: got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("index content type: got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "/v1/encode") {
		t.Fatal("index page does not call the encode endpoint")
	}

	rec = doJSON(t, e, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("healthz: got %d %s", rec.Code, rec.Body.String())
	}
}
