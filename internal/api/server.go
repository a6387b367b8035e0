// Package api serves a trained tokenizer over HTTP.
package api

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/subword/internal/logger"
	"github.com/samcharles93/subword/internal/tokenizer"
	"github.com/samcharles93/subword/internal/webui"
)

// MaxBatch bounds the number of texts in one encode request.
const MaxBatch = 1024

type Server struct {
	model *tokenizer.Model
	log   logger.Logger
	clock func() time.Time
}

func NewServer(model *tokenizer.Model, log logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	return &Server{
		model: model,
		log:   log,
		clock: time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/", s.handleIndex)
	e.GET("/healthz", s.handleHealth)
	e.GET("/v1/model", s.handleModel)
	e.GET("/v1/vocab", s.handleVocab)
	e.POST("/v1/encode", s.handleEncode)
	e.POST("/v1/decode", s.handleDecode)
}

func (s *Server) handleIndex(c *echo.Context) error {
	return c.Blob(http.StatusOK, echo.MIMETextHTMLCharsetUTF8, webui.Index())
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleModel(c *echo.Context) error {
	sp := s.model.Specials()
	roles := []struct{ role, tok string }{
		{"pad", sp.Pad}, {"unk", sp.Unk}, {"bos", sp.BOS}, {"eos", sp.EOS}, {"mask", sp.Mask},
	}
	resp := ModelResponse{
		Object:    "model",
		Merges:    len(s.model.Merges()),
		VocabSize: s.model.VocabSize(),
		EndOfWord: tokenizer.EndOfWord,
	}
	for _, r := range roles {
		id, _ := s.model.TokenID(r.tok)
		resp.SpecialTokens = append(resp.SpecialTokens, SpecialToken{Role: r.role, Token: r.tok, ID: id})
	}
	return c.JSON(http.StatusOK, resp)
}

// handleVocab looks up a single entry by ?token= or ?id=.
func (s *Server) handleVocab(c *echo.Context) error {
	if tok := c.QueryParam("token"); tok != "" {
		id, ok := s.model.TokenID(tok)
		if !ok {
			return writeNotFound(c, "token not in vocabulary")
		}
		return c.JSON(http.StatusOK, VocabEntry{Object: "vocab_entry", Token: tok, ID: id})
	}
	raw := c.QueryParam("id")
	if raw == "" {
		return writeBadRequest(c, "token or id is required", "token")
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return writeBadRequest(c, "id must be an integer", "id")
	}
	tok, ok := s.model.Token(id)
	if !ok {
		return writeNotFound(c, "id not in vocabulary")
	}
	return c.JSON(http.StatusOK, VocabEntry{Object: "vocab_entry", Token: tok, ID: id})
}

func (s *Server) handleEncode(c *echo.Context) error {
	req, err := decodeJSON[EncodeRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error(), "")
	}
	if req.Input == nil || (req.Input.String == nil && req.Input.Items == nil) {
		return writeBadRequest(c, "input is required", "input")
	}
	texts := req.Input.Texts()
	if len(texts) > MaxBatch {
		return writeBadRequest(c, "too many inputs (max "+strconv.Itoa(MaxBatch)+")", "input")
	}
	addSpecial := true
	if req.AddSpecial != nil {
		addSpecial = *req.AddSpecial
	}

	resp := EncodeResponse{
		ID:        "enc_" + uuid.NewString(),
		Object:    "list",
		CreatedAt: s.clock().Unix(),
		Data:      make([]Encoding, 0, len(texts)),
	}
	for i, text := range texts {
		ids := s.model.Encode(text, addSpecial)
		enc := Encoding{Object: "encoding", Index: i, IDs: ids}
		if req.ReturnTokens {
			enc.Tokens = make([]string, len(ids))
			for j, id := range ids {
				enc.Tokens[j], _ = s.model.Token(id)
			}
		}
		resp.Usage.TotalTokens += len(ids)
		resp.Data = append(resp.Data, enc)
	}
	s.log.Debug("encoded", "id", resp.ID, "inputs", len(texts), "tokens", resp.Usage.TotalTokens)
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDecode(c *echo.Context) error {
	req, err := decodeJSON[DecodeRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error(), "")
	}
	if req.IDs == nil {
		return writeBadRequest(c, "ids is required", "ids")
	}
	var text string
	if req.SkipSpecial {
		text = s.model.DecodeSkipSpecial(req.IDs)
	} else {
		text = s.model.Decode(req.IDs)
	}
	return c.JSON(http.StatusOK, DecodeResponse{
		ID:        "dec_" + uuid.NewString(),
		Object:    "decoding",
		CreatedAt: s.clock().Unix(),
		Text:      text,
	})
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
