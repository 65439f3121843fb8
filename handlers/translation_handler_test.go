package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/ai-translator/models"
	"github.com/upb/ai-translator/services"
	"github.com/upb/ai-translator/services/translation"
	"go.uber.org/zap"
)

// MockTranslationService is a mock implementation of TranslationService
type MockTranslationService struct {
	mock.Mock
}

func (m *MockTranslationService) Translate(ctx context.Context, req *translation.TranslateRequest) (*translation.TranslateResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*translation.TranslateResult), args.Error(1)
}

func (m *MockTranslationService) Evaluate(ctx context.Context, req *translation.EvaluateRequest) (*translation.EvaluateResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*translation.EvaluateResult), args.Error(1)
}

func (m *MockTranslationService) Evaluations(ctx context.Context, translationID uuid.UUID) ([]*models.Evaluation, error) {
	args := m.Called(ctx, translationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Evaluation), args.Error(1)
}

func translationRouter(svc TranslationService) http.Handler {
	h := NewTranslationHandler(svc, zap.NewNop())
	r := chi.NewRouter()
	r.Get("/", HandleRoot)
	r.Post("/translate", h.HandleTranslate)
	r.Post("/evaluate", h.HandleEvaluate)
	r.Get("/translations/{id}/evaluations", h.HandleListEvaluations)
	return r
}

func serve(handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestHandleRoot(t *testing.T) {
	w := serve(translationRouter(new(MockTranslationService)), http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Welcome to the ai translate!"}`, w.Body.String())
}

func TestHandleTranslate(t *testing.T) {
	id := uuid.MustParse("1b4e28ba-2fa1-11d2-883f-0016d3cca427")

	t.Run("success", func(t *testing.T) {
		svc := new(MockTranslationService)
		svc.On("Translate", mock.Anything, &translation.TranslateRequest{
			SourceText:     "Hello",
			SourceLanguage: "en",
			TargetLanguage: "es",
		}).Return(&translation.TranslateResult{TranslationID: id, TargetText: "Hola", Model: "gpt-4o"}, nil)

		w := serve(translationRouter(svc), http.MethodPost, "/translate",
			`{"source_text":"Hello","source_language":"en","target_language":"es"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"data":{"translation_id":"1b4e28ba-2fa1-11d2-883f-0016d3cca427","target_text":"Hola"}}`, w.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("missing field is rejected before the service", func(t *testing.T) {
		svc := new(MockTranslationService)

		w := serve(translationRouter(svc), http.MethodPost, "/translate",
			`{"source_text":"Hello","source_language":"en"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeErrorResponse(t, w)
		assert.Equal(t, "Validation failed", resp.Message)
		assert.Contains(t, resp.Details, "target_language")
		svc.AssertNotCalled(t, "Translate", mock.Anything, mock.Anything)
	})

	t.Run("malformed body", func(t *testing.T) {
		svc := new(MockTranslationService)

		w := serve(translationRouter(svc), http.MethodPost, "/translate", `{"source_text":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Translate", mock.Anything, mock.Anything)
	})

	t.Run("unsupported language", func(t *testing.T) {
		svc := new(MockTranslationService)
		svc.On("Translate", mock.Anything, mock.Anything).Return(nil, services.ErrUnsupportedLanguage)

		w := serve(translationRouter(svc), http.MethodPost, "/translate",
			`{"source_text":"Hello","source_language":"en","target_language":"xx"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("gateway failure", func(t *testing.T) {
		svc := new(MockTranslationService)
		svc.On("Translate", mock.Anything, mock.Anything).
			Return(nil, services.NewDomainError(services.ErrorTypeExternal, services.ErrGatewayError.Message, errors.New("503")))

		w := serve(translationRouter(svc), http.MethodPost, "/translate",
			`{"source_text":"Hello","source_language":"en","target_language":"es"}`)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, "model gateway error", decodeErrorResponse(t, w).Message)
	})
}

func TestHandleEvaluate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := new(MockTranslationService)
		svc.On("Evaluate", mock.Anything, mock.MatchedBy(func(req *translation.EvaluateRequest) bool {
			return req.RequestedText == "Hello" && req.TranslatedText == "Hola" &&
				req.SourceLanguage == "en" && req.TargetLanguage == "es" && req.TranslationID == uuid.Nil
		})).Return(&translation.EvaluateResult{Evaluation: "0.85", Score: 0.85}, nil)

		w := serve(translationRouter(svc), http.MethodPost, "/evaluate",
			`{"requested_translation_text":"Hello","translated_text":"Hola","source_language":"en","target_language":"es"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"data":{"evaluation":"0.85","score":0.85}}`, w.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("invalid evaluator output", func(t *testing.T) {
		svc := new(MockTranslationService)
		svc.On("Evaluate", mock.Anything, mock.Anything).Return(nil, services.ErrInvalidScore)

		w := serve(translationRouter(svc), http.MethodPost, "/evaluate",
			`{"requested_translation_text":"Hello","translated_text":"Hola","source_language":"en","target_language":"es"}`)

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("missing translated text", func(t *testing.T) {
		svc := new(MockTranslationService)

		w := serve(translationRouter(svc), http.MethodPost, "/evaluate",
			`{"requested_translation_text":"Hello","source_language":"en","target_language":"es"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeErrorResponse(t, w).Details, "translated_text")
	})
}

func TestHandleListEvaluations(t *testing.T) {
	id := uuid.New()

	t.Run("returns stored evaluations", func(t *testing.T) {
		svc := new(MockTranslationService)
		svc.On("Evaluations", mock.Anything, id).Return([]*models.Evaluation{
			models.NewEvaluation(id, "en", "es", 0.9, "gpt-4o"),
		}, nil)

		w := serve(translationRouter(svc), http.MethodGet, "/translations/"+id.String()+"/evaluations", "")

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data []models.Evaluation `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.Len(t, resp.Data, 1)
		assert.Equal(t, id, resp.Data[0].TranslationID)
		assert.Equal(t, 0.9, resp.Data[0].Score)
	})

	t.Run("not found", func(t *testing.T) {
		svc := new(MockTranslationService)
		svc.On("Evaluations", mock.Anything, id).Return(nil, services.ErrEvaluationNotFound)

		w := serve(translationRouter(svc), http.MethodGet, "/translations/"+id.String()+"/evaluations", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		svc := new(MockTranslationService)

		w := serve(translationRouter(svc), http.MethodGet, "/translations/not-a-uuid/evaluations", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid translation id", decodeErrorResponse(t, w).Message)
		svc.AssertNotCalled(t, "Evaluations", mock.Anything, mock.Anything)
	})
}
