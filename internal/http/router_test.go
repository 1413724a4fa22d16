package http_test

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/MrJamesThe3rd/tripwise/internal/app"
	"github.com/MrJamesThe3rd/tripwise/internal/config"
	tripwiseHttp "github.com/MrJamesThe3rd/tripwise/internal/http"
	authHandler "github.com/MrJamesThe3rd/tripwise/internal/http/auth"
	exportHandler "github.com/MrJamesThe3rd/tripwise/internal/http/export"
	policyHandler "github.com/MrJamesThe3rd/tripwise/internal/http/policy"
	quoteHandler "github.com/MrJamesThe3rd/tripwise/internal/http/quote"
	txHandler "github.com/MrJamesThe3rd/tripwise/internal/http/transaction"
	wizardHandler "github.com/MrJamesThe3rd/tripwise/internal/http/wizard"
)

type RouterTestSuite struct {
	suite.Suite
	app    *app.App
	server *httptest.Server
	token  string
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Store.Driver = config.StoreMemory
	cfg.Documents.Driver = config.DocumentsKV
	cfg.Auth.Email = "demo@example.com"
	cfg.Auth.Username = "demo"
	cfg.Auth.Password = "demo123"
	cfg.Auth.SigningKey = "test-key"
	cfg.Auth.TokenTTL = time.Hour
	cfg.Server.CORSOrigins = []string{"http://localhost:3000"}

	return cfg
}

func (s *RouterTestSuite) SetupTest() {
	a, err := app.New(context.Background(), testConfig())
	s.Require().NoError(err)

	s.app = a

	router := tripwiseHttp.New(tripwiseHttp.Options{
		CORSOrigins: []string{"http://localhost:3000"},
		Metrics:     a.Metrics,
		RequireAuth: authHandler.RequireToken(a.Tokens, a.Auth),
	}, tripwiseHttp.Handlers{
		Auth:         authHandler.NewHandler(a.Auth, a.Tokens, a.Wizard, a.Metrics),
		Quote:        quoteHandler.NewHandler(a.Calculator, a.Metrics),
		Wizard:       wizardHandler.NewHandler(a.Wizard, a.Metrics),
		Policies:     policyHandler.NewHandler(a.Policies, a.Documents, a.Calculator, a.Metrics),
		Transactions: txHandler.NewHandler(a.Transactions),
		Export:       exportHandler.NewHandler(a.Export),
	})

	s.server = httptest.NewServer(router)
	s.token = ""
}

func (s *RouterTestSuite) TearDownTest() {
	s.server.Close()
	s.Require().NoError(s.app.Close())
}

func (s *RouterTestSuite) do(method, path, contentType string, body io.Reader) *http.Response {
	req, err := http.NewRequest(method, s.server.URL+path, body)
	s.Require().NoError(err)

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)

	return resp
}

func (s *RouterTestSuite) doJSON(method, path string, body any) *http.Response {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)

		r = bytes.NewReader(raw)
	}

	return s.do(method, path, "application/json", r)
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))

	return v
}

func (s *RouterTestSuite) login() {
	resp := s.doJSON(http.MethodPost, "/api/v1/auth/login", map[string]any{
		"identifier": "DEMO",
		"password":   "demo123",
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	body := decode[struct {
		Token string `json:"token"`
		User  struct {
			Email string `json:"email"`
		} `json:"user"`
	}](s.T(), resp)

	s.Require().NotEmpty(body.Token)
	s.Equal("demo@example.com", body.User.Email)

	s.token = body.Token
}

type stateBody struct {
	Step    int `json:"step"`
	Reached int `json:"reached"`
	Quote   struct {
		Available bool   `json:"available"`
		Display   string `json:"display"`
	} `json:"quote"`
}

func stepInputs() []map[string]any {
	return []map[string]any{
		{"email": "jan@example.com", "phone": "+420 123 456 789"},
		{"firstName": "Jan", "lastName": "Novak", "idType": "czechId", "personalId": "900101/1234"},
		{"destination": "CZ", "departureDate": "2025-07-01", "returnDate": "2025-07-04", "adults": 2, "children": 1},
		{},
		{"medicalLimit": "100000", "baggageInsurance": true},
		{},
	}
}

func (s *RouterTestSuite) upload(name, mediaType string, data []byte) *http.Response {
	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	header.Set("Content-Type", mediaType)

	part, err := mw.CreatePart(header)
	s.Require().NoError(err)

	_, err = part.Write(data)
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	return s.do(http.MethodPost, "/api/v1/wizard/document", mw.FormDataContentType(), &buf)
}

func checkoutBody(consents bool) map[string]any {
	return map[string]any{
		"payment": map[string]any{"paymentMethod": "card"},
		"consents": map[string]any{
			"gdpr": true, "terms": true, "ipid": true, "truthfulness": true, "remote": consents,
		},
	}
}

func (s *RouterTestSuite) TestProtectedRoutesRequireToken() {
	for _, path := range []string{"/api/v1/wizard", "/api/v1/policies", "/api/v1/transactions"} {
		resp := s.do(http.MethodGet, path, "", nil)
		resp.Body.Close()
		s.Equal(http.StatusUnauthorized, resp.StatusCode, path)
	}

	s.token = "garbage"
	resp := s.do(http.MethodGet, "/api/v1/wizard", "", nil)
	resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *RouterTestSuite) TestLoginRejectsWrongPassword() {
	resp := s.doJSON(http.MethodPost, "/api/v1/auth/login", map[string]any{
		"identifier": "demo",
		"password":   "nope",
	})
	resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *RouterTestSuite) TestLogoutInvalidatesToken() {
	s.login()

	resp := s.do(http.MethodPost, "/api/v1/auth/logout", "", nil)
	resp.Body.Close()
	s.Require().Equal(http.StatusNoContent, resp.StatusCode)

	resp = s.do(http.MethodGet, "/api/v1/wizard", "", nil)
	resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *RouterTestSuite) TestQuote() {
	type testCase struct {
		name       string
		query      string
		wantStatus int
		want       quoteHandler.Response
	}

	tests := []testCase{
		{
			name:       "CZ family",
			query:      "destination=CZ&departureDate=2025-07-01&returnDate=2025-07-04&adults=2&children=1&medicalLimit=100000",
			wantStatus: http.StatusOK,
			want:       quoteHandler.Response{Available: true, Amount: "507.00", Currency: "CZK", Days: 3, Display: "507.00 CZK"},
		},
		{
			name:       "Missing tier",
			query:      "destination=CZ&departureDate=2025-07-01&returnDate=2025-07-04",
			wantStatus: http.StatusOK,
			want:       quoteHandler.Response{Display: "-"},
		},
		{
			name:       "Bad adults",
			query:      "adults=two",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			resp := s.do(http.MethodGet, "/api/v1/quote?"+tt.query, "", nil)
			s.Require().Equal(tt.wantStatus, resp.StatusCode)

			if tt.wantStatus != http.StatusOK {
				resp.Body.Close()
				return
			}

			s.Equal(tt.want, decode[quoteHandler.Response](s.T(), resp))
		})
	}
}

func (s *RouterTestSuite) TestWizardValidation() {
	s.login()

	resp := s.doJSON(http.MethodPost, "/api/v1/wizard/next", map[string]any{"email": "nope", "phone": ""})
	s.Require().Equal(http.StatusUnprocessableEntity, resp.StatusCode)

	body := decode[struct {
		Errors []struct {
			Field   string `json:"field"`
			Reason  string `json:"reason"`
			Message string `json:"message"`
		} `json:"errors"`
	}](s.T(), resp)

	s.Require().Len(body.Errors, 2)
	s.Equal("email", body.Errors[0].Field)
	s.Equal("invalid_email", body.Errors[0].Reason)
	s.Equal("phone", body.Errors[1].Field)

	resp = s.doJSON(http.MethodPost, "/api/v1/wizard/jump", map[string]any{"step": 4})
	resp.Body.Close()
	s.Equal(http.StatusConflict, resp.StatusCode)

	state := decode[stateBody](s.T(), s.do(http.MethodGet, "/api/v1/wizard", "", nil))
	s.Equal(1, state.Step)
}

func (s *RouterTestSuite) TestWizardRejectsOversizedUpload() {
	s.login()

	resp := s.upload("id.jpg", "image/jpeg", bytes.Repeat([]byte{0xff}, 3<<20))
	s.Require().Equal(http.StatusUnprocessableEntity, resp.StatusCode)

	body := decode[struct {
		Errors []struct {
			Field  string `json:"field"`
			Reason string `json:"reason"`
		} `json:"errors"`
	}](s.T(), resp)

	s.Require().Len(body.Errors, 1)
	s.Equal("idDocument", body.Errors[0].Field)
	s.Equal("document_too_large", body.Errors[0].Reason)
}

func (s *RouterTestSuite) TestListRejectsMalformedDates() {
	s.login()

	for _, path := range []string{
		"/api/v1/policies?start_date=bad",
		"/api/v1/policies?end_date=2025-13-01",
		"/api/v1/transactions?start_date=01.06.2025",
		"/api/v1/transactions?end_date=bad",
	} {
		resp := s.do(http.MethodGet, path, "", nil)
		resp.Body.Close()
		s.Equal(http.StatusBadRequest, resp.StatusCode, path)
	}

	resp := s.do(http.MethodGet, "/api/v1/policies?start_date=2025-06-01&end_date=2025-06-30", "", nil)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *RouterTestSuite) TestPolicyLifecycle() {
	s.login()

	var state stateBody
	for _, in := range stepInputs() {
		resp := s.doJSON(http.MethodPost, "/api/v1/wizard/next", in)
		s.Require().Equal(http.StatusOK, resp.StatusCode)

		state = decode[stateBody](s.T(), resp)
	}

	s.Equal(7, state.Step)
	s.True(state.Quote.Available)
	s.Equal("507.00 CZK", state.Quote.Display)

	resp := s.upload("id.png", "image/png", []byte("png"))
	resp.Body.Close()
	s.Require().Equal(http.StatusUnprocessableEntity, resp.StatusCode)

	resp = s.doJSON(http.MethodPost, "/api/v1/wizard/submit", checkoutBody(true))
	resp.Body.Close()
	s.Require().Equal(http.StatusUnprocessableEntity, resp.StatusCode, "document is required")

	jpeg := []byte{0xff, 0xd8, 0xff, 0xe0}
	resp = s.upload("passport.jpg", "image/jpeg", jpeg)
	resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp = s.doJSON(http.MethodPost, "/api/v1/wizard/submit", checkoutBody(false))
	resp.Body.Close()
	s.Require().Equal(http.StatusUnprocessableEntity, resp.StatusCode, "all consents are required")

	resp = s.doJSON(http.MethodPost, "/api/v1/wizard/submit", checkoutBody(true))
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	created := decode[struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}](s.T(), resp)

	s.Regexp(`^POL-[0-9]{8}$`, created.ID)
	s.Equal("active", created.Status)

	state = decode[stateBody](s.T(), s.do(http.MethodGet, "/api/v1/wizard", "", nil))
	s.Equal(1, state.Step, "wizard resets after submit")

	resp = s.do(http.MethodGet, "/api/v1/policies/"+created.ID+"/document", "", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("image/jpeg", resp.Header.Get("Content-Type"))

	blob, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	s.Require().NoError(err)
	s.Equal(jpeg, blob)

	resp = s.doJSON(http.MethodPatch, "/api/v1/policies/"+created.ID, map[string]any{
		"payment": map[string]any{"paymentMethod": "transfer"},
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	patched := decode[struct {
		Payment struct {
			Method string `json:"paymentMethod"`
		} `json:"payment"`
		Premium struct {
			Display string `json:"display"`
		} `json:"premium"`
	}](s.T(), resp)

	s.Equal("transfer", patched.Payment.Method)
	s.Equal("507.00 CZK", patched.Premium.Display)

	resp = s.do(http.MethodPost, "/api/v1/policies/"+created.ID+"/cancel", "", nil)
	resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp = s.do(http.MethodPost, "/api/v1/policies/"+created.ID+"/cancel", "", nil)
	resp.Body.Close()
	s.Equal(http.StatusConflict, resp.StatusCode)

	resp = s.do(http.MethodPost, "/api/v1/wizard/edit/"+created.ID, "", nil)
	resp.Body.Close()
	s.Equal(http.StatusConflict, resp.StatusCode)

	resp = s.do(http.MethodGet, "/api/v1/policies/POL-00000000", "", nil)
	resp.Body.Close()
	s.Equal(http.StatusNotFound, resp.StatusCode)

	list := decode[[]struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}](s.T(), s.do(http.MethodGet, "/api/v1/policies?status=cancelled", "", nil))
	s.Require().Len(list, 1)
	s.Equal(created.ID, list[0].ID)

	txs := decode[[]struct {
		Type     string `json:"type"`
		PolicyID string `json:"policy_id"`
	}](s.T(), s.do(http.MethodGet, "/api/v1/transactions?policy_id="+created.ID, "", nil))
	s.Require().Len(txs, 3)
	s.Equal("policy_cancelled", txs[0].Type)
	s.Equal("policy_updated", txs[1].Type)
	s.Equal("policy_created", txs[2].Type)

	s.assertExport(created.ID)
	s.assertMetrics()
}

func (s *RouterTestSuite) assertExport(id string) {
	resp := s.doJSON(http.MethodPost, "/api/v1/export/download", map[string]any{})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("application/zip", resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	s.Require().NoError(err)

	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	s.Require().NoError(err)

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}

	s.ElementsMatch([]string{id + "_contract.txt", id + "_id.jpg", "summary.txt"}, names)
}

func (s *RouterTestSuite) assertMetrics() {
	resp := s.do(http.MethodGet, "/metrics", "", nil)
	defer resp.Body.Close()

	s.Require().Equal(http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	body := string(raw)
	assert.True(s.T(), strings.Contains(body, `tripwise_policies_total{event="policy_created"} 1`), body)
	assert.True(s.T(), strings.Contains(body, `tripwise_login_attempts_total{outcome="success"} 1`), body)
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
