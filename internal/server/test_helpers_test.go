package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/quillhq/docstore/backend/internal/documents"
)

const testOrigin = "https://app.example.com"

type stubUserService struct {
	registerErr   error
	registerCalls int

	authUserID string
	authErr    error
	authCalls  int
}

func (s *stubUserService) Register(_ context.Context, _, _ string) error {
	s.registerCalls++
	return s.registerErr
}

func (s *stubUserService) Authenticate(_ context.Context, _, _ string) (string, error) {
	s.authCalls++
	return s.authUserID, s.authErr
}

type stubSessionService struct {
	issueIdentifier string
	issueErr        error
	issuedAddress   string
	issuedUserID    string
	issueCalls      int

	verifyUserID       string
	verifyErr          error
	verifiedIdentifier string
	verifiedAddress    string
	verifyCalls        int

	revokeErr         error
	revokedIdentifier string
	revokeCalls       int
}

func (s *stubSessionService) Issue(_ context.Context, clientAddress, userID string) (string, error) {
	s.issueCalls++
	s.issuedAddress = clientAddress
	s.issuedUserID = userID
	return s.issueIdentifier, s.issueErr
}

func (s *stubSessionService) Verify(_ context.Context, identifier, clientAddress string) (string, error) {
	s.verifyCalls++
	s.verifiedIdentifier = identifier
	s.verifiedAddress = clientAddress
	return s.verifyUserID, s.verifyErr
}

func (s *stubSessionService) Revoke(_ context.Context, identifier string) error {
	s.revokeCalls++
	s.revokedIdentifier = identifier
	return s.revokeErr
}

type stubDocumentService struct {
	descriptor documents.Descriptor
	listed     []documents.Descriptor
	content    string
	err        error

	calls           int
	lastContent     string
	lastSharedUsers []string
}

func (s *stubDocumentService) Create(_ context.Context, _, _, _ string) (documents.Descriptor, error) {
	s.calls++
	return s.descriptor, s.err
}

func (s *stubDocumentService) ListOwned(_ context.Context, _ string) ([]documents.Descriptor, error) {
	s.calls++
	return s.listed, s.err
}

func (s *stubDocumentService) ListShared(_ context.Context, _ string) ([]documents.Descriptor, error) {
	s.calls++
	return s.listed, s.err
}

func (s *stubDocumentService) Content(_ context.Context, _, _ string) (string, error) {
	s.calls++
	return s.content, s.err
}

func (s *stubDocumentService) SaveContent(_ context.Context, _, _, content string) error {
	s.calls++
	s.lastContent = content
	return s.err
}

func (s *stubDocumentService) Rename(_ context.Context, _, _, _ string) error {
	s.calls++
	return s.err
}

func (s *stubDocumentService) Delete(_ context.Context, _, _ string) error {
	s.calls++
	return s.err
}

func (s *stubDocumentService) UpdatePermissions(_ context.Context, _, _ string, sharedUsers []string) error {
	s.calls++
	s.lastSharedUsers = sharedUsers
	return s.err
}

type stubServices struct {
	users     *stubUserService
	sessions  *stubSessionService
	documents *stubDocumentService
}

func newStubServices() stubServices {
	return stubServices{
		users:     &stubUserService{},
		sessions:  &stubSessionService{},
		documents: &stubDocumentService{},
	}
}

func newTestHandler(t *testing.T, stubs stubServices) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	handler, err := NewHTTPHandler(Dependencies{
		Users:      stubs.users,
		Sessions:   stubs.sessions,
		Documents:  stubs.documents,
		CORSOrigin: testOrigin,
	})
	if err != nil {
		t.Fatalf("failed to build handler: %v", err)
	}
	return handler
}

func performJSON(handler http.Handler, path, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}
