package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/quillhq/docstore/backend/internal/apperror"
	"github.com/quillhq/docstore/backend/internal/documents"
)

func TestNewFileReturnsDescriptor(t *testing.T) {
	stubs := newStubServices()
	stubs.documents.descriptor = documents.Descriptor{
		FileID:      "file-1",
		OwnerID:     "alice",
		FileName:    "notes.txt",
		DateCreated: "2024-01-01",
		SharedUsers: []string{},
	}
	handler := newTestHandler(t, stubs)

	recorder := performJSON(handler, "/newFile", `{"userId":"alice","fileName":"notes.txt","dateCreated":"2024-01-01"}`)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("unexpected status: got %d, want %d", recorder.Code, http.StatusCreated)
	}
	var descriptor documents.Descriptor
	if err := json.Unmarshal(recorder.Body.Bytes(), &descriptor); err != nil {
		t.Fatalf("failed to decode descriptor: %v", err)
	}
	if descriptor.FileID != "file-1" || descriptor.FileName != "notes.txt" {
		t.Fatalf("unexpected descriptor: %+v", descriptor)
	}
}

func TestGetUserDocumentsReturnsList(t *testing.T) {
	stubs := newStubServices()
	stubs.documents.listed = []documents.Descriptor{
		{FileID: "file-1", OwnerID: "alice", FileName: "a.txt", DateCreated: "2024-01-01", SharedUsers: []string{"bob"}},
		{FileID: "file-2", OwnerID: "alice", FileName: "b.txt", DateCreated: "2024-01-02", SharedUsers: []string{}},
	}
	handler := newTestHandler(t, stubs)

	recorder := performJSON(handler, "/getUserDocuments", `{"userId":"alice"}`)

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d, want %d", recorder.Code, http.StatusOK)
	}
	var body struct {
		Documents []documents.Descriptor `json:"documents"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(body.Documents) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(body.Documents))
	}
}

func TestGetDocumentContentReturnsContent(t *testing.T) {
	stubs := newStubServices()
	stubs.documents.content = "hello"
	handler := newTestHandler(t, stubs)

	recorder := performJSON(handler, "/getDocumentContent", `{"userId":"alice","fileId":"file-1"}`)

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d, want %d", recorder.Code, http.StatusOK)
	}
	var body map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["content"] != "hello" {
		t.Fatalf("unexpected content: %q", body["content"])
	}
}

func TestDocumentErrorsMapToDeclaredStatuses(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "not found", err: apperror.NotFound("Document not found"), wantStatus: http.StatusNotFound},
		{name: "forbidden", err: apperror.Forbidden("Access Denied"), wantStatus: http.StatusForbidden},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			stubs := newStubServices()
			stubs.documents.err = testCase.err
			handler := newTestHandler(t, stubs)

			recorder := performJSON(handler, "/deleteDocument", `{"userId":"alice","fileId":"file-1"}`)

			if recorder.Code != testCase.wantStatus {
				t.Fatalf("unexpected status: got %d, want %d", recorder.Code, testCase.wantStatus)
			}
			if message := decodeMessage(t, recorder); message != testCase.err.Error() {
				t.Fatalf("unexpected message: %q", message)
			}
		})
	}
}

func TestRenameDocumentAck(t *testing.T) {
	stubs := newStubServices()
	handler := newTestHandler(t, stubs)

	recorder := performJSON(handler, "/renameDocument", `{"userId":"alice","fileId":"file-1","newFileName":"renamed.txt"}`)

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d, want %d", recorder.Code, http.StatusOK)
	}
	if message := decodeMessage(t, recorder); message != messageDocumentRenamed {
		t.Fatalf("unexpected message: %q", message)
	}
}

func TestUpdateFilePermissionsForwardsSharedUsers(t *testing.T) {
	stubs := newStubServices()
	handler := newTestHandler(t, stubs)

	recorder := performJSON(handler, "/updateFilePermissions", `{"userId":"alice","fileId":"file-1","sharedUsers":["bob","carol"]}`)

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d, want %d", recorder.Code, http.StatusOK)
	}
	if len(stubs.documents.lastSharedUsers) != 2 {
		t.Fatalf("unexpected shared users: %#v", stubs.documents.lastSharedUsers)
	}
}
