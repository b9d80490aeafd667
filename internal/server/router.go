package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/quillhq/docstore/backend/internal/apperror"
	"github.com/quillhq/docstore/backend/internal/documents"
	"go.uber.org/zap"
)

const (
	messageInvalidData            = "Invalid Data"
	messageUnsupportedContentType = "Content-Type not supported!"
	messageUserNotFound           = "User not found"
	messageUserRegistered         = "User Registered"
	messageLoginSuccessful        = "Login Successful"
	messageUserVerified           = "User Verified"
	messageLoggedOut              = "Logged Out"
	messageDocumentDeleted        = "Document Deleted"
	messageDocumentRenamed        = "Document Renamed"
	messageDocumentSaved          = "Document Saved"
	messagePermissionsUpdated     = "Permissions Updated"
)

var (
	errMissingUserService     = errors.New("user service dependency required")
	errMissingSessionService  = errors.New("session service dependency required")
	errMissingDocumentService = errors.New("document service dependency required")
	errMissingCORSOrigin      = errors.New("cors origin required")
)

// UserService registers users and verifies credentials.
type UserService interface {
	Register(ctx context.Context, username, password string) error
	Authenticate(ctx context.Context, username, password string) (string, error)
}

// SessionService issues, verifies and revokes session identifiers.
type SessionService interface {
	Issue(ctx context.Context, clientAddress, userID string) (string, error)
	Verify(ctx context.Context, identifier, clientAddress string) (string, error)
	Revoke(ctx context.Context, identifier string) error
}

// DocumentService implements document CRUD and sharing.
type DocumentService interface {
	Create(ctx context.Context, ownerID, fileName, dateCreated string) (documents.Descriptor, error)
	ListOwned(ctx context.Context, userID string) ([]documents.Descriptor, error)
	ListShared(ctx context.Context, userID string) ([]documents.Descriptor, error)
	Content(ctx context.Context, userID, fileID string) (string, error)
	SaveContent(ctx context.Context, userID, fileID, content string) error
	Rename(ctx context.Context, userID, fileID, newFileName string) error
	Delete(ctx context.Context, userID, fileID string) error
	UpdatePermissions(ctx context.Context, userID, fileID string, sharedUsers []string) error
}

// Dependencies bundles the collaborators required by the HTTP handler.
type Dependencies struct {
	Users      UserService
	Sessions   SessionService
	Documents  DocumentService
	Logger     *zap.Logger
	CORSOrigin string
}

// NewHTTPHandler constructs the gin router serving the document-storage API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Users == nil {
		return nil, errMissingUserService
	}
	if deps.Sessions == nil {
		return nil, errMissingSessionService
	}
	if deps.Documents == nil {
		return nil, errMissingDocumentService
	}
	if strings.TrimSpace(deps.CORSOrigin) == "" {
		return nil, errMissingCORSOrigin
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	// Sessions are bound to the socket's remote address; forwarding headers
	// must never override it.
	if err := router.SetTrustedProxies(nil); err != nil {
		return nil, err
	}
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(deps.CORSOrigin))
	router.Use(requireJSONContentType())

	handler := &httpHandler{
		users:     deps.Users,
		sessions:  deps.Sessions,
		documents: deps.Documents,
		logger:    logger,
	}

	router.POST("/register", handler.handleRegister)
	router.POST("/login", handler.handleLogin)
	router.POST("/verifyUser", handler.handleVerifyUser)
	router.POST("/logout", handler.handleLogout)
	router.POST("/getUserDocuments", handler.handleGetUserDocuments)
	router.POST("/getSharedDocuments", handler.handleGetSharedDocuments)
	router.POST("/getDocumentContent", handler.handleGetDocumentContent)
	router.POST("/deleteDocument", handler.handleDeleteDocument)
	router.POST("/renameDocument", handler.handleRenameDocument)
	router.POST("/updateFilePermissions", handler.handleUpdateFilePermissions)
	router.POST("/newFile", handler.handleNewFile)
	router.POST("/saveDocumentContent", handler.handleSaveDocumentContent)

	return router, nil
}

func corsMiddleware(origin string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{origin},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// requireJSONContentType rejects any request not declared as JSON before the
// body is read.
func requireJSONContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.ContentType() != "application/json" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": messageUnsupportedContentType})
			return
		}
		c.Next()
	}
}

type httpHandler struct {
	users     UserService
	sessions  SessionService
	documents DocumentService
	logger    *zap.Logger
}

func (h *httpHandler) writeInvalidData(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"message": messageInvalidData})
}

// writeServiceError maps a tagged error kind onto its HTTP status. Untagged
// errors surface as 500 with the error text as the message.
func (h *httpHandler) writeServiceError(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	switch kind {
	case apperror.KindInternal:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	case apperror.KindUnauthorized:
		h.logger.Info("request unauthorized", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(apperror.HTTPStatus(kind), gin.H{"message": err.Error()})
}

func missing(values ...string) bool {
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			return true
		}
	}
	return false
}

type registerRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h *httpHandler) handleRegister(c *gin.Context) {
	var request registerRequest
	if err := c.ShouldBindJSON(&request); err != nil ||
		missing(request.Username, request.Password) ||
		request.ConfirmPassword != request.Password {
		h.writeInvalidData(c)
		return
	}

	if err := h.users.Register(c.Request.Context(), request.Username, request.Password); err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": messageUserRegistered})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var request loginRequest
	if err := c.ShouldBindJSON(&request); err != nil || missing(request.Username, request.Password) {
		h.writeInvalidData(c)
		return
	}

	userID, err := h.users.Authenticate(c.Request.Context(), request.Username, request.Password)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	identifier, err := h.sessions.Issue(c.Request.Context(), c.ClientIP(), userID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": messageLoginSuccessful,
		"userId":  userID,
		"user":    identifier,
	})
}

type verifyUserRequest struct {
	User string `json:"user"`
}

func (h *httpHandler) handleVerifyUser(c *gin.Context) {
	var request verifyUserRequest
	if err := c.ShouldBindJSON(&request); err != nil || missing(request.User) {
		h.writeInvalidData(c)
		return
	}

	userID, err := h.sessions.Verify(c.Request.Context(), request.User, c.ClientIP())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": messageUserVerified, "userId": userID})
}

type logoutRequest struct {
	User string `json:"user"`
}

func (h *httpHandler) handleLogout(c *gin.Context) {
	var request logoutRequest
	if err := c.ShouldBindJSON(&request); err != nil || missing(request.User) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": messageUserNotFound})
		return
	}

	if err := h.sessions.Revoke(c.Request.Context(), request.User); err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": messageLoggedOut})
}

type userScopedRequest struct {
	UserID string `json:"userId"`
}

func (h *httpHandler) handleGetUserDocuments(c *gin.Context) {
	var request userScopedRequest
	if err := c.ShouldBindJSON(&request); err != nil || missing(request.UserID) {
		h.writeInvalidData(c)
		return
	}

	descriptors, err := h.documents.ListOwned(c.Request.Context(), request.UserID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": descriptors})
}

func (h *httpHandler) handleGetSharedDocuments(c *gin.Context) {
	var request userScopedRequest
	if err := c.ShouldBindJSON(&request); err != nil || missing(request.UserID) {
		h.writeInvalidData(c)
		return
	}

	descriptors, err := h.documents.ListShared(c.Request.Context(), request.UserID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": descriptors})
}

type fileScopedRequest struct {
	UserID string `json:"userId"`
	FileID string `json:"fileId"`
}

func (h *httpHandler) handleGetDocumentContent(c *gin.Context) {
	var request fileScopedRequest
	if err := c.ShouldBindJSON(&request); err != nil || missing(request.UserID, request.FileID) {
		h.writeInvalidData(c)
		return
	}

	content, err := h.documents.Content(c.Request.Context(), request.UserID, request.FileID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": content})
}

func (h *httpHandler) handleDeleteDocument(c *gin.Context) {
	var request fileScopedRequest
	if err := c.ShouldBindJSON(&request); err != nil || missing(request.UserID, request.FileID) {
		h.writeInvalidData(c)
		return
	}

	if err := h.documents.Delete(c.Request.Context(), request.UserID, request.FileID); err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": messageDocumentDeleted})
}

type renameDocumentRequest struct {
	UserID      string `json:"userId"`
	FileID      string `json:"fileId"`
	NewFileName string `json:"newFileName"`
}

func (h *httpHandler) handleRenameDocument(c *gin.Context) {
	var request renameDocumentRequest
	if err := c.ShouldBindJSON(&request); err != nil ||
		missing(request.UserID, request.FileID, request.NewFileName) {
		h.writeInvalidData(c)
		return
	}

	if err := h.documents.Rename(c.Request.Context(), request.UserID, request.FileID, request.NewFileName); err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": messageDocumentRenamed})
}

type updatePermissionsRequest struct {
	UserID      string    `json:"userId"`
	FileID      string    `json:"fileId"`
	SharedUsers *[]string `json:"sharedUsers"`
}

func (h *httpHandler) handleUpdateFilePermissions(c *gin.Context) {
	var request updatePermissionsRequest
	if err := c.ShouldBindJSON(&request); err != nil ||
		missing(request.UserID, request.FileID) ||
		request.SharedUsers == nil {
		h.writeInvalidData(c)
		return
	}

	if err := h.documents.UpdatePermissions(c.Request.Context(), request.UserID, request.FileID, *request.SharedUsers); err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": messagePermissionsUpdated})
}

type newFileRequest struct {
	UserID      string `json:"userId"`
	FileName    string `json:"fileName"`
	DateCreated string `json:"dateCreated"`
}

func (h *httpHandler) handleNewFile(c *gin.Context) {
	var request newFileRequest
	if err := c.ShouldBindJSON(&request); err != nil ||
		missing(request.UserID, request.FileName, request.DateCreated) {
		h.writeInvalidData(c)
		return
	}

	descriptor, err := h.documents.Create(c.Request.Context(), request.UserID, request.FileName, request.DateCreated)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, descriptor)
}

type saveContentRequest struct {
	UserID  string  `json:"userId"`
	FileID  string  `json:"fileId"`
	Content *string `json:"content"`
}

func (h *httpHandler) handleSaveDocumentContent(c *gin.Context) {
	var request saveContentRequest
	// content may legitimately be the empty string; only null or an absent
	// field is rejected.
	if err := c.ShouldBindJSON(&request); err != nil ||
		missing(request.UserID, request.FileID) ||
		request.Content == nil {
		h.writeInvalidData(c)
		return
	}

	if err := h.documents.SaveContent(c.Request.Context(), request.UserID, request.FileID, *request.Content); err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": messageDocumentSaved})
}
