package testutil

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	authDTO "github.com/allisson/filevault/internal/auth/http/dto"
	cryptoDomain "github.com/allisson/filevault/internal/crypto/domain"
	filesDTO "github.com/allisson/filevault/internal/files/http/dto"
)

// FakeTOTPCode is the only second-factor code the fake file API accepts.
const FakeTOTPCode = "123456"

const (
	fakeAccessType       = "access"
	fakeVerificationType = "verification"
)

type fakeUser struct {
	ID       uuid.UUID
	Email    string
	Username string
	Password string
	Role     authDomain.Role
	Enrolled bool
}

type fakeFile struct {
	meta       filesDTO.FileResponse
	ciphertext []byte
	sharedWith map[uuid.UUID]bool
}

type fakeLink struct {
	id        uuid.UUID
	fileID    uuid.UUID
	expiresAt *time.Time
	createdAt time.Time
}

type fakeClaims struct {
	jwt.RegisteredClaims
	Type string `json:"typ"`
}

// FakeFileAPI is an in-memory file API served by httptest. It speaks the same JSON
// contract as the real server and issues HS256 access tokens with a configurable TTL.
//
// Routes can be failed with Fail and counted with Calls. Route names are: login,
// verify-2fa, login-verify-2fa, refresh, logout, me, upload, list, shared-with-me,
// download, delete, share, create-share-link and shared.
type FakeFileAPI struct {
	*faults

	Server *httptest.Server

	mu              sync.Mutex
	signingKey      []byte
	accessTTL       time.Duration
	verificationTTL time.Duration
	users           map[string]*fakeUser
	refreshTokens   map[string]uuid.UUID
	files           map[uuid.UUID]*fakeFile
	links           map[uuid.UUID]*fakeLink
}

// NewFakeFileAPI starts a fake file API. The server is closed when the test ends.
func NewFakeFileAPI(t *testing.T) *FakeFileAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	key := make([]byte, 32)
	_, _ = rand.Read(key)

	f := &FakeFileAPI{
		faults:          newFaults(),
		signingKey:      key,
		accessTTL:       15 * time.Minute,
		verificationTTL: 5 * time.Minute,
		users:           make(map[string]*fakeUser),
		refreshTokens:   make(map[string]uuid.UUID),
		files:           make(map[uuid.UUID]*fakeFile),
		links:           make(map[uuid.UUID]*fakeLink),
	}
	f.Server = httptest.NewServer(f.router())
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the API base URL (the /api prefix included).
func (f *FakeFileAPI) URL() string {
	return f.Server.URL + "/api"
}

// SetAccessTTL changes the lifetime of access tokens issued from now on.
func (f *FakeFileAPI) SetAccessTTL(ttl time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accessTTL = ttl
}

// SetVerificationTTL changes the lifetime of verification tokens issued from now on.
func (f *FakeFileAPI) SetVerificationTTL(ttl time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verificationTTL = ttl
}

// AddUser registers an account. enrolled selects step-up instead of TOTP setup at login.
func (f *FakeFileAPI) AddUser(email, password string, role authDomain.Role, enrolled bool) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := &fakeUser{
		ID:       uuid.Must(uuid.NewV7()),
		Email:    email,
		Username: strings.Split(email, "@")[0],
		Password: password,
		Role:     role,
		Enrolled: enrolled,
	}
	f.users[email] = user
	return user.ID
}

// HasFile reports whether a ciphertext is stored under id.
func (f *FakeFileAPI) HasFile(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[id]
	return ok
}

// FileCount returns the number of stored files.
func (f *FakeFileAPI) FileCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.files)
}

// Ciphertext returns the stored ciphertext of a file.
func (f *FakeFileAPI) Ciphertext(id uuid.UUID) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if file, ok := f.files[id]; ok {
		return append([]byte(nil), file.ciphertext...)
	}
	return nil
}

// TamperCiphertext flips one bit of a stored ciphertext.
func (f *FakeFileAPI) TamperCiphertext(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if file, ok := f.files[id]; ok && len(file.ciphertext) > 0 {
		file.ciphertext[0] ^= 0x01
	}
}

// ExpireLink moves a share link expiry into the past.
func (f *FakeFileAPI) ExpireLink(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if link, ok := f.links[id]; ok {
		past := time.Now().Add(-time.Minute)
		link.expiresAt = &past
	}
}

// IssueAccessToken mints an access token for the user with email, valid for ttl.
func (f *FakeFileAPI) IssueAccessToken(email string, ttl time.Duration) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sign(f.users[email].ID, fakeAccessType, ttl)
}

// IssueRefreshToken creates a refresh token for the user with email.
func (f *FakeFileAPI) IssueRefreshToken(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.newRefreshToken(f.users[email].ID)
}

func (f *FakeFileAPI) router() *gin.Engine {
	router := gin.New()

	auth := router.Group("/api/auth")
	auth.POST("/login", f.middleware("login"), f.login)
	auth.POST("/verify-2fa", f.middleware("verify-2fa"), f.requireToken(fakeVerificationType), f.verifySetup)
	auth.POST("/login-verify-2fa", f.middleware("login-verify-2fa"), f.requireToken(fakeVerificationType), f.verifyStepUp)
	auth.POST("/token/refresh", f.middleware("refresh"), f.refresh)
	auth.POST("/logout", f.middleware("logout"), f.logout)
	auth.GET("/me", f.middleware("me"), f.requireToken(fakeAccessType), f.me)

	files := router.Group("/api/files", f.requireToken(fakeAccessType))
	files.POST("/upload", f.middleware("upload"), f.upload)
	files.GET("", f.middleware("list"), f.list)
	files.GET("/shared-with-me", f.middleware("shared-with-me"), f.sharedWithMe)
	files.GET("/:id/download", f.middleware("download"), f.download)
	files.DELETE("/:id", f.middleware("delete"), f.delete)
	files.POST("/:id/share", f.middleware("share"), f.share)
	files.POST("/:id/create-share-link", f.middleware("create-share-link"), f.createShareLink)
	files.GET("/shared/:shareId", f.middleware("shared"), f.shared)

	return router
}

func (f *FakeFileAPI) sign(userID uuid.UUID, tokenType string, ttl time.Duration) string {
	now := time.Now()
	claims := fakeClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Type: tokenType,
	}
	signed, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(f.signingKey)
	return signed
}

func (f *FakeFileAPI) newRefreshToken(userID uuid.UUID) string {
	raw := make([]byte, 32)
	_, _ = rand.Read(raw)
	token := hex.EncodeToString(raw)
	f.refreshTokens[token] = userID
	return token
}

func (f *FakeFileAPI) userByID(id uuid.UUID) *fakeUser {
	for _, user := range f.users {
		if user.ID == id {
			return user
		}
	}
	return nil
}

func (f *FakeFileAPI) requireToken(tokenType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		claims := &fakeClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return f.signingKey, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || claims.Type != tokenType {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		f.mu.Lock()
		user := f.userByID(uuid.MustParse(claims.Subject))
		f.mu.Unlock()
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set("user", user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *fakeUser {
	return c.MustGet("user").(*fakeUser)
}

func userResponse(user *fakeUser) authDTO.UserResponse {
	return authDTO.UserResponse{ID: user.ID.String(), Email: user.Email, Username: user.Username, Role: string(user.Role)}
}

func (f *FakeFileAPI) login(c *gin.Context) {
	var req authDTO.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[req.Email]
	if !ok || user.Password != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	resp := authDTO.LoginResponse{VerificationToken: f.sign(user.ID, fakeVerificationType, f.verificationTTL)}
	if user.Enrolled {
		resp.RequiresTwoFactor = true
	} else {
		resp.RequiresSetup = true
		resp.Secret = "JBSWY3DPEHPK3PXP"
		resp.ProvisioningURI = "otpauth://totp/filevault:" + user.Email + "?secret=JBSWY3DPEHPK3PXP"
	}
	c.JSON(http.StatusOK, resp)
}

func (f *FakeFileAPI) issueSession(c *gin.Context, user *fakeUser) {
	c.JSON(http.StatusOK, authDTO.SessionResponse{
		Access:  f.sign(user.ID, fakeAccessType, f.accessTTL),
		Refresh: f.newRefreshToken(user.ID),
		User:    userResponse(user),
	})
}

func (f *FakeFileAPI) verifySetup(c *gin.Context) {
	var req authDTO.VerifySecondFactorRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Code != FakeTOTPCode {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	user := currentUser(c)
	user.Enrolled = true
	f.issueSession(c, user)
}

func (f *FakeFileAPI) verifyStepUp(c *gin.Context) {
	var req authDTO.LoginVerifySecondFactorRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Code != FakeTOTPCode {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	user := currentUser(c)
	if user.Email != req.Email {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	f.issueSession(c, user)
}

func (f *FakeFileAPI) refresh(c *gin.Context) {
	var req authDTO.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	userID, ok := f.refreshTokens[req.Refresh]
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, authDTO.RefreshTokenResponse{Access: f.sign(userID, fakeAccessType, f.accessTTL)})
}

func (f *FakeFileAPI) logout(c *gin.Context) {
	var req authDTO.RefreshTokenRequest
	_ = c.ShouldBindJSON(&req)

	f.mu.Lock()
	delete(f.refreshTokens, req.Refresh)
	f.mu.Unlock()
	c.Status(http.StatusNoContent)
}

func (f *FakeFileAPI) me(c *gin.Context) {
	c.JSON(http.StatusOK, userResponse(currentUser(c)))
}

func (f *FakeFileAPI) upload(c *gin.Context) {
	user := currentUser(c)
	if user.Role == authDomain.RoleGuest {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	size, err := strconv.ParseInt(c.PostForm("size"), 10, 64)
	iv, ivErr := base64.StdEncoding.DecodeString(c.PostForm("iv"))
	header, fileErr := c.FormFile("file")
	if err != nil || ivErr != nil || fileErr != nil || len(iv) != cryptoDomain.IVSize {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid_input"})
		return
	}

	part, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}
	defer part.Close() //nolint:errcheck
	ciphertext, err := io.ReadAll(part)
	if err != nil || int64(len(ciphertext)) != cryptoDomain.CiphertextSize(size) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid_input"})
		return
	}

	now := time.Now().UTC()
	file := &fakeFile{
		meta: filesDTO.FileResponse{
			ID:             uuid.Must(uuid.NewV7()).String(),
			OwnerID:        user.ID.String(),
			Name:           c.PostForm("name"),
			MIMEType:       c.PostForm("mime_type"),
			Size:           size,
			CiphertextSize: int64(len(ciphertext)),
			IV:             c.PostForm("iv"),
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		ciphertext: ciphertext,
		sharedWith: make(map[uuid.UUID]bool),
	}

	f.mu.Lock()
	f.files[uuid.MustParse(file.meta.ID)] = file
	f.mu.Unlock()
	c.JSON(http.StatusCreated, file.meta)
}

// visible returns the file if user owns it or it was shared with user.
func (f *FakeFileAPI) visible(c *gin.Context, user *fakeUser) *fakeFile {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil
	}
	file, ok := f.files[id]
	if !ok {
		return nil
	}
	if file.meta.OwnerID == user.ID.String() || file.sharedWith[user.ID] || user.Role == authDomain.RoleAdmin {
		return file
	}
	return nil
}

func (f *FakeFileAPI) owned(c *gin.Context, user *fakeUser) *fakeFile {
	file := f.visible(c, user)
	if file == nil || file.meta.OwnerID != user.ID.String() {
		return nil
	}
	return file
}

func (f *FakeFileAPI) list(c *gin.Context) {
	user := currentUser(c)

	f.mu.Lock()
	defer f.mu.Unlock()
	resp := filesDTO.ListFilesResponse{Data: []filesDTO.FileResponse{}}
	for _, file := range f.files {
		if file.meta.OwnerID == user.ID.String() {
			resp.Data = append(resp.Data, file.meta)
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (f *FakeFileAPI) sharedWithMe(c *gin.Context) {
	user := currentUser(c)

	f.mu.Lock()
	defer f.mu.Unlock()
	resp := filesDTO.ListFilesResponse{Data: []filesDTO.FileResponse{}}
	for _, file := range f.files {
		if file.sharedWith[user.ID] {
			resp.Data = append(resp.Data, file.meta)
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (f *FakeFileAPI) download(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file := f.visible(c, currentUser(c))
	if file == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if c.Query("metadata") == "true" {
		c.JSON(http.StatusOK, file.meta)
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", file.ciphertext)
}

func (f *FakeFileAPI) delete(c *gin.Context) {
	user := currentUser(c)
	if user.Role == authDomain.RoleGuest {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	file := f.owned(c, user)
	if file == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	fileID := uuid.MustParse(file.meta.ID)
	delete(f.files, fileID)
	for id, link := range f.links {
		if link.fileID == fileID {
			delete(f.links, id)
		}
	}
	c.Status(http.StatusNoContent)
}

func (f *FakeFileAPI) share(c *gin.Context) {
	var req filesDTO.ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	user := currentUser(c)
	file := f.owned(c, user)
	if file == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	target, ok := f.users[req.Email]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if target.ID == user.ID {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid_input"})
		return
	}
	file.sharedWith[target.ID] = true
	c.Status(http.StatusNoContent)
}

func (f *FakeFileAPI) createShareLink(c *gin.Context) {
	var req filesDTO.CreateShareLinkRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
			return
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	file := f.owned(c, currentUser(c))
	if file == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}

	link := &fakeLink{id: uuid.Must(uuid.NewV7()), fileID: uuid.MustParse(file.meta.ID), createdAt: time.Now().UTC()}
	if req.ExpiresInSeconds != nil {
		expiresAt := time.Now().UTC().Add(time.Duration(*req.ExpiresInSeconds) * time.Second)
		link.expiresAt = &expiresAt
	}
	f.links[link.id] = link

	c.JSON(http.StatusCreated, filesDTO.ShareLinkResponse{
		ID:        link.id.String(),
		FileID:    link.fileID.String(),
		URL:       f.Server.URL + "/shared/" + link.id.String(),
		ExpiresAt: link.expiresAt,
	})
}

func (f *FakeFileAPI) shared(c *gin.Context) {
	id, err := uuid.Parse(c.Param("shareId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	link, ok := f.links[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if link.expiresAt != nil && !time.Now().Before(*link.expiresAt) {
		c.JSON(http.StatusGone, gin.H{"error": "gone", "message": "share link expired"})
		return
	}
	file := f.files[link.fileID]

	if c.Query("metadata") == "true" {
		c.JSON(http.StatusOK, filesDTO.SharedFileResponse{
			ID:        link.id.String(),
			FileID:    file.meta.ID,
			Name:      file.meta.Name,
			MIMEType:  file.meta.MIMEType,
			Size:      file.meta.Size,
			IV:        file.meta.IV,
			ExpiresAt: link.expiresAt,
			CreatedAt: link.createdAt,
		})
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", file.ciphertext)
}
