package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FakeCustodian is an in-memory key custodian served by httptest.
//
// When built with a FakeFileAPI it accepts only access tokens issued by that API;
// otherwise any bearer token is accepted. Route names for Fail and Calls are store,
// retrieve and delete.
type FakeCustodian struct {
	*faults

	Server *httptest.Server

	mu   sync.Mutex
	keys map[uuid.UUID]string
}

// NewFakeCustodian starts a fake custodian. The server is closed when the test ends.
func NewFakeCustodian(t *testing.T, fileAPI *FakeFileAPI) *FakeCustodian {
	t.Helper()
	gin.SetMode(gin.TestMode)

	c := &FakeCustodian{
		faults: newFaults(),
		keys:   make(map[uuid.UUID]string),
	}

	auth := requireBearer
	if fileAPI != nil {
		auth = fileAPI.requireToken(fakeAccessType)
	}

	router := gin.New()
	keys := router.Group("/keys", auth)
	keys.POST("/:id", c.middleware("store"), c.store)
	keys.GET("/:id", c.middleware("retrieve"), c.retrieve)
	keys.DELETE("/:id", c.middleware("delete"), c.delete)

	c.Server = httptest.NewServer(router)
	t.Cleanup(c.Server.Close)
	return c
}

// URL returns the custodian base URL.
func (c *FakeCustodian) URL() string {
	return c.Server.URL
}

// HasKey reports whether a key is stored for fileID.
func (c *FakeCustodian) HasKey(fileID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.keys[fileID]
	return ok
}

// KeyCount returns the number of stored keys.
func (c *FakeCustodian) KeyCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.keys)
}

// PutKey stores an encoded key directly.
func (c *FakeCustodian) PutKey(fileID uuid.UUID, encoded string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys[fileID] = encoded
}

func requireBearer(c *gin.Context) {
	if !strings.HasPrefix(c.GetHeader("Authorization"), "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Next()
}

func (c *FakeCustodian) fileID(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return uuid.Nil, false
	}
	return id, true
}

func (c *FakeCustodian) store(ctx *gin.Context) {
	id, ok := c.fileID(ctx)
	if !ok {
		return
	}
	var body struct {
		EncryptionKey string `json:"encryption_key"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil || body.EncryptionKey == "" {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid_input"})
		return
	}

	c.mu.Lock()
	c.keys[id] = body.EncryptionKey
	c.mu.Unlock()
	ctx.Status(http.StatusCreated)
}

func (c *FakeCustodian) retrieve(ctx *gin.Context) {
	id, ok := c.fileID(ctx)
	if !ok {
		return
	}

	c.mu.Lock()
	key, found := c.keys[id]
	c.mu.Unlock()
	if !found {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"encryption_key": key})
}

func (c *FakeCustodian) delete(ctx *gin.Context) {
	id, ok := c.fileID(ctx)
	if !ok {
		return
	}

	c.mu.Lock()
	_, found := c.keys[id]
	delete(c.keys, id)
	c.mu.Unlock()
	if !found {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	ctx.Status(http.StatusNoContent)
}
