package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/allisson/filevault/internal/client/api"
	"github.com/allisson/filevault/internal/client/custodian"
	"github.com/allisson/filevault/internal/client/journal"
	"github.com/allisson/filevault/internal/client/removal"
	"github.com/allisson/filevault/internal/client/retrieval"
	"github.com/allisson/filevault/internal/client/session"
	"github.com/allisson/filevault/internal/client/sharing"
	"github.com/allisson/filevault/internal/client/transport"
	"github.com/allisson/filevault/internal/client/upload"
	"github.com/allisson/filevault/internal/config"
	cryptoService "github.com/allisson/filevault/internal/crypto/service"
	"github.com/allisson/filevault/internal/database"
	filesDomain "github.com/allisson/filevault/internal/files/domain"
)

// ClientContainer holds the dependencies of the client commands.
//
// The session Manager is the token source of every protected call. The auth endpoints
// use a transport without one, so refreshing never recurses into itself.
type ClientContainer struct {
	config *config.ClientConfig

	logger    *slog.Logger
	logOutput io.Writer
	db        *sql.DB
	engine    cryptoService.Engine

	baseTransport *transport.Client
	authAPI       *api.AuthAPI
	session       *session.Manager
	filesAPI      *api.FilesAPI
	custodian     *custodian.Client
	operations    *journal.SQLiteOperationRepository

	uploader  *upload.Orchestrator
	retriever *retrieval.Orchestrator
	resolver  *sharing.Resolver
	remover   *removal.Remover

	mu             sync.Mutex
	loggerInit     sync.Once
	dbInit         sync.Once
	transportInit  sync.Once
	sessionInit    sync.Once
	filesAPIInit   sync.Once
	custodianInit  sync.Once
	uploaderInit   sync.Once
	retrieverInit  sync.Once
	resolverInit   sync.Once
	removerInit    sync.Once
	initErrors     map[string]error
}

// NewClientContainer creates a client container. Logs go to stderr so command output on
// stdout stays clean.
func NewClientContainer(cfg *config.ClientConfig) *ClientContainer {
	return &ClientContainer{
		config:     cfg,
		logOutput:  os.Stderr,
		engine:     cryptoService.NewFileEngine(),
		initErrors: make(map[string]error),
	}
}

// Config returns the client configuration.
func (c *ClientContainer) Config() *config.ClientConfig {
	return c.config
}

// Logger returns the client logger.
func (c *ClientContainer) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = newLogger(c.logOutput, c.config.LogLevel)
	})
	return c.logger
}

// DB returns the durable client store, creating and migrating it on first access.
func (c *ClientContainer) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = journal.Open(c.config.StatePath)
		if err != nil {
			err = fmt.Errorf("failed to open client state: %w", err)
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// Transport returns the HTTP transport without a token source.
func (c *ClientContainer) Transport() *transport.Client {
	c.transportInit.Do(func() {
		c.baseTransport = transport.NewClient(transport.Config{
			Timeout:    c.config.HTTPTimeout(),
			MaxRetries: c.config.HTTPMaxRetries,
			RetryWait:  250 * time.Millisecond,
		}, nil, c.Logger())
		c.authAPI = api.NewAuthAPI(c.baseTransport, c.config.APIURL)
	})
	return c.baseTransport
}

// AuthAPI returns the auth endpoints client.
func (c *ClientContainer) AuthAPI() *api.AuthAPI {
	c.Transport()
	return c.authAPI
}

// Session returns the session manager backed by the durable token store.
func (c *ClientContainer) Session() (*session.Manager, error) {
	var err error
	c.sessionInit.Do(func() {
		var db *sql.DB
		db, err = c.DB()
		if err != nil {
			c.initErrors["session"] = err
			return
		}
		c.session = session.NewManager(
			c.AuthAPI(),
			journal.NewSQLiteTokenStore(db),
			session.Config{RefreshGuard: c.config.RefreshGuard()},
			c.Logger(),
		)
		c.operations = journal.NewSQLiteOperationRepository(db)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["session"]; exists {
		return nil, storedErr
	}
	return c.session, nil
}

// FilesAPI returns the file endpoints client authenticated through the session.
func (c *ClientContainer) FilesAPI() (*api.FilesAPI, error) {
	var err error
	c.filesAPIInit.Do(func() {
		var manager *session.Manager
		manager, err = c.Session()
		if err != nil {
			c.initErrors["filesAPI"] = err
			return
		}
		c.filesAPI = api.NewFilesAPI(
			c.Transport().WithTokenSource(manager),
			c.config.APIURL,
			filesDomain.DefaultMaxFileSize,
		)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["filesAPI"]; exists {
		return nil, storedErr
	}
	return c.filesAPI, nil
}

// Custodian returns the key custodian client authenticated through the session.
func (c *ClientContainer) Custodian() (*custodian.Client, error) {
	var err error
	c.custodianInit.Do(func() {
		var manager *session.Manager
		manager, err = c.Session()
		if err != nil {
			c.initErrors["custodian"] = err
			return
		}
		c.custodian = custodian.NewClient(
			c.Transport().WithTokenSource(manager),
			c.config.CustodianURL,
			c.engine,
		)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["custodian"]; exists {
		return nil, storedErr
	}
	return c.custodian, nil
}

// Uploader returns the upload orchestrator.
func (c *ClientContainer) Uploader() (*upload.Orchestrator, error) {
	var err error
	c.uploaderInit.Do(func() {
		var deps *clientDeps
		deps, err = c.deps()
		if err != nil {
			c.initErrors["uploader"] = err
			return
		}
		c.uploader = upload.NewOrchestrator(
			c.engine,
			deps.files,
			deps.keys,
			c.operations,
			deps.session,
			upload.Config{
				MaxFileSize:      filesDomain.DefaultMaxFileSize,
				KeyStoreAttempts: c.config.KeyStoreAttempts,
				KeyStoreBackoff:  c.config.KeyStoreBackoff(),
			},
			c.Logger(),
		)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["uploader"]; exists {
		return nil, storedErr
	}
	return c.uploader, nil
}

// Retriever returns the retrieval orchestrator.
func (c *ClientContainer) Retriever() (*retrieval.Orchestrator, error) {
	var err error
	c.retrieverInit.Do(func() {
		var deps *clientDeps
		deps, err = c.deps()
		if err != nil {
			c.initErrors["retriever"] = err
			return
		}
		c.retriever = retrieval.NewOrchestrator(c.engine, deps.files, deps.keys, deps.session, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["retriever"]; exists {
		return nil, storedErr
	}
	return c.retriever, nil
}

// Resolver returns the share-link resolver.
func (c *ClientContainer) Resolver() (*sharing.Resolver, error) {
	var err error
	c.resolverInit.Do(func() {
		var deps *clientDeps
		deps, err = c.deps()
		if err != nil {
			c.initErrors["resolver"] = err
			return
		}
		var retriever *retrieval.Orchestrator
		retriever, err = c.Retriever()
		if err != nil {
			c.initErrors["resolver"] = err
			return
		}
		c.resolver = sharing.NewResolver(deps.files, retriever, deps.session, c.config.ShareOrigin, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["resolver"]; exists {
		return nil, storedErr
	}
	return c.resolver, nil
}

// Remover returns the file remover.
func (c *ClientContainer) Remover() (*removal.Remover, error) {
	var err error
	c.removerInit.Do(func() {
		var deps *clientDeps
		deps, err = c.deps()
		if err != nil {
			c.initErrors["remover"] = err
			return
		}
		c.remover = removal.NewRemover(deps.files, deps.keys, c.operations, deps.session, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["remover"]; exists {
		return nil, storedErr
	}
	return c.remover, nil
}

// Reconciler returns a journal reconciler ticking at interval when started.
func (c *ClientContainer) Reconciler(interval time.Duration) (*removal.Reconciler, error) {
	deps, err := c.deps()
	if err != nil {
		return nil, err
	}
	return removal.NewReconciler(
		removal.Config{
			Interval:    interval,
			BatchSize:   c.config.ReconcileBatchSize,
			MaxAttempts: c.config.ReconcileMaxAttempts,
		},
		database.NewTxManager(c.db),
		c.operations,
		deps.files,
		deps.keys,
		c.Logger(),
	), nil
}

// Operations returns the pending-operations journal.
func (c *ClientContainer) Operations() (*journal.SQLiteOperationRepository, error) {
	if _, err := c.Session(); err != nil {
		return nil, err
	}
	return c.operations, nil
}

// Shutdown closes the durable client store.
func (c *ClientContainer) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			return fmt.Errorf("client state close: %w", err)
		}
	}
	return nil
}

type clientDeps struct {
	session *session.Manager
	files   *api.FilesAPI
	keys    *custodian.Client
}

func (c *ClientContainer) deps() (*clientDeps, error) {
	manager, err := c.Session()
	if err != nil {
		return nil, err
	}
	files, err := c.FilesAPI()
	if err != nil {
		return nil, err
	}
	keys, err := c.Custodian()
	if err != nil {
		return nil, err
	}
	return &clientDeps{session: manager, files: files, keys: keys}, nil
}
