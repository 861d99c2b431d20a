package app

import (
	"context"
	"fmt"

	filesHTTP "github.com/allisson/filevault/internal/files/http"
	filesRepository "github.com/allisson/filevault/internal/files/repository"
	filesService "github.com/allisson/filevault/internal/files/service"
	filesUseCase "github.com/allisson/filevault/internal/files/usecase"
)

// BlobStore returns the ciphertext store opened from BLOB_BUCKET_URL.
func (c *Container) BlobStore() (filesService.BlobStore, error) {
	var err error
	c.blobStoreInit.Do(func() {
		c.blobStore, err = filesService.NewBlobStore(context.Background(), c.config.BlobBucketURL)
		if err != nil {
			err = fmt.Errorf("failed to open blob store: %w", err)
			c.initErrors["blobStore"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["blobStore"]; exists {
		return nil, storedErr
	}
	return c.blobStore, nil
}

// FileRepository returns the file repository based on database driver.
func (c *Container) FileRepository() (filesUseCase.FileRepository, error) {
	var err error
	c.fileRepositoryInit.Do(func() {
		c.fileRepository, err = c.initFileRepository()
		if err != nil {
			c.initErrors["fileRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["fileRepository"]; exists {
		return nil, storedErr
	}
	return c.fileRepository, nil
}

// ShareRepository returns the share repository based on database driver.
func (c *Container) ShareRepository() (filesUseCase.ShareRepository, error) {
	var err error
	c.shareRepositoryInit.Do(func() {
		c.shareRepository, err = c.initShareRepository()
		if err != nil {
			c.initErrors["shareRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["shareRepository"]; exists {
		return nil, storedErr
	}
	return c.shareRepository, nil
}

// ShareLinkRepository returns the share link repository based on database driver.
func (c *Container) ShareLinkRepository() (filesUseCase.ShareLinkRepository, error) {
	var err error
	c.shareLinkRepositoryInit.Do(func() {
		c.shareLinkRepository, err = c.initShareLinkRepository()
		if err != nil {
			c.initErrors["shareLinkRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["shareLinkRepository"]; exists {
		return nil, storedErr
	}
	return c.shareLinkRepository, nil
}

// FileUseCase returns the file use case, decorated with business metrics.
func (c *Container) FileUseCase() (filesUseCase.FileUseCase, error) {
	var err error
	c.fileUseCaseInit.Do(func() {
		c.fileUseCase, err = c.initFileUseCase()
		if err != nil {
			c.initErrors["fileUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["fileUseCase"]; exists {
		return nil, storedErr
	}
	return c.fileUseCase, nil
}

// ShareLinkUseCase returns the share link use case, decorated with business metrics.
func (c *Container) ShareLinkUseCase() (filesUseCase.ShareLinkUseCase, error) {
	var err error
	c.shareLinkUseCaseInit.Do(func() {
		c.shareLinkUseCase, err = c.initShareLinkUseCase()
		if err != nil {
			c.initErrors["shareLinkUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["shareLinkUseCase"]; exists {
		return nil, storedErr
	}
	return c.shareLinkUseCase, nil
}

// FileHandler returns the HTTP handler for file operations.
func (c *Container) FileHandler() (*filesHTTP.FileHandler, error) {
	var err error
	c.fileHandlerInit.Do(func() {
		var fileUseCase filesUseCase.FileUseCase
		fileUseCase, err = c.FileUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get file use case for file handler: %w", err)
			c.initErrors["fileHandler"] = err
			return
		}
		c.fileHandler = filesHTTP.NewFileHandler(fileUseCase, c.config.FileMaxSizeBytes, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["fileHandler"]; exists {
		return nil, storedErr
	}
	return c.fileHandler, nil
}

// ShareLinkHandler returns the HTTP handler for share links.
func (c *Container) ShareLinkHandler() (*filesHTTP.ShareLinkHandler, error) {
	var err error
	c.shareLinkHandlerInit.Do(func() {
		var shareLinkUseCase filesUseCase.ShareLinkUseCase
		shareLinkUseCase, err = c.ShareLinkUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get share link use case for share link handler: %w", err)
			c.initErrors["shareLinkHandler"] = err
			return
		}
		c.shareLinkHandler = filesHTTP.NewShareLinkHandler(shareLinkUseCase, c.config.ShareOrigin, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["shareLinkHandler"]; exists {
		return nil, storedErr
	}
	return c.shareLinkHandler, nil
}

// initFileRepository creates the file repository instance.
func (c *Container) initFileRepository() (filesUseCase.FileRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for file repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return filesRepository.NewMySQLFileRepository(db), nil
	case "postgres":
		return filesRepository.NewPostgreSQLFileRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initShareRepository creates the share repository instance.
func (c *Container) initShareRepository() (filesUseCase.ShareRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for share repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return filesRepository.NewMySQLShareRepository(db), nil
	case "postgres":
		return filesRepository.NewPostgreSQLShareRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initShareLinkRepository creates the share link repository instance.
func (c *Container) initShareLinkRepository() (filesUseCase.ShareLinkRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for share link repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return filesRepository.NewMySQLShareLinkRepository(db), nil
	case "postgres":
		return filesRepository.NewPostgreSQLShareLinkRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initFileUseCase creates the file use case with all its dependencies.
func (c *Container) initFileUseCase() (filesUseCase.FileUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for file use case: %w", err)
	}

	fileRepo, err := c.FileRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get file repository for file use case: %w", err)
	}

	shareRepo, err := c.ShareRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get share repository for file use case: %w", err)
	}

	shareLinkRepo, err := c.ShareLinkRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get share link repository for file use case: %w", err)
	}

	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for file use case: %w", err)
	}

	blobStore, err := c.BlobStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get blob store for file use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for file use case: %w", err)
	}

	useCase := filesUseCase.NewFileUseCase(
		filesUseCase.Config{MaxFileSize: c.config.FileMaxSizeBytes},
		txManager,
		fileRepo,
		shareRepo,
		shareLinkRepo,
		userRepo,
		blobStore,
		c.Logger(),
	)

	return filesUseCase.NewFileUseCaseWithMetrics(useCase, businessMetrics), nil
}

// initShareLinkUseCase creates the share link use case with all its dependencies.
func (c *Container) initShareLinkUseCase() (filesUseCase.ShareLinkUseCase, error) {
	fileRepo, err := c.FileRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get file repository for share link use case: %w", err)
	}

	shareLinkRepo, err := c.ShareLinkRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get share link repository for share link use case: %w", err)
	}

	blobStore, err := c.BlobStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get blob store for share link use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for share link use case: %w", err)
	}

	useCase := filesUseCase.NewShareLinkUseCase(fileRepo, shareLinkRepo, blobStore)
	return filesUseCase.NewShareLinkUseCaseWithMetrics(useCase, businessMetrics), nil
}
