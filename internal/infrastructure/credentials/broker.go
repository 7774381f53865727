// Package credentials resolves the warehouse service-account key file for the
// duration of an ingest batch.
package credentials

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/patentbase-io/patentbase/internal/config"
	"github.com/patentbase-io/patentbase/internal/infrastructure/monitoring/logging"
	"github.com/patentbase-io/patentbase/pkg/errors"
)

// ObjectAPI is the slice of the object store the broker needs. Narrowing the
// surface keeps tests free of a live object store.
type ObjectAPI interface {
	GetObject(ctx context.Context, bucketName, objectName string) (io.ReadCloser, error)
}

// minioObjectAPI adapts a minio client to ObjectAPI.
type minioObjectAPI struct {
	client *minio.Client
}

func (m minioObjectAPI) GetObject(ctx context.Context, bucketName, objectName string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy: surface missing objects here rather than at first read.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}

// Broker hands out a filesystem path to the warehouse key file. Acquire
// prefers a locally configured key that exists on disk; otherwise it
// downloads the key object into a private temp file that the release
// function removes again.
type Broker interface {
	// Acquire returns the key path and a release function. The release
	// function must be called exactly once, after the warehouse client no
	// longer reads the file.
	Acquire(ctx context.Context) (string, func(), error)
}

type broker struct {
	cfg    config.CredentialsConfig
	object ObjectAPI
	logger logging.Logger

	mu sync.Mutex
}

// NewBroker builds a Broker from configuration. A broker with no credential
// source at all is still constructable: the absence of a source is a
// per-acquire failure, not a startup failure, so the read-only surfaces keep
// serving.
func NewBroker(cfg config.CredentialsConfig, logger logging.Logger) (Broker, error) {
	b := &broker{cfg: cfg, logger: logger}

	if cfg.ObjectEndpoint != "" {
		client, err := minio.New(cfg.ObjectEndpoint, &minio.Options{
			Creds:  miniocreds.NewStaticV4(cfg.ObjectAccessKey, cfg.ObjectSecretKey, ""),
			Secure: cfg.ObjectUseSSL,
		})
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeConfiguration, "object store client")
		}
		b.object = minioObjectAPI{client: client}
	}
	return b, nil
}

// NewBrokerWithObjectAPI is NewBroker with an injected object client, for tests.
func NewBrokerWithObjectAPI(cfg config.CredentialsConfig, object ObjectAPI, logger logging.Logger) Broker {
	return &broker{cfg: cfg, object: object, logger: logger}
}

func (b *broker) Acquire(ctx context.Context) (string, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cfg.Path != "" {
		if _, err := os.Stat(b.cfg.Path); err == nil {
			// Caller does not own a directly configured key file.
			return b.cfg.Path, func() {}, nil
		} else if b.object == nil {
			return "", nil, errors.Wrap(err, errors.CodeCredentialsUnavailable,
				"configured key file not readable")
		}
		b.logger.Warn("configured key file not readable, falling back to object store",
			logging.String("path", b.cfg.Path))
	}

	if b.object == nil {
		return "", nil, errors.New(errors.CodeCredentialsUnavailable,
			"no credential source configured: set credentials.path or credentials.object_endpoint")
	}

	path, err := b.fetchToTempFile(ctx)
	if err != nil {
		return "", nil, err
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
				b.logger.Warn("failed to remove temporary key file",
					logging.String("path", path), logging.Err(rmErr))
			}
		})
	}
	return path, release, nil
}

func (b *broker) fetchToTempFile(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	obj, err := b.object.GetObject(ctx, b.cfg.ObjectBucket, b.cfg.ObjectKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeCredentialsUnavailable, "fetch key object")
	}
	defer obj.Close()

	tmp, err := os.CreateTemp("", "patentbase-key-*.json")
	if err != nil {
		return "", errors.Wrap(err, errors.CodeCredentialsUnavailable, "create temporary key file")
	}
	defer tmp.Close()

	if err := tmp.Chmod(0o600); err != nil {
		os.Remove(tmp.Name())
		return "", errors.Wrap(err, errors.CodeCredentialsUnavailable, "restrict key file permissions")
	}

	if _, err := io.Copy(tmp, obj); err != nil {
		os.Remove(tmp.Name())
		return "", errors.Wrap(err, errors.CodeCredentialsUnavailable, "download key object")
	}

	b.logger.Debug("fetched warehouse key",
		logging.String("bucket", b.cfg.ObjectBucket),
		logging.String("key", b.cfg.ObjectKey),
		logging.String("path", filepath.Base(tmp.Name())))
	return tmp.Name(), nil
}
