package credentials

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patentbase-io/patentbase/internal/config"
	"github.com/patentbase-io/patentbase/internal/infrastructure/monitoring/logging"
	"github.com/patentbase-io/patentbase/pkg/errors"
)

type fakeObjectAPI struct {
	content string
	err     error
	calls   int
}

func (f *fakeObjectAPI) GetObject(_ context.Context, _, _ string) (io.ReadCloser, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.content)), nil
}

func TestAcquire_NoSourceConfigured(t *testing.T) {
	// Construction succeeds so the read surface can still start; the missing
	// source only surfaces when a batch tries to acquire a credential.
	b, err := NewBroker(config.CredentialsConfig{}, logging.NewNopLogger())
	require.NoError(t, err)

	_, _, err = b.Acquire(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CodeCredentialsUnavailable, errors.GetCode(err))
}

func TestAcquire_DirectPath(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(keyPath, []byte(`{"type":"service_account"}`), 0o600))

	b, err := NewBroker(config.CredentialsConfig{Path: keyPath}, logging.NewNopLogger())
	require.NoError(t, err)

	got, release, err := b.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	assert.Equal(t, keyPath, got)

	// Release must not delete a key file the broker does not own.
	release()
	_, statErr := os.Stat(keyPath)
	assert.NoError(t, statErr)
}

func TestAcquire_DirectPathMissingNoFallback(t *testing.T) {
	b, err := NewBroker(config.CredentialsConfig{
		Path: filepath.Join(t.TempDir(), "absent.json"),
	}, logging.NewNopLogger())
	require.NoError(t, err)

	_, _, err = b.Acquire(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CodeCredentialsUnavailable, errors.GetCode(err))
}

func TestAcquire_DirectPathMissingFallsBackToObjectStore(t *testing.T) {
	fake := &fakeObjectAPI{content: `{"type":"service_account"}`}
	b := NewBrokerWithObjectAPI(config.CredentialsConfig{
		Path:         filepath.Join(t.TempDir(), "absent.json"),
		ObjectBucket: "secrets",
		ObjectKey:    "warehouse/key.json",
	}, fake, logging.NewNopLogger())

	path, release, err := b.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	assert.Equal(t, 1, fake.calls)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, fake.content, string(data))
}

func TestAcquire_DirectPathPresentSkipsObjectStore(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(keyPath, []byte(`{}`), 0o600))

	fake := &fakeObjectAPI{content: `{}`}
	b := NewBrokerWithObjectAPI(config.CredentialsConfig{
		Path:         keyPath,
		ObjectBucket: "secrets",
		ObjectKey:    "warehouse/key.json",
	}, fake, logging.NewNopLogger())

	got, release, err := b.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	assert.Equal(t, keyPath, got)
	assert.Equal(t, 0, fake.calls)
}

func TestAcquire_ObjectFetch(t *testing.T) {
	fake := &fakeObjectAPI{content: `{"type":"service_account","project_id":"p"}`}
	b := NewBrokerWithObjectAPI(config.CredentialsConfig{
		ObjectBucket: "secrets",
		ObjectKey:    "warehouse/key.json",
	}, fake, logging.NewNopLogger())

	path, release, err := b.Acquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, fake.calls)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, fake.content, string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	release()
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	// Release is idempotent.
	release()
}

func TestAcquire_ObjectFetchUnavailable(t *testing.T) {
	fake := &fakeObjectAPI{err: io.ErrUnexpectedEOF}
	b := NewBrokerWithObjectAPI(config.CredentialsConfig{
		ObjectBucket: "secrets",
		ObjectKey:    "warehouse/key.json",
	}, fake, logging.NewNopLogger())

	_, _, err := b.Acquire(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CodeCredentialsUnavailable, errors.GetCode(err))
}
