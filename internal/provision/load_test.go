package provision

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treasure-hunt/internal/config"
	"treasure-hunt/internal/store"
)

func TestLoadLocalSeedIntoSQLite(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	dir := t.TempDir()

	seedPath := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte(yamlSeed), 0o600))

	var cfg config.Config
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.Path = filepath.Join(dir, "hunt.db")
	cfg.Seed.Location = seedPath

	st, err := store.Open(ctx, cfg, logger)
	require.NoError(t, err)
	defer st.Close(ctx)

	res, err := Load(ctx, cfg, st, logger)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Rounds)
	assert.Equal(t, 1, res.UsersCreated)

	user, err := st.Users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "pathA", user.Path)

	round, err := st.Rounds.Get(ctx, "pathA", 2)
	require.NoError(t, err)
	assert.Equal(t, "silver", round.Solution)
}

func TestLoadRejectsInvalidSeed(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	dir := t.TempDir()

	seedPath := filepath.Join(dir, "seed.json")
	require.NoError(t, os.WriteFile(seedPath, []byte(`{"paths":[{"name":"p","rounds":[{"round":2,"solution":"x"}]}]}`), 0o600))

	var cfg config.Config
	cfg.Database.Driver = config.DriverMemory
	cfg.Seed.Location = seedPath

	st, err := store.Open(ctx, cfg, logger)
	require.NoError(t, err)

	_, err = Load(ctx, cfg, st, logger)
	assert.Error(t, err)

	n, err := st.Rounds.Count(ctx, "p")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLoadMissingFile(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()

	var cfg config.Config
	cfg.Database.Driver = config.DriverMemory
	cfg.Seed.Location = filepath.Join(t.TempDir(), "absent.yaml")

	st, err := store.Open(ctx, cfg, logger)
	require.NoError(t, err)

	_, err = Load(ctx, cfg, st, logger)
	assert.Error(t, err)
}

func TestBuildS3ClientWithStaticCredentials(t *testing.T) {
	var cfg config.Config
	cfg.Storage.Region = "eu-west-1"
	cfg.Storage.Endpoint = "http://localhost:9000"
	cfg.Storage.AccessKey = "hunt"
	cfg.Storage.SecretKey = "hunt-secret"

	client, err := buildS3Client(context.Background(), cfg)
	require.NoError(t, err)

	opts := client.Options()
	assert.Equal(t, "eu-west-1", opts.Region)
	assert.True(t, opts.UsePathStyle)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://localhost:9000", *opts.BaseEndpoint)

	creds, err := opts.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hunt", creds.AccessKeyID)
}
