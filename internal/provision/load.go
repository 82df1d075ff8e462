package provision

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"treasure-hunt/internal/config"
	"treasure-hunt/internal/storage"
	"treasure-hunt/internal/store"
)

// Load reads the seed at cfg.Seed.Location and applies it to st.
func Load(ctx context.Context, cfg config.Config, st *store.Store, log logrus.FieldLogger) (*Result, error) {
	loc, err := storage.ParseLocation(cfg.Seed.Location)
	if err != nil {
		return nil, err
	}

	var remote storage.ObjectFetcher
	if loc.Remote() {
		client, err := buildS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		remote = storage.NewS3Service(client)
	}

	return LoadFrom(ctx, storage.NewService(remote), loc, st, log)
}

// LoadFrom reads the seed at loc through svc and applies it to st.
func LoadFrom(ctx context.Context, svc storage.Service, loc storage.Location, st *store.Store, log logrus.FieldLogger) (*Result, error) {
	rc, err := svc.Open(ctx, loc)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	seed, err := Parse(rc, loc.Format())
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", loc, err)
	}
	log.Infof("applying seed %s (%d paths, %d users)", loc, len(seed.Paths), len(seed.Users))
	return Apply(ctx, seed, st.Users, st.Rounds, log)
}

func buildS3Client(ctx context.Context, cfg config.Config) (*s3.Client, error) {
	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	switch {
	case cfg.Storage.AccessKey != "":
		loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		))
	case cfg.AWS.Profile != "":
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
