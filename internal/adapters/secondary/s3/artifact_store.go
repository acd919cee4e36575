package s3

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	log "github.com/sirupsen/logrus"

	"betting-model-service/internal/config"
	"betting-model-service/internal/core/domain"
	ports "betting-model-service/internal/core/ports/output"
)

type artifactStore struct {
	client     *awss3.Client
	uploader   *manager.Uploader
	downloader *manager.Downloader
}

// NewArtifactStore creates an S3-backed artifact store. A custom endpoint
// with path-style addressing covers MinIO-compatible stores.
func NewArtifactStore(ctx context.Context, cfg *config.ArtifactConfig) (ports.ArtifactStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &artifactStore{
		client:     client,
		uploader:   manager.NewUploader(client),
		downloader: manager.NewDownloader(client),
	}, nil
}

func (s *artifactStore) Upload(ctx context.Context, localPath, uri string) error {
	bucket, prefix, err := parseS3URI(uri)
	if err != nil {
		return err
	}

	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("stat %s: %w", localPath, err)
	}

	if !info.IsDir() {
		key := joinKey(prefix, filepath.Base(localPath))
		return s.uploadFile(ctx, localPath, bucket, key)
	}

	return filepath.Walk(localPath, func(path string, fi os.FileInfo, err error) error {
		if err != nil || fi.IsDir() {
			return err
		}
		rel, err := filepath.Rel(localPath, path)
		if err != nil {
			return err
		}
		key := joinKey(prefix, filepath.ToSlash(rel))
		return s.uploadFile(ctx, path, bucket, key)
	})
}

func (s *artifactStore) uploadFile(ctx context.Context, path, bucket, key string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	_, err = s.uploader.Upload(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", bucket, key, err)
	}

	log.WithFields(log.Fields{"bucket": bucket, "key": key}).Debug("artifact uploaded")
	return nil
}

func (s *artifactStore) Download(ctx context.Context, uri, destDir string) (string, error) {
	bucket, prefix, err := parseS3URI(uri)
	if err != nil {
		return "", err
	}

	paginator := awss3.NewListObjectsV2Paginator(s.client, &awss3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	found := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return "", fmt.Errorf("list s3://%s/%s: %w", bucket, prefix, err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			rel := strings.TrimPrefix(strings.TrimPrefix(key, prefix), "/")
			if rel == "" {
				rel = filepath.Base(key)
			}

			local := filepath.Join(destDir, filepath.FromSlash(rel))
			if err := s.downloadObject(ctx, bucket, key, local); err != nil {
				return "", err
			}
			found++
		}
	}

	if found == 0 {
		return "", fmt.Errorf("%w: s3://%s/%s", domain.ErrArtifactNotFound, bucket, prefix)
	}

	log.WithFields(log.Fields{
		"bucket":  bucket,
		"prefix":  prefix,
		"objects": found,
		"dest":    destDir,
	}).Debug("artifacts downloaded")
	return destDir, nil
}

func (s *artifactStore) downloadObject(ctx context.Context, bucket, key, local string) error {
	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", local, err)
	}

	f, err := os.Create(local)
	if err != nil {
		return fmt.Errorf("create %s: %w", local, err)
	}
	defer f.Close()

	_, err = s.downloader.Download(ctx, f, &awss3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("download s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

func parseS3URI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("parse artifact uri %q: %w", uri, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("%w: %q", domain.ErrUnsupportedArtifactURI, uri)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("%w: missing bucket in %q", domain.ErrUnsupportedArtifactURI, uri)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

func joinKey(parts ...string) string {
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			clean = append(clean, p)
		}
	}
	return strings.Join(clean, "/")
}
