package reliability

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// publishPatterns are the export artifacts pushed to object storage
var publishPatterns = []string{"*.json", "*.xlsx"}

// Uploader is the subset of the s3 upload manager the publisher uses
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Options configures the bucket client
type S3Options struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Uploader builds an upload manager for S3 or an S3-compatible endpoint.
// Static credentials are used when both keys are set, otherwise the default
// AWS credential chain applies.
func NewS3Uploader(ctx context.Context, opts S3Options) (*manager.Uploader, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return manager.NewUploader(client), nil
}

// PublishedFile describes one uploaded artifact
type PublishedFile struct {
	Key       string
	SizeBytes int64
	Checksum  string
}

// Publisher uploads export artifacts to a bucket
type Publisher struct {
	uploader Uploader
	bucket   string
	prefix   string
	log      zerolog.Logger
}

// NewPublisher creates a new artifact publisher
func NewPublisher(uploader Uploader, bucket, prefix string, log zerolog.Logger) *Publisher {
	return &Publisher{
		uploader: uploader,
		bucket:   bucket,
		prefix:   prefix,
		log:      log.With().Str("service", "publisher").Logger(),
	}
}

// Key returns the object key for an artifact name
func (p *Publisher) Key(name string) string {
	if p.prefix == "" {
		return name
	}
	return path.Join(p.prefix, name)
}

// Publish uploads every export artifact in dir. It stops at the first failed upload.
func (p *Publisher) Publish(ctx context.Context, dir string) ([]PublishedFile, error) {
	files, err := artifacts(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		p.log.Warn().Str("dir", dir).Msg("No artifacts to publish")
		return nil, nil
	}

	p.log.Info().Int("files", len(files)).Str("bucket", p.bucket).Msg("Starting publish")
	startTime := time.Now()

	published := make([]PublishedFile, 0, len(files))
	for _, file := range files {
		pf, err := p.upload(ctx, file)
		if err != nil {
			p.log.Error().Err(err).Str("file", file).Msg("Failed to publish artifact")
			return published, fmt.Errorf("failed to publish %s: %w", filepath.Base(file), err)
		}
		published = append(published, pf)
	}

	p.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Int("files", len(published)).
		Msg("Publish completed successfully")

	return published, nil
}

func (p *Publisher) upload(ctx context.Context, file string) (PublishedFile, error) {
	checksum, err := calculateChecksum(file)
	if err != nil {
		return PublishedFile{}, fmt.Errorf("failed to calculate checksum: %w", err)
	}

	f, err := os.Open(file)
	if err != nil {
		return PublishedFile{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return PublishedFile{}, err
	}

	key := p.Key(filepath.Base(file))
	_, err = p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(file)),
		Metadata:    map[string]string{"sha256": checksum},
	})
	if err != nil {
		return PublishedFile{}, err
	}

	p.log.Debug().Str("key", key).Int64("size_bytes", info.Size()).Msg("Artifact uploaded")

	return PublishedFile{Key: key, SizeBytes: info.Size(), Checksum: checksum}, nil
}

// artifacts lists the publishable files of dir in name order
func artifacts(dir string) ([]string, error) {
	var files []string
	for _, pattern := range publishPatterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to list artifacts: %w", err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

func contentType(file string) string {
	switch filepath.Ext(file) {
	case ".json":
		return "application/json"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// calculateChecksum calculates SHA256 checksum of a file
func calculateChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}
