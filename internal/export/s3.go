// Package export archives computed results reports to S3 so downstream
// analytics can consume them without hitting the API.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/experiment-engine/internal/service/results"
)

// S3Exporter writes results reports to an S3 bucket as timestamped JSON
// objects, keyed by experiment.
type S3Exporter struct {
	client *s3.Client
	bucket string
	prefix string
}

// S3Config configures the exporter.
type S3Config struct {
	Bucket string
	Prefix string // e.g. "reports/"
	Region string
}

// NewS3Exporter creates an exporter using the default AWS credential chain.
func NewS3Exporter(ctx context.Context, cfg S3Config) (*S3Exporter, error) {
	region := cfg.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
		if region == "" {
			region = "us-east-1"
		}
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)

	// Non-fatal: the bucket may not exist yet or creds may lack HeadBucket.
	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		log.Printf("[Export] bucket access check failed for %s: %v", cfg.Bucket, err)
	}

	log.Printf("[Export] S3 exporter initialized: bucket=%s prefix=%s region=%s",
		cfg.Bucket, cfg.Prefix, region)

	return &S3Exporter{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Export uploads the report to
// <prefix><experiment_id>/<RFC3339 timestamp>.json.
func (e *S3Exporter) Export(ctx context.Context, report *results.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize report: %w", err)
	}

	key := fmt.Sprintf("%s%s/%s.json",
		e.prefix, report.ExperimentID, time.Now().UTC().Format(time.RFC3339))

	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("upload report to s3://%s/%s: %w", e.bucket, key, err)
	}

	log.Printf("[Export] report archived: s3://%s/%s (%d bytes)", e.bucket, key, len(data))
	return nil
}
