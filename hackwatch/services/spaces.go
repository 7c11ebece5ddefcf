package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// SpacesService archives generated announcement images to DigitalOcean
// Spaces so past solve cards stay linkable after Discord attachments expire.
type SpacesService struct {
	client    *s3.Client
	bucket    string
	region    string
	imageRoot string
}

func NewSpacesService(spacesKey, spacesSecret, region, bucket, imageRoot string) (*SpacesService, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.digitaloceanspaces.com", region),
		}, nil
	})

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(spacesKey, spacesSecret, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load Spaces config: %w", err)
	}

	return &SpacesService{
		client:    s3.NewFromConfig(cfg),
		bucket:    bucket,
		region:    region,
		imageRoot: strings.Trim(imageRoot, "/"),
	}, nil
}

// ArchiveSolveImage uploads a rendered solve card and returns its public URL.
func (s *SpacesService) ArchiveSolveImage(ctx context.Context, guildID, username, challengeName string, data []byte) (string, error) {
	key := fmt.Sprintf("%s/%s/%s/%s_%d.png",
		s.imageRoot, guildID, username, sanitizeKey(challengeName), time.Now().Unix())
	key = strings.TrimPrefix(key, "/")

	contentType := "image/png"
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ACL:         types.ObjectCannedACLPublicRead,
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload solve image: %w", err)
	}

	return fmt.Sprintf("https://%s.%s.digitaloceanspaces.com/%s", s.bucket, s.region, key), nil
}

func sanitizeKey(name string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "-", "?", "", "#", "", "&", "")
	return replacer.Replace(strings.ToLower(name))
}
