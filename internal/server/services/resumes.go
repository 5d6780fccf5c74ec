package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/appli/internal/common"
	sc "github.com/dmitrijs2005/appli/internal/server/config"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

const (
	resumeKeyPrefix = "resumes/"
	presignExpiry   = 15 * time.Minute
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}

	timeNow = time.Now
)

// ResumeService hands out presigned object storage URLs so applicants can
// upload resumes directly and admins can read them. Without a configured
// bucket every call returns common.ErrorNotConfigured.
type ResumeService struct {
	config *sc.Config
}

func NewResumeService(config *sc.Config) *ResumeService {
	return &ResumeService{config: config}
}

// ResumeKey builds a fresh storage key for a resume of userID.
func ResumeKey(userID string) string {
	d := timeNow().UTC()
	return fmt.Sprintf("%s%s/%04d/%02d/%02d/%s", resumeKeyPrefix, userID, d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *ResumeService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newS3PresignClient(client), nil
}

// PresignUpload returns a new resume key for userID and a presigned PUT URL
// for it, valid for 15 minutes.
func (s *ResumeService) PresignUpload(ctx context.Context, userID string) (string, string, error) {
	if !s.config.S3Enabled() {
		return "", "", common.ErrorNotConfigured
	}

	pc, err := s.getPresignClient(ctx)
	if err != nil {
		return "", "", oops.Code("S3_CONFIG_FAILED").Wrap(err)
	}

	bucket := s.config.S3Bucket
	key := ResumeKey(userID)

	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", "", oops.Code("S3_PRESIGN_FAILED").With("key", key).Wrap(err)
	}

	return key, req.URL, nil
}

// PresignDownload returns a URL an admin can open to read the resume of an
// application. External URLs are returned unchanged.
func (s *ResumeService) PresignDownload(ctx context.Context, resume string) (string, error) {
	if !strings.HasPrefix(resume, resumeKeyPrefix) {
		return resume, nil
	}
	if !s.config.S3Enabled() {
		return "", common.ErrorNotConfigured
	}

	pc, err := s.getPresignClient(ctx)
	if err != nil {
		return "", oops.Code("S3_CONFIG_FAILED").Wrap(err)
	}

	bucket := s.config.S3Bucket
	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &resume,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", oops.Code("S3_PRESIGN_FAILED").With("key", resume).Wrap(err)
	}

	return req.URL, nil
}
