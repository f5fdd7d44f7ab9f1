package s3svc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"gopkg.in/ini.v1"

	"github.com/sgaunet/s2console/pkg/config"
)

const defaultRegion = "us-east-1"

// ErrS3cfgKeys is returned when an s3cmd file has no credentials.
var ErrS3cfgKeys = errors.New("access_key and secret_key must be specified in .s3cfg")

// S3cfg holds the settings read from an s3cmd configuration file.
type S3cfg struct {
	AccessKey string
	SecretKey string
	HostBase  string
	UseHTTPS  bool
	Region    string
}

// EndpointURL returns the endpoint URL, or "" for AWS itself.
func (c *S3cfg) EndpointURL() string {
	if c.HostBase == "" || strings.HasSuffix(c.HostBase, "amazonaws.com") {
		return ""
	}
	protocol := "https"
	if !c.UseHTTPS {
		protocol = "http"
	}
	return fmt.Sprintf("%s://%s", protocol, c.HostBase)
}

// LoadS3cfg reads the [default] section of an s3cmd configuration file.
// A leading "~/" is expanded to the home directory.
func LoadS3cfg(path string) (*S3cfg, error) {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to expand %s: %w", path, err)
		}
		path = filepath.Join(home, rest)
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load .s3cfg: %w", err)
	}

	section := cfg.Section("default")
	c := &S3cfg{
		AccessKey: section.Key("access_key").String(),
		SecretKey: section.Key("secret_key").String(),
		HostBase:  section.Key("host_base").MustString("s3.amazonaws.com"),
		UseHTTPS:  section.Key("use_https").MustBool(true),
		Region:    section.Key("bucket_location").MustString(defaultRegion),
	}
	if c.AccessKey == "" || c.SecretKey == "" {
		return nil, ErrS3cfgKeys
	}
	return c, nil
}

// NewClient builds the S3 client described by cfg. In order of precedence:
// explicit endpoint, SSO profile, static keys, s3cmd file, default chain.
func NewClient(ctx context.Context, cfg config.S3Config, log *slog.Logger) (*s3.Client, error) {
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}
	accessKey, secretKey, endpoint := cfg.AccessKey, cfg.SecretKey, cfg.Endpoint

	if accessKey == "" && secretKey == "" && cfg.S3cfg != "" && cfg.SsoAwsProfile == "" {
		s3cfg, err := LoadS3cfg(cfg.S3cfg)
		if err != nil {
			return nil, err
		}
		log.Debug("Using s3cmd configuration", slog.String("file", cfg.S3cfg))
		accessKey, secretKey = s3cfg.AccessKey, s3cfg.SecretKey
		if endpoint == "" {
			endpoint = s3cfg.EndpointURL()
		}
		if cfg.Region == "" {
			region = s3cfg.Region
		}
	}

	var opts []func(*awsconfig.LoadOptions) error
	switch {
	case cfg.SsoAwsProfile != "":
		log.Debug("Try to use SSO profile")
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.SsoAwsProfile))
	case accessKey != "" || secretKey != "":
		log.Debug("Try to use static credentials")
		opts = append(opts,
			awsconfig.WithRegion(region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	default:
		log.Debug("Try to use default credential chain")
		opts = append(opts, awsconfig.WithRegion(region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		log.Error("Error loading AWS config", slog.String("error", err.Error()))
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
