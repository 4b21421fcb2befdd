package options

import (
	"errors"

	"github.com/spf13/pflag"
)

var _ IOptions = (*S3Options)(nil)

// S3Options contains configuration for the attachment object store.
type S3Options struct {
	// Enabled toggles attachment storage. When false the attachment
	// endpoints respond with 503.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	Endpoint        string `json:"endpoint" mapstructure:"endpoint"`
	AccessKeyID     string `json:"access-key-id" mapstructure:"access-key-id"`
	SecretAccessKey string `json:"secret-access-key" mapstructure:"secret-access-key"`
	UseSSL          bool   `json:"use-ssl" mapstructure:"use-ssl"`
	BucketName      string `json:"bucket-name" mapstructure:"bucket-name"`
	Region          string `json:"region" mapstructure:"region"`
}

// NewS3Options creates a S3Options object with default parameters.
func NewS3Options() *S3Options {
	return &S3Options{
		Enabled:    false,
		Endpoint:   "127.0.0.1:9000",
		UseSSL:     false,
		BucketName: "maintenance-attachments",
		Region:     "us-east-1",
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *S3Options) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}

	errs := []error{}

	if o.Endpoint == "" {
		errs = append(errs, errors.New("s3 endpoint is required"))
	}
	if o.BucketName == "" {
		errs = append(errs, errors.New("s3 bucket name is required"))
	}

	return errs
}

// AddFlags adds flags for the object store to the specified FlagSet.
func (o *S3Options) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.Enabled, "s3.enabled", o.Enabled, "Enable S3-backed attachment storage.")
	fs.StringVar(&o.Endpoint, "s3.endpoint", o.Endpoint, "S3 service endpoint (e.g. s3.amazonaws.com or minio.local).")
	fs.StringVar(&o.AccessKeyID, "s3.access-key-id", o.AccessKeyID, "S3 access key ID.")
	fs.StringVar(&o.SecretAccessKey, "s3.secret-access-key", o.SecretAccessKey, "S3 secret access key.")
	fs.BoolVar(&o.UseSSL, "s3.use-ssl", o.UseSSL, "Enable SSL for the S3 connection.")
	fs.StringVar(&o.BucketName, "s3.bucket-name", o.BucketName, "S3 bucket name for maintenance attachments.")
	fs.StringVar(&o.Region, "s3.region", o.Region, "S3 region.")
}
