package config

import (
	"context"
	"encoding/base64"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

type decrypter interface {
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

func newKMSClient(ctx context.Context, c *Config) (*kms.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.AWSRegion)}
	if c.AWSAccess != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AWSAccess, c.AWSSecret, "")))
	}

	kmsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load kms config: %w", err)
	}
	return kms.NewFromConfig(kmsCfg), nil
}

// ResolveSecrets fills SecretKey from SECRET_KEY_CIPHERTEXT when only the
// KMS-encrypted form is configured.
func (c *Config) ResolveSecrets(ctx context.Context) error {
	if c.SecretKey != "" || c.SecretKeyCiphertext == "" {
		return nil
	}
	client, err := newKMSClient(ctx, c)
	if err != nil {
		return err
	}
	return c.decryptSecretKey(ctx, client)
}

func (c *Config) decryptSecretKey(ctx context.Context, client decrypter) error {
	blob, err := base64.StdEncoding.DecodeString(c.SecretKeyCiphertext)
	if err != nil {
		return fmt.Errorf("SECRET_KEY_CIPHERTEXT is not base64: %w", err)
	}

	out, err := client.Decrypt(ctx, &kms.DecryptInput{CiphertextBlob: blob})
	if err != nil {
		return fmt.Errorf("decrypt secret key: %w", err)
	}
	if len(out.Plaintext) == 0 {
		return fmt.Errorf("decrypt secret key: empty plaintext")
	}

	c.SecretKey = string(out.Plaintext)
	return nil
}
