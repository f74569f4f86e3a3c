package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

var ErrEmptySecret = errors.New("secret value is empty")

// Getter is the subset of the Secrets Manager client used here.
type Getter interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// NewClient builds a Secrets Manager client from the default AWS credential chain.
func NewClient(ctx context.Context) (*secretsmanager.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

// Fetch returns the string value of the secret. A JSON object value is accepted
// when it holds the wanted key, otherwise the raw string is returned.
func Fetch(ctx context.Context, client Getter, arn, key string) (string, error) {
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(arn),
	})
	if err != nil {
		return "", fmt.Errorf("fetching secret %s: %w", arn, err)
	}

	raw := strings.TrimSpace(aws.ToString(out.SecretString))
	if raw == "" {
		return "", ErrEmptySecret
	}

	if key != "" && strings.HasPrefix(raw, "{") {
		var fields map[string]string
		if err := json.Unmarshal([]byte(raw), &fields); err == nil {
			if v := strings.TrimSpace(fields[key]); v != "" {
				return v, nil
			}
			return "", fmt.Errorf("secret %s has no %q field: %w", arn, key, ErrEmptySecret)
		}
	}

	return raw, nil
}
