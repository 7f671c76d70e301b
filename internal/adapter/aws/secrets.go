package aws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type secretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsLoader decodes JSON secrets into typed values.
type SecretsLoader struct {
	api secretsAPI
}

func NewSecretsLoader(cfg awssdk.Config) *SecretsLoader {
	return newSecretsLoaderWithAPI(secretsmanager.NewFromConfig(cfg))
}

func newSecretsLoaderWithAPI(api secretsAPI) *SecretsLoader {
	return &SecretsLoader{api: api}
}

// Decode fetches the secret's string value and unmarshals it into v.
func (l *SecretsLoader) Decode(ctx context.Context, id string, v any) error {
	out, err := l.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: awssdk.String(id)})
	if err != nil {
		return translate("get secret "+id, err)
	}
	if out.SecretString == nil {
		return fmt.Errorf("secret %s has no string value", id)
	}

	if err := json.NewDecoder(strings.NewReader(*out.SecretString)).Decode(v); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			// the payload may contain credentials, keep it out of the error
			return fmt.Errorf("secret %s is not valid JSON at offset %d", id, syntaxErr.Offset)
		}
		return fmt.Errorf("decode secret %s: %w", id, err)
	}
	return nil
}
