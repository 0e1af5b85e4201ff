package db

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func retrieveCredentials(ctx context.Context, secretID string) (Credentials, error) {
	var secret Credentials
	if secretID == "" {
		return secret, errors.New("DB_SECRET_ID não definido e DB_USERNAME/DB_PASSWORD ausentes")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return secret, err
	}
	client := secretsmanager.NewFromConfig(awsCfg)

	result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(secretID),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return secret, err
	}
	if result.SecretString == nil {
		return secret, errors.New("secret sem SecretString")
	}
	err = json.Unmarshal([]byte(*result.SecretString), &secret)
	return secret, err
}
