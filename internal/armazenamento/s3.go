package armazenamento

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/Tirvu/api-parceiros/internal/notificacao"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Comprovantes arquiva no S3 uma cópia dos comprovantes de comissão.
// Sem bucket configurado fica desligado.
type Comprovantes struct {
	Client putObjectAPI
	Bucket string
}

func NovoComprovantes(ctx context.Context, bucket, region string) (*Comprovantes, error) {
	if bucket == "" {
		return &Comprovantes{}, nil
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &Comprovantes{Client: s3.NewFromConfig(cfg), Bucket: bucket}, nil
}

func (c *Comprovantes) Enabled() bool { return c != nil && c.Client != nil && c.Bucket != "" }

// Arquivar grava o comprovante e devolve a chave do objeto.
func (c *Comprovantes) Arquivar(ctx context.Context, leadID uint, dataURL string) (string, error) {
	if !c.Enabled() {
		return "", errors.New("s3 de comprovantes não configurado")
	}
	mime, data, err := DecodificarDataURL(dataURL)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("proofs/lead-%d/%s.%s", leadID, uuid.NewString(), notificacao.ExtensaoDoDataURL(dataURL))
	_, err = c.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mime),
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// DecodificarDataURL separa o mime e os bytes de um data URL base64.
func DecodificarDataURL(s string) (string, []byte, error) {
	if !strings.HasPrefix(s, "data:") {
		return "", nil, errors.New("comprovante não é um data URL")
	}
	meta, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok {
		return "", nil, errors.New("data URL sem conteúdo")
	}
	mime, enc, _ := strings.Cut(meta, ";")
	if enc != "base64" {
		return "", nil, errors.New("data URL precisa ser base64")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("base64 inválido: %w", err)
	}
	if mime == "" {
		mime = "application/octet-stream"
	}
	return mime, data, nil
}
