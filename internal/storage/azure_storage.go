package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// BlobStorage reads uploaded photos from Azure Blob Storage
type BlobStorage interface {
	GetImage(ctx context.Context, blobRef string) (*RawImage, error)
}

type azureStorage struct {
	client *azblob.Client
}

// NewAzureStorage creates a shared-key client for the storage account
func NewAzureStorage(accountName string, accountKey string) (BlobStorage, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid storage credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	return &azureStorage{client: client}, nil
}

// ParseBlobRef splits azblob://<container>/<blob path> into its parts
func ParseBlobRef(blobRef string) (container, blob string, err error) {
	u, err := url.Parse(blobRef)
	if err != nil {
		return "", "", fmt.Errorf("invalid blob reference: %w", err)
	}
	if !strings.EqualFold(u.Scheme, BlobScheme) {
		return "", "", fmt.Errorf("blob reference must use the %s scheme", BlobScheme)
	}

	container = u.Host
	blob = strings.TrimPrefix(u.Path, "/")
	if container == "" || blob == "" {
		return "", "", fmt.Errorf("blob reference needs both container and blob name")
	}
	return container, blob, nil
}

func (s *azureStorage) GetImage(ctx context.Context, blobRef string) (*RawImage, error) {
	containerName, blobName, err := ParseBlobRef(blobRef)
	if err != nil {
		return nil, err
	}

	downloadResponse, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}

	body := downloadResponse.Body
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("blob exceeds %d bytes", MaxImageBytes)
	}

	var declared string
	if downloadResponse.ContentType != nil {
		declared = *downloadResponse.ContentType
	}

	return &RawImage{
		Data:        data,
		ContentType: DetectContentType(declared, data),
	}, nil
}
