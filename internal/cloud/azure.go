package cloud

import (
	"context"
	"fmt"
	nethttp "net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	fdhttp "github.com/filedash/filedash/internal/http"
)

// AzureSource reads az://container/blob objects with a SAS token.
type AzureSource struct {
	client *azblob.Client
	retry  fdhttp.Config
}

// NewAzureSource builds a client for https://<account>.blob.core.windows.net.
func NewAzureSource(account, sasToken string, httpClient *nethttp.Client) (*AzureSource, error) {
	if account == "" {
		return nil, fmt.Errorf("azure_account is not configured")
	}
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", account)
	return newAzureSourceFromURL(serviceURL, sasToken, httpClient)
}

func newAzureSourceFromURL(serviceURL, sasToken string, httpClient *nethttp.Client) (*AzureSource, error) {
	if sas := strings.TrimPrefix(sasToken, "?"); sas != "" {
		serviceURL = strings.TrimSuffix(serviceURL, "/") + "/?" + sas
	}
	client, err := azblob.NewClientWithNoCredential(serviceURL, &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Transport: httpClient,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
	}
	return &AzureSource{client: client, retry: fdhttp.DefaultConfig()}, nil
}

func (s *AzureSource) Open(ctx context.Context, rawURL string) (*Object, error) {
	loc, err := ParseObjectURL(rawURL)
	if err != nil {
		return nil, err
	}

	var resp azblob.DownloadStreamResponse
	err = fdhttp.ExecuteWithRetry(ctx, s.retry, func() error {
		r, err := s.client.DownloadStream(ctx, loc.Container, loc.Key, nil)
		resp = r
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download blob %s: %w", rawURL, err)
	}
	return &Object{Body: resp.Body, Size: sizeOrUnknown(resp.ContentLength), ContentType: derefString(resp.ContentType)}, nil
}
