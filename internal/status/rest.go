package status

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// restClient performs the JSON GETs shared by the HTTP, Airflow and
// Databricks providers. Header values expand environment variables, and a
// "secret:<id>" value is read from Secrets Manager on every request.
type restClient struct {
	service string
	client  *http.Client
	secrets SecretsAPI
	headers map[string]string
}

func newRESTClient(service string, client *http.Client, secrets SecretsAPI, headers map[string]string, timeoutSeconds int) (restClient, error) {
	if client == nil {
		client = defaultHTTPClient
	}
	if timeoutSeconds > 0 {
		client = &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second, Transport: client.Transport}
	}
	for k, v := range headers {
		if strings.HasPrefix(v, secretPrefix) && secrets == nil {
			return restClient{}, fmt.Errorf("%s: header %s references a secret but no secrets client is configured", service, k)
		}
	}
	return restClient{service: service, client: client, secrets: secrets, headers: headers}, nil
}

// getJSON fetches target and decodes the body into v. A 404 reports
// ErrOperationNotFound.
func (c restClient) getJSON(ctx context.Context, target string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("%s status: creating request: %w", c.service, err)
	}
	req.Header.Set("Accept", "application/json")
	for k, hv := range c.headers {
		val, err := resolveHeader(ctx, c.secrets, hv)
		if err != nil {
			return fmt.Errorf("%s status: header %s: %w", c.service, k, err)
		}
		req.Header.Set(k, val)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s status: request failed: %w", c.service, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s status: reading response: %w", c.service, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s status: %s: %w", c.service, target, ErrOperationNotFound)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s status: endpoint returned %d: %s", c.service, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%s status: decoding response: %w", c.service, err)
	}
	return nil
}

func resolveHeader(ctx context.Context, secrets SecretsAPI, v string) (string, error) {
	if !strings.HasPrefix(v, secretPrefix) {
		return os.ExpandEnv(v), nil
	}
	id := strings.TrimPrefix(v, secretPrefix)
	out, err := secrets.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: &id})
	if err != nil {
		return "", fmt.Errorf("GetSecretValue failed: %w", err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", id)
	}
	return *out.SecretString, nil
}

// needsSecrets reports whether any header value is a secret reference.
func needsSecrets(headers map[string]string) bool {
	for _, v := range headers {
		if strings.HasPrefix(v, secretPrefix) {
			return true
		}
	}
	return false
}
