package status

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/oliveagle/jsonpath"

	"github.com/dwsmith1983/tripwire/pkg/types"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	secretPrefix       = "secret:"
	maxResponseBytes   = 1 << 20
)

var defaultHTTPClient = &http.Client{Timeout: defaultHTTPTimeout}

// SecretsAPI is the subset of the Secrets Manager client used to resolve
// "secret:<id>" header values.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// HTTPProvider polls a JSON status endpoint and extracts the status (and
// optionally a diagnostic payload) with JSONPath expressions.
type HTTPProvider struct {
	rest       restClient
	url        string
	statusPath *jsonpath.Compiled
	outputPath *jsonpath.Compiled
}

// NewHTTPProvider creates an HTTP provider. secrets may be nil when no header
// references a secret.
func NewHTTPProvider(client *http.Client, secrets SecretsAPI, cfg *types.HTTPSensorConfig) (*HTTPProvider, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("http: url is required")
	}
	if cfg.StatusPath == "" {
		return nil, fmt.Errorf("http: statusPath is required")
	}
	statusPath, err := jsonpath.Compile(cfg.StatusPath)
	if err != nil {
		return nil, fmt.Errorf("http: invalid statusPath %q: %w", cfg.StatusPath, err)
	}

	p := &HTTPProvider{url: cfg.URL, statusPath: statusPath}
	if cfg.OutputPath != "" {
		if p.outputPath, err = jsonpath.Compile(cfg.OutputPath); err != nil {
			return nil, fmt.Errorf("http: invalid outputPath %q: %w", cfg.OutputPath, err)
		}
	}
	if p.rest, err = newRESTClient("http", client, secrets, cfg.Headers, cfg.Timeout); err != nil {
		return nil, err
	}
	return p, nil
}

// Status implements Provider. "{operationId}" in the URL is replaced with the
// path-escaped operation ID.
func (p *HTTPProvider) Status(ctx context.Context, operationID string) (Observation, error) {
	target := strings.ReplaceAll(p.url, "{operationId}", url.PathEscape(operationID))

	var doc interface{}
	if err := p.rest.getJSON(ctx, target, &doc); err != nil {
		return Observation{}, err
	}

	raw, err := p.statusPath.Lookup(doc)
	if err != nil {
		return Observation{}, fmt.Errorf("http status: status not found in response: %w", err)
	}
	st, ok := raw.(string)
	if !ok {
		st = fmt.Sprint(raw)
	}

	obs := Observation{Status: types.Status(st), OutputLabel: "Response"}
	if p.outputPath != nil {
		if out, err := p.outputPath.Lookup(doc); err == nil {
			obs.Output = stringify(out)
		}
	}
	return obs, nil
}
