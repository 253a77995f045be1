package status

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/emr"
	"github.com/aws/aws-sdk-go-v2/service/emrserverless"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sfn"

	"github.com/dwsmith1983/tripwire/pkg/types"
)

// clientKey identifies one cached AWS client.
type clientKey struct {
	service  string
	profile  string
	region   string
	endpoint string
}

// Registry builds providers from sensor configuration. AWS clients are created
// lazily, one per service, profile, region and endpoint, and reused across
// sensors. Injected clients take precedence and are used for every sensor.
type Registry struct {
	httpClient *http.Client
	logger     *slog.Logger
	loadConfig func(ctx context.Context, profile, region string) (aws.Config, error)

	mu      sync.Mutex
	clients map[clientKey]interface{}

	athenaClient  AthenaAPI
	sfnClient     SFNAPI
	glueClient    GlueAPI
	emrClient     EMRAPI
	emrSLClient   EMRServerlessAPI
	ddbClient     DynamoDBAPI
	lambdaClient  LambdaAPI
	secretsClient SecretsAPI
	logsClient    CloudWatchLogsAPI
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithAthenaClient sets a custom Athena client (useful for testing).
func WithAthenaClient(c AthenaAPI) RegistryOption {
	return func(r *Registry) { r.athenaClient = c }
}

// WithSFNClient sets a custom Step Functions client.
func WithSFNClient(c SFNAPI) RegistryOption {
	return func(r *Registry) { r.sfnClient = c }
}

// WithGlueClient sets a custom Glue client.
func WithGlueClient(c GlueAPI) RegistryOption {
	return func(r *Registry) { r.glueClient = c }
}

// WithEMRClient sets a custom EMR client.
func WithEMRClient(c EMRAPI) RegistryOption {
	return func(r *Registry) { r.emrClient = c }
}

// WithEMRServerlessClient sets a custom EMR Serverless client.
func WithEMRServerlessClient(c EMRServerlessAPI) RegistryOption {
	return func(r *Registry) { r.emrSLClient = c }
}

// WithDynamoDBClient sets a custom DynamoDB client.
func WithDynamoDBClient(c DynamoDBAPI) RegistryOption {
	return func(r *Registry) { r.ddbClient = c }
}

// WithLambdaClient sets a custom Lambda client.
func WithLambdaClient(c LambdaAPI) RegistryOption {
	return func(r *Registry) { r.lambdaClient = c }
}

// WithSecretsClient sets a custom Secrets Manager client.
func WithSecretsClient(c SecretsAPI) RegistryOption {
	return func(r *Registry) { r.secretsClient = c }
}

// WithLogsClient sets a custom CloudWatch Logs client.
func WithLogsClient(c CloudWatchLogsAPI) RegistryOption {
	return func(r *Registry) { r.logsClient = c }
}

// WithHTTPClient sets the HTTP client used by HTTP providers.
func WithHTTPClient(c *http.Client) RegistryOption {
	return func(r *Registry) { r.httpClient = c }
}

// WithLogger sets the logger handed to providers.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry creates a Registry with the given options.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		httpClient: defaultHTTPClient,
		logger:     slog.Default(),
		loadConfig: loadAWSConfig,
		clients:    make(map[clientKey]interface{}),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Provider returns the status provider for cfg.
func (r *Registry) Provider(ctx context.Context, cfg types.SensorConfig) (Provider, error) {
	switch cfg.Type {
	case types.ProviderAthena:
		client, err := r.athena(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewAthenaProvider(client, cfg.Athena)
	case types.ProviderStepFunction:
		client, err := r.sfn(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewSFNProvider(client), nil
	case types.ProviderGlue:
		if cfg.Glue == nil {
			return nil, fmt.Errorf("glue sensor config is nil")
		}
		client, err := r.glue(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logs, err := r.tailer(ctx, cfg, cfg.Glue.LogGroup, cfg.Glue.LogLines)
		if err != nil {
			return nil, err
		}
		return NewGlueProvider(client, cfg.Glue.JobName, logs)
	case types.ProviderEMR:
		if cfg.EMR == nil {
			return nil, fmt.Errorf("emr sensor config is nil")
		}
		client, err := r.emr(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logs, err := r.tailer(ctx, cfg, cfg.EMR.LogGroup, cfg.EMR.LogLines)
		if err != nil {
			return nil, err
		}
		return NewEMRProvider(client, cfg.EMR.ClusterID, logs)
	case types.ProviderEMRServerless:
		if cfg.EMRServerless == nil {
			return nil, fmt.Errorf("emr-serverless sensor config is nil")
		}
		client, err := r.emrServerless(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewEMRServerlessProvider(client, cfg.EMRServerless.ApplicationID)
	case types.ProviderDynamoDB:
		client, err := r.dynamodb(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewDynamoDBProvider(client, cfg.DynamoDB)
	case types.ProviderLambda:
		if cfg.Lambda == nil {
			return nil, fmt.Errorf("lambda sensor config is nil")
		}
		client, err := r.lambda(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewLambdaProvider(client, cfg.Lambda.FunctionName)
	case types.ProviderHTTP:
		if cfg.HTTP == nil {
			return nil, fmt.Errorf("http sensor config is nil")
		}
		secrets, err := r.headerSecrets(ctx, cfg, cfg.HTTP.Headers)
		if err != nil {
			return nil, err
		}
		return NewHTTPProvider(r.httpClient, secrets, cfg.HTTP)
	case types.ProviderAirflow:
		if cfg.Airflow == nil {
			return nil, fmt.Errorf("airflow sensor config is nil")
		}
		secrets, err := r.headerSecrets(ctx, cfg, cfg.Airflow.Headers)
		if err != nil {
			return nil, err
		}
		return NewAirflowProvider(r.httpClient, secrets, cfg.Airflow)
	case types.ProviderDatabricks:
		if cfg.Databricks == nil {
			return nil, fmt.Errorf("databricks sensor config is nil")
		}
		secrets, err := r.headerSecrets(ctx, cfg, cfg.Databricks.Headers)
		if err != nil {
			return nil, err
		}
		return NewDatabricksProvider(r.httpClient, secrets, cfg.Databricks)
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}
}

// headerSecrets returns a Secrets Manager client only when a header needs one.
func (r *Registry) headerSecrets(ctx context.Context, cfg types.SensorConfig, headers map[string]string) (SecretsAPI, error) {
	if !needsSecrets(headers) {
		return nil, nil
	}
	return r.secrets(ctx, cfg)
}

func (r *Registry) tailer(ctx context.Context, cfg types.SensorConfig, group string, lines int) (*LogTailer, error) {
	if group == "" {
		return nil, nil
	}
	client, err := r.logs(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewLogTailer(client, group, lines, r.logger), nil
}

// cached returns the client stored under key, building it on first use.
func (r *Registry) cached(ctx context.Context, service string, cfg types.SensorConfig, build func(aws.Config) interface{}) (interface{}, error) {
	key := clientKey{service: service, profile: cfg.ConnID, region: cfg.Region, endpoint: cfg.Endpoint}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.clients[key]; ok {
		return c, nil
	}
	awsCfg, err := r.loadConfig(ctx, cfg.ConnID, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	c := build(awsCfg)
	r.clients[key] = c
	return c, nil
}

func loadAWSConfig(ctx context.Context, profile, region string) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	return awsconfig.LoadDefaultConfig(ctx, opts...)
}

func endpoint(cfg types.SensorConfig) *string {
	if cfg.Endpoint == "" {
		return nil
	}
	return aws.String(cfg.Endpoint)
}

func (r *Registry) athena(ctx context.Context, cfg types.SensorConfig) (AthenaAPI, error) {
	if r.athenaClient != nil {
		return r.athenaClient, nil
	}
	c, err := r.cached(ctx, "athena", cfg, func(ac aws.Config) interface{} {
		return athena.NewFromConfig(ac, func(o *athena.Options) { o.BaseEndpoint = endpoint(cfg) })
	})
	if err != nil {
		return nil, err
	}
	return c.(AthenaAPI), nil
}

func (r *Registry) sfn(ctx context.Context, cfg types.SensorConfig) (SFNAPI, error) {
	if r.sfnClient != nil {
		return r.sfnClient, nil
	}
	c, err := r.cached(ctx, "sfn", cfg, func(ac aws.Config) interface{} {
		return sfn.NewFromConfig(ac, func(o *sfn.Options) { o.BaseEndpoint = endpoint(cfg) })
	})
	if err != nil {
		return nil, err
	}
	return c.(SFNAPI), nil
}

func (r *Registry) glue(ctx context.Context, cfg types.SensorConfig) (GlueAPI, error) {
	if r.glueClient != nil {
		return r.glueClient, nil
	}
	c, err := r.cached(ctx, "glue", cfg, func(ac aws.Config) interface{} {
		return glue.NewFromConfig(ac, func(o *glue.Options) { o.BaseEndpoint = endpoint(cfg) })
	})
	if err != nil {
		return nil, err
	}
	return c.(GlueAPI), nil
}

func (r *Registry) emr(ctx context.Context, cfg types.SensorConfig) (EMRAPI, error) {
	if r.emrClient != nil {
		return r.emrClient, nil
	}
	c, err := r.cached(ctx, "emr", cfg, func(ac aws.Config) interface{} {
		return emr.NewFromConfig(ac, func(o *emr.Options) { o.BaseEndpoint = endpoint(cfg) })
	})
	if err != nil {
		return nil, err
	}
	return c.(EMRAPI), nil
}

func (r *Registry) emrServerless(ctx context.Context, cfg types.SensorConfig) (EMRServerlessAPI, error) {
	if r.emrSLClient != nil {
		return r.emrSLClient, nil
	}
	c, err := r.cached(ctx, "emr-serverless", cfg, func(ac aws.Config) interface{} {
		return emrserverless.NewFromConfig(ac, func(o *emrserverless.Options) { o.BaseEndpoint = endpoint(cfg) })
	})
	if err != nil {
		return nil, err
	}
	return c.(EMRServerlessAPI), nil
}

func (r *Registry) dynamodb(ctx context.Context, cfg types.SensorConfig) (DynamoDBAPI, error) {
	if r.ddbClient != nil {
		return r.ddbClient, nil
	}
	c, err := r.cached(ctx, "dynamodb", cfg, func(ac aws.Config) interface{} {
		return dynamodb.NewFromConfig(ac, func(o *dynamodb.Options) { o.BaseEndpoint = endpoint(cfg) })
	})
	if err != nil {
		return nil, err
	}
	return c.(DynamoDBAPI), nil
}

func (r *Registry) lambda(ctx context.Context, cfg types.SensorConfig) (LambdaAPI, error) {
	if r.lambdaClient != nil {
		return r.lambdaClient, nil
	}
	c, err := r.cached(ctx, "lambda", cfg, func(ac aws.Config) interface{} {
		return lambda.NewFromConfig(ac, func(o *lambda.Options) { o.BaseEndpoint = endpoint(cfg) })
	})
	if err != nil {
		return nil, err
	}
	return c.(LambdaAPI), nil
}

// secrets and logs ignore cfg.Endpoint: it addresses the monitored service.
func (r *Registry) secrets(ctx context.Context, cfg types.SensorConfig) (SecretsAPI, error) {
	if r.secretsClient != nil {
		return r.secretsClient, nil
	}
	cfg.Endpoint = ""
	c, err := r.cached(ctx, "secretsmanager", cfg, func(ac aws.Config) interface{} {
		return secretsmanager.NewFromConfig(ac)
	})
	if err != nil {
		return nil, err
	}
	return c.(SecretsAPI), nil
}

func (r *Registry) logs(ctx context.Context, cfg types.SensorConfig) (CloudWatchLogsAPI, error) {
	if r.logsClient != nil {
		return r.logsClient, nil
	}
	cfg.Endpoint = ""
	c, err := r.cached(ctx, "logs", cfg, func(ac aws.Config) interface{} {
		return cloudwatchlogs.NewFromConfig(ac)
	})
	if err != nil {
		return nil, err
	}
	return c.(CloudWatchLogsAPI), nil
}
