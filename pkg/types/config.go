package types

import (
	"fmt"
	"time"
)

// SensorConfig identifies the external operation a sensor monitors and how to
// reach it. Fields beyond the common block are read only by the provider
// named in Type.
type SensorConfig struct {
	Name        string       `yaml:"name" json:"name"`
	Type        ProviderType `yaml:"type" json:"type"`
	OperationID string       `yaml:"operationId,omitempty" json:"operationId,omitempty"`
	ConnID      string       `yaml:"connId,omitempty" json:"connId,omitempty"` // AWS shared-config profile
	Region      string       `yaml:"region,omitempty" json:"region,omitempty"`
	Endpoint    string       `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	SoftFail    bool         `yaml:"softFail,omitempty" json:"softFail,omitempty"`

	// Status table overrides. Required for providers without a fixed vocabulary.
	PendingStatuses []Status `yaml:"pendingStatuses,omitempty" json:"pendingStatuses,omitempty"`
	SuccessStatuses []Status `yaml:"successStatuses,omitempty" json:"successStatuses,omitempty"`
	FailureStatuses []Status `yaml:"failureStatuses,omitempty" json:"failureStatuses,omitempty"`

	Athena        *AthenaSensorConfig        `yaml:"athena,omitempty" json:"athena,omitempty"`
	Glue          *GlueSensorConfig          `yaml:"glue,omitempty" json:"glue,omitempty"`
	EMR           *EMRSensorConfig           `yaml:"emr,omitempty" json:"emr,omitempty"`
	EMRServerless *EMRServerlessSensorConfig `yaml:"emrServerless,omitempty" json:"emrServerless,omitempty"`
	DynamoDB      *DynamoDBSensorConfig      `yaml:"dynamodb,omitempty" json:"dynamodb,omitempty"`
	Lambda        *LambdaSensorConfig        `yaml:"lambda,omitempty" json:"lambda,omitempty"`
	HTTP          *HTTPSensorConfig          `yaml:"http,omitempty" json:"http,omitempty"`
	Airflow       *AirflowSensorConfig       `yaml:"airflow,omitempty" json:"airflow,omitempty"`
	Databricks    *DatabricksSensorConfig    `yaml:"databricks,omitempty" json:"databricks,omitempty"`

	// Local polling hints, honored by the waiter only.
	PokeInterval       string `yaml:"pokeInterval,omitempty" json:"pokeInterval,omitempty"`
	Timeout            string `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	ExponentialBackoff bool   `yaml:"exponentialBackoff,omitempty" json:"exponentialBackoff,omitempty"`
}

// AthenaSensorConfig tunes in-poke polling of an Athena query.
type AthenaSensorConfig struct {
	MaxPollAttempts int    `yaml:"maxPollAttempts,omitempty" json:"maxPollAttempts,omitempty"`
	SleepTime       string `yaml:"sleepTime,omitempty" json:"sleepTime,omitempty"`
}

// GlueSensorConfig locates a Glue job run. OperationID holds the run ID.
type GlueSensorConfig struct {
	JobName  string `yaml:"jobName" json:"jobName"`
	LogGroup string `yaml:"logGroup,omitempty" json:"logGroup,omitempty"`
	LogLines int    `yaml:"logLines,omitempty" json:"logLines,omitempty"`
}

// EMRSensorConfig locates an EMR step. OperationID holds the step ID.
type EMRSensorConfig struct {
	ClusterID string `yaml:"clusterId" json:"clusterId"`
	LogGroup  string `yaml:"logGroup,omitempty" json:"logGroup,omitempty"`
	LogLines  int    `yaml:"logLines,omitempty" json:"logLines,omitempty"`
}

// EMRServerlessSensorConfig locates an EMR Serverless job run. OperationID holds the run ID.
type EMRServerlessSensorConfig struct {
	ApplicationID string `yaml:"applicationId" json:"applicationId"`
}

// DynamoDB key attribute types. An empty key type means KeyTypeString.
const (
	KeyTypeString = "S"
	KeyTypeNumber = "N"
)

// DynamoDBSensorConfig reads a status attribute from a single item.
// OperationID is the partition key value.
type DynamoDBSensorConfig struct {
	TableName        string `yaml:"tableName" json:"tableName"`
	PartitionKey     string `yaml:"partitionKey" json:"partitionKey"`
	PartitionKeyType string `yaml:"partitionKeyType,omitempty" json:"partitionKeyType,omitempty"`
	SortKey          string `yaml:"sortKey,omitempty" json:"sortKey,omitempty"`
	SortKeyType      string `yaml:"sortKeyType,omitempty" json:"sortKeyType,omitempty"`
	SortKeyValue     string `yaml:"sortKeyValue,omitempty" json:"sortKeyValue,omitempty"`
	StatusAttribute  string `yaml:"statusAttribute,omitempty" json:"statusAttribute,omitempty"`
	MessageAttribute string `yaml:"messageAttribute,omitempty" json:"messageAttribute,omitempty"`
}

// ValidKeyType reports whether t names a supported key attribute type.
func ValidKeyType(t string) bool {
	return t == "" || t == KeyTypeString || t == KeyTypeNumber
}

// LambdaSensorConfig names a function that answers {"status": ..., "output": ...}
// for the operation ID it receives.
type LambdaSensorConfig struct {
	FunctionName string `yaml:"functionName" json:"functionName"`
}

// HTTPSensorConfig polls a JSON endpoint. "{operationId}" in URL is substituted.
// Header values of the form "secret:<id>" are resolved from Secrets Manager.
type HTTPSensorConfig struct {
	URL        string            `yaml:"url" json:"url"`
	Headers    map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	StatusPath string            `yaml:"statusPath" json:"statusPath"`
	OutputPath string            `yaml:"outputPath,omitempty" json:"outputPath,omitempty"`
	Timeout    int               `yaml:"timeout,omitempty" json:"timeout,omitempty"` // seconds
}

// AirflowSensorConfig polls a DAG run through the Airflow 2 stable REST API.
// OperationID is the dag run ID. Headers resolve like HTTPSensorConfig's.
type AirflowSensorConfig struct {
	URL     string            `yaml:"url" json:"url"`
	DagID   string            `yaml:"dagId" json:"dagId"`
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Timeout int               `yaml:"timeout,omitempty" json:"timeout,omitempty"` // seconds
}

// DatabricksSensorConfig polls a job run through the Databricks Jobs 2.1 API.
// OperationID is the run ID.
type DatabricksSensorConfig struct {
	WorkspaceURL string            `yaml:"workspaceUrl" json:"workspaceUrl"`
	Headers      map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Timeout      int               `yaml:"timeout,omitempty" json:"timeout,omitempty"` // seconds
}

// DisplayName returns the sensor name used in failure messages.
func (c SensorConfig) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return string(c.Type)
}

// PokeIntervalDuration parses PokeInterval, falling back to def.
func (c SensorConfig) PokeIntervalDuration(def time.Duration) (time.Duration, error) {
	return parseDurationOr(c.PokeInterval, def, "pokeInterval")
}

// TimeoutDuration parses Timeout, falling back to def.
func (c SensorConfig) TimeoutDuration(def time.Duration) (time.Duration, error) {
	return parseDurationOr(c.Timeout, def, "timeout")
}

func parseDurationOr(s string, def time.Duration, field string) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", field, s)
	}
	return d, nil
}

// Clone returns a deep copy of c so callers cannot mutate a sensor's
// configuration after construction.
func (c SensorConfig) Clone() SensorConfig {
	out := c
	out.PendingStatuses = append([]Status(nil), c.PendingStatuses...)
	out.SuccessStatuses = append([]Status(nil), c.SuccessStatuses...)
	out.FailureStatuses = append([]Status(nil), c.FailureStatuses...)
	if c.Athena != nil {
		v := *c.Athena
		out.Athena = &v
	}
	if c.Glue != nil {
		v := *c.Glue
		out.Glue = &v
	}
	if c.EMR != nil {
		v := *c.EMR
		out.EMR = &v
	}
	if c.EMRServerless != nil {
		v := *c.EMRServerless
		out.EMRServerless = &v
	}
	if c.DynamoDB != nil {
		v := *c.DynamoDB
		out.DynamoDB = &v
	}
	if c.Lambda != nil {
		v := *c.Lambda
		out.Lambda = &v
	}
	if c.HTTP != nil {
		v := *c.HTTP
		v.Headers = cloneHeaders(c.HTTP.Headers)
		out.HTTP = &v
	}
	if c.Airflow != nil {
		v := *c.Airflow
		v.Headers = cloneHeaders(c.Airflow.Headers)
		out.Airflow = &v
	}
	if c.Databricks != nil {
		v := *c.Databricks
		v.Headers = cloneHeaders(c.Databricks.Headers)
		out.Databricks = &v
	}
	return out
}

func cloneHeaders(h map[string]string) map[string]string {
	if h == nil {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
