// Package config handles loading and validation of tripwire.yaml project configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dwsmith1983/tripwire/internal/sensor"
	"github.com/dwsmith1983/tripwire/pkg/types"
)

// FileName is the project configuration file looked up by Load.
const FileName = "tripwire.yaml"

// Load reads and parses tripwire.yaml from the given directory. Environment
// references such as ${EXECUTION_ARN} are expanded before parsing, so
// per-run operation IDs can be supplied by the caller's environment.
func Load(dir string) (*types.ProjectConfig, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates a configuration document.
func Parse(data []byte) (*types.ProjectConfig, error) {
	var cfg types.ProjectConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// Sensor returns the sensor named name.
func Sensor(cfg *types.ProjectConfig, name string) (types.SensorConfig, bool) {
	for _, s := range cfg.Sensors {
		if s.Name == name {
			return s, true
		}
	}
	return types.SensorConfig{}, false
}

// BreakerConfig converts the breaker settings, reporting false when the
// breaker is disabled.
func BreakerConfig(cfg *types.ProjectConfig) (sensor.BreakerConfig, bool) {
	if cfg.Breaker == nil {
		return sensor.BreakerConfig{}, false
	}
	bc := sensor.DefaultBreakerConfig()
	if cfg.Breaker.FailThreshold > 0 {
		bc.FailThreshold = cfg.Breaker.FailThreshold
	}
	if d, err := time.ParseDuration(cfg.Breaker.Cooldown); err == nil && d > 0 {
		bc.Cooldown = d
	}
	return bc, true
}

func applyDefaults(cfg *types.ProjectConfig) {
	d := cfg.Defaults
	for i := range cfg.Sensors {
		s := &cfg.Sensors[i]
		if s.ConnID == "" {
			s.ConnID = d.ConnID
		}
		if s.Region == "" {
			s.Region = d.Region
		}
		if s.PokeInterval == "" {
			s.PokeInterval = d.PokeInterval
		}
		if s.Timeout == "" {
			s.Timeout = d.Timeout
		}
	}
}

func validate(cfg *types.ProjectConfig) error {
	if len(cfg.Sensors) == 0 {
		return fmt.Errorf("at least one sensor is required")
	}
	seen := make(map[string]bool, len(cfg.Sensors))
	for i, s := range cfg.Sensors {
		if s.Name == "" {
			return fmt.Errorf("sensors[%d]: name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate sensor name %q", s.Name)
		}
		seen[s.Name] = true
		if err := ValidateSensor(s); err != nil {
			return fmt.Errorf("sensor %s: %w", s.Name, err)
		}
	}
	if cfg.Breaker != nil && cfg.Breaker.Cooldown != "" {
		if d, err := time.ParseDuration(cfg.Breaker.Cooldown); err != nil || d <= 0 {
			return fmt.Errorf("breaker.cooldown %q is not a positive duration", cfg.Breaker.Cooldown)
		}
	}
	return nil
}

// ValidateSensor checks one sensor definition: a known type, an operation
// ID, the fields its provider requires, well-formed durations and a
// consistent status table.
func ValidateSensor(s types.SensorConfig) error {
	if s.Type == "" {
		return fmt.Errorf("type is required")
	}
	if !s.Type.Valid() {
		return fmt.Errorf("unknown type %q", s.Type)
	}
	if s.OperationID == "" {
		return fmt.Errorf("operationId is required for %s sensors", s.Type)
	}
	if err := validateProvider(s); err != nil {
		return err
	}
	if _, err := s.PokeIntervalDuration(0); err != nil {
		return err
	}
	if _, err := s.TimeoutDuration(0); err != nil {
		return err
	}
	if _, err := sensor.ClassificationFor(s); err != nil {
		return err
	}
	return nil
}

func validateProvider(s types.SensorConfig) error {
	switch s.Type {
	case types.ProviderAthena:
		if s.Athena != nil && s.Athena.SleepTime != "" {
			if _, err := time.ParseDuration(s.Athena.SleepTime); err != nil {
				return fmt.Errorf("athena.sleepTime: %w", err)
			}
		}
	case types.ProviderGlue:
		if s.Glue == nil || s.Glue.JobName == "" {
			return fmt.Errorf("glue.jobName is required")
		}
	case types.ProviderEMR:
		if s.EMR == nil || s.EMR.ClusterID == "" {
			return fmt.Errorf("emr.clusterId is required")
		}
	case types.ProviderEMRServerless:
		if s.EMRServerless == nil || s.EMRServerless.ApplicationID == "" {
			return fmt.Errorf("emrServerless.applicationId is required")
		}
	case types.ProviderDynamoDB:
		if s.DynamoDB == nil || s.DynamoDB.TableName == "" {
			return fmt.Errorf("dynamodb.tableName is required")
		}
		if s.DynamoDB.PartitionKey == "" {
			return fmt.Errorf("dynamodb.partitionKey is required")
		}
		if s.DynamoDB.SortKey != "" && s.DynamoDB.SortKeyValue == "" {
			return fmt.Errorf("dynamodb.sortKeyValue is required when sortKey is set")
		}
		if !types.ValidKeyType(s.DynamoDB.PartitionKeyType) {
			return fmt.Errorf("dynamodb.partitionKeyType %q must be S or N", s.DynamoDB.PartitionKeyType)
		}
		if !types.ValidKeyType(s.DynamoDB.SortKeyType) {
			return fmt.Errorf("dynamodb.sortKeyType %q must be S or N", s.DynamoDB.SortKeyType)
		}
	case types.ProviderLambda:
		if s.Lambda == nil || s.Lambda.FunctionName == "" {
			return fmt.Errorf("lambda.functionName is required")
		}
	case types.ProviderHTTP:
		if s.HTTP == nil || s.HTTP.URL == "" {
			return fmt.Errorf("http.url is required")
		}
		if s.HTTP.StatusPath == "" {
			return fmt.Errorf("http.statusPath is required")
		}
	case types.ProviderAirflow:
		if s.Airflow == nil || s.Airflow.URL == "" {
			return fmt.Errorf("airflow.url is required")
		}
		if s.Airflow.DagID == "" {
			return fmt.Errorf("airflow.dagId is required")
		}
	case types.ProviderDatabricks:
		if s.Databricks == nil || s.Databricks.WorkspaceURL == "" {
			return fmt.Errorf("databricks.workspaceUrl is required")
		}
	}
	return nil
}
