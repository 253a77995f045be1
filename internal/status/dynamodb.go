package status

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dwsmith1983/tripwire/pkg/types"
)

const defaultStatusAttribute = "status"

// DynamoDBAPI is the subset of the DynamoDB client used by the status package.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoDBProvider reads an operation's status from an attribute of a single
// item, keyed by the operation ID. It suits jobs that record their own
// progress in a control table.
type DynamoDBProvider struct {
	client DynamoDBAPI
	cfg    types.DynamoDBSensorConfig
}

// NewDynamoDBProvider creates a DynamoDB item-status provider.
func NewDynamoDBProvider(client DynamoDBAPI, cfg *types.DynamoDBSensorConfig) (*DynamoDBProvider, error) {
	if cfg == nil || cfg.TableName == "" {
		return nil, fmt.Errorf("dynamodb: tableName is required")
	}
	if cfg.PartitionKey == "" {
		return nil, fmt.Errorf("dynamodb: partitionKey is required")
	}
	if cfg.SortKey != "" && cfg.SortKeyValue == "" {
		return nil, fmt.Errorf("dynamodb: sortKeyValue is required when sortKey is set")
	}
	if !types.ValidKeyType(cfg.PartitionKeyType) || !types.ValidKeyType(cfg.SortKeyType) {
		return nil, fmt.Errorf("dynamodb: key types must be S or N")
	}
	c := *cfg
	if c.StatusAttribute == "" {
		c.StatusAttribute = defaultStatusAttribute
	}
	return &DynamoDBProvider{client: client, cfg: c}, nil
}

// Status implements Provider. A missing item reports ErrOperationNotFound.
func (p *DynamoDBProvider) Status(ctx context.Context, operationID string) (Observation, error) {
	if operationID == "" {
		return Observation{}, fmt.Errorf("dynamodb status: operation id is required")
	}

	pk, err := keyValue(p.cfg.PartitionKeyType, operationID)
	if err != nil {
		return Observation{}, fmt.Errorf("dynamodb status: %s: %w", p.cfg.PartitionKey, err)
	}
	key := map[string]ddbtypes.AttributeValue{p.cfg.PartitionKey: pk}
	if p.cfg.SortKey != "" {
		sk, err := keyValue(p.cfg.SortKeyType, p.cfg.SortKeyValue)
		if err != nil {
			return Observation{}, fmt.Errorf("dynamodb status: %s: %w", p.cfg.SortKey, err)
		}
		key[p.cfg.SortKey] = sk
	}

	out, err := p.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &p.cfg.TableName,
		ConsistentRead: aws.Bool(true),
		Key:            key,
	})
	if err != nil {
		return Observation{}, fmt.Errorf("dynamodb status: GetItem failed: %w", err)
	}
	if out.Item == nil {
		return Observation{}, fmt.Errorf("dynamodb status: %s %q: %w", p.cfg.TableName, operationID, ErrOperationNotFound)
	}

	var item map[string]interface{}
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return Observation{}, fmt.Errorf("dynamodb status: unmarshaling item: %w", err)
	}

	raw, ok := item[p.cfg.StatusAttribute]
	if !ok {
		return Observation{}, fmt.Errorf("dynamodb status: item %q has no %q attribute", operationID, p.cfg.StatusAttribute)
	}

	obs := Observation{Status: types.Status(fmt.Sprint(raw)), OutputLabel: "Item"}
	if p.cfg.MessageAttribute != "" {
		obs.Output = stringify(item[p.cfg.MessageAttribute])
	}
	return obs, nil
}

// keyValue builds a key attribute of the configured type. Number keys are
// checked locally so a typo fails before the GetItem call.
func keyValue(keyType, v string) (ddbtypes.AttributeValue, error) {
	if keyType != types.KeyTypeNumber {
		return &ddbtypes.AttributeValueMemberS{Value: v}, nil
	}
	if _, err := strconv.ParseFloat(v, 64); err != nil {
		return nil, fmt.Errorf("%q is not a number", v)
	}
	return &ddbtypes.AttributeValueMemberN{Value: v}, nil
}

// stringify renders a decoded attribute or JSON value as diagnostic text.
func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return compactPayload(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
