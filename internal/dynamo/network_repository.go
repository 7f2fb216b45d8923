// Package dynamo keeps network records in a DynamoDB table keyed by
// network_id.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Flarenzy/vpc-provisioner/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// API is the subset of the DynamoDB client the repository uses.
type API interface {
	GetItem(ctx context.Context, input *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, input *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	PutItem(ctx context.Context, input *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, input *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	DescribeTable(ctx context.Context, input *dynamodb.DescribeTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

const keyAttribute = "network_id"

type tagItem struct {
	Key   string `dynamodbav:"Key"`
	Value string `dynamodbav:"Value"`
}

type subnetItem struct {
	CIDR string    `dynamodbav:"cidr"`
	AZ   string    `dynamodbav:"az,omitempty"`
	Tags []tagItem `dynamodbav:"tags,omitempty"`
}

type networkItem struct {
	NetworkID string       `dynamodbav:"network_id"`
	CIDR      string       `dynamodbav:"cidr"`
	Tags      []tagItem    `dynamodbav:"tags"`
	SubnetIDs []string     `dynamodbav:"subnet_ids"`
	Subnets   []subnetItem `dynamodbav:"subnets"`
	CreatedAt string       `dynamodbav:"created_at"`
}

type NetworkRepository struct {
	client API
	table  string
}

func NewNetworkRepository(client API, table string) *NetworkRepository {
	return &NetworkRepository{client: client, table: table}
}

func (r *NetworkRepository) Ping(ctx context.Context) error {
	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.table)})
	return err
}

func (r *NetworkRepository) List(ctx context.Context) ([]domain.NetworkRecord, error) {
	return r.scan(ctx, &dynamodb.ScanInput{TableName: aws.String(r.table)})
}

func (r *NetworkRepository) FindByID(ctx context.Context, networkID string) (domain.NetworkRecord, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            networkKey(networkID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.NetworkRecord{}, fmt.Errorf("get item %s: %w", networkID, err)
	}
	if len(out.Item) == 0 {
		return domain.NetworkRecord{}, domain.ErrNotFound
	}

	var item networkItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return domain.NetworkRecord{}, fmt.Errorf("unmarshal item %s: %w", networkID, err)
	}
	return toDomainNetwork(item)
}

func (r *NetworkRepository) FindByCIDR(ctx context.Context, cidr string) ([]domain.NetworkRecord, error) {
	return r.scan(ctx, &dynamodb.ScanInput{
		TableName:                aws.String(r.table),
		FilterExpression:         aws.String("#cidr = :cidr"),
		ExpressionAttributeNames: map[string]string{"#cidr": "cidr"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cidr": &types.AttributeValueMemberS{Value: cidr},
		},
	})
}

func (r *NetworkRepository) Create(ctx context.Context, record domain.NetworkRecord) error {
	av, err := attributevalue.MarshalMap(fromDomainNetwork(record))
	if err != nil {
		return fmt.Errorf("marshal item %s: %w", record.NetworkID, err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(network_id)"),
	})
	if err != nil {
		var conditionErr *types.ConditionalCheckFailedException
		if errors.As(err, &conditionErr) {
			return fmt.Errorf("%w: network %s already recorded", domain.ErrConflict, record.NetworkID)
		}
		return fmt.Errorf("put item %s: %w", record.NetworkID, err)
	}
	return nil
}

func (r *NetworkRepository) Delete(ctx context.Context, networkID string) (bool, error) {
	out, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(r.table),
		Key:          networkKey(networkID),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return false, fmt.Errorf("delete item %s: %w", networkID, err)
	}
	return len(out.Attributes) > 0, nil
}

func (r *NetworkRepository) scan(ctx context.Context, input *dynamodb.ScanInput) ([]domain.NetworkRecord, error) {
	records := []domain.NetworkRecord{}
	paginator := dynamodb.NewScanPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.table, err)
		}

		var items []networkItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal scan page: %w", err)
		}
		for _, item := range items {
			record, err := toDomainNetwork(item)
			if err != nil {
				return nil, err
			}
			records = append(records, record)
		}
	}
	return records, nil
}

func networkKey(networkID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		keyAttribute: &types.AttributeValueMemberS{Value: networkID},
	}
}

func fromDomainNetwork(record domain.NetworkRecord) networkItem {
	subnets := make([]subnetItem, 0, len(record.Subnets))
	for _, s := range record.Subnets {
		subnets = append(subnets, subnetItem{CIDR: s.CIDR, AZ: s.AvailabilityZone, Tags: fromDomainTags(s.Tags)})
	}
	subnetIDs := record.SubnetIDs
	if subnetIDs == nil {
		subnetIDs = []string{}
	}

	return networkItem{
		NetworkID: record.NetworkID,
		CIDR:      record.CIDR,
		Tags:      fromDomainTags(record.Tags),
		SubnetIDs: subnetIDs,
		Subnets:   subnets,
		CreatedAt: record.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toDomainNetwork(item networkItem) (domain.NetworkRecord, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
	if err != nil {
		return domain.NetworkRecord{}, fmt.Errorf("network %s: parse created_at: %w", item.NetworkID, err)
	}

	subnets := make([]domain.SubnetSpec, 0, len(item.Subnets))
	for _, s := range item.Subnets {
		subnets = append(subnets, domain.SubnetSpec{CIDR: s.CIDR, AvailabilityZone: s.AZ, Tags: toDomainTags(s.Tags)})
	}
	subnetIDs := item.SubnetIDs
	if subnetIDs == nil {
		subnetIDs = []string{}
	}

	return domain.NetworkRecord{
		NetworkID: item.NetworkID,
		CIDR:      item.CIDR,
		Tags:      toDomainTags(item.Tags),
		SubnetIDs: subnetIDs,
		Subnets:   subnets,
		CreatedAt: createdAt.UTC(),
	}, nil
}

func fromDomainTags(tags []domain.Tag) []tagItem {
	out := make([]tagItem, 0, len(tags))
	for _, t := range tags {
		out = append(out, tagItem{Key: t.Key, Value: t.Value})
	}
	return out
}

func toDomainTags(items []tagItem) []domain.Tag {
	out := make([]domain.Tag, 0, len(items))
	for _, t := range items {
		out = append(out, domain.Tag{Key: t.Key, Value: t.Value})
	}
	return out
}
