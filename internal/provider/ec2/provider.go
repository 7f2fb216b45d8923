// Package ec2 provisions networks as EC2 VPCs and subdivisions as subnets.
package ec2

import (
	"context"
	"errors"
	"fmt"

	"github.com/Flarenzy/vpc-provisioner/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// API is the subset of the EC2 client the provider calls.
type API interface {
	CreateVpc(ctx context.Context, input *ec2.CreateVpcInput, opts ...func(*ec2.Options)) (*ec2.CreateVpcOutput, error)
	CreateSubnet(ctx context.Context, input *ec2.CreateSubnetInput, opts ...func(*ec2.Options)) (*ec2.CreateSubnetOutput, error)
	DeleteSubnet(ctx context.Context, input *ec2.DeleteSubnetInput, opts ...func(*ec2.Options)) (*ec2.DeleteSubnetOutput, error)
	DeleteVpc(ctx context.Context, input *ec2.DeleteVpcInput, opts ...func(*ec2.Options)) (*ec2.DeleteVpcOutput, error)
}

var errMissingID = errors.New("response carried no resource id")

type Provider struct {
	client API
}

func NewProvider(client API) *Provider {
	return &Provider{client: client}
}

func (p *Provider) CreateNetwork(ctx context.Context, cidr string, tags []domain.Tag) (string, error) {
	out, err := p.client.CreateVpc(ctx, &ec2.CreateVpcInput{
		CidrBlock:         aws.String(cidr),
		TagSpecifications: tagSpecifications(types.ResourceTypeVpc, tags),
	})
	if err != nil {
		return "", fmt.Errorf("create vpc: %w", err)
	}
	if out.Vpc == nil || aws.ToString(out.Vpc.VpcId) == "" {
		return "", fmt.Errorf("create vpc: %w", errMissingID)
	}
	return aws.ToString(out.Vpc.VpcId), nil
}

func (p *Provider) CreateSubnet(ctx context.Context, networkID string, spec domain.SubnetSpec) (string, error) {
	input := &ec2.CreateSubnetInput{
		VpcId:             aws.String(networkID),
		CidrBlock:         aws.String(spec.CIDR),
		TagSpecifications: tagSpecifications(types.ResourceTypeSubnet, spec.Tags),
	}
	if spec.AvailabilityZone != "" {
		input.AvailabilityZone = aws.String(spec.AvailabilityZone)
	}

	out, err := p.client.CreateSubnet(ctx, input)
	if err != nil {
		return "", fmt.Errorf("create subnet: %w", err)
	}
	if out.Subnet == nil || aws.ToString(out.Subnet.SubnetId) == "" {
		return "", fmt.Errorf("create subnet: %w", errMissingID)
	}
	return aws.ToString(out.Subnet.SubnetId), nil
}

func (p *Provider) DeleteSubnet(ctx context.Context, subnetID string) error {
	if _, err := p.client.DeleteSubnet(ctx, &ec2.DeleteSubnetInput{SubnetId: aws.String(subnetID)}); err != nil {
		return fmt.Errorf("delete subnet: %w", err)
	}
	return nil
}

func (p *Provider) DeleteNetwork(ctx context.Context, networkID string) error {
	if _, err := p.client.DeleteVpc(ctx, &ec2.DeleteVpcInput{VpcId: aws.String(networkID)}); err != nil {
		return fmt.Errorf("delete vpc: %w", err)
	}
	return nil
}

// tagSpecifications returns nil for no tags; EC2 rejects an empty tag list.
func tagSpecifications(resource types.ResourceType, tags []domain.Tag) []types.TagSpecification {
	if len(tags) == 0 {
		return nil
	}

	ec2Tags := make([]types.Tag, 0, len(tags))
	for _, t := range tags {
		ec2Tags = append(ec2Tags, types.Tag{Key: aws.String(t.Key), Value: aws.String(t.Value)})
	}
	return []types.TagSpecification{{ResourceType: resource, Tags: ec2Tags}}
}
