package http

import (
	"fmt"
	"time"

	"github.com/Flarenzy/vpc-provisioner/internal/domain"
)

// TagPayload uses the EC2 Key/Value casing. Lower-case keys are accepted too.
type TagPayload struct {
	Key   string `json:"Key" example:"Name"`
	Value string `json:"Value" example:"main"`
}

// SubnetPayload describes one subnet to carve out of the network.
type SubnetPayload struct {
	CIDR string       `json:"cidr" example:"10.0.1.0/24" validate:"required"`
	AZ   string       `json:"az,omitempty" example:"eu-west-1a"`
	Tags []TagPayload `json:"tags,omitempty"`
}

// CreateNetworkRequest is the payload accepted when creating a network.
type CreateNetworkRequest struct {
	CIDR    string          `json:"cidr" example:"10.0.0.0/16" validate:"required"`
	Tags    []TagPayload    `json:"tags"`
	Subnets []SubnetPayload `json:"subnets" validate:"required"`
}

// CreateNetworkResponse carries the provider-assigned identifiers.
type CreateNetworkResponse struct {
	NetworkID string   `json:"network_id" example:"vpc-0a1b2c3d"`
	SubnetIDs []string `json:"subnet_ids"`
}

// NetworkResponse is the stored record returned to clients.
type NetworkResponse struct {
	NetworkID string          `json:"network_id" example:"vpc-0a1b2c3d"`
	CIDR      string          `json:"cidr" example:"10.0.0.0/16"`
	Tags      []TagPayload    `json:"tags"`
	SubnetIDs []string        `json:"subnet_ids"`
	Subnets   []SubnetPayload `json:"subnets"`
	CreatedAt time.Time       `json:"created_at" example:"2024-05-10T15:04:05Z"`
}

type NetworkListResponse struct {
	Networks []NetworkResponse `json:"networks"`
}

type MessageResponse struct {
	Message string `json:"message" example:"Network vpc-0a1b2c3d and its subnets deleted"`
}

// ErrorResponse is a simple envelope for error messages.
type ErrorResponse struct {
	Error string `json:"error" example:"network vpc-0a1b2c3d: not found"`
}

func (r CreateNetworkRequest) toInput() (domain.CreateNetworkInput, error) {
	tags, err := tagsFromPayload(r.Tags)
	if err != nil {
		return domain.CreateNetworkInput{}, err
	}

	subnets := make([]domain.SubnetSpec, 0, len(r.Subnets))
	for i, s := range r.Subnets {
		subnetTags, err := tagsFromPayload(s.Tags)
		if err != nil {
			return domain.CreateNetworkInput{}, fmt.Errorf("subnets[%d]: %w", i, err)
		}
		subnets = append(subnets, domain.SubnetSpec{
			CIDR:             s.CIDR,
			AvailabilityZone: s.AZ,
			Tags:             subnetTags,
		})
	}

	return domain.CreateNetworkInput{
		CIDR:    r.CIDR,
		Tags:    tags,
		Subnets: subnets,
	}, nil
}

func tagsFromPayload(payload []TagPayload) ([]domain.Tag, error) {
	tags := make([]domain.Tag, 0, len(payload))
	for i, t := range payload {
		if t.Key == "" {
			return nil, fmt.Errorf("%w: tags[%d]: key is required", domain.ErrInvalidInput, i)
		}
		tags = append(tags, domain.Tag{Key: t.Key, Value: t.Value})
	}
	return tags, nil
}

func tagsToPayload(tags []domain.Tag) []TagPayload {
	out := make([]TagPayload, 0, len(tags))
	for _, t := range tags {
		out = append(out, TagPayload{Key: t.Key, Value: t.Value})
	}
	return out
}

func networkToResponse(n domain.NetworkRecord) NetworkResponse {
	subnets := make([]SubnetPayload, 0, len(n.Subnets))
	for _, s := range n.Subnets {
		subnets = append(subnets, SubnetPayload{CIDR: s.CIDR, AZ: s.AvailabilityZone, Tags: tagsToPayload(s.Tags)})
	}
	subnetIDs := n.SubnetIDs
	if subnetIDs == nil {
		subnetIDs = []string{}
	}

	return NetworkResponse{
		NetworkID: n.NetworkID,
		CIDR:      n.CIDR,
		Tags:      tagsToPayload(n.Tags),
		SubnetIDs: subnetIDs,
		Subnets:   subnets,
		CreatedAt: n.CreatedAt,
	}
}

func networksToResponse(networks []domain.NetworkRecord) []NetworkResponse {
	out := make([]NetworkResponse, 0, len(networks))
	for _, n := range networks {
		out = append(out, networkToResponse(n))
	}
	return out
}
