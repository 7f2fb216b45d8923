package domain

import "time"

type Tag struct {
	Key   string
	Value string
}

type SubnetSpec struct {
	CIDR             string
	AvailabilityZone string
	Tags             []Tag
}

// NetworkRecord is the persisted view of a provisioned network. Records are
// written once after every remote call succeeded and are never updated.
type NetworkRecord struct {
	NetworkID string
	CIDR      string
	Tags      []Tag
	// SubnetIDs is kept in creation order and drives teardown.
	SubnetIDs []string
	Subnets   []SubnetSpec
	CreatedAt time.Time
}

type CreateNetworkResult struct {
	NetworkID string
	SubnetIDs []string
}
