package domain

import "context"

type NetworkRepository interface {
	List(ctx context.Context) ([]NetworkRecord, error)
	FindByID(ctx context.Context, networkID string) (NetworkRecord, error)
	FindByCIDR(ctx context.Context, cidr string) ([]NetworkRecord, error)
	Create(ctx context.Context, record NetworkRecord) error
	Delete(ctx context.Context, networkID string) (bool, error)
}

// NetworkProvider creates and removes the remote network resources. The
// identifiers it returns are assigned by the provider.
type NetworkProvider interface {
	CreateNetwork(ctx context.Context, cidr string, tags []Tag) (string, error)
	CreateSubnet(ctx context.Context, networkID string, spec SubnetSpec) (string, error)
	DeleteSubnet(ctx context.Context, subnetID string) error
	DeleteNetwork(ctx context.Context, networkID string) error
}
