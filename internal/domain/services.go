package domain

import "context"

type NetworkService interface {
	ListNetworks(ctx context.Context) ([]NetworkRecord, error)
	GetNetwork(ctx context.Context, networkID string) (NetworkRecord, error)
	CreateNetwork(ctx context.Context, input CreateNetworkInput) (CreateNetworkResult, error)
	DeleteNetwork(ctx context.Context, networkID string) error
	DeleteAllNetworks(ctx context.Context) (int, error)
}
