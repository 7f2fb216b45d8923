package domain

import (
	"context"
	"log/slog"
)

type loggingNetworkService struct {
	logger *slog.Logger
	next   NetworkService
}

func NewLoggingNetworkService(logger *slog.Logger, next NetworkService) NetworkService {
	if logger == nil || next == nil {
		return next
	}

	return &loggingNetworkService{
		logger: logger,
		next:   next,
	}
}

func (s *loggingNetworkService) ListNetworks(ctx context.Context) ([]NetworkRecord, error) {
	records, err := s.next.ListNetworks(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "list networks failed", "err", err.Error())
		return records, err
	}

	s.logger.DebugContext(ctx, "networks listed", "count", len(records))
	return records, nil
}

func (s *loggingNetworkService) GetNetwork(ctx context.Context, networkID string) (NetworkRecord, error) {
	record, err := s.next.GetNetwork(ctx, networkID)
	if err != nil {
		s.logger.ErrorContext(ctx, "get network failed", "network_id", networkID, "err", err.Error())
	}
	return record, err
}

func (s *loggingNetworkService) CreateNetwork(ctx context.Context, input CreateNetworkInput) (CreateNetworkResult, error) {
	result, err := s.next.CreateNetwork(ctx, input)
	if err != nil {
		s.logger.ErrorContext(ctx, "create network failed", "cidr", input.CIDR, "subnets", len(input.Subnets), "err", err.Error())
		return CreateNetworkResult{}, err
	}

	s.logger.InfoContext(ctx, "network created", "network_id", result.NetworkID, "cidr", input.CIDR, "subnet_ids", result.SubnetIDs)
	return result, nil
}

func (s *loggingNetworkService) DeleteNetwork(ctx context.Context, networkID string) error {
	err := s.next.DeleteNetwork(ctx, networkID)
	if err != nil {
		s.logger.ErrorContext(ctx, "delete network failed", "network_id", networkID, "err", err.Error())
		return err
	}

	s.logger.InfoContext(ctx, "network deleted", "network_id", networkID)
	return nil
}

func (s *loggingNetworkService) DeleteAllNetworks(ctx context.Context) (int, error) {
	deleted, err := s.next.DeleteAllNetworks(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "delete all networks failed", "deleted", deleted, "err", err.Error())
		return deleted, err
	}

	s.logger.InfoContext(ctx, "all networks deleted", "deleted", deleted)
	return deleted, nil
}
