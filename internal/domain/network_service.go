package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"slices"
	"time"

	"go4.org/netipx"
)

type networkService struct {
	records  NetworkRepository
	provider NetworkProvider
	logger   *slog.Logger
	rollback bool
	now      func() time.Time
}

type Option func(*networkService)

// WithLogger sets the logger used for per-step debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *networkService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRollback makes CreateNetwork delete the remote resources it already
// created when a later step fails. Without it those resources are left behind
// with no record pointing at them.
func WithRollback(enabled bool) Option {
	return func(s *networkService) {
		s.rollback = enabled
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *networkService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewNetworkService(records NetworkRepository, provider NetworkProvider, opts ...Option) NetworkService {
	s := &networkService{
		records:  records,
		provider: provider,
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *networkService) ListNetworks(ctx context.Context) ([]NetworkRecord, error) {
	records, err := s.records.List(ctx)
	if err != nil {
		return nil, remoteErr(err, "list network records")
	}
	if records == nil {
		records = []NetworkRecord{}
	}
	return records, nil
}

func (s *networkService) GetNetwork(ctx context.Context, networkID string) (NetworkRecord, error) {
	if networkID == "" {
		return NetworkRecord{}, fmt.Errorf("%w: network id is required", ErrInvalidInput)
	}
	return s.findRecord(ctx, networkID)
}

func (s *networkService) CreateNetwork(ctx context.Context, input CreateNetworkInput) (CreateNetworkResult, error) {
	if err := validateCreateInput(input); err != nil {
		return CreateNetworkResult{}, err
	}

	existing, err := s.records.FindByCIDR(ctx, input.CIDR)
	if err != nil {
		return CreateNetworkResult{}, remoteErr(err, "look up network cidr %s", input.CIDR)
	}
	if len(existing) > 0 {
		return CreateNetworkResult{}, fmt.Errorf("%w: network with cidr %s already exists", ErrConflict, input.CIDR)
	}

	networkID, err := s.provider.CreateNetwork(ctx, input.CIDR, input.Tags)
	if err != nil {
		return CreateNetworkResult{}, remoteErr(err, "create network %s", input.CIDR)
	}
	s.logger.DebugContext(ctx, "network created", "network_id", networkID, "cidr", input.CIDR)

	subnetIDs := make([]string, 0, len(input.Subnets))
	for _, spec := range input.Subnets {
		subnetID, err := s.provider.CreateSubnet(ctx, networkID, spec)
		if err != nil {
			cause := remoteErr(err, "create subnet %s in network %s", spec.CIDR, networkID)
			return CreateNetworkResult{}, s.abortCreate(ctx, networkID, subnetIDs, cause)
		}
		subnetIDs = append(subnetIDs, subnetID)
		s.logger.DebugContext(ctx, "subnet created", "network_id", networkID, "subnet_id", subnetID, "cidr", spec.CIDR)
	}

	record := NetworkRecord{
		NetworkID: networkID,
		CIDR:      input.CIDR,
		Tags:      slices.Clone(input.Tags),
		SubnetIDs: slices.Clone(subnetIDs),
		Subnets:   cloneSubnets(input.Subnets),
		CreatedAt: s.now().UTC(),
	}
	if err := s.records.Create(ctx, record); err != nil {
		cause := remoteErr(err, "save network record %s", networkID)
		return CreateNetworkResult{}, s.abortCreate(ctx, networkID, subnetIDs, cause)
	}
	s.logger.DebugContext(ctx, "network record saved", "network_id", networkID)

	return CreateNetworkResult{NetworkID: networkID, SubnetIDs: subnetIDs}, nil
}

func (s *networkService) DeleteNetwork(ctx context.Context, networkID string) error {
	if networkID == "" {
		return fmt.Errorf("%w: network id is required", ErrInvalidInput)
	}
	record, err := s.findRecord(ctx, networkID)
	if err != nil {
		return err
	}
	return s.teardown(ctx, record)
}

// DeleteAllNetworks tears down every stored network in store order and stops
// at the first failure. The count is the number of networks fully removed.
func (s *networkService) DeleteAllNetworks(ctx context.Context) (int, error) {
	records, err := s.records.List(ctx)
	if err != nil {
		return 0, remoteErr(err, "list network records")
	}

	for i, record := range records {
		if err := s.teardown(ctx, record); err != nil {
			return i, err
		}
	}
	return len(records), nil
}

func (s *networkService) findRecord(ctx context.Context, networkID string) (NetworkRecord, error) {
	record, err := s.records.FindByID(ctx, networkID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return NetworkRecord{}, fmt.Errorf("network %s: %w", networkID, ErrNotFound)
		}
		return NetworkRecord{}, remoteErr(err, "get network record %s", networkID)
	}
	return record, nil
}

func (s *networkService) teardown(ctx context.Context, record NetworkRecord) error {
	for _, subnetID := range record.SubnetIDs {
		if err := s.provider.DeleteSubnet(ctx, subnetID); err != nil {
			return remoteErr(err, "delete subnet %s of network %s", subnetID, record.NetworkID)
		}
		s.logger.DebugContext(ctx, "subnet deleted", "network_id", record.NetworkID, "subnet_id", subnetID)
	}

	if err := s.provider.DeleteNetwork(ctx, record.NetworkID); err != nil {
		return remoteErr(err, "delete network %s", record.NetworkID)
	}
	s.logger.DebugContext(ctx, "network deleted", "network_id", record.NetworkID)

	deleted, err := s.records.Delete(ctx, record.NetworkID)
	if err != nil {
		return remoteErr(err, "delete network record %s", record.NetworkID)
	}
	if !deleted {
		s.logger.WarnContext(ctx, "network record was already gone", "network_id", record.NetworkID)
	}
	return nil
}

// abortCreate returns cause, after removing the already created resources
// when rollback is enabled. Rollback failures are joined onto cause.
func (s *networkService) abortCreate(ctx context.Context, networkID string, subnetIDs []string, cause error) error {
	if !s.rollback {
		s.logger.WarnContext(ctx, "network left without a record", "network_id", networkID, "subnet_ids", subnetIDs)
		return cause
	}

	// The request may already be cancelled; cleanup still has to reach the provider.
	ctx = context.WithoutCancel(ctx)
	errs := []error{cause}
	for i := len(subnetIDs) - 1; i >= 0; i-- {
		if err := s.provider.DeleteSubnet(ctx, subnetIDs[i]); err != nil {
			errs = append(errs, remoteErr(err, "roll back subnet %s", subnetIDs[i]))
			continue
		}
		s.logger.DebugContext(ctx, "subnet rolled back", "network_id", networkID, "subnet_id", subnetIDs[i])
	}
	if err := s.provider.DeleteNetwork(ctx, networkID); err != nil {
		errs = append(errs, remoteErr(err, "roll back network %s", networkID))
	} else {
		s.logger.DebugContext(ctx, "network rolled back", "network_id", networkID)
	}

	if len(errs) > 1 {
		s.logger.ErrorContext(ctx, "rollback incomplete", "network_id", networkID, "failures", len(errs)-1)
		return errors.Join(errs...)
	}
	return cause
}

func validateCreateInput(input CreateNetworkInput) error {
	if input.CIDR == "" || len(input.Subnets) == 0 {
		return fmt.Errorf("%w: cidr and subnets are required", ErrInvalidInput)
	}

	network, err := parseNetworkPrefix(input.CIDR)
	if err != nil {
		return fmt.Errorf("%w: cidr %q: %v", ErrInvalidInput, input.CIDR, err)
	}

	prefixes := make([]netip.Prefix, 0, len(input.Subnets))
	for i, spec := range input.Subnets {
		if spec.CIDR == "" {
			return fmt.Errorf("%w: subnets[%d]: cidr is required", ErrInvalidInput, i)
		}
		prefix, err := parseNetworkPrefix(spec.CIDR)
		if err != nil {
			return fmt.Errorf("%w: subnets[%d]: cidr %q: %v", ErrInvalidInput, i, spec.CIDR, err)
		}
		if !prefixContains(network, prefix) {
			return fmt.Errorf("%w: subnets[%d]: %s is outside %s", ErrInvalidInput, i, prefix, network)
		}
		for j, other := range prefixes {
			if other.Overlaps(prefix) {
				return fmt.Errorf("%w: subnets[%d]: %s overlaps subnets[%d]", ErrInvalidInput, i, prefix, j)
			}
		}
		prefixes = append(prefixes, prefix)
	}

	return nil
}

func parseNetworkPrefix(s string) (netip.Prefix, error) {
	prefix, err := netip.ParsePrefix(s)
	if err != nil {
		return netip.Prefix{}, err
	}
	if prefix != prefix.Masked() {
		return netip.Prefix{}, fmt.Errorf("host bits set, expected %s", prefix.Masked())
	}
	return prefix, nil
}

func prefixContains(outer, inner netip.Prefix) bool {
	r := netipx.RangeOfPrefix(inner)
	return outer.Contains(r.From()) && outer.Contains(r.To())
}

func cloneSubnets(specs []SubnetSpec) []SubnetSpec {
	out := make([]SubnetSpec, 0, len(specs))
	for _, spec := range specs {
		spec.Tags = slices.Clone(spec.Tags)
		out = append(out, spec)
	}
	return out
}
