// Package catalog composes the catalog store with protocol metadata
// aggregation. The HTTP API and the CLI consume a Service.
package catalog

import (
	"context"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/apothecary/pkg/aggregate"
	"github.com/mesh-intelligence/apothecary/pkg/types"
)

// Service exposes every store operation of the wrapped Catalog and adds
// protocol reads with aggregated metadata.
type Service struct {
	types.Catalog
	agg *aggregate.Aggregator
	log *zap.Logger
}

// New wraps store. A nil agg aggregates in entity mode; a nil log disables
// logging.
func New(store types.Catalog, agg *aggregate.Aggregator, log *zap.Logger) *Service {
	if agg == nil {
		agg, _ = aggregate.New(aggregate.ModeEntity)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{Catalog: store, agg: agg, log: log.Named("catalog")}
}

// AggregationMode reports how metadata is computed.
func (s *Service) AggregationMode() aggregate.Mode {
	return s.agg.Mode()
}

// DescribeProtocol returns the protocol, its member items, and the metadata
// aggregated from them. Returns ErrNotFound if the protocol does not exist.
func (s *Service) DescribeProtocol(ctx context.Context, id string) (*types.ProtocolWithMetadata, error) {
	p, err := s.GetProtocol(ctx, id)
	if err != nil {
		return nil, err
	}
	meta := s.agg.Aggregate(p.Items)
	s.log.Debug("described protocol",
		zap.String("id", id),
		zap.Int("items", len(p.Items)),
		zap.Int("side_effects", len(meta.AllSideEffects)),
	)
	return &types.ProtocolWithMetadata{ProtocolWithItems: *p, AggregatedMetadata: meta}, nil
}

// ProtocolMetadata returns only the aggregated metadata of a protocol.
func (s *Service) ProtocolMetadata(ctx context.Context, id string) (types.ProtocolAggregatedMetadata, error) {
	items, err := s.FetchProtocolItems(ctx, id)
	if err != nil {
		return types.ProtocolAggregatedMetadata{}, err
	}
	return s.agg.Aggregate(items), nil
}
