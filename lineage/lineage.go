// Package lineage provides a view.Provider backed by the Google Cloud Data
// Catalog Lineage API. Dependency edges come from the lineage service's
// recorded links, not from parsing view SQL.
package lineage

import (
	"context"
	"fmt"
	"strings"

	lineage "cloud.google.com/go/datacatalog/lineage/apiv1"
	"cloud.google.com/go/datacatalog/lineage/apiv1/lineagepb"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/K-Oxon/dbt-view-importer/view"
)

// DefaultLocation is used when the caller does not configure a location. The
// lineage API location must match the BigQuery dataset location.
const DefaultLocation = "asia-northeast1"

// fqnPrefix marks BigQuery entities in lineage API fully-qualified names.
const fqnPrefix = "bigquery:"

// Compile-time check for ensuring Provider implements view.Provider.
var _ view.Provider = (*Provider)(nil)

// Provider queries the Data Catalog Lineage API for the direct upstream
// references of a view.
type Provider struct {
	client    *lineage.Client
	projectID string
	location  string
	logger    *logrus.Entry
}

// NewProvider creates a lineage provider for the given project and location.
// An empty location selects DefaultLocation.
func NewProvider(ctx context.Context, projectID, location string, logger *logrus.Entry, opts ...option.ClientOption) (*Provider, error) {
	if location == "" {
		location = DefaultLocation
	}
	client, err := lineage.NewClient(ctx, opts...)
	if err != nil {
		return nil, xerrors.Errorf("create lineage client: %w", err)
	}
	return &Provider{
		client:    client,
		projectID: projectID,
		location:  location,
		logger:    logger,
	}, nil
}

// Close releases the underlying API client.
func (p *Provider) Close() error {
	return p.client.Close()
}

// Dependencies implements view.Provider: it searches for lineage links that
// target ref and returns the BigQuery sources of those links. Sources
// outside BigQuery (e.g. GCS files feeding a load job) are skipped.
func (p *Provider) Dependencies(ctx context.Context, ref view.Ref) ([]view.Ref, error) {
	req := &lineagepb.SearchLinksRequest{
		Parent: fmt.Sprintf("projects/%s/locations/%s", p.projectID, p.location),
		Criteria: &lineagepb.SearchLinksRequest_Target{
			Target: &lineagepb.EntityReference{
				FullyQualifiedName: fqnPrefix + ref.String(),
			},
		},
	}

	var deps []view.Ref
	it := p.client.SearchLinks(ctx, req)
	for {
		link, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, xerrors.Errorf("search lineage links for %s: %w", ref, err)
		}

		sourceFQN := link.GetSource().GetFullyQualifiedName()
		if !strings.HasPrefix(sourceFQN, fqnPrefix) {
			if p.logger != nil {
				p.logger.WithFields(logrus.Fields{
					"view":   ref.String(),
					"source": sourceFQN,
				}).Debug("skipping non-bigquery lineage source")
			}
			continue
		}

		dep, err := view.Parse(strings.TrimPrefix(sourceFQN, fqnPrefix))
		if err != nil {
			// Sharded tables and similar oddities can surface names that do
			// not fit the three-part form; they cannot be converted anyway.
			if p.logger != nil {
				p.logger.WithField("source", sourceFQN).Warn("skipping unparsable lineage source")
			}
			continue
		}
		deps = append(deps, dep)
	}
	return deps, nil
}
