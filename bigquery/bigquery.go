// Package bigquery provides a view.Source backed by the BigQuery API. View
// lists come from INFORMATION_SCHEMA and definitions/schemas from table
// metadata, mirroring what the BigQuery console shows.
package bigquery

import (
	"context"
	"fmt"
	"strings"

	bq "cloud.google.com/go/bigquery"
	"golang.org/x/xerrors"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/K-Oxon/dbt-view-importer/view"
)

// Compile-time check for ensuring Client implements Source.
var _ view.Source = (*Client)(nil)

// Client wraps the BigQuery SDK client as a view.Source.
type Client struct {
	bq *bq.Client
}

// NewClient creates a BigQuery-backed view source for the given project.
func NewClient(ctx context.Context, projectID string, opts ...option.ClientOption) (*Client, error) {
	client, err := bq.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, xerrors.Errorf("create bigquery client: %w", err)
	}
	return &Client{bq: client}, nil
}

// Close releases the underlying API client.
func (c *Client) Close() error {
	return c.bq.Close()
}

// ListViews implements view.Source by querying the dataset's
// INFORMATION_SCHEMA.VIEWS table.
func (c *Client) ListViews(ctx context.Context, project, dataset string) ([]view.Ref, error) {
	q := c.bq.Query(fmt.Sprintf(
		"SELECT table_name FROM `%s.%s.INFORMATION_SCHEMA.VIEWS` ORDER BY table_name",
		project, dataset,
	))
	it, err := q.Read(ctx)
	if err != nil {
		return nil, xerrors.Errorf("list views in %s.%s: %w", project, dataset, err)
	}

	var refs []view.Ref
	for {
		var row struct {
			TableName string `bigquery:"table_name"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, xerrors.Errorf("list views in %s.%s: %w", project, dataset, err)
		}
		refs = append(refs, view.Ref{
			Project: strings.ToLower(project),
			Dataset: strings.ToLower(dataset),
			Name:    strings.ToLower(row.TableName),
		})
	}
	return refs, nil
}

// Definition implements view.Source. Non-view objects fail with
// view.ErrNotAView since only views carry a query body.
func (c *Client) Definition(ctx context.Context, ref view.Ref) (string, error) {
	md, err := c.metadata(ctx, ref)
	if err != nil {
		return "", xerrors.Errorf("definition of %s: %w", ref, err)
	}
	if md.Type != bq.ViewTable {
		return "", xerrors.Errorf("definition of %s (type %s): %w", ref, md.Type, view.ErrNotAView)
	}
	return md.ViewQuery, nil
}

// Schema implements view.Source.
func (c *Client) Schema(ctx context.Context, ref view.Ref) ([]view.Column, error) {
	md, err := c.metadata(ctx, ref)
	if err != nil {
		return nil, xerrors.Errorf("schema of %s: %w", ref, err)
	}

	columns := make([]view.Column, 0, len(md.Schema))
	for _, field := range md.Schema {
		columns = append(columns, view.Column{
			Name:        field.Name,
			Type:        string(field.Type),
			Description: field.Description,
			Mode:        fieldMode(field),
		})
	}
	return columns, nil
}

// TableType implements view.Source.
func (c *Client) TableType(ctx context.Context, ref view.Ref) (string, error) {
	md, err := c.metadata(ctx, ref)
	if err != nil {
		return "", xerrors.Errorf("table type of %s: %w", ref, err)
	}
	return string(md.Type), nil
}

func (c *Client) metadata(ctx context.Context, ref view.Ref) (*bq.TableMetadata, error) {
	md, err := c.bq.DatasetInProject(ref.Project, ref.Dataset).Table(ref.Name).Metadata(ctx)
	if isNotFound(err) {
		return nil, view.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return md, nil
}

func fieldMode(field *bq.FieldSchema) string {
	switch {
	case field.Repeated:
		return "REPEATED"
	case field.Required:
		return "REQUIRED"
	default:
		return "NULLABLE"
	}
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return xerrors.As(err, &apiErr) && apiErr.Code == 404
}
