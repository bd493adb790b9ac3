package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/angelmondragon/greenleague-backend/pkg/config"
	"github.com/angelmondragon/greenleague-backend/pkg/logger"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const metadataCheckTimeout = 10 * time.Second

// OrderColumns are the columns the relationship sync reads from the orders table.
var OrderColumns = []string{
	"order_id",
	"status",
	"order_date",
	"quantity_grams",
	"total_price",
	"manufacturer_name",
	"strain_name",
	"brand_name",
	"pharmacy_name",
	"dispensary_name",
	"product_name",
}

// Client wraps the BigQuery SDK client bound to one dataset and orders table.
type Client struct {
	client      *bigquery.Client
	dataset     *bigquery.Dataset
	projectID   string
	ordersTable string
}

var (
	errProjectIDRequired    = errors.New("gcp project id is required")
	errDatasetRequired      = errors.New("bigquery dataset is required")
	errTableNameRequired    = errors.New("bigquery orders table is required")
	errClientNotInitialized = errors.New("bigquery client not initialized")
	errQueryRequired        = errors.New("sql query is required")
)

// NewClient creates a BigQuery client and verifies the dataset, the orders
// table and the columns the sync depends on.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.BigQueryConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	datasetID := strings.TrimSpace(cfg.Dataset)
	if datasetID == "" {
		return nil, errDatasetRequired
	}
	ordersTable := strings.TrimSpace(cfg.OrdersTable)
	if ordersTable == "" {
		return nil, errTableNameRequired
	}

	bqClient, err := bigquery.NewClient(ctx, projectID, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating bigquery client: %w", err)
	}

	client := &Client{
		client:      bqClient,
		dataset:     bqClient.Dataset(datasetID),
		projectID:   projectID,
		ordersTable: ordersTable,
	}

	if err := client.verify(ctx, true); err != nil {
		_ = bqClient.Close()
		return nil, err
	}

	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{
			"project_id":   projectID,
			"dataset":      datasetID,
			"orders_table": ordersTable,
		})
		logg.Info(ctx, "bigquery client initialized")
	}

	return client, nil
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	if raw := strings.TrimSpace(gcp.CredentialsJSON); raw != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}
	}
	if path := strings.TrimSpace(gcp.ApplicationCredentials); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}

// verify checks that the dataset and orders table exist. When checkSchema is
// set the orders table must also expose every entry of OrderColumns.
func (c *Client) verify(ctx context.Context, checkSchema bool) error {
	if c == nil || c.dataset == nil {
		return errClientNotInitialized
	}

	ctx, cancel := context.WithTimeout(ctx, metadataCheckTimeout)
	defer cancel()

	if _, err := c.dataset.Metadata(ctx); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("dataset %q does not exist", c.dataset.DatasetID)
		}
		return fmt.Errorf("checking dataset %q: %w", c.dataset.DatasetID, err)
	}

	meta, err := c.dataset.Table(c.ordersTable).Metadata(ctx)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("table %q does not exist", c.ordersTable)
		}
		return fmt.Errorf("checking table %q: %w", c.ordersTable, err)
	}
	if !checkSchema {
		return nil
	}
	if missing := missingColumns(meta.Schema, OrderColumns); len(missing) > 0 {
		return fmt.Errorf("table %q is missing columns: %s", c.ordersTable, strings.Join(missing, ", "))
	}
	return nil
}

func missingColumns(schema bigquery.Schema, required []string) []string {
	present := make(map[string]struct{}, len(schema))
	for _, field := range schema {
		if field == nil {
			continue
		}
		present[strings.ToLower(field.Name)] = struct{}{}
	}
	var missing []string
	for _, name := range required {
		if _, ok := present[strings.ToLower(name)]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// ProjectID returns the project the client was created for.
func (c *Client) ProjectID() string {
	if c == nil {
		return ""
	}
	return c.projectID
}

// DatasetID returns the configured dataset.
func (c *Client) DatasetID() string {
	if c == nil || c.dataset == nil {
		return ""
	}
	return c.dataset.DatasetID
}

// OrdersTable returns the configured orders table name.
func (c *Client) OrdersTable() string {
	if c == nil {
		return ""
	}
	return c.ordersTable
}

// Ping verifies the dataset and orders table are reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return errClientNotInitialized
	}
	return c.verify(ctx, false)
}

// Query runs sql with named parameters and returns the row iterator.
func (c *Client) Query(ctx context.Context, sql string, params []bigquery.QueryParameter) (*bigquery.RowIterator, error) {
	if c == nil || c.client == nil {
		return nil, errClientNotInitialized
	}
	if strings.TrimSpace(sql) == "" {
		return nil, errQueryRequired
	}
	q := c.client.Query(sql)
	q.Parameters = params
	return q.Read(ctx)
}

// Close releases the BigQuery client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
