package marketdata

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/angelmondragon/greenleague-backend/internal/relationships"
	pkgbigquery "github.com/angelmondragon/greenleague-backend/pkg/bigquery"
	"github.com/angelmondragon/greenleague-backend/pkg/logger"
	"github.com/angelmondragon/greenleague-backend/pkg/types"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
)

const ordersByDateSQL = `
SELECT
  CAST(order_id AS STRING) AS order_id,
  status,
  order_date,
  quantity_grams,
  CAST(total_price AS STRING) AS total_price,
  manufacturer_name,
  strain_name,
  brand_name,
  pharmacy_name,
  dispensary_name,
  product_name
FROM %s
WHERE DATE(order_date) = PARSE_DATE('%%Y-%%m-%%d', @stat_date)
`

type rowIterator interface {
	Next(dst any) error
}

type queryRunner interface {
	Query(ctx context.Context, sql string, params []bigquery.QueryParameter) (rowIterator, error)
}

type clientRunner struct {
	client *pkgbigquery.Client
}

func (r clientRunner) Query(ctx context.Context, sql string, params []bigquery.QueryParameter) (rowIterator, error) {
	return r.client.Query(ctx, sql, params)
}

type orderRow struct {
	OrderID          string                 `bigquery:"order_id"`
	Status           bigquery.NullString    `bigquery:"status"`
	OrderDate        bigquery.NullTimestamp `bigquery:"order_date"`
	QuantityGrams    bigquery.NullFloat64   `bigquery:"quantity_grams"`
	TotalPrice       bigquery.NullString    `bigquery:"total_price"`
	ManufacturerName bigquery.NullString    `bigquery:"manufacturer_name"`
	StrainName       bigquery.NullString    `bigquery:"strain_name"`
	BrandName        bigquery.NullString    `bigquery:"brand_name"`
	PharmacyName     bigquery.NullString    `bigquery:"pharmacy_name"`
	DispensaryName   bigquery.NullString    `bigquery:"dispensary_name"`
	ProductName      bigquery.NullString    `bigquery:"product_name"`
}

// BigQuerySource reads the raw order batch from the market data warehouse.
type BigQuerySource struct {
	runner   queryRunner
	tableRef string
	logg     *logger.Logger
}

// invalidPriceSampleSize bounds the order ids logged for unparseable prices.
const invalidPriceSampleSize = 10

// NewBigQuerySource builds a source over project.dataset.table. logg may be nil.
func NewBigQuerySource(client *pkgbigquery.Client, project, dataset, table string, logg *logger.Logger) (*BigQuerySource, error) {
	if client == nil {
		return nil, errors.New("bigquery client required")
	}
	return newBigQuerySource(clientRunner{client: client}, project, dataset, table, logg)
}

func newBigQuerySource(runner queryRunner, project, dataset, table string, logg *logger.Logger) (*BigQuerySource, error) {
	project, dataset, table = strings.TrimSpace(project), strings.TrimSpace(dataset), strings.TrimSpace(table)
	if project == "" || dataset == "" || table == "" {
		return nil, errors.New("project, dataset, and table are required")
	}
	return &BigQuerySource{
		runner:   runner,
		tableRef: fmt.Sprintf("`%s.%s.%s`", project, dataset, table),
		logg:     logg,
	}, nil
}

// Name labels the source in logs and metrics.
func (s *BigQuerySource) Name() string {
	return "bigquery"
}

// FetchOrders returns every order whose order_date falls on date (UTC).
// An unparseable total price keeps the order with a zero price.
func (s *BigQuerySource) FetchOrders(ctx context.Context, date types.StatDate) ([]relationships.RawOrder, error) {
	params := []bigquery.QueryParameter{{Name: "stat_date", Value: date.String()}}
	iter, err := s.runner.Query(ctx, fmt.Sprintf(ordersByDateSQL, s.tableRef), params)
	if err != nil {
		return nil, fmt.Errorf("query raw orders: %w", err)
	}

	var (
		orders        []relationships.RawOrder
		invalidPrices int
		invalidIDs    []string
	)
	for {
		var row orderRow
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading raw order row: %w", err)
		}
		order, priceErr := row.toRawOrder()
		if priceErr != nil {
			invalidPrices++
			if len(invalidIDs) < invalidPriceSampleSize {
				invalidIDs = append(invalidIDs, row.OrderID)
			}
		}
		orders = append(orders, order)
	}
	if invalidPrices > 0 && s.logg != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"stat_date":            date.String(),
			"invalid_price_orders": invalidPrices,
			"invalid_price_sample": invalidIDs,
		}), "raw orders with unparseable total price kept at zero")
	}
	return orders, nil
}

// toRawOrder always returns the order. The error reports a total price that
// could not be parsed; the order then carries a zero price.
func (r orderRow) toRawOrder() (relationships.RawOrder, error) {
	order := relationships.RawOrder{
		ID:               r.OrderID,
		Status:           r.Status.StringVal,
		ManufacturerName: r.ManufacturerName.StringVal,
		StrainName:       r.StrainName.StringVal,
		BrandName:        r.BrandName.StringVal,
		PharmacyName:     r.PharmacyName.StringVal,
		DispensaryName:   r.DispensaryName.StringVal,
		ProductName:      r.ProductName.StringVal,
	}
	if r.OrderDate.Valid {
		order.OrderDate = r.OrderDate.Timestamp.UTC()
	}
	if r.QuantityGrams.Valid {
		quantity := r.QuantityGrams.Float64
		order.QuantityGrams = &quantity
	}
	if r.TotalPrice.Valid && strings.TrimSpace(r.TotalPrice.StringVal) != "" {
		price, err := decimal.NewFromString(strings.TrimSpace(r.TotalPrice.StringVal))
		if err != nil {
			return order, fmt.Errorf("order %s: parse total price: %w", r.OrderID, err)
		}
		order.TotalPrice = price
	}
	return order, nil
}
