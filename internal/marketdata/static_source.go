package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/angelmondragon/greenleague-backend/internal/relationships"
	"github.com/angelmondragon/greenleague-backend/pkg/types"
)

// StaticSource serves an in-memory batch, filtered by the UTC day of OrderDate.
type StaticSource struct {
	orders []relationships.RawOrder
}

// NewStaticSource wraps the provided orders.
func NewStaticSource(orders []relationships.RawOrder) *StaticSource {
	return &StaticSource{orders: orders}
}

// LoadStaticSource reads a JSON array of raw orders from path.
func LoadStaticSource(path string) (*StaticSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open orders file: %w", err)
	}
	defer f.Close()
	return DecodeStaticSource(f)
}

// DecodeStaticSource reads a JSON array of raw orders.
func DecodeStaticSource(r io.Reader) (*StaticSource, error) {
	var orders []relationships.RawOrder
	if err := json.NewDecoder(r).Decode(&orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return NewStaticSource(orders), nil
}

// Name labels the source in logs and metrics.
func (s *StaticSource) Name() string {
	return "static"
}

// FetchOrders returns the orders dated on date.
func (s *StaticSource) FetchOrders(_ context.Context, date types.StatDate) ([]relationships.RawOrder, error) {
	out := make([]relationships.RawOrder, 0, len(s.orders))
	for _, order := range s.orders {
		if types.NewStatDate(order.OrderDate).Equal(date) {
			out = append(out, order)
		}
	}
	return out, nil
}
