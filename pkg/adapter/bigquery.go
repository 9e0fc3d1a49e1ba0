package adapter

import (
	"context"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/m-mizutani/goerr/v2"
)

// OrderSink receives finalized orders for downstream analytics. Sink
// failures are logged by the caller and never fail the conversation turn.
type OrderSink interface {
	InsertOrder(ctx context.Context, row *OrderRow) error
}

// OrderRow is the flattened analytics record for one finalized order.
// Field names follow the order export format.
type OrderRow struct {
	OrderID    string    `bigquery:"order_id"`
	ItemNames  []string  `bigquery:"item_names"`
	Persona    string    `bigquery:"persona"`
	Restaurant string    `bigquery:"restaurant"`
	Confidence float64   `bigquery:"confidence"`
	MenuJSON   string    `bigquery:"menu_json"`
	Timestamp  time.Time `bigquery:"timestamp"`
}

type bigqueryClient struct {
	client  *bigquery.Client
	dataset string
	table   string
}

// BigQueryOption is a functional option for the BigQuery order sink
type BigQueryOption func(*bigqueryClient)

// WithOrderTable overrides the destination dataset and table
func WithOrderTable(dataset, table string) BigQueryOption {
	return func(bq *bigqueryClient) {
		bq.dataset = dataset
		bq.table = table
	}
}

// NewBigQuery creates an OrderSink streaming into a BigQuery table
func NewBigQuery(ctx context.Context, projectID string, opts ...BigQueryOption) (OrderSink, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create BigQuery client")
	}

	bq := &bigqueryClient{
		client:  client,
		dataset: "parlaplate",
		table:   "orders",
	}

	for _, opt := range opts {
		opt(bq)
	}

	return bq, nil
}

func (bq *bigqueryClient) InsertOrder(ctx context.Context, row *OrderRow) error {
	inserter := bq.client.Dataset(bq.dataset).Table(bq.table).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return goerr.Wrap(err, "failed to insert order row",
			goerr.Value("dataset", bq.dataset), goerr.Value("table", bq.table))
	}
	return nil
}
