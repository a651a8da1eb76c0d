//go:build integration

package e2e

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// InfluxClient reads back what a run wrote to InfluxDB.
type InfluxClient struct {
	org    string
	bucket string
	client influxdb2.Client
	query  api.QueryAPI
}

func NewInfluxClient(url, org, bucket, token string) *InfluxClient {
	c := influxdb2.NewClient(url, token)
	return &InfluxClient{org: org, bucket: bucket, client: c, query: c.QueryAPI(org)}
}

// Count returns the number of points of measurement tagged with runID
// between start and stop, both RFC 3339.
func (c *InfluxClient) Count(ctx context.Context, measurement, runID, start, stop string) (int, error) {
	flux := fmt.Sprintf(`from(bucket:%q)
  |> range(start: %s, stop: %s)
  |> filter(fn: (r) => r._measurement == %q and r.run_id == %q)`,
		c.bucket, start, stop, measurement, runID)
	res, err := c.query.Query(ctx, flux)
	if err != nil {
		return 0, err
	}
	defer res.Close()
	n := 0
	for res.Next() {
		n++
	}
	return n, res.Err()
}

func (c *InfluxClient) Close() { c.client.Close() }
