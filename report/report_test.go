package report

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ray-remotestate/tableside/models"
)

func fixtures() ([]models.Order, []models.ManualOrder) {
	at := func(day, hour int) time.Time { return time.Date(2026, 10, day, hour, 0, 0, 0, time.UTC) }
	orders := []models.Order{
		{ID: "o1", CustomerName: "Alice", TableNumber: "5", Total: 1900, Status: models.StatusCompleted,
			Items: []models.OrderItem{{ID: "kottu-roti", Name: "Chicken Kottu Roti", Price: 950, Quantity: 2}},
			CreatedAt: at(10, 19), Date: "2026-10-10"},
		{ID: "o2", CustomerName: "Bob", TableNumber: "VIP1", Total: 450, Status: models.StatusCancelled,
			Items: []models.OrderItem{{ID: "hoppers", Name: "Egg Hoppers (2 pieces)", Price: 450, Quantity: 1}},
			CreatedAt: at(11, 12), Date: "2026-10-11"},
		{ID: "o3", CustomerName: "Carol", TableNumber: "2", Total: 350, Status: models.StatusReady,
			Items: []models.OrderItem{{ID: "mango-lassi", Name: "Fresh Mango Lassi", Price: 350, Quantity: 1}},
			CreatedAt: at(1, 9), Date: "2026-10-01"},
	}
	manual := []models.ManualOrder{
		{ID: "m1", CustomerName: "Walk-in Customer", TableNumber: "Takeout", ItemsDescription: "3x tea",
			Total: 300, CreatedAt: at(10, 8), Date: "2026-10-10", Type: models.ManualOrderType},
	}
	return orders, manual
}

func TestBuildFiltersByDate(t *testing.T) {
	orders, manual := fixtures()
	r := Build(orders, manual, "2026-10-05", "2026-10-11", Meta{Restaurant: "Green Heaven", Currency: "LKR"})

	require.Len(t, r.Digital, 2)
	require.Len(t, r.Manual, 1)
	assert.Equal(t, "o1", r.Digital[0].ID)
	assert.Equal(t, "2x Chicken Kottu Roti", r.Digital[0].Items)

	assert.Equal(t, Summary{
		DigitalOrders:  1,
		ManualOrders:   1,
		TotalOrders:    2,
		DigitalRevenue: 1900,
		ManualRevenue:  300,
		TotalRevenue:   2200,
		AverageOrder:   1100,
	}, r.Summary)
	assert.Equal(t, "sales_report_2026-10-05_to_2026-10-11.pdf", r.FileName())
}

func TestBuildEmptyRange(t *testing.T) {
	orders, manual := fixtures()
	r := Build(orders, manual, "2025-01-01", "2025-01-31", Meta{})
	assert.Empty(t, r.Digital)
	assert.Empty(t, r.Manual)
	assert.Zero(t, r.Summary.AverageOrder)
}

func TestRenderPDF(t *testing.T) {
	orders, manual := fixtures()
	r := Build(orders, manual, "2026-10-01", "2026-10-31", Meta{
		Restaurant:  "Green Heaven Restaurant",
		Currency:    "LKR",
		GeneratedAt: time.Date(2026, 10, 19, 20, 0, 0, 0, time.UTC),
	})

	var buf bytes.Buffer
	require.NoError(t, Render(r, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)
}

func TestS3ArchiverUploads(t *testing.T) {
	var gotPath, gotMethod string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
		Credentials:  aws.AnonymousCredentials{},
	})
	a := NewS3ArchiverWithClient(client, "reports")

	loc, err := a.Archive(context.Background(), "2026/10/report.pdf", []byte("%PDF-1.3"))
	require.NoError(t, err)
	assert.Equal(t, "s3://reports/2026/10/report.pdf", loc)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/reports/2026/10/report.pdf", gotPath)
	assert.Equal(t, []byte("%PDF-1.3"), gotBody)
}
