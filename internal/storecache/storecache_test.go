package storecache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/roadwatch/roadwatch-web/internal/models"
)

func testCache(t *testing.T) *Cache {
	t.Helper()
	srv := miniredis.RunT(t)
	c, err := New(srv.Addr())
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := testCache(t)

	reports := []models.Report{
		{ID: 2, Status: models.StatusProcessed, Detections: []models.Detection{
			{DefectType: "pothole", Confidence: 0.9},
		}},
		{ID: 1, Status: models.StatusNoDefects, Detections: []models.Detection{}},
	}
	if err := c.Save(ctx, reports); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].ID != 2 || got[0].Detections[0].DefectType != "pothole" {
		t.Errorf("snapshot mangled: %+v", got)
	}
}

func TestLoadEmptyCache(t *testing.T) {
	c := testCache(t)
	got, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for empty cache, got %+v", got)
	}
}

func TestHealth(t *testing.T) {
	srv := miniredis.RunT(t)
	c, err := New(srv.Addr())
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	defer c.Close()

	if rsp := c.Health(context.Background()); rsp.Status != models.STATUS_UP {
		t.Errorf("expected UP, got %s", rsp.Status)
	}

	srv.Close()
	if rsp := c.Health(context.Background()); rsp.Status != models.STATUS_DOWN {
		t.Errorf("expected DOWN after redis close, got %s", rsp.Status)
	}
}
