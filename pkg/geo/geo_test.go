package geo

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestNewPoint_KeepsOrder(t *testing.T) {
	p := NewPoint(19.7942, 76.9749)
	if p.Type != "Point" {
		t.Errorf("expected type Point, got %s", p.Type)
	}
	if p.Coordinates != [2]float64{19.7942, 76.9749} {
		t.Errorf("unexpected coordinates %v", p.Coordinates)
	}
	if p.Lat() != 19.7942 || p.Lng() != 76.9749 {
		t.Errorf("unexpected lat/lng %v/%v", p.Lat(), p.Lng())
	}
}

func TestStatic_Nil(t *testing.T) {
	_, err := Static(nil).Locate(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestStatic_Point(t *testing.T) {
	want := NewPoint(1, 2)
	got, err := Static(&want).Locate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDistanceKm(t *testing.T) {
	a := NewPoint(0, 0)
	b := NewPoint(0, 1)
	d := DistanceKm(a, b)
	if math.Abs(d-111.19) > 0.5 {
		t.Errorf("expected ~111km for one degree of longitude at the equator, got %f", d)
	}
	if DistanceKm(a, a) != 0 {
		t.Error("expected zero distance to self")
	}
}
