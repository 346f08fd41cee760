package pitch

import "testing"

func TestInitZero(t *testing.T) {
	var p Pitch
	p.Init(1.0 / 48000)
	if p.Value() != 0 {
		t.Fatalf("fresh pitch should read 0, got %v", p.Value())
	}
}

func TestObserveForwardConvergesPositive(t *testing.T) {
	var p Pitch
	dt := 1.0 / 48000
	p.Init(dt)

	// Simulate steady forward motion: one +dt observation per sample,
	// updated once per block, for many blocks so the EMA settles.
	for block := 0; block < 200; block++ {
		for i := 0; i < 100; i++ {
			p.Observe(dt)
		}
		p.Update()
	}
	if p.Value() <= 0 {
		t.Fatalf("expected positive pitch after sustained forward motion, got %v", p.Value())
	}
}

func TestObserveReverseConvergesNegative(t *testing.T) {
	var p Pitch
	dt := 1.0 / 48000
	p.Init(dt)

	for block := 0; block < 200; block++ {
		for i := 0; i < 100; i++ {
			p.Observe(-dt)
		}
		p.Update()
	}
	if p.Value() >= 0 {
		t.Fatalf("expected negative pitch after sustained reverse motion, got %v", p.Value())
	}
}

func TestUpdateWithNoObservationsDecaysTowardZero(t *testing.T) {
	var p Pitch
	dt := 1.0 / 48000
	p.Init(dt)

	for i := 0; i < 100; i++ {
		p.Observe(dt)
	}
	p.Update()
	first := p.Value()
	if first <= 0 {
		t.Fatalf("expected positive pitch, got %v", first)
	}

	p.Update()
	second := p.Value()
	if second >= first {
		t.Fatalf("expected pitch to decay after silent block: first=%v second=%v", first, second)
	}
}
