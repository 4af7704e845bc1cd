package events

import (
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{TargetEnter, "targetEnter"},
		{TargetExit, "targetExit"},
		{TargetStay, "targetStay"},
		{TargetSelected, "targetSelected"},
		{Kind(42), "Kind(42)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(tt.kind), got, tt.want)
		}
		if k, ok := ParseKind(tt.want); ok && k != tt.kind {
			t.Errorf("ParseKind(%q) = %v", tt.want, k)
		}
	}
	if _, ok := ParseKind("targetHover"); ok {
		t.Error("ParseKind accepted unknown name")
	}
	if n := len(Kinds()); n != 4 {
		t.Errorf("Kinds() has %d entries", n)
	}
}

func TestBusDispatchOrder(t *testing.T) {
	bus := NewBus()
	var order []string

	bus.Subscribe(TargetSelected, func(ev Event) { order = append(order, "first:"+ev.TargetID) })
	bus.SubscribeAll(func(ev Event) { order = append(order, "all:"+ev.Kind.String()) })
	bus.Subscribe(TargetSelected, func(ev Event) { order = append(order, "second:"+ev.TargetID) })
	bus.Subscribe(TargetEnter, func(ev Event) { order = append(order, "enter") })

	bus.Publish(Event{Kind: TargetSelected, TargetID: "door"})

	want := []string{"first:door", "second:door", "all:targetSelected"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
	if n := bus.HandlerCount(TargetSelected); n != 3 {
		t.Errorf("HandlerCount = %d, want 3", n)
	}
}

func TestBusSubscribeDuringPublish(t *testing.T) {
	bus := NewBus()
	calls := 0
	bus.Subscribe(TargetStay, func(Event) {
		bus.Subscribe(TargetStay, func(Event) { calls++ })
	})

	bus.Publish(Event{Kind: TargetStay})
	if calls != 0 {
		t.Errorf("handler added during publish ran immediately")
	}
	bus.Publish(Event{Kind: TargetStay})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRecorder(t *testing.T) {
	var rec Recorder
	var pub Publisher = &rec
	pub.Publish(Event{Kind: TargetEnter, TargetID: "a"})
	pub.Publish(Event{Kind: TargetExit, TargetID: "a"})

	evs := rec.Events()
	if len(evs) != 2 || evs[1].Kind != TargetExit {
		t.Errorf("recorded %v", evs)
	}
	rec.Reset()
	if len(rec.Events()) != 0 {
		t.Error("Reset kept events")
	}
}
