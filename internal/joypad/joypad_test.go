package joypad

import "testing"

type fakeIRQ struct{ requested []int }

func (f *fakeIRQ) Request(bit int) { f.requested = append(f.requested, bit) }

func TestUnselectedGroupReadsAllOnes(t *testing.T) {
	j := New(&fakeIRQ{})
	j.Write(0x30) // both select bits set: neither group selected
	if got := j.Read(); got&0x0F != 0x0F {
		t.Fatalf("expected low nibble all 1s when nothing is selected, got %#02x", got&0x0F)
	}
}

func TestDirectionButtonsReflectedWhenSelected(t *testing.T) {
	j := New(&fakeIRQ{})
	j.SetButtons(Right | Up)
	j.Write(0x20) // select directions (bit4=0), buttons deselected (bit5=1)
	got := j.Read() & 0x0F
	if got&0x01 != 0 {
		t.Fatalf("expected Right bit (bit0) low (pressed), got %#02x", got)
	}
	if got&0x04 != 0 {
		t.Fatalf("expected Up bit (bit2) low (pressed), got %#02x", got)
	}
	if got&0x02 == 0 {
		t.Fatalf("expected Left bit (bit1) high (not pressed), got %#02x", got)
	}
}

func TestActionButtonsReflectedWhenSelected(t *testing.T) {
	j := New(&fakeIRQ{})
	j.SetButtons(A | Start)
	j.Write(0x10) // select buttons (bit5=0), directions deselected (bit4=1)
	got := j.Read() & 0x0F
	if got&0x01 != 0 {
		t.Fatalf("expected A bit (bit0) low (pressed), got %#02x", got)
	}
	if got&0x08 != 0 {
		t.Fatalf("expected Start bit (bit3) low (pressed), got %#02x", got)
	}
	if got&0x02 == 0 {
		t.Fatalf("expected B bit (bit1) high (not pressed), got %#02x", got)
	}
}

func TestUpperTwoBitsAlwaysReadAsOne(t *testing.T) {
	j := New(&fakeIRQ{})
	if got := j.Read(); got&0xC0 != 0xC0 {
		t.Fatalf("expected bits 6-7 always set, got %#02x", got)
	}
}

func TestFallingEdgeOnSelectedLineRequestsInterrupt(t *testing.T) {
	irq := &fakeIRQ{}
	j := New(irq)
	j.Write(0x20) // directions selected
	j.SetButtons(0)
	j.SetButtons(Right) // 0 -> 1 transition on a selected line: falling edge on output
	if len(irq.requested) != 1 || irq.requested[0] != 4 {
		t.Fatalf("expected exactly one joypad interrupt request, got %v", irq.requested)
	}
}

func TestNoInterruptOnUnselectedLineChange(t *testing.T) {
	irq := &fakeIRQ{}
	j := New(irq)
	j.Write(0x10) // buttons selected, directions deselected
	j.SetButtons(0)
	j.SetButtons(Right) // change on the deselected direction group
	if len(irq.requested) != 0 {
		t.Fatalf("expected no interrupt for a change on the deselected group, got %v", irq.requested)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	j := New(&fakeIRQ{})
	j.Write(0x10)
	j.SetButtons(A)
	s := j.Snapshot()

	j2 := New(&fakeIRQ{})
	j2.Restore(s)
	if j2.Read() != j.Read() {
		t.Fatalf("restored joypad should read identically: got %#02x want %#02x", j2.Read(), j.Read())
	}
}
