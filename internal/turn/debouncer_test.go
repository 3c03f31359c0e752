package turn

import (
	"testing"
	"time"
)

func TestDebouncerFiresOnceAfterQuiet(t *testing.T) {
	d := NewDebouncer(40 * time.Millisecond)
	d.Arm()

	select {
	case <-d.Fired():
	case <-time.After(500 * time.Millisecond):
		t.Fatal("debouncer did not fire")
	}

	select {
	case <-d.Fired():
		t.Fatal("debouncer fired twice for a single arm")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncerRearmDelaysFire(t *testing.T) {
	// Speech at t=0, 50ms, 100ms; the pause must be measured from the last
	// re-arm, not the first.
	d := NewDebouncer(80 * time.Millisecond)

	start := time.Now()
	d.Arm()
	time.Sleep(50 * time.Millisecond)
	d.Arm()
	time.Sleep(50 * time.Millisecond)
	d.Arm()

	select {
	case <-d.Fired():
	case <-time.After(time.Second):
		t.Fatal("debouncer did not fire after final re-arm")
	}

	if elapsed := time.Since(start); elapsed < 170*time.Millisecond {
		t.Errorf("fired after %v, want >= last arm + quiet interval (~180ms)", elapsed)
	}
}

func TestDebouncerFiresExactlyOnceAcrossRearms(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	for i := 0; i < 5; i++ {
		d.Arm()
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(200 * time.Millisecond)

	fires := 0
	for {
		select {
		case <-d.Fired():
			fires++
			continue
		default:
		}
		break
	}
	if fires != 1 {
		t.Errorf("fires = %d, want exactly 1", fires)
	}
}

func TestDebouncerDisarm(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	d.Arm()
	d.Disarm()

	if d.Armed() {
		t.Error("debouncer should be idle after Disarm")
	}
	select {
	case <-d.Fired():
		t.Error("disarmed debouncer must not fire")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncerArmDrainsStaleFire(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	d.Arm()

	// Let it fire but do not consume the signal.
	time.Sleep(60 * time.Millisecond)

	// New speech: the stale signal must not survive the re-arm.
	d.Arm()
	select {
	case <-d.Fired():
		t.Error("stale fire signal leaked across Arm")
	case <-time.After(10 * time.Millisecond):
	}

	// The fresh timer still fires.
	select {
	case <-d.Fired():
	case <-time.After(200 * time.Millisecond):
		t.Error("re-armed debouncer did not fire")
	}
}

func TestDebouncerArmedState(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	if d.Armed() {
		t.Error("new debouncer should be idle")
	}
	d.Arm()
	if !d.Armed() {
		t.Error("debouncer should report armed after Arm")
	}
	<-d.Fired()
	if d.Armed() {
		t.Error("debouncer should return to idle after firing")
	}
}
