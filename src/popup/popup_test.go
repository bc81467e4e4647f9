package popup

import "testing"

type shown struct{ title, body string }

func capture(t *testing.T) *[]shown {
	t.Helper()
	var got []shown
	prev := show
	show = func(title, body string) { got = append(got, shown{title, body}) }
	t.Cleanup(func() { show = prev })
	return &got
}

func TestFailure(t *testing.T) {
	got := capture(t)
	if err := Failure("Capture", "no backend"); err != nil {
		t.Fatalf("Failure: %v", err)
	}
	if len(*got) != 1 {
		t.Fatalf("expected one popup, got %d", len(*got))
	}
	if (*got)[0].body != "Capture: no backend" {
		t.Errorf("body = %q", (*got)[0].body)
	}
}

func TestBusyAndShow(t *testing.T) {
	got := capture(t)
	_ = Busy()
	_ = Show("hello")
	if len(*got) != 2 {
		t.Fatalf("expected two popups, got %d", len(*got))
	}
	if (*got)[1].body != "hello" {
		t.Errorf("body = %q", (*got)[1].body)
	}
}

func TestFailureMessage(t *testing.T) {
	if got := FailureMessage("Search", ""); got != "Search failed" {
		t.Errorf("got %q", got)
	}
}
