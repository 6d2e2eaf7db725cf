package agents

import (
	"context"
	"testing"
)

func echoFunc(_ context.Context, req FuncRequest) (Message, error) {
	return TextMessage(req.Message.Text), nil
}

func TestNewParsesFewShots(t *testing.T) {
	a, err := New("You are a calculator.", []string{
		"Q: 2 + 2?\nAsk Func[calc]: 2 + 2\nFunc[calc] says: 4\nA: 4",
		"Q: hi\nA: hello\n\nQ: bye\nA: goodbye",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := len(a.FewShots()); got != 3 {
		t.Errorf("got %d few-shots, want 3", got)
	}
	if a.BasePrompt() != "You are a calculator." {
		t.Errorf("BasePrompt = %q", a.BasePrompt())
	}
}

func TestNewRejectsMalformedFewShot(t *testing.T) {
	_, err := New("prompt", []string{"no query prefix here"})
	if err == nil {
		t.Fatal("New with malformed few-shot succeeded, want error")
	}
}

func TestRegisterFunc(t *testing.T) {
	a, _ := New("p", nil)

	if err := a.RegisterFunc("calc", echoFunc); err != nil {
		t.Fatalf("RegisterFunc: %v", err)
	}
	if err := a.RegisterFunc("calc", echoFunc); err == nil {
		t.Error("duplicate registration succeeded, want error")
	}
	if err := a.RegisterFunc("not a name", echoFunc); err == nil {
		t.Error("invalid name accepted, want error")
	}
	if err := a.RegisterFunc("nilfn", nil); err == nil {
		t.Error("nil func accepted, want error")
	}

	want := []string{"calc"}
	got := a.FuncNames()
	if len(got) != 1 || got[0] != want[0] {
		t.Errorf("FuncNames = %v, want %v", got, want)
	}
}

func TestValidate(t *testing.T) {
	a, err := New("p", []string{"Q: x\nAsk Func[roll]: 2\nFunc[roll] says: 5\nA: five"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := a.Validate(); err == nil {
		t.Error("Validate with unregistered func succeeded, want error")
	}

	a.MustRegisterFunc("roll", echoFunc)
	if err := a.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestMustRegisterFuncPanics(t *testing.T) {
	a, _ := New("p", nil)
	defer func() {
		if recover() == nil {
			t.Error("MustRegisterFunc with bad name did not panic")
		}
	}()
	a.MustRegisterFunc("bad name", echoFunc)
}
