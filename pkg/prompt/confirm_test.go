package prompt

import (
	"bytes"
	"strings"
	"testing"
)

func TestCommandLineConfirmYes(t *testing.T) {
	out := &bytes.Buffer{}
	confirm := CommandLine(strings.NewReader("yes\n"), out)

	ok, err := confirm("remove file?")
	if err != nil {
		t.Fatal("unable to confirm:", err)
	}
	if !ok {
		t.Error("expected affirmative response")
	}
}

func TestCommandLineConfirmBlankIsNo(t *testing.T) {
	out := &bytes.Buffer{}
	confirm := CommandLine(strings.NewReader("\n"), out)

	ok, err := confirm("remove file?")
	if err != nil {
		t.Fatal("unable to confirm:", err)
	}
	if ok {
		t.Error("expected negative response for blank input")
	}
}

func TestCommandLineConfirmReprompt(t *testing.T) {
	out := &bytes.Buffer{}
	confirm := CommandLine(strings.NewReader("maybe\ny\n"), out)

	ok, err := confirm("remove file?")
	if err != nil {
		t.Fatal("unable to confirm:", err)
	}
	if !ok {
		t.Error("expected affirmative response after reprompt")
	}
}

func TestAlways(t *testing.T) {
	confirm := Always(true)
	ok, err := confirm("anything")
	if err != nil {
		t.Fatal("unable to confirm:", err)
	}
	if !ok {
		t.Error("expected Always(true) to answer yes")
	}
}
