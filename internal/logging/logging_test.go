package logging

import "testing"

func TestWithContextPrefixesMessages(t *testing.T) {
	l := WithContext("central", "connector.download")
	if l.prefix != "[central/connector.download] " {
		t.Fatalf("unexpected prefix: %q", l.prefix)
	}
}

func TestDebugfRespectsVerboseFlag(t *testing.T) {
	Verbose = false
	defer func() { Verbose = false }()
	// Debugf must not panic regardless of Verbose; there is no output
	// capture here since std logs to os.Stderr directly, matching the
	// teacher's Logln/Logf which also write straight to os.Stderr.
	Debugf("noop %d", 1)
	Verbose = true
	Debugf("noop %d", 2)
}
