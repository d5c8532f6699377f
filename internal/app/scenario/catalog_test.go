package scenario_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/PabloGalante/scam-harness/internal/app/scenario"
	"github.com/PabloGalante/scam-harness/internal/domain"
)

func TestCatalog_Builtins(t *testing.T) {
	c := scenario.NewCatalog()

	assert.Equal(t, []string{
		"Bank Fraud", "Hindi Bank Fraud", "Phishing", "Romance Scam", "Tech Support", "UPI Fraud",
	}, c.Names())

	sc, err := c.Get("Hindi Bank Fraud")
	require.NoError(t, err)
	assert.Equal(t, "Hindi", sc.Language)
	assert.Equal(t, "SMS", sc.Channel)
	require.Len(t, sc.Messages, 1)
	assert.Equal(t, domain.SenderScammer, sc.Messages[0].Sender)
}

func TestCatalog_GetReturnsCopy(t *testing.T) {
	c := scenario.NewCatalog()

	sc, err := c.Get("Phishing")
	require.NoError(t, err)
	sc.Messages[0].Text = "changed"

	again, err := c.Get("Phishing")
	require.NoError(t, err)
	assert.NotEqual(t, "changed", again.Messages[0].Text)
}

func TestCatalog_UnknownScenario(t *testing.T) {
	_, err := scenario.NewCatalog().Get("Lottery")
	assert.ErrorIs(t, err, domain.ErrScenarioNotFound)
}

const courierYAML = `
language: English
channel: WhatsApp
messages:
  - text: "Your parcel is held at customs."
  - text: "Pay the fee to 9876543210@ybl to release it."
`

func TestCatalog_LoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Courier.yaml"), []byte(courierYAML), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	c := scenario.NewCatalog()
	n, err := c.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	sc, err := c.Get("Courier")
	require.NoError(t, err)
	assert.Equal(t, "WhatsApp", sc.Channel)
	require.Len(t, sc.Messages, 2)
	assert.Equal(t, domain.SenderScammer, sc.Messages[1].Sender)

	_, err = c.Get("Bank Fraud")
	assert.NoError(t, err, "built-ins survive a directory load")
}

func TestParseFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := map[string]string{
		"empty.yaml":  "language: English\nmessages: []\n",
		"blank.yaml":  "messages:\n  - text: \"  \"\n",
		"sender.yaml": "messages:\n  - sender: victim\n    text: hi\n",
		"broken.yaml": "messages: [",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

			_, err := scenario.ParseFile(path)
			assert.Error(t, err)
		})
	}
}

func TestCatalog_WatchReloads(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	c := scenario.NewCatalog()
	_, err := c.LoadDir(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Watch(ctx, dir) }()
	defer func() {
		cancel()
		assert.NoError(t, <-done)
	}()

	// give the watcher time to register, then write once and wait out the debounce
	time.Sleep(300 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Courier.yml"), []byte(courierYAML), 0o600))

	require.Eventually(t, func() bool {
		_, err := c.Get("Courier")
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)
}

func TestClone_CopiesMessages(t *testing.T) {
	sc := domain.Scenario{Name: "x", Messages: []domain.ScriptedMessage{{Text: "a"}}}

	cp := scenario.Clone(sc)
	cp.Messages[0].Text = "b"
	require.NoError(t, scenario.Validate(&cp))

	assert.Equal(t, "a", sc.Messages[0].Text)
	assert.Empty(t, sc.Messages[0].Sender)
}
