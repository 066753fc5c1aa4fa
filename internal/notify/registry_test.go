package notify_test

import (
	"errors"
	"testing"
	"time"

	"github.com/quantpit/pitboss/internal/core"
	"github.com/quantpit/pitboss/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNotifier records what it was asked to deliver.
type fakeNotifier struct {
	name    string
	failure error
	sent    []notify.Notice
	batches [][]notify.Notice
}

func (f *fakeNotifier) Name() string                 { return f.name }
func (f *fakeNotifier) Init(cfg notify.Config) error { return nil }

func (f *fakeNotifier) Send(notice notify.Notice) error {
	if f.failure != nil {
		return f.failure
	}
	f.sent = append(f.sent, notice)
	return nil
}

func (f *fakeNotifier) SendBatch(notices []notify.Notice) error {
	if f.failure != nil {
		return f.failure
	}
	f.batches = append(f.batches, notices)
	return nil
}

func TestRegister_DuplicateNameFails(t *testing.T) {
	reg := notify.NewRegistry()

	require.NoError(t, reg.Register(&fakeNotifier{name: "telegram"}))
	err := reg.Register(&fakeNotifier{name: "telegram"})
	assert.Error(t, err)
}

func TestGet_ReturnsRegisteredNotifier(t *testing.T) {
	reg := notify.NewRegistry()
	require.NoError(t, reg.Register(&fakeNotifier{name: "webhook"}))

	n, err := reg.Get("webhook")
	require.NoError(t, err)
	assert.Equal(t, "webhook", n.Name())

	_, err = reg.Get("missing")
	assert.Error(t, err)
}

func TestNotifyAll_CollectsPerNotifierFailures(t *testing.T) {
	reg := notify.NewRegistry()
	good := &fakeNotifier{name: "good"}
	bad := &fakeNotifier{name: "bad", failure: errors.New("unreachable")}
	require.NoError(t, reg.Register(good))
	require.NoError(t, reg.Register(bad))

	errs := reg.NotifyAll(notify.Notice{Kind: notify.KindAlert, Title: "test"})

	require.Len(t, errs, 1)
	assert.Contains(t, errs, "bad")
	require.Len(t, good.sent, 1)
	assert.Equal(t, "test", good.sent[0].Title)
}

func TestNotifyAllBatch_DeliversToAll(t *testing.T) {
	reg := notify.NewRegistry()
	a := &fakeNotifier{name: "a"}
	b := &fakeNotifier{name: "b"}
	require.NoError(t, reg.Register(a))
	require.NoError(t, reg.Register(b))

	notices := []notify.Notice{
		{Kind: notify.KindSignal, Title: "one"},
		{Kind: notify.KindTrade, Title: "two"},
	}
	errs := reg.NotifyAllBatch(notices)

	assert.Empty(t, errs)
	require.Len(t, a.batches, 1)
	assert.Len(t, a.batches[0], 2)
	require.Len(t, b.batches, 1)
}

func TestFromSignal_CarriesPriceLevels(t *testing.T) {
	sig := core.Signal{
		Symbol:      "AAPL",
		Action:      core.ActionBuy,
		Confidence:  82,
		EntryPrice:  178.5,
		StopLoss:    172,
		TakeProfit:  192,
		Rationale:   "momentum",
		Source:      "claude",
		GeneratedAt: time.Now(),
	}

	notice := notify.FromSignal(sig)

	assert.Equal(t, notify.KindSignal, notice.Kind)
	assert.Equal(t, "AAPL", notice.Symbol)
	assert.Contains(t, notice.Title, "BUY AAPL")
	assert.Equal(t, "momentum", notice.Body)
	assert.Equal(t, 178.5, notice.Fields["entry_price"])
}

func TestFromTrade_TitleSummarizesFill(t *testing.T) {
	notice := notify.FromTrade("TSLA", "EXECUTED", 5, 200.25, time.Now())

	assert.Equal(t, notify.KindTrade, notice.Kind)
	assert.Contains(t, notice.Title, "TSLA EXECUTED: 5 @ 200.25")
	assert.Equal(t, "EXECUTED", notice.Fields["state"])
}
